package core

import (
	"fmt"
	"strings"
)

// Report renders metrics and the most recent snapshots as Markdown. The same
// text is shown in the terminal and on the web report page.
func Report(m Metrics, l Ledger, recent int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Wealth Navigator\n\n")
	fmt.Fprintf(&b, "As of **%s** (latest snapshot %s", m.AsOf, m.LatestDate)
	if m.DaysSinceLast > 0 {
		fmt.Fprintf(&b, ", %d days ago", m.DaysSinceLast)
	}
	b.WriteString(")\n\n")

	b.WriteString("| Metric | Value |\n|---|---:|\n")
	fmt.Fprintf(&b, "| Total assets | %s |\n", m.CurrentTotal)
	fmt.Fprintf(&b, "| Since previous snapshot | %s |\n", m.DayOverDayDelta.Signed())
	fmt.Fprintf(&b, "| Month to date (since %s) | %s |\n", m.MonthBaseline, m.MonthToDateDelta.Signed())
	if m.HasPriorMonth {
		fmt.Fprintf(&b, "| %s | %s |\n", m.PriorMonth, m.PriorMonthDelta.Signed())
	} else {
		fmt.Fprintf(&b, "| %s | no data |\n", m.PriorMonth)
	}
	fmt.Fprintf(&b, "| Remaining to %s | %s |\n", Yen(m.Goal), m.Remaining)
	fmt.Fprintf(&b, "| Progress | %s |\n", m.ProgressPercent())

	if recent > 0 && len(l) > 0 {
		start := max(len(l)-recent, 0)
		b.WriteString("\n## Recent snapshots\n\n")
		b.WriteString("| " + strings.Join(Columns, " | ") + " |\n")
		b.WriteString("|---|---:|---:|---:|---:|---:|\n")
		for i := len(l) - 1; i >= start; i-- {
			s := l[i]
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s |\n",
				s.Date, s.Cash, s.Spot, s.Margin.Signed(), s.Total, s.Remaining)
		}
	}
	return b.String()
}
