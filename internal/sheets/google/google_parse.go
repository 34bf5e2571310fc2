package google

import (
	"fmt"
	"strconv"
	"strings"

	"wealthnav/internal/core"

	gsheet "google.golang.org/api/sheets/v4"
)

// parseLedger converts a values matrix (as returned by the Sheets API) into
// raw rows. When the first row carries the ledger headers, columns are
// located by name so a reordered sheet still reads correctly; otherwise the
// persisted column order is assumed.
func parseLedger(values [][]interface{}) []core.RawRow {
	if len(values) == 0 {
		return nil
	}
	cols := []int{0, 1, 2, 3, 4, 5}
	start := 0
	headers := toStrings(values[0])
	if indexOf(headers, core.ColDate) != -1 {
		start = 1
		for i, name := range core.Columns {
			cols[i] = indexOf(headers, name)
		}
	}

	out := make([]core.RawRow, 0, len(values)-start)
	for _, v := range values[start:] {
		row := toStrings(v)
		if isBlank(row) {
			continue
		}
		out = append(out, core.RawRow{
			Date:      safeGet(row, cols[0]),
			Cash:      safeGet(row, cols[1]),
			Spot:      safeGet(row, cols[2]),
			Margin:    safeGet(row, cols[3]),
			Total:     safeGet(row, cols[4]),
			Remaining: safeGet(row, cols[5]),
		})
	}
	return out
}

// buildRowData renders the header and rows as cell data. Numeric cells are
// written as numbers so sheet formulas and charts keep working; anything else
// is written verbatim as text.
func buildRowData(rows []core.RawRow) []*gsheet.RowData {
	out := make([]*gsheet.RowData, 0, len(rows)+1)
	header := make([]*gsheet.CellData, len(core.Columns))
	for i, name := range core.Columns {
		header[i] = textCell(name)
	}
	out = append(out, &gsheet.RowData{Values: header})

	for _, r := range rows {
		vals := r.Values()
		cells := make([]*gsheet.CellData, len(vals))
		cells[0] = textCell(vals[0])
		for i := 1; i < len(vals); i++ {
			if y, err := core.ParseAmount(vals[i]); err == nil {
				n := float64(y)
				cells[i] = &gsheet.CellData{UserEnteredValue: &gsheet.ExtendedValue{NumberValue: &n}}
				continue
			}
			cells[i] = textCell(vals[i])
		}
		out = append(out, &gsheet.RowData{Values: cells})
	}
	return out
}

func textCell(s string) *gsheet.CellData {
	return &gsheet.CellData{UserEnteredValue: &gsheet.ExtendedValue{StringValue: &s}}
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		switch n := v.(type) {
		case float64:
			out[i] = strconv.FormatFloat(n, 'f', -1, 64)
		default:
			out[i] = strings.TrimSpace(fmt.Sprint(v))
		}
	}
	return out
}

func indexOf(arr []string, target string) int {
	for i, v := range arr {
		if strings.EqualFold(strings.TrimSpace(v), strings.TrimSpace(target)) {
			return i
		}
	}
	return -1
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}

func isBlank(row []string) bool {
	for _, v := range row {
		if v != "" {
			return false
		}
	}
	return true
}
