package http

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"wealthnav/internal/core"
	"wealthnav/internal/extract"
	applog "wealthnav/internal/log"
	"wealthnav/internal/services"
)

const recentRows = 10

type indexView struct {
	Dashboard      services.Dashboard
	HasData        bool
	Recent         []core.Snapshot
	Chart          chartView
	Form           entryForm
	ExtractEnabled bool
	MaxImages      int
	Error          string
	Notice         string
}

var markdown = goldmark.New(goldmark.WithExtensions(extension.Table))

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	view := s.newIndexView(r, entryForm{Date: s.today().Format("2006-01-02")})
	if r.URL.Query().Get("recorded") != "" {
		view.Notice = "記録しました。"
	}
	s.renderIndex(w, r, http.StatusOK, view)
}

// newIndexView loads the dashboard for the page. A load failure is reported on
// the page itself so the entry form stays usable.
func (s *Server) newIndexView(r *http.Request, form entryForm) indexView {
	view := indexView{
		Form:           form,
		ExtractEnabled: s.deps.Extractor != nil,
		MaxImages:      extract.MaxImages,
	}
	d, err := s.deps.Dashboard.Load(r.Context(), s.now().In(s.deps.Location))
	if err != nil {
		applog.FromContext(r.Context()).LogError(r.Context(), "Dashboard load failed", err, applog.OpRead)
		view.Error = userMessage(err)
		return view
	}
	view.Dashboard = d
	view.HasData = !d.Empty
	if !d.Empty {
		view.Recent = recent(d.Ledger, recentRows)
		view.Chart = newChart(d.Series, 720, 240)
	}
	return view
}

func (s *Server) renderIndex(w http.ResponseWriter, r *http.Request, status int, view indexView) {
	s.render(w, r, status, "index.html", view)
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	d, err := s.deps.Dashboard.Load(r.Context(), s.now().In(s.deps.Location))
	if err != nil {
		applog.FromContext(r.Context()).LogError(r.Context(), "Metrics load failed", err, applog.OpRead)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": userMessage(err)})
		return
	}
	if d.Empty {
		writeJSON(w, http.StatusOK, map[string]any{"empty": true})
		return
	}
	writeJSON(w, http.StatusOK, newMetricsJSON(d.Metrics))
}

func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	d, err := s.deps.Dashboard.Load(r.Context(), s.now().In(s.deps.Location))
	if err != nil {
		applog.FromContext(r.Context()).LogError(r.Context(), "Series load failed", err, applog.OpRead)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": userMessage(err)})
		return
	}
	if d.Empty {
		d.Series = core.Series{Points: []core.Point{}, Goal: int64(s.deps.Dashboard.Goal())}
	}
	writeJSON(w, http.StatusOK, d.Series)
}

type reportView struct {
	Body    template.HTML
	Comment string
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	d, err := s.deps.Dashboard.Load(ctx, s.now().In(s.deps.Location))
	if err != nil {
		applog.FromContext(ctx).LogError(ctx, "Report load failed", err, applog.OpRead)
		http.Error(w, userMessage(err), http.StatusBadGateway)
		return
	}

	md := "# Wealth Navigator\n\nデータがまだありません。\n"
	var comment string
	if !d.Empty {
		md = core.Report(d.Metrics, d.Ledger, recentRows)
		if s.deps.Commentator != nil {
			if comment, err = s.deps.Commentator.Comment(ctx, d.Metrics); err != nil {
				applog.FromContext(ctx).Warn("Commentary unavailable", "error", err)
				comment = ""
			}
		}
	}

	var buf bytes.Buffer
	if err := markdown.Convert([]byte(md), &buf); err != nil {
		applog.FromContext(ctx).LogError(ctx, "Markdown conversion failed", err, applog.OpRender)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	// goldmark escapes raw HTML by default, so the output is safe to embed.
	s.render(w, r, http.StatusOK, "report.html", reportView{Body: template.HTML(buf.String()), Comment: comment})
}

func recent(l core.Ledger, n int) []core.Snapshot {
	out := make([]core.Snapshot, 0, min(n, len(l)))
	for i := len(l) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, l[i])
	}
	return out
}

type metricsJSON struct {
	AsOf             string  `json:"as_of"`
	LatestDate       string  `json:"latest_date"`
	DaysSinceLast    int     `json:"days_since_last"`
	CurrentTotal     int64   `json:"current_total"`
	DayOverDayDelta  int64   `json:"day_over_day_delta"`
	MonthToDateDelta int64   `json:"month_to_date_delta"`
	MonthBaseline    string  `json:"month_baseline"`
	PriorMonth       string  `json:"prior_month"`
	PriorMonthDelta  int64   `json:"prior_month_delta"`
	HasPriorMonth    bool    `json:"has_prior_month"`
	Goal             int64   `json:"goal"`
	Remaining        int64   `json:"remaining"`
	Progress         float64 `json:"progress"`
	ProgressRatio    float64 `json:"progress_ratio"`
}

func newMetricsJSON(m core.Metrics) metricsJSON {
	return metricsJSON{
		AsOf:             m.AsOf.String(),
		LatestDate:       m.LatestDate.String(),
		DaysSinceLast:    m.DaysSinceLast,
		CurrentTotal:     int64(m.CurrentTotal),
		DayOverDayDelta:  int64(m.DayOverDayDelta),
		MonthToDateDelta: int64(m.MonthToDateDelta),
		MonthBaseline:    m.MonthBaseline.String(),
		PriorMonth:       m.PriorMonth.String(),
		PriorMonthDelta:  int64(m.PriorMonthDelta),
		HasPriorMonth:    m.HasPriorMonth,
		Goal:             int64(m.Goal),
		Remaining:        int64(m.Remaining),
		Progress:         m.Progress,
		ProgressRatio:    m.ProgressRatio,
	}
}
