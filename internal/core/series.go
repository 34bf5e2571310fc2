package core

// Point is one chart sample.
type Point struct {
	Label  string `json:"label"`
	Total  int64  `json:"total"`
	Cash   int64  `json:"cash"`
	Spot   int64  `json:"spot"`
	Margin int64  `json:"margin"`
}

// Series is the chart payload for the total-assets history.
type Series struct {
	Points []Point `json:"points"`
	High   int64   `json:"high"`
	Low    int64   `json:"low"`
	Goal   int64   `json:"goal"`
}

// NewSeries builds chart data from a normalized ledger.
func NewSeries(l Ledger, goal Goal) Series {
	s := Series{Points: make([]Point, 0, len(l)), Goal: int64(goal)}
	for i, snap := range l {
		t := int64(snap.Total)
		s.Points = append(s.Points, Point{
			Label:  snap.Date.String(),
			Total:  t,
			Cash:   int64(snap.Cash),
			Spot:   int64(snap.Spot),
			Margin: int64(snap.Margin),
		})
		if i == 0 || t > s.High {
			s.High = t
		}
		if i == 0 || t < s.Low {
			s.Low = t
		}
	}
	return s
}
