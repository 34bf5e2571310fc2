package http

import (
	"strconv"
	"strings"

	"wealthnav/internal/core"
)

type chartDot struct {
	X, Y  float64
	Label string
	Value string
}

// chartView is a server-rendered SVG line chart of total assets.
type chartView struct {
	Width, Height int
	Points        string
	Dots          []chartDot
	High, Low     int64
}

const chartPad = 8.0

func newChart(s core.Series, width, height int) chartView {
	c := chartView{Width: width, Height: height, High: s.High, Low: s.Low}
	n := len(s.Points)
	if n == 0 {
		return c
	}

	span := float64(s.High - s.Low)
	plotW := float64(width) - 2*chartPad
	plotH := float64(height) - 2*chartPad

	var pts strings.Builder
	for i, p := range s.Points {
		x := chartPad + plotW/2
		if n > 1 {
			x = chartPad + plotW*float64(i)/float64(n-1)
		}
		y := chartPad + plotH/2
		if span > 0 {
			y = chartPad + plotH*(1-float64(p.Total-s.Low)/span)
		}
		x, y = round1(x), round1(y)
		if i > 0 {
			pts.WriteByte(' ')
		}
		pts.WriteString(strconv.FormatFloat(x, 'f', -1, 64))
		pts.WriteByte(',')
		pts.WriteString(strconv.FormatFloat(y, 'f', -1, 64))
		c.Dots = append(c.Dots, chartDot{X: x, Y: y, Label: p.Label, Value: core.Yen(p.Total).String()})
	}
	c.Points = pts.String()
	return c
}

func round1(f float64) float64 {
	return float64(int64(f*10+0.5)) / 10
}
