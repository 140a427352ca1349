package render

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/soypat/axial"
	"github.com/soypat/axial/profile"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// Section is a named airfoil section to plot.
type Section struct {
	Name     string
	Pipeline profile.Pipeline
}

// PlotSections plots the planar, unwrapped outline of each section sampled
// at n chordwise points per side.
func PlotSections(title string, n int, sections ...Section) (*plot.Plot, error) {
	if n < 2 {
		return nil, fmt.Errorf("plot: %d samples: %w", n, axial.ErrInvalidInput)
	}
	if len(sections) == 0 {
		return nil, errors.New("plot: no sections")
	}
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "X"
	p.Y.Label.Text = "Y"
	var lines []interface{}
	for _, s := range sections {
		lines = append(lines, s.Name, sectionXYs(s.Pipeline, n))
	}
	if err := plotutil.AddLines(p, lines...); err != nil {
		return nil, fmt.Errorf("plot: %w", err)
	}
	p.Legend.Top = true
	return p, nil
}

// SavePlot writes p to path. The format is taken from the file extension.
func SavePlot(path string, p *plot.Plot, width, height vg.Length) error {
	return p.Save(width, height, path)
}

// WritePlot writes p to w in the given format, e.g. "png" or "svg".
func WritePlot(w io.Writer, p *plot.Plot, width, height vg.Length, format string) error {
	wt, err := p.WriterTo(width, height, format)
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}

// sectionXYs returns the closed outline from the trailing edge over the top
// side to the leading edge and back along the bottom.
func sectionXYs(pl profile.Pipeline, n int) plotter.XYs {
	ts := axial.Linspace(0, 1, n)
	pts := make(plotter.XYs, 0, 2*n-1)
	for i := n - 1; i >= 0; i-- {
		v := pl.Planar(ts[i], true)
		pts = append(pts, plotter.XY{X: v.X, Y: v.Y})
	}
	for _, t := range ts[1:] {
		v := pl.Planar(t, false)
		pts = append(pts, plotter.XY{X: v.X, Y: v.Y})
	}
	return pts
}

// WriteSectionCSV writes the wrapped 3-D section of pl sampled at n points
// per side as x,y,z,side records, top side first.
func WriteSectionCSV(w io.Writer, pl profile.Pipeline, n int) error {
	top, bottom, err := pl.Section(n)
	if err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"x", "y", "z", "side"}); err != nil {
		return err
	}
	sides := [2][]r3.Vec{top, bottom}
	for i, name := range [2]string{"top", "bottom"} {
		for _, p := range sides[i] {
			rec := []string{fmtF(p.X), fmtF(p.Y), fmtF(p.Z), name}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

func fmtF(f float64) string { return strconv.FormatFloat(f, 'g', -1, 64) }
