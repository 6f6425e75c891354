package report

import (
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/seqgrid/pkg/errors"
	"github.com/YuminosukeSato/seqgrid/results"
)

var curveColors = []color.Color{
	color.RGBA{R: 20, G: 80, B: 200, A: 255},
	color.RGBA{R: 200, G: 30, B: 30, A: 255},
	color.RGBA{R: 40, G: 140, B: 40, A: 255},
	color.RGBA{R: 150, G: 90, B: 10, A: 255},
}

// PlotHistory は学習曲線（エポックごとのメトリクス）をPNGとして保存する
// metrics を省略した場合は履歴の全メトリクスを描く。横軸は1始まりのエポック。
func PlotHistory(path, title string, history results.History, metrics ...string) error {
	if len(metrics) == 0 {
		metrics = history.Metrics()
	}
	if len(metrics) == 0 {
		return errors.NewValueError("report.PlotHistory", "history holds no metrics")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "epoch"
	p.Y.Label.Text = "value"
	p.Add(plotter.NewGrid())

	for i, name := range metrics {
		values, ok := history[name]
		if !ok || len(values) == 0 {
			return errors.NewValueError("report.PlotHistory", "history has no values for "+name)
		}
		xys := make(plotter.XYs, len(values))
		for e, v := range values {
			xys[e] = plotter.XY{X: float64(e + 1), Y: v}
		}

		line, points, err := plotter.NewLinePoints(xys)
		if err != nil {
			return errors.Wrapf(err, "report: plot %s", name)
		}
		line.Color = curveColors[i%len(curveColors)]
		line.Width = vg.Points(1.2)
		points.GlyphStyle.Color = line.Color
		points.GlyphStyle.Radius = vg.Points(2)
		p.Add(line, points)
		p.Legend.Add(name, line, points)
	}
	p.Legend.Top = true

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "report: create %s", dir)
		}
	}
	if err := p.Save(8*vg.Inch, 5*vg.Inch, path); err != nil {
		return errors.Wrapf(err, "report: save %s", path)
	}
	return nil
}
