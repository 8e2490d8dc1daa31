package render

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rs/zerolog"
	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"chain-dashboard/internal/chain"
)

var (
	baseFeeColor  = drawing.ColorFromHex("22c55e")
	gasUsageColor = drawing.ColorFromHex("3b82f6")
	volumeColor   = drawing.ColorFromHex("f59e0b")
)

// ChartOptions size and place the rendered charts.
type ChartOptions struct {
	Dir    string
	Width  int
	Height int
	PNG    bool
	CSV    bool
}

// ChartWriter renders each ready panel of a snapshot to disk.
type ChartWriter struct {
	opts   ChartOptions
	logger zerolog.Logger
}

// NewChartWriter builds a chart writer.
func NewChartWriter(opts ChartOptions, logger zerolog.Logger) *ChartWriter {
	if opts.Width <= 0 {
		opts.Width = 1280
	}
	if opts.Height <= 0 {
		opts.Height = 480
	}
	return &ChartWriter{opts: opts, logger: logger.With().Str("component", "chart_writer").Logger()}
}

// Publish writes PNG charts and a CSV file for the snapshot. Panels that are
// not ready are skipped and any stale chart for them is left untouched.
func (w *ChartWriter) Publish(ctx context.Context, snap chain.Snapshot) error {
	if snap.Err != nil {
		w.logger.Debug().Msg("window unavailable; keeping previous charts")
		return nil
	}
	if err := os.MkdirAll(w.opts.Dir, 0o755); err != nil {
		return err
	}

	var errs []error
	if w.opts.PNG {
		for _, series := range chain.AllSeries {
			panel := snap.Panel(series)
			if !panel.HasData() {
				w.logger.Debug().Str("series", string(series)).Str("state", string(panel.State)).Msg("skipping chart")
				continue
			}
			path := w.ChartPath(series)
			if err := writeChartPNG(path, panel, w.opts.Width, w.opts.Height); err != nil {
				errs = append(errs, fmt.Errorf("render %s: %w", series, err))
				continue
			}
			w.logger.Debug().Str("path", path).Msg("chart written")
		}
	}

	if w.opts.CSV {
		if err := writeSnapshotCSV(w.CSVPath(), snap); err != nil {
			errs = append(errs, fmt.Errorf("write csv: %w", err))
		}
	}

	return errors.Join(errs...)
}

// ChartPath returns the PNG path for series.
func (w *ChartWriter) ChartPath(series chain.Series) string {
	return filepath.Join(w.opts.Dir, string(series)+".png")
}

// CSVPath returns the CSV path for the window.
func (w *ChartWriter) CSVPath() string {
	return filepath.Join(w.opts.Dir, "window.csv")
}

func writeChartPNG(path string, panel chain.Panel, width, height int) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	switch panel.Series {
	case chain.SeriesVolume:
		return volumeChart(panel, width, height).Render(chart.PNG, file)
	case chain.SeriesGasUsage:
		return lineChart(panel, width, height, gasUsageColor, true).Render(chart.PNG, file)
	default:
		return lineChart(panel, width, height, baseFeeColor, false).Render(chart.PNG, file)
	}
}

func lineChart(panel chain.Panel, width, height int, color drawing.Color, filled bool) chart.Chart {
	x := make([]float64, len(panel.Points))
	y := make([]float64, len(panel.Points))
	for i, p := range panel.Points {
		x[i] = float64(p.BlockNumber)
		y[i] = p.Value
	}

	style := chart.Style{
		StrokeColor: color,
		StrokeWidth: 2,
		DotColor:    color,
		DotWidth:    4,
	}
	if filled {
		style.FillColor = color.WithAlpha(64)
	}

	yMin, yMax := paddedRange(y)
	if panel.Series == chain.SeriesGasUsage {
		yMin, yMax = 0, 100
	}
	xMin, xMax := paddedRange(x)

	graph := chart.Chart{
		Title:  panel.Series.Title(),
		Width:  width,
		Height: height,
		XAxis: chart.XAxis{
			Name:           "Block",
			ValueFormatter: blockFormatter,
			Range:          &chart.ContinuousRange{Min: xMin, Max: xMax},
		},
		YAxis: chart.YAxis{
			Name:           panel.Series.Title(),
			ValueFormatter: valueFormatter,
			Range:          &chart.ContinuousRange{Min: yMin, Max: yMax},
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    panel.Series.Title(),
				Style:   style,
				XValues: x,
				YValues: y,
			},
		},
	}
	return graph
}

func volumeChart(panel chain.Panel, width, height int) chart.BarChart {
	bars := make([]chart.Value, len(panel.Points))
	peak := 0.0
	for i, p := range panel.Points {
		bars[i] = chart.Value{
			Label: strconv.FormatUint(p.BlockNumber, 10),
			Value: p.Value,
			Style: chart.Style{FillColor: volumeColor, StrokeColor: volumeColor},
		}
		if p.Value > peak {
			peak = p.Value
		}
	}
	if peak == 0 {
		peak = 1
	}

	// Leave room for the axis and split the rest into bars and gaps.
	slot := (width - 200) / len(bars)
	if slot < 2 {
		slot = 2
	}

	return chart.BarChart{
		Title:      panel.Series.Title(),
		Width:      width,
		Height:     height,
		BarWidth:   slot * 3 / 5,
		BarSpacing: slot - slot*3/5,
		YAxis: chart.YAxis{
			ValueFormatter: valueFormatter,
			Range:          &chart.ContinuousRange{Min: 0, Max: peak * 1.1},
		},
		Bars: bars,
	}
}

// paddedRange returns the bounds of values, widened when they collapse to a
// single value so the chart never sees a zero-width axis.
func paddedRange(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 1
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if hi == lo {
		pad := 1.0
		if lo != 0 {
			pad = lo * 0.1
			if pad < 0 {
				pad = -pad
			}
		}
		return lo - pad, hi + pad
	}
	return lo, hi
}

func blockFormatter(v interface{}) string {
	if f, ok := v.(float64); ok {
		return strconv.FormatFloat(f, 'f', 0, 64)
	}
	return fmt.Sprint(v)
}

func valueFormatter(v interface{}) string {
	return chart.FloatValueFormatterWithFormat(v, "%.2f")
}
