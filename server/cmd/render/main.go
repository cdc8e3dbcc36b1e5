// Command render runs the analysis once: it generates the dataset, filters it
// at -threshold, prints the markdown summary and writes the scatter plot.
//
// Usage:
//
//	render -threshold 28 -out plot.png
//	render -config config.yaml -about
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gonum.org/v1/plot/vg"

	"github.com/growthlab/growthlab/server/internal/analysis"
	"github.com/growthlab/growthlab/server/internal/chart"
	"github.com/growthlab/growthlab/server/internal/config"
	"github.com/growthlab/growthlab/server/internal/dataset"
	"github.com/growthlab/growthlab/server/internal/report"
)

func main() {
	configPath := flag.String("config", "", "path to config file; empty uses defaults")
	threshold := flag.Float64("threshold", -1, "temperature threshold; defaults to the slider value")
	out := flag.String("out", "plot.svg", "plot output path (.svg or .png); empty skips the plot")
	about := flag.Bool("about", false, "append the About section to the markdown")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(*configPath, *threshold, *out, *about); err != nil {
		slog.Error("render failed", "err", err)
		os.Exit(1)
	}
}

func run(configPath string, threshold float64, out string, about bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	slider := cfg.Slider
	if threshold >= 0 {
		if _, err := slider.Set(threshold); err != nil {
			return fmt.Errorf("threshold: %w", err)
		}
	}

	ds, err := dataset.Generate(cfg.Dataset.Params)
	if err != nil {
		return err
	}
	filtered, sum := analysis.Analyze(ds.Samples, slider.Value)

	md, err := report.Markdown(sum)
	if err != nil {
		return err
	}
	if about {
		md += "\n" + report.About
	}
	fmt.Print(md)

	if out == "" {
		return nil
	}
	format, err := chart.ParseFormat(filepath.Ext(out))
	if err != nil {
		return err
	}
	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("create %q: %w", out, err)
	}
	opts := chart.Options{
		Width:  vg.Length(cfg.Chart.WidthIn) * vg.Inch,
		Height: vg.Length(cfg.Chart.HeightIn) * vg.Inch,
		DPI:    cfg.Chart.DPI,
	}
	if err := chart.Render(f, filtered, slider.Value, format, opts); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %q: %w", out, err)
	}
	slog.Info("plot written", "path", out, "format", format, "filtered", sum.Count, "total", sum.Total)
	return nil
}
