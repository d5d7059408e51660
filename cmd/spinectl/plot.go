package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/NASA-Tensegrity-Robotics-Toolkit/DTRLdev/internal/model"
	"github.com/NASA-Tensegrity-Robotics-Toolkit/DTRLdev/internal/storage"
	"github.com/NASA-Tensegrity-Robotics-Toolkit/DTRLdev/pkg/spinecpg"
)

func runPlot(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("plot", flag.ContinueOnError)
	runID := fs.String("run", "", "run id")
	outDir := fs.String("out", "plots", "output directory for PNGs")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "dtrl.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID == "" {
		return usageError("plot requires -run")
	}

	client, err := spinecpg.NewClient(ctx, spinecpg.Options{StoreKind: *storeKind, DBPath: *dbPath})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	trace, ok, err := client.Trace(ctx, *runID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no trace stored for run %s", *runID)
	}
	if len(trace.Steps) == 0 {
		return fmt.Errorf("trace for run %s is empty", *runID)
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		return err
	}
	if err := plotSeries(*outDir, "cable_lengths.png", "Cable Lengths", "length",
		trace, func(s model.TraceStep) []float64 { return s.Lengths }); err != nil {
		return err
	}
	if err := plotSeries(*outDir, "phases.png", "Oscillator Phases", "phase (rad)",
		trace, func(s model.TraceStep) []float64 { return s.Phases }); err != nil {
		return err
	}
	if err := plotSeries(*outDir, "amplitudes.png", "Oscillator Amplitudes", "amplitude",
		trace, func(s model.TraceStep) []float64 { return s.Amplitudes }); err != nil {
		return err
	}

	fmt.Printf("wrote plots for run %s to %s\n", *runID, *outDir)
	return nil
}

// plotSeries renders one line per series index (cable or node) against
// simulation time.
func plotSeries(outDir, filename, title, ylabel string, trace model.RunTrace, pick func(model.TraceStep) []float64) error {
	series := len(pick(trace.Steps[0]))
	if series == 0 {
		return nil
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "time (s)"
	p.Y.Label.Text = ylabel
	p.Add(plotter.NewGrid())

	for i := 0; i < series; i++ {
		pts := make(plotter.XYs, 0, len(trace.Steps))
		for _, step := range trace.Steps {
			values := pick(step)
			if i >= len(values) {
				continue
			}
			pts = append(pts, plotter.XY{X: step.Time, Y: values[i]})
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return err
		}
		line.LineStyle.Width = vg.Points(1.5)
		line.LineStyle.Color = plotutil.Color(i)
		p.Add(line)
		p.Legend.Add(fmt.Sprintf("%d", i), line)
	}

	return p.Save(8*vg.Inch, 6*vg.Inch, filepath.Join(outDir, filename))
}
