package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/NASA-Tensegrity-Robotics-Toolkit/DTRLdev/internal/storage"
	"github.com/NASA-Tensegrity-Robotics-Toolkit/DTRLdev/pkg/spinecpg"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "validate":
		return runValidate(ctx, args[1:])
	case "simulate":
		return runSimulate(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	case "trace":
		return runTrace(ctx, args[1:])
	case "plot":
		return runPlot(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func runValidate(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	paramPath := fs.String("params", "", "learned parameter set JSON path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *paramPath == "" {
		return usageError("validate requires -params")
	}

	set, err := spinecpg.LoadParamFile(*paramPath)
	if err != nil {
		return err
	}
	nodes, edges, err := spinecpg.ValidateParams(set)
	if err != nil {
		return err
	}

	fmt.Printf("param set %s: %s nodes, %s coupling edges\n",
		set.ID, humanize.Comma(int64(nodes)), humanize.Comma(int64(edges)))
	return nil
}

func runSimulate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("simulate", flag.ContinueOnError)
	paramPath := fs.String("params", "", "learned parameter set JSON path")
	steps := fs.Int("steps", 10000, "step count")
	dt := fs.Float64("dt", 0.01, "timestep in simulation seconds")
	cables := fs.Int("cables", 2, "cables per segment")
	modulate := fs.Bool("modulate", false, "modulate impedance with ramping amplitude")
	noTrace := fs.Bool("no-trace", false, "skip per-step trace recording")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "dtrl.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *paramPath == "" {
		return usageError("simulate requires -params")
	}

	set, err := spinecpg.LoadParamFile(*paramPath)
	if err != nil {
		return err
	}

	client, err := spinecpg.NewClient(ctx, spinecpg.Options{StoreKind: *storeKind, DBPath: *dbPath})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	started := time.Now()
	result, err := client.Simulate(ctx, spinecpg.SimRequest{
		ParamSet:          set,
		Steps:             *steps,
		Dt:                *dt,
		CablesPerSegment:  *cables,
		ModulateImpedance: *modulate,
		RecordTrace:       !*noTrace,
	})
	if err != nil {
		return err
	}

	s := result.Summary
	fmt.Printf("run %s: %s steps over %s segments in %s\n",
		s.ID, humanize.Comma(int64(s.Steps)), humanize.Comma(int64(s.Segments)),
		time.Since(started).Round(time.Millisecond))
	fmt.Printf("  score=%.4f mean-length=%.4f length-std=%.4f saturated-steps=%s\n",
		s.Score, s.MeanCableLength, s.CableLengthStd, humanize.Comma(int64(s.SaturatedSteps)))
	return nil
}

func runRuns(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "dtrl.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := spinecpg.NewClient(ctx, spinecpg.Options{StoreKind: *storeKind, DBPath: *dbPath})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	runs, err := client.Runs(ctx)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs stored")
		return nil
	}
	for _, r := range runs {
		fmt.Printf("%s  params=%s segments=%d steps=%s score=%.4f saturated=%s  %s\n",
			r.ID, r.ParamSetID, r.Segments, humanize.Comma(int64(r.Steps)),
			r.Score, humanize.Comma(int64(r.SaturatedSteps)),
			humanize.Time(time.Unix(r.CreatedUnix, 0)))
	}
	return nil
}

func runTrace(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("trace", flag.ContinueOnError)
	runID := fs.String("run", "", "run id")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "dtrl.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID == "" {
		return usageError("trace requires -run")
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

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(trace)
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: spinectl <validate|simulate|runs|trace|plot> [flags]", msg)
}
