//go:build sqlite

package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/NASA-Tensegrity-Robotics-Toolkit/DTRLdev/pkg/spinecpg"
)

func TestSimulateCommandSQLitePersistsAcrossClients(t *testing.T) {
	paramPath := writeParamFile(t)
	dbPath := filepath.Join(t.TempDir(), "dtrl.db")

	args := []string{
		"simulate",
		"-params", paramPath,
		"-steps", "100",
		"-dt", "0.01",
		"-store", "sqlite",
		"-db-path", dbPath,
	}
	if err := run(context.Background(), args); err != nil {
		t.Fatalf("simulate: %v", err)
	}

	client, err := spinecpg.NewClient(context.Background(), spinecpg.Options{StoreKind: "sqlite", DBPath: dbPath})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	defer func() {
		_ = client.Close()
	}()

	runs, err := client.Runs(context.Background())
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 stored run, got %d", len(runs))
	}
	trace, ok, err := client.Trace(context.Background(), runs[0].ID)
	if err != nil || !ok {
		t.Fatalf("trace: ok=%v err=%v", ok, err)
	}
	if len(trace.Steps) != 100 {
		t.Fatalf("trace has %d steps, want 100", len(trace.Steps))
	}

	outDir := filepath.Join(t.TempDir(), "plots")
	if err := run(context.Background(), []string{"plot", "-store", "sqlite", "-db-path", dbPath, "-run", runs[0].ID, "-out", outDir}); err != nil {
		t.Fatalf("plot: %v", err)
	}
	if err := run(context.Background(), []string{"runs", "-store", "sqlite", "-db-path", dbPath}); err != nil {
		t.Fatalf("runs command: %v", err)
	}
}
