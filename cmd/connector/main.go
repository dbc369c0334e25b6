// Package main is a local debug runner for the DocuSign connector. It
// loads a configuration file, runs one sync against the live API, prints
// every upsert as a JSON line, and persists the checkpoint state to disk,
// standing in for the host ingestion platform during development.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ArpitKhatri1/docusign-connector/internal/config"
	"github.com/ArpitKhatri1/docusign-connector/internal/connector"
)

func main() {
	configPath := flag.String("config", "configuration.json", "path to the configuration file")
	statePath := flag.String("state", "state.json", "path to the sync state file")
	workers := flag.Int("workers", 1, "number of parallel envelope workers")
	printSchema := flag.Bool("schema", false, "print the table schema and exit")
	flag.Parse()

	// Setup structured logger
	logLevel := slog.LevelInfo
	if os.Getenv("DEBUG") == "true" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	if *printSchema {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(connector.Schema()); err != nil {
			log.Fatalf("Failed to print schema: %v", err)
		}
		return
	}

	configuration, err := config.LoadFile(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	state, err := loadState(*statePath)
	if err != nil {
		log.Fatalf("Failed to load state: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn := connector.New(connector.SlogLogger{L: logger}, connector.WithWorkers(*workers))
	ops := &fileOps{out: json.NewEncoder(os.Stdout), statePath: *statePath}

	if err := conn.Update(ctx, configuration, state, ops); err != nil {
		log.Fatalf("Sync failed: %v", err)
	}
}

// loadState reads the persisted state file; a missing file means a first
// sync.
func loadState(path string) (*connector.State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var state connector.State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("invalid state file %s: %w", path, err)
	}
	return &state, nil
}

// fileOps prints upserts as JSON lines and persists checkpoints to the
// state file.
type fileOps struct {
	out       *json.Encoder
	statePath string
}

type opLine struct {
	Op    string        `json:"op"`
	Table string        `json:"table,omitempty"`
	Row   connector.Row `json:"row,omitempty"`
}

func (f *fileOps) Upsert(table string, row connector.Row) error {
	return f.out.Encode(opLine{Op: "upsert", Table: table, Row: row})
}

func (f *fileOps) Checkpoint(state connector.State) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(f.statePath, data, 0o644)
}
