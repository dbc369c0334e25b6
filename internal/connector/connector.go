// Package connector implements the sync entry point invoked by the host
// ingestion platform: it traverses DocuSign envelopes and their child
// resources, normalizes them into warehouse rows, and commits a watermark
// checkpoint at the end of each successful run.
package connector

import "log/slog"

// Row is a single record destined for a warehouse table. Column sets vary
// at runtime for the dynamically-shaped tables (audit events, tabs); every
// value is a string.
type Row map[string]string

// State is the watermark state the host persists between syncs.
type State struct {
	LastEnvelopeSync string `json:"last_envelope_sync"`
	LastTemplateSync string `json:"last_template_sync"`
}

// initialWatermark seeds both cursors on the very first sync.
const initialWatermark = "2020-01-01T00:00:00.000Z"

// watermarkLayout formats the prospective next watermark: UTC with
// milliseconds and a trailing Z, matching the from_date values DocuSign
// expects.
const watermarkLayout = "2006-01-02T15:04:05.000Z"

// Operations is the host-provided sink for rows and checkpoints. Upsert is
// idempotent by primary key; Checkpoint atomically persists the new state.
type Operations interface {
	Upsert(table string, row Row) error
	Checkpoint(state State) error
}

// Logger matches the host logging contract.
type Logger interface {
	Info(msg string, args ...any)
	Warning(msg string, args ...any)
	Severe(msg string, args ...any)
}

// SlogLogger adapts a *slog.Logger to the host logging contract, mapping
// severe to the error level.
type SlogLogger struct {
	L *slog.Logger
}

// Info logs at info level.
func (s SlogLogger) Info(msg string, args ...any) { s.L.Info(msg, args...) }

// Warning logs at warn level.
func (s SlogLogger) Warning(msg string, args ...any) { s.L.Warn(msg, args...) }

// Severe logs at error level.
func (s SlogLogger) Severe(msg string, args ...any) { s.L.Error(msg, args...) }
