// Package logging provides subsystem-tagged structured logging for the
// orchestrator, built on log/slog.
//
// The orchestrator is a one-shot CLI process, so unlike the dual-mode
// (CLI/TUI) logger this package is adapted from, there is only one mode:
// direct output to a configured writer. Callers log under their own
// subsystem name (e.g. "Pipeline", "Transport", "LayoutWorker",
// "L4AIVision"); the router and layers L0-L3 and L5 do not log.
package logging
