// Package main hosts the lecturesync CLI entrypoint and command graph.
//
// The Cobra-based command tree runs the pipeline stages (extract, match,
// durations, align) individually or in order, inspects the run ledger,
// reports dependency and directory status, and scaffolds configuration. It
// centralizes configuration resolution and structured logging setup so
// subcommands can focus on user experience instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
