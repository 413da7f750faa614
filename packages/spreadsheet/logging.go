package main

import (
	"os"

	"github.com/rs/zerolog"
)

// Logger is the package-level logger used at the three seams where
// evaluation does enough work to be worth explaining: building a
// dependency graph, detecting cycles in one, and evaluating a volatile
// function. It is disabled by default; embedders opt in with SetLogger.
//
// Deliberately not used inside eval() or the decoders — those run once per
// cell per recalculation and a log call there would dominate the profile.
var Logger zerolog.Logger = zerolog.Nop()

// SetLogger installs a logger, e.g. zerolog.New(os.Stderr).With().Timestamp().Logger().
func SetLogger(l zerolog.Logger) { Logger = l }

// NewDefaultLogger returns a human-readable console logger, useful for
// embedders that just want SetLogger(NewDefaultLogger()) during development.
func NewDefaultLogger() zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
}
