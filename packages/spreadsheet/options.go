package main

import "github.com/google/uuid"

// EngineOptions configures an evaluation run. It is a plain value struct,
// not a config-file/env layer: this is a library, and callers already have
// their own configuration story, so EngineOptions is constructed directly
// by the embedding application rather than loaded from disk.
type EngineOptions struct {
	// EmptyStdevpIsZero controls STDEVP/VARP over an empty range. The
	// default (false) yields #DIV/0!, matching common spreadsheet
	// behavior; set true to return 0 instead.
	EmptyStdevpIsZero bool

	// Clock supplies wall-clock time to NOW/TODAY. Defaults to SystemClock.
	Clock Clock

	// Random supplies random values to RAND(). Defaults to SystemRandom.
	Random Random

	// MaxArraySpillCells bounds the size of a single array-formula spill
	// before it is rejected with #NUM! (0 means use DefaultMaxSpillCells).
	MaxArraySpillCells int
}

// DefaultMaxSpillCells caps array-formula spill regions to a size that
// keeps a single formula from silently consuming the whole sheet.
const DefaultMaxSpillCells = 1_000_000

// DefaultEngineOptions returns the zero-config defaults used when a caller
// doesn't need to override anything.
func DefaultEngineOptions() EngineOptions {
	return EngineOptions{
		EmptyStdevpIsZero: false,
		Clock:             SystemClock,
		Random:            SystemRandom,
		MaxArraySpillCells: DefaultMaxSpillCells,
	}
}

func (o EngineOptions) clockOrDefault() Clock {
	if o.Clock != nil {
		return o.Clock
	}
	return SystemClock
}

func (o EngineOptions) randomOrDefault() Random {
	if o.Random != nil {
		return o.Random
	}
	return SystemRandom
}

func (o EngineOptions) maxSpillOrDefault() int {
	if o.MaxArraySpillCells > 0 {
		return o.MaxArraySpillCells
	}
	return DefaultMaxSpillCells
}

// newBuildID mints an identifier for one dependency-graph build, used only
// as a field on fromSheet's "dependency graph built" log line. The
// cycle-detection log line does not carry it, and topologicalSort does not
// log.
func newBuildID() string {
	return uuid.NewString()
}
