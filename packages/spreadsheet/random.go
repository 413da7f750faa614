package main

import "math/rand/v2"

// Random abstracts random-number generation for RAND() so evaluation stays
// deterministic in tests, mirroring how Clock abstracts NOW/TODAY.
type Random interface {
	Float64() float64
}

type systemRandom struct{}

func (systemRandom) Float64() float64 { return rand.Float64() }

// SystemRandom is the default Random, backed by math/rand/v2.
var SystemRandom Random = systemRandom{}

// FixedRandom is a Random test double that always reports the same value.
type FixedRandom struct {
	At float64
}

func (f FixedRandom) Float64() float64 { return f.At }
