package testrng

// Package testrng provides deterministic byte sources for tests: a
// constant-byte reader matching the reference end-to-end scenarios, and a
// keyed PRNG reader for reproducible property tests.

import (
	"io"

	"github.com/tuneinsight/lattigo/v4/utils"
)

// constReader emits an endless stream of a single byte value.
type constReader byte

func (c constReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = byte(c)
	}
	return len(p), nil
}

// Const returns a reader that yields b forever.
func Const(b byte) io.Reader {
	return constReader(b)
}

// Keyed returns a deterministic reader seeded by key.
func Keyed(key []byte) io.Reader {
	prng, err := utils.NewKeyedPRNG(key)
	if err != nil {
		panic(err)
	}
	return prng
}
