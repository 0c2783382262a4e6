package vdaf

// Package vdaf holds the types and error kinds shared by every protocol in
// this module. A VDAF runs between one client, SHARES aggregators and one
// collector: the client shards a measurement into input shares, each
// aggregator prepares its share into an output share (or rejects it), and
// the collector combines aggregate shares into the final result. The
// concrete protocol lives in the prio3 package; the cryptographic engine
// in field, poly, prg and flp.

import "errors"

// Error kinds. Callers discriminate with errors.Is; every error raised by
// the protocol logic wraps exactly one of these. A read failure of the
// randomness source is passed through wrapped as it comes and matches
// none of them.
var (
	// ErrDecode indicates malformed byte input: wrong length, leftover
	// bytes, or a vector encoding that is not a multiple of the element
	// size.
	ErrDecode = errors.New("decode error")

	// ErrEncode indicates a measurement outside the range accepted by the
	// validity circuit.
	ErrEncode = errors.New("encode error")

	// ErrVerify indicates a failed preparation check: the proof did not
	// verify, or the aggregators disagree on the joint randomness.
	ErrVerify = errors.New("verification error")

	// ErrAbort indicates that the query randomness collided with an
	// interpolation point. The affected report must be retried with fresh
	// query randomness; the remedy differs from ErrVerify, so the two are
	// never folded together.
	ErrAbort = errors.New("abort: query randomness hit an interpolation point")

	// ErrInvalidState indicates the preparation state machine was stepped
	// out of order.
	ErrInvalidState = errors.New("invalid state transition")

	// ErrInvalidInput indicates a structural misuse: a share count out of
	// range, or vector operands of mismatched length.
	ErrInvalidInput = errors.New("invalid input")
)
