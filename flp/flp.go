package flp

// Package flp implements the fully linear proof system that Prio3 uses to
// validate secret-shared measurements. A validity circuit is arithmetic
// over a prime field with a distinguished non-affine gadget; the generic
// engine turns any such circuit into a proof whose verification is linear
// in the input and the proof, so that additive shares of both yield
// additive shares of the verifier message.

import (
	"github.com/jbr/draft-irtf-cfrg-vdaf/field"
	"github.com/jbr/draft-irtf-cfrg-vdaf/poly"
)

// Gadget is the distinguished sub-circuit the proof system isolates. A
// gadget evaluates both on field elements (as a circuit node) and on wire
// polynomials (during proving), applying the same identity.
type Gadget interface {
	// Arity is the number of input wires.
	Arity() int
	// Degree is the arithmetic degree of the gadget identity.
	Degree() int
	// EvalField applies the gadget to field elements. len(in) must equal
	// Arity.
	EvalField(f *field.Field, in []field.Elem) (field.Elem, error)
	// EvalPoly applies the gadget identity to wire polynomials. The
	// result degree is at most Degree times the largest input degree.
	EvalPoly(f *field.Field, in []poly.Poly) (poly.Poly, error)
}

// Circuit is a validity circuit. Eval receives the gadget instances to
// call so that the engine can substitute recording or proof-reading
// gadgets for the declared prototypes.
type Circuit interface {
	Field() *field.Field
	// Gadgets returns the circuit's gadget prototypes, one per declared
	// gadget type.
	Gadgets() []Gadget
	// GadgetCalls returns how many times Eval invokes each gadget.
	GadgetCalls() []int
	InputLen() int
	OutputLen() int
	JointRandLen() int
	// Encode maps a measurement to its InputLen-element encoding.
	Encode(measurement uint64) ([]field.Elem, error)
	// Truncate maps a valid encoded input to the OutputLen-element
	// output share contribution.
	Truncate(inp []field.Elem) []field.Elem
	// Eval evaluates the circuit; the result is zero exactly when inp
	// encodes a valid measurement. numShares scales additive constants
	// so that per-share evaluations sum to the whole-input evaluation.
	Eval(gadgets []Gadget, inp, jointRand []field.Elem, numShares int) (field.Elem, error)
}

// FLP is the generic proof system for a validity circuit.
type FLP struct {
	Circ Circuit
}

// ProveRandLen is the number of prover randomness elements: one wire seed
// per gadget input wire.
func (fl FLP) ProveRandLen() int {
	n := 0
	for _, g := range fl.Circ.Gadgets() {
		n += g.Arity()
	}
	return n
}

// QueryRandLen is the number of verifier randomness elements: one query
// point per gadget.
func (fl FLP) QueryRandLen() int {
	return len(fl.Circ.Gadgets())
}

// ProofLen is the fixed proof length: per gadget, the wire seeds plus the
// gadget polynomial coefficients.
func (fl FLP) ProofLen() int {
	n := 0
	calls := fl.Circ.GadgetCalls()
	for i, g := range fl.Circ.Gadgets() {
		p := nextPow2(calls[i] + 1)
		n += g.Arity() + g.Degree()*(p-1) + 1
	}
	return n
}

// VerifierLen is the fixed verifier message length: the circuit value
// plus, per gadget, the wire evaluations and the gadget polynomial
// evaluation.
func (fl FLP) VerifierLen() int {
	n := 1
	for _, g := range fl.Circ.Gadgets() {
		n += g.Arity() + 1
	}
	return n
}

// nextPow2 returns the least power of two >= n.
func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
