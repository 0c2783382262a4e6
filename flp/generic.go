package flp

import (
	"fmt"

	"github.com/jbr/draft-irtf-cfrg-vdaf/field"
	"github.com/jbr/draft-irtf-cfrg-vdaf/poly"
	"github.com/jbr/draft-irtf-cfrg-vdaf/vdaf"
)

// proveGadget records the input wires of every call before delegating to
// the real gadget.
type proveGadget struct {
	inner Gadget
	wires [][]field.Elem
}

func newProveGadget(g Gadget) *proveGadget {
	return &proveGadget{inner: g, wires: make([][]field.Elem, g.Arity())}
}

func (g *proveGadget) Arity() int  { return g.inner.Arity() }
func (g *proveGadget) Degree() int { return g.inner.Degree() }

func (g *proveGadget) EvalField(f *field.Field, in []field.Elem) (field.Elem, error) {
	if len(in) != g.inner.Arity() {
		return field.Elem{}, fmt.Errorf("flp: gadget wants %d wires, got %d: %w", g.inner.Arity(), len(in), vdaf.ErrInvalidInput)
	}
	for j := range in {
		g.wires[j] = append(g.wires[j], in[j])
	}
	return g.inner.EvalField(f, in)
}

func (g *proveGadget) EvalPoly(f *field.Field, in []poly.Poly) (poly.Poly, error) {
	return g.inner.EvalPoly(f, in)
}

func (g *proveGadget) calls() int { return len(g.wires[0]) }

// queryGadget records input wires but never evaluates the gadget: call k
// answers with gadgetPoly(omega^k) read from the proof.
type queryGadget struct {
	inner      Gadget
	wires      [][]field.Elem
	gadgetPoly poly.Poly
	omega      field.Elem
	point      field.Elem
}

func newQueryGadget(f *field.Field, g Gadget, gadgetPoly poly.Poly, omega field.Elem) *queryGadget {
	return &queryGadget{
		inner:      g,
		wires:      make([][]field.Elem, g.Arity()),
		gadgetPoly: gadgetPoly,
		omega:      omega,
		point:      f.One(),
	}
}

func (g *queryGadget) Arity() int  { return g.inner.Arity() }
func (g *queryGadget) Degree() int { return g.inner.Degree() }

func (g *queryGadget) EvalField(f *field.Field, in []field.Elem) (field.Elem, error) {
	if len(in) != g.inner.Arity() {
		return field.Elem{}, fmt.Errorf("flp: gadget wants %d wires, got %d: %w", g.inner.Arity(), len(in), vdaf.ErrInvalidInput)
	}
	for j := range in {
		g.wires[j] = append(g.wires[j], in[j])
	}
	g.point = f.Mul(g.point, g.omega)
	return poly.Eval(f, g.gadgetPoly, g.point), nil
}

func (g *queryGadget) EvalPoly(f *field.Field, in []poly.Poly) (poly.Poly, error) {
	return g.inner.EvalPoly(f, in)
}

func (g *queryGadget) calls() int { return len(g.wires[0]) }

// Prove generates a proof that inp satisfies the circuit. proveRand must
// have ProveRandLen elements and jointRand JointRandLen elements.
func (fl FLP) Prove(inp, proveRand, jointRand []field.Elem) ([]field.Elem, error) {
	f := fl.Circ.Field()
	if len(inp) != fl.Circ.InputLen() {
		return nil, fmt.Errorf("flp: input length %d, want %d: %w", len(inp), fl.Circ.InputLen(), vdaf.ErrInvalidInput)
	}
	if len(proveRand) != fl.ProveRandLen() {
		return nil, fmt.Errorf("flp: prove randomness length %d, want %d: %w", len(proveRand), fl.ProveRandLen(), vdaf.ErrInvalidInput)
	}
	if len(jointRand) != fl.Circ.JointRandLen() {
		return nil, fmt.Errorf("flp: joint randomness length %d, want %d: %w", len(jointRand), fl.Circ.JointRandLen(), vdaf.ErrInvalidInput)
	}

	protos := fl.Circ.Gadgets()
	calls := fl.Circ.GadgetCalls()
	wrapped := make([]Gadget, len(protos))
	recorders := make([]*proveGadget, len(protos))
	for i, g := range protos {
		recorders[i] = newProveGadget(g)
		wrapped[i] = recorders[i]
	}
	if _, err := fl.Circ.Eval(wrapped, inp, jointRand, 1); err != nil {
		return nil, err
	}

	proof := make([]field.Elem, 0, fl.ProofLen())
	rd := 0
	for i, rec := range recorders {
		arity := protos[i].Arity()
		if rec.calls() != calls[i] {
			return nil, fmt.Errorf("flp: gadget %d called %d times, declared %d: %w", i, rec.calls(), calls[i], vdaf.ErrInvalidInput)
		}
		p := nextPow2(calls[i] + 1)
		seeds := proveRand[rd : rd+arity]
		rd += arity

		wirePolys, err := interpWires(f, seeds, rec.wires, p)
		if err != nil {
			return nil, err
		}
		gadgetPoly, err := protos[i].EvalPoly(f, wirePolys)
		if err != nil {
			return nil, err
		}
		// The chunk length is fixed by formula: zero high coefficients
		// are serialized explicitly.
		chunk := make([]field.Elem, protos[i].Degree()*(p-1)+1)
		copy(chunk, gadgetPoly)
		proof = append(proof, seeds...)
		proof = append(proof, chunk...)
	}
	return proof, nil
}

// interpWires interpolates, for each wire, the polynomial through the
// seed at omega^0 and the recorded call values at omega^1.. on a grid of
// size p.
func interpWires(f *field.Field, seeds []field.Elem, wires [][]field.Elem, p int) ([]poly.Poly, error) {
	out := make([]poly.Poly, len(wires))
	for j := range wires {
		ys := make([]field.Elem, p)
		ys[0] = seeds[j]
		copy(ys[1:], wires[j])
		wp, err := poly.InterpPow2(f, ys)
		if err != nil {
			return nil, err
		}
		out[j] = wp
	}
	return out, nil
}

// Query evaluates the verifier's share of the verifier message from its
// shares of the input and the proof. The result is a linear function of
// (inp, proofShare), so shares of the verifier message sum to the
// verifier message for the whole input. Query fails with ErrAbort when a
// query point lands on the interpolation grid of a gadget.
func (fl FLP) Query(inp, proofShare, queryRand, jointRand []field.Elem, numShares int) ([]field.Elem, error) {
	f := fl.Circ.Field()
	if len(inp) != fl.Circ.InputLen() {
		return nil, fmt.Errorf("flp: input length %d, want %d: %w", len(inp), fl.Circ.InputLen(), vdaf.ErrInvalidInput)
	}
	if len(proofShare) != fl.ProofLen() {
		return nil, fmt.Errorf("flp: proof length %d, want %d: %w", len(proofShare), fl.ProofLen(), vdaf.ErrInvalidInput)
	}
	if len(queryRand) != fl.QueryRandLen() {
		return nil, fmt.Errorf("flp: query randomness length %d, want %d: %w", len(queryRand), fl.QueryRandLen(), vdaf.ErrInvalidInput)
	}
	if len(jointRand) != fl.Circ.JointRandLen() {
		return nil, fmt.Errorf("flp: joint randomness length %d, want %d: %w", len(jointRand), fl.Circ.JointRandLen(), vdaf.ErrInvalidInput)
	}
	if numShares < 1 {
		return nil, fmt.Errorf("flp: share count %d: %w", numShares, vdaf.ErrInvalidInput)
	}

	protos := fl.Circ.Gadgets()
	calls := fl.Circ.GadgetCalls()
	wrapped := make([]Gadget, len(protos))
	readers := make([]*queryGadget, len(protos))
	seeds := make([][]field.Elem, len(protos))
	off := 0
	for i, g := range protos {
		arity := g.Arity()
		p := nextPow2(calls[i] + 1)
		chunk := arity + g.Degree()*(p-1) + 1
		seeds[i] = proofShare[off : off+arity]
		gadgetPoly := poly.Poly(proofShare[off+arity : off+chunk])
		readers[i] = newQueryGadget(f, g, gadgetPoly, f.RootOfUnity(p))
		wrapped[i] = readers[i]
		off += chunk
	}

	v, err := fl.Circ.Eval(wrapped, inp, jointRand, numShares)
	if err != nil {
		return nil, err
	}

	verifier := make([]field.Elem, 0, fl.VerifierLen())
	verifier = append(verifier, v)
	for i, rec := range readers {
		if rec.calls() != calls[i] {
			return nil, fmt.Errorf("flp: gadget %d called %d times, declared %d: %w", i, rec.calls(), calls[i], vdaf.ErrInvalidInput)
		}
		p := nextPow2(calls[i] + 1)
		t := queryRand[i]
		// t on the interpolation grid would leak a gadget output; the
		// whole session retries with fresh query randomness.
		if fl.onGrid(f, t, p) {
			return nil, fmt.Errorf("flp: gadget %d query point of order %d: %w", i, p, vdaf.ErrAbort)
		}
		wirePolys, err := interpWires(f, seeds[i], rec.wires, p)
		if err != nil {
			return nil, err
		}
		for _, wp := range wirePolys {
			verifier = append(verifier, poly.Eval(f, wp, t))
		}
		verifier = append(verifier, poly.Eval(f, rec.gadgetPoly, t))
	}
	return verifier, nil
}

func (fl FLP) onGrid(f *field.Field, t field.Elem, p int) bool {
	return f.Pow(t, uint64(p)) == f.One()
}

// Decide checks a complete verifier message: the circuit value must be
// zero and every gadget identity must hold at the query point.
func (fl FLP) Decide(verifier []field.Elem) (bool, error) {
	f := fl.Circ.Field()
	if len(verifier) != fl.VerifierLen() {
		return false, fmt.Errorf("flp: verifier length %d, want %d: %w", len(verifier), fl.VerifierLen(), vdaf.ErrInvalidInput)
	}
	v := verifier[0]
	off := 1
	for _, g := range fl.Circ.Gadgets() {
		arity := g.Arity()
		x := verifier[off : off+arity]
		y := verifier[off+arity]
		off += arity + 1
		got, err := g.EvalField(f, x)
		if err != nil {
			return false, err
		}
		if got != y {
			return false, nil
		}
	}
	return v.IsZero(), nil
}
