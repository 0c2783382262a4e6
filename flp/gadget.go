package flp

import (
	"fmt"

	"github.com/jbr/draft-irtf-cfrg-vdaf/field"
	"github.com/jbr/draft-irtf-cfrg-vdaf/poly"
	"github.com/jbr/draft-irtf-cfrg-vdaf/vdaf"
)

// Mul is the two-input product gadget (x, y) -> x*y, degree 2.
type Mul struct{}

func (Mul) Arity() int  { return 2 }
func (Mul) Degree() int { return 2 }

func (Mul) EvalField(f *field.Field, in []field.Elem) (field.Elem, error) {
	if len(in) != 2 {
		return field.Elem{}, fmt.Errorf("flp: Mul wants 2 wires, got %d: %w", len(in), vdaf.ErrInvalidInput)
	}
	return f.Mul(in[0], in[1]), nil
}

func (Mul) EvalPoly(f *field.Field, in []poly.Poly) (poly.Poly, error) {
	if len(in) != 2 {
		return nil, fmt.Errorf("flp: Mul wants 2 wires, got %d: %w", len(in), vdaf.ErrInvalidInput)
	}
	return poly.Mul(f, in[0], in[1]), nil
}

// Range2 is the one-input bit check gadget x -> x^2 - x, degree 2. It
// vanishes exactly on 0 and 1.
type Range2 struct{}

func (Range2) Arity() int  { return 1 }
func (Range2) Degree() int { return 2 }

func (Range2) EvalField(f *field.Field, in []field.Elem) (field.Elem, error) {
	if len(in) != 1 {
		return field.Elem{}, fmt.Errorf("flp: Range2 wants 1 wire, got %d: %w", len(in), vdaf.ErrInvalidInput)
	}
	return f.Sub(f.Mul(in[0], in[0]), in[0]), nil
}

func (Range2) EvalPoly(f *field.Field, in []poly.Poly) (poly.Poly, error) {
	if len(in) != 1 {
		return nil, fmt.Errorf("flp: Range2 wants 1 wire, got %d: %w", len(in), vdaf.ErrInvalidInput)
	}
	return poly.Sub(f, poly.Mul(f, in[0], in[0]), in[0]), nil
}
