package flp

import (
	"fmt"

	"github.com/jbr/draft-irtf-cfrg-vdaf/field"
	"github.com/jbr/draft-irtf-cfrg-vdaf/vdaf"
)

// Count is the validity circuit for counting: the measurement is a single
// bit and the aggregate is the number of ones. Validity is x*x - x == 0,
// checked through one Mul call.
type Count struct {
	f *field.Field
}

// NewCount returns the Count circuit over Field64.
func NewCount() *Count {
	return &Count{f: field.Field64}
}

func (c *Count) Field() *field.Field { return c.f }
func (c *Count) Gadgets() []Gadget   { return []Gadget{Mul{}} }
func (c *Count) GadgetCalls() []int  { return []int{1} }
func (c *Count) InputLen() int       { return 1 }
func (c *Count) OutputLen() int      { return 1 }
func (c *Count) JointRandLen() int   { return 0 }

func (c *Count) Encode(measurement uint64) ([]field.Elem, error) {
	if measurement > 1 {
		return nil, fmt.Errorf("flp: count measurement %d not a bit: %w", measurement, vdaf.ErrEncode)
	}
	return []field.Elem{c.f.NewElem(measurement)}, nil
}

func (c *Count) Truncate(inp []field.Elem) []field.Elem {
	out := make([]field.Elem, len(inp))
	copy(out, inp)
	return out
}

func (c *Count) Eval(gadgets []Gadget, inp, jointRand []field.Elem, numShares int) (field.Elem, error) {
	if len(inp) != 1 {
		return field.Elem{}, fmt.Errorf("flp: count input length %d: %w", len(inp), vdaf.ErrInvalidInput)
	}
	sq, err := gadgets[0].EvalField(c.f, []field.Elem{inp[0], inp[0]})
	if err != nil {
		return field.Elem{}, err
	}
	return c.f.Sub(sq, inp[0]), nil
}
