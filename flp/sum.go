package flp

import (
	"fmt"

	"github.com/jbr/draft-irtf-cfrg-vdaf/field"
	"github.com/jbr/draft-irtf-cfrg-vdaf/vdaf"
)

// Sum is the validity circuit for summing bounded integers: the
// measurement is encoded as Bits little-endian bits, each proven to be a
// bit with one Range2 call, mixed by powers of the joint randomness.
type Sum struct {
	f    *field.Field
	bits int
}

// NewSum returns the Sum circuit over Field128 for measurements in
// [0, 2^bits).
func NewSum(bits int) (*Sum, error) {
	if bits < 1 || bits > 64 {
		return nil, fmt.Errorf("flp: sum bit width %d out of range [1,64]: %w", bits, vdaf.ErrInvalidInput)
	}
	return &Sum{f: field.Field128, bits: bits}, nil
}

// Bits returns the measurement bit width.
func (c *Sum) Bits() int { return c.bits }

func (c *Sum) Field() *field.Field { return c.f }
func (c *Sum) Gadgets() []Gadget   { return []Gadget{Range2{}} }
func (c *Sum) GadgetCalls() []int  { return []int{c.bits} }
func (c *Sum) InputLen() int       { return c.bits }
func (c *Sum) OutputLen() int      { return 1 }
func (c *Sum) JointRandLen() int   { return 1 }

func (c *Sum) Encode(measurement uint64) ([]field.Elem, error) {
	if c.bits < 64 && measurement>>uint(c.bits) != 0 {
		return nil, fmt.Errorf("flp: sum measurement %d exceeds %d bits: %w", measurement, c.bits, vdaf.ErrEncode)
	}
	out := make([]field.Elem, c.bits)
	for l := range out {
		out[l] = c.f.NewElem(measurement >> uint(l) & 1)
	}
	return out, nil
}

func (c *Sum) Truncate(inp []field.Elem) []field.Elem {
	acc := c.f.Zero()
	weight := c.f.One()
	two := c.f.NewElem(2)
	for _, b := range inp {
		acc = c.f.Add(acc, c.f.Mul(weight, b))
		weight = c.f.Mul(weight, two)
	}
	return []field.Elem{acc}
}

func (c *Sum) Eval(gadgets []Gadget, inp, jointRand []field.Elem, numShares int) (field.Elem, error) {
	if len(inp) != c.bits {
		return field.Elem{}, fmt.Errorf("flp: sum input length %d, want %d: %w", len(inp), c.bits, vdaf.ErrInvalidInput)
	}
	if len(jointRand) != 1 {
		return field.Elem{}, fmt.Errorf("flp: sum joint randomness length %d: %w", len(jointRand), vdaf.ErrInvalidInput)
	}
	r := jointRand[0]
	acc := c.f.Zero()
	rPow := r
	for _, b := range inp {
		check, err := gadgets[0].EvalField(c.f, []field.Elem{b})
		if err != nil {
			return field.Elem{}, err
		}
		acc = c.f.Add(acc, c.f.Mul(rPow, check))
		rPow = c.f.Mul(rPow, r)
	}
	return acc, nil
}
