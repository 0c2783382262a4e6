package flp

import (
	"fmt"

	"github.com/jbr/draft-irtf-cfrg-vdaf/field"
	"github.com/jbr/draft-irtf-cfrg-vdaf/vdaf"
)

// Histogram is the validity circuit for bucketed counting: the
// measurement selects the first bucket whose boundary is at least its
// value (the top bucket is unbounded) and the encoding is the one-hot
// indicator of that bucket. Validity needs every entry to be a bit and
// the entries to sum to one; the latter constant is divided by the share
// count so per-share evaluations still sum to the whole-input value.
type Histogram struct {
	f       *field.Field
	buckets []uint64
}

// NewHistogram returns the Histogram circuit over Field128 for the given
// strictly increasing bucket boundaries.
func NewHistogram(buckets []uint64) (*Histogram, error) {
	if len(buckets) == 0 {
		return nil, fmt.Errorf("flp: histogram needs at least one boundary: %w", vdaf.ErrInvalidInput)
	}
	for i := 1; i < len(buckets); i++ {
		if buckets[i] <= buckets[i-1] {
			return nil, fmt.Errorf("flp: histogram boundaries not strictly increasing at %d: %w", i, vdaf.ErrInvalidInput)
		}
	}
	return &Histogram{f: field.Field128, buckets: append([]uint64(nil), buckets...)}, nil
}

// Buckets returns a copy of the bucket boundaries.
func (c *Histogram) Buckets() []uint64 {
	return append([]uint64(nil), c.buckets...)
}

func (c *Histogram) Field() *field.Field { return c.f }
func (c *Histogram) Gadgets() []Gadget   { return []Gadget{Range2{}} }
func (c *Histogram) GadgetCalls() []int  { return []int{len(c.buckets) + 1} }
func (c *Histogram) InputLen() int       { return len(c.buckets) + 1 }
func (c *Histogram) OutputLen() int      { return len(c.buckets) + 1 }
func (c *Histogram) JointRandLen() int   { return 2 }

func (c *Histogram) Encode(measurement uint64) ([]field.Elem, error) {
	out := make([]field.Elem, len(c.buckets)+1)
	idx := len(c.buckets)
	for i, boundary := range c.buckets {
		if measurement <= boundary {
			idx = i
			break
		}
	}
	out[idx] = c.f.One()
	return out, nil
}

func (c *Histogram) Truncate(inp []field.Elem) []field.Elem {
	out := make([]field.Elem, len(inp))
	copy(out, inp)
	return out
}

func (c *Histogram) Eval(gadgets []Gadget, inp, jointRand []field.Elem, numShares int) (field.Elem, error) {
	if len(inp) != c.InputLen() {
		return field.Elem{}, fmt.Errorf("flp: histogram input length %d, want %d: %w", len(inp), c.InputLen(), vdaf.ErrInvalidInput)
	}
	if len(jointRand) != 2 {
		return field.Elem{}, fmt.Errorf("flp: histogram joint randomness length %d: %w", len(jointRand), vdaf.ErrInvalidInput)
	}
	if numShares < 1 {
		return field.Elem{}, fmt.Errorf("flp: histogram share count %d: %w", numShares, vdaf.ErrInvalidInput)
	}
	r1, r2 := jointRand[0], jointRand[1]

	rangeCheck := c.f.Zero()
	rPow := r1
	sum := c.f.Zero()
	for _, x := range inp {
		check, err := gadgets[0].EvalField(c.f, []field.Elem{x})
		if err != nil {
			return field.Elem{}, err
		}
		rangeCheck = c.f.Add(rangeCheck, c.f.Mul(rPow, check))
		rPow = c.f.Mul(rPow, r1)
		sum = c.f.Add(sum, x)
	}

	invShares, err := c.f.Inv(c.f.NewElem(uint64(numShares)))
	if err != nil {
		return field.Elem{}, err
	}
	sumCheck := c.f.Sub(sum, invShares)

	out := c.f.Mul(r2, rangeCheck)
	out = c.f.Add(out, c.f.Mul(c.f.Mul(r2, r2), sumCheck))
	return out, nil
}
