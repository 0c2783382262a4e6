package field

import (
	"fmt"
	"io"

	"github.com/jbr/draft-irtf-cfrg-vdaf/vdaf"
)

// Zeros returns a vector of n zero elements.
func (f *Field) Zeros(n int) []Elem {
	return make([]Elem, n)
}

// AddVec returns the componentwise sum of a and b.
func (f *Field) AddVec(a, b []Elem) ([]Elem, error) {
	if len(a) != len(b) {
		return nil, fmt.Errorf("field: add length mismatch %d vs %d: %w", len(a), len(b), vdaf.ErrInvalidInput)
	}
	out := make([]Elem, len(a))
	for i := range a {
		out[i] = f.Add(a[i], b[i])
	}
	return out, nil
}

// SubVec returns the componentwise difference a - b.
func (f *Field) SubVec(a, b []Elem) ([]Elem, error) {
	if len(a) != len(b) {
		return nil, fmt.Errorf("field: sub length mismatch %d vs %d: %w", len(a), len(b), vdaf.ErrInvalidInput)
	}
	out := make([]Elem, len(a))
	for i := range a {
		out[i] = f.Sub(a[i], b[i])
	}
	return out, nil
}

// InnerProduct returns sum_i a[i]*b[i].
func (f *Field) InnerProduct(a, b []Elem) (Elem, error) {
	if len(a) != len(b) {
		return Elem{}, fmt.Errorf("field: inner product length mismatch %d vs %d: %w", len(a), len(b), vdaf.ErrInvalidInput)
	}
	acc := f.Zero()
	for i := range a {
		acc = f.Add(acc, f.Mul(a[i], b[i]))
	}
	return acc, nil
}

// RandVec draws n uniform elements from r.
func (f *Field) RandVec(r io.Reader, n int) ([]Elem, error) {
	out := make([]Elem, n)
	for i := range out {
		e, err := f.RandElem(r)
		if err != nil {
			return nil, err
		}
		out[i] = e
	}
	return out, nil
}

// EncodeElem appends the little-endian fixed-width encoding of e to dst.
func (f *Field) EncodeElem(dst []byte, e Elem) []byte {
	limb := e.lo
	for i := 0; i < f.encodedSize; i++ {
		if i == 8 {
			limb = e.hi
		}
		dst = append(dst, byte(limb))
		limb >>= 8
	}
	return dst
}

// EncodeVec encodes v as the concatenation of its element encodings.
func (f *Field) EncodeVec(v []Elem) []byte {
	out := make([]byte, 0, len(v)*f.encodedSize)
	for _, e := range v {
		out = f.EncodeElem(out, e)
	}
	return out
}

// DecodeVec decodes a concatenation of fixed-width element encodings. It
// fails with ErrDecode when the length is not a multiple of the element
// size.
func (f *Field) DecodeVec(b []byte) ([]Elem, error) {
	if len(b)%f.encodedSize != 0 {
		return nil, fmt.Errorf("field: encoded length %d not a multiple of %d: %w", len(b), f.encodedSize, vdaf.ErrDecode)
	}
	out := make([]Elem, len(b)/f.encodedSize)
	for i := range out {
		lo, hi := decodeLimbs(b[i*f.encodedSize : (i+1)*f.encodedSize])
		out[i] = f.FromBig(Elem{lo: lo, hi: hi}.Big())
	}
	return out, nil
}
