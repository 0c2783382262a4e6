package poly

// Package poly implements coefficient-form polynomial arithmetic over the
// fields in the field package: schoolbook multiplication, Horner
// evaluation, Lagrange interpolation at arbitrary distinct points, and
// interpolation on power-of-two root-of-unity grids via a radix-2 inverse
// transform. Polynomials are immutable value slices, low coefficient
// first; the empty slice is the zero polynomial.

import (
	"fmt"

	"github.com/jbr/draft-irtf-cfrg-vdaf/field"
	"github.com/jbr/draft-irtf-cfrg-vdaf/vdaf"
)

// Poly is a coefficient vector, low degree first.
type Poly []field.Elem

// Strip removes trailing zero coefficients.
func Strip(p Poly) Poly {
	i := len(p)
	for i > 0 && p[i-1].IsZero() {
		i--
	}
	return p[:i]
}

// Mul returns the product of p and q. The result has len(p)+len(q)-1
// coefficients before stripping.
func Mul(f *field.Field, p, q Poly) Poly {
	if len(p) == 0 || len(q) == 0 {
		return nil
	}
	out := make(Poly, len(p)+len(q)-1)
	for i := range p {
		if p[i].IsZero() {
			continue
		}
		for j := range q {
			out[i+j] = f.Add(out[i+j], f.Mul(p[i], q[j]))
		}
	}
	return Strip(out)
}

// Add returns p + q.
func Add(f *field.Field, p, q Poly) Poly {
	n := len(p)
	if len(q) > n {
		n = len(q)
	}
	out := make(Poly, n)
	for i := range out {
		var a, b field.Elem
		if i < len(p) {
			a = p[i]
		}
		if i < len(q) {
			b = q[i]
		}
		out[i] = f.Add(a, b)
	}
	return Strip(out)
}

// Sub returns p - q.
func Sub(f *field.Field, p, q Poly) Poly {
	n := len(p)
	if len(q) > n {
		n = len(q)
	}
	out := make(Poly, n)
	for i := range out {
		var a, b field.Elem
		if i < len(p) {
			a = p[i]
		}
		if i < len(q) {
			b = q[i]
		}
		out[i] = f.Sub(a, b)
	}
	return Strip(out)
}

// Eval evaluates p at x by Horner's rule. The zero polynomial evaluates
// to zero.
func Eval(f *field.Field, p Poly, x field.Elem) field.Elem {
	acc := f.Zero()
	for i := len(p) - 1; i >= 0; i-- {
		acc = f.Add(f.Mul(acc, x), p[i])
	}
	return acc
}

// Interp returns the unique polynomial of degree < len(xs) through the
// points (xs[i], ys[i]). The xs must be pairwise distinct.
func Interp(f *field.Field, xs, ys []field.Elem) (Poly, error) {
	if len(xs) != len(ys) {
		return nil, fmt.Errorf("poly: interp length mismatch %d vs %d: %w", len(xs), len(ys), vdaf.ErrInvalidInput)
	}
	out := make(Poly, len(xs))
	basis := make(Poly, 0, len(xs))
	for i := range xs {
		// Lagrange basis numerator prod_{j!=i} (x - xs[j]).
		basis = append(basis[:0], f.One())
		denom := f.One()
		for j := range xs {
			if j == i {
				continue
			}
			basis = mulLinear(f, basis, f.Neg(xs[j]))
			denom = f.Mul(denom, f.Sub(xs[i], xs[j]))
		}
		inv, err := f.Inv(denom)
		if err != nil {
			return nil, fmt.Errorf("poly: interpolation points not distinct: %w", vdaf.ErrInvalidInput)
		}
		scale := f.Mul(ys[i], inv)
		for k := range basis {
			out[k] = f.Add(out[k], f.Mul(scale, basis[k]))
		}
	}
	return Strip(out), nil
}

// mulLinear multiplies p by (x + c) in place, growing p by one.
func mulLinear(f *field.Field, p Poly, c field.Elem) Poly {
	p = append(p, f.Zero())
	for i := len(p) - 1; i > 0; i-- {
		p[i] = f.Add(f.Mul(p[i], c), p[i-1])
	}
	p[0] = f.Mul(p[0], c)
	return p
}

// InterpPow2 returns the unique polynomial of degree < len(ys) that
// evaluates to ys[k] at w^k, where w is a primitive len(ys)-th root of
// unity of the field. len(ys) must be a power of two.
func InterpPow2(f *field.Field, ys []field.Elem) (Poly, error) {
	n := len(ys)
	if n == 0 || n&(n-1) != 0 {
		return nil, fmt.Errorf("poly: interpolation grid size %d not a power of two: %w", n, vdaf.ErrInvalidInput)
	}
	if n == 1 {
		return Strip(Poly{ys[0]}), nil
	}
	w := f.RootOfUnity(n)
	wInv, err := f.Inv(w)
	if err != nil {
		return nil, err
	}
	coeffs := transform(f, ys, wInv)
	nInv, err := f.Inv(f.NewElem(uint64(n)))
	if err != nil {
		return nil, err
	}
	for i := range coeffs {
		coeffs[i] = f.Mul(coeffs[i], nInv)
	}
	return Strip(coeffs), nil
}

// EvalPow2 evaluates p on the grid 1, w, ..., w^(n-1) for a power-of-two
// n >= len(p).
func EvalPow2(f *field.Field, p Poly, n int) ([]field.Elem, error) {
	if n <= 0 || n&(n-1) != 0 {
		return nil, fmt.Errorf("poly: evaluation grid size %d not a power of two: %w", n, vdaf.ErrInvalidInput)
	}
	if len(p) > n {
		return nil, fmt.Errorf("poly: degree %d too large for grid %d: %w", len(p)-1, n, vdaf.ErrInvalidInput)
	}
	padded := make([]field.Elem, n)
	copy(padded, p)
	if n == 1 {
		return padded, nil
	}
	return transform(f, padded, f.RootOfUnity(n)), nil
}

// transform is a recursive radix-2 Cooley-Tukey pass evaluating the
// coefficient vector a at the powers of w.
func transform(f *field.Field, a []field.Elem, w field.Elem) []field.Elem {
	n := len(a)
	if n == 1 {
		return []field.Elem{a[0]}
	}
	even := make([]field.Elem, n/2)
	odd := make([]field.Elem, n/2)
	for i := 0; i < n/2; i++ {
		even[i] = a[2*i]
		odd[i] = a[2*i+1]
	}
	w2 := f.Mul(w, w)
	e := transform(f, even, w2)
	o := transform(f, odd, w2)
	out := make([]field.Elem, n)
	wk := f.One()
	for k := 0; k < n/2; k++ {
		t := f.Mul(wk, o[k])
		out[k] = f.Add(e[k], t)
		out[k+n/2] = f.Sub(e[k], t)
		wk = f.Mul(wk, w)
	}
	return out
}
