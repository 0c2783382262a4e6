package field

// Package field implements the two FFT-friendly prime fields used by the
// Prio3 validity circuits. Each field is described by a Field value that
// owns the modulus, the codec width, and a generator of the power-of-two
// multiplicative subgroup; elements are plain two-limb values reduced
// below the modulus.

import (
	"fmt"
	"io"
	"math/big"
	"math/bits"

	"github.com/jbr/draft-irtf-cfrg-vdaf/vdaf"
)

// Elem is a field element held as two little-endian uint64 limbs.
// Elements are value types and always reduced below the modulus of the
// field that produced them.
type Elem struct {
	lo, hi uint64
}

// Field describes F_p together with its codec and FFT parameters. The
// multiplicative group of p contains a subgroup of order 2^GenOrderLog2
// generated by Gen.
type Field struct {
	name        string
	p           *big.Int
	pLo, pHi    uint64
	pMinus2     *big.Int
	encodedSize int
	genLog2     int
	gen         Elem
	bitLen      int
}

// Field64 is F_p for p = 2^32 * 4294967295 + 1 (8-byte elements, subgroup
// order 2^32, generator 7^4294967295).
var Field64 = newField("Field64", 8, 32, 4294967295, 7)

// Field128 is F_p for p = 2^66 * 4611686018427387897 + 1 (16-byte
// elements, subgroup order 2^66, generator 7^4611686018427387897).
var Field128 = newField("Field128", 16, 66, 4611686018427387897, 7)

func newField(name string, encodedSize, genLog2 int, oddFactor, genBase uint64) *Field {
	odd := new(big.Int).SetUint64(oddFactor)
	p := new(big.Int).Lsh(odd, uint(genLog2))
	p.Add(p, big.NewInt(1))
	if p.BitLen() > 128 {
		panic("field: modulus exceeds two limbs")
	}
	f := &Field{
		name:        name,
		p:           p,
		pLo:         low64(p),
		pHi:         high64(p),
		pMinus2:     new(big.Int).Sub(p, big.NewInt(2)),
		encodedSize: encodedSize,
		genLog2:     genLog2,
		bitLen:      p.BitLen(),
	}
	f.gen = f.PowBig(f.NewElem(genBase), odd)
	return f
}

func low64(v *big.Int) uint64 {
	return new(big.Int).And(v, new(big.Int).SetUint64(^uint64(0))).Uint64()
}

func high64(v *big.Int) uint64 {
	return new(big.Int).Rsh(v, 64).Uint64()
}

// Name returns the field's name.
func (f *Field) Name() string { return f.name }

// Modulus returns a copy of p.
func (f *Field) Modulus() *big.Int { return new(big.Int).Set(f.p) }

// EncodedSize returns the byte width of one encoded element.
func (f *Field) EncodedSize() int { return f.encodedSize }

// GenOrderLog2 returns k such that the FFT subgroup has order 2^k.
func (f *Field) GenOrderLog2() int { return f.genLog2 }

// Gen returns the generator of the order-2^GenOrderLog2 subgroup.
func (f *Field) Gen() Elem { return f.gen }

// Zero returns the additive identity.
func (f *Field) Zero() Elem { return Elem{} }

// One returns the multiplicative identity.
func (f *Field) One() Elem { return Elem{lo: 1} }

// NewElem reduces v modulo p.
func (f *Field) NewElem(v uint64) Elem {
	e := Elem{lo: v}
	if f.pHi == 0 && v >= f.pLo {
		e.lo = v % f.pLo
	}
	return e
}

// FromBig reduces v modulo p. v must be non-negative.
func (f *Field) FromBig(v *big.Int) Elem {
	if v.Sign() < 0 {
		panic("field: negative value")
	}
	t := v
	if v.Cmp(f.p) >= 0 {
		t = new(big.Int).Mod(v, f.p)
	}
	return Elem{lo: low64(t), hi: high64(t)}
}

// Big returns the element's value in [0, p).
func (e Elem) Big() *big.Int {
	v := new(big.Int).SetUint64(e.hi)
	v.Lsh(v, 64)
	return v.Or(v, new(big.Int).SetUint64(e.lo))
}

// Uint64 returns the element's value when it fits a single limb.
func (e Elem) Uint64() (uint64, bool) {
	return e.lo, e.hi == 0
}

// IsZero reports whether e is the additive identity.
func (e Elem) IsZero() bool { return e.lo == 0 && e.hi == 0 }

func (f *Field) geqP(lo, hi uint64) bool {
	if hi != f.pHi {
		return hi > f.pHi
	}
	return lo >= f.pLo
}

// Add returns a + b.
func (f *Field) Add(a, b Elem) Elem {
	lo, c := bits.Add64(a.lo, b.lo, 0)
	hi, c2 := bits.Add64(a.hi, b.hi, c)
	if c2 != 0 || f.geqP(lo, hi) {
		lo, c = bits.Sub64(lo, f.pLo, 0)
		hi, _ = bits.Sub64(hi, f.pHi, c)
	}
	return Elem{lo: lo, hi: hi}
}

// Sub returns a - b.
func (f *Field) Sub(a, b Elem) Elem {
	lo, bw := bits.Sub64(a.lo, b.lo, 0)
	hi, bw2 := bits.Sub64(a.hi, b.hi, bw)
	if bw2 != 0 {
		lo, bw = bits.Add64(lo, f.pLo, 0)
		hi, _ = bits.Add64(hi, f.pHi, bw)
	}
	return Elem{lo: lo, hi: hi}
}

// Neg returns -a.
func (f *Field) Neg(a Elem) Elem {
	return f.Sub(Elem{}, a)
}

// Mul returns a * b. The single-limb moduli take the bits.Mul64/Div64
// path; the wide modulus reduces a 256-bit product through math/big.
func (f *Field) Mul(a, b Elem) Elem {
	if f.pHi == 0 {
		hi, lo := bits.Mul64(a.lo, b.lo)
		_, rem := bits.Div64(hi, lo, f.pLo)
		return Elem{lo: rem}
	}
	t := new(big.Int).Mul(a.Big(), b.Big())
	t.Mod(t, f.p)
	return Elem{lo: low64(t), hi: high64(t)}
}

// Pow returns base^exp.
func (f *Field) Pow(base Elem, exp uint64) Elem {
	return f.PowBig(base, new(big.Int).SetUint64(exp))
}

// PowBig returns base^exp for a non-negative big exponent using
// square-and-multiply.
func (f *Field) PowBig(base Elem, exp *big.Int) Elem {
	if exp.Sign() < 0 {
		panic("field: negative exponent")
	}
	result := f.One()
	for i := exp.BitLen() - 1; i >= 0; i-- {
		result = f.Mul(result, result)
		if exp.Bit(i) == 1 {
			result = f.Mul(result, base)
		}
	}
	return result
}

// Inv returns the multiplicative inverse of a, or ErrInvalidInput when a
// is zero.
func (f *Field) Inv(a Elem) (Elem, error) {
	if a.IsZero() {
		return Elem{}, fmt.Errorf("field: inverse of zero: %w", vdaf.ErrInvalidInput)
	}
	return f.PowBig(a, f.pMinus2), nil
}

// RootOfUnity returns a primitive n-th root of unity, gen^(GEN_ORDER/n).
// n must be a power of two no larger than the subgroup order.
func (f *Field) RootOfUnity(n int) Elem {
	if n <= 0 || n&(n-1) != 0 {
		panic("field: root order must be a power of two")
	}
	k := bits.TrailingZeros(uint(n))
	if k > f.genLog2 {
		panic("field: root order exceeds subgroup order")
	}
	exp := new(big.Int).Lsh(big.NewInt(1), uint(f.genLog2-k))
	return f.PowBig(f.gen, exp)
}

// RandElem draws a uniform element from r by rejection sampling.
func (f *Field) RandElem(r io.Reader) (Elem, error) {
	buf := make([]byte, f.encodedSize)
	for {
		if _, err := io.ReadFull(r, buf); err != nil {
			return Elem{}, fmt.Errorf("field: read random bytes: %w", err)
		}
		if e, ok := f.fromBytesReject(buf); ok {
			return e, nil
		}
	}
}

// fromBytesReject decodes a little-endian draw, masks it to bitlen(p)
// bits, and accepts it when below p.
func (f *Field) fromBytesReject(b []byte) (Elem, bool) {
	lo, hi := decodeLimbs(b)
	if f.bitLen < 64 {
		lo &= (1 << uint(f.bitLen)) - 1
		hi = 0
	} else if f.bitLen < 128 {
		hi &= (1 << uint(f.bitLen-64)) - 1
	}
	if f.geqP(lo, hi) {
		return Elem{}, false
	}
	return Elem{lo: lo, hi: hi}, true
}

func decodeLimbs(b []byte) (lo, hi uint64) {
	for i := len(b) - 1; i >= 0; i-- {
		hi = hi<<8 | lo>>56
		lo = lo<<8 | uint64(b[i])
	}
	return lo, hi
}
