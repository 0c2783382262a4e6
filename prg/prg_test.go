package prg

import (
	"bytes"
	"testing"

	"github.com/jbr/draft-irtf-cfrg-vdaf/field"
)

func testSeed(b byte) Seed {
	var s Seed
	for i := range s {
		s[i] = b
	}
	return s
}

func TestStreamPrefix(t *testing.T) {
	seed := testSeed(0x01)
	info := []byte("prefix test")
	p1, err := New(seed, info)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	p2, err := New(seed, info)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	split := append(p1.Next(7), p1.Next(25)...)
	whole := p2.Next(32)
	if !bytes.Equal(split, whole) {
		t.Fatalf("next(7)||next(25) != next(32)")
	}
}

func TestDeterminism(t *testing.T) {
	seed := testSeed(0x42)
	a, err := DeriveSeed(seed, []byte("info"))
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	b, err := DeriveSeed(seed, []byte("info"))
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if a != b {
		t.Fatalf("derive_seed not deterministic")
	}
	c, err := DeriveSeed(seed, []byte("other"))
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if a == c {
		t.Fatalf("distinct info produced the same seed")
	}
	d, err := DeriveSeed(testSeed(0x43), []byte("info"))
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if a == d {
		t.Fatalf("distinct seeds produced the same derivation")
	}
}

func TestExpandIntoVec(t *testing.T) {
	seed := testSeed(0x01)
	for _, f := range []*field.Field{field.Field64, field.Field128} {
		v, err := ExpandIntoVec(f, seed, []byte("expand"), 100)
		if err != nil {
			t.Fatalf("%s: expand: %v", f.Name(), err)
		}
		if len(v) != 100 {
			t.Fatalf("%s: expanded %d elements, want 100", f.Name(), len(v))
		}
		for i, e := range v {
			if e.Big().Cmp(f.Modulus()) >= 0 {
				t.Fatalf("%s: element %d not below the modulus", f.Name(), i)
			}
		}
		again, err := ExpandIntoVec(f, seed, []byte("expand"), 100)
		if err != nil {
			t.Fatalf("%s: expand: %v", f.Name(), err)
		}
		for i := range v {
			if v[i] != again[i] {
				t.Fatalf("%s: expansion not deterministic at %d", f.Name(), i)
			}
		}
	}
}

func TestSeedXOR(t *testing.T) {
	a := testSeed(0x0f)
	b := testSeed(0xf0)
	if a.XOR(b) != testSeed(0xff) {
		t.Fatalf("xor wrong value")
	}
	if a.XOR(a) != (Seed{}) {
		t.Fatalf("a xor a != 0")
	}
}

func TestSeedZero(t *testing.T) {
	s := testSeed(0xaa)
	s.Zero()
	if s != (Seed{}) {
		t.Fatalf("seed not zeroized")
	}
}
