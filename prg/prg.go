package prg

// Package prg implements the seed-expanding pseudorandom generator used
// throughout Prio3. A seed and a domain-separation info string are keyed
// through AES-128-CMAC; the resulting key drives an AES-128-CTR keystream
// over a zero IV. The same construction derives fresh seeds and expands
// seeds into field vectors by rejection sampling.

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"
	"io"

	"github.com/aead/cmac"

	"github.com/jbr/draft-irtf-cfrg-vdaf/field"
)

// SeedSize is the byte length of a PRG seed.
const SeedSize = 16

// Seed is an opaque 16-byte PRG seed.
type Seed [SeedSize]byte

// ReadSeed draws a fresh seed from r.
func ReadSeed(r io.Reader) (Seed, error) {
	var s Seed
	if _, err := io.ReadFull(r, s[:]); err != nil {
		return Seed{}, fmt.Errorf("prg: read seed: %w", err)
	}
	return s, nil
}

// XOR returns the bytewise XOR of s and t.
func (s Seed) XOR(t Seed) Seed {
	var out Seed
	for i := range out {
		out[i] = s[i] ^ t[i]
	}
	return out
}

// Zero overwrites the seed in place. Callers drop secret seeds through
// this once the owning report reaches a terminal state.
func (s *Seed) Zero() {
	for i := range s {
		s[i] = 0
	}
}

// Prg is a positioned keystream. Sequential Next(a), Next(b) calls return
// the same bytes as a single Next(a+b).
type Prg struct {
	stream cipher.Stream
}

// New keys a keystream from seed and info: the CTR key is
// AES-128-CMAC(seed, info) and the IV is zero.
func New(seed Seed, info []byte) (*Prg, error) {
	keyBlock, err := aes.NewCipher(seed[:])
	if err != nil {
		return nil, fmt.Errorf("prg: key cipher: %w", err)
	}
	key, err := cmac.Sum(info, keyBlock, aes.BlockSize)
	if err != nil {
		return nil, fmt.Errorf("prg: cmac: %w", err)
	}
	streamBlock, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("prg: stream cipher: %w", err)
	}
	iv := make([]byte, aes.BlockSize)
	return &Prg{stream: cipher.NewCTR(streamBlock, iv)}, nil
}

// Next returns the next n keystream bytes.
func (p *Prg) Next(n int) []byte {
	out := make([]byte, n)
	p.stream.XORKeyStream(out, out)
	return out
}

// DeriveSeed derives a fresh seed from seed and info.
func DeriveSeed(seed Seed, info []byte) (Seed, error) {
	p, err := New(seed, info)
	if err != nil {
		return Seed{}, err
	}
	var out Seed
	copy(out[:], p.Next(SeedSize))
	return out, nil
}

// ExpandIntoVec deterministically expands seed and info into n elements
// of f. Each candidate draw is one encoded element's worth of keystream,
// decoded little-endian, masked to the modulus bit length, and accepted
// when below the modulus.
func ExpandIntoVec(f *field.Field, seed Seed, info []byte, n int) ([]field.Elem, error) {
	p, err := New(seed, info)
	if err != nil {
		return nil, err
	}
	out := make([]field.Elem, 0, n)
	for len(out) < n {
		e, err := f.RandElem(prgReader{p})
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// prgReader adapts a Prg to io.Reader for the field's rejection sampler.
type prgReader struct {
	p *Prg
}

func (r prgReader) Read(b []byte) (int, error) {
	copy(b, r.p.Next(len(b)))
	return len(b), nil
}
