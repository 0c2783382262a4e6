package prio3

// Wire layouts. Field vectors are concatenations of fixed-width
// little-endian elements; seeds are raw 16-byte strings. The leader
// share carries its vectors explicitly, helper shares carry the seeds
// they expand from; both append blind and hint seeds when the circuit
// uses joint randomness.

import (
	"fmt"

	"github.com/jbr/draft-irtf-cfrg-vdaf/field"
	"github.com/jbr/draft-irtf-cfrg-vdaf/prg"
	"github.com/jbr/draft-irtf-cfrg-vdaf/vdaf"
)

// inputShare is the decoded form of one aggregator's report share.
type inputShare struct {
	inp   []field.Elem
	proof []field.Elem
	blind prg.Seed
	hint  prg.Seed
}

func (v *Prio3) encodeLeaderShare(inp, proof []field.Elem, blind, hint prg.Seed) []byte {
	f := v.flp.Circ.Field()
	out := f.EncodeVec(inp)
	out = append(out, f.EncodeVec(proof)...)
	if v.flp.Circ.JointRandLen() > 0 {
		out = append(out, blind[:]...)
		out = append(out, hint[:]...)
	}
	return out
}

func (v *Prio3) encodeHelperShare(kInp, kProof, blind, hint prg.Seed) []byte {
	out := make([]byte, 0, 4*prg.SeedSize)
	out = append(out, kInp[:]...)
	out = append(out, kProof[:]...)
	if v.flp.Circ.JointRandLen() > 0 {
		out = append(out, blind[:]...)
		out = append(out, hint[:]...)
	}
	return out
}

// decodeInputShare parses aggregator j's share, expanding helper seeds
// into the input and proof vectors.
func (v *Prio3) decodeInputShare(j int, b []byte) (*inputShare, error) {
	c := v.flp.Circ
	f := c.Field()
	withJR := c.JointRandLen() > 0
	var sh inputShare

	if j == 0 {
		inpBytes := c.InputLen() * f.EncodedSize()
		proofBytes := v.flp.ProofLen() * f.EncodedSize()
		want := inpBytes + proofBytes
		if withJR {
			want += 2 * prg.SeedSize
		}
		if len(b) != want {
			return nil, fmt.Errorf("prio3: leader share is %d bytes, want %d: %w", len(b), want, vdaf.ErrDecode)
		}
		var err error
		if sh.inp, err = f.DecodeVec(b[:inpBytes]); err != nil {
			return nil, err
		}
		if sh.proof, err = f.DecodeVec(b[inpBytes : inpBytes+proofBytes]); err != nil {
			return nil, err
		}
		if withJR {
			copy(sh.blind[:], b[inpBytes+proofBytes:])
			copy(sh.hint[:], b[inpBytes+proofBytes+prg.SeedSize:])
		}
		return &sh, nil
	}

	want := 2 * prg.SeedSize
	if withJR {
		want += 2 * prg.SeedSize
	}
	if len(b) != want {
		return nil, fmt.Errorf("prio3: helper share is %d bytes, want %d: %w", len(b), want, vdaf.ErrDecode)
	}
	var kInp, kProof prg.Seed
	copy(kInp[:], b[:prg.SeedSize])
	copy(kProof[:], b[prg.SeedSize:])
	var err error
	if sh.inp, err = prg.ExpandIntoVec(f, kInp, shareInfo(j), c.InputLen()); err != nil {
		return nil, err
	}
	if sh.proof, err = prg.ExpandIntoVec(f, kProof, shareInfo(j), v.flp.ProofLen()); err != nil {
		return nil, err
	}
	if withJR {
		copy(sh.blind[:], b[2*prg.SeedSize:])
		copy(sh.hint[:], b[3*prg.SeedSize:])
	}
	return &sh, nil
}

// prepShare is the decoded form of one aggregator's prep share; the
// prep message has the same shape after combining.
type prepShare struct {
	verifier      []field.Elem
	jointRandSeed prg.Seed
}

func (v *Prio3) encodePrepShare(verifier []field.Elem, jointRandSeed prg.Seed) []byte {
	out := v.flp.Circ.Field().EncodeVec(verifier)
	if v.flp.Circ.JointRandLen() > 0 {
		out = append(out, jointRandSeed[:]...)
	}
	return out
}

func (v *Prio3) decodePrepShare(b []byte) (*prepShare, error) {
	f := v.flp.Circ.Field()
	withJR := v.flp.Circ.JointRandLen() > 0
	verifierBytes := v.flp.VerifierLen() * f.EncodedSize()
	want := verifierBytes
	if withJR {
		want += prg.SeedSize
	}
	if len(b) != want {
		return nil, fmt.Errorf("prio3: prep share is %d bytes, want %d: %w", len(b), want, vdaf.ErrDecode)
	}
	var ps prepShare
	var err error
	if ps.verifier, err = f.DecodeVec(b[:verifierBytes]); err != nil {
		return nil, err
	}
	if withJR {
		copy(ps.jointRandSeed[:], b[verifierBytes:])
	}
	return &ps, nil
}
