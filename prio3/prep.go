package prio3

import (
	"fmt"

	"github.com/jbr/draft-irtf-cfrg-vdaf/field"
	"github.com/jbr/draft-irtf-cfrg-vdaf/prg"
	"github.com/jbr/draft-irtf-cfrg-vdaf/vdaf"
)

// prepStep tracks the per-report state machine. A report moves
// awaiting -> done, or to failed on any error; failed is terminal and
// the report contributes nothing to the aggregate.
type prepStep int

const (
	stepAwaiting prepStep = iota
	stepDone
	stepFailed
)

// PrepState is one aggregator's preparation state for one report. It
// holds the candidate output share, the aggregator's view of the joint
// randomness seed, and the outbound prep share emitted by PrepInit.
type PrepState struct {
	v             *Prio3
	step          prepStep
	outShare      []field.Elem
	jointRandSeed *prg.Seed
	outbound      []byte
}

// Share returns the outbound prep share to send to the combiner.
func (st *PrepState) Share() []byte {
	return st.outbound
}

// fail marks the state terminally failed and drops its secrets.
func (st *PrepState) fail() {
	st.step = stepFailed
	st.outShare = nil
	if st.jointRandSeed != nil {
		st.jointRandSeed.Zero()
		st.jointRandSeed = nil
	}
}

// PrepInit starts preparation of one report share. It decodes (leader)
// or expands (helper) the input and proof shares, derives the per-report
// query randomness from the nonce, queries the proof, and returns the
// state holding the outbound prep share. Nonces must be unique per
// report for the lifetime of the query-initialization seed.
func (v *Prio3) PrepInit(vp VerifyParam, nonce, inputShare []byte) (*PrepState, error) {
	c := v.flp.Circ
	f := c.Field()
	j := int(vp.AggID)
	if j >= v.shares {
		return nil, fmt.Errorf("prio3: aggregator id %d out of range [0,%d): %w", j, v.shares, vdaf.ErrInvalidInput)
	}

	sh, err := v.decodeInputShare(j, inputShare)
	if err != nil {
		return nil, err
	}
	outShare := c.Truncate(sh.inp)

	kQueryRand, err := prg.DeriveSeed(vp.QueryInit, queryInfo(nonce))
	if err != nil {
		return nil, err
	}
	queryRand, err := prg.ExpandIntoVec(f, kQueryRand, []byte(dst), v.flp.QueryRandLen())
	if err != nil {
		return nil, err
	}

	var (
		jointRand      []field.Elem
		jointRandSeed  *prg.Seed
		jointRandShare prg.Seed
	)
	if c.JointRandLen() > 0 {
		if jointRandShare, err = prg.DeriveSeed(sh.blind, hintInfo(f, j, sh.inp)); err != nil {
			return nil, err
		}
		seed := sh.hint.XOR(jointRandShare)
		jointRandSeed = &seed
		if jointRand, err = prg.ExpandIntoVec(f, seed, []byte(dst), c.JointRandLen()); err != nil {
			return nil, err
		}
	}

	verifierShare, err := v.flp.Query(sh.inp, sh.proof, queryRand, jointRand, v.shares)
	if err != nil {
		return nil, err
	}

	return &PrepState{
		v:             v,
		step:          stepAwaiting,
		outShare:      outShare,
		jointRandSeed: jointRandSeed,
		outbound:      v.encodePrepShare(verifierShare, jointRandShare),
	}, nil
}

// PrepSharesToPrep combines the aggregators' prep shares into the prep
// message: the componentwise sum of the verifier shares and the XOR of
// the joint-randomness seed shares. The combiner needs no secrets; any
// party may run it.
func (v *Prio3) PrepSharesToPrep(prepShares [][]byte) ([]byte, error) {
	f := v.flp.Circ.Field()
	if len(prepShares) != v.shares {
		return nil, fmt.Errorf("prio3: %d prep shares, want %d: %w", len(prepShares), v.shares, vdaf.ErrInvalidInput)
	}
	verifier := f.Zeros(v.flp.VerifierLen())
	var seed prg.Seed
	for _, b := range prepShares {
		ps, err := v.decodePrepShare(b)
		if err != nil {
			return nil, err
		}
		if verifier, err = f.AddVec(verifier, ps.verifier); err != nil {
			return nil, err
		}
		seed = seed.XOR(ps.jointRandSeed)
	}
	return v.encodePrepShare(verifier, seed), nil
}

// PrepFinish consumes the combined prep message and either releases the
// report's output share or rejects the report. Rejection is terminal:
// a failed report is dropped, never retried, and its state is cleared.
func (v *Prio3) PrepFinish(st *PrepState, prepMessage []byte) ([]field.Elem, error) {
	if st.step != stepAwaiting {
		return nil, fmt.Errorf("prio3: prep state already terminal: %w", vdaf.ErrInvalidState)
	}
	msg, err := v.decodePrepShare(prepMessage)
	if err != nil {
		st.fail()
		return nil, err
	}
	if v.flp.Circ.JointRandLen() > 0 && msg.jointRandSeed != *st.jointRandSeed {
		st.fail()
		return nil, fmt.Errorf("prio3: joint randomness seed mismatch: %w", vdaf.ErrVerify)
	}

	ok, err := v.flp.Decide(msg.verifier)
	if err != nil {
		st.fail()
		return nil, err
	}
	if !ok {
		st.fail()
		return nil, fmt.Errorf("prio3: proof did not verify: %w", vdaf.ErrVerify)
	}

	out := st.outShare
	st.outShare = nil
	st.step = stepDone
	if st.jointRandSeed != nil {
		st.jointRandSeed.Zero()
		st.jointRandSeed = nil
	}
	return out, nil
}
