package prio3

// Package prio3 implements the Prio3 VDAF: a client shards a measurement
// into input shares carrying a fully linear proof of validity; each
// aggregator turns its share into a verifier-message share in one round
// of preparation; the combined verifier message either admits the
// report's output shares into the aggregate or rejects the report. The
// collector sums aggregate shares into the final result.

import (
	"crypto/rand"
	"fmt"
	"io"

	"github.com/jbr/draft-irtf-cfrg-vdaf/field"
	"github.com/jbr/draft-irtf-cfrg-vdaf/flp"
	"github.com/jbr/draft-irtf-cfrg-vdaf/prg"
	"github.com/jbr/draft-irtf-cfrg-vdaf/vdaf"
)

// Rounds is the number of preparation rounds.
const Rounds = 1

// dst is the domain-separation tag for Prio3's share, proof, joint and
// query randomness expansions. The hint and query-seed derivations use
// their own info strings (hintInfo, queryInfo), which do not include it.
const dst = "vdaf-00 prio3"

// Prio3 is a Prio3 instance: a validity circuit wrapped in the generic
// proof system, split over a fixed number of aggregators.
type Prio3 struct {
	flp    flp.FLP
	shares int

	// Rand is the randomness source for seeds and blinds. It defaults to
	// crypto/rand.Reader; tests install a deterministic reader.
	Rand io.Reader
}

// New returns a Prio3 instance for the given circuit and share count.
// numShares must be in [2, 255).
func New(circ flp.Circuit, numShares int) (*Prio3, error) {
	if numShares < 2 || numShares >= 255 {
		return nil, fmt.Errorf("prio3: share count %d out of range [2,255): %w", numShares, vdaf.ErrInvalidInput)
	}
	return &Prio3{flp: flp.FLP{Circ: circ}, shares: numShares}, nil
}

// NewCount returns Prio3 over the Count circuit.
func NewCount(numShares int) (*Prio3, error) {
	return New(flp.NewCount(), numShares)
}

// NewSum returns Prio3 over the Sum circuit for bits-wide measurements.
func NewSum(numShares, bits int) (*Prio3, error) {
	circ, err := flp.NewSum(bits)
	if err != nil {
		return nil, err
	}
	return New(circ, numShares)
}

// NewHistogram returns Prio3 over the Histogram circuit for the given
// bucket boundaries.
func NewHistogram(numShares int, buckets []uint64) (*Prio3, error) {
	circ, err := flp.NewHistogram(buckets)
	if err != nil {
		return nil, err
	}
	return New(circ, numShares)
}

// Shares returns the aggregator count.
func (v *Prio3) Shares() int { return v.shares }

// Circuit returns the underlying validity circuit.
func (v *Prio3) Circuit() flp.Circuit { return v.flp.Circ }

// OutputLen returns the length of output shares and aggregate results.
func (v *Prio3) OutputLen() int { return v.flp.Circ.OutputLen() }

func (v *Prio3) randSource() io.Reader {
	if v.Rand != nil {
		return v.Rand
	}
	return rand.Reader
}

// VerifyParam is one aggregator's secret verification parameter. The
// query-initialization seed is shared by all aggregators and must stay
// hidden from clients and the collector.
type VerifyParam struct {
	AggID     uint8
	QueryInit prg.Seed
}

// Setup draws the shared query-initialization seed and returns one
// verification parameter per aggregator. Prio3 has no public parameter
// and no aggregation parameter.
func (v *Prio3) Setup() ([]VerifyParam, error) {
	queryInit, err := prg.ReadSeed(v.randSource())
	if err != nil {
		return nil, err
	}
	params := make([]VerifyParam, v.shares)
	for j := range params {
		params[j] = VerifyParam{AggID: uint8(j), QueryInit: queryInit}
	}
	return params, nil
}

// shareInfo is the per-share PRG domain separation, dst followed by the
// aggregator index.
func shareInfo(j int) []byte {
	return append([]byte(dst), byte(j))
}

// hintInfo is the joint-randomness hint domain separation: the
// aggregator index followed by its encoded input share.
func hintInfo(f *field.Field, j int, inpShare []field.Elem) []byte {
	return append([]byte{byte(j)}, f.EncodeVec(inpShare)...)
}

// queryInfo is the per-report query-randomness domain separation.
func queryInfo(nonce []byte) []byte {
	return append([]byte{255}, nonce...)
}

// Shard splits a measurement into one encoded input share per
// aggregator. Share 0 is the leader share (explicit vectors); the others
// are helper shares (seeds). When the circuit uses joint randomness, each
// share also carries a blind and a hint seed.
func (v *Prio3) Shard(measurement uint64) ([][]byte, error) {
	c := v.flp.Circ
	f := c.Field()
	rnd := v.randSource()

	inp, err := c.Encode(measurement)
	if err != nil {
		return nil, err
	}

	// Input shares: helpers are PRG expansions, the leader absorbs the
	// difference.
	inpShares := make([][]field.Elem, v.shares)
	inpSeeds := make([]prg.Seed, v.shares)
	leaderInp := append([]field.Elem(nil), inp...)
	for j := 1; j < v.shares; j++ {
		seed, err := prg.ReadSeed(rnd)
		if err != nil {
			return nil, err
		}
		share, err := prg.ExpandIntoVec(f, seed, shareInfo(j), c.InputLen())
		if err != nil {
			return nil, err
		}
		inpSeeds[j] = seed
		inpShares[j] = share
		if leaderInp, err = f.SubVec(leaderInp, share); err != nil {
			return nil, err
		}
	}
	inpShares[0] = leaderInp

	// Joint randomness: every share contributes a blinded hint; the
	// stored hint lets its aggregator recover the combined seed from the
	// other shares' contributions.
	var jointRand []field.Elem
	blinds := make([]prg.Seed, v.shares)
	hints := make([]prg.Seed, v.shares)
	if c.JointRandLen() > 0 {
		var kJointRand prg.Seed
		for j := 0; j < v.shares; j++ {
			if blinds[j], err = prg.ReadSeed(rnd); err != nil {
				return nil, err
			}
			if hints[j], err = prg.DeriveSeed(blinds[j], hintInfo(f, j, inpShares[j])); err != nil {
				return nil, err
			}
			kJointRand = kJointRand.XOR(hints[j])
		}
		for j := 0; j < v.shares; j++ {
			hints[j] = hints[j].XOR(kJointRand)
		}
		if jointRand, err = prg.ExpandIntoVec(f, kJointRand, []byte(dst), c.JointRandLen()); err != nil {
			return nil, err
		}
	}

	// Prove, then share the proof the same way as the input.
	proveSeed, err := prg.ReadSeed(rnd)
	if err != nil {
		return nil, err
	}
	proveRand, err := prg.ExpandIntoVec(f, proveSeed, []byte(dst), v.flp.ProveRandLen())
	if err != nil {
		return nil, err
	}
	proof, err := v.flp.Prove(inp, proveRand, jointRand)
	if err != nil {
		return nil, err
	}
	proofSeeds := make([]prg.Seed, v.shares)
	leaderProof := proof
	for j := 1; j < v.shares; j++ {
		seed, err := prg.ReadSeed(rnd)
		if err != nil {
			return nil, err
		}
		share, err := prg.ExpandIntoVec(f, seed, shareInfo(j), v.flp.ProofLen())
		if err != nil {
			return nil, err
		}
		proofSeeds[j] = seed
		if leaderProof, err = f.SubVec(leaderProof, share); err != nil {
			return nil, err
		}
	}

	out := make([][]byte, v.shares)
	out[0] = v.encodeLeaderShare(leaderInp, leaderProof, blinds[0], hints[0])
	for j := 1; j < v.shares; j++ {
		out[j] = v.encodeHelperShare(inpSeeds[j], proofSeeds[j], blinds[j], hints[j])
	}
	return out, nil
}
