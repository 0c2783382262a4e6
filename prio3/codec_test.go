package prio3

import (
	"errors"
	"sync"
	"testing"

	"github.com/jbr/draft-irtf-cfrg-vdaf/field"
	"github.com/jbr/draft-irtf-cfrg-vdaf/internal/testrng"
	"github.com/jbr/draft-irtf-cfrg-vdaf/vdaf"
)

func TestInputShareLayout(t *testing.T) {
	// Sum uses joint randomness, so every share carries blind and hint.
	v, err := NewSum(3, 8)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	v.Rand = testrng.Keyed([]byte("codec-layout"))
	shares, err := v.Shard(42)
	if err != nil {
		t.Fatalf("shard: %v", err)
	}
	f := v.Circuit().Field()
	wantLeader := (v.Circuit().InputLen()+v.flp.ProofLen())*f.EncodedSize() + 32
	if len(shares[0]) != wantLeader {
		t.Fatalf("leader share %d bytes, want %d", len(shares[0]), wantLeader)
	}
	for j := 1; j < v.Shares(); j++ {
		if len(shares[j]) != 64 {
			t.Fatalf("helper share %d is %d bytes, want 64", j, len(shares[j]))
		}
	}

	// Count uses no joint randomness: no trailing seeds.
	vc, err := NewCount(2)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	vc.Rand = testrng.Keyed([]byte("codec-layout-count"))
	shares, err = vc.Shard(1)
	if err != nil {
		t.Fatalf("shard: %v", err)
	}
	fc := vc.Circuit().Field()
	wantLeader = (vc.Circuit().InputLen() + vc.flp.ProofLen()) * fc.EncodedSize()
	if len(shares[0]) != wantLeader {
		t.Fatalf("count leader share %d bytes, want %d", len(shares[0]), wantLeader)
	}
	if len(shares[1]) != 32 {
		t.Fatalf("count helper share %d bytes, want 32", len(shares[1]))
	}
}

func TestDecodeInputShareRoundTrip(t *testing.T) {
	v, err := NewSum(2, 8)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	v.Rand = testrng.Keyed([]byte("codec-roundtrip"))
	shares, err := v.Shard(200)
	if err != nil {
		t.Fatalf("shard: %v", err)
	}

	leader, err := v.decodeInputShare(0, shares[0])
	if err != nil {
		t.Fatalf("decode leader: %v", err)
	}
	helper, err := v.decodeInputShare(1, shares[1])
	if err != nil {
		t.Fatalf("decode helper: %v", err)
	}
	f := v.Circuit().Field()

	// The input shares must recombine to the encoded measurement.
	inp, err := f.AddVec(leader.inp, helper.inp)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	want, err := v.Circuit().Encode(200)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	for i := range want {
		if inp[i] != want[i] {
			t.Fatalf("input shares do not recombine at %d", i)
		}
	}
	if len(leader.proof) != v.flp.ProofLen() || len(helper.proof) != v.flp.ProofLen() {
		t.Fatalf("proof share lengths %d/%d, want %d", len(leader.proof), len(helper.proof), v.flp.ProofLen())
	}

	// Re-encoding reproduces the wire bytes.
	enc := v.encodeLeaderShare(leader.inp, leader.proof, leader.blind, leader.hint)
	if len(enc) != len(shares[0]) {
		t.Fatalf("re-encoded leader share %d bytes, want %d", len(enc), len(shares[0]))
	}
	for i := range enc {
		if enc[i] != shares[0][i] {
			t.Fatalf("re-encoded leader share differs at byte %d", i)
		}
	}
}

func TestDecodeInputShareErrors(t *testing.T) {
	v, err := NewSum(2, 8)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	v.Rand = testrng.Keyed([]byte("codec-errors"))
	shares, err := v.Shard(1)
	if err != nil {
		t.Fatalf("shard: %v", err)
	}
	if _, err := v.decodeInputShare(0, shares[0][:len(shares[0])-1]); !errors.Is(err, vdaf.ErrDecode) {
		t.Fatalf("truncated leader share: %v", err)
	}
	if _, err := v.decodeInputShare(1, append(shares[1], 0)); !errors.Is(err, vdaf.ErrDecode) {
		t.Fatalf("oversized helper share: %v", err)
	}
}

// TestParallelPreparation prepares a batch with one goroutine per report;
// the aggregate must come out the same as the serial order because
// accumulation commutes.
func TestParallelPreparation(t *testing.T) {
	v, err := NewCount(2)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	v.Rand = testrng.Keyed([]byte("parallel"))
	params, err := v.Setup()
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	const reports = 16
	type report struct {
		shares [][]byte
		nonce  []byte
	}
	batch := make([]report, reports)
	for i := range batch {
		shares, err := v.Shard(1)
		if err != nil {
			t.Fatalf("shard %d: %v", i, err)
		}
		batch[i] = report{shares: shares, nonce: fixedNonce(byte(i))}
	}

	aggs := make([]*Aggregator, v.Shares())
	for j := range aggs {
		aggs[j] = v.NewAggregator()
	}
	var wg sync.WaitGroup
	errc := make(chan error, reports)
	for i := range batch {
		wg.Add(1)
		go func(r report) {
			defer wg.Done()
			states := make([]*PrepState, v.Shares())
			prepShares := make([][]byte, v.Shares())
			for j := 0; j < v.Shares(); j++ {
				st, err := v.PrepInit(params[j], r.nonce, r.shares[j])
				if err != nil {
					errc <- err
					return
				}
				states[j] = st
				prepShares[j] = st.Share()
			}
			msg, err := v.PrepSharesToPrep(prepShares)
			if err != nil {
				errc <- err
				return
			}
			for j := 0; j < v.Shares(); j++ {
				outShare, err := v.PrepFinish(states[j], msg)
				if err != nil {
					errc <- err
					return
				}
				if err := aggs[j].Update(outShare); err != nil {
					errc <- err
					return
				}
			}
		}(batch[i])
	}
	wg.Wait()
	close(errc)
	for err := range errc {
		t.Fatalf("parallel prepare: %v", err)
	}

	result, err := v.AggSharesToResult([][]field.Elem{aggs[0].AggShare(), aggs[1].AggShare()})
	if err != nil {
		t.Fatalf("result: %v", err)
	}
	if result[0] != reports {
		t.Fatalf("aggregate %v, want [%d]", result, reports)
	}
}
