package prio3

import (
	"bytes"
	"errors"
	"testing"

	"github.com/jbr/draft-irtf-cfrg-vdaf/field"
	"github.com/jbr/draft-irtf-cfrg-vdaf/internal/testrng"
	"github.com/jbr/draft-irtf-cfrg-vdaf/vdaf"
)

func fixedNonce(b byte) []byte {
	return bytes.Repeat([]byte{b}, 16)
}

func TestCountEndToEnd(t *testing.T) {
	v, err := NewCount(2)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	v.Rand = testrng.Const(0x01)
	got, err := v.Run([][]byte{fixedNonce(0x01)}, []uint64{1})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(got) != 1 || got[0] != 1 {
		t.Fatalf("aggregate %v, want [1]", got)
	}
}

func TestCountBatch(t *testing.T) {
	v, err := NewCount(2)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	v.Rand = testrng.Const(0x01)
	nonces := [][]byte{fixedNonce(0x01), fixedNonce(0x02)}
	got, err := v.Run(nonces, []uint64{1, 1})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(got) != 1 || got[0] != 2 {
		t.Fatalf("aggregate %v, want [2]", got)
	}
}

func TestSumEndToEnd(t *testing.T) {
	v, err := NewSum(2, 8)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	v.Rand = testrng.Const(0x01)
	got, err := v.Run([][]byte{fixedNonce(0x01)}, []uint64{100})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(got) != 1 || got[0] != 100 {
		t.Fatalf("aggregate %v, want [100]", got)
	}
}

func TestSumBatch(t *testing.T) {
	v, err := NewSum(3, 8)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	v.Rand = testrng.Keyed([]byte("sum-batch"))
	measurements := []uint64{0, 1, 17, 255, 100}
	nonces := make([][]byte, len(measurements))
	var want uint64
	for i, m := range measurements {
		nonces[i] = fixedNonce(byte(i))
		want += m
	}
	got, err := v.Run(nonces, measurements)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(got) != 1 || got[0] != want {
		t.Fatalf("aggregate %v, want [%d]", got, want)
	}
}

func TestHistogramEndToEnd(t *testing.T) {
	v, err := NewHistogram(2, []uint64{1, 10, 100})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	v.Rand = testrng.Const(0x01)
	got, err := v.Run([][]byte{fixedNonce(0x01)}, []uint64{50})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	want := []uint64{0, 0, 1, 0}
	if len(got) != len(want) {
		t.Fatalf("aggregate length %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("aggregate %v, want %v", got, want)
		}
	}
}

func TestHistogramBatch(t *testing.T) {
	v, err := NewHistogram(2, []uint64{1, 10, 100})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	v.Rand = testrng.Keyed([]byte("hist-batch"))
	measurements := []uint64{0, 1, 2, 10, 50, 100, 101, 1 << 33}
	nonces := make([][]byte, len(measurements))
	for i := range nonces {
		nonces[i] = fixedNonce(byte(i))
	}
	got, err := v.Run(nonces, measurements)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	want := []uint64{2, 2, 2, 2}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("aggregate %v, want %v", got, want)
		}
	}
}

func TestShardDeterministic(t *testing.T) {
	v, err := NewSum(2, 8)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	v.Rand = testrng.Const(0x01)
	a, err := v.Shard(100)
	if err != nil {
		t.Fatalf("shard: %v", err)
	}
	b, err := v.Shard(100)
	if err != nil {
		t.Fatalf("shard: %v", err)
	}
	for j := range a {
		if !bytes.Equal(a[j], b[j]) {
			t.Fatalf("share %d differs under a fixed randomness source", j)
		}
	}
}

func TestEncodeRangeError(t *testing.T) {
	v, err := NewSum(2, 8)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	v.Rand = testrng.Const(0x01)
	if _, err := v.Shard(256); !errors.Is(err, vdaf.ErrEncode) {
		t.Fatalf("shard 256: %v", err)
	}
}

func TestShareCountRange(t *testing.T) {
	for _, n := range []int{0, 1, 255, 300} {
		if _, err := NewCount(n); !errors.Is(err, vdaf.ErrInvalidInput) {
			t.Fatalf("share count %d: %v", n, err)
		}
	}
	if _, err := NewCount(254); err != nil {
		t.Fatalf("share count 254: %v", err)
	}
}

// prepare runs both preparation steps for every aggregator and returns
// the output shares.
func prepare(t *testing.T, v *Prio3, nonce []byte, inputShares [][]byte) ([][]byte, []*PrepState) {
	t.Helper()
	params, err := v.Setup()
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	states := make([]*PrepState, v.Shares())
	prepShares := make([][]byte, v.Shares())
	for j := 0; j < v.Shares(); j++ {
		st, err := v.PrepInit(params[j], nonce, inputShares[j])
		if err != nil {
			t.Fatalf("prep init %d: %v", j, err)
		}
		states[j] = st
		prepShares[j] = st.Share()
	}
	return prepShares, states
}

func TestTamperedShareRejected(t *testing.T) {
	for _, make3 := range []func() (*Prio3, error){
		func() (*Prio3, error) { return NewCount(2) },
		func() (*Prio3, error) { return NewSum(2, 8) },
	} {
		v, err := make3()
		if err != nil {
			t.Fatalf("new: %v", err)
		}
		v.Rand = testrng.Const(0x01)
		inputShares, err := v.Shard(1)
		if err != nil {
			t.Fatalf("shard: %v", err)
		}
		// Flip one byte of the helper share.
		inputShares[1][0] ^= 0x80

		prepShares, states := prepare(t, v, fixedNonce(0x01), inputShares)
		msg, err := v.PrepSharesToPrep(prepShares)
		if err != nil {
			t.Fatalf("combine: %v", err)
		}
		for j, st := range states {
			if _, err := v.PrepFinish(st, msg); !errors.Is(err, vdaf.ErrVerify) {
				t.Fatalf("aggregator %d accepted a tampered report: %v", j, err)
			}
		}
		// Nothing was admitted, so the empty aggregate decodes to zero.
		res, err := v.AggSharesToResult(collectEmpty(v))
		if err != nil {
			t.Fatalf("result: %v", err)
		}
		for _, r := range res {
			if r != 0 {
				t.Fatalf("aggregate %v after rejecting every report", res)
			}
		}
	}
}

func collectEmpty(v *Prio3) [][]field.Elem {
	aggs := make([][]field.Elem, v.Shares())
	for j := range aggs {
		aggs[j] = v.NewAggregator().AggShare()
	}
	return aggs
}

func TestPrepStateMachine(t *testing.T) {
	v, err := NewCount(2)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	v.Rand = testrng.Const(0x01)
	inputShares, err := v.Shard(1)
	if err != nil {
		t.Fatalf("shard: %v", err)
	}
	prepShares, states := prepare(t, v, fixedNonce(0x01), inputShares)
	msg, err := v.PrepSharesToPrep(prepShares)
	if err != nil {
		t.Fatalf("combine: %v", err)
	}
	if _, err := v.PrepFinish(states[0], msg); err != nil {
		t.Fatalf("finish: %v", err)
	}
	// A terminal state must not step again.
	if _, err := v.PrepFinish(states[0], msg); !errors.Is(err, vdaf.ErrInvalidState) {
		t.Fatalf("double finish: %v", err)
	}
}

func TestNonceChangesPrepShares(t *testing.T) {
	v, err := NewCount(2)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	v.Rand = testrng.Const(0x01)
	inputShares, err := v.Shard(1)
	if err != nil {
		t.Fatalf("shard: %v", err)
	}
	a, _ := prepare(t, v, fixedNonce(0x01), inputShares)
	b, _ := prepare(t, v, fixedNonce(0x02), inputShares)
	if bytes.Equal(a[0], b[0]) {
		t.Fatalf("distinct nonces produced identical prep shares")
	}
}

func TestPrepShareLengthChecks(t *testing.T) {
	v, err := NewCount(2)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	v.Rand = testrng.Const(0x01)
	params, err := v.Setup()
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	if _, err := v.PrepInit(params[0], fixedNonce(0x01), []byte{1, 2, 3}); !errors.Is(err, vdaf.ErrDecode) {
		t.Fatalf("short leader share: %v", err)
	}
	if _, err := v.PrepInit(params[1], fixedNonce(0x01), []byte{1, 2, 3}); !errors.Is(err, vdaf.ErrDecode) {
		t.Fatalf("short helper share: %v", err)
	}
	if _, err := v.PrepSharesToPrep([][]byte{{1}}); !errors.Is(err, vdaf.ErrInvalidInput) {
		t.Fatalf("wrong prep share count: %v", err)
	}
	if _, err := v.PrepSharesToPrep([][]byte{{1}, {2}}); !errors.Is(err, vdaf.ErrDecode) {
		t.Fatalf("short prep shares: %v", err)
	}
}

func TestAggShareCodec(t *testing.T) {
	v, err := NewHistogram(2, []uint64{1, 10})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	f := v.Circuit().Field()
	share := []field.Elem{f.NewElem(3), f.NewElem(1), f.NewElem(4)}
	enc := v.EncodeAggShare(share)
	dec, err := v.DecodeAggShare(enc)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	for i := range share {
		if dec[i] != share[i] {
			t.Fatalf("aggregate share round trip mismatch at %d", i)
		}
	}
	if _, err := v.DecodeAggShare(enc[:len(enc)-1]); !errors.Is(err, vdaf.ErrDecode) {
		t.Fatalf("short aggregate share: %v", err)
	}
}

func TestMoreThanTwoAggregators(t *testing.T) {
	v, err := NewHistogram(5, []uint64{1, 10, 100})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	v.Rand = testrng.Keyed([]byte("five-way"))
	got, err := v.Run([][]byte{fixedNonce(0x07)}, []uint64{9})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	want := []uint64{0, 1, 0, 0}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("aggregate %v, want %v", got, want)
		}
	}
}
