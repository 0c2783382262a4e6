package prio3

import (
	"fmt"
	"sync"

	"github.com/jbr/draft-irtf-cfrg-vdaf/field"
	"github.com/jbr/draft-irtf-cfrg-vdaf/vdaf"
)

// Aggregator accumulates accepted output shares into a running aggregate
// share. Reports may be prepared concurrently; the accumulator is the
// only shared state and serializes its updates. Addition commutes, so
// any interleaving of accepted shares yields the same aggregate share.
type Aggregator struct {
	v  *Prio3
	mu sync.Mutex
	ag []field.Elem
}

// NewAggregator returns an empty accumulator for v.
func (v *Prio3) NewAggregator() *Aggregator {
	return &Aggregator{v: v, ag: v.flp.Circ.Field().Zeros(v.OutputLen())}
}

// Update folds one output share into the aggregate share.
func (a *Aggregator) Update(outShare []field.Elem) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	sum, err := a.v.flp.Circ.Field().AddVec(a.ag, outShare)
	if err != nil {
		return err
	}
	a.ag = sum
	return nil
}

// AggShare returns a copy of the current aggregate share.
func (a *Aggregator) AggShare() []field.Elem {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]field.Elem(nil), a.ag...)
}

// OutSharesToAggShare sums a batch of output shares into an aggregate
// share.
func (v *Prio3) OutSharesToAggShare(outShares [][]field.Elem) ([]field.Elem, error) {
	f := v.flp.Circ.Field()
	agg := f.Zeros(v.OutputLen())
	var err error
	for _, os := range outShares {
		if agg, err = f.AddVec(agg, os); err != nil {
			return nil, err
		}
	}
	return agg, nil
}

// EncodeAggShare encodes an aggregate share for the collector.
func (v *Prio3) EncodeAggShare(aggShare []field.Elem) []byte {
	return v.flp.Circ.Field().EncodeVec(aggShare)
}

// DecodeAggShare decodes an aggregate share, checking its length.
func (v *Prio3) DecodeAggShare(b []byte) ([]field.Elem, error) {
	f := v.flp.Circ.Field()
	if len(b) != v.OutputLen()*f.EncodedSize() {
		return nil, fmt.Errorf("prio3: aggregate share is %d bytes, want %d: %w", len(b), v.OutputLen()*f.EncodedSize(), vdaf.ErrDecode)
	}
	return f.DecodeVec(b)
}

// AggSharesToResult combines one aggregate share per aggregator into the
// aggregate result, mapping each element to its unsigned value.
func (v *Prio3) AggSharesToResult(aggShares [][]field.Elem) ([]uint64, error) {
	f := v.flp.Circ.Field()
	if len(aggShares) != v.shares {
		return nil, fmt.Errorf("prio3: %d aggregate shares, want %d: %w", len(aggShares), v.shares, vdaf.ErrInvalidInput)
	}
	total := f.Zeros(v.OutputLen())
	var err error
	for _, as := range aggShares {
		if total, err = f.AddVec(total, as); err != nil {
			return nil, err
		}
	}
	out := make([]uint64, len(total))
	for i, e := range total {
		u, ok := e.Uint64()
		if !ok {
			return nil, fmt.Errorf("prio3: aggregate element %d exceeds 64 bits: %w", i, vdaf.ErrInvalidInput)
		}
		out[i] = u
	}
	return out, nil
}

// Run executes a whole batch in-process: shard every measurement, run
// both preparation steps across all aggregators, aggregate, and unshard.
// It is the reference flow for tests and the simulator; a deployment
// performs the same steps across the network.
func (v *Prio3) Run(nonces [][]byte, measurements []uint64) ([]uint64, error) {
	if len(nonces) != len(measurements) {
		return nil, fmt.Errorf("prio3: %d nonces for %d measurements: %w", len(nonces), len(measurements), vdaf.ErrInvalidInput)
	}
	verifyParams, err := v.Setup()
	if err != nil {
		return nil, err
	}
	aggs := make([]*Aggregator, v.shares)
	for j := range aggs {
		aggs[j] = v.NewAggregator()
	}

	for i, m := range measurements {
		inputShares, err := v.Shard(m)
		if err != nil {
			return nil, err
		}
		states := make([]*PrepState, v.shares)
		prepShares := make([][]byte, v.shares)
		for j := 0; j < v.shares; j++ {
			st, err := v.PrepInit(verifyParams[j], nonces[i], inputShares[j])
			if err != nil {
				return nil, err
			}
			states[j] = st
			prepShares[j] = st.Share()
		}
		msg, err := v.PrepSharesToPrep(prepShares)
		if err != nil {
			return nil, err
		}
		for j := 0; j < v.shares; j++ {
			outShare, err := v.PrepFinish(states[j], msg)
			if err != nil {
				return nil, err
			}
			if err := aggs[j].Update(outShare); err != nil {
				return nil, err
			}
		}
	}

	aggShares := make([][]field.Elem, v.shares)
	for j := range aggs {
		aggShares[j] = aggs[j].AggShare()
	}
	return v.AggSharesToResult(aggShares)
}
