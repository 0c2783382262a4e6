// Command vdafsim drives a full Prio3 batch in one process: it plays the
// client, every aggregator, and the collector, then prints the aggregate
// result. Transport, persistence, and nonce distribution stay out of the
// library; the simulator stands in for all three.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/sha3"

	"github.com/jbr/draft-irtf-cfrg-vdaf/field"
	"github.com/jbr/draft-irtf-cfrg-vdaf/prio3"
	"github.com/jbr/draft-irtf-cfrg-vdaf/prof"
)

// deriveNonces expands a batch label into one 16-byte nonce per report
// with SHAKE-128. Nonces must be unique within a batch; distinct indices
// guarantee that here.
func deriveNonces(label string, n int) [][]byte {
	out := make([][]byte, n)
	for i := range out {
		h := sha3.NewShake128()
		h.Write([]byte(label))
		h.Write([]byte{byte(i >> 24), byte(i >> 16), byte(i >> 8), byte(i)})
		nonce := make([]byte, 16)
		if _, err := h.Read(nonce); err != nil {
			log.Fatalf("derive nonce %d: %v", i, err)
		}
		out[i] = nonce
	}
	return out
}

func parseUints(csv string) ([]uint64, error) {
	parts := strings.Split(csv, ",")
	out := make([]uint64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.ParseUint(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("value %q: %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func main() {
	circuit := flag.String("circuit", "count", "validity circuit: count|sum|histogram")
	shares := flag.Int("shares", 2, "number of aggregators")
	bits := flag.Int("bits", 8, "sum: measurement bit width")
	buckets := flag.String("buckets", "1,10,100", "histogram: comma-separated bucket boundaries")
	measurements := flag.String("measurements", "1", "comma-separated measurements")
	label := flag.String("label", "vdafsim batch", "batch label for nonce derivation")
	timings := flag.Bool("timings", false, "print per-phase timing summary")
	flag.Parse()

	ms, err := parseUints(*measurements)
	if err != nil {
		log.Fatalf("measurements: %v", err)
	}
	if len(ms) == 0 {
		log.Fatalf("no measurements given")
	}

	var v *prio3.Prio3
	switch *circuit {
	case "count":
		v, err = prio3.NewCount(*shares)
	case "sum":
		v, err = prio3.NewSum(*shares, *bits)
	case "histogram":
		var bs []uint64
		if bs, err = parseUints(*buckets); err == nil {
			v, err = prio3.NewHistogram(*shares, bs)
		}
	default:
		log.Fatalf("unknown circuit %q", *circuit)
	}
	if err != nil {
		log.Fatalf("instantiate %s: %v", *circuit, err)
	}

	nonces := deriveNonces(*label, len(ms))
	timer := prof.NewCollector(*circuit)

	params, err := v.Setup()
	if err != nil {
		log.Fatalf("setup: %v", err)
	}
	aggs := make([]*prio3.Aggregator, v.Shares())
	for j := range aggs {
		aggs[j] = v.NewAggregator()
	}

	accepted := 0
	for i, m := range ms {
		start := time.Now()
		inputShares, err := v.Shard(m)
		timer.Track(start, "shard")
		if err != nil {
			log.Fatalf("shard report %d: %v", i, err)
		}

		states := make([]*prio3.PrepState, v.Shares())
		prepShares := make([][]byte, v.Shares())
		start = time.Now()
		for j := 0; j < v.Shares(); j++ {
			st, err := v.PrepInit(params[j], nonces[i], inputShares[j])
			if err != nil {
				log.Fatalf("prep init report %d aggregator %d: %v", i, j, err)
			}
			states[j] = st
			prepShares[j] = st.Share()
		}
		timer.Track(start, "prep-init")

		msg, err := v.PrepSharesToPrep(prepShares)
		if err != nil {
			log.Fatalf("combine report %d: %v", i, err)
		}

		start = time.Now()
		rejected := false
		for j := 0; j < v.Shares(); j++ {
			outShare, err := v.PrepFinish(states[j], msg)
			if err != nil {
				log.Printf("report %d rejected by aggregator %d: %v", i, j, err)
				rejected = true
				continue
			}
			if err := aggs[j].Update(outShare); err != nil {
				log.Fatalf("aggregate report %d: %v", i, err)
			}
		}
		timer.Track(start, "prep-finish")
		if !rejected {
			accepted++
		}
	}

	// The collector receives encoded aggregate shares and unshards.
	encoded := make([][]byte, v.Shares())
	for j := range aggs {
		encoded[j] = v.EncodeAggShare(aggs[j].AggShare())
	}
	aggShares := make([][]field.Elem, v.Shares())
	for j, b := range encoded {
		share, err := v.DecodeAggShare(b)
		if err != nil {
			log.Fatalf("decode aggregate share %d: %v", j, err)
		}
		aggShares[j] = share
	}
	result, err := v.AggSharesToResult(aggShares)
	if err != nil {
		log.Fatalf("unshard: %v", err)
	}

	fmt.Printf("circuit=%s shares=%d reports=%d accepted=%d\n", *circuit, v.Shares(), len(ms), accepted)
	fmt.Printf("aggregate=%v\n", result)
	if *timings {
		timer.Report(os.Stdout)
	}
}
