package bench

import (
	"testing"

	"github.com/jbr/draft-irtf-cfrg-vdaf/internal/testrng"
	"github.com/jbr/draft-irtf-cfrg-vdaf/prio3"
)

func benchNonce() []byte {
	return make([]byte, 16)
}

func BenchmarkShardCount(b *testing.B) {
	v, err := prio3.NewCount(2)
	if err != nil {
		b.Fatal(err)
	}
	v.Rand = testrng.Keyed([]byte("bench-shard-count"))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := v.Shard(1); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkShardSum32(b *testing.B) {
	v, err := prio3.NewSum(2, 32)
	if err != nil {
		b.Fatal(err)
	}
	v.Rand = testrng.Keyed([]byte("bench-shard-sum"))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := v.Shard(1 << 20); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkPrepInitSum32(b *testing.B) {
	v, err := prio3.NewSum(2, 32)
	if err != nil {
		b.Fatal(err)
	}
	v.Rand = testrng.Keyed([]byte("bench-prep-sum"))
	params, err := v.Setup()
	if err != nil {
		b.Fatal(err)
	}
	shares, err := v.Shard(1 << 20)
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := v.PrepInit(params[1], benchNonce(), shares[1]); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkRunHistogram(b *testing.B) {
	v, err := prio3.NewHistogram(2, []uint64{1, 10, 100, 1000})
	if err != nil {
		b.Fatal(err)
	}
	v.Rand = testrng.Keyed([]byte("bench-run-hist"))
	nonces := [][]byte{benchNonce()}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := v.Run(nonces, []uint64{42}); err != nil {
			b.Fatal(err)
		}
	}
}
