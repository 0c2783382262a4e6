//go:build analysis

// Command analysis measures how the Prio3 proof system scales and renders
// the results as an HTML report: proof and verifier sizes per circuit
// size, and wall-clock sharding/preparation times.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/jbr/draft-irtf-cfrg-vdaf/flp"
	"github.com/jbr/draft-irtf-cfrg-vdaf/internal/testrng"
	"github.com/jbr/draft-irtf-cfrg-vdaf/prio3"
)

var sumBits = []int{1, 2, 4, 8, 16, 32, 64}

func sumSizes() (labels []string, proofLens, verifierLens []opts.BarData) {
	for _, bits := range sumBits {
		circ, err := flp.NewSum(bits)
		if err != nil {
			log.Fatalf("sum %d: %v", bits, err)
		}
		fl := flp.FLP{Circ: circ}
		labels = append(labels, fmt.Sprintf("%d", bits))
		proofLens = append(proofLens, opts.BarData{Value: fl.ProofLen()})
		verifierLens = append(verifierLens, opts.BarData{Value: fl.VerifierLen()})
	}
	return
}

func sumTimings(reports int) (labels []string, shard, prep []opts.LineData) {
	for _, bits := range sumBits {
		v, err := prio3.NewSum(2, bits)
		if err != nil {
			log.Fatalf("sum %d: %v", bits, err)
		}
		v.Rand = testrng.Keyed([]byte("analysis"))
		params, err := v.Setup()
		if err != nil {
			log.Fatalf("setup: %v", err)
		}
		nonce := make([]byte, 16)

		var shardTotal, prepTotal time.Duration
		for i := 0; i < reports; i++ {
			start := time.Now()
			shares, err := v.Shard(1)
			shardTotal += time.Since(start)
			if err != nil {
				log.Fatalf("shard: %v", err)
			}
			start = time.Now()
			if _, err := v.PrepInit(params[1], nonce, shares[1]); err != nil {
				log.Fatalf("prep init: %v", err)
			}
			prepTotal += time.Since(start)
		}
		labels = append(labels, fmt.Sprintf("%d", bits))
		shard = append(shard, opts.LineData{Value: shardTotal.Microseconds() / int64(reports)})
		prep = append(prep, opts.LineData{Value: prepTotal.Microseconds() / int64(reports)})
	}
	return
}

func newSizeChart() *charts.Bar {
	labels, proofLens, verifierLens := sumSizes()
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Proof and verifier size",
			Subtitle: "Sum circuit, field elements per measurement bit width",
		}),
		charts.WithInitializationOpts(opts.Initialization{Width: "1200px", Height: "600px"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(labels).
		AddSeries("proof", proofLens).
		AddSeries("verifier", verifierLens)
	return bar
}

func newTimingChart(reports int) *charts.Line {
	labels, shard, prep := sumTimings(reports)
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Client and aggregator cost",
			Subtitle: fmt.Sprintf("Mean microseconds over %d reports, Sum circuit", reports),
		}),
		charts.WithInitializationOpts(opts.Initialization{Width: "1200px", Height: "600px"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	line.SetXAxis(labels).
		AddSeries("shard", shard).
		AddSeries("prep-init", prep)
	return line
}

func main() {
	reports := flag.Int("reports", 50, "reports per configuration")
	outDir := flag.String("out", "Measure_Reports", "output directory for the report")
	flag.Parse()

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatalf("mkdir: %v", err)
	}
	page := components.NewPage()
	page.AddCharts(newSizeChart(), newTimingChart(*reports))

	path := filepath.Join(*outDir, "prio3_report.html")
	f, err := os.Create(path)
	if err != nil {
		log.Fatalf("create: %v", err)
	}
	defer f.Close()
	if err := page.Render(f); err != nil {
		log.Fatalf("render: %v", err)
	}
	log.Printf("[analysis] wrote %s", path)
}
