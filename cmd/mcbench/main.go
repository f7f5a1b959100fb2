// Package main mcbench: локальный прогон оценщиков и вызовы integration-svc.
//
//	mcbench compare                       # benchmark, seed 24,512,42, N=100000, 30 точек
//	mcbench run --integrand sin --method importance --policy max_width --width 0.01
//	mcbench report --format pdf --out bench.pdf
//	mcbench remote integrate --address http://localhost:8080 --integrand exp
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
