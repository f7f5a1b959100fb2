package engine

import (
	"testing"

	"montecarlo/pkg/api"
)

// =============================================================================
// Benchmarks: benchmark integrand on [0,15], 30 точек, seed 24,512,42
// =============================================================================

func benchmarkMethod(b *testing.B, method api.Method, n uint64) {
	d, err := Build(benchmark, Params{Method: method, Lower: 0, Upper: 15, Points: 30, PilotSize: 1000})
	if err != nil {
		b.Fatal(err)
	}
	e := New(d, WithSeed(testSeed...))

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := e.SampleWithSize(n); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkUniform_100k(b *testing.B) {
	benchmarkMethod(b, api.MethodUniform, 100_000)
}

func BenchmarkImportance_100k(b *testing.B) {
	benchmarkMethod(b, api.MethodImportance, 100_000)
}

func BenchmarkControlVariable_100k(b *testing.B) {
	benchmarkMethod(b, api.MethodControlVariable, 100_000)
}

func BenchmarkBuild(b *testing.B) {
	for _, method := range api.Methods {
		b.Run(string(method), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				if _, err := Build(benchmark, Params{Method: method, Lower: 0, Upper: 15, Points: 30, PilotSize: 1000}); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkFoldSeed(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = FoldSeed(testSeed...)
	}
}
