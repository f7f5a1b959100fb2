// services/integration-svc/internal/engine/seed.go
package engine

import (
	"encoding/binary"
	"hash/fnv"
	"time"

	"golang.org/x/exp/rand"
)

// FoldSeed сворачивает последовательность слов в 64-битный seed (FNV-1a по little-endian словам)
func FoldSeed(seq ...uint32) uint64 {
	h := fnv.New64a()
	var buf [4]byte
	for _, w := range seq {
		binary.LittleEndian.PutUint32(buf[:], w)
		_, _ = h.Write(buf[:])
	}
	return h.Sum64()
}

// newRand генератор оценщика; пустая последовательность - seed от времени
func newRand(seq []uint32) *rand.Rand {
	if len(seq) == 0 {
		return rand.New(rand.NewSource(uint64(time.Now().UnixNano())))
	}
	return rand.New(rand.NewSource(FoldSeed(seq...)))
}
