package piecewise

import (
	"math"
	"sort"
)

// Source источник равномерных чисел из [0, 1)
type Source interface {
	Float64() float64
}

// Sampler выборка X с плотностью f(x)/A обратным преобразованием
type Sampler struct {
	fn     *Function
	prefix []float64 // prefix[k] = A_0 + ... + A_{k-1}
}

// NewSampler проверяет, что f - допустимая плотность, и строит префиксные суммы площадей
func NewSampler(f *Function) (*Sampler, error) {
	if err := f.ValidateDensity(); err != nil {
		return nil, err
	}

	prefix := make([]float64, len(f.pieces)+1)
	for k, p := range f.pieces {
		prefix[k+1] = prefix[k] + p.Area
	}

	return &Sampler{fn: f, prefix: prefix}, nil
}

// Function плотность сэмплера
func (s *Sampler) Function() *Function {
	return s.fn
}

// Sample переводит u ∈ [0, 1) в точку x области определения
func (s *Sampler) Sample(u float64) float64 {
	total := s.prefix[len(s.prefix)-1]
	target := u * total

	// первый отрезок, накопленная площадь которого превышает target
	k := sort.Search(len(s.fn.pieces), func(i int) bool { return s.prefix[i+1] > target })
	if k == len(s.fn.pieces) {
		k = len(s.fn.pieces) - 1
	}

	p := s.fn.pieces[k]
	return p.X0 + invertPiece(p, target-s.prefix[k])
}

// Draw x из плотности по источнику src
func (s *Sampler) Draw(src Source) float64 {
	return s.Sample(src.Float64())
}

// invertPiece решает y0·t + (y1-y0)·t²/(2w) = r относительно t ∈ [0, w]
func invertPiece(p Piece, r float64) float64 {
	w := p.Width()
	if r <= 0 {
		return 0
	}

	slope := (p.Y1 - p.Y0) / w
	var t float64
	if p.Y0 == p.Y1 {
		t = r / p.Y0
	} else {
		// 2r / (y0 + sqrt(y0² + 2·slope·r)) без вычитания близких чисел
		disc := math.Max(0, p.Y0*p.Y0+2*slope*r)
		denom := p.Y0 + math.Sqrt(disc)
		if denom <= 0 {
			t = w
		} else {
			t = 2 * r / denom
		}
	}

	return math.Min(math.Max(t, 0), w)
}
