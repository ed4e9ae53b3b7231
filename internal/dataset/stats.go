package dataset

import (
	"math"
	"sort"
)

// Quantile returns the q-th quantile of an ascending slice using linear
// interpolation between the order statistics at position q*(n-1).
// It returns 0 for an empty slice.
func Quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

// Sorted returns an ascending copy of vals.
func Sorted(vals []float64) []float64 {
	cp := make([]float64, len(vals))
	copy(cp, vals)
	sort.Float64s(cp)
	return cp
}

// Median returns the median of vals; the input is not modified.
func Median(vals []float64) float64 {
	return Quantile(Sorted(vals), 0.5)
}

// Quartiles returns Q1 and Q3 of vals.
func Quartiles(vals []float64) (q1, q3 float64) {
	s := Sorted(vals)
	return Quantile(s, 0.25), Quantile(s, 0.75)
}

// Mode returns the most frequent value. Ties go to the value encountered
// first. ok is false when vals is empty.
func Mode(vals []string) (mode string, ok bool) {
	counts := make(map[string]int, len(vals))
	best := 0
	for _, v := range vals {
		counts[v]++
	}
	for _, v := range vals {
		if c := counts[v]; c > best {
			best = c
			mode = v
		}
	}
	return mode, best > 0
}
