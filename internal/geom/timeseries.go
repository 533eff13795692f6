// Package geom derives imaging geometry from sparse, irregularly
// time-stamped metadata samples: platform position and velocity from orbit
// state vectors, Doppler centroid from per-estimate polynomials, and slant
// range from ground-to-slant-range conversion entries.
//
// All calculators share the same interpolation contract: a single sample is
// returned unconditionally, queries outside the sampled time span clamp to
// the nearest boundary sample, and queries inside it interpolate linearly
// between the two bracketing samples. Calculators are fully built at
// construction and immutable afterwards, so they are safe for concurrent
// use.
package geom

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/interp"
)

// SecondsSinceEpoch converts t to a continuous seconds-since-epoch value
// with sub-second precision. Calendar timestamps are never interpolated
// directly; every calculator converts through this representation first.
func SecondsSinceEpoch(t time.Time) float64 {
	return float64(t.Unix()) + float64(t.Nanosecond())/1e9
}

// Series interpolates a scalar quantity sampled at discrete times.
type Series struct {
	times  []float64
	values []float64
	pl     interp.PiecewiseLinear
}

// NewSeries builds a series from parallel time/value slices. Times must be
// strictly increasing; duplicates are rejected rather than deduplicated.
func NewSeries(times, values []float64) (*Series, error) {
	if len(times) == 0 {
		return nil, ErrNoSamples
	}
	if len(times) != len(values) {
		return nil, fmt.Errorf("times and values length mismatch: %d vs %d", len(times), len(values))
	}

	s := &Series{times: times, values: values}
	if len(times) > 1 {
		if err := s.pl.Fit(times, values); err != nil {
			return nil, fmt.Errorf("fitting series: %w", err)
		}
	}
	return s, nil
}

// At returns the series value at time t (seconds since epoch).
//
// The boundary clamp is a normal branch checked before interpolation, not
// an error-recovery path: values outside the sampled span are the nearest
// boundary sample's value.
func (s *Series) At(t float64) float64 {
	if len(s.times) == 1 {
		return s.values[0]
	}
	if t <= s.times[0] {
		return s.values[0]
	}
	if last := len(s.times) - 1; t >= s.times[last] {
		return s.values[last]
	}
	return s.pl.Predict(t)
}

// Bounds returns the first and last sample times.
func (s *Series) Bounds() (first, last float64) {
	return s.times[0], s.times[len(s.times)-1]
}

// VectorSeries interpolates a fixed-length vector quantity component-wise.
type VectorSeries struct {
	dim        int
	components []*Series
}

// NewVectorSeries builds a component-wise series from one vector per sample
// time. All vectors must have the same length; a mismatch is reported as
// ErrCoefficientDim.
func NewVectorSeries(times []float64, vectors [][]float64) (*VectorSeries, error) {
	if len(times) == 0 {
		return nil, ErrNoSamples
	}
	if len(times) != len(vectors) {
		return nil, fmt.Errorf("times and vectors length mismatch: %d vs %d", len(times), len(vectors))
	}

	dim := len(vectors[0])
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("sample %d has %d components, expected %d: %w", i, len(v), dim, ErrCoefficientDim)
		}
	}

	vs := &VectorSeries{dim: dim, components: make([]*Series, dim)}
	for c := 0; c < dim; c++ {
		values := make([]float64, len(times))
		for i := range times {
			values[i] = vectors[i][c]
		}
		series, err := NewSeries(times, values)
		if err != nil {
			return nil, err
		}
		vs.components[c] = series
	}
	return vs, nil
}

// At returns the interpolated vector at time t.
func (vs *VectorSeries) At(t float64) []float64 {
	out := make([]float64, vs.dim)
	for c, s := range vs.components {
		out[c] = s.At(t)
	}
	return out
}

// Dim returns the vector length.
func (vs *VectorSeries) Dim() int { return vs.dim }
