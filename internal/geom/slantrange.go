package geom

import (
	"sort"
	"time"
)

// GroundToSlantRangeEntry is one metadata sample describing the ground
// range to slant range conversion valid at a given zero-Doppler azimuth
// time.
type GroundToSlantRangeEntry struct {
	Time                  time.Time
	FirstSampleSlantRange float64
	GroundRangeOrigin     float64
	Coefficients          []float64
}

// SlantRangeCalculator converts ground range to slant range by
// interpolating the conversion entries in time and evaluating the
// polynomial in the ground-range delta.
type SlantRangeCalculator struct {
	entries []GroundToSlantRangeEntry

	firstSample *Series
	origin      *Series
	coeffs      *VectorSeries
}

// NewSlantRangeCalculator sorts the entries by time and builds the
// parameter interpolators when more than one entry exists.
func NewSlantRangeCalculator(entries []GroundToSlantRangeEntry) (*SlantRangeCalculator, error) {
	if len(entries) == 0 {
		return nil, ErrNoSamples
	}

	sorted := make([]GroundToSlantRangeEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Time.Before(sorted[j].Time)
	})

	c := &SlantRangeCalculator{entries: sorted}
	if len(sorted) == 1 {
		return c, nil
	}

	times := make([]float64, len(sorted))
	firstSamples := make([]float64, len(sorted))
	origins := make([]float64, len(sorted))
	coeffs := make([][]float64, len(sorted))
	for i, e := range sorted {
		times[i] = SecondsSinceEpoch(e.Time)
		firstSamples[i] = e.FirstSampleSlantRange
		origins[i] = e.GroundRangeOrigin
		coeffs[i] = e.Coefficients
	}

	var err error
	if c.firstSample, err = NewSeries(times, firstSamples); err != nil {
		return nil, err
	}
	if c.origin, err = NewSeries(times, origins); err != nil {
		return nil, err
	}
	if c.coeffs, err = NewVectorSeries(times, coeffs); err != nil {
		return nil, err
	}
	return c, nil
}

// SlantRange returns the slant range in metres for a ground range (m) at
// the given time.
func (c *SlantRangeCalculator) SlantRange(groundRange float64, t time.Time) float64 {
	e := c.EntryAt(t)
	return EvalPolynomial(e.Coefficients, groundRange-e.GroundRangeOrigin)
}

// EntryAt resolves the effective conversion entry at t: the sole entry
// when only one exists, the boundary entry for out-of-range queries, or an
// interpolated entry otherwise. FirstSampleSlantRange is interpolated
// along with the rest even though SlantRange does not use it.
func (c *SlantRangeCalculator) EntryAt(t time.Time) GroundToSlantRangeEntry {
	if len(c.entries) == 1 {
		return c.entries[0]
	}

	ts := SecondsSinceEpoch(t)
	first, last := c.origin.Bounds()
	if ts <= first {
		return c.entries[0]
	}
	if ts >= last {
		return c.entries[len(c.entries)-1]
	}

	return GroundToSlantRangeEntry{
		Time:                  t,
		FirstSampleSlantRange: c.firstSample.At(ts),
		GroundRangeOrigin:     c.origin.At(ts),
		Coefficients:          c.coeffs.At(ts),
	}
}

// Entries returns the time-sorted samples the calculator was built from.
func (c *SlantRangeCalculator) Entries() []GroundToSlantRangeEntry { return c.entries }
