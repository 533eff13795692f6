package geom

import (
	"sort"
	"time"
)

// DopplerCentroidEstimate is one metadata sample: a reference slant-range
// time (s) and polynomial coefficients, valid at a given azimuth time.
type DopplerCentroidEstimate struct {
	AzimuthTime             time.Time
	SlantRangeReferenceTime float64
	Coefficients            []float64
}

// DopplerCentroidCalculator evaluates the Doppler centroid at an azimuth
// time and two-way slant range time by interpolating the estimate
// parameters in azimuth time and then evaluating the polynomial in the
// slant-range-time delta.
type DopplerCentroidCalculator struct {
	estimates []DopplerCentroidEstimate

	// nil when only a single estimate exists: interpolation is skipped
	// entirely in that case, not merely clamped.
	refTime *Series
	coeffs  *VectorSeries
}

// NewDopplerCentroidCalculator sorts the estimates by azimuth time and,
// when more than one exists, builds one interpolator per coefficient index
// plus one for the reference time.
func NewDopplerCentroidCalculator(estimates []DopplerCentroidEstimate) (*DopplerCentroidCalculator, error) {
	if len(estimates) == 0 {
		return nil, ErrNoSamples
	}

	sorted := make([]DopplerCentroidEstimate, len(estimates))
	copy(sorted, estimates)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].AzimuthTime.Before(sorted[j].AzimuthTime)
	})

	c := &DopplerCentroidCalculator{estimates: sorted}
	if len(sorted) == 1 {
		return c, nil
	}

	times := make([]float64, len(sorted))
	refTimes := make([]float64, len(sorted))
	coeffs := make([][]float64, len(sorted))
	for i, e := range sorted {
		times[i] = SecondsSinceEpoch(e.AzimuthTime)
		refTimes[i] = e.SlantRangeReferenceTime
		coeffs[i] = e.Coefficients
	}

	var err error
	if c.refTime, err = NewSeries(times, refTimes); err != nil {
		return nil, err
	}
	if c.coeffs, err = NewVectorSeries(times, coeffs); err != nil {
		return nil, err
	}
	return c, nil
}

// DopplerCentroid returns the Doppler centroid in Hz for the given azimuth
// time and two-way slant range time (s).
func (c *DopplerCentroidCalculator) DopplerCentroid(azimuthTime time.Time, slantRangeTime float64) float64 {
	e := c.EstimateAt(azimuthTime)
	return EvalPolynomial(e.Coefficients, slantRangeTime-e.SlantRangeReferenceTime)
}

// EstimateAt resolves the effective estimate for an azimuth time: the sole
// estimate when only one exists, the boundary estimate for out-of-range
// queries, or an interpolated estimate otherwise.
func (c *DopplerCentroidCalculator) EstimateAt(azimuthTime time.Time) DopplerCentroidEstimate {
	if len(c.estimates) == 1 {
		return c.estimates[0]
	}

	ts := SecondsSinceEpoch(azimuthTime)
	first, last := c.refTime.Bounds()
	if ts <= first {
		return c.estimates[0]
	}
	if ts >= last {
		return c.estimates[len(c.estimates)-1]
	}

	return DopplerCentroidEstimate{
		AzimuthTime:             azimuthTime,
		SlantRangeReferenceTime: c.refTime.At(ts),
		Coefficients:            c.coeffs.At(ts),
	}
}

// Estimates returns the time-sorted samples the calculator was built from.
func (c *DopplerCentroidCalculator) Estimates() []DopplerCentroidEstimate { return c.estimates }
