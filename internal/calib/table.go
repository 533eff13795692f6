// Package calib applies radiometric calibration: noise-floor lookup with
// optional per-beam azimuth scaling, and gain/offset lookup tables turning
// raw digital numbers into calibrated backscatter. All arithmetic is
// float64/complex128 regardless of the input sample width.
package calib

// Table is a uniformly-stepped 1-D sampled function queried at arbitrary
// fractional positions. A query q maps to index (q - FirstIndex) / Step,
// interpolated linearly between neighbours and clamped at the ends.
type Table struct {
	FirstIndex float64
	Step       float64
	Values     []float64
}

// NewTable normalizes a raw table. A negative step means the stored values
// are reverse-ordered: they are reversed here and the first index moved to
// the other end, so that queries behave identically to the raw mapping.
func NewTable(firstIndex, step float64, values []float64) Table {
	if step < 0 && len(values) > 1 {
		reversed := make([]float64, len(values))
		for i, v := range values {
			reversed[len(values)-1-i] = v
		}
		return Table{
			FirstIndex: firstIndex + step*float64(len(values)-1),
			Step:       -step,
			Values:     reversed,
		}
	}
	return Table{FirstIndex: firstIndex, Step: step, Values: values}
}

// At returns the interpolated value at query position q.
func (t Table) At(q float64) float64 {
	n := len(t.Values)
	switch n {
	case 0:
		return 0
	case 1:
		return t.Values[0]
	}

	idx := (q - t.FirstIndex) / t.Step
	if idx <= 0 {
		return t.Values[0]
	}
	if idx >= float64(n-1) {
		return t.Values[n-1]
	}

	i := int(idx)
	frac := idx - float64(i)
	return t.Values[i] + frac*(t.Values[i+1]-t.Values[i])
}

// Len returns the number of stored values.
func (t Table) Len() int { return len(t.Values) }
