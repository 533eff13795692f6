package calib

import (
	"math"

	"github.com/rkm/rcm-geocal/internal/scan"
)

// AzimuthScaling is one azimuth noise-level scaling record from a noise
// side file: a scaling curve for one beam, stepped in lines. FirstLine is
// present only for Spotlight products, where the curve is anchored at an
// absolute line number.
type AzimuthScaling struct {
	Beam      string
	Step      float64
	Values    []float64
	FirstLine *int
}

// NoiseCalculator produces the per-band noise floor at a pixel/line
// location: a base range-direction lookup, plus an azimuth scaling
// contribution for burst-segmented and Spotlight products.
type NoiseCalculator struct {
	base      []Table
	scaling   [][]AzimuthScaling
	spotlight bool
	seg       *scan.Segmenter
}

// NewNoiseCalculator builds a calculator from per-band base tables and
// optional per-band azimuth scaling records. scaling is nil for products
// without azimuth noise scaling; seg may be nil only when scaling is nil
// or spotlight is true.
func NewNoiseCalculator(base []Table, scaling [][]AzimuthScaling, spotlight bool, seg *scan.Segmenter) *NoiseCalculator {
	return &NoiseCalculator{base: base, scaling: scaling, spotlight: spotlight, seg: seg}
}

// Bands returns the number of bands.
func (n *NoiseCalculator) Bands() int { return len(n.base) }

// Level returns the interpolated noise level per band at (pixel, line).
// Lines outside a beam's burst span contribute zero azimuth scaling; that
// is the designed default, not an error.
func (n *NoiseCalculator) Level(pixel, line int) []float64 {
	noise := make([]float64, len(n.base))
	for band, table := range n.base {
		noise[band] = table.At(float64(pixel))
	}

	if n.scaling == nil {
		return noise
	}

	if n.spotlight {
		// Spotlight has one scaling curve per band, anchored at an
		// absolute line number. Note the step is used as stored here,
		// unlike the burst branch below.
		for band := range noise {
			if band >= len(n.scaling) || len(n.scaling[band]) == 0 {
				continue
			}
			sc := n.scaling[band][0]
			first := 0.0
			if sc.FirstLine != nil {
				first = float64(*sc.FirstLine)
			}
			noise[band] += NewTable(first, sc.Step, sc.Values).At(float64(line))
		}
		return noise
	}

	// ScanSAR / High Resolution: one curve per band per beam, defined
	// relative to the burst centre line and repeating per burst.
	beam := n.seg.Beam(pixel)
	ext, ok := n.seg.Extent(beam)
	if !ok {
		return noise
	}

	for band := range noise {
		if band >= len(n.scaling) {
			break
		}
		for _, sc := range n.scaling[band] {
			if line < ext.TopLeftLine || line > ext.BottomRightLine {
				// Out of burst range: zero contribution.
				break
			}
			if sc.Beam != beam {
				continue
			}

			step := math.Abs(sc.Step)
			h := ext.MeanBurstHeight
			if h == 0 {
				break
			}

			// The trough of the scaling curve sits at the burst centre
			// line; the curve's index runs symmetric about zero.
			lineIdx := math.Mod(float64(line-ext.TopLeftLine), h) - h/2
			first := -float64(len(sc.Values)-1) * step / 2
			noise[band] += NewTable(first, step, sc.Values).At(lineIdx)
			break
		}
	}
	return noise
}
