// Package scan partitions image pixel/line space into beams and bursts for
// burst-segmented acquisition modes (ScanSAR, High Resolution) and selects
// per-beam parameters such as the pulse repetition frequency. Strip-map
// products carry a single beam and no burst map; the segmenter degrades to
// trivial lookups for those.
package scan

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrNoBurstCoverage is returned when a point falls outside every burst
// record while burst segmentation is active, or when the product carries no
// burst map at all.
var ErrNoBurstCoverage = errors.New("no burst covers the given point")

// BurstMapKind identifies which burst-map schema the product carried. The
// kind is fixed at construction; per-query schema inspection is never
// needed because SLC offset/size records are normalized to corner form
// when parsed.
type BurstMapKind int

const (
	BurstMapNone BurstMapKind = iota
	BurstMapSLC
	BurstMapGRD
	BurstMapMLC
)

// String returns the schema name.
func (k BurstMapKind) String() string {
	switch k {
	case BurstMapSLC:
		return "slc"
	case BurstMapGRD:
		return "grd"
	case BurstMapMLC:
		return "mlc"
	default:
		return "none"
	}
}

// Burst is one discrete dwell of a beam covering a rectangular pixel/line
// extent, in corner form.
type Burst struct {
	Beam             string
	Number           int
	TopLeftPixel     int
	TopLeftLine      int
	BottomRightPixel int
	BottomRightLine  int
}

// Contains reports whether the burst's rectangular extent covers the given
// point. The sign-of-product test holds regardless of which corner is
// numerically smaller.
func (b Burst) Contains(pixel, line int) bool {
	return (pixel-b.BottomRightPixel)*(pixel-b.TopLeftPixel) <= 0 &&
		(line-b.BottomRightLine)*(line-b.TopLeftLine) <= 0
}

// BeamExtent is the accumulated extent of one beam across its burst
// records: the corners of the topmost and bottommost bursts observed, the
// mean burst height in lines, and the burst count.
type BeamExtent struct {
	Name             string
	TopLeftPixel     int
	TopLeftLine      int
	BottomRightPixel int
	BottomRightLine  int
	MeanBurstHeight  float64
	BurstCount       int
}

type beamBoundary struct {
	beam      string
	leftPixel int
}

// Config carries the parsed inputs a Segmenter is built from.
type Config struct {
	// Beams in product order (order of increasing incidence angle).
	Beams []string
	// Width is the image width in pixels; queries are clamped to it.
	Width int
	// Kind and Bursts come from the product's burst map; both empty for
	// strip-map products.
	Kind   BurstMapKind
	Bursts []Burst
	// PRF is the raw per-beam pulse repetition frequency in Hz.
	PRF map[string]float64
	// DualPolTx is true when two polarizations are transmitted
	// alternately, halving the effective per-channel PRF.
	DualPolTx bool
}

// Segmenter resolves beam identity, burst index and PRF for pixel/line
// coordinates. It is immutable after construction.
type Segmenter struct {
	beams      []string
	width      int
	kind       BurstMapKind
	bursts     []Burst
	extents    map[string]BeamExtent
	boundaries []beamBoundary
	prf        map[string]float64
	dualPolTx  bool
}

// NewSegmenter accumulates beam extents from the burst records and builds
// the sorted left-boundary table used for beam resolution.
func NewSegmenter(cfg Config) (*Segmenter, error) {
	if len(cfg.Beams) == 0 {
		return nil, errors.New("at least one beam is required")
	}
	if cfg.Width <= 0 {
		return nil, fmt.Errorf("invalid image width %d", cfg.Width)
	}

	s := &Segmenter{
		beams:     cfg.Beams,
		width:     cfg.Width,
		kind:      cfg.Kind,
		bursts:    cfg.Bursts,
		prf:       cfg.PRF,
		dualPolTx: cfg.DualPolTx,
	}

	s.extents = accumulateExtents(cfg.Beams, cfg.Bursts)

	if len(cfg.Beams) > 1 {
		s.boundaries = buildBoundaries(cfg.Beams, s.extents)
	}
	return s, nil
}

// accumulateExtents scans the burst records once per product, tracking for
// each beam the corner of the topmost and bottommost bursts seen, the
// running height sum and the burst count.
func accumulateExtents(beams []string, bursts []Burst) map[string]BeamExtent {
	extents := make(map[string]BeamExtent, len(beams))
	heights := make(map[string]int, len(beams))
	for _, name := range beams {
		extents[name] = BeamExtent{
			Name:             name,
			TopLeftPixel:     -1,
			TopLeftLine:      math.MaxInt32,
			BottomRightPixel: -1,
			BottomRightLine:  -1,
		}
	}

	for _, b := range bursts {
		ext, ok := extents[b.Beam]
		if !ok {
			continue
		}
		ext.BurstCount++
		heights[b.Beam] += abs(b.TopLeftLine - b.BottomRightLine)

		if b.TopLeftLine < ext.TopLeftLine {
			ext.TopLeftLine = b.TopLeftLine
			ext.TopLeftPixel = b.TopLeftPixel
		}
		if b.BottomRightLine > ext.BottomRightLine {
			ext.BottomRightLine = b.BottomRightLine
			ext.BottomRightPixel = b.BottomRightPixel
		}
		extents[b.Beam] = ext
	}

	for name, ext := range extents {
		if ext.BurstCount > 0 {
			ext.MeanBurstHeight = float64(heights[name]) / float64(ext.BurstCount)
			extents[name] = ext
		}
	}
	return extents
}

// buildBoundaries sorts the beams left to right by the leftmost top pixel
// observed for each. Descending-pass products list the beams in reverse
// scan order, detected by comparing the first two boundaries; the leftmost
// boundary is always normalized to pixel 0.
func buildBoundaries(beams []string, extents map[string]BeamExtent) []beamBoundary {
	boundaries := make([]beamBoundary, 0, len(beams))
	for _, name := range beams {
		boundaries = append(boundaries, beamBoundary{
			beam:      name,
			leftPixel: extents[name].TopLeftPixel,
		})
	}

	if boundaries[0].leftPixel > boundaries[1].leftPixel {
		for i, j := 0, len(boundaries)-1; i < j; i, j = i+1, j-1 {
			boundaries[i], boundaries[j] = boundaries[j], boundaries[i]
		}
	}
	boundaries[0].leftPixel = 0
	return boundaries
}

// Beam returns the beam owning the given pixel. The pixel is clamped to
// [0, width-1]; single-beam products return the sole beam unconditionally.
func (s *Segmenter) Beam(pixel int) string {
	if pixel < 0 {
		pixel = 0
	}
	if pixel > s.width-1 {
		pixel = s.width - 1
	}

	if len(s.beams) == 1 {
		return s.beams[0]
	}

	// Greatest boundary whose left edge is <= pixel.
	idx := sort.Search(len(s.boundaries), func(i int) bool {
		return s.boundaries[i].leftPixel > pixel
	}) - 1
	return s.boundaries[idx].beam
}

// Burst returns the number of the first burst record whose extent contains
// the given point. ErrNoBurstCoverage is returned when the point is outside
// every record or the product has no burst map.
func (s *Segmenter) Burst(pixel, line int) (int, error) {
	if s.kind == BurstMapNone || len(s.bursts) == 0 {
		return 0, ErrNoBurstCoverage
	}
	for _, b := range s.bursts {
		if b.Contains(pixel, line) {
			return b.Number, nil
		}
	}
	return 0, ErrNoBurstCoverage
}

// PRF returns the pulse repetition frequency in Hz at the given location.
// When perChannel is true and the product transmits two alternating
// polarizations, the per-channel PRF is half the system PRF.
func (s *Segmenter) PRF(pixel int, perChannel bool) (float64, error) {
	beam := s.Beam(pixel)
	prf, ok := s.prf[beam]
	if !ok {
		return 0, fmt.Errorf("no PRF recorded for beam %q", beam)
	}
	if perChannel && s.dualPolTx {
		prf /= 2
	}
	return prf, nil
}

// Extent returns the accumulated extent for a beam.
func (s *Segmenter) Extent(beam string) (BeamExtent, bool) {
	ext, ok := s.extents[beam]
	return ext, ok
}

// Kind returns the product's burst-map schema.
func (s *Segmenter) Kind() BurstMapKind { return s.kind }

// Segmented reports whether the product carries a burst map.
func (s *Segmenter) Segmented() bool { return s.kind != BurstMapNone }

// Beams returns the beam names in product order.
func (s *Segmenter) Beams() []string { return s.beams }

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
