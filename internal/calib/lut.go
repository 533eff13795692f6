package calib

import "fmt"

// LUTBand is the raw per-band gain/offset table as read from a calibration
// side file.
type LUTBand struct {
	Offset     float64
	FirstIndex float64
	Step       float64
	Gains      []float64
}

// LUT holds per-band gains resolved to one value per image column, plus the
// per-band offsets. Resolution happens once at construction: a table with
// unit step covering the full width is used as-is (reversed first for step
// -1); anything else is resampled to the image width.
type LUT struct {
	width   int
	offsets []float64
	gains   [][]float64
}

// NewLUT resolves the raw band tables against the image width.
func NewLUT(width int, bands []LUTBand) (*LUT, error) {
	if width <= 0 {
		return nil, fmt.Errorf("invalid image width %d", width)
	}
	if len(bands) == 0 {
		return nil, fmt.Errorf("no LUT bands provided")
	}

	l := &LUT{
		width:   width,
		offsets: make([]float64, len(bands)),
		gains:   make([][]float64, len(bands)),
	}
	for i, b := range bands {
		l.offsets[i] = b.Offset
		table := NewTable(b.FirstIndex, b.Step, b.Gains)

		if (b.Step == 1 || b.Step == -1) && len(b.Gains) == width {
			// One value per column already; the normalized table holds
			// the reversed sequence for step -1.
			l.gains[i] = table.Values
			continue
		}

		resampled := make([]float64, width)
		for p := 0; p < width; p++ {
			resampled[p] = table.At(float64(p))
		}
		l.gains[i] = resampled
	}
	return l, nil
}

// Bands returns the number of bands.
func (l *LUT) Bands() int { return len(l.gains) }

// Offset returns the calibration offset for a band (0-based).
func (l *LUT) Offset(band int) float64 { return l.offsets[band] }

// GainAt returns the resolved gain for a band at an image column.
func (l *LUT) GainAt(band, pixel int) float64 {
	if pixel < 0 {
		pixel = 0
	}
	if pixel > l.width-1 {
		pixel = l.width - 1
	}
	return l.gains[band][pixel]
}

// gainSegment copies the per-column gains for [startPixel, startPixel+n).
// Callers square or otherwise modify the result, so the stored table is
// never handed out directly.
func (l *LUT) gainSegment(band, startPixel, n int) ([]float64, error) {
	if band < 0 || band >= len(l.gains) {
		return nil, fmt.Errorf("band %d out of range [0,%d)", band, len(l.gains))
	}
	if startPixel < 0 || startPixel+n > l.width {
		return nil, fmt.Errorf("pixel range [%d,%d) outside image width %d", startPixel, startPixel+n, l.width)
	}
	seg := make([]float64, n)
	copy(seg, l.gains[band][startPixel:startPixel+n])
	return seg, nil
}
