package calib

import (
	"fmt"
	"math/cmplx"
)

// Detected calibrates detected (non-complex) samples for one band:
// (DN^2 + offset) / gain. dn holds one row starting at startPixel.
func (l *LUT) Detected(dn []float64, band, startPixel int) ([]float64, error) {
	gains, err := l.gainSegment(band, startPixel, len(dn))
	if err != nil {
		return nil, err
	}
	offset := l.offsets[band]

	out := make([]float64, len(dn))
	for i, v := range dn {
		out[i] = (v*v + offset) / gains[i]
	}
	return out, nil
}

// Power calibrates complex samples to real backscatter power:
// |DN|^2 / gain^2. This is the default output kind for complex input.
func (l *LUT) Power(dn []complex128, band, startPixel int) ([]float64, error) {
	gains, err := l.gainSegment(band, startPixel, len(dn))
	if err != nil {
		return nil, err
	}

	out := make([]float64, len(dn))
	for i, v := range dn {
		m := cmplx.Abs(v)
		out[i] = m * m / (gains[i] * gains[i])
	}
	return out, nil
}

// ComplexScatter calibrates complex samples preserving phase: DN / gain.
func (l *LUT) ComplexScatter(dn []complex128, band, startPixel int) ([]complex128, error) {
	gains, err := l.gainSegment(band, startPixel, len(dn))
	if err != nil {
		return nil, err
	}

	out := make([]complex128, len(dn))
	for i, v := range dn {
		out[i] = v / complex(gains[i], 0)
	}
	return out, nil
}

// ComplexSigma calibrates complex samples to phase-preserving power:
// DN^2 / gain^2.
func (l *LUT) ComplexSigma(dn []complex128, band, startPixel int) ([]complex128, error) {
	gains, err := l.gainSegment(band, startPixel, len(dn))
	if err != nil {
		return nil, err
	}

	out := make([]complex128, len(dn))
	for i, v := range dn {
		g := complex(gains[i]*gains[i], 0)
		out[i] = v * v / g
	}
	return out, nil
}

// Kind selects a calibration output convention.
type Kind string

const (
	KindBeta  Kind = "beta"
	KindSigma Kind = "sigma"
	KindGamma Kind = "gamma"
)

// ParseKind validates a calibration kind string.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindBeta, KindSigma, KindGamma:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("unknown calibration kind %q", s)
	}
}
