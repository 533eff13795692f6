package geom

import "errors"

var (
	// ErrNoSamples is returned when a calculator is constructed with an
	// empty sample set.
	ErrNoSamples = errors.New("no samples provided")

	// ErrCoefficientDim is returned when coefficient vectors differ in
	// length across samples.
	ErrCoefficientDim = errors.New("inconsistent coefficient vector length")
)
