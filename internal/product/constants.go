// Package product loads RADARSAT Constellation Mission (RCM) product
// metadata and assembles the geometry and calibration engine for one
// product: orbit, Doppler centroid and slant range calculators, the
// burst/beam segmenter, noise and gain lookup tables, and the pixel/line
// to time/ground-range plumbing that ties them together.
package product

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// RCM orbit constants. The constellation repeats 179 orbits in 12 days at
// an inclination of 97.74 degrees.
const (
	OrbitInclination    = 97.74
	OrbitRate           = 2 * math.Pi * 179 / (12 * 24 * 60 * 60) // rad/s
	OrbitDurationMinute = 96.4
)

// speedOfLight is the vacuum speed of light in m/s, used to convert slant
// range distance to two-way slant range time.
const speedOfLight = 299792458.0

var (
	// ErrUnknownProductType is returned for product types absent from the
	// recognized SLC/GRD/GRC/GCD/GCC/MLC set.
	ErrUnknownProductType = errors.New("unknown product type")

	// ErrNotZeroDoppler is returned for time or range geometry queries
	// against geocoded products, which are not in zero-Doppler coordinates.
	ErrNotZeroDoppler = errors.New("product is not in zero-Doppler coordinates")
)

// Type is an RCM product type code.
type Type string

const (
	TypeSLC Type = "SLC" // Single-Look Complex
	TypeGRD Type = "GRD" // Ground range georeferenced Detected
	TypeGRC Type = "GRC" // Ground range georeferenced Complex
	TypeGCD Type = "GCD" // GeoCoded Detected
	TypeGCC Type = "GCC" // GeoCoded Complex
	TypeMLC Type = "MLC" // Multi-Look Complex
)

type typeTraits struct {
	zeroDoppler bool
	slantRange  bool
	detected    bool
}

var productTypes = map[Type]typeTraits{
	TypeSLC: {zeroDoppler: true, slantRange: true, detected: false},
	TypeGRD: {zeroDoppler: true, slantRange: false, detected: true},
	TypeGRC: {zeroDoppler: true, slantRange: false, detected: false},
	TypeGCD: {zeroDoppler: false, slantRange: false, detected: true},
	TypeGCC: {zeroDoppler: false, slantRange: false, detected: false},
	TypeMLC: {zeroDoppler: true, slantRange: true, detected: false},
}

func (t Type) traits() (typeTraits, error) {
	tr, ok := productTypes[t]
	if !ok {
		return typeTraits{}, fmt.Errorf("%w: %q", ErrUnknownProductType, string(t))
	}
	return tr, nil
}

// ZeroDoppler reports whether the product grid is in zero-Doppler
// coordinates (range along pixels, azimuth along lines).
func (t Type) ZeroDoppler() (bool, error) {
	tr, err := t.traits()
	return tr.zeroDoppler, err
}

// SlantRange reports whether the pixel spacing is in slant range.
func (t Type) SlantRange() (bool, error) {
	tr, err := t.traits()
	return tr.slantRange, err
}

// Detected reports whether the samples are detected (non-complex).
func (t Type) Detected() (bool, error) {
	tr, err := t.traits()
	return tr.detected, err
}

// SensorType is the acquisition mode family a beam mode belongs to.
type SensorType string

const (
	SensorStripmap  SensorType = "Stripmap"
	SensorScanSAR   SensorType = "ScanSAR"
	SensorSpotlight SensorType = "Spotlight"
)

// SensorTypeFor classifies a beam mode mnemonic. ScanSAR mnemonics contain
// "SC" (but "RGSC" is a stripmap ridge mode); Spotlight mnemonics start
// with "FS".
func SensorTypeFor(mnemonic string) SensorType {
	if strings.HasPrefix(mnemonic, "FS") {
		return SensorSpotlight
	}
	if strings.Contains(mnemonic, "SC") && !strings.Contains(mnemonic, "RGSC") {
		return SensorScanSAR
	}
	return SensorStripmap
}

// BeamModeParams holds the nominal resolution and number-of-looks strings
// for one RCM beam mode, from the RCM product description (RCM-SP-52-9092).
// DualHHVVLooks is set only for the modes where dual HH-VV acquisitions use
// a different look count.
type BeamModeParams struct {
	Resolution    string
	Looks         string
	DualHHVVLooks string
}

var beamModes = map[string]BeamModeParams{
	"Ship Detection":                  {Resolution: "variable", Looks: "5 x 1"},
	"Low Noise":                       {Resolution: "100 x 100", Looks: "4 x 2"},
	"Low Resolution 100m":             {Resolution: "100 x 100", Looks: "8 x 1"},
	"Medium Resolution 50m":           {Resolution: "50 x 50", Looks: "4 x 1"},
	"Medium Resolution 50m High PRF":  {Resolution: "50 x 50", Looks: "4 x 1"},
	"Medium Resolution 30m":           {Resolution: "30 x 30", Looks: "2 x 2", DualHHVVLooks: "2 x 1"},
	"Medium Resolution 16m":           {Resolution: "16 x 16", Looks: "1 x 4", DualHHVVLooks: "1 x 2"},
	"High Resolution 5m":              {Resolution: "5 x 5", Looks: "1 x 1"},
	"Very High Resolution 3m":         {Resolution: "3 x 3", Looks: "1 x 1"},
	"Quad-Polarization":               {Resolution: "9 x 9", Looks: "1 x 1"},
	"Spotlight":                       {Resolution: "3 x 1", Looks: "1 x 1"},
}

// BeamModeParamsFor returns the static parameters for a beam mode name.
func BeamModeParamsFor(mode string) (BeamModeParams, bool) {
	p, ok := beamModes[mode]
	return p, ok
}
