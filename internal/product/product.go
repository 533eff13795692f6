package product

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/rkm/rcm-geocal/internal/calib"
	"github.com/rkm/rcm-geocal/internal/geom"
	"github.com/rkm/rcm-geocal/internal/scan"
)

// ErrNoCalibration is returned for noise, LUT or incidence angle queries
// on a product loaded without its calibration side files.
var ErrNoCalibration = errors.New("no calibration side files loaded")

// Product is the assembled engine for one RCM product: metadata, geometry
// calculators, segmentation, and calibration tables. It is immutable after
// construction and safe for concurrent use.
type Product struct {
	meta   Metadata
	sensor SensorType

	orbit   *geom.OrbitCalculator
	doppler *geom.DopplerCentroidCalculator
	rates   []DopplerRateEstimate
	slant   *geom.SlantRangeCalculator
	seg     *scan.Segmenter

	noise     map[calib.Kind]*calib.NoiseCalculator
	luts      map[calib.Kind]*calib.LUT
	incidence *IncidenceAngles

	// Azimuth time of the first parsed Doppler centroid estimate, the
	// anchor for the Spotlight centroid drift correction.
	firstDopplerTime time.Time

	platformSpeed float64
}

// New assembles a product from parsed records and optional side-file
// content. side may be nil, in which case calibration queries return
// ErrNoCalibration.
func New(rec *Records, side *SideFiles) (*Product, error) {
	if _, err := rec.Meta.ProductType.traits(); err != nil {
		return nil, err
	}

	p := &Product{
		meta:   rec.Meta,
		sensor: rec.Meta.SensorType(),
		rates:  rec.DopplerRates,
	}

	seg, err := scan.NewSegmenter(scan.Config{
		Beams:     rec.Meta.Beams,
		Width:     rec.Meta.Width,
		Kind:      rec.BurstMapKind,
		Bursts:    rec.Bursts,
		PRF:       rec.Meta.PRF,
		DualPolTx: rec.Meta.DualPolTx,
	})
	if err != nil {
		return nil, fmt.Errorf("build segmenter: %w", err)
	}
	p.seg = seg

	if !rec.Meta.Geocoded() {
		if p.orbit, err = geom.NewOrbitCalculator(rec.StateVectors); err != nil {
			return nil, fmt.Errorf("build orbit calculator: %w", err)
		}
		if p.doppler, err = geom.NewDopplerCentroidCalculator(rec.DopplerCentroids); err != nil {
			return nil, fmt.Errorf("build doppler calculator: %w", err)
		}
		if p.slant, err = geom.NewSlantRangeCalculator(rec.SlantRangeEntries); err != nil {
			return nil, fmt.Errorf("build slant range calculator: %w", err)
		}
		p.firstDopplerTime = rec.DopplerCentroids[0].AzimuthTime

		centre, err := p.TimeAt(rec.Meta.Height / 2)
		if err != nil {
			return nil, err
		}
		p.platformSpeed = r3.Norm(p.orbit.Velocity(centre))
	}

	if side != nil {
		p.luts = side.LUTs
		p.incidence = side.Incidence
		p.noise = make(map[calib.Kind]*calib.NoiseCalculator, len(side.Noise))
		for kind, recs := range side.Noise {
			base := make([]calib.Table, len(recs))
			var scaling [][]calib.AzimuthScaling
			for i, r := range recs {
				base[i] = r.Base
				if r.Scaling != nil {
					if scaling == nil {
						scaling = make([][]calib.AzimuthScaling, len(recs))
					}
					scaling[i] = r.Scaling
				}
			}
			spotlight := p.sensor == SensorSpotlight
			p.noise[kind] = calib.NewNoiseCalculator(base, scaling, spotlight, seg)
		}
	}
	return p, nil
}

// Load reads product.xml and the calibration side files from a product
// directory. Side files are skipped for geocoded products, which have no
// zero-Doppler geometry to calibrate against.
func Load(dir string) (*Product, error) {
	path := dir
	if filepath.Base(path) != "product.xml" {
		path = filepath.Join(dir, "product.xml")
	} else {
		dir = filepath.Dir(path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open product: %w", err)
	}
	defer f.Close()

	rec, err := Parse(f)
	if err != nil {
		return nil, err
	}

	var side *SideFiles
	if !rec.Meta.Geocoded() {
		if side, err = LoadSideFiles(dir, &rec.Meta); err != nil {
			return nil, err
		}
	}
	return New(rec, side)
}

// ID returns the product identifier from product.xml.
func (p *Product) ID() string { return p.meta.ProductID }

// Meta returns the parsed metadata.
func (p *Product) Meta() *Metadata { return &p.meta }

// Sensor returns the acquisition mode family.
func (p *Product) Sensor() SensorType { return p.sensor }

// TimeAt returns the zero-Doppler azimuth time of an image line, linearly
// interpolated between the first and last line times. The delta may be
// negative when the line order is reversed.
func (p *Product) TimeAt(line int) (time.Time, error) {
	if p.meta.Geocoded() {
		return time.Time{}, ErrNotZeroDoppler
	}
	delta := p.meta.ZeroDopplerLast.Sub(p.meta.ZeroDopplerFirst).Seconds()
	offset := float64(line) * delta / float64(p.meta.Height)
	return p.meta.ZeroDopplerFirst.Add(time.Duration(offset * float64(time.Second))), nil
}

// FirstPixelIsNearRange reports whether pixel 0 is the near-range edge.
func (p *Product) FirstPixelIsNearRange() (bool, error) {
	if p.meta.Geocoded() {
		return false, ErrNotZeroDoppler
	}
	return strings.EqualFold(p.meta.PixelTimeOrdering, "increasing"), nil
}

// GroundRange returns the ground range in meters of an image column.
func (p *Product) GroundRange(pixel int) (float64, error) {
	near, err := p.FirstPixelIsNearRange()
	if err != nil {
		return 0, err
	}
	if near {
		return float64(pixel) * p.meta.PixelSpacing, nil
	}
	return float64(p.meta.Width-pixel) * p.meta.PixelSpacing, nil
}

// SlantRange returns the slant range in meters at a pixel/line location.
func (p *Product) SlantRange(pixel, line int) (float64, error) {
	t, err := p.TimeAt(line)
	if err != nil {
		return 0, err
	}
	gr, err := p.GroundRange(pixel)
	if err != nil {
		return 0, err
	}
	return p.slant.SlantRange(gr, t), nil
}

// SlantRangeTime returns the two-way slant range time in seconds at a
// pixel/line location.
func (p *Product) SlantRangeTime(pixel, line int) (float64, error) {
	sr, err := p.SlantRange(pixel, line)
	if err != nil {
		return 0, err
	}
	return 2 * sr / speedOfLight, nil
}

// DopplerCentroid returns the Doppler centroid in Hz at a pixel/line
// location. Spotlight products drift the centroid with azimuth time; the
// Doppler rate polynomial, evaluated at the same slant range time, scales
// the elapsed time since the first centroid estimate into a frequency
// offset.
func (p *Product) DopplerCentroid(pixel, line int) (float64, error) {
	azimuthTime, err := p.TimeAt(line)
	if err != nil {
		return 0, err
	}
	srt, err := p.SlantRangeTime(pixel, line)
	if err != nil {
		return 0, err
	}

	dc := p.doppler.DopplerCentroid(azimuthTime, srt)
	if p.sensor != SensorSpotlight {
		return dc, nil
	}

	est, err := p.dopplerRateAt(pixel, line)
	if err != nil {
		return 0, err
	}
	rate := geom.EvalPolynomial(est.Coefficients, srt-est.ReferenceTime)
	dt := azimuthTime.Sub(p.firstDopplerTime).Seconds()
	return dc - dt*rate, nil
}

// DopplerRate returns the Doppler rate polynomial governing a pixel/line
// location: the global estimate, or the owning burst's for burst-segmented
// products.
func (p *Product) DopplerRate(pixel, line int) (DopplerRateEstimate, error) {
	return p.dopplerRateAt(pixel, line)
}

func (p *Product) dopplerRateAt(pixel, line int) (DopplerRateEstimate, error) {
	if len(p.rates) == 0 {
		return DopplerRateEstimate{}, errors.New("no doppler rate estimates in product")
	}
	if len(p.rates) == 1 {
		return p.rates[0], nil
	}

	burst, err := p.seg.Burst(pixel, line)
	if err != nil {
		return DopplerRateEstimate{}, err
	}
	for _, est := range p.rates {
		if est.Burst == burst {
			return est, nil
		}
	}
	return DopplerRateEstimate{}, fmt.Errorf("no doppler rate estimate for burst %d", burst)
}

// Position returns the interpolated platform position in meters (ECEF).
func (p *Product) Position(t time.Time) (r3.Vec, error) {
	if p.orbit == nil {
		return r3.Vec{}, ErrNotZeroDoppler
	}
	return p.orbit.Position(t), nil
}

// Velocity returns the interpolated platform velocity in m/s (ECEF).
func (p *Product) Velocity(t time.Time) (r3.Vec, error) {
	if p.orbit == nil {
		return r3.Vec{}, ErrNotZeroDoppler
	}
	return p.orbit.Velocity(t), nil
}

// PlatformSpeed returns the platform speed in m/s at scene centre.
func (p *Product) PlatformSpeed() float64 { return p.platformSpeed }

// Beam returns the beam owning an image column.
func (p *Product) Beam(pixel int) string { return p.seg.Beam(pixel) }

// Burst returns the burst number containing a pixel/line location.
func (p *Product) Burst(pixel, line int) (int, error) { return p.seg.Burst(pixel, line) }

// PRF returns the pulse repetition frequency in Hz at an image column.
func (p *Product) PRF(pixel int, perChannel bool) (float64, error) {
	return p.seg.PRF(pixel, perChannel)
}

// NoiseLevel returns the per-band noise floor for a calibration kind at a
// pixel/line location.
func (p *Product) NoiseLevel(kind calib.Kind, pixel, line int) ([]float64, error) {
	n, ok := p.noise[kind]
	if !ok {
		return nil, ErrNoCalibration
	}
	return n.Level(pixel, line), nil
}

// LUT returns the resolved gain/offset lookup table for a calibration
// kind.
func (p *Product) LUT(kind calib.Kind) (*calib.LUT, error) {
	l, ok := p.luts[kind]
	if !ok {
		return nil, ErrNoCalibration
	}
	return l, nil
}

// IncidenceAngle returns the incidence angle in degrees at an image
// column.
func (p *Product) IncidenceAngle(pixel int) (float64, error) {
	if p.incidence == nil {
		return 0, ErrNoCalibration
	}
	return p.incidence.At(pixel), nil
}
