package product

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/rkm/rcm-geocal/internal/geom"
	"github.com/rkm/rcm-geocal/internal/scan"
)

// Metadata is the plain-record view of a product.xml: everything needed to
// identify the product and drive the geometry engine, without any derived
// state.
type Metadata struct {
	ProductID          string
	DownlinkSegmentID  string
	Satellite          string
	BeamMode           string
	BeamModeMnemonic   string
	AcquisitionType    string
	SampleType         string
	ProductType        Type
	PassDirection      string
	LookDirection      string
	Polarizations      []string
	DualPolTx          bool
	CompactPol         bool
	Width              int
	Height             int
	PixelSpacing       float64
	LineSpacing        float64
	LineTimeOrdering   string
	PixelTimeOrdering  string
	IncAngleNear       float64
	IncAngleFar        float64
	RadarCenterFreq    float64
	GeodeticHeight     float64
	SatelliteHeight    float64
	OrbitDataSource    string
	RawDataStart       time.Time
	ZeroDopplerFirst   time.Time
	ZeroDopplerLast    time.Time
	Beams              []string
	PRF                map[string]float64
	RangeLooks         int
	AzimuthLooks       int
	BitsPerSample      int
	TiePoints          []TiePoint
}

// TiePoint is one geolocation grid entry tying an image coordinate to a
// geodetic position.
type TiePoint struct {
	Line      float64
	Pixel     float64
	Latitude  float64
	Longitude float64
	Height    float64
}

// Wavelength returns the radar wavelength in meters.
func (m *Metadata) Wavelength() float64 {
	if m.RadarCenterFreq == 0 {
		return 0
	}
	return speedOfLight / m.RadarCenterFreq
}

// Geocoded reports whether the product is geocoded (not in zero-Doppler
// coordinates). Unknown product types count as geocoded so that time
// queries fail loudly rather than interpolate garbage.
func (m *Metadata) Geocoded() bool {
	zd, err := m.ProductType.ZeroDoppler()
	return err != nil || !zd
}

// SensorType classifies the acquisition mode from the beam mode mnemonic.
func (m *Metadata) SensorType() SensorType {
	return SensorTypeFor(m.BeamModeMnemonic)
}

// DopplerRateEstimate is one Doppler rate polynomial, global (Burst == 0)
// or tied to a burst for burst-segmented products.
type DopplerRateEstimate struct {
	Burst         int
	ReferenceTime float64
	Coefficients  []float64
}

// Records is the full parse result of one product.xml: the metadata plus
// the sample collections the calculators are built from.
type Records struct {
	Meta              Metadata
	StateVectors      []geom.StateVector
	DopplerCentroids  []geom.DopplerCentroidEstimate
	DopplerRates      []DopplerRateEstimate
	SlantRangeEntries []geom.GroundToSlantRangeEntry
	BurstMapKind      scan.BurstMapKind
	Bursts            []scan.Burst
}

// Parse reads a product.xml document into plain records. Geometry sample
// collections (state vectors, Doppler estimates, slant range entries) are
// extracted only for zero-Doppler products; geocoded products carry the
// descriptive metadata alone.
func Parse(r io.Reader) (*Records, error) {
	var root xmlNode
	if err := xml.NewDecoder(r).Decode(&root); err != nil {
		return nil, fmt.Errorf("parse product.xml: %w", err)
	}

	rec := &Records{}
	if err := parseMetadata(&root, &rec.Meta); err != nil {
		return nil, err
	}

	if !rec.Meta.Geocoded() {
		var err error
		if rec.Meta.ZeroDopplerFirst, err = root.timeText("zeroDopplerTimeFirstLine"); err != nil {
			return nil, err
		}
		if rec.Meta.ZeroDopplerLast, err = root.timeText("zeroDopplerTimeLastLine"); err != nil {
			return nil, err
		}
		if rec.StateVectors, err = parseStateVectors(&root); err != nil {
			return nil, err
		}
		if rec.DopplerCentroids, err = parseDopplerCentroids(&root); err != nil {
			return nil, err
		}
		if rec.DopplerRates, err = parseDopplerRates(&root); err != nil {
			return nil, err
		}
		if rec.SlantRangeEntries, err = parseSlantRangeEntries(&root); err != nil {
			return nil, err
		}
	}

	var err error
	if rec.BurstMapKind, rec.Bursts, err = parseBurstMap(&root); err != nil {
		return nil, err
	}
	return rec, nil
}

func parseMetadata(root *xmlNode, m *Metadata) error {
	var err error
	text := func(dst *string, local string) {
		if err != nil {
			return
		}
		*dst, err = root.text(local)
	}

	text(&m.ProductID, "productId")
	text(&m.DownlinkSegmentID, "downlinkSegmentId")
	text(&m.Satellite, "satellite")
	text(&m.BeamMode, "beamMode")
	text(&m.BeamModeMnemonic, "beamModeMnemonic")
	text(&m.AcquisitionType, "acquisitionType")
	text(&m.SampleType, "sampleType")
	text(&m.PassDirection, "passDirection")
	text(&m.LookDirection, "antennaPointing")
	text(&m.LineTimeOrdering, "lineTimeOrdering")
	text(&m.PixelTimeOrdering, "pixelTimeOrdering")
	text(&m.OrbitDataSource, "orbitDataSource")
	if err != nil {
		return err
	}

	pt, err := root.text("productType")
	if err != nil {
		return err
	}
	m.ProductType = Type(pt)

	pols, err := root.text("polarizations")
	if err != nil {
		return err
	}
	m.Polarizations = strings.Fields(pols)
	m.DualPolTx = dualPolTransmit(m.Polarizations)
	m.CompactPol = compactPol(m.Polarizations)

	beams, err := root.text("beams")
	if err != nil {
		return err
	}
	m.Beams = strings.Fields(beams)

	scene := root.first("sceneAttributes")
	if scene == nil {
		return fmt.Errorf("missing element %q", "sceneAttributes")
	}
	if m.Width, err = scene.intText("samplesPerLine"); err != nil {
		return err
	}
	if m.Height, err = scene.intText("numLines"); err != nil {
		return err
	}
	if m.IncAngleNear, err = scene.floatText("incAngNearRng"); err != nil {
		return err
	}
	if m.IncAngleFar, err = scene.floatText("incAngFarRng"); err != nil {
		return err
	}

	if m.PixelSpacing, err = root.floatText("sampledPixelSpacing"); err != nil {
		return err
	}
	if m.LineSpacing, err = root.floatText("sampledLineSpacing"); err != nil {
		return err
	}
	if m.RadarCenterFreq, err = root.floatText("radarCenterFrequency"); err != nil {
		return err
	}
	if m.GeodeticHeight, err = root.floatText("geodeticTerrainHeight"); err != nil {
		return err
	}
	if m.SatelliteHeight, err = root.floatText("satelliteHeight"); err != nil {
		return err
	}
	if m.RangeLooks, err = root.intText("numberOfRangeLooks"); err != nil {
		return err
	}
	if m.AzimuthLooks, err = root.intText("numberOfAzimuthLooks"); err != nil {
		return err
	}
	if m.BitsPerSample, err = root.intText("bitsPerSample"); err != nil {
		return err
	}
	if m.RawDataStart, err = root.timeText("rawDataStartTime"); err != nil {
		return err
	}

	if m.PRF, err = parsePRF(root, m.Beams); err != nil {
		return err
	}
	if m.TiePoints, err = parseTiePoints(root); err != nil {
		return err
	}
	return nil
}

// dualPolTransmit reports whether both H and V polarizations are
// transmitted. They alternate pulse by pulse, so the effective per-channel
// PRF is half the system PRF.
func dualPolTransmit(pols []string) bool {
	var h, v bool
	for _, p := range pols {
		h = h || strings.HasPrefix(p, "H")
		v = v || strings.HasPrefix(p, "V")
	}
	return h && v
}

func compactPol(pols []string) bool {
	if len(pols) != 2 {
		return false
	}
	return (pols[0] == "CH" && pols[1] == "CV") || (pols[0] == "CV" && pols[1] == "CH")
}

// parsePRF collects the per-beam pulse repetition frequency. A product
// with a single prfInformation block assigns it to the first beam;
// otherwise the first value seen per beam wins.
func parsePRF(root *xmlNode, beams []string) (map[string]float64, error) {
	nodes := root.iter("prfInformation")
	if len(nodes) == 0 {
		return nil, fmt.Errorf("missing element %q", "prfInformation")
	}

	prf := make(map[string]float64, len(beams))
	if len(nodes) == 1 {
		if len(beams) == 0 {
			return nil, fmt.Errorf("prfInformation present but no beams declared")
		}
		v, err := nodes[0].floatText("pulseRepetitionFrequency")
		if err != nil {
			return nil, err
		}
		prf[beams[0]] = v
		return prf, nil
	}

	for _, node := range nodes {
		beam := node.attr("beam")
		if _, seen := prf[beam]; seen {
			continue
		}
		v, err := node.floatText("pulseRepetitionFrequency")
		if err != nil {
			return nil, err
		}
		prf[beam] = v
	}
	return prf, nil
}

func parseTiePoints(root *xmlNode) ([]TiePoint, error) {
	grid := root.first("geolocationGrid")
	if grid == nil {
		return nil, nil
	}

	var points []TiePoint
	for _, node := range grid.iter("imageTiePoint") {
		var tp TiePoint
		var err error
		if tp.Line, err = node.floatText("line"); err != nil {
			return nil, err
		}
		if tp.Pixel, err = node.floatText("pixel"); err != nil {
			return nil, err
		}
		if tp.Latitude, err = node.floatText("latitude"); err != nil {
			return nil, err
		}
		if tp.Longitude, err = node.floatText("longitude"); err != nil {
			return nil, err
		}
		if tp.Height, err = node.floatText("height"); err != nil {
			return nil, err
		}
		points = append(points, tp)
	}
	return points, nil
}

func parseStateVectors(root *xmlNode) ([]geom.StateVector, error) {
	var vectors []geom.StateVector
	for _, node := range root.iter("stateVector") {
		ts, err := node.timeText("timeStamp")
		if err != nil {
			return nil, err
		}
		var pos, vel r3.Vec
		if pos.X, err = node.floatText("xPosition"); err != nil {
			return nil, err
		}
		if pos.Y, err = node.floatText("yPosition"); err != nil {
			return nil, err
		}
		if pos.Z, err = node.floatText("zPosition"); err != nil {
			return nil, err
		}
		if vel.X, err = node.floatText("xVelocity"); err != nil {
			return nil, err
		}
		if vel.Y, err = node.floatText("yVelocity"); err != nil {
			return nil, err
		}
		if vel.Z, err = node.floatText("zVelocity"); err != nil {
			return nil, err
		}
		vectors = append(vectors, geom.StateVector{Time: ts, Position: pos, Velocity: vel})
	}
	return vectors, nil
}

func parseDopplerCentroids(root *xmlNode) ([]geom.DopplerCentroidEstimate, error) {
	var estimates []geom.DopplerCentroidEstimate
	for _, node := range root.iter("dopplerCentroidEstimate") {
		ts, err := node.timeText("timeOfDopplerCentroidEstimate")
		if err != nil {
			return nil, err
		}
		ref, err := node.floatText("dopplerCentroidReferenceTime")
		if err != nil {
			return nil, err
		}
		coeffs, err := node.floatsText("dopplerCentroidCoefficients")
		if err != nil {
			return nil, err
		}
		estimates = append(estimates, geom.DopplerCentroidEstimate{
			AzimuthTime:             ts,
			SlantRangeReferenceTime: ref,
			Coefficients:            coeffs,
		})
	}
	return estimates, nil
}

func parseDopplerRates(root *xmlNode) ([]DopplerRateEstimate, error) {
	nodes := root.iter("dopplerRateEstimate")
	if len(nodes) == 0 {
		// Products without per-burst rate estimates carry a single global
		// reference time and coefficient set.
		if root.first("dopplerRateReferenceTime") == nil {
			return nil, nil
		}
		ref, err := root.floatText("dopplerRateReferenceTime")
		if err != nil {
			return nil, err
		}
		coeffs, err := root.floatsText("dopplerRateCoefficients")
		if err != nil {
			return nil, err
		}
		return []DopplerRateEstimate{{ReferenceTime: ref, Coefficients: coeffs}}, nil
	}

	estimates := make([]DopplerRateEstimate, 0, len(nodes))
	for _, node := range nodes {
		var est DopplerRateEstimate
		if b := node.attr("burst"); b != "" {
			n, err := strconv.Atoi(b)
			if err != nil {
				return nil, fmt.Errorf("dopplerRateEstimate burst attribute: %w", err)
			}
			est.Burst = n
		}
		var err error
		if est.ReferenceTime, err = node.floatText("dopplerRateReferenceTime"); err != nil {
			return nil, err
		}
		if est.Coefficients, err = node.floatsText("dopplerRateCoefficients"); err != nil {
			return nil, err
		}
		estimates = append(estimates, est)
	}
	return estimates, nil
}

func parseSlantRangeEntries(root *xmlNode) ([]geom.GroundToSlantRangeEntry, error) {
	var entries []geom.GroundToSlantRangeEntry
	for _, node := range root.iter("slantRangeToGroundRange") {
		ts, err := node.timeText("zeroDopplerAzimuthTime")
		if err != nil {
			return nil, err
		}
		first, err := node.floatText("slantRangeTimeToFirstRangeSample")
		if err != nil {
			return nil, err
		}
		origin, err := node.floatText("groundRangeOrigin")
		if err != nil {
			return nil, err
		}
		coeffs, err := node.floatsText("groundToSlantRangeCoefficients")
		if err != nil {
			return nil, err
		}
		entries = append(entries, geom.GroundToSlantRangeEntry{
			Time:                  ts,
			FirstSampleSlantRange: first,
			GroundRangeOrigin:     origin,
			Coefficients:          coeffs,
		})
	}
	return entries, nil
}

// parseBurstMap reads whichever of the three burst map schemas the product
// carries. SLC maps store offset/size records; those are normalized to the
// corner form here so burst containment needs no schema branching later.
func parseBurstMap(root *xmlNode) (scan.BurstMapKind, []scan.Burst, error) {
	var (
		kind scan.BurstMapKind
		node *xmlNode
	)
	switch {
	case root.first("slcBurstMap") != nil:
		kind, node = scan.BurstMapSLC, root.first("slcBurstMap")
	case root.first("grdBurstMap") != nil:
		kind, node = scan.BurstMapGRD, root.first("grdBurstMap")
	case root.first("mlcBurstMap") != nil:
		kind, node = scan.BurstMapMLC, root.first("mlcBurstMap")
	default:
		return scan.BurstMapNone, nil, nil
	}

	var bursts []scan.Burst
	for _, attr := range node.iter("burstAttributes") {
		b := scan.Burst{Beam: attr.attr("beam")}
		if num := attr.attr("burst"); num != "" {
			n, err := strconv.Atoi(num)
			if err != nil {
				return kind, nil, fmt.Errorf("burstAttributes burst attribute: %w", err)
			}
			b.Number = n
		}

		var err error
		if kind == scan.BurstMapSLC {
			var lines, samples int
			if b.TopLeftLine, err = attr.intText("lineOffset"); err != nil {
				return kind, nil, err
			}
			if b.TopLeftPixel, err = attr.intText("pixelOffset"); err != nil {
				return kind, nil, err
			}
			if lines, err = attr.intText("numLines"); err != nil {
				return kind, nil, err
			}
			if samples, err = attr.intText("samplesPerLine"); err != nil {
				return kind, nil, err
			}
			b.BottomRightLine = b.TopLeftLine + lines - 1
			b.BottomRightPixel = b.TopLeftPixel + samples - 1
		} else {
			if b.TopLeftLine, err = attr.intText("topLeftLine"); err != nil {
				return kind, nil, err
			}
			if b.TopLeftPixel, err = attr.intText("topLeftPixel"); err != nil {
				return kind, nil, err
			}
			if b.BottomRightLine, err = attr.intText("bottomRightLine"); err != nil {
				return kind, nil, err
			}
			if b.BottomRightPixel, err = attr.intText("bottomRightPixel"); err != nil {
				return kind, nil, err
			}
		}
		bursts = append(bursts, b)
	}
	return kind, bursts, nil
}
