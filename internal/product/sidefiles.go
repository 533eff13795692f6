package product

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rkm/rcm-geocal/internal/calib"
)

// calibrationTypeName maps a calibration kind to the sarCalibrationType
// string used inside the noise side files.
var calibrationTypeName = map[calib.Kind]string{
	calib.KindBeta:  "Beta Nought",
	calib.KindSigma: "Sigma Nought",
	calib.KindGamma: "Gamma",
}

// lutFileName maps a calibration kind to the capitalized token in the LUT
// side file name, e.g. lutSigma_HH.xml.
var lutFileName = map[calib.Kind]string{
	calib.KindBeta:  "Beta",
	calib.KindSigma: "Sigma",
	calib.KindGamma: "Gamma",
}

// sideFilePath resolves a calibration side file relative to the product
// directory. Products unpacked from NITF keep the calibration files under
// a sibling metadata directory instead.
func sideFilePath(productDir, name string) (string, error) {
	p := filepath.Join(productDir, "calibration", name)
	if _, err := os.Stat(p); err == nil {
		return p, nil
	}
	p = filepath.Join(filepath.Dir(productDir), "metadata", "calibration", name)
	if _, err := os.Stat(p); err == nil {
		return p, nil
	}
	return "", fmt.Errorf("calibration side file %s not found under %s", name, productDir)
}

// NoiseRecords is the parse result of one polarization's noise side file:
// the base reference noise table for one calibration kind plus any azimuth
// scaling records.
type NoiseRecords struct {
	Base    calib.Table
	Scaling []calib.AzimuthScaling
}

// ParseNoise reads a noiseLevels_{POL}.xml document, extracting the
// reference noise level for the requested calibration kind and all azimuth
// noise level scaling records.
func ParseNoise(r io.Reader, kind calib.Kind) (*NoiseRecords, error) {
	typeName, ok := calibrationTypeName[kind]
	if !ok {
		return nil, fmt.Errorf("unknown calibration kind %q", string(kind))
	}

	var root xmlNode
	if err := xml.NewDecoder(r).Decode(&root); err != nil {
		return nil, fmt.Errorf("parse noise levels: %w", err)
	}

	rec := &NoiseRecords{}
	found := false
	for _, node := range root.iter("referenceNoiseLevel") {
		ct, err := node.text("sarCalibrationType")
		if err != nil {
			return nil, err
		}
		if ct != typeName {
			continue
		}
		first, err := node.intText("pixelFirstNoiseValue")
		if err != nil {
			return nil, err
		}
		step, err := node.floatText("stepSize")
		if err != nil {
			return nil, err
		}
		values, err := node.floatsText("noiseLevelValues")
		if err != nil {
			return nil, err
		}
		rec.Base = calib.NewTable(float64(first), step, values)
		found = true
		break
	}
	if !found {
		return nil, fmt.Errorf("no reference noise level of type %q", typeName)
	}

	for _, node := range root.iter("azimuthNoiseLevelScaling") {
		beam, err := node.text("beam")
		if err != nil {
			return nil, err
		}
		step, err := node.floatText("stepSize")
		if err != nil {
			return nil, err
		}
		values, err := node.floatsText("noiseLevelScalingValues")
		if err != nil {
			return nil, err
		}
		sc := calib.AzimuthScaling{Beam: beam, Step: step, Values: values}
		// Only Spotlight products anchor the scaling at an absolute line.
		if node.first("lineFirstNoiseScalingValue") != nil {
			line, err := node.intText("lineFirstNoiseScalingValue")
			if err != nil {
				return nil, err
			}
			sc.FirstLine = &line
		}
		rec.Scaling = append(rec.Scaling, sc)
	}
	return rec, nil
}

// ParseLUTBand reads a lut{Beta|Sigma|Gamma}_{POL}.xml document into a raw
// gain/offset band.
func ParseLUTBand(r io.Reader) (calib.LUTBand, error) {
	var root xmlNode
	if err := xml.NewDecoder(r).Decode(&root); err != nil {
		return calib.LUTBand{}, fmt.Errorf("parse LUT: %w", err)
	}

	var band calib.LUTBand
	first, err := root.intText("pixelFirstLutValue")
	if err != nil {
		return calib.LUTBand{}, err
	}
	band.FirstIndex = float64(first)
	if band.Step, err = root.floatText("stepSize"); err != nil {
		return calib.LUTBand{}, err
	}
	if band.Offset, err = root.floatText("offset"); err != nil {
		return calib.LUTBand{}, err
	}
	if band.Gains, err = root.floatsText("gains"); err != nil {
		return calib.LUTBand{}, err
	}
	return band, nil
}

// IncidenceAngles holds the per-column incidence angle in degrees,
// resolved to one value per pixel at load time.
type IncidenceAngles struct {
	angles []float64
}

// At returns the incidence angle at an image column, clamped to the image.
func (ia *IncidenceAngles) At(pixel int) float64 {
	if pixel < 0 {
		pixel = 0
	}
	if pixel > len(ia.angles)-1 {
		pixel = len(ia.angles) - 1
	}
	return ia.angles[pixel]
}

// ParseIncidenceAngles reads an incidenceAngles.xml document and resolves
// the sampled angles to the image width. Each angle is its own element in
// the file.
func ParseIncidenceAngles(r io.Reader, width int) (*IncidenceAngles, error) {
	if width <= 0 {
		return nil, fmt.Errorf("invalid image width %d", width)
	}

	var root xmlNode
	if err := xml.NewDecoder(r).Decode(&root); err != nil {
		return nil, fmt.Errorf("parse incidence angles: %w", err)
	}

	first, err := root.intText("pixelFirstAnglesValue")
	if err != nil {
		return nil, err
	}
	step, err := root.floatText("stepSize")
	if err != nil {
		return nil, err
	}
	nodes := root.iter("angles")
	if len(nodes) == 0 {
		return nil, fmt.Errorf("missing element %q", "angles")
	}
	angles := make([]float64, 0, len(nodes))
	for _, node := range nodes {
		v, err := node.floatText("angles")
		if err != nil {
			return nil, err
		}
		angles = append(angles, v)
	}

	table := calib.NewTable(float64(first), step, angles)
	if (step == 1 || step == -1) && len(angles) == width {
		return &IncidenceAngles{angles: table.Values}, nil
	}
	resolved := make([]float64, width)
	for p := 0; p < width; p++ {
		resolved[p] = table.At(float64(p))
	}
	return &IncidenceAngles{angles: resolved}, nil
}

// SideFiles bundles the calibration side-file content for one product:
// per-band noise (indexed like the polarization list) per calibration
// kind, gain/offset LUTs per kind, and the incidence angle table.
type SideFiles struct {
	Noise     map[calib.Kind][]*NoiseRecords
	LUTs      map[calib.Kind]*calib.LUT
	Incidence *IncidenceAngles
}

// LoadSideFiles reads every calibration side file for the product under
// productDir: one noise and one LUT file per polarization and calibration
// kind, plus incidenceAngles.xml. Geocoded products carry no side files
// worth loading; callers skip this for those.
func LoadSideFiles(productDir string, meta *Metadata) (*SideFiles, error) {
	sf := &SideFiles{
		Noise: make(map[calib.Kind][]*NoiseRecords),
		LUTs:  make(map[calib.Kind]*calib.LUT),
	}

	for _, kind := range []calib.Kind{calib.KindBeta, calib.KindSigma, calib.KindGamma} {
		bands := make([]calib.LUTBand, 0, len(meta.Polarizations))
		for _, pol := range meta.Polarizations {
			noisePath, err := sideFilePath(productDir, "noiseLevels_"+pol+".xml")
			if err != nil {
				return nil, err
			}
			rec, err := parseNoiseFile(noisePath, kind)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", noisePath, err)
			}
			sf.Noise[kind] = append(sf.Noise[kind], rec)

			lutPath, err := sideFilePath(productDir, "lut"+lutFileName[kind]+"_"+pol+".xml")
			if err != nil {
				return nil, err
			}
			band, err := parseLUTFile(lutPath)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", lutPath, err)
			}
			bands = append(bands, band)
		}
		lut, err := calib.NewLUT(meta.Width, bands)
		if err != nil {
			return nil, err
		}
		sf.LUTs[kind] = lut
	}

	incPath, err := sideFilePath(productDir, "incidenceAngles.xml")
	if err != nil {
		return nil, err
	}
	if sf.Incidence, err = parseIncidenceFile(incPath, meta.Width); err != nil {
		return nil, fmt.Errorf("%s: %w", incPath, err)
	}
	return sf, nil
}

func parseNoiseFile(path string, kind calib.Kind) (*NoiseRecords, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseNoise(f, kind)
}

func parseLUTFile(path string) (calib.LUTBand, error) {
	f, err := os.Open(path)
	if err != nil {
		return calib.LUTBand{}, err
	}
	defer f.Close()
	return ParseLUTBand(f)
}

func parseIncidenceFile(path string, width int) (*IncidenceAngles, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseIncidenceAngles(f, width)
}
