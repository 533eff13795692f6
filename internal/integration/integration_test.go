// Package integration exercises the full service stack over an on-disk
// product layout: parsing product.xml, loading calibration side files,
// and serving geometry and calibration queries over HTTP.
package integration

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rkm/rcm-geocal/internal/api"
	"github.com/rkm/rcm-geocal/internal/calib"
	"github.com/rkm/rcm-geocal/internal/config"
	"github.com/rkm/rcm-geocal/internal/product"
)

const productXML = `<?xml version="1.0" encoding="UTF-8"?>
<product xmlns="rcmGsProductSchema">
  <productId>RCM1_OK1000_GRD</productId>
  <downlinkSegmentId>DL100</downlinkSegmentId>
  <sourceAttributes>
    <satellite>RCM-1</satellite>
    <beamMode>Medium Resolution 50m</beamMode>
    <beamModeMnemonic>SC50MA</beamModeMnemonic>
    <rawDataStartTime>2022-03-01T11:59:58.500000Z</rawDataStartTime>
    <radarParameters>
      <acquisitionType>Medium Resolution 50m</acquisitionType>
      <beams>W1 W2</beams>
      <polarizations>HH</polarizations>
      <antennaPointing>Right</antennaPointing>
      <radarCenterFrequency>5.405e+09</radarCenterFrequency>
      <bitsPerSample>16</bitsPerSample>
      <prfInformation beam="W1">
        <pulseRepetitionFrequency>1100.5</pulseRepetitionFrequency>
      </prfInformation>
      <prfInformation beam="W2">
        <pulseRepetitionFrequency>1200.5</pulseRepetitionFrequency>
      </prfInformation>
    </radarParameters>
    <orbitAndAttitude>
      <orbitInformation>
        <passDirection>Ascending</passDirection>
        <orbitDataSource>Downlinked</orbitDataSource>
        <satelliteHeight>592700.0</satelliteHeight>
        <stateVector>
          <timeStamp>2022-03-01T12:00:00.000000Z</timeStamp>
          <xPosition>7000000.0</xPosition>
          <yPosition>0.0</yPosition>
          <zPosition>0.0</zPosition>
          <xVelocity>0.0</xVelocity>
          <yVelocity>7500.0</yVelocity>
          <zVelocity>0.0</zVelocity>
        </stateVector>
        <stateVector>
          <timeStamp>2022-03-01T12:00:10.000000Z</timeStamp>
          <xPosition>7000100.0</xPosition>
          <yPosition>75000.0</yPosition>
          <zPosition>0.0</zPosition>
          <xVelocity>10.0</xVelocity>
          <yVelocity>7500.0</yVelocity>
          <zVelocity>0.0</zVelocity>
        </stateVector>
      </orbitInformation>
    </orbitAndAttitude>
  </sourceAttributes>
  <imageGenerationParameters>
    <generalProcessingInformation>
      <productType>GRD</productType>
    </generalProcessingInformation>
    <sarProcessingInformation>
      <numberOfRangeLooks>4</numberOfRangeLooks>
      <numberOfAzimuthLooks>1</numberOfAzimuthLooks>
      <zeroDopplerTimeFirstLine>2022-03-01T12:00:00.000000Z</zeroDopplerTimeFirstLine>
      <zeroDopplerTimeLastLine>2022-03-01T12:00:10.000000Z</zeroDopplerTimeLastLine>
      <geodeticTerrainHeight>45.0</geodeticTerrainHeight>
    </sarProcessingInformation>
    <dopplerCentroid>
      <dopplerCentroidEstimate>
        <timeOfDopplerCentroidEstimate>2022-03-01T12:00:00.000000Z</timeOfDopplerCentroidEstimate>
        <dopplerCentroidReferenceTime>0.0055</dopplerCentroidReferenceTime>
        <dopplerCentroidCoefficients>100.0</dopplerCentroidCoefficients>
      </dopplerCentroidEstimate>
    </dopplerCentroid>
    <dopplerRate>
      <dopplerRateReferenceTime>0.0055</dopplerRateReferenceTime>
      <dopplerRateCoefficients>-1800.0</dopplerRateCoefficients>
    </dopplerRate>
    <slantRangeToGroundRange>
      <zeroDopplerAzimuthTime>2022-03-01T12:00:00.000000Z</zeroDopplerAzimuthTime>
      <slantRangeTimeToFirstRangeSample>0.0054</slantRangeTimeToFirstRangeSample>
      <groundRangeOrigin>0.0</groundRangeOrigin>
      <groundToSlantRangeCoefficients>800000.0 0.5</groundToSlantRangeCoefficients>
    </slantRangeToGroundRange>
  </imageGenerationParameters>
  <imageReferenceAttributes>
    <rasterAttributes>
      <sampleType>Magnitude Detected</sampleType>
      <sampledPixelSpacing>25.0</sampledPixelSpacing>
      <sampledLineSpacing>25.0</sampledLineSpacing>
      <lineTimeOrdering>Increasing</lineTimeOrdering>
      <pixelTimeOrdering>Increasing</pixelTimeOrdering>
    </rasterAttributes>
    <geographicInformation>
      <geolocationGrid>
        <imageTiePoint>
          <imageCoordinate>
            <line>0.0</line>
            <pixel>0.0</pixel>
          </imageCoordinate>
          <geodeticCoordinate>
            <latitude>45.5</latitude>
            <longitude>-75.25</longitude>
            <height>100.0</height>
          </geodeticCoordinate>
        </imageTiePoint>
        <imageTiePoint>
          <imageCoordinate>
            <line>199.0</line>
            <pixel>99.0</pixel>
          </imageCoordinate>
          <geodeticCoordinate>
            <latitude>46.0</latitude>
            <longitude>-74.75</longitude>
            <height>101.0</height>
          </geodeticCoordinate>
        </imageTiePoint>
      </geolocationGrid>
    </geographicInformation>
  </imageReferenceAttributes>
  <sceneAttributes>
    <imageAttributes>
      <samplesPerLine>100</samplesPerLine>
      <numLines>200</numLines>
      <incAngNearRng>20.5</incAngNearRng>
      <incAngFarRng>45.1</incAngFarRng>
    </imageAttributes>
  </sceneAttributes>
  <grdBurstMap>
    <burstAttributes beam="W1" burst="1">
      <topLeftLine>0</topLeftLine>
      <topLeftPixel>0</topLeftPixel>
      <bottomRightLine>99</bottomRightLine>
      <bottomRightPixel>49</bottomRightPixel>
    </burstAttributes>
    <burstAttributes beam="W2" burst="2">
      <topLeftLine>0</topLeftLine>
      <topLeftPixel>50</topLeftPixel>
      <bottomRightLine>99</bottomRightLine>
      <bottomRightPixel>99</bottomRightPixel>
    </burstAttributes>
  </grdBurstMap>
</product>`

const noiseXML = `<?xml version="1.0"?>
<noiseLevels xmlns="rcmGsProductSchema">
  <referenceNoiseLevel>
    <sarCalibrationType>Beta Nought</sarCalibrationType>
    <pixelFirstNoiseValue>0</pixelFirstNoiseValue>
    <stepSize>99</stepSize>
    <noiseLevelValues>-30.0 -30.0</noiseLevelValues>
  </referenceNoiseLevel>
  <referenceNoiseLevel>
    <sarCalibrationType>Sigma Nought</sarCalibrationType>
    <pixelFirstNoiseValue>0</pixelFirstNoiseValue>
    <stepSize>99</stepSize>
    <noiseLevelValues>-25.0 -25.0</noiseLevelValues>
  </referenceNoiseLevel>
  <referenceNoiseLevel>
    <sarCalibrationType>Gamma</sarCalibrationType>
    <pixelFirstNoiseValue>0</pixelFirstNoiseValue>
    <stepSize>99</stepSize>
    <noiseLevelValues>-27.0 -27.0</noiseLevelValues>
  </referenceNoiseLevel>
</noiseLevels>`

const lutXML = `<?xml version="1.0"?>
<lut xmlns="rcmGsProductSchema">
  <pixelFirstLutValue>0</pixelFirstLutValue>
  <stepSize>99</stepSize>
  <offset>1.0</offset>
  <gains>2.0 2.0</gains>
</lut>`

const incidenceXML = `<?xml version="1.0"?>
<incidenceAngles xmlns="rcmGsProductSchema">
  <pixelFirstAnglesValue>0</pixelFirstAnglesValue>
  <stepSize>99</stepSize>
  <angles>20.5</angles>
  <angles>45.1</angles>
</incidenceAngles>`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func writeCalibrationFiles(t *testing.T, calDir string) {
	t.Helper()
	writeFile(t, filepath.Join(calDir, "noiseLevels_HH.xml"), noiseXML)
	writeFile(t, filepath.Join(calDir, "lutBeta_HH.xml"), lutXML)
	writeFile(t, filepath.Join(calDir, "lutSigma_HH.xml"), lutXML)
	writeFile(t, filepath.Join(calDir, "lutGamma_HH.xml"), lutXML)
	writeFile(t, filepath.Join(calDir, "incidenceAngles.xml"), incidenceXML)
}

// writeProductsDir lays out a products root with one complete product.
func writeProductsDir(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	productDir := filepath.Join(root, "RCM1_OK1000_GRD")
	writeFile(t, filepath.Join(productDir, "product.xml"), productXML)
	writeCalibrationFiles(t, filepath.Join(productDir, "calibration"))
	return root
}

func setupTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	registry, err := product.LoadProducts(writeProductsDir(t))
	require.NoError(t, err)

	cfg := &config.Config{
		Catalog: config.CatalogConfig{
			BaseURL:     "http://test.local",
			Title:       "Test",
			Description: "Test service",
			License:     "proprietary",
		},
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handlers := api.NewHandlers(cfg, registry, logger)
	router := api.NewRouter(handlers, logger)

	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)
	return ts
}

func get(t *testing.T, ts *httptest.Server, path string) (int, map[string]any) {
	t.Helper()

	resp, err := http.Get(ts.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func TestServiceOverProductLayout(t *testing.T) {
	ts := setupTestServer(t)

	t.Run("health reports loaded products", func(t *testing.T) {
		status, body := get(t, ts, "/health")
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, 1.0, body["products"])
	})

	t.Run("product metadata", func(t *testing.T) {
		status, body := get(t, ts, "/products/RCM1_OK1000_GRD")
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, "ScanSAR", body["sensor_type"])
		assert.Equal(t, "GRD", body["product_type"])
	})

	t.Run("zero doppler time", func(t *testing.T) {
		status, body := get(t, ts, "/products/RCM1_OK1000_GRD/time?line=100")
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, "2022-03-01T12:00:05.000000Z", body["azimuth_time"])
	})

	t.Run("slant range", func(t *testing.T) {
		status, body := get(t, ts, "/products/RCM1_OK1000_GRD/slant-range?pixel=4&line=100")
		assert.Equal(t, http.StatusOK, status)
		// Ground range 4 px * 25 m, slant polynomial 800000 + 0.5*gr.
		assert.InDelta(t, 800050.0, body["slant_range_m"].(float64), 1e-6)
	})

	t.Run("doppler centroid", func(t *testing.T) {
		status, body := get(t, ts, "/products/RCM1_OK1000_GRD/doppler-centroid?pixel=4&line=100")
		assert.Equal(t, http.StatusOK, status)
		assert.InDelta(t, 100.0, body["doppler_centroid_hz"].(float64), 1e-9)
	})

	t.Run("beam and burst", func(t *testing.T) {
		status, body := get(t, ts, "/products/RCM1_OK1000_GRD/beam?pixel=75")
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, "W2", body["beam"])

		status, body = get(t, ts, "/products/RCM1_OK1000_GRD/burst?pixel=75&line=50")
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, 2.0, body["burst"])
	})

	t.Run("burst outside coverage", func(t *testing.T) {
		status, _ := get(t, ts, "/products/RCM1_OK1000_GRD/burst?pixel=75&line=150")
		assert.Equal(t, http.StatusNotFound, status)
	})

	t.Run("noise from side files", func(t *testing.T) {
		status, body := get(t, ts, "/products/RCM1_OK1000_GRD/noise?kind=sigma&pixel=10&line=10")
		assert.Equal(t, http.StatusOK, status)
		noise := body["noise_db"].([]any)
		require.Len(t, noise, 1)
		assert.InDelta(t, -25.0, noise[0].(float64), 1e-9)
	})

	t.Run("lut from side files", func(t *testing.T) {
		status, body := get(t, ts, "/products/RCM1_OK1000_GRD/lut?kind=gamma&pixel=10")
		assert.Equal(t, http.StatusOK, status)
		gains := body["gains"].([]any)
		require.Len(t, gains, 1)
		assert.InDelta(t, 2.0, gains[0].(float64), 1e-9)
	})

	t.Run("incidence angle resampled to width", func(t *testing.T) {
		status, body := get(t, ts, "/products/RCM1_OK1000_GRD/incidence-angle?pixel=0")
		assert.Equal(t, http.StatusOK, status)
		assert.InDelta(t, 20.5, body["incidence_angle_deg"].(float64), 1e-9)

		status, body = get(t, ts, "/products/RCM1_OK1000_GRD/incidence-angle?pixel=99")
		assert.Equal(t, http.StatusOK, status)
		assert.InDelta(t, 45.1, body["incidence_angle_deg"].(float64), 1e-9)
	})

	t.Run("stac item", func(t *testing.T) {
		status, body := get(t, ts, "/products/RCM1_OK1000_GRD/stac-item")
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, "RCM1_OK1000_GRD", body["id"])
		assert.Equal(t, "Feature", body["type"])
	})
}

// Products unpacked from NITF keep calibration files under a sibling
// metadata directory; Load must fall back to it.
func TestLoadWithNITFSideFileLayout(t *testing.T) {
	root := t.TempDir()
	productDir := filepath.Join(root, "imagery")
	writeFile(t, filepath.Join(productDir, "product.xml"), productXML)
	writeCalibrationFiles(t, filepath.Join(root, "metadata", "calibration"))

	p, err := product.Load(productDir)
	require.NoError(t, err)

	noise, err := p.NoiseLevel(calib.KindBeta, 0, 0)
	require.NoError(t, err)
	require.Len(t, noise, 1)
	assert.InDelta(t, -30.0, noise[0], 1e-9)
}
