package catalog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/rkm/rcm-geocal/internal/geom"
	"github.com/rkm/rcm-geocal/internal/product"
)

var sceneStart = time.Date(2022, 3, 1, 12, 0, 0, 0, time.UTC)

func testProduct(t *testing.T, id string) *product.Product {
	t.Helper()

	rec := &product.Records{
		Meta: product.Metadata{
			ProductID:         id,
			Satellite:         "RCM-1",
			BeamMode:          "Medium Resolution 50m",
			BeamModeMnemonic:  "SC50MA",
			ProductType:       product.TypeGRD,
			PassDirection:     "Ascending",
			LookDirection:     "Right",
			Polarizations:     []string{"HH", "HV"},
			Width:             100,
			Height:            200,
			PixelSpacing:      10,
			LineSpacing:       10,
			PixelTimeOrdering: "Increasing",
			RadarCenterFreq:   5.405e9,
			RangeLooks:        4,
			AzimuthLooks:      1,
			ZeroDopplerFirst:  sceneStart,
			ZeroDopplerLast:   sceneStart.Add(10 * time.Second),
			Beams:             []string{"W1"},
			PRF:               map[string]float64{"W1": 100},
			TiePoints: []product.TiePoint{
				{Line: 0, Pixel: 0, Latitude: 45, Longitude: -75},
				{Line: 0, Pixel: 99, Latitude: 45, Longitude: -74},
				{Line: 199, Pixel: 99, Latitude: 46, Longitude: -74},
				{Line: 199, Pixel: 0, Latitude: 46, Longitude: -75},
			},
		},
		StateVectors: []geom.StateVector{
			{Time: sceneStart, Position: r3.Vec{X: 7e6}, Velocity: r3.Vec{Y: 7500}},
			{Time: sceneStart.Add(10 * time.Second), Position: r3.Vec{X: 7e6, Y: 75000}, Velocity: r3.Vec{Y: 7500}},
		},
		DopplerCentroids: []geom.DopplerCentroidEstimate{
			{AzimuthTime: sceneStart, Coefficients: []float64{100}},
		},
		DopplerRates: []product.DopplerRateEstimate{
			{Coefficients: []float64{2}},
		},
		SlantRangeEntries: []geom.GroundToSlantRangeEntry{
			{Time: sceneStart, Coefficients: []float64{800000, 0.5}},
		},
	}

	p, err := product.New(rec, nil)
	require.NoError(t, err)
	return p
}

func TestBuildItem(t *testing.T) {
	p := testProduct(t, "RCM1_TEST_GRD")

	item, err := BuildItem(p, "https://geocal.example.com")
	require.NoError(t, err)

	assert.Equal(t, "RCM1_TEST_GRD", item.Id)
	assert.Equal(t, CollectionID, item.Collection)
	assert.Equal(t, STACVersion, item.Version)

	require.NotNil(t, item.Geometry)
	assert.Equal(t, []float64{-75, 45, -74, 46}, item.Bbox)

	assert.Nil(t, item.Properties["datetime"])
	assert.Equal(t, "2022-03-01T12:00:00.000000Z", item.Properties["start_datetime"])
	assert.Equal(t, "2022-03-01T12:00:10.000000Z", item.Properties["end_datetime"])

	assert.Equal(t, "rcm-1", item.Properties["platform"])
	assert.Equal(t, "SC50MA", item.Properties["sar:instrument_mode"])
	assert.Equal(t, "C", item.Properties["sar:frequency_band"])
	assert.InDelta(t, 5.405, item.Properties["sar:center_frequency"].(float64), 1e-9)
	assert.Equal(t, []string{"HH", "HV"}, item.Properties["sar:polarizations"])
	assert.Equal(t, "GRD", item.Properties["sar:product_type"])
	assert.Equal(t, "right", item.Properties["sar:observation_direction"])
	assert.Equal(t, 4, item.Properties["sar:looks_range"])
	assert.Equal(t, 1, item.Properties["sar:looks_azimuth"])
	assert.Equal(t, "ascending", item.Properties["sat:orbit_state"])
	assert.Equal(t, string(product.SensorScanSAR), item.Properties["rcm:sensor_type"])

	var rels []string
	for _, l := range item.Links {
		rels = append(rels, l.Rel)
	}
	assert.Contains(t, rels, "self")
	assert.Contains(t, rels, "root")
}

func TestBuildItemNilProduct(t *testing.T) {
	_, err := BuildItem(nil, "")
	assert.Error(t, err)
}

func TestFootprintSparseGrid(t *testing.T) {
	g, err := footprint([]product.TiePoint{
		{Line: 0, Pixel: 0, Latitude: 45, Longitude: -75},
		{Line: 10, Pixel: 10, Latitude: 46, Longitude: -74},
	})
	require.NoError(t, err)
	assert.Nil(t, g)
}

func TestBuildCollection(t *testing.T) {
	reg := product.NewRegistry()
	require.NoError(t, reg.Add(testProduct(t, "RCM1_A")))
	require.NoError(t, reg.Add(testProduct(t, "RCM1_B")))

	c := BuildCollection(reg, CollectionInfo{
		Title:       "Test",
		Description: "Test collection",
		License:     "proprietary",
		BaseURL:     "https://geocal.example.com",
	})

	assert.Equal(t, CollectionID, c.Id)
	assert.Equal(t, "proprietary", c.License)

	require.NotNil(t, c.Extent)
	require.Len(t, c.Extent.Spatial.Bbox, 1)
	assert.Equal(t, []float64{-75, 45, -74, 46}, c.Extent.Spatial.Bbox[0])

	require.Len(t, c.Extent.Temporal.Interval, 1)
	assert.Equal(t, "2022-03-01T12:00:00.000000Z", c.Extent.Temporal.Interval[0][0])
	assert.Equal(t, "2022-03-01T12:00:10.000000Z", c.Extent.Temporal.Interval[0][1])

	assert.Equal(t, []string{"SC50MA"}, c.Summaries["sar:instrument_mode"])
	assert.Equal(t, []string{"GRD"}, c.Summaries["sar:product_type"])
}

func TestBuildCollectionEmptyRegistry(t *testing.T) {
	c := BuildCollection(product.NewRegistry(), CollectionInfo{Title: "Empty", Description: "d", License: "l"})

	assert.Equal(t, []float64{-180, -90, 180, 90}, c.Extent.Spatial.Bbox[0])
	assert.Equal(t, []any{nil, nil}, c.Extent.Temporal.Interval[0])
}

func TestBuildItemCollection(t *testing.T) {
	reg := product.NewRegistry()
	require.NoError(t, reg.Add(testProduct(t, "RCM1_B")))
	require.NoError(t, reg.Add(testProduct(t, "RCM1_A")))

	ic, err := BuildItemCollection(reg, "")
	require.NoError(t, err)

	assert.Equal(t, "FeatureCollection", ic.Type)
	assert.Equal(t, 2, ic.NumberReturned)
	require.Len(t, ic.Features, 2)
	assert.Equal(t, "RCM1_A", ic.Features[0].Id)
	assert.Equal(t, "RCM1_B", ic.Features[1].Id)
}
