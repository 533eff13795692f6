// Package catalog builds STAC representations of loaded RCM products:
// one Item per product plus the Collection and landing page that frame
// them.
package catalog

import (
	"fmt"
	"math"
	"strings"

	"github.com/planetlabs/go-stac"

	"github.com/rkm/rcm-geocal/internal/product"
	"github.com/rkm/rcm-geocal/pkg/geojson"
)

// STACVersion is the STAC spec version stamped on generated objects.
const STACVersion = "1.0.0"

// CollectionID is the single collection all products are published under.
const CollectionID = "rcm-products"

// STAC extension URIs carried by generated items.
const (
	ExtensionSAR = "https://stac-extensions.github.io/sar/v1.0.0/schema.json"
	ExtensionSat = "https://stac-extensions.github.io/sat/v1.0.0/schema.json"
)

// uriExtension satisfies stac.Extension for an item that only needs the
// extension URI recorded; the extension properties themselves are written
// directly into Properties by BuildItem.
type uriExtension string

func (u uriExtension) URI() string               { return string(u) }
func (uriExtension) Encode(map[string]any) error { return nil }
func (uriExtension) Decode(map[string]any) error { return nil }

// BuildItem converts a loaded product into a STAC Item. baseURL may be
// empty, in which case no links are attached.
func BuildItem(p *product.Product, baseURL string) (*stac.Item, error) {
	if p == nil {
		return nil, fmt.Errorf("product is nil")
	}

	meta := p.Meta()

	item := &stac.Item{
		Version:    STACVersion,
		Id:         p.ID(),
		Collection: CollectionID,
		Extensions: []stac.Extension{uriExtension(ExtensionSAR), uriExtension(ExtensionSat)},
		Properties: make(map[string]any),
		Assets:     make(map[string]*stac.Asset),
		Links:      make([]*stac.Link, 0),
	}

	if geom, err := footprint(meta.TiePoints); err == nil && geom != nil {
		item.Geometry = geom
		if bbox, err := geojson.ComputeBBox(geom); err == nil {
			item.Bbox = bbox
		}
	}

	// STAC wants either datetime or a start/end pair. Zero-Doppler
	// products have a real acquisition window; geocoded products keep
	// only the raw data start.
	if !meta.ZeroDopplerFirst.IsZero() && !meta.ZeroDopplerLast.IsZero() {
		start, end := meta.ZeroDopplerFirst, meta.ZeroDopplerLast
		if end.Before(start) {
			start, end = end, start
		}
		item.Properties["datetime"] = nil
		item.Properties["start_datetime"] = product.FormatTime(start)
		item.Properties["end_datetime"] = product.FormatTime(end)
	} else if !meta.RawDataStart.IsZero() {
		item.Properties["datetime"] = product.FormatTime(meta.RawDataStart)
	} else {
		item.Properties["datetime"] = nil
	}

	if meta.Satellite != "" {
		item.Properties["platform"] = strings.ToLower(meta.Satellite)
		item.Properties["constellation"] = "rcm"
	}
	item.Properties["instruments"] = []string{"sar"}

	// SAR extension.
	if meta.BeamModeMnemonic != "" {
		item.Properties["sar:instrument_mode"] = meta.BeamModeMnemonic
	}
	item.Properties["sar:frequency_band"] = "C"
	if meta.RadarCenterFreq > 0 {
		item.Properties["sar:center_frequency"] = meta.RadarCenterFreq / 1e9
	}
	if len(meta.Polarizations) > 0 {
		item.Properties["sar:polarizations"] = meta.Polarizations
	}
	if meta.ProductType != "" {
		item.Properties["sar:product_type"] = string(meta.ProductType)
	}
	if meta.LookDirection != "" {
		item.Properties["sar:observation_direction"] = strings.ToLower(meta.LookDirection)
	}
	if meta.RangeLooks > 0 {
		item.Properties["sar:looks_range"] = meta.RangeLooks
	}
	if meta.AzimuthLooks > 0 {
		item.Properties["sar:looks_azimuth"] = meta.AzimuthLooks
	}

	// Satellite extension.
	if meta.PassDirection != "" {
		item.Properties["sat:orbit_state"] = strings.ToLower(meta.PassDirection)
	}

	if meta.IncAngleNear != 0 || meta.IncAngleFar != 0 {
		item.Properties["view:incidence_angle"] = (meta.IncAngleNear + meta.IncAngleFar) / 2
	}

	item.Properties["rcm:beam_mode"] = meta.BeamMode
	item.Properties["rcm:beams"] = meta.Beams
	item.Properties["rcm:sensor_type"] = string(p.Sensor())
	if params, ok := product.BeamModeParamsFor(meta.BeamMode); ok {
		item.Properties["rcm:resolution"] = params.Resolution
	}

	if baseURL != "" {
		addItemLinks(item, baseURL)
	}

	return item, nil
}

// footprint derives the scene outline from the geolocation grid: the four
// tie points nearest the image corners, walked clockwise from the top
// left. Returns nil when the grid is too sparse to outline anything.
func footprint(points []product.TiePoint) (*geojson.Geometry, error) {
	if len(points) < 3 {
		return nil, nil
	}

	minLine, maxLine := points[0].Line, points[0].Line
	minPixel, maxPixel := points[0].Pixel, points[0].Pixel
	for _, tp := range points[1:] {
		minLine = math.Min(minLine, tp.Line)
		maxLine = math.Max(maxLine, tp.Line)
		minPixel = math.Min(minPixel, tp.Pixel)
		maxPixel = math.Max(maxPixel, tp.Pixel)
	}

	corners := [][2]float64{
		{minLine, minPixel},
		{minLine, maxPixel},
		{maxLine, maxPixel},
		{maxLine, minPixel},
	}

	ring := make([][]float64, 0, 4)
	for _, c := range corners {
		best := points[0]
		bestDist := math.Inf(1)
		for _, tp := range points {
			d := math.Hypot(tp.Line-c[0], tp.Pixel-c[1])
			if d < bestDist {
				best, bestDist = tp, d
			}
		}
		ring = append(ring, []float64{best.Longitude, best.Latitude})
	}

	return geojson.NewPolygon(ring)
}

func addItemLinks(item *stac.Item, baseURL string) {
	item.Links = append(item.Links,
		&stac.Link{
			Rel:  "self",
			Href: fmt.Sprintf("%s/products/%s/stac-item", baseURL, item.Id),
			Type: "application/geo+json",
		},
		&stac.Link{
			Rel:  "parent",
			Href: fmt.Sprintf("%s/products", baseURL),
			Type: "application/json",
		},
		&stac.Link{
			Rel:  "root",
			Href: baseURL,
			Type: "application/json",
		},
	)
}
