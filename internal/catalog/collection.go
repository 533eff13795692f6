package catalog

import (
	"fmt"
	"sort"
	"time"

	"github.com/planetlabs/go-stac"

	"github.com/rkm/rcm-geocal/internal/product"
)

// CollectionInfo carries the operator-supplied collection metadata.
type CollectionInfo struct {
	Title       string
	Description string
	License     string
	BaseURL     string
}

// BuildCollection summarizes the loaded products as a STAC Collection.
// The spatial and temporal extents are aggregated from the products'
// geolocation grids and acquisition windows; falls back to a global
// extent when no product carries a footprint.
func BuildCollection(reg *product.Registry, info CollectionInfo) *stac.Collection {
	c := &stac.Collection{
		Version:     STACVersion,
		Id:          CollectionID,
		Title:       info.Title,
		Description: info.Description,
		License:     info.License,
		Links:       make([]*stac.Link, 0),
		Summaries:   make(map[string]any),
	}

	c.Extent = &stac.Extent{
		Spatial:  &stac.SpatialExtent{Bbox: [][]float64{spatialExtent(reg)}},
		Temporal: &stac.TemporalExtent{Interval: [][]any{temporalExtent(reg)}},
	}

	c.Summaries["sar:instrument_mode"] = summarize(reg, func(m *product.Metadata) string { return m.BeamModeMnemonic })
	c.Summaries["sar:product_type"] = summarize(reg, func(m *product.Metadata) string { return string(m.ProductType) })
	c.Summaries["platform"] = summarize(reg, func(m *product.Metadata) string { return m.Satellite })

	if info.BaseURL != "" {
		c.Links = append(c.Links,
			&stac.Link{
				Rel:  "self",
				Href: info.BaseURL + "/collection",
				Type: "application/json",
			},
			&stac.Link{
				Rel:  "root",
				Href: info.BaseURL + "/",
				Type: "application/json",
			},
			&stac.Link{
				Rel:   "items",
				Href:  info.BaseURL + "/products",
				Type:  "application/json",
				Title: "Products",
			},
		)
	}

	return c
}

func spatialExtent(reg *product.Registry) []float64 {
	var bbox []float64
	for _, p := range reg.All() {
		geom, err := footprint(p.Meta().TiePoints)
		if err != nil || geom == nil {
			continue
		}
		b, err := geom.BBox()
		if err != nil {
			continue
		}
		if bbox == nil {
			bbox = b
			continue
		}
		if b[0] < bbox[0] {
			bbox[0] = b[0]
		}
		if b[1] < bbox[1] {
			bbox[1] = b[1]
		}
		if b[2] > bbox[2] {
			bbox[2] = b[2]
		}
		if b[3] > bbox[3] {
			bbox[3] = b[3]
		}
	}
	if bbox == nil {
		return []float64{-180, -90, 180, 90}
	}
	return bbox
}

func temporalExtent(reg *product.Registry) []any {
	var start, end time.Time
	for _, p := range reg.All() {
		meta := p.Meta()
		s, e := meta.ZeroDopplerFirst, meta.ZeroDopplerLast
		if s.IsZero() {
			s, e = meta.RawDataStart, meta.RawDataStart
		}
		if s.IsZero() {
			continue
		}
		if e.Before(s) {
			s, e = e, s
		}
		if start.IsZero() || s.Before(start) {
			start = s
		}
		if end.IsZero() || e.After(end) {
			end = e
		}
	}
	if start.IsZero() {
		return []any{nil, nil}
	}
	return []any{product.FormatTime(start), product.FormatTime(end)}
}

func summarize(reg *product.Registry, key func(*product.Metadata) string) []string {
	seen := make(map[string]bool)
	for _, p := range reg.All() {
		if v := key(p.Meta()); v != "" {
			seen[v] = true
		}
	}
	values := make([]string, 0, len(seen))
	for v := range seen {
		values = append(values, v)
	}
	sort.Strings(values)
	return values
}

// BuildItemCollection wraps one item per registered product into a
// GeoJSON FeatureCollection, sorted by product ID.
func BuildItemCollection(reg *product.Registry, baseURL string) (*ItemCollection, error) {
	ids := reg.IDs()
	sort.Strings(ids)

	items := make([]*stac.Item, 0, len(ids))
	for _, id := range ids {
		item, err := BuildItem(reg.Get(id), baseURL)
		if err != nil {
			return nil, fmt.Errorf("build item for %s: %w", id, err)
		}
		items = append(items, item)
	}
	return NewItemCollection(items), nil
}
