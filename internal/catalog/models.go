package catalog

import (
	"github.com/planetlabs/go-stac"
)

// ItemCollection is a GeoJSON FeatureCollection of STAC Items.
type ItemCollection struct {
	Type           string       `json:"type"`
	Features       []*stac.Item `json:"features"`
	Links          []*stac.Link `json:"links"`
	NumberReturned int          `json:"numberReturned"`
}

// NewItemCollection creates an ItemCollection from the given items.
func NewItemCollection(items []*stac.Item) *ItemCollection {
	return &ItemCollection{
		Type:           "FeatureCollection",
		Features:       items,
		Links:          make([]*stac.Link, 0),
		NumberReturned: len(items),
	}
}

// AddLink appends a link to the ItemCollection.
func (ic *ItemCollection) AddLink(rel, href, mediaType string) {
	ic.Links = append(ic.Links, &stac.Link{
		Rel:  rel,
		Href: href,
		Type: mediaType,
	})
}

// LandingPage is the service root document.
type LandingPage struct {
	Type        string       `json:"type"`
	Id          string       `json:"id"`
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description"`
	StacVersion string       `json:"stac_version"`
	Links       []*stac.Link `json:"links"`
}

// NewLandingPage creates a landing page response.
func NewLandingPage(id, title, description string) *LandingPage {
	return &LandingPage{
		Type:        "Catalog",
		Id:          id,
		Title:       title,
		Description: description,
		StacVersion: STACVersion,
		Links:       make([]*stac.Link, 0),
	}
}

// AddLink appends a link to the landing page.
func (lp *LandingPage) AddLink(rel, href, mediaType string) {
	lp.Links = append(lp.Links, &stac.Link{
		Rel:  rel,
		Href: href,
		Type: mediaType,
	})
}
