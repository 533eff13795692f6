package geojson

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestNewPolygon(t *testing.T) {
	g, err := NewPolygon([][]float64{
		{-75.0, 45.0},
		{-74.0, 45.0},
		{-74.0, 46.0},
		{-75.0, 46.0},
	})
	if err != nil {
		t.Fatalf("NewPolygon() failed: %v", err)
	}

	if g.Type != "Polygon" {
		t.Errorf("expected type Polygon, got %s", g.Type)
	}

	rings, err := g.Polygon()
	if err != nil {
		t.Fatalf("Polygon() failed: %v", err)
	}
	if len(rings) != 1 {
		t.Fatalf("expected 1 ring, got %d", len(rings))
	}

	// Ring is closed automatically.
	if len(rings[0]) != 5 {
		t.Errorf("expected 5 points in closed ring, got %d", len(rings[0]))
	}
	if !reflect.DeepEqual(rings[0][0], rings[0][4]) {
		t.Errorf("ring is not closed: first %v last %v", rings[0][0], rings[0][4])
	}
}

func TestNewPolygonAlreadyClosed(t *testing.T) {
	g, err := NewPolygon([][]float64{
		{-75.0, 45.0},
		{-74.0, 45.0},
		{-74.0, 46.0},
		{-75.0, 45.0},
	})
	if err != nil {
		t.Fatalf("NewPolygon() failed: %v", err)
	}

	rings, err := g.Polygon()
	if err != nil {
		t.Fatalf("Polygon() failed: %v", err)
	}
	if len(rings[0]) != 4 {
		t.Errorf("expected closed ring to pass through unchanged, got %d points", len(rings[0]))
	}
}

func TestNewPolygonTooFewPoints(t *testing.T) {
	_, err := NewPolygon([][]float64{{0, 0}, {1, 1}})
	if err == nil {
		t.Error("expected error for ring with fewer than 3 points")
	}
}

func TestNewPolygonFromBBox(t *testing.T) {
	g, err := NewPolygonFromBBox([]float64{-75, 45, -74, 46})
	if err != nil {
		t.Fatalf("NewPolygonFromBBox() failed: %v", err)
	}

	bbox, err := g.BBox()
	if err != nil {
		t.Fatalf("BBox() failed: %v", err)
	}
	want := []float64{-75, 45, -74, 46}
	if !reflect.DeepEqual(bbox, want) {
		t.Errorf("BBox() = %v, want %v", bbox, want)
	}
}

func TestNewPolygonFromBBoxInvalid(t *testing.T) {
	_, err := NewPolygonFromBBox([]float64{-75, 45, -74})
	if err == nil {
		t.Error("expected error for bbox with 3 values")
	}
}

func TestComputeBBoxPoint(t *testing.T) {
	g, err := NewPoint(-75.5, 45.25)
	if err != nil {
		t.Fatalf("NewPoint() failed: %v", err)
	}

	bbox, err := ComputeBBox(g)
	if err != nil {
		t.Fatalf("ComputeBBox() failed: %v", err)
	}
	want := []float64{-75.5, 45.25, -75.5, 45.25}
	if !reflect.DeepEqual(bbox, want) {
		t.Errorf("ComputeBBox() = %v, want %v", bbox, want)
	}
}

func TestComputeBBoxUnsupportedType(t *testing.T) {
	g := &Geometry{Type: "GeometryCollection"}
	if _, err := ComputeBBox(g); err == nil {
		t.Error("expected error for unsupported geometry type")
	}
}

func TestComputeBBoxNil(t *testing.T) {
	if _, err := ComputeBBox(nil); err == nil {
		t.Error("expected error for nil geometry")
	}
}

func TestGeometryJSONRoundTrip(t *testing.T) {
	g, err := NewPolygonFromBBox([]float64{-75, 45, -74, 46})
	if err != nil {
		t.Fatalf("NewPolygonFromBBox() failed: %v", err)
	}

	data, err := json.Marshal(g)
	if err != nil {
		t.Fatalf("Marshal() failed: %v", err)
	}

	var decoded Geometry
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal() failed: %v", err)
	}
	if decoded.Type != "Polygon" {
		t.Errorf("expected type Polygon, got %s", decoded.Type)
	}

	bbox, err := decoded.BBox()
	if err != nil {
		t.Fatalf("BBox() failed: %v", err)
	}
	if !reflect.DeepEqual(bbox, []float64{-75, 45, -74, 46}) {
		t.Errorf("unexpected bbox after round trip: %v", bbox)
	}
}
