package osmnetwork

import (
	"os"
	"path/filepath"
	"testing"

	"windloop/pkg/fullgraph"
	"windloop/pkg/geo"
	"windloop/pkg/network"
)

func buildFullGraphForTest(t *testing.T, nodes []network.RawNode, edges []network.RawEdge) *fullgraph.Graph {
	t.Helper()
	return fullgraph.Build(nodes, edges)
}

func testFullGraph() (nodes []network.RawNode, edges []network.RawEdge) {
	nodes = []network.RawNode{
		{ID: 1, Coord: geo.Coordinate{Lat: 51.0, Lon: 4.0}, IsJunction: true, Label: "32"},
		{ID: 2, Coord: geo.Coordinate{Lat: 51.0, Lon: 4.01}},
		{ID: 3, Coord: geo.Coordinate{Lat: 51.0, Lon: 4.02}, IsJunction: true, Label: "7"},
	}
	edges = []network.RawEdge{
		{ID: 1, From: 1, To: 2, LengthM: 700, Polyline: []network.NodeID{1, 2}},
		{ID: 2, From: 2, To: 1, LengthM: 700, Polyline: []network.NodeID{2, 1}},
		{ID: 3, From: 2, To: 3, LengthM: 700, Polyline: []network.NodeID{2, 3}},
		{ID: 4, From: 3, To: 2, LengthM: 700, Polyline: []network.NodeID{3, 2}},
	}
	return nodes, edges
}

func TestWriteReadCacheRoundTrip(t *testing.T) {
	rawNodes, rawEdges := testFullGraph()
	original := buildFullGraphForTest(t, rawNodes, rawEdges)

	dir := t.TempDir()
	path := filepath.Join(dir, "region.cache")
	bbox := BBox{MinLat: 50.9, MaxLat: 51.1, MinLon: 3.9, MaxLon: 4.1}

	if err := WriteCache(path, original, bbox); err != nil {
		t.Fatalf("WriteCache: %v", err)
	}

	got, gotBBox, err := ReadCache(path)
	if err != nil {
		t.Fatalf("ReadCache: %v", err)
	}

	if got.NumNodes != original.NumNodes || got.NumEdges != original.NumEdges {
		t.Fatalf("NumNodes/NumEdges mismatch: got (%d,%d), want (%d,%d)",
			got.NumNodes, got.NumEdges, original.NumNodes, original.NumEdges)
	}
	if gotBBox != bbox {
		t.Errorf("bbox mismatch: got %+v, want %+v", gotBBox, bbox)
	}
	for i := range original.NodeLat {
		if got.NodeLat[i] != original.NodeLat[i] || got.NodeLon[i] != original.NodeLon[i] {
			t.Errorf("node %d coordinate mismatch", i)
		}
		if got.IsJunction[i] != original.IsJunction[i] {
			t.Errorf("node %d IsJunction mismatch", i)
		}
		if got.Label[i] != original.Label[i] {
			t.Errorf("node %d Label mismatch: got %q, want %q", i, got.Label[i], original.Label[i])
		}
	}
	for i := range original.Head {
		if got.Head[i] != original.Head[i] || got.Weight[i] != original.Weight[i] {
			t.Errorf("edge %d mismatch", i)
		}
	}
}

func TestReadCacheDetectsCorruption(t *testing.T) {
	rawNodes, rawEdges := testFullGraph()
	g := buildFullGraphForTest(t, rawNodes, rawEdges)

	dir := t.TempDir()
	path := filepath.Join(dir, "region.cache")
	if err := WriteCache(path, g, BBox{}); err != nil {
		t.Fatalf("WriteCache: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	// Flip a byte in the middle of the payload, past the header.
	data[len(data)/2] ^= 0xFF
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, _, err := ReadCache(path); err == nil {
		t.Fatalf("ReadCache succeeded on corrupted file, want CRC32 mismatch error")
	}
}

func TestBBoxCovers(t *testing.T) {
	outer := BBox{MinLat: 50.0, MaxLat: 52.0, MinLon: 3.0, MaxLon: 5.0}
	inner := BBox{MinLat: 50.5, MaxLat: 51.5, MinLon: 3.5, MaxLon: 4.5}
	if !outer.Covers(inner) {
		t.Errorf("outer should cover inner")
	}
	if inner.Covers(outer) {
		t.Errorf("inner should not cover outer")
	}
}
