package fullgraph

import (
	"testing"

	"windloop/pkg/geo"
	"windloop/pkg/network"
)

func coord(lat, lon float64) geo.Coordinate {
	return geo.Coordinate{Lat: lat, Lon: lon}
}

func TestBuildSimpleGraph(t *testing.T) {
	nodes := []network.RawNode{
		{ID: 100, Coord: coord(1.0, 103.0)},
		{ID: 200, Coord: coord(1.1, 103.0)},
		{ID: 300, Coord: coord(1.0, 103.1)},
	}
	edges := []network.RawEdge{
		{ID: 1, From: 100, To: 200, LengthM: 1000, Polyline: []network.NodeID{100, 200}},
		{ID: 2, From: 200, To: 300, LengthM: 2000, Polyline: []network.NodeID{200, 300}},
		{ID: 3, From: 300, To: 100, LengthM: 3000, Polyline: []network.NodeID{300, 100}},
	}

	g := Build(nodes, edges)

	if g.NumNodes != 3 {
		t.Fatalf("NumNodes = %d, want 3", g.NumNodes)
	}
	if g.NumEdges != 3 {
		t.Fatalf("NumEdges = %d, want 3", g.NumEdges)
	}

	for u := uint32(0); u < g.NumNodes; u++ {
		start, end := g.EdgesFrom(NodeIdx(u))
		if end-start != 1 {
			t.Errorf("node %d has %d outgoing edges, want 1", u, end-start)
		}
	}
}

func TestBuildDropsZeroLengthAndDanglingEdges(t *testing.T) {
	nodes := []network.RawNode{
		{ID: 1, Coord: coord(0, 0)},
		{ID: 2, Coord: coord(0, 0.01)},
	}
	edges := []network.RawEdge{
		{ID: 1, From: 1, To: 2, LengthM: 0}, // zero length, dropped
		{ID: 2, From: 1, To: 99, LengthM: 10}, // dangling endpoint, dropped
		{ID: 3, From: 1, To: 2, LengthM: 50},
	}

	g := Build(nodes, edges)
	if g.NumEdges != 1 {
		t.Fatalf("NumEdges = %d, want 1", g.NumEdges)
	}
}

func TestLargestComponent(t *testing.T) {
	nodes := []network.RawNode{
		{ID: 1, Coord: coord(0, 0)},
		{ID: 2, Coord: coord(0, 0.01)},
		{ID: 3, Coord: coord(0, 0.02)},
		{ID: 10, Coord: coord(5, 5)},
		{ID: 11, Coord: coord(5, 5.01)},
	}
	edges := []network.RawEdge{
		{ID: 1, From: 1, To: 2, LengthM: 100},
		{ID: 2, From: 2, To: 3, LengthM: 100},
		{ID: 3, From: 10, To: 11, LengthM: 100},
	}

	g := Build(nodes, edges)
	largest := LargestComponent(g)
	if len(largest) != 3 {
		t.Fatalf("len(largest) = %d, want 3", len(largest))
	}

	filtered := FilterToComponent(g, largest)
	if filtered.NumNodes != 3 {
		t.Fatalf("filtered.NumNodes = %d, want 3", filtered.NumNodes)
	}
}

