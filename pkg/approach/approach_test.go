package approach

import (
	"testing"

	"windloop/pkg/fullgraph"
	"windloop/pkg/geo"
	"windloop/pkg/network"
)

func coord(lat, lon float64) geo.Coordinate { return geo.Coordinate{Lat: lat, Lon: lon} }

func buildTestFull() *fullgraph.Graph {
	nodes := []network.RawNode{
		{ID: 1, Coord: coord(0, 0), IsJunction: false},
		{ID: 2, Coord: coord(0, 0.005), IsJunction: false},
		{ID: 3, Coord: coord(0, 0.01), IsJunction: true, Label: "J1"},
	}
	edges := []network.RawEdge{
		{ID: 1, From: 1, To: 2, LengthM: 500, BearingDeg: 90},
		{ID: 2, From: 2, To: 1, LengthM: 500, BearingDeg: 270},
		{ID: 3, From: 2, To: 3, LengthM: 500, BearingDeg: 90},
		{ID: 4, From: 3, To: 2, LengthM: 500, BearingDeg: 270},
	}
	return fullgraph.Build(nodes, edges)
}

func TestNearestNodeFindsClosest(t *testing.T) {
	full := buildTestFull()
	idx := NewIndex(full)

	node, dist := idx.NearestNode(coord(0.0001, 0.0001))
	if node != 0 {
		t.Errorf("nearest node = %d, want 0", node)
	}
	if dist <= 0 {
		t.Errorf("dist = %v, want > 0", dist)
	}
}

func TestFindStartJunctionReachable(t *testing.T) {
	full := buildTestFull()
	path, err := FindStartJunction(full, 0, DefaultMaxM)
	if err != nil {
		t.Fatalf("FindStartJunction error: %v", err)
	}
	if path.Junction != 2 {
		t.Errorf("junction = %d, want 2", path.Junction)
	}
	if path.LengthM != 1000 {
		t.Errorf("length = %v, want 1000", path.LengthM)
	}
	if len(path.Nodes) != 3 || path.Nodes[0] != 0 || path.Nodes[2] != 2 {
		t.Errorf("nodes = %v, want [0 1 2]", path.Nodes)
	}
}

func TestFindStartJunctionUnreachableWithinBudget(t *testing.T) {
	full := buildTestFull()
	_, err := FindStartJunction(full, 0, 200)
	if err == nil {
		t.Fatal("expected StartUnreachable error")
	}
	apprErr, ok := err.(*Error)
	if !ok || apprErr.Kind != KindUnreachable {
		t.Errorf("err = %v, want *Error{Kind: StartUnreachable}", err)
	}
}

func TestFindStartJunctionTrivialWhenStartIsJunction(t *testing.T) {
	full := buildTestFull()
	path, err := FindStartJunction(full, 2, DefaultMaxM)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path.LengthM != 0 || path.Junction != 2 {
		t.Errorf("path = %+v, want zero-length trivial path at node 2", path)
	}
}
