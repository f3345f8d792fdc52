package score

import (
	"testing"

	"windloop/pkg/junction"
	"windloop/pkg/loopsearch"
	"windloop/pkg/wind"
)

func testGraph() *junction.Graph {
	g := &junction.Graph{
		Lat:     []float64{0, 0, 0.01},
		Lon:     []float64{0, 0.01, 0.01},
		Label:   []string{"A", "B", "C"},
		FullIdx: []uint32{0, 0, 0},
	}
	g.Edges = []junction.Edge{
		{U: 0, V: 1, LengthM: 1000, BearingDeg: 90},
		{U: 1, V: 2, LengthM: 1000, BearingDeg: 0},
		{U: 2, V: 0, LengthM: 1414, BearingDeg: 225},
	}
	g.Finalize()
	return g
}

func TestZeroWindWinnerIsSmallestDistPenalty(t *testing.T) {
	g := testGraph()
	table := junction.Annotate(g, wind.Vector{SpeedMS: 0, BearingDeg: 0})

	candidates := []loopsearch.Candidate{
		{Junctions: []junction.NodeIdx{0, 1, 2, 0}, EdgeIdx: []uint32{0, 1, 2}, LengthM: 3414},
		{Junctions: []junction.NodeIdx{0, 1, 2, 0}, EdgeIdx: []uint32{0, 1, 2}, LengthM: 3000},
	}
	scored := Rank(candidates, table, 3000)
	winner := Select(scored)

	if winner.Candidate.LengthM != 3000 {
		t.Errorf("winner length = %v, want 3000 (smallest dist_penalty under zero wind)", winner.Candidate.LengthM)
	}
}

func TestTieBrokenByDiscoveryOrder(t *testing.T) {
	g := testGraph()
	table := junction.Annotate(g, wind.Vector{SpeedMS: 0, BearingDeg: 0})

	c := loopsearch.Candidate{Junctions: []junction.NodeIdx{0, 1, 2, 0}, EdgeIdx: []uint32{0, 1, 2}, LengthM: 3414}
	scored := Rank([]loopsearch.Candidate{c, c}, table, 3414)
	winner := Select(scored)

	if winner.discoveryIdx != 0 {
		t.Errorf("winner discoveryIdx = %d, want 0 (earlier of an exact tie)", winner.discoveryIdx)
	}
}

func TestDistPenaltyZeroWhenExactMatch(t *testing.T) {
	if got := distPenalty(5000, 5000); got != 0 {
		t.Errorf("distPenalty = %v, want 0", got)
	}
}

func TestScoreMonotoneInEffort(t *testing.T) {
	low := Scored{EffortTotal: 100, DistPenalty: 0.1}
	low.Score = low.EffortTotal * (1 + Alpha*low.DistPenalty)
	high := Scored{EffortTotal: 200, DistPenalty: 0.1}
	high.Score = high.EffortTotal * (1 + Alpha*high.DistPenalty)

	if !(low.Score < high.Score) {
		t.Errorf("expected lower effort to score lower: low=%v high=%v", low.Score, high.Score)
	}
}
