// Package score ranks loop candidates by wind effort adjusted for
// distance fit, and selects the winner.
package score

import (
	"windloop/pkg/junction"
	"windloop/pkg/loopsearch"
)

// Alpha is the distance-penalty weight in the score formula.
const Alpha = 2.0

// Scored pairs a candidate with the values computed for it.
type Scored struct {
	Candidate    loopsearch.Candidate
	EffortTotal  float64
	DistPenalty  float64
	Score        float64
	discoveryIdx int
}

// Rank computes, for every candidate, its total wind effort, distance
// penalty, and score, in discovery order. It does not sort; Select picks
// the winner.
func Rank(candidates []loopsearch.Candidate, table *junction.EffortTable, targetM float64) []Scored {
	out := make([]Scored, len(candidates))
	for i, c := range candidates {
		effort := totalEffort(c, table)
		penalty := distPenalty(c.LengthM, targetM)
		out[i] = Scored{
			Candidate:    c,
			EffortTotal:  effort,
			DistPenalty:  penalty,
			Score:        effort * (1 + Alpha*penalty),
			discoveryIdx: i,
		}
	}
	return out
}

func totalEffort(c loopsearch.Candidate, table *junction.EffortTable) float64 {
	total := 0.0
	for i, edgeIdx := range c.EdgeIdx {
		from := c.Junctions[i]
		total += table.Effort(edgeIdx, from)
	}
	return total
}

func distPenalty(lengthM, targetM float64) float64 {
	if targetM == 0 {
		return 0
	}
	d := lengthM - targetM
	if d < 0 {
		d = -d
	}
	return d / targetM
}

// Select returns the winning candidate: minimum score, ties broken by
// smaller distance penalty, then by earlier discovery order. Select
// assumes candidates is non-empty; callers fail with NoLoopFound earlier.
func Select(scored []Scored) Scored {
	best := scored[0]
	for _, s := range scored[1:] {
		if better(s, best) {
			best = s
		}
	}
	return best
}

func better(a, b Scored) bool {
	if a.Score != b.Score {
		return a.Score < b.Score
	}
	if a.DistPenalty != b.DistPenalty {
		return a.DistPenalty < b.DistPenalty
	}
	return a.discoveryIdx < b.discoveryIdx
}
