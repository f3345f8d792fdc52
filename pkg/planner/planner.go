// Package planner sequences the core pipeline B->C->D->E->F->G->H->I into
// the single plan_loop operation callers invoke.
package planner

import (
	"context"
	"math"
	"time"

	"github.com/paulmach/orb"

	"windloop/pkg/approach"
	"windloop/pkg/fullgraph"
	"windloop/pkg/geo"
	"windloop/pkg/geometry"
	"windloop/pkg/junction"
	"windloop/pkg/loopsearch"
	"windloop/pkg/network"
	"windloop/pkg/score"
	"windloop/pkg/wind"
)

// Options mirrors the configuration table: every field except SearchRadiusM
// has the documented default via DefaultOptions. Kappa, VRefMS and Alpha
// only report those defaults: Plan does not read them, and effort and
// scoring always use the wind.Kappa, wind.RefSpeedMS and score.Alpha
// constants.
type Options struct {
	Tolerance         float64
	MaxDepth          int
	TimeBudget        time.Duration
	CandidateCap      int
	Kappa             float64
	VRefMS            float64
	Alpha             float64
	ReturnPruneFactor float64
	MinLoopEdges      int
	ApproachMaxM      float64

	// SearchRadiusM bounds the network-loader query around start. It is not
	// part of the documented configuration table (the core is agnostic to
	// region sizing), but some radius must be chosen to call B; this is the
	// orchestrator's policy knob, defaulting to a generous multiple of the
	// target distance.
	SearchRadiusM float64
}

// DefaultOptions returns the documented defaults from the configuration
// table (tolerance=0.15, max_depth=15, time_budget_s=30, candidate_cap=500,
// kappa=0.6, v_ref=10, alpha=2.0, return_prune_factor=0.7, min_loop_edges=3,
// approach_max_m=5000).
func DefaultOptions() Options {
	return Options{
		Tolerance:         0.15,
		MaxDepth:          15,
		TimeBudget:        30 * time.Second,
		CandidateCap:      500,
		Kappa:             wind.Kappa,
		VRefMS:            wind.RefSpeedMS,
		Alpha:             score.Alpha,
		ReturnPruneFactor: 0.7,
		MinLoopEdges:      3,
		ApproachMaxM:      approach.DefaultMaxM,
	}
}

// Result is the orchestrator's result.
type Result struct {
	ActualLengthM      float64
	JunctionLabels     []string
	JunctionCoords     []geo.Coordinate
	ApproachPolyline   orb.LineString
	LoopPolyline       orb.LineString
	WindUsed           wind.Vector
	SearchRadiusM      float64
}

// Plan runs plan_loop: validates input, fetches the network, condenses and
// annotates the junction graph, finds the approach path, enumerates loop
// candidates, scores them, and expands the winner into geometry.
func Plan(ctx context.Context, loader network.NetworkLoader, start geo.Coordinate, targetM float64, w wind.Vector, opts Options) (*Result, error) {
	if err := validate(start, targetM, opts.Tolerance, w); err != nil {
		return nil, err
	}

	radius := opts.SearchRadiusM
	if radius <= 0 {
		radius = defaultSearchRadius(targetM)
	}

	nodes, edges, err := loader.Fetch(ctx, start, radius)
	if err != nil {
		return nil, mapLoaderError(err)
	}

	full := fullgraph.Build(nodes, edges)
	if full.NumNodes == 0 {
		return nil, newError(KindNetworkEmpty, "loader returned no nodes in range")
	}

	// Anchor on start's own component before filtering anything away: the
	// fetched region may contain other components start cannot reach at
	// all, and searching the largest of them instead of start's is wrong
	// regardless of how much bigger it is.
	idx := approach.NewIndex(full)
	rawNearestNode, _ := idx.NearestNode(start)

	component := fullgraph.ComponentContaining(full, rawNearestNode)
	full = fullgraph.FilterToComponent(full, component)
	nearestNode, ok := fullgraph.IndexInComponent(component, rawNearestNode)
	if !ok {
		return nil, newError(KindInternal, "nearest node missing from its own component")
	}

	hasJunction := false
	for i := uint32(0); i < full.NumNodes; i++ {
		if full.IsJunction[i] {
			hasJunction = true
			break
		}
	}
	if !hasJunction {
		return nil, newError(KindNetworkEmpty, "start's connected component contains no junctions")
	}

	approachPath, err := approach.FindStartJunction(full, nearestNode, opts.ApproachMaxM)
	if err != nil {
		return nil, newError(KindStartUnreachable, err.Error())
	}

	jctGraph := junction.Build(full)
	if jctGraph.NumNodes() == 0 {
		return nil, newError(KindNetworkEmpty, "no junctions in the connected component")
	}

	startJct, ok := findJunctionIdx(jctGraph, approachPath.Junction)
	if !ok {
		return nil, newError(KindInternal, "approach junction missing from condensed graph")
	}

	table := junction.Annotate(jctGraph, w)

	searchOpts := loopsearch.Options{
		Tolerance:         opts.Tolerance,
		MaxDepth:          opts.MaxDepth,
		TimeBudget:        opts.TimeBudget,
		CandidateCap:      opts.CandidateCap,
		ReturnPruneFactor: opts.ReturnPruneFactor,
		MinLoopEdges:      opts.MinLoopEdges,
	}
	candidates := loopsearch.Run(ctx, jctGraph, startJct, targetM, searchOpts)
	if len(candidates) == 0 {
		return nil, newError(KindNoLoopFound, "enumerator produced no candidates within tolerance")
	}

	scored := score.Rank(candidates, table, targetM)
	winner := score.Select(scored)

	loopPolyline := expandLoop(full, jctGraph, winner.Candidate)
	approachPolyline := geometry.ExpandEdges(full, nearestNode, approachPath.EdgeIdx)

	labels := make([]string, len(winner.Candidate.Junctions))
	coords := make([]geo.Coordinate, len(winner.Candidate.Junctions))
	for i, n := range winner.Candidate.Junctions {
		labels[i] = jctGraph.Label[n]
		coords[i] = jctGraph.Coord(n)
	}

	return &Result{
		ActualLengthM:    winner.Candidate.LengthM,
		JunctionLabels:   labels,
		JunctionCoords:   coords,
		ApproachPolyline: approachPolyline,
		LoopPolyline:     loopPolyline,
		WindUsed:         w,
		SearchRadiusM:    radius,
	}, nil
}

func validate(start geo.Coordinate, targetM, tolerance float64, w wind.Vector) error {
	if err := start.Validate(); err != nil {
		return newError(KindInvalidInput, err.Error())
	}
	if targetM <= 0 {
		return newError(KindInvalidInput, "target_m must be positive")
	}
	if tolerance < 0 || tolerance >= 1 {
		return newError(KindInvalidInput, "tolerance must be in [0, 1)")
	}
	if err := w.Validate(); err != nil {
		return newError(KindInvalidInput, err.Error())
	}
	return nil
}

func mapLoaderError(err error) error {
	if netErr, ok := err.(*network.Error); ok {
		switch netErr.Kind {
		case network.KindEmpty:
			return newError(KindNetworkEmpty, netErr.Context)
		default:
			return newError(KindNetworkUnavailable, netErr.Context)
		}
	}
	return newError(KindNetworkUnavailable, err.Error())
}

// defaultSearchRadius picks a loader query radius comfortably larger than
// half the target loop length, since a loop of length T may swing up to
// roughly T/2 from the start in the worst case.
func defaultSearchRadius(targetM float64) float64 {
	r := targetM*0.75 + 2000
	return math.Max(r, 5000)
}

func findJunctionIdx(g *junction.Graph, fullIdx uint32) (junction.NodeIdx, bool) {
	for i, f := range g.FullIdx {
		if f == fullIdx {
			return junction.NodeIdx(i), true
		}
	}
	return 0, false
}

// expandLoop stitches the winning candidate's junction edges, each
// expanded through its stored raw-edge list, into one closed polyline.
func expandLoop(full *fullgraph.Graph, g *junction.Graph, c loopsearch.Candidate) orb.LineString {
	segments := make([]orb.LineString, len(c.EdgeIdx))
	for i, eIdx := range c.EdgeIdx {
		from := c.Junctions[i]
		edge := g.Edges[eIdx]
		startFull := g.FullIdx[from]
		rawEdges := edge.RawEdges
		if edge.U != from {
			rawEdges = reverseUint32(rawEdges)
		}
		segments[i] = geometry.ExpandEdges(full, startFull, rawEdges)
	}
	return geometry.SpliceLoop(segments)
}

func reverseUint32(in []uint32) []uint32 {
	out := make([]uint32, len(in))
	for i, v := range in {
		out[len(in)-1-i] = v
	}
	return out
}
