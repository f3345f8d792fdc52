package junction

import "windloop/pkg/wind"

// EdgeEffort holds the per-direction wind-adjusted cost of traversing an
// edge, computed for one request's wind vector.
type EdgeEffort struct {
	Forward, Backward float64 // effort U->V, effort V->U
}

// EffortTable is a per-request annotation of a Graph's edges. It never
// mutates the Graph, so a single *Graph can be built once (e.g. at cache
// load time) and shared read-only across concurrent planning requests that
// each see different wind.
type EffortTable struct {
	g      *Graph
	effort []EdgeEffort
}

// Annotate computes the wind-adjusted effort of every edge in g for the
// given wind vector, per the effort model in pkg/wind.
func Annotate(g *Graph, w wind.Vector) *EffortTable {
	effort := make([]EdgeEffort, len(g.Edges))
	for i, e := range g.Edges {
		effort[i] = EdgeEffort{
			Forward:  wind.Effort(e.LengthM, e.BearingFrom(e.U), w),
			Backward: wind.Effort(e.LengthM, e.BearingFrom(e.V), w),
		}
	}
	return &EffortTable{g: g, effort: effort}
}

// Effort returns the wind-adjusted cost of traversing edge index e starting
// from junction from.
func (t *EffortTable) Effort(e uint32, from NodeIdx) float64 {
	if t.g.Edges[e].U == from {
		return t.effort[e].Forward
	}
	return t.effort[e].Backward
}
