// Package loopsearch enumerates closed loops of junctions rooted at a
// start junction, within a distance tolerance of a target, via a
// depth-bounded backtracking DFS with a shared mutable visited-set and
// path.
package loopsearch

import (
	"context"
	"time"

	"windloop/pkg/geo"
	"windloop/pkg/junction"
)

// Options configures the enumerator. DefaultOptions returns a fully
// populated value; Run uses every field as given and does not replace
// zero values with defaults.
type Options struct {
	Tolerance         float64 // τ, fraction of target distance
	MaxDepth          int     // D_max, maximum junction edges in a loop (so at most D_max-1 intermediate junctions)
	TimeBudget        time.Duration
	CandidateCap      int     // N_max
	ReturnPruneFactor float64 // under-approximation factor for d_home pruning
	MinLoopEdges      int     // smallest acceptable loop, in junction edges
}

// DefaultOptions returns the enumerator's documented defaults.
func DefaultOptions() Options {
	return Options{
		Tolerance:         0.15,
		MaxDepth:          15,
		TimeBudget:        30 * time.Second,
		CandidateCap:      500,
		ReturnPruneFactor: 0.7,
		MinLoopEdges:      3,
	}
}

// Candidate is an accepted closed loop: an ordered sequence of junctions
// beginning and ending at the start junction, with no interior repeats.
type Candidate struct {
	Junctions []junction.NodeIdx
	EdgeIdx   []uint32 // edge indices traversed, same length as Junctions-1
	LengthM   float64
}

const stepCheckInterval = 10_000

// search holds the mutable state shared across the whole recursive DFS, per
// spec: a hash-set (here, a bool slice since junction indices are dense)
// plus a growable path list, both mutated in place. Candidates are recorded
// by cloning the path at acceptance time only.
type search struct {
	g      *junction.Graph
	start  junction.NodeIdx
	target float64
	opts   Options

	dHome []float64 // per-junction straight-line distance to start

	visited    []bool
	pathNodes  []junction.NodeIdx
	pathEdges  []uint32
	pathLength []float64 // pathLength[i] = accumulated distance after i edges

	candidates []Candidate
	steps       int
	deadline    time.Time
	ctx         context.Context
	stopped     bool
}

// Run enumerates candidate loops rooted at start in g for the given target
// distance in metres. The enumerator only consults edge lengths; wind
// effort is applied afterwards by pkg/score over the returned candidates.
// It returns whatever candidates were accepted even if ctx is cancelled or
// the time budget is exceeded first — time-out or cancellation with a
// non-empty result is a success.
func Run(ctx context.Context, g *junction.Graph, start junction.NodeIdx, targetM float64, opts Options) []Candidate {
	s := &search{
		g:      g,
		start:  start,
		target: targetM,
		opts:   opts,
		ctx:    ctx,
	}

	n := g.NumNodes()
	s.dHome = make([]float64, n)
	startCoord := g.Coord(start)
	degreeSum := 0
	for i := junction.NodeIdx(0); i < junction.NodeIdx(n); i++ {
		s.dHome[i] = geo.Distance(g.Coord(i), startCoord)
		degreeSum += len(g.Neighbours(i))
	}

	maxDepth := opts.MaxDepth
	if n > 0 {
		avgDegree := float64(degreeSum) / float64(n)
		if avgDegree > 10 {
			maxDepth = min(maxDepth, 10)
		} else if avgDegree > 6 {
			maxDepth = min(maxDepth, 12)
		}
	}
	s.opts.MaxDepth = maxDepth

	s.visited = make([]bool, n)
	s.pathNodes = make([]junction.NodeIdx, 0, maxDepth+1)
	s.pathEdges = make([]uint32, 0, maxDepth)
	s.pathLength = make([]float64, 0, maxDepth+1)

	s.deadline = nowOrZero().Add(opts.TimeBudget)

	s.visited[start] = true
	s.pathNodes = append(s.pathNodes, start)
	s.pathLength = append(s.pathLength, 0)

	s.dfs(start, 0)

	return s.candidates
}

// nowOrZero wraps time.Now so a single call site documents the one use of
// wall-clock time in this package, for the benefit of anyone grepping for
// non-determinism.
func nowOrZero() time.Time { return time.Now() }

func (s *search) dfs(u junction.NodeIdx, depth int) {
	if s.stopped {
		return
	}

	lo := s.target * (1 - s.opts.Tolerance)
	hi := s.target * (1 + s.opts.Tolerance)
	d := s.pathLength[len(s.pathLength)-1]

	for _, edgeIdx := range s.g.Neighbours(u) {
		s.steps++
		if s.steps%stepCheckInterval == 0 {
			if s.budgetExceeded() {
				s.stopped = true
				return
			}
		}

		edge := s.g.Edges[edgeIdx]
		m := edge.Other(u)
		dPrime := d + edge.LengthM

		if m == s.start {
			if depth+1 >= s.opts.MinLoopEdges && dPrime >= lo && dPrime <= hi {
				s.accept(m, edgeIdx, dPrime)
				if len(s.candidates) >= s.opts.CandidateCap {
					s.stopped = true
					return
				}
			}
			continue
		}

		if s.visited[m] {
			continue
		}
		if dPrime > hi {
			continue
		}
		if depth+1 >= s.opts.MaxDepth {
			continue
		}
		if dPrime+s.opts.ReturnPruneFactor*s.dHome[m] > hi {
			continue
		}

		s.visited[m] = true
		s.pathNodes = append(s.pathNodes, m)
		s.pathEdges = append(s.pathEdges, edgeIdx)
		s.pathLength = append(s.pathLength, dPrime)

		s.dfs(m, depth+1)

		s.pathLength = s.pathLength[:len(s.pathLength)-1]
		s.pathEdges = s.pathEdges[:len(s.pathEdges)-1]
		s.pathNodes = s.pathNodes[:len(s.pathNodes)-1]
		s.visited[m] = false

		if s.stopped {
			return
		}
	}
}

func (s *search) accept(closingNode junction.NodeIdx, closingEdge uint32, length float64) {
	junctions := make([]junction.NodeIdx, len(s.pathNodes)+1)
	copy(junctions, s.pathNodes)
	junctions[len(junctions)-1] = closingNode

	edges := make([]uint32, len(s.pathEdges)+1)
	copy(edges, s.pathEdges)
	edges[len(edges)-1] = closingEdge

	s.candidates = append(s.candidates, Candidate{
		Junctions: junctions,
		EdgeIdx:   edges,
		LengthM:   length,
	})
}

func (s *search) budgetExceeded() bool {
	if s.ctx != nil {
		select {
		case <-s.ctx.Done():
			return true
		default:
		}
	}
	if s.opts.TimeBudget > 0 && nowOrZero().After(s.deadline) {
		return true
	}
	return false
}
