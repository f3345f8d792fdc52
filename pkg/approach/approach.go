// Package approach connects a user coordinate to the start junction of a
// planning request: the nearest raw node by spatial index, then the
// nearest junction reachable from it over the full graph.
package approach

import (
	"container/heap"
	"math"

	"github.com/tidwall/rtree"

	"windloop/pkg/fullgraph"
	"windloop/pkg/geo"
)

// DefaultMaxM is the default network-distance cap on approach searches
// (approach_max_m in the configuration table).
const DefaultMaxM = 5000.0

// Kind classifies an approach-path failure.
type Kind string

const KindUnreachable Kind = "StartUnreachable"

// Error reports why no start junction could be found.
type Error struct {
	Kind    Kind
	Context string
}

func (e *Error) Error() string { return string(e.Kind) + ": " + e.Context }

// Index is a spatial index over a full graph's raw nodes, backed by an
// R-tree, used to find the node nearest an arbitrary user coordinate.
type Index struct {
	tree *rtree.RTreeG[uint32]
	full *fullgraph.Graph
}

// NewIndex builds a spatial index over every node of full.
func NewIndex(full *fullgraph.Graph) *Index {
	tree := &rtree.RTreeG[uint32]{}
	for i := uint32(0); i < full.NumNodes; i++ {
		p := [2]float64{full.NodeLon[i], full.NodeLat[i]}
		tree.Insert(p, p, i)
	}
	return &Index{tree: tree, full: full}
}

// NearestNode returns the raw node index closest to c by great-circle
// distance, expanding the R-tree search window outward until at least one
// candidate is found.
func (idx *Index) NearestNode(c geo.Coordinate) (uint32, float64) {
	best := uint32(0)
	bestDist := math.Inf(1)

	const degPerMetre = 1.0 / 111_000.0
	for radiusM := 200.0; radiusM <= 200_000; radiusM *= 4 {
		bestDist = math.Inf(1)
		r := radiusM * degPerMetre
		min := [2]float64{c.Lon - r, c.Lat - r}
		max := [2]float64{c.Lon + r, c.Lat + r}

		idx.tree.Search(min, max, func(_, _ [2]float64, node uint32) bool {
			cand := geo.Coordinate{Lat: idx.full.NodeLat[node], Lon: idx.full.NodeLon[node]}
			// Equirectangular distance is ~3x cheaper than the exact
			// haversine and never overestimates enough at this scale to
			// miss the true nearest node, so candidates it already rules
			// out skip the haversine call entirely.
			if geo.EquirectangularDist(c, cand) >= bestDist {
				return true
			}
			d := geo.Distance(c, cand)
			if d < bestDist {
				bestDist = d
				best = node
			}
			return true
		})

		if !math.IsInf(bestDist, 1) {
			return best, bestDist
		}
	}
	return best, bestDist
}

// Path is the result of an approach search: the raw-node path from the
// nearest node to the reached junction, and its network length.
type Path struct {
	Nodes    []uint32
	EdgeIdx  []uint32 // full-graph edge indices traversed, len(Nodes)-1
	LengthM  float64
	Junction uint32 // full-graph node index of the reached junction
}

// heapItem and dijkstraHeap implement a small binary min-heap over the same
// (node, distance) items as junction.minHeap, here through container/heap
// rather than a concrete-typed heap, kept package-local since the two packages'
// search loops differ enough (this one stops at the first junction
// dequeued, not at every junction) to not share a type.
type heapItem struct {
	node uint32
	dist float64
}

type dijkstraHeap []heapItem

func (h dijkstraHeap) Len() int            { return len(h) }
func (h dijkstraHeap) Less(i, j int) bool  { return h[i].dist < h[j].dist }
func (h dijkstraHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *dijkstraHeap) Push(x interface{}) { *h = append(*h, x.(heapItem)) }
func (h *dijkstraHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// FindStartJunction runs Dijkstra from startNode over full, halting at the
// first junction dequeued, and fails with StartUnreachable if none is
// found within maxM network metres.
func FindStartJunction(full *fullgraph.Graph, startNode uint32, maxM float64) (*Path, error) {
	dist := make([]float64, full.NumNodes)
	predNode := make([]int64, full.NumNodes)
	predEdge := make([]uint32, full.NumNodes)
	settled := make([]bool, full.NumNodes)
	for i := range dist {
		dist[i] = math.Inf(1)
		predNode[i] = -1
	}
	dist[startNode] = 0

	if full.IsJunction[startNode] {
		return &Path{Nodes: []uint32{startNode}, LengthM: 0, Junction: startNode}, nil
	}

	h := &dijkstraHeap{{node: startNode, dist: 0}}
	heap.Init(h)

	for h.Len() > 0 {
		it := heap.Pop(h).(heapItem)
		u := it.node
		if settled[u] {
			continue
		}
		if it.dist > dist[u] {
			continue
		}
		settled[u] = true

		if dist[u] > maxM {
			break
		}

		if full.IsJunction[u] {
			nodes, edges := reconstructPath(predNode, predEdge, startNode, u)
			return &Path{Nodes: nodes, EdgeIdx: edges, LengthM: dist[u], Junction: u}, nil
		}

		start, end := full.EdgesFrom(fullgraph.NodeIdx(u))
		for e := start; e < end; e++ {
			v := full.Head[e]
			if settled[v] {
				continue
			}
			nd := dist[u] + full.Weight[e]
			if nd < dist[v] && nd <= maxM {
				dist[v] = nd
				predNode[v] = int64(u)
				predEdge[v] = e
				heap.Push(h, heapItem{node: v, dist: nd})
			}
		}
	}

	return nil, &Error{Kind: KindUnreachable, Context: "no junction reachable within approach_max_m"}
}

func reconstructPath(predNode []int64, predEdge []uint32, source, target uint32) (nodes, edges []uint32) {
	nodes = []uint32{target}
	for n := target; n != source; {
		edges = append(edges, predEdge[n])
		n = uint32(predNode[n])
		nodes = append(nodes, n)
	}
	for i, j := 0, len(nodes)-1; i < j; i, j = i+1, j-1 {
		nodes[i], nodes[j] = nodes[j], nodes[i]
	}
	for i, j := 0, len(edges)-1; i < j; i, j = i+1, j-1 {
		edges[i], edges[j] = edges[j], edges[i]
	}
	return nodes, edges
}
