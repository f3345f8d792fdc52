package junction

import (
	"math"

	"windloop/pkg/fullgraph"
	"windloop/pkg/geo"
)

// minHeap is a concrete-typed min-heap over (fullgraph node, distance)
// pairs. A concrete type avoids the interface-boxing overhead of
// container/heap for the O(|V| log |V|) per-junction searches this
// package runs once per junction at graph-build time.
type minHeap struct {
	items []heapItem
}

type heapItem struct {
	node uint32
	dist float64
}

func (h *minHeap) Len() int { return len(h.items) }

func (h *minHeap) Push(node uint32, dist float64) {
	h.items = append(h.items, heapItem{node, dist})
	h.siftUp(len(h.items) - 1)
}

func (h *minHeap) Pop() heapItem {
	n := len(h.items)
	item := h.items[0]
	h.items[0] = h.items[n-1]
	h.items = h.items[:n-1]
	if len(h.items) > 0 {
		h.siftDown(0)
	}
	return item
}

func (h *minHeap) Reset() { h.items = h.items[:0] }

func (h *minHeap) siftUp(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if h.items[i].dist >= h.items[parent].dist {
			break
		}
		h.items[i], h.items[parent] = h.items[parent], h.items[i]
		i = parent
	}
}

func (h *minHeap) siftDown(i int) {
	n := len(h.items)
	for {
		smallest := i
		l, r := 2*i+1, 2*i+2
		if l < n && h.items[l].dist < h.items[smallest].dist {
			smallest = l
		}
		if r < n && h.items[r].dist < h.items[smallest].dist {
			smallest = r
		}
		if smallest == i {
			break
		}
		h.items[i], h.items[smallest] = h.items[smallest], h.items[i]
		i = smallest
	}
}

// pairKey packs two dense full-graph node indices into an order-independent
// key, used to keep only the shorter of two discovered corridors for the
// same unordered junction pair (spec.md §4.D: "keep the version with
// smaller length").
func pairKey(a, b uint32) uint64 {
	if a > b {
		a, b = b, a
	}
	return uint64(a)<<32 | uint64(b)
}

// corridor is a discovered junction-to-junction path before deduplication.
type corridor struct {
	fromFull, toFull uint32
	length           float64
	rawEdges         []uint32
}

// Build condenses full into the junction graph G_jct: for every junction,
// a single-source Dijkstra search that halts expansion at any other
// junction it dequeues, per spec.md §4.D.
func Build(full *fullgraph.Graph) *Graph {
	junctionFull := make([]uint32, 0)
	for i := uint32(0); i < full.NumNodes; i++ {
		if full.IsJunction[i] {
			junctionFull = append(junctionFull, i)
		}
	}

	best := make(map[uint64]corridor)

	var heap minHeap
	dist := make([]float64, full.NumNodes)
	predNode := make([]int64, full.NumNodes) // predecessor node, or -1
	predEdge := make([]uint32, full.NumNodes)
	settled := make([]bool, full.NumNodes)
	touched := make([]uint32, 0, 256)

	resetTouched := func() {
		for _, n := range touched {
			dist[n] = math.Inf(1)
			predNode[n] = -1
			settled[n] = false
		}
		touched = touched[:0]
	}
	for i := range dist {
		dist[i] = math.Inf(1)
		predNode[i] = -1
	}

	for _, j := range junctionFull {
		heap.Reset()
		resetTouched()

		dist[j] = 0
		touched = append(touched, j)
		heap.Push(j, 0)

		for heap.Len() > 0 {
			it := heap.Pop()
			u := it.node
			if settled[u] {
				continue
			}
			if it.dist > dist[u] {
				continue // stale entry
			}
			settled[u] = true

			if u != j && full.IsJunction[u] {
				// Halt expansion: reconstruct the raw-edge path j -> u and
				// record the corridor without visiting u's own edges.
				rawEdges := reconstructPath(predNode, predEdge, j, u)
				key := pairKey(j, u)
				if existing, ok := best[key]; !ok || dist[u] < existing.length {
					best[key] = corridor{fromFull: j, toFull: u, length: dist[u], rawEdges: rawEdges}
				}
				continue
			}

			start, end := full.EdgesFrom(fullgraph.NodeIdx(u))
			for e := start; e < end; e++ {
				v := full.Head[e]
				if settled[v] {
					continue
				}
				nd := dist[u] + full.Weight[e]
				if nd < dist[v] {
					if math.IsInf(dist[v], 1) {
						touched = append(touched, v)
					}
					dist[v] = nd
					predNode[v] = int64(u)
					predEdge[v] = e
					heap.Push(v, nd)
				}
			}
		}
	}

	return assemble(full, junctionFull, best)
}

// reconstructPath walks predNode/predEdge back from target to source, in
// forward order, returning the full-graph edge indices traversed.
func reconstructPath(predNode []int64, predEdge []uint32, source, target uint32) []uint32 {
	var rev []uint32
	for n := target; n != source; {
		e := predEdge[n]
		rev = append(rev, e)
		n = uint32(predNode[n])
	}
	for i, j := 0, len(rev)-1; i < j; i, j = i+1, j-1 {
		rev[i], rev[j] = rev[j], rev[i]
	}
	return rev
}

func assemble(full *fullgraph.Graph, junctionFull []uint32, best map[uint64]corridor) *Graph {
	// Map full-graph node index -> junction NodeIdx.
	toJctIdx := make(map[uint32]NodeIdx, len(junctionFull))
	for i, f := range junctionFull {
		toJctIdx[f] = NodeIdx(i)
	}

	g := &Graph{
		FullIdx: append([]uint32(nil), junctionFull...),
		Label:   make([]string, len(junctionFull)),
		Lat:     make([]float64, len(junctionFull)),
		Lon:     make([]float64, len(junctionFull)),
	}
	for i, f := range junctionFull {
		g.Label[i] = full.Label[f]
		g.Lat[i] = full.NodeLat[f]
		g.Lon[i] = full.NodeLon[f]
	}

	for _, c := range best {
		u := toJctIdx[c.fromFull]
		v := toJctIdx[c.toFull]
		bearing := geo.Bearing(g.Coord(u), g.Coord(v))
		g.Edges = append(g.Edges, Edge{
			U:          u,
			V:          v,
			LengthM:    c.length,
			BearingDeg: bearing,
			RawEdges:   c.rawEdges,
		})
	}

	g.buildAdjacency()
	return g
}
