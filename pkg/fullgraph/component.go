package fullgraph

import "sort"

// unionFind is a disjoint-set structure with path halving and union by
// rank, used to find G_full's largest weakly-connected component.
type unionFind struct {
	parent []uint32
	rank   []byte
	size   []uint32
}

func newUnionFind(n uint32) *unionFind {
	parent := make([]uint32, n)
	size := make([]uint32, n)
	for i := range n {
		parent[i] = i
		size[i] = 1
	}
	return &unionFind{parent: parent, rank: make([]byte, n), size: size}
}

func (uf *unionFind) find(x uint32) uint32 {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]]
		x = uf.parent[x]
	}
	return x
}

func (uf *unionFind) union(x, y uint32) {
	rx, ry := uf.find(x), uf.find(y)
	if rx == ry {
		return
	}
	if uf.rank[rx] < uf.rank[ry] {
		rx, ry = ry, rx
	}
	uf.parent[ry] = rx
	uf.size[rx] += uf.size[ry]
	if uf.rank[rx] == uf.rank[ry] {
		uf.rank[rx]++
	}
}

// buildUnionFind unions every node with each of its edge targets, treating
// directed edges as undirected for the purpose of weak connectivity.
func buildUnionFind(g *Graph) *unionFind {
	uf := newUnionFind(g.NumNodes)
	for u := uint32(0); u < g.NumNodes; u++ {
		start, end := g.EdgesFrom(NodeIdx(u))
		for e := start; e < end; e++ {
			uf.union(u, g.Head[e])
		}
	}
	return uf
}

// LargestComponent returns the node indices of G_full's largest weakly
// connected component (directed edges treated as undirected for the
// purpose of connectivity). This is a cache-warming/preprocessing policy
// (see cmd/buildcache), not a substitute for per-request start-anchoring:
// a planning request must restrict itself to the component containing the
// rider's start point, which is what ComponentContaining is for.
func LargestComponent(g *Graph) []uint32 {
	if g.NumNodes == 0 {
		return nil
	}

	uf := buildUnionFind(g)

	bestRoot, bestSize := uint32(0), uint32(0)
	for i := uint32(0); i < g.NumNodes; i++ {
		root := uf.find(i)
		if uf.size[root] > bestSize {
			bestRoot, bestSize = root, uf.size[root]
		}
	}

	nodes := make([]uint32, 0, bestSize)
	for i := uint32(0); i < g.NumNodes; i++ {
		if uf.find(i) == bestRoot {
			nodes = append(nodes, i)
		}
	}
	return nodes
}

// ComponentContaining returns the node indices of the weakly connected
// component containing start, in ascending order. A planning request must
// search only within this component (spec §4.F): the fetched region may
// contain other components start cannot reach at all, and silently
// searching the largest of them instead of start's own is a correctness
// bug, not a fallback.
func ComponentContaining(g *Graph, start uint32) []uint32 {
	if g.NumNodes == 0 {
		return nil
	}

	uf := buildUnionFind(g)
	root := uf.find(start)

	nodes := make([]uint32, 0, uf.size[root])
	for i := uint32(0); i < g.NumNodes; i++ {
		if uf.find(i) == root {
			nodes = append(nodes, i)
		}
	}
	return nodes
}

// IndexInComponent returns oldIdx's dense index within the Graph produced
// by FilterToComponent(g, nodes), since that reindexing discards the
// original node numbering. nodes must be in ascending order, as returned
// by LargestComponent/ComponentContaining.
func IndexInComponent(nodes []uint32, oldIdx uint32) (uint32, bool) {
	i := sort.Search(len(nodes), func(i int) bool { return nodes[i] >= oldIdx })
	if i < len(nodes) && nodes[i] == oldIdx {
		return uint32(i), true
	}
	return 0, false
}

// FilterToComponent returns a new Graph containing only the given node
// indices and the edges fully within them, reindexed densely from 0.
func FilterToComponent(g *Graph, nodes []uint32) *Graph {
	if len(nodes) == 0 {
		return &Graph{}
	}

	oldToNew := make(map[uint32]uint32, len(nodes))
	for newIdx, oldIdx := range nodes {
		oldToNew[oldIdx] = uint32(newIdx)
	}
	numNodes := uint32(len(nodes))

	type edge struct {
		from, to          uint32
		weight, bearing   float64
		rawID             uint64
		shapeLats         []float64
		shapeLons         []float64
	}
	var edges []edge

	for _, oldU := range nodes {
		start, end := g.EdgesFrom(NodeIdx(oldU))
		for e := start; e < end; e++ {
			oldV := g.Head[e]
			newV, ok := oldToNew[oldV]
			if !ok {
				continue
			}
			geoStart, geoEnd := g.GeoFirstOut[e], g.GeoFirstOut[e+1]
			edges = append(edges, edge{
				from:      oldToNew[oldU],
				to:        newV,
				weight:    g.Weight[e],
				bearing:   g.Bearing[e],
				rawID:     g.EdgeRawID[e],
				shapeLats: append([]float64(nil), g.GeoShapeLat[geoStart:geoEnd]...),
				shapeLons: append([]float64(nil), g.GeoShapeLon[geoStart:geoEnd]...),
			})
		}
	}

	numEdges := uint32(len(edges))
	firstOut := make([]uint32, numNodes+1)
	head := make([]uint32, numEdges)
	weight := make([]float64, numEdges)
	bearing := make([]float64, numEdges)
	rawID := make([]uint64, numEdges)
	geoFirstOut := make([]uint32, numEdges+1)
	var geoShapeLat, geoShapeLon []float64

	for _, e := range edges {
		firstOut[e.from+1]++
	}
	for i := uint32(1); i <= numNodes; i++ {
		firstOut[i] += firstOut[i-1]
	}

	pos := make([]uint32, numNodes)
	copy(pos, firstOut[:numNodes])
	for _, e := range edges {
		p := pos[e.from]
		head[p] = e.to
		weight[p] = e.weight
		bearing[p] = e.bearing
		rawID[p] = e.rawID
		geoFirstOut[p] = uint32(len(geoShapeLat))
		geoShapeLat = append(geoShapeLat, e.shapeLats...)
		geoShapeLon = append(geoShapeLon, e.shapeLons...)
		pos[e.from]++
	}
	geoFirstOut[numEdges] = uint32(len(geoShapeLat))

	nodeLat := make([]float64, numNodes)
	nodeLon := make([]float64, numNodes)
	isJunction := make([]bool, numNodes)
	label := make([]string, numNodes)
	for newIdx, oldIdx := range nodes {
		nodeLat[newIdx] = g.NodeLat[oldIdx]
		nodeLon[newIdx] = g.NodeLon[oldIdx]
		isJunction[newIdx] = g.IsJunction[oldIdx]
		label[newIdx] = g.Label[oldIdx]
	}

	return &Graph{
		NumNodes:    numNodes,
		NumEdges:    numEdges,
		FirstOut:    firstOut,
		Head:        head,
		Weight:      weight,
		Bearing:     bearing,
		NodeLat:     nodeLat,
		NodeLon:     nodeLon,
		IsJunction:  isJunction,
		Label:       label,
		EdgeRawID:   rawID,
		GeoFirstOut: geoFirstOut,
		GeoShapeLat: geoShapeLat,
		GeoShapeLon: geoShapeLon,
	}
}
