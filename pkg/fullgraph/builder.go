package fullgraph

import (
	"sort"

	"windloop/pkg/network"
)

// Build constructs G_full from a loader's raw nodes and edges: nodes are
// deduplicated by identifier, lengths recomputed via geo.Distance is the
// loader's job (RawEdge.LengthM is taken as given), zero-length edges are
// dropped, and edges referencing a missing endpoint are dropped.
func Build(nodes []network.RawNode, edges []network.RawEdge) *Graph {
	if len(nodes) == 0 {
		return &Graph{}
	}

	idx := make(map[network.NodeID]uint32, len(nodes))
	unique := make([]network.RawNode, 0, len(nodes))
	for _, n := range nodes {
		if _, dup := idx[n.ID]; dup {
			continue // keep the first node seen for each identifier
		}
		idx[n.ID] = uint32(len(unique))
		unique = append(unique, n)
	}
	nodes = unique

	numNodes := uint32(len(nodes))

	type compactEdge struct {
		from, to   uint32
		weight     float64
		bearing    float64
		rawID      uint64
		shapeLats  []float64
		shapeLons  []float64
	}

	compact := make([]compactEdge, 0, len(edges))
	for _, e := range edges {
		fromIdx, ok1 := idx[e.From]
		toIdx, ok2 := idx[e.To]
		if !ok1 || !ok2 {
			continue // drop edges with missing endpoints
		}
		if e.LengthM <= 0 {
			continue // drop zero/negative-length edges
		}

		shapeLats := make([]float64, 0, len(e.Polyline))
		shapeLons := make([]float64, 0, len(e.Polyline))
		for _, pid := range e.Polyline {
			pi, ok := idx[pid]
			if !ok {
				continue
			}
			shapeLats = append(shapeLats, nodes[pi].Coord.Lat)
			shapeLons = append(shapeLons, nodes[pi].Coord.Lon)
		}
		if len(shapeLats) == 0 {
			// No usable polyline: fall back to the two endpoints.
			shapeLats = []float64{nodes[fromIdx].Coord.Lat, nodes[toIdx].Coord.Lat}
			shapeLons = []float64{nodes[fromIdx].Coord.Lon, nodes[toIdx].Coord.Lon}
		}

		compact = append(compact, compactEdge{
			from:      fromIdx,
			to:        toIdx,
			weight:    e.LengthM,
			bearing:   e.BearingDeg,
			rawID:     uint64(e.ID),
			shapeLats: shapeLats,
			shapeLons: shapeLons,
		})
	}

	// Sort by (from, to) so the CSR construction below is a single
	// counting pass instead of per-edge map lookups.
	sort.Slice(compact, func(i, j int) bool {
		if compact[i].from != compact[j].from {
			return compact[i].from < compact[j].from
		}
		return compact[i].to < compact[j].to
	})

	numEdges := uint32(len(compact))
	firstOut := make([]uint32, numNodes+1)
	head := make([]uint32, numEdges)
	weight := make([]float64, numEdges)
	bearing := make([]float64, numEdges)
	edgeRawID := make([]uint64, numEdges)
	geoFirstOut := make([]uint32, numEdges+1)
	var geoShapeLat, geoShapeLon []float64

	for i, e := range compact {
		head[i] = e.to
		weight[i] = e.weight
		bearing[i] = e.bearing
		edgeRawID[i] = e.rawID
		geoFirstOut[i] = uint32(len(geoShapeLat))
		geoShapeLat = append(geoShapeLat, e.shapeLats...)
		geoShapeLon = append(geoShapeLon, e.shapeLons...)
	}
	geoFirstOut[numEdges] = uint32(len(geoShapeLat))

	for _, e := range compact {
		firstOut[e.from+1]++
	}
	for i := uint32(1); i <= numNodes; i++ {
		firstOut[i] += firstOut[i-1]
	}

	nodeLat := make([]float64, numNodes)
	nodeLon := make([]float64, numNodes)
	isJunction := make([]bool, numNodes)
	label := make([]string, numNodes)
	for i, n := range nodes {
		nodeLat[i] = n.Coord.Lat
		nodeLon[i] = n.Coord.Lon
		isJunction[i] = n.IsJunction
		label[i] = n.Label
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
		EdgeRawID:   edgeRawID,
		GeoFirstOut: geoFirstOut,
		GeoShapeLat: geoShapeLat,
		GeoShapeLon: geoShapeLon,
	}
}
