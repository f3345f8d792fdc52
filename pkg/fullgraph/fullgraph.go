// Package fullgraph builds the full street-level graph G_full: a directed
// multigraph over raw nodes and raw edges, stored in compressed-sparse-row
// form so the junction-graph builder and the approach-path finder can walk
// it with O(1) per-step allocation.
package fullgraph


// NodeIdx and EdgeIdx are dense indices into a Graph's parallel slices,
// distinct from the network.NodeID/EdgeID a loader hands back.
type NodeIdx uint32
type EdgeIdx uint32

// Graph is a directed graph in CSR (compressed sparse row) format. Nodes
// are referenced by dense index rather than pointer, per the arena
// representation spec.md §9 calls for: this avoids reference cycles and
// makes per-request copies (e.g. of edge attributes alone) cheap.
type Graph struct {
	NumNodes uint32
	NumEdges uint32

	FirstOut []uint32 // len NumNodes+1; FirstOut[i]..FirstOut[i+1] are edges from node i
	Head     []uint32 // len NumEdges; target node index for each edge
	Weight   []float64 // len NumEdges; length in metres
	Bearing  []float64 // len NumEdges; initial bearing in degrees, [0, 360)

	NodeLat []float64 // len NumNodes
	NodeLon []float64 // len NumNodes

	// IsJunction/Label mirror network.RawNode's junction flag and label,
	// indexed the same way as NodeLat/NodeLon.
	IsJunction []bool
	Label      []string

	// EdgeRawID[e] is the originating network.EdgeID for edge e, so the
	// geometry expander can trace a junction edge's shortest path back to
	// loader-native edge identifiers if a caller needs them.
	EdgeRawID []uint64

	// GeoFirstOut/GeoShapeLat/GeoShapeLon hold each edge's full polyline,
	// including both endpoints, flattened into one backing array.
	GeoFirstOut []uint32
	GeoShapeLat []float64
	GeoShapeLon []float64
}

// EdgesFrom returns the edge index range [start, end) for edges out of u.
func (g *Graph) EdgesFrom(u NodeIdx) (start, end uint32) {
	return g.FirstOut[u], g.FirstOut[u+1]
}
