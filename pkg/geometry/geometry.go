// Package geometry expands junction-graph edges and full-graph paths back
// into polylines over raw-node coordinates.
package geometry

import (
	"github.com/paulmach/orb"

	"windloop/pkg/fullgraph"
)

// ExpandEdges concatenates the raw-edge polylines of a sequence of full
// graph edge indices, traversed starting at startNode, into one polyline.
// Consecutive edges must share an endpoint; the shared joint coordinate is
// not duplicated.
func ExpandEdges(full *fullgraph.Graph, startNode uint32, edgeIdx []uint32) orb.LineString {
	if len(edgeIdx) == 0 {
		return orb.LineString{{full.NodeLon[startNode], full.NodeLat[startNode]}}
	}

	var line orb.LineString
	cur := startNode

	for _, e := range edgeIdx {
		source := edgeSource(full, e)
		shape := edgeShape(full, e, source == cur)
		if len(line) > 0 && len(shape) > 0 {
			shape = shape[1:] // drop duplicated joint coordinate
		}
		line = append(line, shape...)
		if source == cur {
			cur = full.Head[e]
		} else {
			cur = source
		}
	}

	return line
}

// edgeShape returns edge e's polyline, reversed when forward is false so
// the caller always receives it oriented in the direction of travel.
func edgeShape(full *fullgraph.Graph, e uint32, forward bool) orb.LineString {
	geoStart, geoEnd := full.GeoFirstOut[e], full.GeoFirstOut[e+1]
	n := geoEnd - geoStart
	shape := make(orb.LineString, n)
	for i := uint32(0); i < n; i++ {
		shape[i] = orb.Point{full.GeoShapeLon[geoStart+i], full.GeoShapeLat[geoStart+i]}
	}
	if forward {
		return shape
	}
	reversed := make(orb.LineString, n)
	for i, p := range shape {
		reversed[n-1-uint32(i)] = p
	}
	return reversed
}

// edgeSource finds the source node of edge index e via a binary search over
// FirstOut, which G_full's CSR layout keeps sorted by source.
func edgeSource(full *fullgraph.Graph, e uint32) uint32 {
	lo, hi := uint32(0), full.NumNodes
	for lo < hi {
		mid := (lo + hi) / 2
		if full.FirstOut[mid+1] <= e {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// SpliceLoop concatenates a sequence of ExpandEdges results (one per
// junction edge of a winning cycle) into a single closed polyline, again
// without duplicating joint coordinates.
func SpliceLoop(segments []orb.LineString) orb.LineString {
	var line orb.LineString
	for _, seg := range segments {
		if len(line) > 0 && len(seg) > 0 {
			seg = seg[1:]
		}
		line = append(line, seg...)
	}
	return line
}
