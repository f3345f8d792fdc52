// Package network defines the raw data model and collaborator interfaces
// the core consumes: an opaque source of street/junction data for a region
// (NetworkLoader), and the wind/geocoding collaborators the core's caller
// may wire in but the core itself never calls directly.
package network

import (
	"context"
	"time"

	"windloop/pkg/geo"
	"windloop/pkg/wind"
)

// NodeID identifies a raw node within a single loader response. IDs are
// only required to be unique within one Fetch call.
type NodeID uint64

// EdgeID identifies a raw edge within a single loader response.
type EdgeID uint64

// RawNode is a node of the full street-level graph: a coordinate, and
// whether it is a signed cycling junction. Junctions additionally carry a
// short public label (e.g. "32").
type RawNode struct {
	ID         NodeID
	Coord      geo.Coordinate
	IsJunction bool
	Label      string // only meaningful when IsJunction
}

// RawEdge connects two raw nodes. Stored directionally (From -> To) so
// bearing is well defined; an undirected street is represented by two
// RawEdges with opposite direction and identical length. Polyline holds
// the ordered raw-node IDs this edge's geometry traverses, including From
// and To as its first and last elements.
type RawEdge struct {
	ID         EdgeID
	From, To   NodeID
	LengthM    float64
	BearingDeg float64
	Polyline   []NodeID
}

// Kind enumerates the failure modes a NetworkLoader can report.
type Kind string

const (
	// KindUnavailable is a transient failure; callers may retry.
	KindUnavailable Kind = "NetworkUnavailable"
	// KindEmpty means the loader returned a region with no junctions. Fatal
	// for the request.
	KindEmpty Kind = "NetworkEmpty"
)

// Error is returned by NetworkLoader.Fetch.
type Error struct {
	Kind    Kind
	Context string
}

func (e *Error) Error() string {
	if e.Context == "" {
		return string(e.Kind)
	}
	return string(e.Kind) + ": " + e.Context
}

// NetworkLoader is an abstract source of raw streets and junctions for a
// bounding region. The core treats it as opaque.
type NetworkLoader interface {
	Fetch(ctx context.Context, centre geo.Coordinate, radiusM float64) (nodes []RawNode, edges []RawEdge, err error)
}

// WindProvider supplies a wind observation or forecast for a coordinate.
// The core never calls this directly; it is consumed only by the core's
// caller, which resolves a WindVector before calling the orchestrator.
type WindProvider interface {
	Current(ctx context.Context, centre geo.Coordinate) (wind.Vector, error)
	Forecast(ctx context.Context, centre geo.Coordinate, at time.Time) (wind.Vector, error)
}

// Geocoder resolves free-text to a coordinate. Like WindProvider, only the
// core's caller consumes this; the core itself accepts coordinates.
type Geocoder interface {
	Resolve(ctx context.Context, text string) (geo.Coordinate, error)
}
