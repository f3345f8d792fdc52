// Package osmnetwork implements network.NetworkLoader over an OSM PBF
// extract of a signed cycling-junction network, following the Flemish
// "knooppunten" rcn/lcn tagging convention.
package osmnetwork

import (
	"context"
	"fmt"
	"io"
	"log"
	"math"
	"os"

	osmpkg "github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"

	"windloop/pkg/geo"
	"windloop/pkg/network"
)

// BBox is a geographic bounding box used to filter ways and nodes to a
// query region, mirroring the teacher's pkg/osm.BBox.
type BBox struct {
	MinLat, MaxLat float64
	MinLon, MaxLon float64
}

// BBoxAround returns the bounding box of a circle of the given radius
// centred on centre, using a fixed degrees-per-metre approximation for
// latitude and scaling the longitude extent by the cosine of the centre's
// latitude (valid at the scale a single loop-planning region spans).
func BBoxAround(centre geo.Coordinate, radiusM float64) BBox {
	const degPerMetre = 1.0 / 111_000.0
	d := radiusM * degPerMetre
	dLon := d / math.Cos(centre.Lat*math.Pi/180)
	return BBox{
		MinLat: centre.Lat - d,
		MaxLat: centre.Lat + d,
		MinLon: centre.Lon - dLon,
		MaxLon: centre.Lon + dLon,
	}
}

func bboxAround(centre geo.Coordinate, radiusM float64) BBox {
	return BBoxAround(centre, radiusM)
}

func (b BBox) contains(lat, lon float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lon >= b.MinLon && lon <= b.MaxLon
}

// Loader reads a signed cycling-junction network from a single OSM PBF
// file on disk, implementing network.NetworkLoader. It reparses the file
// on every Fetch; pkg/osmnetwork/cache.go exists precisely to spare
// repeated requests against the same region from paying that cost twice.
type Loader struct {
	PBFPath string
}

// NewLoader returns a Loader reading from pbfPath.
func NewLoader(pbfPath string) *Loader {
	return &Loader{PBFPath: pbfPath}
}

type wayInfo struct {
	nodeIDs []osmpkg.NodeID
}

// isJunctionNetworkRelation reports whether a relation's network tag marks
// it as a regional or local signed cycling-junction network.
func isJunctionNetworkRelation(tags osmpkg.Tags) bool {
	net := tags.Find("network")
	return net == "rcn" || net == "lcn"
}

// isJunctionNetworkWay reports whether a way is directly tagged as part of
// the junction network, independent of relation membership.
func isJunctionNetworkWay(tags osmpkg.Tags) bool {
	return tags.Find("rcn") == "yes" || tags.Find("lcn") == "yes"
}

// junctionLabel returns a node's public knooppunt label and true if the
// node carries an rcn_ref or lcn_ref tag, preferring rcn_ref when both are
// present.
func junctionLabel(tags osmpkg.Tags) (string, bool) {
	if ref := tags.Find("rcn_ref"); ref != "" {
		return ref, true
	}
	if ref := tags.Find("lcn_ref"); ref != "" {
		return ref, true
	}
	return "", false
}

// Fetch implements network.NetworkLoader.
func (l *Loader) Fetch(ctx context.Context, centre geo.Coordinate, radiusM float64) ([]network.RawNode, []network.RawEdge, error) {
	f, err := os.Open(l.PBFPath)
	if err != nil {
		return nil, nil, &network.Error{Kind: network.KindUnavailable, Context: err.Error()}
	}
	defer f.Close()

	bbox := bboxAround(centre, radiusM)

	// Pass 1: collect ways that qualify for the rcn/lcn network, either via
	// relation membership or a direct rcn=yes/lcn=yes tag.
	cyclingWays := make(map[osmpkg.WayID]bool)

	scanner := osmpbf.New(ctx, f, 1)
	scanner.SkipNodes = true

	for scanner.Scan() {
		switch obj := scanner.Object().(type) {
		case *osmpkg.Relation:
			if isJunctionNetworkRelation(obj.Tags) {
				for _, m := range obj.Members {
					if m.Type == osmpkg.TypeWay {
						cyclingWays[osmpkg.WayID(m.Ref)] = true
					}
				}
			}
		case *osmpkg.Way:
			if isJunctionNetworkWay(obj.Tags) {
				cyclingWays[obj.ID] = true
			}
		}
	}
	if err := scanner.Err(); err != nil {
		scanner.Close()
		return nil, nil, &network.Error{Kind: network.KindUnavailable, Context: fmt.Sprintf("pass 1 (relations/ways): %v", err)}
	}
	scanner.Close()

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, nil, &network.Error{Kind: network.KindUnavailable, Context: fmt.Sprintf("seek for pass 2: %v", err)}
	}

	referencedNodes := make(map[osmpkg.NodeID]struct{})
	var ways []wayInfo

	scanner = osmpbf.New(ctx, f, 1)
	scanner.SkipNodes = true
	scanner.SkipRelations = true

	for scanner.Scan() {
		w, ok := scanner.Object().(*osmpkg.Way)
		if !ok || !cyclingWays[w.ID] || len(w.Nodes) < 2 {
			continue
		}
		ids := make([]osmpkg.NodeID, len(w.Nodes))
		for i, wn := range w.Nodes {
			ids[i] = wn.ID
			referencedNodes[wn.ID] = struct{}{}
		}
		ways = append(ways, wayInfo{nodeIDs: ids})
	}
	if err := scanner.Err(); err != nil {
		scanner.Close()
		return nil, nil, &network.Error{Kind: network.KindUnavailable, Context: fmt.Sprintf("pass 2 (ways): %v", err)}
	}
	scanner.Close()

	// Pass 3: coordinates and rcn_ref/lcn_ref junction labels for the
	// referenced node set.
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, nil, &network.Error{Kind: network.KindUnavailable, Context: fmt.Sprintf("seek for pass 3: %v", err)}
	}

	coords := make(map[osmpkg.NodeID][2]float64, len(referencedNodes))
	labels := make(map[osmpkg.NodeID]string)

	scanner = osmpbf.New(ctx, f, 1)
	scanner.SkipWays = true
	scanner.SkipRelations = true

	for scanner.Scan() {
		n, ok := scanner.Object().(*osmpkg.Node)
		if !ok {
			continue
		}
		if _, needed := referencedNodes[n.ID]; !needed {
			continue
		}
		if !bbox.contains(n.Lat, n.Lon) {
			continue
		}
		coords[n.ID] = [2]float64{n.Lat, n.Lon}
		if label, ok := junctionLabel(n.Tags); ok {
			labels[n.ID] = label
		}
	}
	if err := scanner.Err(); err != nil {
		scanner.Close()
		return nil, nil, &network.Error{Kind: network.KindUnavailable, Context: fmt.Sprintf("pass 3 (nodes): %v", err)}
	}
	scanner.Close()

	nodes, edges := buildRawGraph(ways, coords, labels)

	junctionCount := 0
	for _, n := range nodes {
		if n.IsJunction {
			junctionCount++
		}
	}
	if junctionCount == 0 {
		return nil, nil, &network.Error{Kind: network.KindEmpty, Context: "no rcn/lcn junctions in range"}
	}

	log.Printf("osmnetwork: fetched %d nodes (%d junctions), %d edges within %.0fm of (%.5f,%.5f)",
		len(nodes), junctionCount, len(edges), radiusM, centre.Lat, centre.Lon)

	return nodes, edges, nil
}

func buildRawGraph(ways []wayInfo, coords map[osmpkg.NodeID][2]float64, labels map[osmpkg.NodeID]string) ([]network.RawNode, []network.RawEdge) {
	nodeIdx := make(map[osmpkg.NodeID]int)
	var nodes []network.RawNode

	nodeFor := func(id osmpkg.NodeID) (network.NodeID, bool) {
		if i, ok := nodeIdx[id]; ok {
			return network.NodeID(id), ok && i >= 0
		}
		c, ok := coords[id]
		if !ok {
			nodeIdx[id] = -1
			return network.NodeID(id), false
		}
		label, isJunction := labels[id]
		nodes = append(nodes, network.RawNode{
			ID:         network.NodeID(id),
			Coord:      geo.Coordinate{Lat: c[0], Lon: c[1]},
			IsJunction: isJunction,
			Label:      label,
		})
		nodeIdx[id] = len(nodes) - 1
		return network.NodeID(id), true
	}

	var edges []network.RawEdge
	var nextEdgeID network.EdgeID

	addEdge := func(from, to osmpkg.NodeID, polyline []osmpkg.NodeID) {
		fromID, ok1 := nodeFor(from)
		toID, ok2 := nodeFor(to)
		if !ok1 || !ok2 {
			return
		}
		fromCoord := geo.Coordinate{Lat: coords[from][0], Lon: coords[from][1]}
		toCoord := geo.Coordinate{Lat: coords[to][0], Lon: coords[to][1]}
		length := geo.Distance(fromCoord, toCoord)
		if length <= 0 {
			return
		}
		bearing := geo.Bearing(fromCoord, toCoord)

		poly := make([]network.NodeID, 0, len(polyline))
		for _, id := range polyline {
			if _, ok := coords[id]; ok {
				poly = append(poly, network.NodeID(id))
			}
		}

		edges = append(edges, network.RawEdge{
			ID:         nextEdgeID,
			From:       fromID,
			To:         toID,
			LengthM:    length,
			BearingDeg: bearing,
			Polyline:   poly,
		})
		nextEdgeID++
	}

	for _, w := range ways {
		for i := 0; i < len(w.nodeIDs)-1; i++ {
			from, to := w.nodeIDs[i], w.nodeIDs[i+1]
			if _, ok := coords[from]; !ok {
				continue
			}
			if _, ok := coords[to]; !ok {
				continue
			}
			seg := w.nodeIDs[i : i+2]
			addEdge(from, to, seg)
			addEdge(to, from, []osmpkg.NodeID{to, from})
		}
	}

	return nodes, edges
}
