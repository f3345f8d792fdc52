// planloop plans a single wind-optimized loop ride against a signed
// cycling-junction network, loaded from an OSM PBF extract or, when a
// matching binary cache is present, from that cache directly.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"windloop/pkg/fullgraph"
	"windloop/pkg/geo"
	"windloop/pkg/network"
	"windloop/pkg/osmnetwork"
	"windloop/pkg/planner"
	"windloop/pkg/wind"
)

func main() {
	pbfPath := flag.String("pbf", "", "Path to .osm.pbf file")
	cachePath := flag.String("cache", "", "Path to a binary network cache (read if present and covers the query region, written after a PBF fetch otherwise)")

	startLat := flag.Float64("start-lat", 0, "Ride start latitude")
	startLon := flag.Float64("start-lon", 0, "Ride start longitude")
	targetM := flag.Float64("target-m", 0, "Target loop distance in metres")

	windSpeed := flag.Float64("wind-speed", 0, "Wind speed in metres per second")
	windBearing := flag.Float64("wind-bearing", 0, "Wind direction in degrees, clockwise from true north, the direction the wind blows from")

	tolerance := flag.Float64("tolerance", 0, "Fractional tolerance around target-m (0 uses the default)")
	maxDepth := flag.Int("max-depth", 0, "Max junction-hops in a candidate loop (0 uses the default)")
	timeBudgetS := flag.Int("time-budget-s", 0, "Search wall-clock budget in seconds (0 uses the default)")
	candidateCap := flag.Int("candidate-cap", 0, "Max candidates to collect before stopping (0 uses the default)")

	flag.Parse()

	if *pbfPath == "" && *cachePath == "" {
		fmt.Fprintln(os.Stderr, "Usage: planloop [--pbf file.osm.pbf] [--cache network.cache] --start-lat <lat> --start-lon <lon> --target-m <m> [--wind-speed m/s] [--wind-bearing deg]")
		os.Exit(1)
	}
	if *targetM <= 0 {
		log.Fatalf("--target-m must be positive")
	}

	start := geo.Coordinate{Lat: *startLat, Lon: *startLon}
	w := wind.Vector{SpeedMS: *windSpeed, BearingDeg: *windBearing}

	opts := planner.DefaultOptions()
	if *tolerance > 0 {
		opts.Tolerance = *tolerance
	}
	if *maxDepth > 0 {
		opts.MaxDepth = *maxDepth
	}
	if *timeBudgetS > 0 {
		opts.TimeBudget = time.Duration(*timeBudgetS) * time.Second
	}
	if *candidateCap > 0 {
		opts.CandidateCap = *candidateCap
	}

	loader := newCacheAwareLoader(*pbfPath, *cachePath)

	begin := time.Now()
	plan, err := planner.Plan(context.Background(), loader, start, *targetM, w, opts)
	if err != nil {
		if pe, ok := err.(*planner.Error); ok {
			log.Fatalf("plan failed [%s]: %s", pe.Kind, pe.Context)
		}
		log.Fatalf("plan failed: %v", err)
	}

	log.Printf("Planned in %s", time.Since(begin).Round(time.Millisecond))
	fmt.Printf("Loop length: %.0f m (target %.0f m)\n", plan.ActualLengthM, *targetM)
	fmt.Printf("Junctions: %v\n", plan.JunctionLabels)
	fmt.Printf("Search radius used: %.0f m\n", plan.SearchRadiusM)
}

// cacheAwareLoader reads a binary cache if it exists and fully covers the
// requested region, otherwise falls through to the PBF loader and, if a
// cache path was given, writes the freshly fetched graph back out.
type cacheAwareLoader struct {
	pbf   *osmnetwork.Loader
	cache string
}

func newCacheAwareLoader(pbfPath, cachePath string) *cacheAwareLoader {
	var pbf *osmnetwork.Loader
	if pbfPath != "" {
		pbf = osmnetwork.NewLoader(pbfPath)
	}
	return &cacheAwareLoader{pbf: pbf, cache: cachePath}
}

func (l *cacheAwareLoader) Fetch(ctx context.Context, centre geo.Coordinate, radiusM float64) ([]network.RawNode, []network.RawEdge, error) {
	want := osmnetwork.BBoxAround(centre, radiusM)

	if l.cache != "" {
		if full, cached, err := osmnetwork.ReadCache(l.cache); err == nil && cached.Covers(want) {
			log.Printf("Using cached network from %s", l.cache)
			return networkFromFullGraph(full)
		}
	}

	if l.pbf == nil {
		return nil, nil, &network.Error{Kind: network.KindUnavailable, Context: "cache miss and no --pbf given"}
	}

	nodes, edges, err := l.pbf.Fetch(ctx, centre, radiusM)
	if err != nil {
		return nil, nil, err
	}

	if l.cache != "" {
		full := fullgraph.Build(nodes, edges)
		if component := fullgraph.LargestComponent(full); len(component) > 0 {
			full = fullgraph.FilterToComponent(full, component)
		}
		if err := osmnetwork.WriteCache(l.cache, full, want); err != nil {
			log.Printf("warning: failed to write cache to %s: %v", l.cache, err)
		}
	}

	return nodes, edges, nil
}

// networkFromFullGraph converts an already-built fullgraph.Graph back into
// the raw node/edge shape NetworkLoader.Fetch returns, so a cache hit can
// flow through the same fullgraph.Build step the PBF path uses. This keeps
// Plan's pipeline uniform regardless of where the network came from.
func networkFromFullGraph(g *fullgraph.Graph) ([]network.RawNode, []network.RawEdge, error) {
	nodes := make([]network.RawNode, g.NumNodes)
	for i := uint32(0); i < g.NumNodes; i++ {
		nodes[i] = network.RawNode{
			ID:         network.NodeID(i),
			Coord:      geo.Coordinate{Lat: g.NodeLat[i], Lon: g.NodeLon[i]},
			IsJunction: g.IsJunction[i],
			Label:      g.Label[i],
		}
	}

	// osmnetwork.Loader never emits edges with interior shape points (each
	// way is split into one edge per consecutive node pair), so every
	// cached edge's geometry is exactly its two endpoints; a two-point
	// polyline round-trips it losslessly.
	var edges []network.RawEdge
	for u := uint32(0); u < g.NumNodes; u++ {
		start, end := g.FirstOut[u], g.FirstOut[u+1]
		for e := start; e < end; e++ {
			edges = append(edges, network.RawEdge{
				ID:         network.EdgeID(e),
				From:       network.NodeID(u),
				To:         network.NodeID(g.Head[e]),
				LengthM:    g.Weight[e],
				BearingDeg: g.Bearing[e],
				Polyline:   []network.NodeID{network.NodeID(u), network.NodeID(g.Head[e])},
			})
		}
	}

	return nodes, edges, nil
}
