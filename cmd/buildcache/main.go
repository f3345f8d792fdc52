// buildcache fetches a signed cycling-junction network from an OSM PBF
// extract and writes its full graph to a binary cache file, so a later
// planloop invocation over the same region can skip re-parsing the PBF.
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
	"windloop/pkg/osmnetwork"
)

func main() {
	pbfPath := flag.String("pbf", "", "Path to .osm.pbf file")
	output := flag.String("output", "network.cache", "Output binary cache file path")
	centreLat := flag.Float64("centre-lat", 0, "Region centre latitude")
	centreLon := flag.Float64("centre-lon", 0, "Region centre longitude")
	radiusM := flag.Float64("radius-m", 20000, "Region radius in metres around the centre")
	flag.Parse()

	if *pbfPath == "" {
		fmt.Fprintln(os.Stderr, "Usage: buildcache --pbf <file.osm.pbf> --centre-lat <lat> --centre-lon <lon> [--radius-m 20000] [--output network.cache]")
		os.Exit(1)
	}

	start := time.Now()
	centre := geo.Coordinate{Lat: *centreLat, Lon: *centreLon}

	log.Printf("Fetching junction network from %s...", *pbfPath)
	loader := osmnetwork.NewLoader(*pbfPath)
	nodes, edges, err := loader.Fetch(context.Background(), centre, *radiusM)
	if err != nil {
		log.Fatalf("Failed to fetch network: %v", err)
	}
	log.Printf("Fetched %d nodes, %d edges", len(nodes), len(edges))

	log.Println("Building full graph...")
	full := fullgraph.Build(nodes, edges)
	log.Printf("Graph: %d nodes, %d edges", full.NumNodes, full.NumEdges)

	log.Println("Extracting largest connected component...")
	component := fullgraph.LargestComponent(full)
	log.Printf("Largest component: %d nodes (%.1f%%)", len(component), float64(len(component))/float64(full.NumNodes)*100)
	full = fullgraph.FilterToComponent(full, component)
	log.Printf("Filtered graph: %d nodes, %d edges", full.NumNodes, full.NumEdges)

	bbox := osmnetwork.BBoxAround(centre, *radiusM)

	log.Printf("Writing cache to %s...", *output)
	if err := osmnetwork.WriteCache(*output, full, bbox); err != nil {
		log.Fatalf("Failed to write cache: %v", err)
	}

	info, _ := os.Stat(*output)
	elapsed := time.Since(start)
	log.Printf("Done in %s. Output: %s (%.1f MB)", elapsed.Round(time.Second), *output, float64(info.Size())/(1024*1024))
}
