package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/atlascommand/chaincontrol/server/internal/clients/caltrans"
	"github.com/atlascommand/chaincontrol/server/internal/lib/chaincontrol"
	"github.com/atlascommand/chaincontrol/server/internal/lib/geo"
)

func main() {
	var (
		url     = flag.String("url", caltrans.DefaultChainControlsURL, "Chain control KML feed URL")
		file    = flag.String("file", "", "Parse a local KML file instead of the live feed")
		lat     = flag.Float64("lat", 39.3157, "Latitude for geographic filtering")
		lon     = flag.Float64("lon", -120.3268, "Longitude for geographic filtering")
		radius  = flag.Float64("radius", 30, "Radius in miles for geographic filtering")
		filter  = flag.Bool("filter", false, "Enable geographic filtering")
		showAll = flag.Bool("all", false, "Include placemarks with no chain control")
		help    = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		fmt.Printf("Caltrans Chain Control Feed Test Tool\n\n")
		fmt.Printf("Fetches and parses the Caltrans chain control KML feed.\n\n")
		fmt.Printf("Usage: %s [options]\n\n", os.Args[0])
		fmt.Printf("Options:\n")
		flag.PrintDefaults()
		fmt.Printf("\nExamples:\n")
		fmt.Printf("  %s\n", os.Args[0])
		fmt.Printf("  %s -filter -lat=38.8130 -lon=-120.0330 -radius=20\n", os.Args[0])
		fmt.Printf("  %s -file=cc.kml -all  # Parse a saved copy of the feed\n", os.Args[0])
		return
	}

	fmt.Printf("Caltrans Chain Control Feed Test\n")
	fmt.Printf("================================\n")

	var (
		controls []caltrans.ChainControl
		err      error
	)
	start := time.Now()
	if *file != "" {
		fmt.Printf("Mode: Offline (%s)\n", *file)
		f, openErr := os.Open(*file)
		if openErr != nil {
			log.Fatalf("Failed to open %s: %v", *file, openErr)
		}
		defer f.Close()
		controls, err = caltrans.ParseChainControls(f, time.Now())
	} else {
		fmt.Printf("Mode: Online (%s)\n", *url)
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		controls, err = caltrans.NewClient(*url).ChainControls(ctx)
	}
	if err != nil {
		log.Fatalf("Failed to load chain controls: %v", err)
	}
	fmt.Printf("Parsed %d placemarks in %v\n", len(controls), time.Since(start).Round(time.Millisecond))

	center := geo.Point{Latitude: *lat, Longitude: *lon}
	if *filter {
		fmt.Printf("Geographic filter: %.4f, %.4f (%.0f mi radius)\n", *lat, *lon, *radius)
	}
	fmt.Printf("\n")

	counts := map[string]int{}
	for _, control := range controls {
		counts[control.Level.Code]++
		if !*showAll && !control.Level.IsRestricted() {
			continue
		}

		distance := geo.HaversineMiles(center, control.Location)
		if *filter && distance > *radius {
			continue
		}

		fmt.Printf("%s %s\n", chaincontrol.ChainControlEmoji(control.Level), control.Name)
		fmt.Printf("   Level: %s\n", control.Level.Name)
		fmt.Printf("   Location: %.5f, %.5f", control.Location.Latitude, control.Location.Longitude)
		if *filter {
			fmt.Printf(" (%.1f mi away)", distance)
		}
		fmt.Printf("\n")
		if len(control.Dates) > 0 {
			fmt.Printf("   Dates: %v\n", control.Dates)
		}
		if control.Description != "" {
			fmt.Printf("   %s\n", control.Description)
		}
		fmt.Printf("\n")
	}

	fmt.Printf("Summary by level:\n")
	for _, level := range chaincontrol.Levels() {
		fmt.Printf("  %-4s %d\n", level.Code, counts[level.Code])
	}
}
