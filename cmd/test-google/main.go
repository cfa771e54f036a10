package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/atlascommand/chaincontrol/server/internal/clients/google"
	"github.com/atlascommand/chaincontrol/server/internal/lib/chaincontrol"
	"github.com/atlascommand/chaincontrol/server/internal/lib/geo"
	"github.com/atlascommand/chaincontrol/server/internal/services"
)

func main() {
	var (
		apiKey    = flag.String("api-key", "", "Google Routes API key (or set GOOGLE_ROUTES_API_KEY env var)")
		originStr = flag.String("origin", "38.581600,-121.494400", "Origin coordinates (lat,lon)")
		destStr   = flag.String("dest", "39.529600,-119.813800", "Destination coordinates (lat,lon)")
		radius    = flag.Float64("radius", chaincontrol.DefaultSearchRadiusMiles, "Pass search radius in miles")
		help      = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		fmt.Printf("Google Routes API Test Tool\n\n")
		fmt.Printf("Computes a route and lists the mountain passes along it.\n\n")
		fmt.Printf("Usage: %s [options]\n\n", os.Args[0])
		fmt.Printf("Options:\n")
		flag.PrintDefaults()
		fmt.Printf("\nExamples:\n")
		fmt.Printf("  %s -api-key=YOUR_KEY\n", os.Args[0])
		fmt.Printf("  %s -origin=\"39.7392,-104.9903\" -dest=\"39.6403,-106.3742\"\n", os.Args[0])
		fmt.Printf("  GOOGLE_ROUTES_API_KEY=your_key %s\n", os.Args[0])
		return
	}

	key := *apiKey
	if key == "" {
		key = os.Getenv("GOOGLE_API_KEY")
		if key == "" {
			key = os.Getenv("GOOGLE_ROUTES_API_KEY")
		}
	}
	if key == "" {
		log.Fatal("Google Routes API key required. Use -api-key flag or GOOGLE_API_KEY/GOOGLE_ROUTES_API_KEY env var")
	}

	var originLat, originLon, destLat, destLon float64
	if _, err := fmt.Sscanf(*originStr, "%f,%f", &originLat, &originLon); err != nil {
		log.Fatalf("Invalid origin coordinates: %v", err)
	}
	if _, err := fmt.Sscanf(*destStr, "%f,%f", &destLat, &destLon); err != nil {
		log.Fatalf("Invalid destination coordinates: %v", err)
	}

	fmt.Printf("Google Routes API Test\n")
	fmt.Printf("======================\n")
	fmt.Printf("Origin: %.6f, %.6f\n", originLat, originLon)
	fmt.Printf("Destination: %.6f, %.6f\n\n", destLat, destLon)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	route, err := google.NewClient(key).ComputeRoute(ctx,
		geo.Point{Latitude: originLat, Longitude: originLon},
		geo.Point{Latitude: destLat, Longitude: destLon},
	)
	if err != nil {
		log.Fatalf("ComputeRoute failed: %v", err)
	}

	fmt.Printf("✅ ComputeRoute successful!\n")
	fmt.Printf("Distance: %.1f mi\n", float64(route.DistanceMeters)/geo.MilesToMeters(1))
	fmt.Printf("Duration: %v\n", time.Duration(route.DurationSeconds)*time.Second)
	fmt.Printf("Polyline points: %d\n\n", len(route.Points))

	passes := chaincontrol.DefaultCatalog.NearRoute(services.WaypointsFromPoints(route.Points), *radius)
	fmt.Printf("Passes within %.0f mi: %d\n", *radius, len(passes))
	for _, pass := range passes {
		fmt.Printf("  %-28s %-7s %5d ft  %5.1f mi\n", pass.Name, pass.Highway, pass.Elevation, pass.DistanceFromRoute)
	}
}
