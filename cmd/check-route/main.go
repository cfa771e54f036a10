package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/atlascommand/chaincontrol/server/internal/clients/weather"
	"github.com/atlascommand/chaincontrol/server/internal/lib/chaincontrol"
	"github.com/atlascommand/chaincontrol/server/internal/lib/geo"
)

func main() {
	var (
		apiKey   = flag.String("api-key", "", "OpenWeatherMap API key (or set OPENWEATHER_API_KEY env var)")
		route    = flag.String("route", "", "Route as lat,lng pairs separated by ';'")
		encoded  = flag.String("polyline", "", "Route as a Google encoded polyline")
		radius   = flag.Float64("radius", chaincontrol.DefaultSearchRadiusMiles, "Search radius in miles")
		parallel = flag.Int("parallel", chaincontrol.DefaultMaxConcurrentLookups, "Concurrent weather lookups")
		help     = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help || (*route == "" && *encoded == "") {
		fmt.Printf("Chain Control Route Check\n\n")
		fmt.Printf("Prints chain-control alerts for a route using live OpenWeatherMap data.\n\n")
		fmt.Printf("Usage: %s [options]\n\n", os.Args[0])
		fmt.Printf("Options:\n")
		flag.PrintDefaults()
		fmt.Printf("\nExamples:\n")
		fmt.Printf("  %s -route='38.5816,-121.4944;39.3280,-120.1833;39.5296,-119.8138'\n", os.Args[0])
		fmt.Printf("  %s -polyline='_p~iF~ps|U_ulLnnqC' -radius=40\n", os.Args[0])
		return
	}

	key := *apiKey
	if key == "" {
		key = os.Getenv("OPENWEATHER_API_KEY")
	}
	if key == "" {
		log.Fatal("OpenWeatherMap API key required. Use -api-key flag or OPENWEATHER_API_KEY env var")
	}

	waypoints, err := parseWaypoints(*route, *encoded)
	if err != nil {
		log.Fatalf("Invalid route: %v", err)
	}

	fmt.Printf("Chain Control Route Check\n")
	fmt.Printf("=========================\n")
	fmt.Printf("Waypoints: %d\n", len(waypoints))
	fmt.Printf("Radius: %.0f mi\n\n", *radius)

	advisor := chaincontrol.NewAdvisor(weather.NewClient(key),
		chaincontrol.WithSearchRadius(*radius),
		chaincontrol.WithMaxConcurrentLookups(*parallel),
	)

	nearby := advisor.Catalog().NearRoute(waypoints, *radius)
	fmt.Printf("Passes near route: %d\n", len(nearby))
	for _, pass := range nearby {
		fmt.Printf("  %-28s %-7s %5d ft  %5.1f mi\n", pass.Name, pass.Highway, pass.Elevation, pass.DistanceFromRoute)
	}
	fmt.Printf("\n")

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	start := time.Now()
	alerts := advisor.GetChainControlAlerts(ctx, waypoints)
	fmt.Printf("Checked weather in %v\n\n", time.Since(start).Round(time.Millisecond))

	if len(alerts) == 0 {
		fmt.Printf("%s %s\n", chaincontrol.ChainControlEmoji(chaincontrol.LevelNone), chaincontrol.ChainControlAdvice(chaincontrol.LevelNone))
		return
	}

	for _, alert := range alerts {
		fmt.Printf("%s %s (%s) - %s\n", chaincontrol.ChainControlEmoji(alert.ChainRequirement), alert.Name, alert.Highway, alert.ChainRequirement.Name)
		fmt.Printf("   Weather: %s, %.0f°F, wind %.0f mph\n", alert.Weather.Description, alert.Weather.Temp, alert.Weather.WindSpeed)
		fmt.Printf("   Distance from route: %.1f mi\n", alert.DistanceFromRoute)
		fmt.Printf("   %s\n\n", chaincontrol.ChainControlAdvice(alert.ChainRequirement))
	}
}

func parseWaypoints(route, encoded string) ([]chaincontrol.Waypoint, error) {
	if encoded != "" {
		points, err := geo.NewGeoUtils().DecodePolyline(encoded)
		if err != nil {
			return nil, err
		}
		waypoints := make([]chaincontrol.Waypoint, len(points))
		for i, p := range points {
			waypoints[i] = chaincontrol.Waypoint{Lat: p.Latitude, Lng: p.Longitude}
		}
		return waypoints, nil
	}

	var waypoints []chaincontrol.Waypoint
	for _, pair := range strings.Split(route, ";") {
		if strings.TrimSpace(pair) == "" {
			continue
		}
		parts := strings.Split(pair, ",")
		if len(parts) != 2 {
			return nil, fmt.Errorf("expected lat,lng but got %q", pair)
		}
		lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid latitude in %q: %w", pair, err)
		}
		lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid longitude in %q: %w", pair, err)
		}
		if _, err := geo.NewPoint(lat, lng); err != nil {
			return nil, fmt.Errorf("%q: %w", pair, err)
		}
		waypoints = append(waypoints, chaincontrol.Waypoint{Lat: lat, Lng: lng})
	}
	return waypoints, nil
}
