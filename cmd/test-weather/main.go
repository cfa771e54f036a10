package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/atlascommand/chaincontrol/server/internal/clients/weather"
	"github.com/atlascommand/chaincontrol/server/internal/lib/chaincontrol"
)

func main() {
	var (
		apiKey    = flag.String("api-key", "", "OpenWeatherMap API key (or set OPENWEATHER_API_KEY env var)")
		passID    = flag.String("pass", "", "Catalog pass ID to look up (overrides -lat/-lon)")
		lat       = flag.Float64("lat", 39.3157, "Latitude for weather lookup")
		lon       = flag.Float64("lon", -120.3268, "Longitude for weather lookup")
		elevation = flag.Int("elevation", 7056, "Elevation in feet used for classification")
		help      = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		fmt.Printf("OpenWeatherMap API Test Tool\n\n")
		fmt.Printf("Looks up current conditions and the chain level they imply.\n\n")
		fmt.Printf("Usage: %s [options]\n\n", os.Args[0])
		fmt.Printf("Options:\n")
		flag.PrintDefaults()
		fmt.Printf("\nExamples:\n")
		fmt.Printf("  %s -api-key=YOUR_KEY\n", os.Args[0])
		fmt.Printf("  %s -pass=eisenhower-tunnel\n", os.Args[0])
		fmt.Printf("  OPENWEATHER_API_KEY=your_key %s -lat=47.4245 -lon=-121.4133 -elevation=3022\n", os.Args[0])
		return
	}

	key := *apiKey
	if key == "" {
		key = os.Getenv("OPENWEATHER_API_KEY")
	}
	if key == "" {
		log.Fatal("OpenWeatherMap API key required. Use -api-key flag or OPENWEATHER_API_KEY env var")
	}

	name := fmt.Sprintf("%.4f, %.4f", *lat, *lon)
	if *passID != "" {
		pass, ok := chaincontrol.DefaultCatalog.PassByID(*passID)
		if !ok {
			log.Fatalf("Unknown pass: %s", *passID)
		}
		name = pass.Name
		*lat, *lon, *elevation = pass.Lat, pass.Lng, pass.Elevation
	}

	fmt.Printf("OpenWeatherMap API Test\n")
	fmt.Printf("=======================\n")
	fmt.Printf("Location: %s\n", name)
	fmt.Printf("Coordinates: %.6f, %.6f\n", *lat, *lon)
	fmt.Printf("Elevation: %d ft\n", *elevation)
	fmt.Printf("API Key: %s...\n\n", key[:min(len(key), 10)])

	client := weather.NewClient(key)
	snapshot, err := client.GetWeatherByCoordinates(context.Background(), *lat, *lon)
	if err != nil {
		log.Fatalf("GetWeatherByCoordinates failed: %v", err)
	}
	if snapshot == nil {
		fmt.Printf("⚠️  No weather reported for this location\n")
		return
	}

	fmt.Printf("✅ GetWeatherByCoordinates successful!\n")
	fmt.Printf("Condition: %s\n", snapshot.Condition)
	fmt.Printf("Description: %s\n", snapshot.Description)
	fmt.Printf("Temperature: %.1f°F\n", snapshot.Temp)
	fmt.Printf("Wind: %.1f mph\n\n", snapshot.WindSpeed)

	level := chaincontrol.DetermineChainRequirement(snapshot, *elevation)
	fmt.Printf("%s %s\n", chaincontrol.ChainControlEmoji(level), level.Name)
	fmt.Printf("%s\n", chaincontrol.ChainControlAdvice(level))
}
