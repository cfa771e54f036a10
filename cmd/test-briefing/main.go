package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/atlascommand/chaincontrol/server/internal/cache"
	"github.com/atlascommand/chaincontrol/server/internal/lib/briefing"
	"github.com/atlascommand/chaincontrol/server/internal/lib/chaincontrol"
)

func main() {
	var (
		apiKey = flag.String("api-key", "", "OpenAI API key (or set OPENAI_API_KEY env var); template only when empty")
		model  = flag.String("model", "gpt-4o-mini", "OpenAI model")
		level  = flag.String("level", "R2", "Chain level for the sample alert at Donner Pass (R1, R2, R3)")
		twice  = flag.Bool("twice", false, "Draft twice to exercise the briefing cache")
		help   = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		fmt.Printf("Driver Briefing Test Tool\n\n")
		fmt.Printf("Drafts a driver briefing for sample chain-control alerts on I-80.\n\n")
		fmt.Printf("Usage: %s [options]\n\n", os.Args[0])
		fmt.Printf("Options:\n")
		flag.PrintDefaults()
		fmt.Printf("\nExamples:\n")
		fmt.Printf("  %s                      # Template briefing\n", os.Args[0])
		fmt.Printf("  %s -api-key=sk-... -level=R3\n", os.Args[0])
		fmt.Printf("  OPENAI_API_KEY=sk-... %s -twice\n", os.Args[0])
		return
	}

	key := *apiKey
	if key == "" {
		key = os.Getenv("OPENAI_API_KEY")
	}

	chainLevel, ok := chaincontrol.ParseLevel(*level)
	if !ok || !chainLevel.IsRestricted() {
		log.Fatalf("Level must be R1, R2 or R3, got %q", *level)
	}

	req := briefing.BriefingRequest{
		RouteName: "I-80 Sacramento to Reno",
		Alerts:    sampleAlerts(chainLevel),
	}

	fmt.Printf("Driver Briefing Test\n")
	fmt.Printf("====================\n")
	if key == "" {
		fmt.Printf("Writer: template (no OpenAI key)\n")
	} else {
		fmt.Printf("Writer: OpenAI %s with template fallback\n", *model)
	}
	fmt.Printf("Content hash: %s\n\n", briefing.ContentHash(req)[:16])

	writer := briefing.NewCachedWriter(
		briefing.NewWriter(key, *model),
		cache.NewBriefingCacheAdapter(cache.NewCache()),
		briefing.DefaultCacheTTL,
	)

	rounds := 1
	if *twice {
		rounds = 2
	}
	for i := 0; i < rounds; i++ {
		start := time.Now()
		b, err := writer.Draft(context.Background(), req)
		if err != nil {
			log.Fatalf("Draft failed: %v", err)
		}
		fmt.Printf("Draft %d (%s, %v)\n", i+1, b.Source, time.Since(start).Round(time.Millisecond))
		fmt.Printf("  %s\n", b.Headline)
		fmt.Printf("  %s\n", b.Body)
		for _, action := range b.Actions {
			fmt.Printf("  - %s\n", action)
		}
		fmt.Printf("%s\n", strings.Repeat("-", 40))
	}
}

func sampleAlerts(level chaincontrol.ChainLevel) []chaincontrol.ChainAlert {
	donner, _ := chaincontrol.DefaultCatalog.PassByID("donner-pass")
	return []chaincontrol.ChainAlert{
		{
			PassID:            donner.ID,
			Name:              donner.Name,
			Highway:           donner.Highway,
			State:             donner.State,
			Elevation:         donner.Elevation,
			Description:       donner.Description,
			DistanceFromRoute: 8.2,
			ChainRequirement:  level,
			Weather: chaincontrol.WeatherSnapshot{
				Condition:   chaincontrol.ConditionSnow,
				Description: "heavy snow",
				Temp:        24,
				WindSpeed:   22,
			},
			Location: chaincontrol.Location{Lat: donner.Lat, Lng: donner.Lng},
		},
	}
}
