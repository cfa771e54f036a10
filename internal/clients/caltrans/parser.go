package caltrans

import (
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/atlascommand/chaincontrol/server/internal/lib/chaincontrol"
	"github.com/atlascommand/chaincontrol/server/internal/lib/geo"
)

// ChainControl is a posted chain control from the Caltrans QuickMap feed
type ChainControl struct {
	Name        string                  `json:"name"`
	Description string                  `json:"description"`
	Level       chaincontrol.ChainLevel `json:"level"`
	Location    geo.Point               `json:"location"`
	StyleURL    string                  `json:"style_url,omitempty"`
	Dates       []string                `json:"dates,omitempty"`
	FetchedAt   time.Time               `json:"fetched_at"`
}

// kmlFile covers the subset of KML the QuickMap feeds use
type kmlFile struct {
	XMLName  xml.Name    `xml:"kml"`
	Document kmlDocument `xml:"Document"`
}

type kmlDocument struct {
	Placemarks []kmlPlacemark `xml:"Placemark"`
	Folders    []kmlFolder    `xml:"Folder"`
}

type kmlFolder struct {
	Placemarks []kmlPlacemark `xml:"Placemark"`
	Folders    []kmlFolder    `xml:"Folder"`
}

type kmlPlacemark struct {
	Name        string    `xml:"name"`
	Description string    `xml:"description"`
	StyleURL    string    `xml:"styleUrl"`
	Point       *kmlPoint `xml:"Point"`
}

type kmlPoint struct {
	Coordinates string `xml:"coordinates"`
}

var (
	tagPattern        = regexp.MustCompile(`<[^>]*>`)
	whitespacePattern = regexp.MustCompile(`\s+`)
	datePattern       = regexp.MustCompile(`\d{1,2}[/\-]\d{1,2}[/\-]\d{4}|[A-Za-z]{3}\s+\d{1,2},\s+\d{4}`)

	// R-1, R1, R 2 ...
	levelPattern     = regexp.MustCompile(`(?i)\bR\s?-?\s?([123])\b`)
	noControlPattern = regexp.MustCompile(`(?i)\bno (chain )?controls?\b|\bcontrols? (lifted|removed)\b`)
	closedPattern    = regexp.MustCompile(`(?i)\b(road|highway|hwy|pass) (is )?closed\b|\bclosed to (all )?traffic\b`)
)

// ParseChainControls reads a chain-control KML document. Placemarks without a
// usable point are skipped.
func ParseChainControls(r io.Reader, fetchedAt time.Time) ([]ChainControl, error) {
	var doc kmlFile
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse KML: %w", err)
	}

	placemarks := doc.Document.Placemarks
	placemarks = appendFolderPlacemarks(placemarks, doc.Document.Folders)

	controls := make([]ChainControl, 0, len(placemarks))
	for _, pm := range placemarks {
		control, ok := processPlacemark(pm, fetchedAt)
		if ok {
			controls = append(controls, control)
		}
	}
	return controls, nil
}

func appendFolderPlacemarks(dst []kmlPlacemark, folders []kmlFolder) []kmlPlacemark {
	for _, f := range folders {
		dst = append(dst, f.Placemarks...)
		dst = appendFolderPlacemarks(dst, f.Folders)
	}
	return dst
}

func processPlacemark(pm kmlPlacemark, fetchedAt time.Time) (ChainControl, bool) {
	if pm.Point == nil {
		return ChainControl{}, false
	}
	location, err := parseCoordinates(pm.Point.Coordinates)
	if err != nil {
		return ChainControl{}, false
	}

	name := strings.TrimSpace(pm.Name)
	text := extractTextFromHTML(pm.Description)

	return ChainControl{
		Name:        name,
		Description: text,
		Level:       extractLevel(name + " " + text),
		Location:    location,
		StyleURL:    strings.TrimSpace(pm.StyleURL),
		Dates:       extractDates(text),
		FetchedAt:   fetchedAt,
	}, true
}

// parseCoordinates reads a KML "lon,lat[,alt]" tuple
func parseCoordinates(raw string) (geo.Point, error) {
	fields := strings.Split(strings.TrimSpace(raw), ",")
	if len(fields) < 2 {
		return geo.Point{}, fmt.Errorf("invalid coordinates %q", raw)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(fields[0]), 64)
	if err != nil {
		return geo.Point{}, fmt.Errorf("invalid longitude %q: %w", fields[0], err)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
	if err != nil {
		return geo.Point{}, fmt.Errorf("invalid latitude %q: %w", fields[1], err)
	}
	return geo.NewPoint(lat, lng)
}

// extractLevel derives the posted level. An explicit R code wins; otherwise a
// closure reads as R3 and anything else as no control.
func extractLevel(text string) chaincontrol.ChainLevel {
	if noControlPattern.MatchString(text) {
		return chaincontrol.LevelNone
	}

	highest := chaincontrol.LevelNone
	for _, m := range levelPattern.FindAllStringSubmatch(text, -1) {
		if level, ok := chaincontrol.ParseLevel("R" + m[1]); ok && level.Level > highest.Level {
			highest = level
		}
	}
	if highest.Level > 0 {
		return highest
	}

	if closedPattern.MatchString(text) {
		return chaincontrol.LevelR3
	}
	return chaincontrol.LevelNone
}

// extractTextFromHTML removes HTML tags and decodes HTML entities
func extractTextFromHTML(htmlContent string) string {
	text := tagPattern.ReplaceAllString(htmlContent, " ")
	text = html.UnescapeString(text)
	text = whitespacePattern.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// extractDates finds dates like "12/25/2024" or "Dec 25, 2024", deduplicated
func extractDates(text string) []string {
	matches := datePattern.FindAllString(text, -1)

	seen := make(map[string]bool)
	uniqueDates := []string{}
	for _, date := range matches {
		if !seen[date] {
			seen[date] = true
			uniqueDates = append(uniqueDates, date)
		}
	}
	return uniqueDates
}
