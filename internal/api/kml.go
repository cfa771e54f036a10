package api

import (
	"fmt"
	"image/color"
	"io"

	"github.com/twpayne/go-kml"

	"github.com/atlascommand/chaincontrol/server/internal/lib/chaincontrol"
)

const kmlContentType = "application/vnd.google-earth.kml+xml"

// Icon colors by level code
var levelColors = map[string]color.RGBA{
	chaincontrol.LevelR1.Code: {R: 255, G: 204, B: 0, A: 255},
	chaincontrol.LevelR2.Code: {R: 255, G: 128, B: 0, A: 255},
	chaincontrol.LevelR3.Code: {R: 204, G: 0, B: 0, A: 255},
}

// WriteAlertsKML writes alerts as a KML document with one placemark per pass
func WriteAlertsKML(w io.Writer, name string, alerts []chaincontrol.ChainAlert) error {
	styles := map[string]*kml.SharedElement{}
	children := []kml.Element{kml.Name(name)}

	for _, level := range chaincontrol.Levels() {
		c, ok := levelColors[level.Code]
		if !ok {
			continue
		}
		style := kml.SharedStyle(
			"level-"+level.Code,
			kml.IconStyle(kml.Color(c), kml.Scale(1.2)),
		)
		styles[level.Code] = style
		children = append(children, style)
	}

	for _, alert := range alerts {
		placemark := []kml.Element{
			kml.Name(fmt.Sprintf("%s %s", alert.ChainRequirement.Code, alert.Name)),
			kml.Description(alertDescription(alert)),
			kml.Point(kml.Coordinates(kml.Coordinate{Lon: alert.Location.Lng, Lat: alert.Location.Lat})),
		}
		if style, ok := styles[alert.ChainRequirement.Code]; ok {
			placemark = append(placemark, kml.StyleURL(style.URL()))
		}
		children = append(children, kml.Placemark(placemark...))
	}

	return kml.KML(kml.Document(children...)).WriteIndent(w, "", "  ")
}

func alertDescription(alert chaincontrol.ChainAlert) string {
	return fmt.Sprintf("%s on %s. %s (%.0f°F, %.0f mph wind). %s",
		alert.ChainRequirement.Name, alert.Highway, alert.Weather.Description,
		alert.Weather.Temp, alert.Weather.WindSpeed,
		chaincontrol.ChainControlAdvice(alert.ChainRequirement))
}
