package briefing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/atlascommand/chaincontrol/server/internal/lib/chaincontrol"
	"github.com/atlascommand/chaincontrol/server/internal/metrics"
)

// TemplateWriter builds briefings from fixed sentences. It never fails and
// produces the same text for the same alerts.
type TemplateWriter struct {
	now func() time.Time
}

// NewTemplateWriter creates a TemplateWriter
func NewTemplateWriter() *TemplateWriter {
	return &TemplateWriter{now: time.Now}
}

// Draft renders the briefing. Alerts are expected in advisor order, most
// severe first.
func (w *TemplateWriter) Draft(ctx context.Context, req BriefingRequest) (Briefing, error) {
	metrics.BriefingsDrafted.WithLabelValues(SourceTemplate).Inc()

	route := req.RouteName
	if route == "" {
		route = "this route"
	}
	highest := chaincontrol.HighestLevel(req.Alerts)

	b := Briefing{
		Level:       highest.Code,
		Source:      SourceTemplate,
		GeneratedAt: w.now(),
		Actions:     templateActions(req.Alerts),
	}

	if len(req.Alerts) == 0 {
		b.Headline = fmt.Sprintf("No chain controls expected on %s", route)
		b.Body = "No mountain pass along the route is forecast to need chains right now."
		return b, nil
	}

	worst := req.Alerts[0]
	if highest.IsClosure() {
		b.Headline = fmt.Sprintf("%s closed on %s", worst.Name, route)
	} else {
		b.Headline = fmt.Sprintf("%s in effect at %s on %s", worst.ChainRequirement.Code, worst.Name, route)
	}

	sentences := make([]string, 0, len(req.Alerts))
	for _, alert := range req.Alerts {
		sentences = append(sentences, describeAlert(alert))
	}
	b.Body = strings.Join(sentences, " ")
	return b, nil
}

func describeAlert(alert chaincontrol.ChainAlert) string {
	place := alert.Name
	if alert.Highway != "" {
		place = fmt.Sprintf("%s (%s)", alert.Name, alert.Highway)
	}
	return fmt.Sprintf("%s: %s, %s at %.0f°F with %.0f mph wind, %.1f mi from the route.",
		place, alert.ChainRequirement.Name, alert.Weather.Description,
		alert.Weather.Temp, alert.Weather.WindSpeed, alert.DistanceFromRoute)
}

// templateActions returns one advice line per distinct level, most severe first
func templateActions(alerts []chaincontrol.ChainAlert) []string {
	if len(alerts) == 0 {
		return []string{chaincontrol.ChainControlAdvice(chaincontrol.LevelNone)}
	}

	seen := map[string]bool{}
	levels := chaincontrol.Levels()
	actions := []string{}
	for i := len(levels) - 1; i > 0; i-- {
		level := levels[i]
		for _, alert := range alerts {
			if alert.ChainRequirement.Code == level.Code && !seen[level.Code] {
				seen[level.Code] = true
				actions = append(actions, chaincontrol.ChainControlAdvice(level))
			}
		}
	}
	return actions
}
