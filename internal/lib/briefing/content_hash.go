package briefing

import (
	"crypto/sha256"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

var whitespace = regexp.MustCompile(`\s+`)

// ContentHash identifies a briefing request by what a briefing would say:
// the route and, for each alert, the pass, level and weather condition.
// Alert order, distances and exact temperatures do not affect it.
func ContentHash(req BriefingRequest) string {
	parts := make([]string, 0, len(req.Alerts))
	for _, alert := range req.Alerts {
		parts = append(parts, fmt.Sprintf("%s:%s:%s:%s",
			alert.PassID,
			alert.ChainRequirement.Code,
			normalizeText(alert.Weather.Condition),
			normalizeText(alert.Weather.Description),
		))
	}
	sort.Strings(parts)

	signature := normalizeText(req.RouteName) + "|" + strings.Join(parts, "|")
	hash := sha256.Sum256([]byte(signature))
	return fmt.Sprintf("%x", hash)
}

func normalizeText(text string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(strings.ToLower(text), " "))
}
