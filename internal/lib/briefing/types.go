package briefing

import (
	"context"
	"errors"
	"time"

	"github.com/atlascommand/chaincontrol/server/internal/lib/chaincontrol"
)

// Briefing sources
const (
	SourceOpenAI   = "openai"
	SourceTemplate = "template"
	SourceCache    = "cache"
)

// ErrBriefingUnavailable is returned when the language model produced no usable briefing
var ErrBriefingUnavailable = errors.New("briefing unavailable")

// BriefingRequest is the route and its current alerts, as returned by the advisor
type BriefingRequest struct {
	RouteName string                    `json:"route_name"`
	Alerts    []chaincontrol.ChainAlert `json:"alerts"`
}

// Briefing is a short driver-facing summary of chain controls along a route
type Briefing struct {
	Headline    string    `json:"headline"`
	Body        string    `json:"body"`
	Actions     []string  `json:"actions"`
	Level       string    `json:"level"` // highest chain level code on the route
	Source      string    `json:"source"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Writer drafts briefings
type Writer interface {
	Draft(ctx context.Context, req BriefingRequest) (Briefing, error)
}
