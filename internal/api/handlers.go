package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dpup/prefab/logging"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/atlascommand/chaincontrol/server/internal/config"
	"github.com/atlascommand/chaincontrol/server/internal/lib/briefing"
	"github.com/atlascommand/chaincontrol/server/internal/lib/chaincontrol"
	"github.com/atlascommand/chaincontrol/server/internal/lib/geo"
	"github.com/atlascommand/chaincontrol/server/internal/services"
)

// AdvisoryProvider is the advisory surface the handlers depend on
type AdvisoryProvider interface {
	Advise(ctx context.Context, waypoints []chaincontrol.Waypoint) *services.RouteAdvisory
	RouteAdvisory(ctx context.Context, routeID string) (*services.RouteAdvisory, error)
	MonitoredRoutes() []config.MonitoredRoute
	OfficialControls(ctx context.Context, waypoints []chaincontrol.Waypoint, radiusMiles float64) ([]services.OfficialControl, error)
}

// Handler serves the chain-control HTTP API
type Handler struct {
	advisory    AdvisoryProvider
	writer      briefing.Writer
	catalog     chaincontrol.Catalog
	radiusMiles float64
	geo         geo.GeoUtils
	validate    *validator.Validate
}

// NewHandler creates a Handler. radiusMiles is the default for endpoints that
// accept a radius parameter.
func NewHandler(advisory AdvisoryProvider, writer briefing.Writer, catalog chaincontrol.Catalog, radiusMiles float64) *Handler {
	if radiusMiles <= 0 {
		radiusMiles = chaincontrol.DefaultSearchRadiusMiles
	}
	return &Handler{
		advisory:    advisory,
		writer:      writer,
		catalog:     catalog,
		radiusMiles: radiusMiles,
		geo:         geo.NewGeoUtils(),
		validate:    validator.New(),
	}
}

// RegisterRoutes mounts the API under the given router
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/passes", h.HandleListPasses)
	r.Get("/passes/near", h.HandlePassesNear)

	r.Get("/chain-controls", h.HandleChainControls)
	r.Post("/chain-controls", h.HandleChainControls)
	r.Get("/chain-controls.kml", h.HandleChainControlsKML)
	r.Get("/chain-controls/official", h.HandleOfficialControls)

	r.Get("/routes", h.HandleListRoutes)
	r.Get("/routes/{routeID}/advisory", h.HandleRouteAdvisory)

	r.Post("/briefings", h.HandleBriefing)
}

// AlertView is an alert decorated for display
type AlertView struct {
	chaincontrol.ChainAlert
	Emoji  string `json:"emoji"`
	Advice string `json:"advice"`
}

// AdvisoryView is the response body for chain-control and advisory endpoints
type AdvisoryView struct {
	RouteID      string                  `json:"route_id,omitempty"`
	RouteName    string                  `json:"route_name,omitempty"`
	Alerts       []AlertView             `json:"alerts"`
	Count        int                     `json:"count"`
	Closed       bool                    `json:"closed"`
	HighestLevel chaincontrol.ChainLevel `json:"highest_level"`
	Emoji        string                  `json:"emoji"`
	Advice       string                  `json:"advice"`
	CheckedAt    time.Time               `json:"checked_at"`
	Stale        bool                    `json:"stale,omitempty"`
}

func newAdvisoryView(a *services.RouteAdvisory) AdvisoryView {
	alerts := make([]AlertView, len(a.Alerts))
	for i, alert := range a.Alerts {
		alerts[i] = AlertView{
			ChainAlert: alert,
			Emoji:      chaincontrol.ChainControlEmoji(alert.ChainRequirement),
			Advice:     chaincontrol.ChainControlAdvice(alert.ChainRequirement),
		}
	}
	return AdvisoryView{
		RouteID:      a.RouteID,
		RouteName:    a.RouteName,
		Alerts:       alerts,
		Count:        len(alerts),
		Closed:       a.Closed,
		HighestLevel: a.HighestLevel,
		Emoji:        chaincontrol.ChainControlEmoji(a.HighestLevel),
		Advice:       chaincontrol.ChainControlAdvice(a.HighestLevel),
		CheckedAt:    a.CheckedAt,
		Stale:        a.Stale,
	}
}

// HandleListPasses handles GET /passes
func (h *Handler) HandleListPasses(w http.ResponseWriter, r *http.Request) {
	passes := h.catalog.Passes()
	writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"passes": passes,
		"count":  len(passes),
	})
}

// HandlePassesNear handles GET /passes/near
func (h *Handler) HandlePassesNear(w http.ResponseWriter, r *http.Request) {
	waypoints, err := h.routeFromRequest(w, r)
	if err != nil {
		writeRequestError(w, r, err)
		return
	}
	radius, err := parseRadius(r, h.radiusMiles)
	if err != nil {
		writeRequestError(w, r, err)
		return
	}

	passes := h.catalog.NearRoute(waypoints, radius)
	writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"passes":       passes,
		"count":        len(passes),
		"radius_miles": radius,
	})
}

// HandleChainControls handles GET and POST /chain-controls
func (h *Handler) HandleChainControls(w http.ResponseWriter, r *http.Request) {
	waypoints, err := h.routeFromRequest(w, r)
	if err != nil {
		writeRequestError(w, r, err)
		return
	}

	advisory := h.advisory.Advise(r.Context(), waypoints)
	writeJSON(w, r, http.StatusOK, newAdvisoryView(advisory))
}

// HandleChainControlsKML handles GET /chain-controls.kml
func (h *Handler) HandleChainControlsKML(w http.ResponseWriter, r *http.Request) {
	waypoints, err := h.routeFromRequest(w, r)
	if err != nil {
		writeRequestError(w, r, err)
		return
	}

	advisory := h.advisory.Advise(r.Context(), waypoints)
	w.Header().Set("Content-Type", kmlContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="chain-controls.kml"`)
	if err := WriteAlertsKML(w, "Chain controls", advisory.Alerts); err != nil {
		logging.Errorw(r.Context(), "Failed to write KML", "error", err)
	}
}

// HandleOfficialControls handles GET /chain-controls/official
func (h *Handler) HandleOfficialControls(w http.ResponseWriter, r *http.Request) {
	waypoints, err := h.routeFromRequest(w, r)
	if err != nil {
		writeRequestError(w, r, err)
		return
	}
	radius, err := parseRadius(r, h.radiusMiles)
	if err != nil {
		writeRequestError(w, r, err)
		return
	}

	controls, err := h.advisory.OfficialControls(r.Context(), waypoints, radius)
	if err != nil {
		if errors.Is(err, services.ErrOfficialControlsUnavailable) {
			writeError(w, r, http.StatusServiceUnavailable, codeUnavailable, "official chain controls are not configured")
			return
		}
		logging.Errorw(r.Context(), "Failed to load official chain controls", "error", err)
		writeError(w, r, http.StatusBadGateway, codeUpstream, "official chain controls could not be loaded")
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"controls":     controls,
		"count":        len(controls),
		"radius_miles": radius,
	})
}

type routeSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// HandleListRoutes handles GET /routes
func (h *Handler) HandleListRoutes(w http.ResponseWriter, r *http.Request) {
	routes := h.advisory.MonitoredRoutes()
	summaries := make([]routeSummary, len(routes))
	for i, route := range routes {
		summaries[i] = routeSummary{ID: route.ID, Name: route.Name}
	}
	writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"routes": summaries,
		"count":  len(summaries),
	})
}

// HandleRouteAdvisory handles GET /routes/{routeID}/advisory
func (h *Handler) HandleRouteAdvisory(w http.ResponseWriter, r *http.Request) {
	routeID := chi.URLParam(r, "routeID")

	advisory, err := h.advisory.RouteAdvisory(r.Context(), routeID)
	if err != nil {
		h.writeAdvisoryError(w, r, routeID, err)
		return
	}
	writeJSON(w, r, http.StatusOK, newAdvisoryView(advisory))
}

func (h *Handler) writeAdvisoryError(w http.ResponseWriter, r *http.Request, routeID string, err error) {
	if errors.Is(err, services.ErrRouteNotFound) {
		writeError(w, r, http.StatusNotFound, codeNotFound, "route not found: "+routeID)
		return
	}
	logging.Errorw(r.Context(), "Failed to build route advisory", "route_id", routeID, "error", err)
	writeError(w, r, http.StatusBadGateway, codeUpstream, "route advisory could not be built")
}

// briefingBody selects a monitored route by ID or an ad-hoc route by waypoints
type briefingBody struct {
	RouteID   string                  `json:"route_id"`
	RouteName string                  `json:"route_name"`
	Waypoints []chaincontrol.Waypoint `json:"waypoints"`
}

// BriefingView is the response body for POST /briefings
type BriefingView struct {
	Briefing briefing.Briefing `json:"briefing"`
	Advisory AdvisoryView      `json:"advisory"`
}

// HandleBriefing handles POST /briefings
func (h *Handler) HandleBriefing(w http.ResponseWriter, r *http.Request) {
	var body briefingBody
	if err := decodeJSON(w, r, &body); err != nil {
		writeRequestError(w, r, err)
		return
	}

	var advisory *services.RouteAdvisory
	switch {
	case body.RouteID != "":
		a, err := h.advisory.RouteAdvisory(r.Context(), body.RouteID)
		if err != nil {
			h.writeAdvisoryError(w, r, body.RouteID, err)
			return
		}
		advisory = a
	case len(body.Waypoints) > 0:
		if err := h.validateWaypoints(body.Waypoints); err != nil {
			writeRequestError(w, r, err)
			return
		}
		advisory = h.advisory.Advise(r.Context(), body.Waypoints)
		advisory.RouteName = body.RouteName
	default:
		writeError(w, r, http.StatusBadRequest, codeInvalidRequest, "route_id or waypoints is required")
		return
	}

	b, err := h.writer.Draft(r.Context(), briefing.BriefingRequest{
		RouteName: advisory.RouteName,
		Alerts:    advisory.Alerts,
	})
	if err != nil {
		logging.Errorw(r.Context(), "Failed to draft briefing", "route", advisory.RouteName, "error", err)
		writeError(w, r, http.StatusBadGateway, codeUpstream, "briefing could not be drafted")
		return
	}

	writeJSON(w, r, http.StatusOK, BriefingView{
		Briefing: b,
		Advisory: newAdvisoryView(advisory),
	})
}
