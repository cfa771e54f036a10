package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/atlascommand/chaincontrol/server/internal/lib/chaincontrol"
	"github.com/atlascommand/chaincontrol/server/internal/services"
)

// routeBody is the JSON form of a route
type routeBody struct {
	Waypoints []chaincontrol.Waypoint `json:"waypoints" validate:"dive"`
}

// parseRouteParam parses "lat,lng;lat,lng;..." into waypoints. Empty segments
// from a trailing separator are ignored.
func parseRouteParam(raw string) ([]chaincontrol.Waypoint, error) {
	waypoints := []chaincontrol.Waypoint{}
	for i, segment := range strings.Split(raw, ";") {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}

		parts := strings.Split(segment, ",")
		if len(parts) != 2 {
			return nil, badRequest("waypoint %d: expected lat,lng, got %q", i+1, segment)
		}
		lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		if err != nil {
			return nil, badRequest("waypoint %d: invalid latitude %q", i+1, parts[0])
		}
		lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			return nil, badRequest("waypoint %d: invalid longitude %q", i+1, parts[1])
		}
		waypoints = append(waypoints, chaincontrol.Waypoint{Lat: lat, Lng: lng})
	}
	return waypoints, nil
}

// parseRadius reads the optional radius query parameter in miles
func parseRadius(r *http.Request, fallback float64) (float64, error) {
	raw := r.URL.Query().Get("radius")
	if raw == "" {
		return fallback, nil
	}
	radius, err := strconv.ParseFloat(raw, 64)
	if err != nil || radius <= 0 || radius > 500 {
		return 0, badRequest("radius must be a number of miles between 0 and 500")
	}
	return radius, nil
}

// routeFromRequest reads waypoints from the route or polyline query parameter,
// or from a JSON body on POST
func (h *Handler) routeFromRequest(w http.ResponseWriter, r *http.Request) ([]chaincontrol.Waypoint, error) {
	var waypoints []chaincontrol.Waypoint

	if r.Method == http.MethodPost {
		var body routeBody
		if err := decodeJSON(w, r, &body); err != nil {
			return nil, err
		}
		if body.Waypoints == nil {
			return nil, badRequest("waypoints is required")
		}
		waypoints = body.Waypoints
	} else {
		q := r.URL.Query()
		switch {
		case q.Get("route") != "":
			parsed, err := parseRouteParam(q.Get("route"))
			if err != nil {
				return nil, err
			}
			waypoints = parsed
		case q.Get("polyline") != "":
			points, err := h.geo.DecodePolyline(q.Get("polyline"))
			if err != nil {
				return nil, badRequest("invalid polyline: %v", err)
			}
			waypoints = services.WaypointsFromPoints(points)
		default:
			return nil, badRequest("route or polyline query parameter is required")
		}
	}

	if err := h.validateWaypoints(waypoints); err != nil {
		return nil, err
	}
	return waypoints, nil
}

func (h *Handler) validateWaypoints(waypoints []chaincontrol.Waypoint) error {
	err := h.validate.Struct(routeBody{Waypoints: waypoints})
	if err == nil {
		return nil
	}

	if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
		fe := verrs[0]
		return badRequest("%s: %v is not a valid %s", strings.TrimPrefix(fe.Namespace(), "routeBody."), fe.Value(), fe.Tag())
	}
	return fmt.Errorf("failed to validate waypoints: %w", err)
}
