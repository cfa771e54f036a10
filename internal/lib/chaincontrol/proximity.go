package chaincontrol

import (
	"sort"

	"github.com/atlascommand/chaincontrol/server/internal/lib/geo"
)

// DefaultSearchRadiusMiles is the route-to-pass distance used by the advisor
const DefaultSearchRadiusMiles = 25.0

// FindPassesNearRoute returns passes from the default catalog within
// maxDistanceMiles of any waypoint, nearest first.
func FindPassesNearRoute(waypoints []Waypoint, maxDistanceMiles float64) []NearbyPass {
	return DefaultCatalog.NearRoute(waypoints, maxDistanceMiles)
}

// NearRoute returns the passes within maxDistanceMiles of any waypoint.
//
// Waypoints are scanned in input order and a pass records the distance to the
// first waypoint inside the radius, which is not necessarily the nearest one.
// Routes with fewer than two waypoints yield no passes.
func (c Catalog) NearRoute(waypoints []Waypoint, maxDistanceMiles float64) []NearbyPass {
	nearby := []NearbyPass{}
	if len(waypoints) < 2 {
		return nearby
	}

	for _, pass := range c {
		passPoint := geo.Point{Latitude: pass.Lat, Longitude: pass.Lng}
		for _, wp := range waypoints {
			distance := geo.HaversineMiles(geo.Point{Latitude: wp.Lat, Longitude: wp.Lng}, passPoint)
			// NaN distances fail this comparison and the waypoint is ignored
			if distance <= maxDistanceMiles {
				nearby = append(nearby, NearbyPass{MountainPass: pass, DistanceFromRoute: distance})
				break
			}
		}
	}

	sort.SliceStable(nearby, func(i, j int) bool {
		return nearby[i].DistanceFromRoute < nearby[j].DistanceFromRoute
	})

	return nearby
}
