package geo

import (
	"errors"
	"math"

	"github.com/twpayne/go-polyline"
)

const (
	// EarthRadiusMiles is the mean Earth radius used for route advisories.
	EarthRadiusMiles = 3959

	metersPerMile = 1609.344
)

// geoUtils implements the GeoUtils interface
type geoUtils struct{}

// NewGeoUtils creates a new GeoUtils implementation
func NewGeoUtils() GeoUtils {
	return &geoUtils{}
}

// HaversineMiles returns the great-circle distance between two points in miles.
// Coordinates are not validated: NaN input yields NaN, which fails every
// threshold comparison.
func HaversineMiles(p1, p2 Point) float64 {
	return haversine(p1, p2, EarthRadiusMiles)
}

func haversine(p1, p2 Point, radius float64) float64 {
	lat1 := toRadians(p1.Latitude)
	lat2 := toRadians(p2.Latitude)
	dlat := toRadians(p2.Latitude - p1.Latitude)
	dlon := toRadians(p2.Longitude - p1.Longitude)

	a := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dlon/2)*math.Sin(dlon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return radius * c
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// DecodePolyline decodes Google polyline string to point sequence
func (g *geoUtils) DecodePolyline(encoded string) ([]Point, error) {
	if encoded == "" {
		return nil, errors.New("encoded polyline string is empty")
	}

	coords, _, err := polyline.DecodeCoords([]byte(encoded))
	if err != nil {
		return nil, errors.New("failed to decode polyline: " + err.Error())
	}

	points := make([]Point, len(coords))
	for i, coord := range coords {
		points[i] = Point{
			Latitude:  coord[0],
			Longitude: coord[1],
		}

		if !isValidCoordinate(points[i]) {
			return nil, errors.New("decoded polyline contains invalid coordinates")
		}
	}

	return points, nil
}

// NewPoint creates a Point from latitude and longitude values with validation
func NewPoint(latitude, longitude float64) (Point, error) {
	point := Point{Latitude: latitude, Longitude: longitude}
	if !isValidCoordinate(point) {
		return Point{}, errors.New("invalid coordinates: latitude must be [-90, 90], longitude must be [-180, 180]")
	}
	return point, nil
}

// MilesToMeters converts statute miles to meters
func MilesToMeters(miles float64) float64 {
	return miles * metersPerMile
}

// isValidCoordinate validates latitude and longitude values.
// NaN fails both range checks.
func isValidCoordinate(point Point) bool {
	return point.Latitude >= -90 && point.Latitude <= 90 &&
		point.Longitude >= -180 && point.Longitude <= 180
}
