// Package geo provides the geographic primitives used to gate check-ins.
package geo

import "math"

// EarthRadiusMeters is the mean Earth radius used by Distance.
const EarthRadiusMeters = 6371000.0

// Point is a WGS84 coordinate in decimal degrees.
type Point struct {
	Latitude  float64 `json:"latitude" dynamodbav:"latitude"`
	Longitude float64 `json:"longitude" dynamodbav:"longitude"`
}

// IsZero reports whether p is exactly (0,0), which marks an unset location.
func (p Point) IsZero() bool {
	return p.Latitude == 0 && p.Longitude == 0
}

// IsValid reports whether both coordinates are finite and within range.
func (p Point) IsValid() bool {
	return isFinite(p.Latitude) && isFinite(p.Longitude) &&
		p.Latitude >= -90 && p.Latitude <= 90 &&
		p.Longitude >= -180 && p.Longitude <= 180
}

// DistanceCalculator measures the surface distance in meters between two points.
type DistanceCalculator interface {
	Distance(a, b Point) float64
}

// Haversine is the great-circle DistanceCalculator.
type Haversine struct{}

var _ DistanceCalculator = Haversine{}

func (Haversine) Distance(a, b Point) float64 {
	return Distance(a, b)
}

// Distance returns the haversine great-circle distance in meters.
// It never fails; validating inputs is up to the caller.
func Distance(a, b Point) float64 {
	phi1 := toRadians(a.Latitude)
	phi2 := toRadians(b.Latitude)
	dPhi := toRadians(b.Latitude - a.Latitude)
	dLambda := toRadians(b.Longitude - a.Longitude)

	sinDPhi := math.Sin(dPhi / 2)
	sinDLambda := math.Sin(dLambda / 2)
	h := sinDPhi*sinDPhi + math.Cos(phi1)*math.Cos(phi2)*sinDLambda*sinDLambda

	// rounding can push h just outside [0,1] near antipodes
	h = math.Min(1, math.Max(0, h))

	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return EarthRadiusMeters * c
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
