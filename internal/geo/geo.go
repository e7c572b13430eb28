// Package geo provides the geofence math used by the attendance check-in flow.
package geo

import "math"

const earthRadiusMeters = 6371000

// Distance returns the Haversine distance in meters between two coordinates.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}

// WithinRadius reports whether the point is within maxMeters of the center.
func WithinRadius(lat, lon, centerLat, centerLon float64, maxMeters int) bool {
	return Distance(lat, lon, centerLat, centerLon) <= float64(maxMeters)
}
