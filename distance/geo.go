package distance

import "math"

// earthMeanRadius is the mean earth radius in meters (IUGG).
const earthMeanRadius = 6371008.7714

// LngLat calculates the great-circle distance in meters between two points
// given as (longitude, latitude) pairs in degrees, using the haversine
// formula on a spherical earth model.
func LngLat(a, b []float64) float64 {
	return haversineDeg(a[1], a[0], b[1], b[0])
}

// haversineDeg computes the haversine distance for coordinates in degrees.
func haversineDeg(lat1, lng1, lat2, lng2 float64) float64 {
	const degToRad = math.Pi / 180

	phi1 := lat1 * degToRad
	phi2 := lat2 * degToRad
	dPhi := (lat2 - lat1) * degToRad
	dLambda := (lng2 - lng1) * degToRad

	sinPhi := math.Sin(dPhi / 2)
	sinLambda := math.Sin(dLambda / 2)

	h := sinPhi*sinPhi + math.Cos(phi1)*math.Cos(phi2)*sinLambda*sinLambda
	return 2 * earthMeanRadius * math.Asin(math.Min(1, math.Sqrt(h)))
}
