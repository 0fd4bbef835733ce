// Package geo estimates shipping CO2 between postal codes.
package geo

import (
	"hash/fnv"
	"math"
	"strings"

	"ShopScore/internal/domain/models"
)

// EarthRadiusKm is the mean earth radius used by Haversine.
const EarthRadiusKm = 6371.0

var hubs = map[string][2]float64{
	"110001": {28.6139, 77.2090}, // Delhi
	"400001": {19.0760, 72.8777}, // Mumbai
	"560001": {12.9716, 77.5946}, // Bengaluru
	"700001": {22.5726, 88.3639}, // Kolkata
	"600001": {13.0827, 80.2707}, // Chennai
}

// Resolve maps a postal code to coordinates. Known hubs resolve exactly;
// any other code gets stable coordinates derived from its hash, which are
// not geographically meaningful. ok is false for the hashed case.
func Resolve(code string) (p models.GeoPoint, ok bool) {
	code = strings.TrimSpace(code)
	if c, found := hubs[code]; found {
		return models.GeoPoint{Code: code, Latitude: c[0], Longitude: c[1], Exact: true}, true
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(code))
	sum := h.Sum32()
	return models.GeoPoint{
		Code:      code,
		Latitude:  10 + float64(sum%30),
		Longitude: 65 + float64(sum%40),
	}, false
}

// Haversine returns the great-circle distance between two points in km.
func Haversine(a, b models.GeoPoint) float64 {
	lat1, lat2 := radians(a.Latitude), radians(b.Latitude)
	dLat := lat2 - lat1
	dLon := radians(b.Longitude - a.Longitude)
	s := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * EarthRadiusKm * math.Asin(math.Min(1, math.Sqrt(s)))
}

// Distance resolves both codes and returns the haversine distance in km.
func Distance(a, b string) float64 {
	pa, _ := Resolve(a)
	pb, _ := Resolve(b)
	return Haversine(pa, pb)
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }
