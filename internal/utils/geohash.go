package utils

import (
	"github.com/mmcloughlin/geohash"
)

// GeoHashPrecision is the number of characters stored for a walker's
// location, roughly a 150m cell.
const GeoHashPrecision uint = 7

// EncodeLocation converts a latitude/longitude pair to a geohash string
func EncodeLocation(latitude, longitude float64) string {
	return geohash.EncodeWithPrecision(latitude, longitude, GeoHashPrecision)
}
