// Package geo ranks candidate locations around a query point.
package geo

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"clinical-assistant/internal/domain"
)

const (
	kmPerDegree   = 111.0
	MinRadius     = 500
	MaxRadius     = 25000
	DefaultRadius = 5000
	MaxResults    = 3
	nameKeyRunes  = 30
)

// ClampRadius returns r when it lies in [MinRadius, MaxRadius] and
// DefaultRadius otherwise.
func ClampRadius(r int) int {
	if r < MinRadius || r > MaxRadius {
		return DefaultRadius
	}
	return r
}

// DistanceKm is a planar approximation using a fixed 111 km per degree on
// both axes. Good enough to order places a few kilometres apart.
func DistanceKm(a, b domain.GeoPoint) float64 {
	dLat := (b.Lat - a.Lat) * kmPerDegree
	dLon := (b.Lon - a.Lon) * kmPerDegree
	return math.Sqrt(dLat*dLat + dLon*dLon)
}

// RankNearby drops duplicates (same coordinates at 5 decimal places and same
// leading name), fills in distances from origin, sorts nearest first and keeps
// at most MaxResults.
func RankNearby(origin domain.GeoPoint, candidates []domain.PharmacyCandidate) []domain.PharmacyCandidate {
	seen := make(map[string]struct{}, len(candidates))
	out := make([]domain.PharmacyCandidate, 0, len(candidates))
	for _, c := range candidates {
		key := dedupKey(c)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		c.DistanceKm = math.Round(DistanceKm(origin, domain.GeoPoint{Lat: c.Lat, Lon: c.Lon})*100) / 100
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DistanceKm < out[j].DistanceKm })
	if len(out) > MaxResults {
		out = out[:MaxResults]
	}
	return out
}

func dedupKey(c domain.PharmacyCandidate) string {
	name := []rune(strings.ToLower(strings.TrimSpace(c.Name)))
	if len(name) > nameKeyRunes {
		name = name[:nameKeyRunes]
	}
	return fmt.Sprintf("%d|%d|%s", roundCoord(c.Lat), roundCoord(c.Lon), string(name))
}

// roundCoord keys a coordinate at 5 decimal places. Integers keep values just
// either side of zero on the same key.
func roundCoord(v float64) int64 {
	return int64(math.Round(v * 1e5))
}
