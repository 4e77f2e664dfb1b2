package usecase

import (
	"context"
	"errors"
	"math"
	"strings"

	"github.com/rs/zerolog"

	"clinical-assistant/internal/domain"
	"clinical-assistant/internal/geo"
)

type PharmacyService struct {
	locator PharmacyLocator
	log     zerolog.Logger
}

type NearbyInput struct {
	Lat    float64
	Lon    float64
	Radius int
}

type NearbyOutput struct {
	Pharmacies []domain.PharmacyCandidate
	Radius     int
}

func NewPharmacyService(locator PharmacyLocator, log zerolog.Logger) (*PharmacyService, error) {
	if locator == nil {
		return nil, errors.New("usecase: pharmacy locator must not be nil")
	}
	return &PharmacyService{locator: locator, log: log}, nil
}

// Nearby returns up to three pharmacies closest to the point. A failing geo
// lookup yields an empty list.
func (s *PharmacyService) Nearby(ctx context.Context, in NearbyInput) (NearbyOutput, error) {
	if !validCoordinate(in.Lat, 90) || !validCoordinate(in.Lon, 180) {
		return NearbyOutput{}, newError(ErrorInvalidInput, "invalid_coordinates", "lat must be within ±90 and lon within ±180.", nil)
	}
	radius := geo.ClampRadius(in.Radius)
	out := NearbyOutput{Pharmacies: []domain.PharmacyCandidate{}, Radius: radius}

	places, err := s.locator.FindPharmacies(ctx, in.Lat, in.Lon, radius)
	if err != nil {
		s.log.Warn().Err(err).Int("radius", radius).Msg("pharmacy lookup failed")
		return out, nil
	}

	candidates := make([]domain.PharmacyCandidate, 0, len(places))
	for _, p := range places {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			name = "Pharmacy"
		}
		candidates = append(candidates, domain.PharmacyCandidate{
			Name:    name,
			Lat:     p.Lat,
			Lon:     p.Lon,
			Address: formatAddress(p.Tags),
		})
	}
	out.Pharmacies = geo.RankNearby(domain.GeoPoint{Lat: in.Lat, Lon: in.Lon}, candidates)
	return out, nil
}

func validCoordinate(v, limit float64) bool {
	return !math.IsNaN(v) && v >= -limit && v <= limit
}

func formatAddress(tags map[string]string) string {
	street := strings.TrimSpace(strings.TrimSpace(tags["addr:housenumber"]) + " " + strings.TrimSpace(tags["addr:street"]))
	var parts []string
	for _, p := range []string{street, tags["addr:city"], tags["addr:postcode"]} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}
