package usecase

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"clinical-assistant/internal/domain"
	"clinical-assistant/internal/geo"
)

type mockLocator struct {
	places []domain.Place
	err    error
	radius int
}

func (m *mockLocator) FindPharmacies(_ context.Context, _, _ float64, radiusMeters int) ([]domain.Place, error) {
	m.radius = radiusMeters
	return m.places, m.err
}

func TestNewPharmacyService_RequiresLocator(t *testing.T) {
	_, err := NewPharmacyService(nil, zerolog.Nop())
	require.Error(t, err)
}

func TestPharmacyNearby_HappyPath(t *testing.T) {
	locator := &mockLocator{places: []domain.Place{
		{Name: "Far", Lat: 40.05, Lon: -74.0},
		{Name: " ", Lat: 40.001, Lon: -74.0, Tags: map[string]string{"addr:housenumber": "12", "addr:street": "Main St", "addr:city": "Springfield"}},
		{Name: "Near", Lat: 40.002, Lon: -74.0},
		{Name: "Near", Lat: 40.002, Lon: -74.0},
		{Name: "Mid", Lat: 40.01, Lon: -74.0},
	}}
	svc, err := NewPharmacyService(locator, zerolog.Nop())
	require.NoError(t, err)

	out, err := svc.Nearby(context.Background(), NearbyInput{Lat: 40.0, Lon: -74.0, Radius: 800})
	require.NoError(t, err)
	require.Equal(t, 800, out.Radius)
	require.Equal(t, 800, locator.radius)

	require.Len(t, out.Pharmacies, 3)
	require.Equal(t, "Pharmacy", out.Pharmacies[0].Name)
	require.Equal(t, "12 Main St, Springfield", out.Pharmacies[0].Address)
	require.Equal(t, "Near", out.Pharmacies[1].Name)
	require.Equal(t, "Mid", out.Pharmacies[2].Name)
	require.LessOrEqual(t, out.Pharmacies[0].DistanceKm, out.Pharmacies[1].DistanceKm)
}

func TestPharmacyNearby_LookupFailure(t *testing.T) {
	svc, err := NewPharmacyService(&mockLocator{err: errors.New("overpass timeout")}, zerolog.Nop())
	require.NoError(t, err)

	out, err := svc.Nearby(context.Background(), NearbyInput{Lat: 1, Lon: 1})
	require.NoError(t, err)
	require.NotNil(t, out.Pharmacies)
	require.Empty(t, out.Pharmacies)
	require.Equal(t, geo.DefaultRadius, out.Radius)
}

func TestPharmacyNearby_InvalidCoordinates(t *testing.T) {
	svc, err := NewPharmacyService(&mockLocator{}, zerolog.Nop())
	require.NoError(t, err)

	for _, in := range []NearbyInput{{Lat: 91}, {Lon: -181}, {Lat: math.NaN()}} {
		_, err := svc.Nearby(context.Background(), in)
		var ucErr *Error
		require.ErrorAs(t, err, &ucErr)
		require.Equal(t, ErrorInvalidInput, ucErr.Code)
	}
}
