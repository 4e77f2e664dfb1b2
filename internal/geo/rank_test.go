package geo

import (
	"testing"

	"github.com/stretchr/testify/require"

	"clinical-assistant/internal/domain"
)

func TestClampRadius(t *testing.T) {
	cases := []struct {
		in   int
		want int
	}{
		{500, 500},
		{25000, 25000},
		{1200, 1200},
		{499, DefaultRadius},
		{25001, DefaultRadius},
		{0, DefaultRadius},
		{-10, DefaultRadius},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, ClampRadius(tc.in), "in=%d", tc.in)
	}
}

func TestDistanceKm_Planar(t *testing.T) {
	o := domain.GeoPoint{Lat: 40, Lon: -74}
	require.InDelta(t, 111.0, DistanceKm(o, domain.GeoPoint{Lat: 41, Lon: -74}), 1e-9)
	require.InDelta(t, 111.0, DistanceKm(o, domain.GeoPoint{Lat: 40, Lon: -73}), 1e-9)
	require.Zero(t, DistanceKm(o, o))
}

func TestRankNearby_DeduplicatesRoundedCoordinates(t *testing.T) {
	origin := domain.GeoPoint{Lat: 40.0, Lon: -74.0}
	out := RankNearby(origin, []domain.PharmacyCandidate{
		{Name: "Main Street Pharmacy", Lat: 40.010001, Lon: -74.010001},
		{Name: "Main Street Pharmacy", Lat: 40.010004, Lon: -74.010004},
	})
	require.Len(t, out, 1)
	require.Equal(t, 40.010001, out[0].Lat)
}

func TestRankNearby_DeduplicatesAcrossZero(t *testing.T) {
	origin := domain.GeoPoint{Lat: 0.01, Lon: 0.01}
	out := RankNearby(origin, []domain.PharmacyCandidate{
		{Name: "Equator Pharmacy", Lat: 0.000001, Lon: -0.000001},
		{Name: "Equator Pharmacy", Lat: -0.000001, Lon: 0.000001},
	})
	require.Len(t, out, 1)
	require.Equal(t, dedupKey(out[0]), dedupKey(domain.PharmacyCandidate{Name: "equator pharmacy"}))
}

func TestRankNearby_SameSpotDifferentNamesKept(t *testing.T) {
	origin := domain.GeoPoint{Lat: 40.0, Lon: -74.0}
	out := RankNearby(origin, []domain.PharmacyCandidate{
		{Name: "CVS", Lat: 40.01, Lon: -74.01},
		{Name: "Walgreens", Lat: 40.01, Lon: -74.01},
	})
	require.Len(t, out, 2)
}

func TestRankNearby_SortedAndCapped(t *testing.T) {
	origin := domain.GeoPoint{Lat: 40.0, Lon: -74.0}
	out := RankNearby(origin, []domain.PharmacyCandidate{
		{Name: "far", Lat: 40.05, Lon: -74.0},
		{Name: "near", Lat: 40.001, Lon: -74.0},
		{Name: "mid", Lat: 40.01, Lon: -74.0},
		{Name: "farther", Lat: 40.09, Lon: -74.0},
		{Name: "mid2", Lat: 40.0, Lon: -74.02},
	})
	require.Len(t, out, 3)
	require.Equal(t, []string{"near", "mid", "mid2"}, []string{out[0].Name, out[1].Name, out[2].Name})
	for i := 1; i < len(out); i++ {
		require.LessOrEqual(t, out[i-1].DistanceKm, out[i].DistanceKm)
	}
	require.InDelta(t, 0.11, out[0].DistanceKm, 1e-9)
}

func TestRankNearby_Empty(t *testing.T) {
	require.Empty(t, RankNearby(domain.GeoPoint{}, nil))
}
