package domain

// GeoPoint is a WGS84 coordinate pair.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Place is a raw result from the geo lookup service.
type Place struct {
	Name string
	Lat  float64
	Lon  float64
	Tags map[string]string
}

// PharmacyCandidate is a pharmacy ranked by distance from a query point.
type PharmacyCandidate struct {
	Name       string  `json:"name"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	Address    string  `json:"address,omitempty"`
	DistanceKm float64 `json:"distance_km"`
}
