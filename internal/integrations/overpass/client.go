// Package overpass implements the geo lookup service on the OpenStreetMap
// Overpass API.
package overpass

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"clinical-assistant/internal/domain"
)

const (
	Provider       = "overpass"
	defaultBaseURL = "https://overpass-api.de/api/interpreter"
	defaultTimeout = 25 * time.Second
)

type element struct {
	Type   string            `json:"type"`
	Lat    float64           `json:"lat"`
	Lon    float64           `json:"lon"`
	Center *struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"center"`
	Tags map[string]string `json:"tags"`
}

type interpreterResponse struct {
	Elements []element `json:"elements"`
}

// Client queries pharmacies around a point.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a Client. An empty baseURL selects the public interpreter.
func New(baseURL string) *Client {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{baseURL: baseURL, httpClient: &http.Client{Timeout: defaultTimeout}}
}

func pharmacyQuery(lat, lon float64, radiusMeters int) string {
	around := fmt.Sprintf("(around:%d,%.6f,%.6f)", radiusMeters, lat, lon)
	return "[out:json][timeout:25];(" +
		`node["amenity"="pharmacy"]` + around + ";" +
		`way["amenity"="pharmacy"]` + around + ";" +
		");out center;"
}

// FindPharmacies returns pharmacies within radiusMeters of (lat, lon). Ways
// are reported at their center point.
func (c *Client) FindPharmacies(ctx context.Context, lat, lon float64, radiusMeters int) ([]domain.Place, error) {
	form := url.Values{"data": []string{pharmacyQuery(lat, lon, radiusMeters)}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("overpass: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.NewServiceError(Provider, domain.KindConnection, err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode != http.StatusOK {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return nil, &domain.ServiceError{
			Provider:   Provider,
			Kind:       domain.KindForStatus(res.StatusCode),
			StatusCode: res.StatusCode,
			Err:        fmt.Errorf("interpreter failed: %s", string(buf)),
		}
	}

	var payload interpreterResponse
	if err := json.NewDecoder(io.LimitReader(res.Body, 8<<20)).Decode(&payload); err != nil {
		return nil, domain.NewServiceError(Provider, domain.KindUpstream, fmt.Errorf("decode response: %w", err))
	}

	places := make([]domain.Place, 0, len(payload.Elements))
	for _, el := range payload.Elements {
		lat, lon := el.Lat, el.Lon
		if el.Center != nil {
			lat, lon = el.Center.Lat, el.Center.Lon
		}
		if lat == 0 && lon == 0 {
			continue
		}
		places = append(places, domain.Place{
			Name: strings.TrimSpace(el.Tags["name"]),
			Lat:  lat,
			Lon:  lon,
			Tags: el.Tags,
		})
	}
	return places, nil
}
