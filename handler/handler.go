package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"clinical-assistant/internal/domain"
	"clinical-assistant/internal/usecase"
)

const (
	correlationHeader = "X-Correlation-Id"
	reportsPrefix     = "/api/reports/"
)

// ReportUseCase is the report pipeline consumed by the handler.
type ReportUseCase interface {
	Summarize(ctx context.Context, in usecase.SummarizeInput) (usecase.SummarizeOutput, error)
	GetReport(ctx context.Context, id string) (domain.Report, error)
	CheckProvider(ctx context.Context) usecase.ProviderStatus
	Health() usecase.HealthStatus
}

// PharmacyUseCase is the pharmacy finder consumed by the handler.
type PharmacyUseCase interface {
	Nearby(ctx context.Context, in usecase.NearbyInput) (usecase.NearbyOutput, error)
}

type Handler struct {
	reports    ReportUseCase
	pharmacies PharmacyUseCase
	log        zerolog.Logger
}

type summarizeRequest struct {
	Transcription string `json:"transcription"`
}

type summarizeResponse struct {
	ReportID    string             `json:"report_id"`
	Summary     string             `json:"summary"`
	Symptoms    []string           `json:"symptoms"`
	Sources     []domain.Source    `json:"sources"`
	Medications []string           `json:"medications"`
	PriceLinks  []domain.PriceLink `json:"price_links"`
	Provider    string             `json:"provider"`
	Timestamp   string             `json:"timestamp"`
}

type reportResponse struct {
	ReportID    string             `json:"report_id"`
	Summary     string             `json:"summary"`
	Symptoms    []string           `json:"symptoms"`
	Medications []string           `json:"medications"`
	PriceLinks  []domain.PriceLink `json:"price_links"`
	Provider    string             `json:"provider"`
	Timestamp   string             `json:"timestamp"`
}

type pharmaciesResponse struct {
	Pharmacies []domain.PharmacyCandidate `json:"pharmacies"`
	Radius     int                        `json:"radius"`
}

type testAIResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// NewHandler validates dependencies.
func NewHandler(reports ReportUseCase, pharmacies PharmacyUseCase, log zerolog.Logger) (*Handler, error) {
	if reports == nil {
		return nil, errors.New("handler: report use case must not be nil")
	}
	if pharmacies == nil {
		return nil, errors.New("handler: pharmacy use case must not be nil")
	}
	return &Handler{reports: reports, pharmacies: pharmacies, log: log}, nil
}

// Handle routes an API Gateway proxy request. Failures are always rendered as
// JSON responses; the returned error is reserved for the Lambda runtime.
func (h *Handler) Handle(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	correlationID := headerValue(event.Headers, correlationHeader)
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	log := h.log.With().
		Str("correlation_id", correlationID).
		Str("method", event.HTTPMethod).
		Str("path", event.Path).
		Logger()
	ctx = log.WithContext(ctx)

	resp := h.route(ctx, event)
	resp.Headers[correlationHeader] = correlationID
	log.Info().Int("status", resp.StatusCode).Msg("request handled")
	return resp, nil
}

func (h *Handler) route(ctx context.Context, event events.APIGatewayProxyRequest) events.APIGatewayProxyResponse {
	path := strings.TrimSuffix(event.Path, "/")
	method := event.HTTPMethod

	if method == http.MethodOptions {
		return response(http.StatusNoContent, "")
	}

	switch {
	case path == "/api/summarize":
		if method != http.MethodPost {
			return methodNotAllowed()
		}
		return h.summarize(ctx, event.Body)
	case strings.HasPrefix(path, reportsPrefix):
		if method != http.MethodGet {
			return methodNotAllowed()
		}
		id := event.PathParameters["id"]
		if id == "" {
			id = strings.TrimPrefix(path, reportsPrefix)
		}
		return h.getReport(ctx, id)
	case path == "/api/pharmacies":
		if method != http.MethodGet {
			return methodNotAllowed()
		}
		return h.nearby(ctx, event.QueryStringParameters)
	case path == "/api/test-ai":
		if method != http.MethodGet {
			return methodNotAllowed()
		}
		status := h.reports.CheckProvider(ctx)
		return jsonResponse(http.StatusOK, testAIResponse{OK: status.OK, Message: status.Message, Error: status.Error})
	case path == "/api/health":
		if method != http.MethodGet {
			return methodNotAllowed()
		}
		health := h.reports.Health()
		body := map[string]any{
			"status":      health.Status,
			"ai_provider": health.Provider,
			"model":       health.Model,
		}
		body[health.Provider+"_configured"] = health.Configured
		return jsonResponse(http.StatusOK, body)
	default:
		return jsonResponse(http.StatusNotFound, errorResponse{Error: "NOT_FOUND", Message: "Route not found."})
	}
}

func (h *Handler) summarize(ctx context.Context, body string) events.APIGatewayProxyResponse {
	var req summarizeRequest
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		return jsonResponse(http.StatusBadRequest, errorResponse{
			Error:   string(usecase.ErrorInvalidInput),
			Message: `Request body must be JSON: {"transcription": "your text here"}`,
		})
	}

	out, err := h.reports.Summarize(ctx, usecase.SummarizeInput{Transcript: req.Transcription})
	if err != nil {
		return h.errorToResponse(ctx, err)
	}
	return jsonResponse(http.StatusOK, summarizeResponse{
		ReportID:    out.ReportID,
		Summary:     out.Summary,
		Symptoms:    nonNil(out.Symptoms),
		Sources:     out.Sources,
		Medications: nonNil(out.Medications),
		PriceLinks:  out.PriceLinks,
		Provider:    out.Provider,
		Timestamp:   out.Timestamp,
	})
}

func (h *Handler) getReport(ctx context.Context, id string) events.APIGatewayProxyResponse {
	report, err := h.reports.GetReport(ctx, id)
	if err != nil {
		return h.errorToResponse(ctx, err)
	}
	return jsonResponse(http.StatusOK, reportResponse{
		ReportID:    report.ID,
		Summary:     report.Summary,
		Symptoms:    nonNil(report.Symptoms),
		Medications: nonNil(report.Medications),
		PriceLinks:  report.PriceLinks,
		Provider:    report.Provider,
		Timestamp:   report.CreatedAt,
	})
}

func (h *Handler) nearby(ctx context.Context, query map[string]string) events.APIGatewayProxyResponse {
	lat, errLat := strconv.ParseFloat(strings.TrimSpace(query["lat"]), 64)
	lon, errLon := strconv.ParseFloat(strings.TrimSpace(query["lon"]), 64)
	if errLat != nil || errLon != nil {
		return jsonResponse(http.StatusBadRequest, errorResponse{
			Error:   string(usecase.ErrorInvalidInput),
			Message: "lat and lon query parameters are required numbers.",
		})
	}
	radius, _ := strconv.Atoi(strings.TrimSpace(query["radius"])) // unparseable means default radius

	out, err := h.pharmacies.Nearby(ctx, usecase.NearbyInput{Lat: lat, Lon: lon, Radius: radius})
	if err != nil {
		return h.errorToResponse(ctx, err)
	}
	return jsonResponse(http.StatusOK, pharmaciesResponse{Pharmacies: out.Pharmacies, Radius: out.Radius})
}

func (h *Handler) errorToResponse(ctx context.Context, err error) events.APIGatewayProxyResponse {
	log := zerolog.Ctx(ctx)

	var ucErr *usecase.Error
	if !errors.As(err, &ucErr) {
		log.Error().Err(err).Msg("unexpected error")
		return jsonResponse(http.StatusInternalServerError, errorResponse{
			Error:   string(usecase.ErrorInternal),
			Message: "Something went wrong. Please try again.",
		})
	}

	status := statusForCode(ucErr.Code)
	event := log.Warn()
	if status >= http.StatusInternalServerError {
		event = log.Error()
	}
	event.Err(ucErr.Err).Str("code", string(ucErr.Code)).Str("reason", ucErr.Reason).Msg("request failed")
	return jsonResponse(status, errorResponse{Error: string(ucErr.Code), Message: ucErr.Message})
}

func statusForCode(code usecase.ErrorCode) int {
	switch code {
	case usecase.ErrorInvalidInput:
		return http.StatusBadRequest
	case usecase.ErrorNotFound:
		return http.StatusNotFound
	case usecase.ErrorServiceUnavailable:
		return http.StatusServiceUnavailable
	case usecase.ErrorRateLimited:
		return http.StatusTooManyRequests
	case usecase.ErrorUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func methodNotAllowed() events.APIGatewayProxyResponse {
	return jsonResponse(http.StatusMethodNotAllowed, errorResponse{Error: "METHOD_NOT_ALLOWED", Message: "Method not allowed."})
}

func jsonResponse(status int, v any) events.APIGatewayProxyResponse {
	body, err := json.Marshal(v)
	if err != nil {
		return response(http.StatusInternalServerError, `{"error":"INTERNAL_ERROR","message":"failed to encode response"}`)
	}
	return response(status, string(body))
}

func response(status int, body string) events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers: map[string]string{
			"Content-Type":                 "application/json",
			"Access-Control-Allow-Origin":  "*",
			"Access-Control-Allow-Headers": "Content-Type, " + correlationHeader,
			"Access-Control-Allow-Methods": "GET, POST, OPTIONS",
		},
		Body: body,
	}
}

func headerValue(headers map[string]string, key string) string {
	for k, v := range headers {
		if strings.EqualFold(k, key) {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
