package usecase

import (
	"context"

	"clinical-assistant/internal/domain"
)

// Completer is the text-completion service. Implementations return
// *domain.ServiceError on failure and ("", nil) for empty output.
type Completer interface {
	Name() string
	Model() string
	Configured() bool
	Complete(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (string, error)
}

// Summarizer is the encyclopedic summary service. A missing article is
// ("", nil).
type Summarizer interface {
	Summary(ctx context.Context, term string) (string, error)
}

// PharmacyLocator is the geo lookup service.
type PharmacyLocator interface {
	FindPharmacies(ctx context.Context, lat, lon float64, radiusMeters int) ([]domain.Place, error)
}

// ReportStore persists generated reports.
type ReportStore interface {
	SaveReport(ctx context.Context, report domain.Report) error
	GetReport(ctx context.Context, id string) (domain.Report, bool, error)
}
