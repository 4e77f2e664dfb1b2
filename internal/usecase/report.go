package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"clinical-assistant/internal/domain"
	"clinical-assistant/internal/integrations/goodrx"
)

const defaultMaxTranscript = 20000

type ReportService struct {
	llm              Completer
	extractor        *Extractor
	builder          *ContextBuilder
	store            ReportStore
	maxTranscriptLen int
	log              zerolog.Logger
	now              func() time.Time
}

type SummarizeInput struct {
	Transcript string
}

type SummarizeOutput struct {
	ReportID    string
	Summary     string
	Symptoms    []string
	Sources     []domain.Source
	Medications []string
	PriceLinks  []domain.PriceLink
	Provider    string
	Timestamp   string
}

type ProviderStatus struct {
	OK      bool
	Message string
	Error   string
}

type HealthStatus struct {
	Status     string
	Provider   string
	Model      string
	Configured bool
}

// NewReportService wires the pipeline. store may be nil, in which case
// reports are not persisted.
func NewReportService(llm Completer, extractor *Extractor, builder *ContextBuilder, store ReportStore, maxTranscriptLen int, log zerolog.Logger) (*ReportService, error) {
	if llm == nil {
		return nil, errors.New("usecase: completer must not be nil")
	}
	if extractor == nil {
		return nil, errors.New("usecase: extractor must not be nil")
	}
	if builder == nil {
		return nil, errors.New("usecase: context builder must not be nil")
	}
	if maxTranscriptLen <= 0 {
		maxTranscriptLen = defaultMaxTranscript
	}
	return &ReportService{
		llm:              llm,
		extractor:        extractor,
		builder:          builder,
		store:            store,
		maxTranscriptLen: maxTranscriptLen,
		log:              log,
		now:              time.Now,
	}, nil
}

// Summarize turns a transcript into a patient-friendly report. Extraction and
// enrichment failures only thin out the report; the final completion failing
// is the only error returned besides input validation.
func (s *ReportService) Summarize(ctx context.Context, in SummarizeInput) (SummarizeOutput, error) {
	transcript := strings.TrimSpace(in.Transcript)
	if transcript == "" {
		return SummarizeOutput{}, newError(ErrorInvalidInput, "empty_transcript",
			`No transcription provided. Send {"transcription": "your text here"}`, nil)
	}
	if utf8.RuneCountInString(transcript) > s.maxTranscriptLen {
		return SummarizeOutput{}, newError(ErrorInvalidInput, "transcript_too_long",
			fmt.Sprintf("Transcription is longer than %d characters.", s.maxTranscriptLen), nil)
	}

	if !s.llm.Configured() {
		return SummarizeOutput{}, newError(ErrorServiceUnavailable, "provider_unavailable", unavailableMessage(s.llm.Name()), nil)
	}

	ec := s.builder.Build(ctx, transcript)
	medications := s.extractor.Medications(ctx, transcript)
	s.log.Info().
		Strs("symptoms", ec.Symptoms).
		Int("enrichment_blocks", len(ec.Blocks)).
		Int("medications", len(medications)).
		Msg("aggregated report context")

	summary, err := s.llm.Complete(ctx, reportSystemPrompt, buildReportPrompt(transcript, ec), reportMaxTokens)
	if err != nil {
		return SummarizeOutput{}, s.completionError(err)
	}
	if summary == "" {
		return SummarizeOutput{}, newError(ErrorUpstream, "empty_completion",
			providerLabel(s.llm.Name())+" returned empty content. Try again or use a different model.", nil)
	}

	out := SummarizeOutput{
		ReportID:    newUUID(),
		Summary:     summary,
		Symptoms:    ec.Symptoms,
		Sources:     blockSources(ec.Blocks),
		Medications: medications,
		PriceLinks:  priceLinks(medications),
		Provider:    s.llm.Name(),
		Timestamp:   s.now().UTC().Format(time.RFC3339),
	}
	s.persist(ctx, out)
	return out, nil
}

func (s *ReportService) persist(ctx context.Context, out SummarizeOutput) {
	if s.store == nil {
		return
	}
	err := s.store.SaveReport(ctx, domain.Report{
		ID:          out.ReportID,
		Summary:     out.Summary,
		Symptoms:    out.Symptoms,
		Medications: out.Medications,
		PriceLinks:  out.PriceLinks,
		Provider:    out.Provider,
		CreatedAt:   out.Timestamp,
	})
	if err != nil {
		s.log.Warn().Err(err).Str("report_id", out.ReportID).Msg("failed to persist report")
	}
}

// GetReport loads a previously generated report.
func (s *ReportService) GetReport(ctx context.Context, id string) (domain.Report, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Report{}, newError(ErrorInvalidInput, "empty_report_id", "Report id is required.", nil)
	}
	if s.store == nil {
		return domain.Report{}, newError(ErrorServiceUnavailable, "report_store_disabled", "Report storage is not configured.", nil)
	}
	report, found, err := s.store.GetReport(ctx, id)
	if err != nil {
		return domain.Report{}, newError(ErrorInternal, "dynamodb_read_error", "Could not load the report.", err)
	}
	if !found {
		return domain.Report{}, newError(ErrorNotFound, "report_not_found", "Report not found.", nil)
	}
	return report, nil
}

// CheckProvider sends a tiny prompt to confirm the provider answers.
func (s *ReportService) CheckProvider(ctx context.Context) ProviderStatus {
	label := providerLabel(s.llm.Name())
	if _, err := s.llm.Complete(ctx, "", "Reply only: OK", probeMaxTokens); err != nil {
		return ProviderStatus{OK: false, Error: s.completionError(err).Message}
	}
	return ProviderStatus{OK: true, Message: label + " is working"}
}

// Health reports provider configuration without calling it.
func (s *ReportService) Health() HealthStatus {
	return HealthStatus{
		Status:     "healthy",
		Provider:   s.llm.Name(),
		Model:      s.llm.Model(),
		Configured: s.llm.Configured(),
	}
}

// completionError converts a provider failure into a patient-facing error
// using the structured kind.
func (s *ReportService) completionError(err error) *Error {
	name := s.llm.Name()
	label := providerLabel(name)
	switch domain.KindOf(err) {
	case domain.KindUnavailable:
		var svcErr *domain.ServiceError
		if errors.As(err, &svcErr) && svcErr.StatusCode != 0 {
			return newError(ErrorServiceUnavailable, "provider_unavailable", label+" is temporarily unavailable. Try again in a minute.", err)
		}
		return newError(ErrorServiceUnavailable, "provider_unavailable", unavailableMessage(name), err)
	case domain.KindRateLimited:
		return newError(ErrorRateLimited, "provider_rate_limited", rateLimitMessage(name), err)
	case domain.KindAuth:
		return newError(ErrorUpstream, "provider_auth", "Invalid "+label+" API key. Check the configured key and try again.", err)
	case domain.KindModelNotFound:
		return newError(ErrorUpstream, "model_not_found",
			fmt.Sprintf("%s model '%s' not found. Check the configured model name.", label, s.llm.Model()), err)
	case domain.KindConnection:
		if name == "ollama" {
			return newError(ErrorUpstream, "provider_unreachable",
				"Cannot connect to Ollama. Make sure Ollama is installed and running, then pull the model.", err)
		}
		return newError(ErrorUpstream, "provider_unreachable", "Could not reach "+label+". Check the network connection and try again.", err)
	default:
		return newError(ErrorUpstream, "provider_error", label+" returned an error. Try again in a moment.", err)
	}
}

func providerLabel(name string) string {
	switch name {
	case "groq":
		return "Groq"
	case "openai":
		return "OpenAI"
	case "ollama":
		return "Ollama"
	case "huggingface":
		return "Hugging Face"
	default:
		return name
	}
}

func unavailableMessage(name string) string {
	switch name {
	case "groq":
		return "Groq API key not set. Get a free key at https://console.groq.com and set GROQ_API_KEY."
	case "openai":
		return "OpenAI API key not configured. Add OPENAI_API_KEY to your .env file."
	case "huggingface":
		return "Hugging Face API key not configured. Get a free key from https://huggingface.co/settings/tokens."
	default:
		return providerLabel(name) + " is not available right now."
	}
}

func rateLimitMessage(name string) string {
	switch name {
	case "groq":
		return "Groq rate limit. Wait a minute or try Ollama (fully free, no limits)."
	case "openai":
		return "OpenAI rate limit or quota exceeded. Check your usage at platform.openai.com."
	default:
		return providerLabel(name) + " rate limit reached. Wait a minute and try again."
	}
}

func priceLinks(medications []string) []domain.PriceLink {
	links := make([]domain.PriceLink, 0, len(medications))
	for _, m := range medications {
		links = append(links, domain.PriceLink{Medication: m, URL: goodrx.PriceURL(m)})
	}
	return links
}

func blockSources(blocks []domain.EnrichmentBlock) []domain.Source {
	out := make([]domain.Source, 0, len(blocks))
	for _, b := range blocks {
		out = append(out, b.Source)
	}
	return out
}

var newUUID = func() string {
	return uuid.NewString()
}
