package usecase

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"clinical-assistant/internal/domain"
	"clinical-assistant/internal/recommend"
)

const (
	shortSummaryLen   = 100
	minInformativeLen = 50
)

var treatmentKeywords = []string{"treatment", "medication", "medicine"}

// resolution carries what earlier strategies found for one symptom.
type resolution struct {
	symptom     string
	summary     string
	accumulated string
}

// strategy returns a block and true when it produced acceptable content.
type strategy func(ctx context.Context, res *resolution) (domain.EnrichmentBlock, bool)

// Resolver finds enrichment text for a symptom from, in order: the
// encyclopedic summary, the summary plus a "<symptom> treatment" lookup, and
// the static recommendation store.
type Resolver struct {
	summaries Summarizer
	store     *recommend.Store
	log       zerolog.Logger
}

// NewResolver accepts nil summaries or store; the missing source is skipped.
func NewResolver(summaries Summarizer, store *recommend.Store, log zerolog.Logger) *Resolver {
	return &Resolver{summaries: summaries, store: store, log: log}
}

func (r *Resolver) strategies() []strategy {
	return []strategy{r.fromSummary, r.fromTreatmentVariant, r.fromStore}
}

// Resolve returns at most one block for symptom. It never fails; lookups that
// error count as empty.
func (r *Resolver) Resolve(ctx context.Context, symptom string) (domain.EnrichmentBlock, bool) {
	res := &resolution{symptom: strings.ToLower(strings.TrimSpace(symptom))}
	if res.symptom == "" {
		return domain.EnrichmentBlock{}, false
	}
	for _, s := range r.strategies() {
		if block, ok := s(ctx, res); ok {
			return block, true
		}
	}
	return domain.EnrichmentBlock{}, false
}

func (r *Resolver) fromSummary(ctx context.Context, res *resolution) (domain.EnrichmentBlock, bool) {
	res.summary = r.lookup(ctx, res.symptom)
	res.accumulated = res.summary
	if !mentionsTreatment(res.summary) || utf8.RuneCountInString(res.summary) < minInformativeLen {
		return domain.EnrichmentBlock{}, false
	}
	return domain.EnrichmentBlock{
		Symptom: res.symptom,
		Source:  domain.SourceExternalSummary,
		Text:    "Medical information about " + res.symptom + ":\n" + res.summary,
	}, true
}

func (r *Resolver) fromTreatmentVariant(ctx context.Context, res *resolution) (domain.EnrichmentBlock, bool) {
	if res.summary != "" && utf8.RuneCountInString(res.summary) >= shortSummaryLen {
		return domain.EnrichmentBlock{}, false
	}
	treatment := r.lookup(ctx, res.symptom+" treatment")

	var parts []string
	for _, p := range []string{res.summary, treatment} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	res.accumulated = strings.Join(parts, "\n\n")
	if utf8.RuneCountInString(res.accumulated) < minInformativeLen {
		return domain.EnrichmentBlock{}, false
	}
	return domain.EnrichmentBlock{
		Symptom: res.symptom,
		Source:  domain.SourceTreatmentVariant,
		Text:    "Medical information about " + res.symptom + " and its treatment:\n" + res.accumulated,
	}, true
}

func (r *Resolver) fromStore(_ context.Context, res *resolution) (domain.EnrichmentBlock, bool) {
	key, entry, ok := r.store.Lookup(res.symptom)
	if !ok || entry.Empty() {
		return domain.EnrichmentBlock{}, false
	}
	lines := []string{"Recommendations for " + res.symptom + ":"}
	if len(entry.Medications) > 0 {
		lines = append(lines, "Medications: "+strings.Join(entry.Medications, ", "))
	}
	if len(entry.HomeRemedies) > 0 {
		lines = append(lines, "Home remedies: "+strings.Join(entry.HomeRemedies, ", "))
	}
	r.log.Debug().Str("symptom", res.symptom).Str("key", key).Msg("using stored recommendations")
	return domain.EnrichmentBlock{
		Symptom: res.symptom,
		Source:  domain.SourceInternalFallback,
		Text:    strings.Join(lines, "\n"),
	}, true
}

func (r *Resolver) lookup(ctx context.Context, term string) string {
	if r.summaries == nil {
		return ""
	}
	text, err := r.summaries.Summary(ctx, term)
	if err != nil {
		r.log.Warn().Err(err).Str("term", term).Msg("summary lookup failed")
		return ""
	}
	return strings.TrimSpace(text)
}

func mentionsTreatment(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range treatmentKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
