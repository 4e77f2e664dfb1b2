package usecase

import (
	"context"
	"strings"
	"unicode/utf8"

	"clinical-assistant/internal/domain"
)

const blockSeparator = "\n\n"

// EnrichmentContext is the aggregated, traceable input to report generation.
type EnrichmentContext struct {
	Symptoms       []string
	Blocks         []domain.EnrichmentBlock
	EnrichmentText string
	HasEnrichment  bool
}

// ContextBuilder runs symptom extraction and resolves each symptom once.
type ContextBuilder struct {
	extractor *Extractor
	resolver  *Resolver
}

func NewContextBuilder(extractor *Extractor, resolver *Resolver) *ContextBuilder {
	return &ContextBuilder{extractor: extractor, resolver: resolver}
}

// Build keeps extraction order, skips repeated or too-short terms and joins
// block texts with a blank line between them.
func (b *ContextBuilder) Build(ctx context.Context, transcript string) EnrichmentContext {
	extracted := b.extractor.Symptoms(ctx, transcript)

	ec := EnrichmentContext{Symptoms: make([]string, 0, len(extracted))}
	seen := make(map[string]struct{}, len(extracted))
	texts := make([]string, 0, len(extracted))
	for _, s := range extracted {
		if utf8.RuneCountInString(s) < minSymptomLen {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		ec.Symptoms = append(ec.Symptoms, s)

		block, ok := b.resolver.Resolve(ctx, s)
		if !ok {
			continue
		}
		ec.Blocks = append(ec.Blocks, block)
		texts = append(texts, block.Text)
	}
	ec.EnrichmentText = strings.Join(texts, blockSeparator)
	ec.HasEnrichment = len(ec.Blocks) > 0
	return ec
}
