package domain

// Source records where an enrichment block's content originated.
type Source string

const (
	SourceExternalSummary  Source = "external-summary"
	SourceTreatmentVariant Source = "external-summary+treatment-variant"
	SourceInternalFallback Source = "internal-fallback"
)

// EnrichmentBlock is supplementary treatment guidance attached to one symptom.
type EnrichmentBlock struct {
	Symptom string
	Source  Source
	Text    string
}

// RecommendationEntry is a static recommendation keyed by symptom keyword.
type RecommendationEntry struct {
	Medications  []string `json:"medications"`
	HomeRemedies []string `json:"home_remedies"`
}

// Empty reports whether the entry carries nothing worth surfacing.
func (e RecommendationEntry) Empty() bool {
	return len(e.Medications) == 0 && len(e.HomeRemedies) == 0
}
