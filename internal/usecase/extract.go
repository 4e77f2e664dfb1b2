package usecase

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"clinical-assistant/internal/domain"
	"clinical-assistant/internal/recommend"
)

const (
	maxSymptoms    = 8
	maxMedications = 10
	minSymptomLen  = 3
)

// commonMedications is matched against the transcript when the completion
// service yields nothing. Order decides output order.
var commonMedications = []string{
	"ibuprofen", "acetaminophen", "paracetamol", "aspirin", "naproxen",
	"tylenol", "advil", "motrin", "aleve",
	"amoxicillin", "azithromycin", "penicillin", "doxycycline", "ciprofloxacin", "cephalexin",
	"metformin", "insulin", "lisinopril", "amlodipine", "losartan", "metoprolol", "atorvastatin", "simvastatin",
	"omeprazole", "pantoprazole", "famotidine", "ranitidine",
	"cetirizine", "loratadine", "fexofenadine", "diphenhydramine", "benadryl", "claritin", "zyrtec",
	"prednisone", "albuterol", "fluticasone", "montelukast",
	"sertraline", "fluoxetine", "escitalopram", "bupropion", "gabapentin", "levothyroxine",
	"hydrocodone", "oxycodone", "tramadol", "codeine",
	"dextromethorphan", "guaifenesin", "pseudoephedrine", "loperamide", "ondansetron",
	"melatonin", "sumatriptan", "warfarin", "clopidogrel", "furosemide", "hydrochlorothiazide",
}

// Extractor pulls symptom and medication names out of a transcript. Symptoms
// fall back to the recommendation store keys only when the completion service
// gives no usable answer; medications fall back to commonMedications whenever
// the service path yields none.
type Extractor struct {
	llm   Completer
	store *recommend.Store
	log   zerolog.Logger
}

// NewExtractor accepts a nil store, which disables the symptom keyword fallback.
func NewExtractor(llm Completer, store *recommend.Store, log zerolog.Logger) *Extractor {
	return &Extractor{llm: llm, store: store, log: log}
}

// Symptoms returns lowercase, trimmed, unique symptom terms longer than two
// characters in order of first appearance, at most eight.
func (e *Extractor) Symptoms(ctx context.Context, transcript string) []string {
	items, ok := e.completeArray(ctx, "symptoms", buildSymptomPrompt(transcript))
	if ok {
		return normalizeSymptoms(items)
	}
	out := normalizeSymptoms(matchStoreKeywords(e.store, transcript))
	if len(out) > 0 {
		e.log.Debug().Strs("symptoms", out).Msg("symptoms taken from keyword fallback")
	}
	return out
}

func normalizeSymptoms(items []string) []string {
	out := make([]string, 0, maxSymptoms)
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		term := strings.ToLower(strings.TrimSpace(it))
		if utf8.RuneCountInString(term) < minSymptomLen {
			continue
		}
		if _, dup := seen[term]; dup {
			continue
		}
		seen[term] = struct{}{}
		out = append(out, term)
		if len(out) == maxSymptoms {
			break
		}
	}
	return out
}

// Medications returns medication names from the completion service, or from
// keyword matching against commonMedications when the service yields none.
func (e *Extractor) Medications(ctx context.Context, transcript string) []string {
	var out []string
	if items, ok := e.completeArray(ctx, "medications", buildMedicationPrompt(transcript)); ok {
		out = dedupeNames(items, maxMedications)
	}
	if len(out) == 0 {
		out = matchCommonMedications(transcript)
		if len(out) > 0 {
			e.log.Debug().Strs("medications", out).Msg("medications taken from keyword fallback")
		}
	}
	return out
}

func (e *Extractor) completeArray(ctx context.Context, what, prompt string) ([]string, bool) {
	if e.llm == nil {
		return nil, false
	}
	raw, err := e.llm.Complete(ctx, extractionSystemPrompt, prompt, extractionMaxTokens)
	if err != nil {
		e.log.Warn().Err(err).
			Str("extract", what).
			Str("kind", string(domain.KindOf(err))).
			Msg("extraction completion failed")
		return nil, false
	}
	items, ok := parseStringArray(raw)
	if !ok {
		e.log.Debug().Str("extract", what).Msg("extraction output had no JSON array")
		return nil, false
	}
	return items, true
}

func dedupeNames(items []string, limit int) []string {
	out := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		name := strings.TrimSpace(it)
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, name)
		if len(out) == limit {
			break
		}
	}
	return out
}

// matchStoreKeywords returns store keys that occur in the transcript as whole
// words, singular or with a trailing "s"/"es", in store order.
func matchStoreKeywords(store *recommend.Store, transcript string) []string {
	lower := strings.ToLower(transcript)
	var found []string
	for _, key := range store.Keys() {
		for _, form := range []string{key, key + "s", key + "es"} {
			if containsWord(lower, form) {
				found = append(found, key)
				break
			}
		}
	}
	return found
}

func containsWord(text, word string) bool {
	if word == "" {
		return false
	}
	for i := 0; ; {
		idx := strings.Index(text[i:], word)
		if idx < 0 {
			return false
		}
		start, end := i+idx, i+idx+len(word)
		if !isLetterBefore(text, start) && !isLetterAt(text, end) {
			return true
		}
		i = start + 1
	}
}

func isLetterBefore(s string, i int) bool {
	if i == 0 {
		return false
	}
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return unicode.IsLetter(r)
}

func isLetterAt(s string, i int) bool {
	if i >= len(s) {
		return false
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return unicode.IsLetter(r)
}

func matchCommonMedications(transcript string) []string {
	lower := strings.ToLower(transcript)
	caser := cases.Title(language.English)
	var found []string
	for _, med := range commonMedications {
		if strings.Contains(lower, med) {
			found = append(found, caser.String(med))
		}
	}
	return dedupeNames(found, maxMedications)
}
