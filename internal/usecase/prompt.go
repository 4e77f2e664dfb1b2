package usecase

import (
	"bytes"
	"encoding/json"
	"strings"
	"unicode/utf8"
)

const (
	symptomTranscriptLimit    = 1500
	medicationTranscriptLimit = 2000
	reportTranscriptLimit     = 2000

	extractionMaxTokens = 200
	reportMaxTokens     = 1000
	probeMaxTokens      = 5
)

const extractionSystemPrompt = "You extract medical information from clinical transcripts. Respond with a JSON array only, no prose."

const reportSystemPrompt = "You are a helpful medical assistant that translates clinical language into patient-friendly summaries."

func buildSymptomPrompt(transcript string) string {
	return strings.Join([]string{
		"List every symptom or medical condition explicitly mentioned in the transcript below.",
		"Only include items that are actually stated; do not infer or diagnose.",
		`Return ONLY a JSON array of short lowercase strings, for example ["headache", "fever"].`,
		"If nothing is mentioned, return [].",
		"",
		"Transcript:",
		truncateRunes(transcript, symptomTranscriptLimit),
	}, "\n")
}

func buildMedicationPrompt(transcript string) string {
	return strings.Join([]string{
		"List ALL medication names mentioned anywhere in the transcript below,",
		"whether prescribed, suggested, discussed, or merely spoken in passing.",
		`Return ONLY a JSON array of medication names, for example ["Ibuprofen", "Amoxicillin"].`,
		"If no medication is mentioned, return [].",
		"",
		"Transcript:",
		truncateRunes(transcript, medicationTranscriptLimit),
	}, "\n")
}

// buildReportPrompt picks the template by whether enrichment was found. With
// enrichment the model must turn it into concrete recommendations; without it
// the recommendations section may be left out.
func buildReportPrompt(transcript string, ec EnrichmentContext) string {
	lines := []string{
		"Convert the following clinical transcription into a clear, easy-to-understand summary for the patient.",
		"Use simple language, avoid medical jargon, and organize the information in a friendly, reassuring manner.",
		"",
		"Clinical Transcription:",
		truncateRunes(transcript, reportTranscriptLimit),
		"",
	}
	if ec.HasEnrichment {
		lines = append(lines,
			"Reference Information (symptoms: "+strings.Join(ec.Symptoms, ", ")+"):",
			ec.EnrichmentText,
			"",
			"Please provide:",
			"1. A brief overview of what was discussed",
			"2. Key findings or observations",
			"3. Medical terms explained in plain language",
			"4. Recommendations: extract the concrete medications and home remedies from the Reference Information above and list them.",
			"   Reference information was supplied, so never state that no recommendations or treatments were discussed.",
			"5. Any important notes or reminders",
		)
	} else {
		lines = append(lines,
			"Please provide:",
			"1. A brief overview of what was discussed",
			"2. Key findings or observations",
			"3. Medical terms explained in plain language",
			"4. Recommendations or next steps, only if the transcription mentions any. If none were discussed, omit this section entirely.",
			"5. Any important notes or reminders",
		)
	}
	lines = append(lines, "", "Format the response in a clear, structured way that a patient can easily understand.")
	return strings.Join(lines, "\n")
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// parseStringArray extracts the first balanced [...] span from raw model
// output and decodes the string elements. Anything unparseable yields false.
func parseStringArray(raw string) ([]string, bool) {
	span, ok := firstBracketSpan(raw)
	if !ok {
		return nil, false
	}
	var items []any
	dec := json.NewDecoder(bytes.NewBufferString(span))
	if err := dec.Decode(&items); err != nil {
		return nil, false
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok {
			out = append(out, s)
		}
	}
	return out, true
}

func firstBracketSpan(s string) (string, bool) {
	start := strings.IndexByte(s, '[')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString, escaped := false, false
	for i := start; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case inString && c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '[':
			depth++
		case c == ']':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
