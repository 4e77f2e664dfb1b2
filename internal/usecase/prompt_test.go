package usecase

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseStringArray(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
		ok   bool
	}{
		{name: "plain", raw: `["headache", "fever"]`, want: []string{"headache", "fever"}, ok: true},
		{name: "surrounded by prose", raw: "Sure! Here you go:\n[\"cough\"]\nHope it helps.", want: []string{"cough"}, ok: true},
		{name: "bracket inside string", raw: `["pain [left side]", "rash"] trailing ]`, want: []string{"pain [left side]", "rash"}, ok: true},
		{name: "non strings dropped", raw: `["fever", 3, null, "cough"]`, want: []string{"fever", "cough"}, ok: true},
		{name: "empty array", raw: `[]`, want: []string{}, ok: true},
		{name: "no array", raw: "no symptoms found", ok: false},
		{name: "unbalanced", raw: `["fever"`, ok: false},
		{name: "invalid json", raw: `[fever, cough]`, ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseStringArray(tt.raw)
			require.Equal(t, tt.ok, ok)
			if tt.ok {
				require.Equal(t, tt.want, got)
			}
		})
	}
}

func TestBuildReportPrompt_Templates(t *testing.T) {
	with := buildReportPrompt("Patient has a headache.", EnrichmentContext{
		Symptoms:       []string{"headache"},
		EnrichmentText: "Recommendations for headache:\nMedications: Ibuprofen",
		HasEnrichment:  true,
	})
	require.Contains(t, with, "Medications: Ibuprofen")
	require.Contains(t, with, "never state that no recommendations")
	require.NotContains(t, with, "omit this section")

	without := buildReportPrompt("Patient has a headache.", EnrichmentContext{})
	require.Contains(t, without, "omit this section")
	require.NotContains(t, without, "Reference Information")
}

func TestPrompts_TruncateTranscript(t *testing.T) {
	long := strings.Repeat("é", reportTranscriptLimit+500)

	require.Contains(t, buildReportPrompt(long, EnrichmentContext{}), strings.Repeat("é", reportTranscriptLimit)+"\n")
	require.NotContains(t, buildReportPrompt(long, EnrichmentContext{}), strings.Repeat("é", reportTranscriptLimit+1))
	require.NotContains(t, buildSymptomPrompt(long), strings.Repeat("é", symptomTranscriptLimit+1))
	require.NotContains(t, buildMedicationPrompt(long), strings.Repeat("é", medicationTranscriptLimit+1))
}
