package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"

	"clinical-assistant/internal/domain"
	"clinical-assistant/internal/recommend"
)

type completion struct {
	text string
	err  error
}

// mockLLM answers by prompt kind so one fake can serve extraction and report
// generation.
type mockLLM struct {
	name        string
	configured  bool
	symptoms    completion
	medications completion
	report      completion
	probe       completion

	mu          sync.Mutex
	reportCalls []string
	calls       int
}

func newMockLLM() *mockLLM {
	return &mockLLM{name: "groq", configured: true}
}

func (m *mockLLM) Name() string     { return m.name }
func (m *mockLLM) Model() string    { return "test-model" }
func (m *mockLLM) Configured() bool { return m.configured }

func (m *mockLLM) Complete(_ context.Context, _, userPrompt string, _ int) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	var c completion
	switch {
	case strings.HasPrefix(userPrompt, "List every symptom"):
		c = m.symptoms
	case strings.HasPrefix(userPrompt, "List ALL medication"):
		c = m.medications
	case strings.HasPrefix(userPrompt, "Convert the following"):
		m.reportCalls = append(m.reportCalls, userPrompt)
		c = m.report
	default:
		c = m.probe
	}
	return c.text, c.err
}

func unavailableLLM() *mockLLM {
	m := newMockLLM()
	m.configured = false
	err := domain.NewServiceError("groq", domain.KindUnavailable, errors.New("api key not configured"))
	m.symptoms = completion{err: err}
	m.medications = completion{err: err}
	m.report = completion{err: err}
	m.probe = completion{err: err}
	return m
}

type mockSummaries struct {
	pages map[string]string
	err   error
	terms []string
}

func (m *mockSummaries) Summary(_ context.Context, term string) (string, error) {
	m.terms = append(m.terms, term)
	if m.err != nil {
		return "", m.err
	}
	return m.pages[term], nil
}

type mockReports struct {
	saved   []domain.Report
	saveErr error
	getErr  error
}

func (m *mockReports) SaveReport(_ context.Context, r domain.Report) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = append(m.saved, r)
	return nil
}

func (m *mockReports) GetReport(_ context.Context, id string) (domain.Report, bool, error) {
	if m.getErr != nil {
		return domain.Report{}, false, m.getErr
	}
	for _, r := range m.saved {
		if r.ID == id {
			return r, true, nil
		}
	}
	return domain.Report{}, false, nil
}

func mustStore(data string) *recommend.Store {
	s, err := recommend.Parse([]byte(data))
	if err != nil {
		panic(err)
	}
	return s
}

const headacheStore = `{"headache":{"medications":["Ibuprofen","Acetaminophen"],"home_remedies":["Rest"]}}`
