package openai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"clinical-assistant/internal/domain"
)

// ---------------------------------------------------------------------------
// chatURL helper
// ---------------------------------------------------------------------------

func TestChatURL(t *testing.T) {
	cases := []struct {
		base string
		want string
	}{
		{"https://api.openai.com/v1", "https://api.openai.com/v1/chat/completions"},
		{"https://api.groq.com/openai/v1/", "https://api.groq.com/openai/v1/chat/completions"},
		{"http://localhost:8080", "http://localhost:8080/v1/chat/completions"},
		{"", "https://api.openai.com/v1/chat/completions"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, chatURL(tc.base), "base=%q", tc.base)
	}
}

// ---------------------------------------------------------------------------
// constructors
// ---------------------------------------------------------------------------

func TestPresets(t *testing.T) {
	o := NewOpenAI()
	require.Equal(t, ProviderOpenAI, o.Name())
	require.Equal(t, "https://api.openai.com/v1", o.baseURL)
	require.Equal(t, "gpt-3.5-turbo", o.Model())
	require.False(t, o.Configured())

	g := NewGroq(WithAPIKey("gsk"), WithModel("llama-3.1-8b-instant"))
	require.Equal(t, ProviderGroq, g.Name())
	require.Equal(t, "https://api.groq.com/openai/v1", g.baseURL)
	require.Equal(t, "llama-3.1-8b-instant", g.Model())
	require.True(t, g.Configured())
}

// ---------------------------------------------------------------------------
// resolveAPIKey
// ---------------------------------------------------------------------------

type fakeGetter struct {
	val    string
	err    error
	onCall func()
}

func (f *fakeGetter) GetParameter(_ context.Context, _ string) (string, error) {
	if f.onCall != nil {
		f.onCall()
	}
	return f.val, f.err
}

func TestResolveAPIKey_ParameterFetchedOnce(t *testing.T) {
	calls := 0
	g := &fakeGetter{val: `{"token":"sk-from-ssm"}`}
	g.onCall = func() { calls++ }
	c := NewOpenAI(WithKeyParameter(g, "/clinical/openai-api-key"))
	require.True(t, c.Configured())

	key, err := c.resolveAPIKey(context.Background())
	require.NoError(t, err)
	require.Equal(t, "sk-from-ssm", key)

	_, _ = c.resolveAPIKey(context.Background())
	_, _ = c.resolveAPIKey(context.Background())
	require.Equal(t, 1, calls, "SSM must only be called once per process lifetime")
}

func TestResolveAPIKey_StaticKeyWins(t *testing.T) {
	g := &fakeGetter{err: errors.New("must not be called")}
	c := NewOpenAI(WithAPIKey("sk-env"), WithKeyParameter(g, "/p"))
	key, err := c.resolveAPIKey(context.Background())
	require.NoError(t, err)
	require.Equal(t, "sk-env", key)
}

func TestComplete_NoCredentialIsUnavailable(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	c := NewGroq(WithBaseURL(srv.URL))
	_, err := c.Complete(context.Background(), "sys", "user", 10)
	require.Equal(t, domain.KindUnavailable, domain.KindOf(err))
	require.False(t, called)
}

func TestComplete_ParameterErrorIsUnavailable(t *testing.T) {
	c := NewGroq(WithKeyParameter(&fakeGetter{err: errors.New("ssm down")}, "/p"))
	_, err := c.Complete(context.Background(), "sys", "user", 10)
	require.Equal(t, domain.KindUnavailable, domain.KindOf(err))
	require.ErrorContains(t, err, "ssm down")
}

// ---------------------------------------------------------------------------
// Client.Complete
// ---------------------------------------------------------------------------

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	return NewOpenAI(
		WithAPIKey("sk-test"),
		WithModel("gpt-mock"),
		WithBaseURL(srv.URL),
		WithHTTPClient(&http.Client{Timeout: 2 * time.Second}),
	)
}

func TestComplete_HappyPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var got chatRequest
		require.NoError(t, json.Unmarshal(raw, &got))
		require.Equal(t, "gpt-mock", got.Model)
		require.Equal(t, 200, got.MaxTokens)
		require.Len(t, got.Messages, 2)
		require.Equal(t, "system", got.Messages[0].Role)
		require.Equal(t, "You extract symptoms.", got.Messages[0].Content)
		require.Equal(t, "user", got.Messages[1].Role)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-123",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "  [\"headache\"]  "}}]
		}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	out, err := c.Complete(context.Background(), "You extract symptoms.", "Patient has a headache.", 200)
	require.NoError(t, err)
	require.Equal(t, `["headache"]`, out)
}

func TestComplete_EmptyContentIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"index":0,"message":{"role":"assistant","content":""}}]}`))
	}))
	defer srv.Close()

	out, err := newTestClient(t, srv).Complete(context.Background(), "s", "u", 5)
	require.NoError(t, err)
	require.Empty(t, out)
}

func TestComplete_StatusKinds(t *testing.T) {
	cases := []struct {
		status int
		kind   domain.ServiceErrorKind
	}{
		{http.StatusTooManyRequests, domain.KindRateLimited},
		{http.StatusUnauthorized, domain.KindAuth},
		{http.StatusNotFound, domain.KindModelNotFound},
		{http.StatusInternalServerError, domain.KindUpstream},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
			_, _ = w.Write([]byte(`{"error":"nope"}`))
		}))

		_, err := newTestClient(t, srv).Complete(context.Background(), "s", "u", 5)
		srv.Close()

		var svcErr *domain.ServiceError
		require.ErrorAs(t, err, &svcErr)
		require.Equal(t, tc.kind, svcErr.Kind, "status=%d", tc.status)
		require.Equal(t, tc.status, svcErr.StatusCode)
	}
}

func TestComplete_InvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not-a-json`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv).Complete(context.Background(), "s", "u", 5)
	require.ErrorContains(t, err, "decode response")
}

func TestComplete_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv).Complete(context.Background(), "s", "u", 5)
	require.ErrorContains(t, err, "no choices")
}

func TestComplete_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	c.httpClient = &http.Client{Timeout: 50 * time.Millisecond}
	_, err := c.Complete(context.Background(), "s", "u", 5)
	require.Equal(t, domain.KindConnection, domain.KindOf(err))
}

func TestComplete_NetworkError(t *testing.T) {
	c := NewOpenAI(WithAPIKey("sk"), WithBaseURL("http://127.0.0.1:1"), WithHTTPClient(&http.Client{Timeout: 100 * time.Millisecond}))
	_, err := c.Complete(context.Background(), "s", "u", 5)
	require.Equal(t, domain.KindConnection, domain.KindOf(err))
	require.ErrorContains(t, err, "request failed")
}
