package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"clinical-assistant/internal/domain"
)

func TestNew_Defaults(t *testing.T) {
	c := New("", "")
	require.Equal(t, "http://localhost:11434", c.BaseURL())
	require.Equal(t, "llama2", c.Model())
	require.True(t, c.Configured())
	require.Equal(t, "ollama", c.Name())
}

func TestComplete_HappyPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/generate", r.URL.Path)
		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "mistral", req.Model)
		require.False(t, req.Stream)
		require.Equal(t, "system\n\nuser", req.Prompt)
		require.NotNil(t, req.Options)
		require.Equal(t, 50, req.Options.NumPredict)
		_ = json.NewEncoder(w).Encode(map[string]any{"response": " Hello there! ", "done": true})
	}))
	defer srv.Close()

	out, err := New(srv.URL+"/", "mistral").Complete(context.Background(), "system", "user", 50)
	require.NoError(t, err)
	require.Equal(t, "Hello there!", out)
}

func TestComplete_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"model 'llama2' not found"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, "").Complete(context.Background(), "s", "u", 0)
	require.Equal(t, domain.KindModelNotFound, domain.KindOf(err))
}

func TestComplete_ConnectionRefused(t *testing.T) {
	c := New("http://127.0.0.1:1", "")
	c.httpClient = &http.Client{Timeout: 100 * time.Millisecond}
	_, err := c.Complete(context.Background(), "s", "u", 0)
	require.Equal(t, domain.KindConnection, domain.KindOf(err))
}

func TestComplete_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"response":`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, "").Complete(context.Background(), "s", "u", 0)
	require.ErrorContains(t, err, "decode response")
}
