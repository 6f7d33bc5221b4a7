package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/dao-advisor/internal/domain/ai"
)

func newTestClient(t *testing.T, status int, body string, seen *map[string]any) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "models/gemini-test:generateContent"), r.URL.Path)
		if seen != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(seen))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	c, err := NewClient(context.Background(), "test-key", "gemini-test", Options{
		BaseURL:    srv.URL,
		MaxTokens:  512,
		HTTPClient: srv.Client(),
	})
	require.NoError(t, err)
	return c
}

func TestGenerate(t *testing.T) {
	var seen map[string]any
	body := `{"candidates":[{"content":{"role":"model","parts":[{"text":"{\"tldr\":\"x\"}"}]},"finishReason":"STOP"}]}`
	c := newTestClient(t, http.StatusOK, body, &seen)

	out, err := c.Generate(context.Background(), "system rules", "the proposal")
	require.NoError(t, err)
	assert.Equal(t, `{"tldr":"x"}`, out)

	raw, err := json.Marshal(seen)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "system rules")
	assert.Contains(t, string(raw), "the proposal")
	assert.Contains(t, string(raw), "application/json")

	assert.Equal(t, "Google Gemini", c.Provider())
	assert.Equal(t, "gemini-test", c.Model())
}

func TestGenerate_QuotaExceeded(t *testing.T) {
	body := `{"error":{"code":429,"message":"Resource has been exhausted","status":"RESOURCE_EXHAUSTED"}}`
	c := newTestClient(t, http.StatusTooManyRequests, body, nil)

	_, err := c.Generate(context.Background(), "s", "u")
	assert.ErrorIs(t, err, ai.ErrQuotaExceeded)
}

func TestGenerate_ServerError(t *testing.T) {
	body := `{"error":{"code":500,"message":"internal","status":"INTERNAL"}}`
	c := newTestClient(t, http.StatusInternalServerError, body, nil)

	_, err := c.Generate(context.Background(), "s", "u")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ai.ErrQuotaExceeded)
}

func TestGenerate_NoCandidates(t *testing.T) {
	c := newTestClient(t, http.StatusOK, `{"candidates":[]}`, nil)

	_, err := c.Generate(context.Background(), "s", "u")
	assert.ErrorIs(t, err, ai.ErrEmptyResponse)
}

func TestNewClient_RequiresKey(t *testing.T) {
	_, err := NewClient(context.Background(), "", "gemini-test", Options{})
	assert.Error(t, err)
}
