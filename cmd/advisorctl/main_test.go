package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/dao-advisor/internal/domain/proposal"
	"github.com/bryanwahyu/dao-advisor/internal/extract"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestExtractCmd_Stdin(t *testing.T) {
	raw := "Here you go:\n```json\n{\"tldr\":\"A\",\"riskLevel\":\"Low\",\"riskExplanation\":\"B\",\"keyConsiderations\":[\"C\"]}\n```"
	out, err := execute(t, raw, "extract", "-")
	require.NoError(t, err)

	var got proposal.AnalysisResult
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "A", got.TLDR)
	assert.Equal(t, "Low", got.RiskLevel)
	assert.Equal(t, []string{"C"}, got.KeyConsiderations)
}

func TestExtractCmd_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raw.txt")
	require.NoError(t, os.WriteFile(path, []byte(`{"tldr":"A","riskLevel":"High","riskExplanation":"B","keyConsiderations":["C"]}`), 0o600))

	out, err := execute(t, "", "extract", path)
	require.NoError(t, err)
	assert.Contains(t, out, `"riskLevel": "High"`)
}

func TestExtractCmd_Failures(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		code string
		want error
	}{
		{"no object", "sorry, I cannot help", "NO_JSON_OBJECT_FOUND", extract.ErrNoJSONObjectFound},
		{"malformed", "blah {not json} blah", "MALFORMED_JSON", extract.ErrMalformedJSON},
		{"missing field", `{"tldr":"A"}`, "MISSING_REQUIRED_FIELD", extract.ErrMissingRequiredField},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.raw, "extract")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, strings.HasPrefix(err.Error(), tt.code), err.Error())
		})
	}
}

func TestExtractCmd_MissingFile(t *testing.T) {
	_, err := execute(t, "", "extract", filepath.Join(t.TempDir(), "absent.txt"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFallbackCmd(t *testing.T) {
	out, err := execute(t, "", "fallback", "--title", "Raise fees", "--type", "treasury")
	require.NoError(t, err)

	var got proposal.AnalysisResult
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, extract.BuildFallback(proposal.AnalysisRequest{Title: "Raise fees", ProposalType: "treasury"}), got)
}

func TestFallbackCmd_RequiresTitle(t *testing.T) {
	_, err := execute(t, "", "fallback")
	assert.Error(t, err)
}

func TestPromptCmd(t *testing.T) {
	out, err := execute(t, "", "prompt", "-t", "Raise fees", "-d", "Raise swap fees to 0.3%", "--system")
	require.NoError(t, err)
	assert.Contains(t, out, "Proposal Title: Raise fees")
	assert.Contains(t, out, "Proposal Description: Raise swap fees to 0.3%")
	assert.Contains(t, out, "Proposal Type: governance")
	assert.Contains(t, out, "DAO governance analyst")
}

func writeOpenAIConfig(t *testing.T, baseURL string) string {
	t.Helper()
	for _, k := range []string{"PORT", "AI_PROVIDER", "AI_MODEL", "AI_TIMEOUT", "GEMINI_API_KEY", "OPENAI_API_KEY", "REDIS_ADDR", "LOG_LEVEL"} {
		t.Setenv(k, "")
	}
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := fmt.Sprintf("ai:\n  provider: OpenAI\n  model: gpt-4o-mini\n  apiKey: test-key\n  baseURL: %s\n", baseURL)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func chatServer(t *testing.T, status int, content string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":{"message":"slow down","type":"rate_limit"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"model":  "gpt-4o-mini",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestAnalyzeCmd(t *testing.T) {
	srv := chatServer(t, http.StatusOK, "```json\n{\"tldr\":\"A\",\"riskLevel\":\"High\",\"riskExplanation\":\"B\",\"keyConsiderations\":[\"C\",\"D\"]}\n```")
	cfgPath := writeOpenAIConfig(t, srv.URL+"/v1")

	out, err := execute(t, "", "analyze", "--config", cfgPath, "-t", "Raise fees", "-d", "Raise swap fees", "--verbose")
	require.NoError(t, err)

	var report struct {
		Provider string                  `json:"provider"`
		Fallback bool                    `json:"fallback"`
		Reason   string                  `json:"reason"`
		Analysis proposal.AnalysisResult `json:"analysis"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "OpenAI", report.Provider)
	assert.False(t, report.Fallback)
	assert.Empty(t, report.Reason)
	assert.Equal(t, "High", report.Analysis.RiskLevel)
}

func TestAnalyzeCmd_QuotaFallsBack(t *testing.T) {
	srv := chatServer(t, http.StatusTooManyRequests, "")
	cfgPath := writeOpenAIConfig(t, srv.URL+"/v1")

	out, err := execute(t, "", "analyze", "--config", cfgPath, "-t", "Raise fees", "-d", "Raise swap fees", "--verbose")
	require.NoError(t, err)

	var report struct {
		Fallback bool   `json:"fallback"`
		Reason   string `json:"reason"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.True(t, report.Fallback)
	assert.Equal(t, "QUOTA_EXCEEDED", report.Reason)
}

func TestAnalyzeCmd_BadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ai:\n  provider: llama\n"), 0o600))

	_, err := execute(t, "", "analyze", "--config", path, "-t", "t", "-d", "d")
	assert.ErrorContains(t, err, "load config")
}
