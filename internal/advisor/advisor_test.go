package advisor

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poruru/autodeploy/cli/internal/domain/plan"
	"github.com/poruru/autodeploy/cli/internal/domain/stack"
	"github.com/poruru/autodeploy/cli/internal/infra/logging"
)

func ollamaServer(t *testing.T, content string, status int) (*httptest.Server, *chatRequest) {
	t.Helper()
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		_ = json.NewEncoder(w).Encode(chatResponse{Message: chatMessage{Role: "assistant", Content: content}})
	}))
	t.Cleanup(srv.Close)
	return srv, &got
}

func TestNullAdvisor(t *testing.T) {
	var a Advisor = Null{}
	_, ok := a.Strategy(context.Background(), stack.Descriptor{})
	assert.False(t, ok)
	s, err := a.CostOptimizations(context.Background(), plan.Plan{}, 10)
	assert.NoError(t, err)
	assert.Empty(t, s)
	_, ok = a.Recovery(context.Background(), errors.New("x"))
	assert.False(t, ok)
}

func TestOllamaStrategy(t *testing.T) {
	srv, got := ollamaServer(t, `Sure! {"strategy": "performance"} hope it helps`, http.StatusOK)
	a := NewOllama(srv.URL, "", time.Second, logging.Discard())

	s, ok := a.Strategy(context.Background(), stack.Descriptor{RuntimeVersion: "8.0"})
	require.True(t, ok)
	assert.Equal(t, plan.StrategyPerformance, s)
	assert.Equal(t, DefaultOllamaModel, got.Model)
	assert.False(t, got.Stream)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
}

func TestOllamaStrategyRejectsUnknownName(t *testing.T) {
	srv, _ := ollamaServer(t, `{"strategy": "yolo"}`, http.StatusOK)
	_, ok := NewOllama(srv.URL, "m", time.Second, logging.Discard()).Strategy(context.Background(), stack.Descriptor{})
	assert.False(t, ok)
}

func TestOllamaCostOptimizations(t *testing.T) {
	srv, _ := ollamaServer(t, `{"suggestions": ["use smaller instances", "scale to zero"]}`, http.StatusOK)
	s, err := NewOllama(srv.URL, "m", time.Second, logging.Discard()).CostOptimizations(context.Background(), plan.Plan{}, 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"use smaller instances", "scale to zero"}, s)
}

func TestOllamaDegradesOnServerError(t *testing.T) {
	srv, _ := ollamaServer(t, "", http.StatusInternalServerError)
	a := NewOllama(srv.URL, "m", time.Second, logging.Discard())
	_, ok := a.Recovery(context.Background(), errors.New("quota"))
	assert.False(t, ok)
	_, err := a.CostOptimizations(context.Background(), plan.Plan{}, 5)
	assert.Error(t, err)
}

func TestOllamaDegradesOnNonJSONReply(t *testing.T) {
	srv, _ := ollamaServer(t, "I cannot help with that", http.StatusOK)
	_, ok := NewOllama(srv.URL, "m", time.Second, logging.Discard()).Recovery(context.Background(), errors.New("x"))
	assert.False(t, ok)
}

func TestOllamaRecovery(t *testing.T) {
	srv, _ := ollamaServer(t, `{"suggestion": "request a quota increase"}`, http.StatusOK)
	s, ok := NewOllama(srv.URL, "m", time.Second, logging.Discard()).Recovery(context.Background(), errors.New("quota"))
	require.True(t, ok)
	assert.Equal(t, "request a quota increase", s)
}

func TestExtractRepositoryURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"deploy https://github.com/acme/Shop.Api please", "https://github.com/acme/Shop.Api", true},
		{"github.com/acme/store.", "https://github.com/acme/store", true},
		{"https://gitlab.com/group/app", "https://gitlab.com/group/app", true},
		{"no repository here", "", false},
	}
	for _, tt := range tests {
		got, ok := ExtractRepositoryURL(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}
