// Where: cli/internal/advisor/ollama.go
// What: Advisor backed by a local Ollama chat endpoint.
// Why: Ask a local model for strategy, cost and recovery hints.
package advisor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/poruru/autodeploy/cli/internal/domain/plan"
	"github.com/poruru/autodeploy/cli/internal/domain/stack"
)

const (
	DefaultOllamaURL   = "http://localhost:11434"
	DefaultOllamaModel = "llama2"
	defaultTimeout     = 30 * time.Second
)

// Ollama talks to POST {URL}/api/chat.
type Ollama struct {
	URL    string
	Model  string
	Client *http.Client
	Logger *slog.Logger
}

// NewOllama returns an Ollama advisor. Empty values fall back to defaults.
func NewOllama(url, model string, timeout time.Duration, logger *slog.Logger) *Ollama {
	if url == "" {
		url = DefaultOllamaURL
	}
	if model == "" {
		model = DefaultOllamaModel
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Ollama{
		URL:    strings.TrimRight(url, "/"),
		Model:  model,
		Client: &http.Client{Timeout: timeout},
		Logger: logger.With("component", "advisor"),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string         `json:"model"`
	Messages []chatMessage  `json:"messages"`
	Stream   bool           `json:"stream"`
	Options  map[string]any `json:"options,omitempty"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
}

// Strategy asks for one of the known strategy names.
func (o *Ollama) Strategy(ctx context.Context, desc stack.Descriptor) (string, bool) {
	summary, _ := json.Marshal(desc)
	var reply struct {
		Strategy string `json:"strategy"`
	}
	prompt := fmt.Sprintf("Choose a deployment strategy among %s for this project. Reply with JSON {\"strategy\": \"...\"}.",
		strings.Join(plan.StrategyNames(), ", "))
	if err := o.ask(ctx, prompt, string(summary), &reply); err != nil {
		o.Logger.Debug("strategy advice unavailable", "error", err)
		return "", false
	}
	if _, ok := plan.Lookup(reply.Strategy); !ok {
		return "", false
	}
	return reply.Strategy, true
}

// CostOptimizations asks for suggestions to fit p within budget.
func (o *Ollama) CostOptimizations(ctx context.Context, p plan.Plan, budget float64) ([]string, error) {
	summary, _ := json.Marshal(p)
	var reply struct {
		Suggestions []string `json:"suggestions"`
	}
	prompt := fmt.Sprintf("The estimated monthly cost is $%.2f and the budget is $%.2f. Suggest cost optimizations. Reply with JSON {\"suggestions\": [\"...\"]}.",
		plan.EstimateCost(p), budget)
	if err := o.ask(ctx, prompt, string(summary), &reply); err != nil {
		return nil, err
	}
	return reply.Suggestions, nil
}

// Recovery asks for a remediation for err.
func (o *Ollama) Recovery(ctx context.Context, err error) (string, bool) {
	if err == nil {
		return "", false
	}
	var reply struct {
		Suggestion string `json:"suggestion"`
	}
	prompt := "A deployment failed. Suggest one recovery step. Reply with JSON {\"suggestion\": \"...\"}."
	if askErr := o.ask(ctx, prompt, err.Error(), &reply); askErr != nil {
		o.Logger.Debug("recovery advice unavailable", "error", askErr)
		return "", false
	}
	s := strings.TrimSpace(reply.Suggestion)
	return s, s != ""
}

func (o *Ollama) ask(ctx context.Context, system, user string, out any) error {
	body, err := json.Marshal(chatRequest{
		Model: o.Model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Options: map[string]any{"temperature": 0.3, "top_p": 0.9, "top_k": 40},
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.URL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := o.Client.Do(req)
	if err != nil {
		return fmt.Errorf("ollama request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("ollama status %d", resp.StatusCode)
	}
	var chat chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return fmt.Errorf("decode ollama response: %w", err)
	}
	obj, ok := firstJSONObject(chat.Message.Content)
	if !ok {
		return fmt.Errorf("ollama reply has no json object")
	}
	return json.Unmarshal([]byte(obj), out)
}

// firstJSONObject returns the outermost {...} span in text.
func firstJSONObject(text string) (string, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}
