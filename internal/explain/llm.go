package explain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"log-analyzer/internal/types"
)

// LLMExplainer uses a local LLM (e.g., Ollama) to generate explanations
type LLMExplainer struct {
	url    string
	model  string
	client *http.Client
}

func NewLLMExplainer(url, model string) *LLMExplainer {
	if url == "" {
		url = "http://localhost:11434/api/generate"
	}
	if model == "" {
		model = "tinyllama" // Default lightweight model
	}
	return &LLMExplainer{
		url:   url,
		model: model,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// OllamaRequest represents the payload for Ollama
type OllamaRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

// OllamaResponse represents the response from Ollama
type OllamaResponse struct {
	Response string `json:"response"`
}

func (e *LLMExplainer) Explain(ctx context.Context, alert *types.Alert) error {
	reqBody := OllamaRequest{
		Model:  e.model,
		Prompt: e.buildPrompt(alert),
		Stream: false,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal llm request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to build llm request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		// Soft failure: caller falls back to the template
		return fmt.Errorf("llm connection failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("llm returned status: %s", resp.Status)
	}

	var llmResp OllamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&llmResp); err != nil {
		return fmt.Errorf("failed to decode llm response: %w", err)
	}

	text := strings.TrimSpace(llmResp.Response)
	if text == "" {
		return fmt.Errorf("llm returned an empty explanation")
	}
	alert.Explanation = text
	return nil
}

func (e *LLMExplainer) buildPrompt(alert *types.Alert) string {
	return fmt.Sprintf(`You are a security analyst. Explain the risk of this alert in 1 sentence.
Alert: %s
User: %s
IP: %s
Failed attempts in window: %d
Window (minutes): %d
Explanation:`, alert.Summary, alert.Key.User, alert.Key.IP, alert.WindowCount, alert.WindowMinutes)
}
