package llm

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"bizmail_server/core/port/out"
	"bizmail_server/pkg/apperr"
	"bizmail_server/pkg/httputil"
)

const (
	DefaultResponsesURL = "https://rest-assistant.api.cloud.yandex.net/v1/responses"
	DefaultYandexModel  = "yandexgpt/latest"

	defaultInstructions = "Ты полезный ассистент."

	// maxDiagnosticBytes bounds provider payloads echoed into errors.
	maxDiagnosticBytes = 2048
)

// GatewayConfig configures the Responses API gateway.
type GatewayConfig struct {
	APIKey   string
	FolderID string
	Model    string
	URL      string

	MaxAttempts  int
	RetryDelay   time.Duration
	RateLimitRPS float64

	// HTTPClient defaults to an LLM-tuned pooled client.
	HTTPClient *http.Client
}

// Gateway talks to a Responses-style completion endpoint that takes separate
// "instructions" and "input" fields.
type Gateway struct {
	apiKey   string
	folderID string
	model    string
	url      string
	client   *http.Client
	retry    *retrier
}

var _ out.LLMGateway = (*Gateway)(nil)

func NewGateway(cfg GatewayConfig) *Gateway {
	if cfg.Model == "" {
		cfg.Model = DefaultYandexModel
	}
	if cfg.URL == "" {
		cfg.URL = DefaultResponsesURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = httputil.NewClient(httputil.LLMClientConfig())
	}

	return &Gateway{
		apiKey:   cfg.APIKey,
		folderID: cfg.FolderID,
		model:    cfg.Model,
		url:      cfg.URL,
		client:   cfg.HTTPClient,
		retry:    newRetrier("yandex-responses", cfg.MaxAttempts, cfg.RetryDelay, cfg.RateLimitRPS),
	}
}

type responsesRequest struct {
	Model        string  `json:"model"`
	Instructions string  `json:"instructions"`
	Input        string  `json:"input"`
	Temperature  float64 `json:"temperature,omitempty"`
}

func (g *Gateway) Complete(ctx context.Context, messages []out.Message, temperature float64) (string, error) {
	return g.complete(ctx, messages, temperature)
}

// CompleteStructured relies on the prompt for JSON output; the endpoint has
// no response-format switch.
func (g *Gateway) CompleteStructured(ctx context.Context, messages []out.Message, temperature float64) (string, error) {
	return g.complete(ctx, messages, temperature)
}

func (g *Gateway) complete(ctx context.Context, messages []out.Message, temperature float64) (string, error) {
	payload, err := json.Marshal(g.buildRequest(messages, temperature))
	if err != nil {
		return "", apperr.InternalWithError(err)
	}
	return g.retry.do(ctx, func(ctx context.Context) (string, error) {
		return g.post(ctx, payload)
	})
}

// buildRequest folds system messages into instructions and joins the rest
// into a single input.
func (g *Gateway) buildRequest(messages []out.Message, temperature float64) responsesRequest {
	instructions := ""
	var input []string
	for _, m := range messages {
		if m.Role == out.RoleSystem {
			instructions = m.Content
			continue
		}
		input = append(input, m.Content)
	}
	if instructions == "" {
		instructions = defaultInstructions
	}

	return responsesRequest{
		Model:        fmt.Sprintf("gpt://%s/%s", g.folderID, g.model),
		Instructions: instructions,
		Input:        strings.Join(input, "\n\n"),
		Temperature:  temperature,
	}
}

func (g *Gateway) post(ctx context.Context, payload []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(payload))
	if err != nil {
		return "", apperr.InternalWithError(err)
	}
	req.Header.Set("Authorization", "Api-Key "+g.apiKey)
	req.Header.Set("x-folder-id", g.folderID)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return "", apperr.GatewayHTTPStatus(resp.StatusCode, truncate(string(body), maxDiagnosticBytes))
	}
	return g.extractText(body)
}

// extractText pulls the reply text out of a provider payload, trying
// output_text, then output[].content[].text, then text.
func (g *Gateway) extractText(body []byte) (string, error) {
	var result map[string]any
	if err := json.Unmarshal(body, &result); err != nil {
		return "", apperr.MalformedResponse(truncate(string(body), maxDiagnosticBytes))
	}

	if err := g.providerError(result); err != nil {
		return "", err
	}

	if s, ok := result["output_text"].(string); ok && strings.TrimSpace(s) != "" {
		return strings.TrimSpace(s), nil
	}

	if output, ok := result["output"].([]any); ok {
		var texts []string
		for _, item := range output {
			msg, ok := item.(map[string]any)
			if !ok {
				continue
			}
			content, ok := msg["content"].([]any)
			if !ok {
				continue
			}
			for _, c := range content {
				part, ok := c.(map[string]any)
				if !ok {
					continue
				}
				if text, ok := part["text"].(string); ok {
					texts = append(texts, text)
				}
			}
		}
		if joined := strings.TrimSpace(strings.Join(texts, "\n")); joined != "" {
			return joined, nil
		}
	}

	if text, ok := result["text"]; ok && text != nil {
		if s := strings.TrimSpace(fmt.Sprint(text)); s != "" {
			return s, nil
		}
	}

	return "", apperr.MalformedResponse(truncate(string(body), maxDiagnosticBytes))
}

// providerError translates an error-shaped payload: status "failed" or a
// non-empty error field.
func (g *Gateway) providerError(result map[string]any) error {
	status, _ := result["status"].(string)
	rawErr := result["error"]
	hasErr := rawErr != nil && rawErr != ""
	if m, ok := rawErr.(map[string]any); ok && len(m) == 0 {
		hasErr = false
	}
	if status != "failed" && !hasErr {
		return nil
	}

	code, message := "", ""
	switch e := rawErr.(type) {
	case map[string]any:
		code, _ = e["code"].(string)
		message, _ = e["message"].(string)
	case string:
		message = e
	}
	if message == "" {
		message = "Unknown error"
	}

	if strings.Contains(message, "Failed to get model") || code == "model_call_error" {
		return apperr.ModelUnavailable(g.model, message).
			WithDetail("folder_id", g.folderID)
	}
	return apperr.ProviderError(code, message)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return strings.ToValidUTF8(s[:n], "") + "..."
}
