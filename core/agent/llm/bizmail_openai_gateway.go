package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"bizmail_server/core/port/out"
	"bizmail_server/pkg/apperr"
	"bizmail_server/pkg/httputil"
)

const DefaultOpenAIModel = "gpt-4o-mini"

// OpenAIConfig configures the chat-completions gateway.
type OpenAIConfig struct {
	APIKey string
	Model  string
	// BaseURL overrides the API root, e.g. for a proxy.
	BaseURL string

	MaxAttempts  int
	RetryDelay   time.Duration
	RateLimitRPS float64

	HTTPClient *http.Client
}

// OpenAIGateway serves the same port over the chat-completions API.
type OpenAIGateway struct {
	client *openai.Client
	model  string
	retry  *retrier
}

var _ out.LLMGateway = (*OpenAIGateway)(nil)

func NewOpenAIGateway(cfg OpenAIConfig) *OpenAIGateway {
	if cfg.Model == "" {
		cfg.Model = DefaultOpenAIModel
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = httputil.NewClient(httputil.LLMClientConfig())
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.HTTPClient = cfg.HTTPClient
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &OpenAIGateway{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
		retry:  newRetrier("openai-chat", cfg.MaxAttempts, cfg.RetryDelay, cfg.RateLimitRPS),
	}
}

func (g *OpenAIGateway) Complete(ctx context.Context, messages []out.Message, temperature float64) (string, error) {
	return g.complete(ctx, g.request(messages, temperature, false))
}

func (g *OpenAIGateway) CompleteStructured(ctx context.Context, messages []out.Message, temperature float64) (string, error) {
	return g.complete(ctx, g.request(messages, temperature, true))
}

func (g *OpenAIGateway) request(messages []out.Message, temperature float64, jsonOnly bool) openai.ChatCompletionRequest {
	chat := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		role := openai.ChatMessageRoleUser
		if m.Role == out.RoleSystem {
			role = openai.ChatMessageRoleSystem
		}
		chat[i] = openai.ChatCompletionMessage{Role: role, Content: m.Content}
	}

	req := openai.ChatCompletionRequest{
		Model:       g.model,
		Messages:    chat,
		Temperature: float32(temperature),
	}
	if jsonOnly {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}
	return req
}

func (g *OpenAIGateway) complete(ctx context.Context, req openai.ChatCompletionRequest) (string, error) {
	return g.retry.do(ctx, func(ctx context.Context) (string, error) {
		resp, err := g.client.CreateChatCompletion(ctx, req)
		if err != nil {
			return "", g.translateError(err)
		}
		if len(resp.Choices) == 0 {
			return "", apperr.MalformedResponse("no choices")
		}
		text := strings.TrimSpace(resp.Choices[0].Message.Content)
		if text == "" {
			return "", apperr.MalformedResponse(fmt.Sprintf("empty content, finish_reason=%s", resp.Choices[0].FinishReason))
		}
		return text, nil
	})
}

// translateError classifies API and status errors; transport errors pass
// through for retry.
func (g *OpenAIGateway) translateError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		code := fmt.Sprint(apiErr.Code)
		if code == "model_not_found" || apiErr.HTTPStatusCode == http.StatusNotFound {
			return apperr.ModelUnavailable(g.model, apiErr.Message)
		}
		if apiErr.HTTPStatusCode >= http.StatusBadRequest {
			return apperr.GatewayHTTPStatus(apiErr.HTTPStatusCode, apiErr.Message)
		}
		return apperr.ProviderError(code, apiErr.Message)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode >= http.StatusBadRequest {
		return apperr.GatewayHTTPStatus(reqErr.HTTPStatusCode, reqErr.Error())
	}
	return err
}
