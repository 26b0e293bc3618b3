package openai

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/yhchiang/medrag/internal/infrastructure/resilience"
)

const (
	defaultBaseURL   = "https://api.openai.com/v1"
	defaultChatModel = "gpt-3.5-turbo"
	defaultRAGModel  = "gpt-4o"
)

// Config selects the endpoint and the two models the pipeline calls: the
// chat model for the cheap analysis steps, the RAG model for answer
// synthesis.
type Config struct {
	BaseURL   string
	APIKey    string
	ChatModel string
	RAGModel  string
}

// Client speaks the chat-completions protocol. The analyzer, expander, and
// generator all share one client so they share one breaker-keyed executor
// and one connection pool.
type Client struct {
	baseURL    string
	apiKey     string
	chatModel  string
	ragModel   string
	httpClient *http.Client
	executor   *resilience.Executor
}

func New(cfg Config, executor *resilience.Executor) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.ChatModel == "" {
		cfg.ChatModel = defaultChatModel
	}
	if cfg.RAGModel == "" {
		cfg.RAGModel = defaultRAGModel
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		chatModel:  cfg.ChatModel,
		ragModel:   cfg.RAGModel,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		executor:   executor,
	}
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	Temperature    float64         `json:"temperature,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// jsonObjectFormat asks the API to emit a single JSON object, which is what
// the analysis prompts are written against.
var jsonObjectFormat = &responseFormat{Type: "json_object"}

func (c *Client) complete(ctx context.Context, operation string, req chatRequest) (string, error) {
	var resp chatResponse
	err := c.executor.Execute(ctx, "openai."+operation, func(ctx context.Context) error {
		resp = chatResponse{}
		return c.postJSON(ctx, "/chat/completions", req, &resp, operation)
	}, classifyOpenAIError)
	if err != nil {
		return "", wrapTemporaryIfNeeded(operation, err)
	}

	if resp.Error != nil {
		return "", fmt.Errorf("openai %s: %s", operation, resp.Error.Message)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai %s: no choices in response", operation)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}
