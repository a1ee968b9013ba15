package openai_compat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"cogitator/internal/providers"
)

const maxResponseBytes = 4 << 20

var ErrEmptyReply = errors.New("chat completion carried no text")

type Config struct {
	BaseURL    string
	APIKey     string
	Headers    map[string]string
	HTTPClient *http.Client
}

// Client speaks the OpenAI chat-completions wire format. OpenRouter is the
// default upstream. Each Chat call is exactly one HTTP attempt.
type Client struct {
	cfg Config
}

func New(cfg Config) *Client {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &Client{cfg: cfg}
}

var _ providers.Provider = (*Client)(nil)

// StatusError is a non-2xx reply from the upstream.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("provider status %d: %s", e.Code, e.Message)
}

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type wireRequest struct {
	Model       string        `json:"model"`
	Messages    []wireMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
	TopP        float64       `json:"top_p"`
}

type wireResponse struct {
	Choices []struct {
		Message struct {
			Content json.RawMessage `json:"content"`
		} `json:"message"`
		Text         string `json:"text"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) Chat(ctx context.Context, req providers.ChatRequest) (providers.ChatResponse, error) {
	body, endpoint, err := c.buildPayload(req)
	if err != nil {
		return providers.ChatResponse{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return providers.ChatResponse{}, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if key := strings.TrimSpace(c.cfg.APIKey); key != "" {
		httpReq.Header.Set("Authorization", "Bearer "+key)
	}
	for k, v := range c.cfg.Headers {
		if strings.TrimSpace(v) != "" {
			httpReq.Header.Set(k, v)
		}
	}

	resp, err := c.cfg.HTTPClient.Do(httpReq)
	if err != nil {
		return providers.ChatResponse{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return providers.ChatResponse{}, fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode/100 != 2 {
		return providers.ChatResponse{}, &StatusError{Code: resp.StatusCode, Message: upstreamMessage(raw)}
	}
	return parseChatCompletions(raw)
}

func (c *Client) buildPayload(req providers.ChatRequest) ([]byte, string, error) {
	endpoint, err := c.endpoint()
	if err != nil {
		return nil, "", err
	}

	wr := wireRequest{
		Model:       req.Model,
		MaxTokens:   max(req.MaxTokens, 0),
		Temperature: max(req.Temperature, 0),
		TopP:        max(req.TopP, 0),
	}
	if strings.TrimSpace(req.SystemPrompt) != "" {
		wr.Messages = append(wr.Messages, wireMessage{Role: "system", Content: req.SystemPrompt})
	}
	wr.Messages = append(wr.Messages, wireMessage{Role: "user", Content: req.UserPrompt})

	b, err := json.Marshal(wr)
	if err != nil {
		return nil, "", fmt.Errorf("marshal chat completion payload: %w", err)
	}
	return b, endpoint, nil
}

func (c *Client) endpoint() (string, error) {
	base := strings.TrimSpace(c.cfg.BaseURL)
	if base == "" {
		return "", fmt.Errorf("base url is empty")
	}
	if strings.HasSuffix(base, "/chat/completions") {
		return base, nil
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	return u.JoinPath("chat", "completions").String(), nil
}

func parseChatCompletions(body []byte) (providers.ChatResponse, error) {
	var wr wireResponse
	if err := json.Unmarshal(body, &wr); err != nil {
		return providers.ChatResponse{}, fmt.Errorf("decode chat completion response: %w", err)
	}
	if wr.Error != nil && wr.Error.Message != "" {
		return providers.ChatResponse{}, fmt.Errorf("provider error: %s", wr.Error.Message)
	}
	if len(wr.Choices) == 0 {
		return providers.ChatResponse{}, fmt.Errorf("empty choices in chat completion response")
	}
	choice := wr.Choices[0]
	text := choice.Text
	if text == "" {
		text = contentText(choice.Message.Content)
	}
	// A reply cut off before any text still reports the truncation.
	if strings.TrimSpace(text) == "" && choice.FinishReason != providers.FinishReasonLength {
		return providers.ChatResponse{}, ErrEmptyReply
	}
	return providers.ChatResponse{Text: text, FinishReason: choice.FinishReason}, nil
}

// contentText accepts either a plain string or a list of typed parts.
func contentText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var parts []struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &parts); err != nil {
		return ""
	}
	texts := make([]string, 0, len(parts))
	for _, p := range parts {
		if p.Text != "" {
			texts = append(texts, p.Text)
		}
	}
	return strings.Join(texts, "\n")
}

// upstreamMessage pulls error.message out of an error body, falling back to a
// short prefix of the raw body.
func upstreamMessage(body []byte) string {
	var wr wireResponse
	if err := json.Unmarshal(body, &wr); err == nil && wr.Error != nil && wr.Error.Message != "" {
		return wr.Error.Message
	}
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
