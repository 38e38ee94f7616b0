package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Message is one turn submitted to the chat-completion endpoint. Content is a
// plain string for text turns, or a []ContentPart for vision turns.
type Message struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

// ContentPart is one element of a multi-part (vision) user message.
type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

type ImageURL struct {
	URL string `json:"url"`
}

// TextMessage builds a plain text turn.
func TextMessage(role, content string) Message {
	return Message{Role: role, Content: content}
}

// ImageMessage builds a vision user turn with an instruction and an inline
// base64 data URL.
func ImageMessage(instruction, contentType, base64Data string) Message {
	return Message{
		Role: "user",
		Content: []ContentPart{
			{Type: "text", Text: instruction},
			{Type: "image_url", ImageURL: &ImageURL{
				URL: fmt.Sprintf("data:%s;base64,%s", contentType, base64Data),
			}},
		},
	}
}

// Client calls any OpenAI-compatible /chat/completions endpoint.
// Works with OpenRouter, vLLM, LiteLLM, self-hosted models, etc.
type Client struct {
	baseURL    string
	apiKey     string
	referer    string
	appTitle   string
	httpClient *http.Client
}

// NewClient builds a chat-completion client.
// baseURL should include the /v1 prefix, e.g. "https://openrouter.ai/api/v1".
func NewClient(baseURL, apiKey, referer, appTitle string) *Client {
	return &Client{
		baseURL:  strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:   strings.TrimSpace(apiKey),
		referer:  strings.TrimSpace(referer),
		appTitle: strings.TrimSpace(appTitle),
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// ChatCompletion submits the message sequence and returns the assistant's raw
// textual content. Transport failures and non-2xx statuses are reported as
// errors; an empty reply is also an error.
func (c *Client) ChatCompletion(ctx context.Context, model string, messages []Message, temperature float64, maxTokens int) (string, error) {
	if model == "" {
		return "", fmt.Errorf("chat model required")
	}
	reqBody := chatRequest{
		Model:       model,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}
	url := c.baseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	if c.referer != "" {
		req.Header.Set("HTTP-Referer", c.referer)
	}
	if c.appTitle != "" {
		req.Header.Set("X-Title", c.appTitle)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp errorResponse
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		if errResp.Error.Message != "" {
			return "", fmt.Errorf("chat api error: %s", errResp.Error.Message)
		}
		return "", fmt.Errorf("chat api error: %s", resp.Status)
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("chat decode: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("empty response from chat api")
	}
	text := strings.TrimSpace(chatResp.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("empty response from chat api")
	}
	return text, nil
}

// OpenAI-compatible request/response types.

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}
