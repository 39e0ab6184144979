// Package gemini wraps the generateContent endpoint of Google's generative
// language API. The adapter owns the wire format, the role translation from
// the application's vocabulary to Gemini's, and the error taxonomy the
// request handlers depend on.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

var (
	// ErrUpstream covers network failures, non-2xx statuses and malformed
	// response bodies.
	ErrUpstream = errors.New("gemini: upstream error")
	// ErrEmptyResponse means the API answered but carried no usable text,
	// typically because safety filtering suppressed the candidate.
	ErrEmptyResponse = errors.New("gemini: empty response")
	// ErrCancelled means the caller aborted the request.
	ErrCancelled = errors.New("gemini: request cancelled")
)

// Message is one turn of conversation history in the application's role
// vocabulary ("user", "assistant" or "bot").
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// MapRole translates an application role to Gemini's vocabulary. Only "user"
// maps to "user"; every assistant-side alias maps to "model".
func MapRole(role string) string {
	if role == "user" {
		return "user"
	}
	return "model"
}

type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewClient(apiKey, baseURL string, timeout time.Duration) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
	TopP            float64 `json:"topP"`
}

type request struct {
	Contents          []content        `json:"contents"`
	SystemInstruction *content         `json:"systemInstruction,omitempty"`
	GenerationConfig  generationConfig `json:"generationConfig"`
}

type response struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
}

// Translate converts history to Gemini contents, preserving order.
func Translate(history []Message) []content {
	out := make([]content, len(history))
	for i, msg := range history {
		out[i] = content{
			Role:  MapRole(msg.Role),
			Parts: []part{{Text: msg.Content}},
		}
	}
	return out
}

// Complete sends the conversation plus the new message to the given model
// and returns the generated text. Generation is pinned to temperature zero.
func (c *Client) Complete(ctx context.Context, model, systemInstruction string, history []Message, message string) (string, error) {
	contents := append(Translate(history), content{
		Role:  "user",
		Parts: []part{{Text: message}},
	})

	reqBody := request{
		Contents: contents,
		SystemInstruction: &content{
			Parts: []part{{Text: systemInstruction}},
		},
		GenerationConfig: generationConfig{
			Temperature:     0.0,
			MaxOutputTokens: 8192,
			TopP:            0.95,
		},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	// The key travels in a header, never in the URL, so it cannot leak into
	// access logs.
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", fmt.Errorf("%w: %v", ErrCancelled, ctxErr)
		}
		return "", fmt.Errorf("%w: api call: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read response: %v", ErrUpstream, err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: api error %d: %s", ErrUpstream, resp.StatusCode, string(respBody))
	}

	var apiResp response
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", fmt.Errorf("%w: unmarshal response: %v", ErrUpstream, err)
	}

	text := firstText(apiResp)
	if text == "" {
		return "", fmt.Errorf("%w: no candidate text (possible safety block)", ErrEmptyResponse)
	}
	return text, nil
}

func firstText(r response) string {
	if len(r.Candidates) == 0 {
		return ""
	}
	parts := r.Candidates[0].Content.Parts
	if len(parts) == 0 {
		return ""
	}
	return parts[0].Text
}
