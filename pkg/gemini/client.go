// Package gemini is a thin client for the Gemini generateContent REST API.
//
// It talks to the endpoint directly over HTTP so the status code of a
// failure stays visible: the answer pipeline distinguishes "this credential
// is bad, try the next one" from "the request itself is broken" by status.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"ai-studybot-be/internal/pkg/logger"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1"

// ErrorKind classifies a generation failure for the key-fallback loop.
type ErrorKind int

const (
	// KindBadCredential covers PERMISSION_DENIED (403) and INVALID_ARGUMENT
	// (400) responses: the next key in priority order may still work.
	KindBadCredential ErrorKind = iota
	// KindFatal is everything else; retrying with another key won't help.
	KindFatal
)

// StatusError is a non-200 response from the API.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status error, got status %d. with response body %s", e.StatusCode, e.Body)
}

func (e *StatusError) Kind() ErrorKind {
	if e.StatusCode == http.StatusBadRequest || e.StatusCode == http.StatusForbidden {
		return KindBadCredential
	}
	return KindFatal
}

// Classify returns the fallback class of any generation error.
func Classify(err error) ErrorKind {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Kind()
	}
	return KindFatal
}

type chatPart struct {
	Text string `json:"text"`
}

type chatContent struct {
	Parts []*chatPart `json:"parts"`
	Role  string      `json:"role"`
}

type generateRequest struct {
	Contents []*chatContent `json:"contents"`
}

type chatCandidate struct {
	Content *chatContent `json:"content"`
}

type generateResponse struct {
	Candidates []*chatCandidate `json:"candidates"`
}

// Client calls generateContent with an ordered list of API keys.
type Client struct {
	apiKeys    []string
	model      string
	baseURL    string
	httpClient *http.Client
	logger     logger.ILogger
}

type Option func(*Client)

// WithBaseURL overrides the API endpoint. Used in tests.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = baseURL }
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

func NewClient(apiKeys []string, model string, log logger.ILogger, options ...Option) *Client {
	c := &Client{
		apiKeys:    apiKeys,
		model:      model,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{},
		logger:     log,
	}
	for _, option := range options {
		option(c)
	}
	return c
}

// Generate runs the prompt through the model with ordered key fallback:
// a bad-credential class failure advances to the next key, anything else
// stops the loop immediately.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	for i, apiKey := range c.apiKeys {
		c.logger.Info("gemini", "Calling generateContent", map[string]interface{}{
			"key_index": i + 1,
			"model":     c.model,
		})

		text, err := c.generateWithKey(ctx, apiKey, prompt)
		if err == nil {
			c.logger.Info("gemini", "Generation succeeded", map[string]interface{}{
				"key_index": i + 1,
			})
			return text, nil
		}

		lastErr = err
		if Classify(err) == KindBadCredential {
			c.logger.Warn("gemini", "API key rejected, trying next key", map[string]interface{}{
				"key_index": i + 1,
				"error":     err.Error(),
			})
			continue
		}

		c.logger.Error("gemini", "Generation failed", map[string]interface{}{
			"key_index": i + 1,
			"error":     err.Error(),
		})
		break
	}
	return "", fmt.Errorf("no valid response from generation API: %w", lastErr)
}

func (c *Client) generateWithKey(ctx context.Context, apiKey, prompt string) (string, error) {
	payload := generateRequest{
		Contents: []*chatContent{
			{
				Parts: []*chatPart{{Text: prompt}},
				Role:  "user",
			},
		},
	}
	payloadJson, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(payloadJson))
	if err != nil {
		return "", err
	}
	req.Header.Set("x-goog-api-key", apiKey)
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return "", err
	}

	if res.StatusCode != http.StatusOK {
		return "", &StatusError{StatusCode: res.StatusCode, Body: string(resBody)}
	}

	var geminiRes generateResponse
	if err := json.Unmarshal(resBody, &geminiRes); err != nil {
		return "", err
	}
	if len(geminiRes.Candidates) == 0 || geminiRes.Candidates[0].Content == nil ||
		len(geminiRes.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("response contained no candidates")
	}
	return geminiRes.Candidates[0].Content.Parts[0].Text, nil
}
