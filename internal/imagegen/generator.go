// Package imagegen creates card artwork with the OpenAI Images API.
package imagegen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cenkalti/backoff/v4"
)

const (
	DefaultBaseURL  = "https://api.openai.com"
	generationsPath = "/v1/images/generations"
	defaultModel    = "dall-e-3"
	defaultSize     = "1024x1024"
	defaultTimeout  = 60 * time.Second

	// MaxPromptLength is counted in characters, not bytes.
	MaxPromptLength = 1000
	maxAttempts     = 3
)

var (
	ErrEmptyPrompt     = errors.New("prompt is required")
	ErrPromptTooLong   = fmt.Errorf("prompt must be at most %d characters", MaxPromptLength)
	ErrNotConfigured   = errors.New("image generation is not configured")
	ErrNoImageReturned = errors.New("no image returned")
)

type Generator struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client

	initialInterval time.Duration
}

func NewGenerator(apiKey, baseURL string) *Generator {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Generator{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   defaultModel,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		initialInterval: 500 * time.Millisecond,
	}
}

type generationRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	N      int    `json:"n"`
	Size   string `json:"size"`
}

type generationResponse struct {
	Data []struct {
		URL           string `json:"url"`
		RevisedPrompt string `json:"revised_prompt,omitempty"`
	} `json:"data"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code"`
}

// ValidatePrompt trims the prompt and checks its length.
func ValidatePrompt(prompt string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", ErrEmptyPrompt
	}
	if utf8.RuneCountInString(prompt) > MaxPromptLength {
		return "", ErrPromptTooLong
	}
	return prompt, nil
}

// Generate returns the URL of one generated image. Timeouts and 5xx
// responses are retried with exponential backoff.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	if g.apiKey == "" {
		return "", ErrNotConfigured
	}

	body, err := json.Marshal(generationRequest{
		Model:  g.model,
		Prompt: prompt,
		N:      1,
		Size:   defaultSize,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	var (
		imageURL string
		attempt  int
	)
	operation := func() error {
		attempt++
		url, err := g.call(ctx, body)
		if err != nil {
			slog.Warn("image generation attempt failed", "attempt", attempt, "error", err)
			return err
		}
		imageURL = url
		return nil
	}

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = g.initialInterval
	expBackoff.MaxInterval = 4 * g.initialInterval
	expBackoff.MaxElapsedTime = 0

	policy := backoff.WithContext(backoff.WithMaxRetries(expBackoff, maxAttempts-1), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return "", fmt.Errorf("image generation failed after %d attempt(s): %w", attempt, err)
	}
	return imageURL, nil
}

func (g *Generator) call(ctx context.Context, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+generationsPath, bytes.NewReader(body))
	if err != nil {
		return "", backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return "", fmt.Errorf("request timed out: %w", err)
		}
		return "", backoff.Permanent(fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	var result generationResponse
	_ = json.Unmarshal(respBody, &result)

	if resp.StatusCode >= 500 {
		return "", fmt.Errorf("openai returned %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		msg := strings.TrimSpace(string(respBody))
		if result.Error != nil {
			msg = result.Error.Message
		}
		return "", backoff.Permanent(fmt.Errorf("openai returned %d: %s", resp.StatusCode, msg))
	}
	if len(result.Data) == 0 || result.Data[0].URL == "" {
		return "", backoff.Permanent(ErrNoImageReturned)
	}
	return result.Data[0].URL, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
