package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
)

const (
	maxAttempts  = 3
	initialDelay = 1 * time.Second
	maxDelay     = 10 * time.Second
)

// Client wraps the OpenAI chat-completion API for customer mapping and order
// extraction. Transient failures (rate limits, 5xx, network blips) are
// retried with exponential backoff; authentication failures and malformed
// responses never are.
type Client struct {
	api     *openai.Client
	model   string
	limiter *rate.Limiter
}

func NewClient(apiKey, model string) *Client {
	return &Client{
		api:     openai.NewClient(apiKey),
		model:   model,
		limiter: rate.NewLimiter(rate.Limit(3), 5),
	}
}

// Verify checks the credentials with a minimal request. Call it at startup:
// an authentication failure here should prevent the process from starting.
func (c *Client) Verify(ctx context.Context) error {
	_, err := c.api.ListModels(ctx)
	if isAuthError(err) {
		return fmt.Errorf("invalid OpenAI credentials: %w", err)
	}
	if err != nil {
		return fmt.Errorf("verify OpenAI client: %w", err)
	}
	return nil
}

// MapCustomer asks the model to pick the exact customer string for name from
// the candidate subset. It returns "" when the model signals no match. The
// caller must re-validate the result against the known record set before
// trusting it.
func (c *Client) MapCustomer(ctx context.Context, name string, candidates []string) (string, error) {
	content, err := c.complete(ctx, mappingSystemPrompt(candidates), "Find customer: "+name, 100)
	if err != nil {
		return "", err
	}
	return DecodeChoice(content), nil
}

// ExtractOrder asks the model to extract (customer, amount, product) from a
// free-text message, constrained to the candidate customer subset. A response
// that fails validation yields (nil, nil): malformed output is a normal
// no-parse outcome, not a retriable fault.
func (c *Client) ExtractOrder(ctx context.Context, text string, candidates []string) (*Extraction, error) {
	content, err := c.complete(ctx, extractionSystemPrompt(candidates), "Parse this order message: "+text, 200)
	if err != nil {
		return nil, err
	}

	ext, ok := DecodeExtraction(content)
	if !ok {
		slog.Debug("llm extraction rejected", "response", content)
		return nil, nil
	}
	return ext, nil
}

func (c *Client) complete(ctx context.Context, system, user string, maxTokens int) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	var lastErr error
	delay := initialDelay
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: c.model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: system},
				{Role: openai.ChatMessageRoleUser, Content: user},
			},
			MaxTokens:   maxTokens,
			Temperature: 0.1,
		})
		if err == nil {
			if len(resp.Choices) == 0 {
				return "", errors.New("completion returned no choices")
			}
			return resp.Choices[0].Message.Content, nil
		}

		lastErr = err
		if !isRetryable(err) {
			return "", err
		}
		if attempt < maxAttempts {
			slog.Warn("llm call failed, retrying", "attempt", attempt, "delay", delay, "err", err)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", ctx.Err()
			}
			delay *= 2
			if delay > maxDelay {
				delay = maxDelay
			}
		}
	}
	return "", fmt.Errorf("llm call failed after %d attempts: %w", maxAttempts, lastErr)
}

func isRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if isAuthError(err) {
		return false
	}
	if code, ok := statusCode(err); ok {
		return code == 429 || code >= 500
	}
	// Transport failure with no HTTP status: assume a network blip.
	return true
}

func isAuthError(err error) bool {
	code, ok := statusCode(err)
	return ok && (code == 401 || code == 403)
}

func statusCode(err error) (int, bool) {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode, true
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode, true
	}
	return 0, false
}
