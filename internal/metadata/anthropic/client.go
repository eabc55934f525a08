// Package anthropic calls the Anthropic messages API with an image and a
// text prompt.
package anthropic

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rs/zerolog"

	"github.com/snapshelf/snapshelf/internal/config"
)

var (
	ErrAPIKeyMissing = errors.New("anthropic API key is not configured")
	ErrAPIError      = errors.New("anthropic API error")
	ErrRateLimited   = errors.New("anthropic API rate limited")
	ErrEmptyResponse = errors.New("anthropic API returned no text")
)

// Client sends vision prompts through the Anthropic SDK.
type Client struct {
	api    sdk.Client
	config config.AnthropicConfig
	logger zerolog.Logger
}

// NewClient creates a new client.
func NewClient(cfg config.AnthropicConfig, logger zerolog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithRequestTimeout(timeout),
		option.WithMaxRetries(max(cfg.MaxRetries, 0)),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &Client{
		api:    sdk.NewClient(opts...),
		config: cfg,
		logger: logger.With().Str("component", "anthropic").Logger(),
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return "anthropic"
}

// IsConfigured returns true if the API key is set.
func (c *Client) IsConfigured() bool {
	return c.config.APIKey != ""
}

// Analyze sends an image and prompt and returns the concatenated text reply.
func (c *Client) Analyze(ctx context.Context, image []byte, mediaType, prompt string) (string, error) {
	if !c.IsConfigured() {
		return "", ErrAPIKeyMissing
	}
	if mediaType == "" {
		mediaType = "image/jpeg"
	}

	msg, err := c.api.Messages.New(ctx, sdk.MessageNewParams{
		Model:       sdk.Model(c.config.Model),
		MaxTokens:   int64(c.config.MaxTokens),
		Temperature: sdk.Float(0),
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(
				sdk.NewImageBlockBase64(mediaType, base64.StdEncoding.EncodeToString(image)),
				sdk.NewTextBlock(prompt),
			),
		},
	})
	if err != nil {
		var apiErr *sdk.Error
		if errors.As(err, &apiErr) {
			c.logger.Error().Err(err).
				Int("status", apiErr.StatusCode).
				Msg("Anthropic API error")
			if apiErr.StatusCode == http.StatusTooManyRequests {
				return "", ErrRateLimited
			}
			return "", fmt.Errorf("%w: status %d", ErrAPIError, apiErr.StatusCode)
		}
		c.logger.Error().Err(err).Msg("Messages request failed")
		return "", fmt.Errorf("messages request failed: %w", err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", ErrEmptyResponse
	}

	c.logger.Debug().
		Int("imageBytes", len(image)).
		Int("replyChars", sb.Len()).
		Int64("outputTokens", msg.Usage.OutputTokens).
		Msg("Vision call completed")
	return sb.String(), nil
}
