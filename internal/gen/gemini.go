package gen

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// GeminiClient implements Generator using the Google GenAI SDK.
type GeminiClient struct {
	client  *genai.Client
	model   string
	timeout time.Duration
	logger  *zap.Logger
}

// GeminiConfig holds configuration for the Gemini client.
type GeminiConfig struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

// NewGeminiClient creates a Gemini-backed generator.
func NewGeminiClient(ctx context.Context, cfg GeminiConfig, logger *zap.Logger) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = "gemini-2.0-flash"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &GeminiClient{
		client:  client,
		model:   model,
		timeout: timeout,
		logger:  logger,
	}, nil
}

// Generate sends the prompt and maps the SDK response into a Result.
// Generation is the dominant latency source, so the call always runs under
// a deadline even when the caller's context has none.
func (c *GeminiClient) Generate(ctx context.Context, prompt string) (*Result, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](0.7),
	})
	if err != nil {
		c.logger.Warn("generation request failed",
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return nil, fmt.Errorf("gemini generate failed: %w", err)
	}

	res := &Result{}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockedReasonUnspecified {
		res.BlockReason = string(resp.PromptFeedback.BlockReason)
		if resp.PromptFeedback.BlockReasonMessage != "" {
			res.BlockReason = res.BlockReason + ": " + resp.PromptFeedback.BlockReasonMessage
		}
	}
	if len(resp.Candidates) > 0 {
		cand := resp.Candidates[0]
		res.FinishReason = string(cand.FinishReason)

		var b strings.Builder
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				if part.Text != "" {
					b.WriteString(part.Text)
				}
			}
		}
		text := strings.TrimSpace(b.String())
		// Text and Fragment are separate channels: normal finishes yield
		// finished text, abnormal finishes salvage their parts into
		// Fragment. Normalization treats an abnormal finish as blocked
		// before it considers fragments, so salvaged text from a
		// safety-terminated candidate is never surfaced as an answer.
		if res.Finished() {
			res.Text = text
		} else {
			res.Fragment = text
		}
	}

	c.logger.Debug("generation completed",
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("text_len", len(res.Text)),
		zap.String("finish_reason", res.FinishReason),
		zap.String("block_reason", res.BlockReason))
	return res, nil
}
