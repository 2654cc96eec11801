package assistant

import (
	"context"
	"errors"

	"github.com/benefitsnav/carl-assistant/pkg/logging"
)

// FallbackClient chains a primary inference backend with a secondary one.
// Context cancellation is never retried; a timed-out session should fail
// rather than double its latency on a second provider.
type FallbackClient struct {
	primary  LLMClient
	fallback LLMClient
	logger   *logging.Logger
}

// NewFallbackClient wraps primary with an optional fallback. A nil fallback
// leaves only the primary.
func NewFallbackClient(primary, fallback LLMClient, logger *logging.Logger) *FallbackClient {
	if logger == nil {
		logger = logging.Default()
	}
	return &FallbackClient{
		primary:  primary,
		fallback: fallback,
		logger:   logger.Component("llm-fallback"),
	}
}

// Complete tries the primary backend and, on failure, the fallback.
func (c *FallbackClient) Complete(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	resp, err := c.primary.Complete(ctx, req)
	if err == nil {
		return resp, nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return LLMResponse{}, err
	}

	c.logger.Warn("primary inference backend failed",
		"error", err.Error(),
		"fallback_available", c.fallback != nil,
	)
	if c.fallback == nil {
		return LLMResponse{}, err
	}

	fallbackResp, fallbackErr := c.fallback.Complete(ctx, req)
	if fallbackErr != nil {
		c.logger.Error("fallback inference backend also failed",
			"primary_error", err.Error(),
			"fallback_error", fallbackErr.Error(),
		)
		return LLMResponse{}, fallbackErr
	}

	c.logger.Info("fallback inference backend succeeded after primary failure")
	return fallbackResp, nil
}
