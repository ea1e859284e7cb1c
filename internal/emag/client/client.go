// Package client implements the rate-limited marketplace API client. One
// Client per seller account; all calls go through the account's limiter and
// the shared retry policy.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"emagsync_api/internal/core/models"
	"emagsync_api/internal/emag/ratelimit"
	"emagsync_api/metrics"
	"emagsync_api/pkg/logger"
)

// Caller is the surface the pagination driver and the orchestrator consume.
type Caller interface {
	Call(ctx context.Context, req Request) (*Envelope, error)
	Account() models.AccountName
}

type Client struct {
	account models.Account
	auth    AuthEngine
	limiter *ratelimit.Limiter
	policy  RetryPolicy
	http    *http.Client
	log     logger.Logger

	// sleep is swapped out in tests to keep backoff assertions fast.
	sleep func(ctx context.Context, d time.Duration) error
}

func NewClient(account models.Account, limiter *ratelimit.Limiter, policy RetryPolicy, timeout time.Duration, log logger.Logger) *Client {
	return &Client{
		account: account,
		auth:    NewBasicAuth(account.APIKey),
		limiter: limiter,
		policy:  policy,
		http:    &http.Client{Timeout: timeout},
		log:     log.WithPrefix(fmt.Sprintf("[client %s]", account.Name)),
		sleep:   sleepCtx,
	}
}

func (c *Client) Account() models.AccountName {
	return c.account.Name
}

// Call validates the payload caps locally, then runs the attempt loop. A
// limiter grant is acquired before every attempt, retries included.
func (c *Client) Call(ctx context.Context, req Request) (*Envelope, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	class := models.ResourceType(req.Resource).Class()
	var lastErr error
	for attempt := 1; attempt <= c.policy.MaxAttempts; attempt++ {
		if err := c.limiter.Acquire(ctx, class); err != nil {
			return nil, err
		}

		envelope, err := c.attempt(ctx, req)
		if err == nil {
			return envelope, nil
		}
		lastErr = err

		if errors.Is(err, ErrRateLimited) {
			// Expected under load: the remote window disagrees with the
			// local estimate, so reset it before going again.
			c.limiter.Penalize(class)
		}
		if c.policy.Retryable != nil && !c.policy.Retryable(err) {
			return nil, err
		}
		if attempt == c.policy.MaxAttempts {
			break
		}

		backoff := c.policy.Backoff(attempt)
		c.log.Warnf("attempt %d/%d for %s failed: %v, retrying in %v",
			attempt, c.policy.MaxAttempts, req.endpoint(), err, backoff)
		if err := c.sleep(ctx, backoff); err != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("call to %s exhausted %d attempts: %w", req.endpoint(), c.policy.MaxAttempts, lastErr)
}

// attempt performs one network round trip and classifies the outcome.
func (c *Client) attempt(ctx context.Context, req Request) (*Envelope, error) {
	bodyBytes, err := json.Marshal(req.body())
	if err != nil {
		return nil, &ValidationError{Reason: fmt.Sprintf("marshalling request body: %v", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.account.BaseURL+req.endpoint(), bytes.NewBuffer(bodyBytes))
	if err != nil {
		return nil, &ValidationError{Reason: fmt.Sprintf("building request: %v", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.auth != nil {
		c.auth.SetApiKey(httpReq)
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	latency := time.Since(start)
	if err != nil {
		select {
		case <-ctx.Done():
			c.record(req, "cancelled", latency)
			return nil, fmt.Errorf("request was cancelled: %w", ctx.Err())
		default:
		}
		c.record(req, "transport_error", latency)
		return nil, &TransientError{Cause: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		c.record(req, "rate_limited", latency)
		return nil, ErrRateLimited
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		c.record(req, "auth_error", latency)
		return nil, &AuthError{Account: string(c.account.Name), Status: resp.StatusCode}
	case resp.StatusCode >= 500:
		c.record(req, "server_error", latency)
		return nil, &TransientError{Cause: fmt.Errorf("server error"), Status: resp.StatusCode}
	case resp.StatusCode >= 400:
		c.record(req, "rejected", latency)
		return nil, &ValidationError{Reason: fmt.Sprintf("marketplace rejected the request (status %d)", resp.StatusCode)}
	}

	var envelope Envelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		c.record(req, "garbled", latency)
		return nil, &TransientError{Cause: fmt.Errorf("decoding response: %w", err), Status: resp.StatusCode}
	}
	if err := envelope.Err(); err != nil {
		if errors.Is(err, ErrMissingSuccessFlag) {
			c.record(req, "missing_flag", latency)
			return nil, &TransientError{Cause: err, Status: resp.StatusCode}
		}
		c.record(req, "flagged_error", latency)
		return nil, err
	}

	c.record(req, "ok", latency)
	return &envelope, nil
}

func (c *Client) record(req Request, outcome string, latency time.Duration) {
	metrics.RecordMarketplaceCall(string(c.account.Name), req.Resource, outcome, latency)
	c.log.Debugf("%s %s -> %s in %v", req.Resource, req.Action, outcome, latency)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
