package webhooks

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goliatone/go-marketplace/core"
)

const (
	HeaderSignature     = "X-Signature"
	HeaderUberSignature = "X-Uber-Signature"

	defaultUserAgent = "go-marketplace-webhooks/1.0"
)

// HTTPDeliveryClient performs one delivery attempt per call. Anything
// other than a 2xx response is an error so the state machine decides
// whether to retry.
type HTTPDeliveryClient struct {
	client    *http.Client
	userAgent string
}

func NewHTTPDeliveryClient(timeout time.Duration) *HTTPDeliveryClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPDeliveryClient{
		client:    &http.Client{Timeout: timeout},
		userAgent: defaultUserAgent,
	}
}

func (c *HTTPDeliveryClient) Deliver(ctx context.Context, req core.DeliveryRequest) (core.DeliveryResult, error) {
	if c == nil || c.client == nil {
		return core.DeliveryResult{}, fmt.Errorf("webhooks: delivery client is not configured")
	}
	url := strings.TrimSpace(req.URL)
	if url == "" {
		return core.DeliveryResult{}, fmt.Errorf("webhooks: delivery url is required")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(req.Payload))
	if err != nil {
		return core.DeliveryResult{}, fmt.Errorf("webhooks: build delivery request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)
	if signature := strings.TrimSpace(req.Signature); signature != "" {
		httpReq.Header.Set(HeaderUberSignature, signature)
		httpReq.Header.Set(HeaderSignature, signature)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return core.DeliveryResult{}, fmt.Errorf("webhooks: delivery request failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	result := core.DeliveryResult{StatusCode: resp.StatusCode}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return result, fmt.Errorf("webhooks: receiver returned status %d", resp.StatusCode)
	}
	return result, nil
}

var _ core.DeliveryClient = (*HTTPDeliveryClient)(nil)
