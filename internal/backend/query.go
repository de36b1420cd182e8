package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/ejmockler/indra-cogex-mcp-sub002/internal/document"
)

const (
	maxRequestSize  = 1 << 20  // 1MB JSON body
	maxResponseSize = 64 << 20 // 64MB decoded body
)

// Query posts q.Params as JSON to {BaseURL}/api/{endpoint} and decodes the
// answer. Non-2xx answers become *StatusError.
func (c *Client) Query(parentCtx context.Context, q Query) (any, error) {
	start := time.Now()

	endpoint := strings.Trim(q.Endpoint, "/")
	if endpoint == "" {
		return nil, errors.New("backend: endpoint is required")
	}

	params := q.Params
	if params == nil {
		params = map[string]any{}
	}
	body, err := json.Marshal(params)
	if err != nil {
		return nil, errors.Wrap(err, "backend: marshal params")
	}
	if len(body) > maxRequestSize {
		return nil, errors.Newf("backend: request too large (%d bytes, max %d)", len(body), maxRequestSize)
	}

	ctx, cancel := context.WithTimeout(parentCtx, c.cfg.Timeout)
	defer cancel()

	target := c.cfg.BaseURL + "/api/" + url.PathEscape(endpoint)

	doOnce := func(ctx context.Context, body []byte) (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
		if err != nil {
			return nil, errors.Wrap(err, "backend: build HTTP request")
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		if c.cfg.APIKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
		}
		return c.httpClient.Do(req)
	}

	resp, err := c.doWithRetry(ctx, body, doOnce)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) {
			se.Endpoint = endpoint
		}
		c.logger.Error("backend query failed",
			zap.String("endpoint", endpoint),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		se := &StatusError{Endpoint: endpoint, StatusCode: resp.StatusCode}

		var er errorResponse
		if err := json.Unmarshal(raw, &er); err == nil {
			se.Message = er.message()
		}
		if se.Message == "" {
			se.Message = clip(string(raw), 200)
		}

		c.logger.Warn("backend error response",
			zap.String("endpoint", endpoint),
			zap.Int("status", resp.StatusCode),
			zap.String("message", se.Message),
		)
		return nil, se
	}

	out, err := document.DecodeReader(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, errors.Wrapf(err, "backend: decode %s response", endpoint)
	}

	c.logger.Debug("backend query completed",
		zap.String("endpoint", endpoint),
		zap.Duration("duration", time.Since(start)),
	)
	return out, nil
}

// clip limits string length for logging.
func clip(s string, maxLen int) string {
	s = strings.TrimSpace(s)
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
