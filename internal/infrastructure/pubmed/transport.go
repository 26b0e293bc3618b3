package pubmed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// maxRetryAfterWait caps how long a Retry-After header can park a request
// before the retry loop takes over with its own backoff.
const maxRetryAfterWait = 10 * time.Second

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out any, operation string) error {
	data, err := c.getRaw(ctx, path, params, operation)
	if err != nil {
		return err
	}
	// ESearch payloads occasionally carry stray control characters that
	// break strict JSON decoding.
	if err := json.Unmarshal(stripControlChars(data), out); err != nil {
		return fmt.Errorf("decode %s response: %w", operation, err)
	}
	return nil
}

func (c *Client) getRaw(ctx context.Context, path string, params url.Values, operation string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%s rate wait: %w", operation, err)
	}

	if c.apiKey != "" {
		params.Set("api_key", c.apiKey)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", operation, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pubmed %s request: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		statusErr := &HTTPStatusError{
			Operation:  operation,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       strings.TrimSpace(string(raw)),
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
		if resp.StatusCode == http.StatusTooManyRequests && statusErr.RetryAfter > 0 {
			// The server's Retry-After is authoritative for 429; wait it
			// out here so the retry loop's backoff comes on top of it.
			waitRetryAfter(ctx, statusErr.RetryAfter)
		}
		return nil, statusErr
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", operation, err)
	}
	return data, nil
}

func parseRetryAfter(header string) time.Duration {
	seconds, err := strconv.Atoi(strings.TrimSpace(header))
	if err != nil || seconds <= 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

func waitRetryAfter(ctx context.Context, wait time.Duration) {
	if wait > maxRetryAfterWait {
		wait = maxRetryAfterWait
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// stripControlChars drops bytes below 0x20 except tab, newline, and
// carriage return.
func stripControlChars(data []byte) []byte {
	clean := data[:0]
	for _, b := range data {
		if b >= 0x20 || b == '\n' || b == '\r' || b == '\t' {
			clean = append(clean, b)
		}
	}
	return clean
}
