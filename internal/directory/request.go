package directory

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spigell/pawmatch/internal/metrics"
	"github.com/spigell/pawmatch/internal/utils"
	"go.uber.org/zap"
)

const (
	contentType     = "application/json"
	contentEncoding = "gzip"
)

// ItemResponse is a single page of a list endpoint.
type ItemResponse struct {
	Animals    []Item     `json:"animals"`
	Pagination Pagination `json:"pagination"`
}

type Pagination struct {
	CountPerPage int `json:"count_per_page"`
	TotalCount   int `json:"total_count"`
	CurrentPage  int `json:"current_page"`
	TotalPages   int `json:"total_pages"`
}

type Item map[string]any

// GetItems pages through a list endpoint until want items are collected, the
// listing is exhausted, or the page budget is spent.
func (c *Client) GetItems(ctx context.Context, endpoint string, q url.Values, want int) ([]Item, error) {
	var items []Item

	page := 1
	if p, err := strconv.Atoi(q.Get("page")); err == nil && p > 0 {
		page = p
	}

	for fetched := 0; fetched < c.maxPages; fetched++ {
		q.Set("page", strconv.Itoa(page))

		var response ItemResponse
		if err := c.getJSON(ctx, "search", endpoint, q, &response); err != nil {
			return nil, err
		}

		items = append(items, response.Animals...)

		c.logger.Debug("got page from directory",
			zap.Int("page", response.Pagination.CurrentPage),
			zap.Int("pages", response.Pagination.TotalPages),
			zap.Int("items", len(response.Animals)),
		)

		if want > 0 && len(items) >= want {
			return items[:want], nil
		}
		if response.Pagination.CurrentPage >= response.Pagination.TotalPages || len(response.Animals) == 0 {
			break
		}
		page = response.Pagination.CurrentPage + 1
	}

	return items, nil
}

// getJSON issues a GET with bounded retries on transport errors, 429 and 5xx.
func (c *Client) getJSON(ctx context.Context, operation, endpoint string, q url.Values, target any) error {
	start := time.Now()
	defer func() {
		metrics.RecordDirectoryDuration(operation, time.Since(start).Seconds())
	}()

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := utils.Backoff(attempt-1, c.backoff, c.maxBackoff)
			var status *StatusError
			if errors.As(lastErr, &status) && status.retryAfter > 0 {
				delay = min(status.retryAfter, c.maxBackoff)
			}

			c.logger.Warn("retrying directory request",
				zap.String("operation", operation),
				zap.Int("attempt", attempt+1),
				zap.Duration("delay", delay),
				zap.Error(lastErr),
			)

			if err := utils.WaitFor(ctx, delay); err != nil {
				return err
			}
		}

		err := c.doGet(ctx, endpoint, q, target)
		if err == nil {
			metrics.RecordDirectoryRequest(operation, "ok")
			return nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !temporary(err) {
			outcome := "error"
			if errors.Is(err, ErrNotFound) {
				outcome = "not_found"
			}
			metrics.RecordDirectoryRequest(operation, outcome)
			return err
		}
	}

	metrics.RecordDirectoryRequest(operation, "unavailable")
	return fmt.Errorf("%w: %s after %d attempts: %w", ErrUnavailable, operation, c.maxRetries, lastErr)
}

func (c *Client) doGet(ctx context.Context, endpoint string, q url.Values, target any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}

	req = c.setHeaders(req)
	req.Header.Set("Content-Type", contentType)
	if q != nil {
		req.URL.RawQuery = q.Encode()
	}

	resp, err := c.request(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return err
		}
		defer gzipReader.Close()
		reader = gzipReader
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return &StatusError{
			Code:       resp.StatusCode,
			Status:     resp.Status,
			retryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}

	if target == nil {
		return nil
	}

	return json.Unmarshal(data, target)
}

func (c *Client) request(req *http.Request) (*http.Response, error) {
	c.logger.Debug("make request", zap.String("url", req.URL.String()))
	return c.HTTPClient.Do(req)
}

func (c *Client) setHeaders(req *http.Request) *http.Request {
	if c.apiKey != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))
	}
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept-Encoding", contentEncoding)

	return req
}

func temporary(err error) bool {
	var status *StatusError
	if errors.As(err, &status) {
		return status.Temporary()
	}
	if errors.Is(err, ErrNotFound) {
		return false
	}
	var syntax *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntax) || errors.As(err, &typeErr) {
		return false
	}
	// Transport level failures: connection refused, timeouts, resets.
	return true
}

func parseRetryAfter(value string) time.Duration {
	seconds, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || seconds <= 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
