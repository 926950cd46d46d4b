package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/AngelCh415/crm-dashboard/internal/models"
)

const maxErrorBody = 1024

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

func NewHTTPClient(timeout time.Duration) HTTPClient {
	return &http.Client{Timeout: timeout}
}

// Fetch GETs the export, adding a millisecond cache-buster. Every failure,
// from bad status to timeout, wraps models.ErrTransport.
func Fetch(ctx context.Context, c HTTPClient, rawURL string, now time.Time) ([]byte, error) {
	if rawURL == "" {
		return nil, fmt.Errorf("%w: empty url", models.ErrTransport)
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrTransport, err)
	}
	q := u.Query()
	q.Set("_t", strconv.FormatInt(now.UnixMilli(), 10))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrTransport, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrTransport, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("%w: status %d: %s", models.ErrTransport, resp.StatusCode, strings.TrimSpace(string(b)))
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", models.ErrTransport, err)
	}
	return body, nil
}
