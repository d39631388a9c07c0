package util

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultHTTPClient is used when no client is given to NewHTTPRequest.
var DefaultHTTPClient = &http.Client{Timeout: 30 * time.Second}

// NewHTTPRequest builds and performs an http call, returning the status code
// and the raw body of the response.
func NewHTTPRequest(
	ctx context.Context, client *http.Client,
	method, url string, body []byte, header map[string]string,
) (int, []byte, error) {
	switch method {
	case http.MethodGet, http.MethodPost, http.MethodDelete:
	default:
		return 0, nil, fmt.Errorf("verb not supported %s", method)
	}
	if client == nil {
		client = DefaultHTTPClient
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range header {
		req.Header.Set(key, value)
	}

	rs, err := client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer rs.Body.Close()

	bodyBytes, err := io.ReadAll(rs.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return rs.StatusCode, bodyBytes, nil
}
