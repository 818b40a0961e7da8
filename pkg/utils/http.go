package utils

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"mime"
	"net/http"
	"time"

	"github.com/penwern/geomodel-harvest/pkg/logger"
	"github.com/penwern/geomodel-harvest/pkg/version"
)

// HTTPClient represents an HTTP client.
type HTTPClient struct {
	client *http.Client
}

// NewHTTPClient creates a new HTTP client with the provided timeout and skipVerify settings.
func NewHTTPClient(timeout time.Duration, skipVerify bool) *HTTPClient {
	tr := &http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: skipVerify},
	}
	return &HTTPClient{
		client: &http.Client{
			Transport: tr,
			Timeout:   timeout,
		},
	}
}

// Close closes the HTTP client.
func (c *HTTPClient) Close() {
	c.client.CloseIdleConnections()
}

// StatusError is returned for responses outside the 2xx range.
type StatusError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s: %s", e.StatusCode, e.URL, TruncateError(e.Body, 200))
}

// DoRequest wraps the common HTTP request logic.
// It returns the full response for further handling.
func (c *HTTPClient) DoRequest(ctx context.Context, method, url string, body io.Reader, headers map[string]string) (*http.Response, error) {
	// Create a new HTTP request with the provided context
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	// Set the provided headers
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	return c.Do(req)
}

// Do sends a prepared request. Used when callers need basic auth or query
// encoding that DoRequest does not cover.
func (c *HTTPClient) Do(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", version.UserAgent())
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	return resp, nil
}

// GetText fetches url and returns the body with the charset named by the
// Content-Type header. The charset is empty when the server sends none.
func (c *HTTPClient) GetText(ctx context.Context, url string) (string, string, error) {
	resp, err := c.DoRequest(ctx, http.MethodGet, url, nil, nil)
	if err != nil {
		return "", "", err
	}
	body, err := ReadBody(resp)
	if err != nil {
		return "", "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", "", &StatusError{URL: url, StatusCode: resp.StatusCode, Body: string(body)}
	}
	return string(body), Charset(resp.Header.Get("Content-Type")), nil
}

// Charset extracts the charset parameter of a Content-Type value.
func Charset(contentType string) string {
	if contentType == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return params["charset"]
}

// ReadBody reads and closes the response body.
func ReadBody(resp *http.Response) ([]byte, error) {
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Error("Failed to close response body: %v", err)
		}
	}()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}
	return body, nil
}
