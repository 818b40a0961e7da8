// Package geonetwork provides a client for inserting metadata records into a
// Geonetwork catalogue.
package geonetwork

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/penwern/geomodel-harvest/pkg/config"
	"github.com/penwern/geomodel-harvest/pkg/logger"
	"github.com/penwern/geomodel-harvest/pkg/utils"
	"github.com/tidwall/gjson"
)

const (
	infoPath    = "/geonetwork/srv/eng/info"
	recordsPath = "/geonetwork/srv/api/0.1/records"
	xsrfCookie  = "XSRF-TOKEN"
)

var (
	// ErrNoToken is returned when Geonetwork does not hand out an XSRF cookie.
	ErrNoToken = errors.New("geonetwork did not return an XSRF token")
	// ErrInsertFailed is returned when a record is not accepted.
	ErrInsertFailed = errors.New("geonetwork insert failed")
)

// Client represents a Geonetwork client.
type Client struct {
	httpClient *utils.HTTPClient
	config     *config.PushConfig
}

// NewClient creates a new Geonetwork client.
func NewClient(cfg *config.PushConfig, httpClient *utils.HTTPClient) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("geonetwork config cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid geonetwork config: %w", err)
	}
	return &Client{httpClient: httpClient, config: cfg}, nil
}

func (c *Client) endpoint(path string) string {
	return strings.TrimRight(c.config.GeonetworkURL, "/") + path
}

// XSRFToken asks Geonetwork for a session and returns its XSRF token.
func (c *Client) XSRFToken(ctx context.Context) (string, error) {
	resp, err := c.httpClient.DoRequest(ctx, http.MethodPost, c.endpoint(infoPath)+"?type=me", nil, nil)
	if err != nil {
		return "", fmt.Errorf("error requesting XSRF token: %w", err)
	}
	if _, err := utils.ReadBody(resp); err != nil {
		return "", err
	}
	for _, cookie := range resp.Cookies() {
		if cookie.Name == xsrfCookie && cookie.Value != "" {
			return cookie.Value, nil
		}
	}
	return "", ErrNoToken
}

// InsertParams are sent with every insert. Existing records are not
// overwritten, so a re-run rejects duplicates.
func InsertParams() url.Values {
	return url.Values{
		"metadataType":    {"METADATA"},
		"file":            {"bucketname"},
		"updateDateStamp": {"true"},
		"recursiveSearch": {"false"},
		"publishToAll":    {"true"},
		"assignToCatalog": {"false"},
		"uuidProcessing":  {"NOTHING"},
		"rejectIfInvalid": {"false"},
		"transformWith":   {"_none_"},
	}
}

// InsertRecord PUTs one XML record.
func (c *Client) InsertRecord(ctx context.Context, token, record string) error {
	target := c.endpoint(recordsPath) + "?" + InsertParams().Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, target, strings.NewReader(record))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.SetBasicAuth(c.config.GeonetworkUser, c.config.GeonetworkPassword)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/xml")
	req.Header.Set("X-XSRF-TOKEN", token)
	req.AddCookie(&http.Cookie{Name: xsrfCookie, Value: token})

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("error during insert: %w", err)
	}
	body, err := utils.ReadBody(resp)
	if err != nil {
		return err
	}

	res := gjson.ParseBytes(body)
	if resp.StatusCode == http.StatusCreated &&
		res.Get("numberOfRecordsProcessed").Int() == 1 &&
		res.Get("numberOfRecordsWithErrors").Int() == 0 {
		return nil
	}
	logger.Debug("Geonetwork rejected record: %s", utils.TruncateError(string(body), 500))
	return fmt.Errorf("%w: status %d: %s", ErrInsertFailed, resp.StatusCode, utils.TruncateError(string(body), 200))
}
