// Package oaipmh implements the GetRecord verb of the OAI-PMH protocol.
package oaipmh

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/beevik/etree"
	"github.com/penwern/geomodel-harvest/pkg/logger"
	"github.com/penwern/geomodel-harvest/pkg/utils"
)

// ErrOAI is matched by every protocol level error returned by a repository.
var ErrOAI = errors.New("oai-pmh error")

// Error is an <error> element of an OAI-PMH response.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("oai-pmh error %s", e.Code)
	}
	return fmt.Sprintf("oai-pmh error %s: %s", e.Code, e.Message)
}

func (e *Error) Is(target error) bool { return target == ErrOAI }

// Client represents an OAI-PMH client.
type Client struct {
	httpClient *utils.HTTPClient
	baseURL    string
}

// NewClient creates a client for the repository at baseURL.
func NewClient(baseURL string, httpClient *utils.HTTPClient) (*Client, error) {
	if httpClient == nil {
		return nil, fmt.Errorf("oai-pmh http client cannot be nil")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid oai-pmh url %q: %w", baseURL, err)
	}
	return &Client{httpClient: httpClient, baseURL: baseURL}, nil
}

// Record is a harvested record: its header identifier, datestamp and the
// metadata elements keyed by local name.
type Record struct {
	Identifier string
	Datestamp  string
	Metadata   map[string][]string
}

// GetRecord fetches one record in the given metadata format.
func (c *Client) GetRecord(ctx context.Context, identifier, prefix string) (*Record, error) {
	q := url.Values{
		"verb":           {"GetRecord"},
		"identifier":     {identifier},
		"metadataPrefix": {prefix},
	}
	sep := "?"
	if strings.Contains(c.baseURL, "?") {
		sep = "&"
	}
	body, _, err := c.httpClient.GetText(ctx, c.baseURL+sep+q.Encode())
	if err != nil {
		return nil, fmt.Errorf("error fetching OAI-PMH record %s: %w", identifier, err)
	}
	return ParseGetRecord([]byte(body))
}

// ParseGetRecord decodes a GetRecord response.
func ParseGetRecord(data []byte) (*Record, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("error parsing OAI-PMH response: %w", err)
	}
	if el := doc.FindElement("//error"); el != nil {
		return nil, &Error{Code: el.SelectAttrValue("code", ""), Message: strings.TrimSpace(el.Text())}
	}

	rec := doc.FindElement("//GetRecord/record")
	if rec == nil {
		return nil, fmt.Errorf("error parsing OAI-PMH response: no GetRecord/record element")
	}
	out := &Record{Metadata: map[string][]string{}}
	if h := rec.SelectElement("header"); h != nil {
		if h.SelectAttrValue("status", "") == "deleted" {
			return nil, &Error{Code: "deleted", Message: "record is deleted"}
		}
		out.Identifier = childText(h, "identifier")
		out.Datestamp = childText(h, "datestamp")
	}

	md := rec.SelectElement("metadata")
	if md == nil || len(md.ChildElements()) == 0 {
		return nil, fmt.Errorf("error parsing OAI-PMH response: record %s has no metadata", out.Identifier)
	}
	// metadata holds a single container element such as oai_dc:dc.
	for _, el := range md.ChildElements()[0].ChildElements() {
		if v := strings.TrimSpace(el.Text()); v != "" {
			out.Metadata[el.Tag] = append(out.Metadata[el.Tag], v)
		}
	}
	logger.Debug("OAI-PMH record %s has %d metadata elements", out.Identifier, len(out.Metadata))
	return out, nil
}

func childText(el *etree.Element, tag string) string {
	if c := el.SelectElement(tag); c != nil {
		return strings.TrimSpace(c.Text())
	}
	return ""
}
