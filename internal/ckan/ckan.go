// Package ckan provides a client for the CKAN action API.
package ckan

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/penwern/geomodel-harvest/pkg/logger"
	"github.com/penwern/geomodel-harvest/pkg/snippets"
	"github.com/penwern/geomodel-harvest/pkg/utils"
	"github.com/tidwall/gjson"
)

// ErrUnsuccessful is returned when CKAN answers with success=false.
var ErrUnsuccessful = errors.New("ckan action unsuccessful")

const timeLayout = "2006-01-02T15:04:05.999999999"

// Client represents a CKAN client.
type Client struct {
	httpClient *utils.HTTPClient
	baseURL    string
}

// NewClient creates a new CKAN client for the site at baseURL.
func NewClient(baseURL string, httpClient *utils.HTTPClient) (*Client, error) {
	if httpClient == nil {
		return nil, fmt.Errorf("ckan http client cannot be nil")
	}
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid ckan url %q", baseURL)
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}, nil
}

// ActionURL returns the endpoint of an action without query parameters.
func (c *Client) ActionURL(action string) string {
	return c.baseURL + "/api/3/action/" + action
}

// action calls an action endpoint and returns its "result" member.
func (c *Client) action(ctx context.Context, action string, params url.Values) (gjson.Result, error) {
	endpoint := c.ActionURL(action)
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}
	resp, err := c.httpClient.DoRequest(ctx, http.MethodGet, endpoint, nil, map[string]string{"Accept": "application/json"})
	if err != nil {
		return gjson.Result{}, fmt.Errorf("error calling %s: %w", action, err)
	}
	body, err := utils.ReadBody(resp)
	if err != nil {
		return gjson.Result{}, err
	}
	if !gjson.ValidBytes(body) {
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return gjson.Result{}, &utils.StatusError{URL: endpoint, StatusCode: resp.StatusCode, Body: string(body)}
		}
		return gjson.Result{}, fmt.Errorf("error decoding %s response: invalid JSON", action)
	}

	doc := gjson.ParseBytes(body)
	if !doc.Get("success").Bool() {
		msg := doc.Get("error.message").String()
		if msg == "" {
			msg = resp.Status
		}
		return gjson.Result{}, fmt.Errorf("%w: %s: %s", ErrUnsuccessful, action, msg)
	}
	logger.Debug("CKAN %s returned %d bytes", action, len(body))
	return doc.Get("result"), nil
}

// Resource is a downloadable file of a package.
type Resource struct {
	URL    string
	Name   string
	Format string
}

// Package is the subset of package_show used to build records.
type Package struct {
	ID                string
	Name              string
	Title             string
	Notes             string
	OrganisationTitle string
	LicenseTitle      string
	LicenseURL        string
	Created           time.Time
	Modified          time.Time
	Resources         []Resource
	GeoJSONExtent     string
	// SourceURL is the package_show endpoint the package was read from.
	SourceURL string
}

// PackageShow fetches a package by id.
func (c *Client) PackageShow(ctx context.Context, id string) (*Package, error) {
	res, err := c.action(ctx, "package_show", url.Values{"id": {id}})
	if err != nil {
		return nil, err
	}
	p := &Package{
		ID:                res.Get("id").String(),
		Name:              res.Get("name").String(),
		Title:             res.Get("title").String(),
		Notes:             res.Get("notes").String(),
		OrganisationTitle: res.Get("organization.title").String(),
		LicenseTitle:      res.Get("license_title").String(),
		LicenseURL:        res.Get("license_url").String(),
		GeoJSONExtent:     res.Get("GeoJSONextent").String(),
		SourceURL:         c.ActionURL("package_show"),
	}
	p.Created, _ = time.Parse(timeLayout, res.Get("metadata_created").String())
	p.Modified, _ = time.Parse(timeLayout, res.Get("metadata_modified").String())
	res.Get("resources").ForEach(func(_, r gjson.Result) bool {
		p.Resources = append(p.Resources, Resource{
			URL:    r.Get("url").String(),
			Name:   r.Get("name").String(),
			Format: r.Get("format").String(),
		})
		return true
	})
	return p, nil
}

// PackageList returns the names of all public packages.
func (c *Client) PackageList(ctx context.Context) ([]string, error) {
	res, err := c.action(ctx, "package_list", nil)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, v := range res.Array() {
		ids = append(ids, v.String())
	}
	return ids, nil
}

// ISO19115PackageShow returns a package rendered as ISO 19115 XML by the
// ckanext iso19115 plugin.
func (c *Client) ISO19115PackageShow(ctx context.Context, id string) (string, error) {
	res, err := c.action(ctx, "iso19115_package_show", url.Values{"format": {"xml"}, "id": {id}})
	if err != nil {
		return "", err
	}
	if res.Type != gjson.String || res.String() == "" {
		return "", fmt.Errorf("%w: iso19115_package_show returned no XML for %s", ErrUnsuccessful, id)
	}
	return res.String(), nil
}

// BBox returns the bounding box of the package's GeoJSON extent. Every
// position of the geometry is considered.
func (p *Package) BBox() (snippets.BBox, bool) {
	if p.GeoJSONExtent == "" || !gjson.Valid(p.GeoJSONExtent) {
		return snippets.BBox{}, false
	}
	west, south := math.Inf(1), math.Inf(1)
	east, north := math.Inf(-1), math.Inf(-1)
	var walk func(r gjson.Result)
	walk = func(r gjson.Result) {
		arr := r.Array()
		if len(arr) >= 2 && arr[0].Type == gjson.Number && arr[1].Type == gjson.Number {
			x, y := arr[0].Float(), arr[1].Float()
			west, east = math.Min(west, x), math.Max(east, x)
			south, north = math.Min(south, y), math.Max(north, y)
			return
		}
		for _, a := range arr {
			walk(a)
		}
	}
	walk(gjson.Get(p.GeoJSONExtent, "coordinates"))
	if math.IsInf(west, 1) {
		return snippets.BBox{}, false
	}
	return snippets.BBoxFromFloats(west, east, south, north), true
}
