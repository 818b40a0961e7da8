package geonetwork

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/penwern/geomodel-harvest/pkg/config"
	"github.com/penwern/geomodel-harvest/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGeonetwork struct {
	token    string
	response string
	status   int

	inserted []string
}

func (f *fakeGeonetwork) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case infoPath:
		if r.Method != http.MethodPost || r.URL.Query().Get("type") != "me" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if f.token != "" {
			http.SetCookie(w, &http.Cookie{Name: "XSRF-TOKEN", Value: f.token, Path: "/"})
		}
		w.WriteHeader(http.StatusOK)
	case recordsPath:
		user, pass, ok := r.BasicAuth()
		cookie, err := r.Cookie("XSRF-TOKEN")
		if r.Method != http.MethodPut || !ok || user != "admin" || pass != "secret" ||
			r.Header.Get("X-XSRF-TOKEN") != f.token || err != nil || cookie.Value != f.token ||
			r.Header.Get("Content-Type") != "application/xml" ||
			r.URL.Query().Get("uuidProcessing") != "NOTHING" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		body, _ := io.ReadAll(r.Body)
		f.inserted = append(f.inserted, string(body))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(f.status)
		_, _ = io.WriteString(w, f.response)
	default:
		http.NotFound(w, r)
	}
}

func newTestClient(t *testing.T, f *fakeGeonetwork) *Client {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)

	hc := utils.NewHTTPClient(5*time.Second, false)
	t.Cleanup(hc.Close)

	c, err := NewClient(&config.PushConfig{
		CKANURL:            "http://ckan.example",
		GeonetworkURL:      srv.URL + "/",
		GeonetworkUser:     "admin",
		GeonetworkPassword: "secret",
	}, hc)
	require.NoError(t, err)
	return c
}

func TestInsertRecord(t *testing.T) {
	f := &fakeGeonetwork{
		token:    "abc123",
		status:   http.StatusCreated,
		response: `{"numberOfRecordsProcessed":1,"numberOfRecordsWithErrors":0}`,
	}
	c := newTestClient(t, f)
	ctx := context.Background()

	token, err := c.XSRFToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "abc123", token)

	require.NoError(t, c.InsertRecord(ctx, token, "<mdb:MD_Metadata/>"))
	assert.Equal(t, []string{"<mdb:MD_Metadata/>"}, f.inserted)
}

func TestInsertRecordRejected(t *testing.T) {
	f := &fakeGeonetwork{
		token:    "abc123",
		status:   http.StatusCreated,
		response: `{"numberOfRecordsProcessed":0,"numberOfRecordsWithErrors":1}`,
	}
	c := newTestClient(t, f)

	err := c.InsertRecord(context.Background(), "abc123", "<x/>")
	assert.True(t, errors.Is(err, ErrInsertFailed))

	err = c.InsertRecord(context.Background(), "wrong", "<x/>")
	assert.ErrorIs(t, err, ErrInsertFailed)
	assert.ErrorContains(t, err, "403")
}

func TestXSRFTokenMissing(t *testing.T) {
	c := newTestClient(t, &fakeGeonetwork{})
	_, err := c.XSRFToken(context.Background())
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestNewClientValidates(t *testing.T) {
	_, err := NewClient(nil, nil)
	assert.Error(t, err)

	_, err = NewClient(&config.PushConfig{GeonetworkURL: "http://gn"}, nil)
	var cfgErr *config.Error
	assert.ErrorAs(t, err, &cfgErr)
}
