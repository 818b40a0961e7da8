package harvest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCatalogue struct {
	ids     []string
	records map[string]string
	listErr error
}

func (f *fakeCatalogue) PackageList(context.Context) ([]string, error) { return f.ids, f.listErr }

func (f *fakeCatalogue) ISO19115PackageShow(_ context.Context, id string) (string, error) {
	rec, ok := f.records[id]
	if !ok {
		return "", errors.New("not found")
	}
	return rec, nil
}

type fakePublisher struct {
	tokenErr error
	reject   string
	inserted []string
}

func (f *fakePublisher) XSRFToken(context.Context) (string, error) { return "tok", f.tokenErr }

func (f *fakePublisher) InsertRecord(_ context.Context, token, record string) error {
	if token != "tok" || record == f.reject {
		return errors.New("rejected")
	}
	f.inserted = append(f.inserted, record)
	return nil
}

func TestPush(t *testing.T) {
	src := &fakeCatalogue{
		ids:     []string{"ds000002", "ds000006", "missing", "dup"},
		records: map[string]string{"ds000002": "<a/>", "ds000006": "<b/>", "dup": "<dup/>"},
	}
	dst := &fakePublisher{reject: "<dup/>"}

	res, err := Push(context.Background(), src, dst)
	require.NoError(t, err)
	assert.Equal(t, PushResult{Inserted: 2, Failed: 2}, res)
	assert.Equal(t, []string{"<a/>", "<b/>"}, dst.inserted)
}

func TestPushStopsWithoutToken(t *testing.T) {
	src := &fakeCatalogue{ids: []string{"a"}, records: map[string]string{"a": "<a/>"}}
	dst := &fakePublisher{tokenErr: errors.New("no cookie")}

	_, err := Push(context.Background(), src, dst)
	assert.ErrorContains(t, err, "no cookie")
	assert.Empty(t, dst.inserted)
}

func TestPushListError(t *testing.T) {
	_, err := Push(context.Background(), &fakeCatalogue{listErr: errors.New("down")}, &fakePublisher{})
	assert.ErrorContains(t, err, "down")
}
