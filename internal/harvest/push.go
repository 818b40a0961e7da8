package harvest

import (
	"context"
	"fmt"

	"github.com/penwern/geomodel-harvest/pkg/logger"
	"github.com/penwern/geomodel-harvest/pkg/utils"
)

// Catalogue lists packages and renders them as ISO 19115 XML.
type Catalogue interface {
	PackageList(ctx context.Context) ([]string, error)
	ISO19115PackageShow(ctx context.Context, id string) (string, error)
}

// Publisher inserts XML records into a catalogue.
type Publisher interface {
	XSRFToken(ctx context.Context) (string, error)
	InsertRecord(ctx context.Context, token, record string) error
}

// PushResult counts the outcome of a push.
type PushResult struct {
	Inserted int
	Failed   int
}

// Push copies every package of src into dst. A package that cannot be
// read or inserted is logged and skipped.
func Push(ctx context.Context, src Catalogue, dst Publisher) (PushResult, error) {
	var res PushResult

	token, err := dst.XSRFToken(ctx)
	if err != nil {
		return res, fmt.Errorf("error authenticating with geonetwork: %w", err)
	}
	ids, err := src.PackageList(ctx)
	if err != nil {
		return res, fmt.Errorf("error listing CKAN packages: %w", err)
	}

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		logger.Info("Inserting %q", id)
		record, err := src.ISO19115PackageShow(ctx, id)
		if err != nil {
			logger.Error("Could not get record %s from CKAN: %s", id, utils.TruncateError(err.Error(), 300))
			res.Failed++
			continue
		}
		if err := dst.InsertRecord(ctx, token, record); err != nil {
			logger.Error("Insert of %s failed: %s", id, utils.TruncateError(err.Error(), 300))
			res.Failed++
			continue
		}
		res.Inserted++
	}
	logger.Info("Push finished: %d inserted, %d failed", res.Inserted, res.Failed)
	return res, nil
}
