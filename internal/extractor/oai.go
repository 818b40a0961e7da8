package extractor

import (
	"context"
	"errors"
	"fmt"

	"github.com/penwern/geomodel-harvest/internal/oaipmh"
	"github.com/penwern/geomodel-harvest/pkg/config"
	"github.com/penwern/geomodel-harvest/pkg/iso19115"
	"github.com/penwern/geomodel-harvest/pkg/metadata"
)

// OAI builds an ISO 19115-3 record from an OAI-PMH Dublin Core record.
type OAI struct {
	deps *Deps
}

// WriteRecord implements Extractor.
func (x *OAI) WriteRecord(ctx context.Context, rec config.RecordParams) error {
	if rec.OAI == nil || rec.OAI.OAIURL == "" || rec.OAI.OAIID == "" {
		return missing(rec, "oai_url and oai_id")
	}
	client, err := oaipmh.NewClient(rec.OAI.OAIURL, x.deps.HTTP)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMissingField, rec.Label(), err)
	}
	got, err := client.GetRecord(ctx, rec.OAI.OAIID, rec.OAI.OAIPrefix)
	if err != nil {
		if errors.Is(err, oaipmh.ErrOAI) {
			return fmt.Errorf("%s: %w", rec.Label(), err)
		}
		return fmt.Errorf("%w: %s: %v", ErrTransport, rec.Label(), err)
	}

	r := x.record(rec, got)
	if r.Title == "" {
		return fmt.Errorf("%w: %s: OAI-PMH record %s has no title", ErrParse, rec.Label(), rec.OAI.OAIID)
	}
	out, err := iso19115.Render(r)
	if err != nil {
		return fmt.Errorf("error rendering %s: %w", rec.Label(), err)
	}
	return x.deps.write(rec, out)
}

func (x *OAI) record(rec config.RecordParams, got *oaipmh.Record) iso19115.Record {
	r := metadata.FromMap(got.Metadata).Record()
	r.Identifier = got.Identifier
	if r.Identifier == "" {
		r.Identifier = rec.OAI.OAIID
	}
	if r.Organisation == "" {
		r.Organisation = rec.OAI.ServiceName
	}
	if r.Datestamp.IsZero() {
		r.Datestamp = x.deps.now()
	}
	if rec.BBox != nil {
		r.BBox = *rec.BBox
	}
	r.Distributions = append(r.Distributions, iso19115.WebsiteDistribution(x.deps.ModelBaseURL, rec.ModelEndpath))
	r.Lineage = fmt.Sprintf("This metadata record was reproduced from OAI-PMH metadata retrieved from %s with identifier %s on %s",
		rec.OAI.OAIURL, rec.OAI.OAIID, x.deps.now().Format(lineageDate))
	return r
}
