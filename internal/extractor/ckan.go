package extractor

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/penwern/geomodel-harvest/internal/ckan"
	"github.com/penwern/geomodel-harvest/pkg/config"
	"github.com/penwern/geomodel-harvest/pkg/iso19115"
)

// CKANKeyword is the keyword given to every record harvested from CKAN.
const CKANKeyword = "geological models"

// CKAN builds an ISO 19115-3 record from a CKAN package.
type CKAN struct {
	deps *Deps
}

// WriteRecord implements Extractor.
func (x *CKAN) WriteRecord(ctx context.Context, rec config.RecordParams) error {
	if rec.CKAN == nil || rec.CKAN.CKANURL == "" || rec.CKAN.PackageID == "" {
		return missing(rec, "ckan_url and package_id")
	}
	client, err := ckan.NewClient(rec.CKAN.CKANURL, x.deps.HTTP)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMissingField, rec.Label(), err)
	}
	pkg, err := client.PackageShow(ctx, rec.CKAN.PackageID)
	if err != nil {
		if errors.Is(err, ckan.ErrUnsuccessful) {
			return fmt.Errorf("%s: %w", rec.Label(), err)
		}
		return fmt.Errorf("%w: %s: %v", ErrTransport, rec.Label(), err)
	}

	out, err := iso19115.Render(x.record(rec, pkg))
	if err != nil {
		return fmt.Errorf("error rendering %s: %w", rec.Label(), err)
	}
	return x.deps.write(rec, out)
}

func (x *CKAN) record(rec config.RecordParams, pkg *ckan.Package) iso19115.Record {
	id := pkg.ID
	if id == "" {
		id = rec.CKAN.PackageID
	}
	r := iso19115.Record{
		Identifier:   id,
		Title:        pkg.Title,
		Abstract:     pkg.Notes,
		Organisation: pkg.OrganisationTitle,
		Created:      pkg.Created,
		Published:    pkg.Modified,
		Datestamp:    pkg.Modified,
		DatasetURI:   pkg.SourceURL + "?" + url.Values{"id": {rec.CKAN.PackageID}}.Encode(),
		Keywords:     []string{CKANKeyword},
		BBox:         iso19115.DefaultBBox,
		Lineage: fmt.Sprintf("This metadata record was reproduced from CKAN metadata retrieved from %s with package_id %s on %s",
			pkg.SourceURL, id, x.deps.now().Format(lineageDate)),
	}
	if bbox, ok := pkg.BBox(); ok {
		r.BBox = bbox
	}
	switch {
	case pkg.LicenseTitle != "" && pkg.LicenseURL != "":
		r.Rights = fmt.Sprintf("%s (%s)", pkg.LicenseTitle, pkg.LicenseURL)
		r.RightsURL = pkg.LicenseURL
	case pkg.LicenseTitle != "":
		r.Rights = pkg.LicenseTitle
	}
	if len(pkg.Resources) > 0 {
		res := pkg.Resources[0]
		r.Distributions = append(r.Distributions, iso19115.Distribution{
			URL:         res.URL,
			Protocol:    "WWW:LINK",
			Name:        res.Name,
			Description: "3D Model Download",
			Function:    "download",
		})
	}
	r.Distributions = append(r.Distributions, iso19115.WebsiteDistribution(x.deps.ModelBaseURL, rec.ModelEndpath))
	return r
}
