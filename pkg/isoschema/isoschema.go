// Package isoschema upgrades ISO 19115-3 namespace declarations for
// geonetwork and validates generated records against an XSD.
package isoschema

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"strings"

	"github.com/beevik/etree"
	"github.com/lestrrat-go/libxml2"
	"github.com/lestrrat-go/libxml2/xsd"
	"github.com/penwern/geomodel-harvest/pkg/logger"
	"github.com/penwern/geomodel-harvest/pkg/namespaces"
)

const (
	mdsSchema10 = "http://standards.iso.org/iso/19115/-3/mds/1.0"
	mdsSchema20 = "http://standards.iso.org/iso/19115/-3/mds/2.0"
)

// UpgradeNamespaces rewrites every namespace declaration whose URI has a
// newer version in namespaces.Upgrades, on every element of the document.
// The schema location hint is moved from mds 1.0 to 2.0. The result is
// re-indented with an XML declaration.
func UpgradeNamespaces(data []byte) ([]byte, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("error parsing record for namespace upgrade: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return nil, errors.New("error parsing record for namespace upgrade: no root element")
	}

	changed := 0
	for _, el := range append([]*etree.Element{root}, root.FindElements("//*")...) {
		for i := range el.Attr {
			attr := &el.Attr[i]
			switch {
			case attr.Space == "xmlns" || (attr.Space == "" && attr.Key == "xmlns"):
				if next, ok := namespaces.Upgrades[attr.Value]; ok {
					attr.Value = next
					changed++
				}
			case attr.Key == "schemaLocation":
				attr.Value = strings.ReplaceAll(attr.Value, mdsSchema10, mdsSchema20)
			}
		}
	}
	logger.Debug("Upgraded %d namespace declarations", changed)

	doc.Indent(2)
	out, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("error serialising upgraded record: %w", err)
	}
	if !bytes.HasPrefix(out, []byte("<?xml")) {
		out = append([]byte(xml.Header), out...)
	}
	return out, nil
}

// Validate checks data against the XSD at xsdPath.
func Validate(data []byte, xsdPath string) error {
	schema, err := xsd.ParseFromFile(xsdPath)
	if err != nil {
		return fmt.Errorf("error parsing XML schema %s: %w", xsdPath, err)
	}
	defer schema.Free()

	doc, err := libxml2.Parse(data)
	if err != nil {
		return fmt.Errorf("error parsing XML document: %w", err)
	}
	defer doc.Free()

	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("error validating XML document against schema: %w", err)
	}
	return nil
}
