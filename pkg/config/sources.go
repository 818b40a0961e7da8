package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/penwern/geomodel-harvest/pkg/logger"
	"github.com/penwern/geomodel-harvest/pkg/snippets"
	"gopkg.in/yaml.v3"
)

//go:embed sources.yaml
var defaultSources []byte

// Method selects the extractor used for a source.
type Method string

const (
	MethodPDF        Method = "PDF"
	MethodCKAN       Method = "CKAN"
	MethodISO19139   Method = "ISO19139"
	MethodISO19115_3 Method = "ISO19115-3"
	MethodOAIPMH     Method = "OAIPMH"
	MethodNone       Method = "none"
)

// Methods lists every method tag accepted in a registry.
var Methods = []Method{MethodPDF, MethodCKAN, MethodISO19139, MethodISO19115_3, MethodOAIPMH, MethodNone}

// Common holds the fields shared by every record.
type Common struct {
	Name         string         `yaml:"name"`
	ModelEndpath string         `yaml:"model_endpath" validate:"required"`
	OutputFile   string         `yaml:"output_file" validate:"omitempty,excludesall=/\\"`
	BBox         *snippets.BBox `yaml:"bbox"`
}

// XMLParams configures the ISO19139 and ISO19115-3 extractors.
type XMLParams struct {
	MetadataURL   string `yaml:"metadata_url" validate:"required,url"`
	UpgradeHeader bool   `yaml:"upgrade_header"`
}

// CKANParams configures the CKAN extractor.
type CKANParams struct {
	CKANURL   string `yaml:"ckan_url" validate:"required,http_url"`
	PackageID string `yaml:"package_id" validate:"required"`
}

// OAIParams configures the OAI-PMH extractor.
type OAIParams struct {
	OAIURL      string `yaml:"oai_url" validate:"required,http_url"`
	OAIID       string `yaml:"oai_id" validate:"required"`
	OAIPrefix   string `yaml:"oai_prefix" validate:"required"`
	ServiceName string `yaml:"service_name"`
}

// PDFParams configures the PDF extractor.
type PDFParams struct {
	PDFFile      string `yaml:"pdf_file" validate:"required"`
	PDFURL       string `yaml:"pdf_url" validate:"omitempty,url"`
	Organisation string `yaml:"organisation" validate:"required"`
	Title        string `yaml:"title" validate:"required"`
	Cutoff       int    `yaml:"cutoff" validate:"gte=0"`
}

// RecordParams is one configured record. Exactly one of the method
// specific parameter blocks is set, matching Method.
type RecordParams struct {
	Common

	Source    string
	Index     int
	Method    Method
	ParseMode string

	XML  *XMLParams
	CKAN *CKANParams
	OAI  *OAIParams
	PDF  *PDFParams
}

// Output returns the file name for the generated record.
func (r RecordParams) Output() string {
	if r.OutputFile != "" {
		return r.OutputFile
	}
	return r.ModelEndpath + ".xml"
}

// Label names the record in log lines.
func (r RecordParams) Label() string {
	if r.Name != "" {
		return fmt.Sprintf("%s/%s (%s)", r.Source, r.ModelEndpath, r.Name)
	}
	return r.Source + "/" + r.ModelEndpath
}

// Source is one registry entry.
type Source struct {
	Key       string
	Method    Method
	ParseMode string
	Records   []RecordParams
}

// Skipped reports whether the source has no extraction method.
func (s *Source) Skipped() bool {
	return s.Method == MethodNone
}

// Registry maps source keys to their configuration.
type Registry struct {
	Sources map[string]*Source
}

// Keys returns the source keys in sorted order.
func (r *Registry) Keys() []string {
	keys := make([]string, 0, len(r.Sources))
	for k := range r.Sources {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Lookup returns the source registered under key.
func (r *Registry) Lookup(key string) (*Source, error) {
	s, ok := r.Sources[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, key)
	}
	return s, nil
}

type registryFile struct {
	Sources map[string]sourceFile `yaml:"sources"`
}

type sourceFile struct {
	Method    string      `yaml:"method"`
	ParseMode string      `yaml:"parse_mode"`
	Records   []yaml.Node `yaml:"records"`
}

// LoadSources reads a registry from path. An empty path loads the
// built-in registry.
func LoadSources(path string) (*Registry, error) {
	if path == "" {
		logger.Debug("Using built-in source registry")
		return ParseSources(defaultSources)
	}
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &Error{Err: fmt.Errorf("%w: %s", ErrConfigNotFound, path)}
		}
		return nil, &Error{Err: fmt.Errorf("reading %s: %w", path, err)}
	}
	logger.Info("Loading source registry: %s", path)
	return ParseSources(data)
}

// ParseSources decodes and validates a registry document.
func ParseSources(data []byte) (*Registry, error) {
	var file registryFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, &Error{Err: fmt.Errorf("decoding source registry: %w", err)}
	}

	v := validator.New()
	reg := &Registry{Sources: make(map[string]*Source, len(file.Sources))}
	for key, sf := range file.Sources {
		src, err := decodeSource(v, key, sf)
		if err != nil {
			return nil, err
		}
		reg.Sources[key] = src
	}
	return reg, nil
}

func decodeSource(v *validator.Validate, key string, sf sourceFile) (*Source, error) {
	method, err := parseMethod(sf.Method)
	if err != nil {
		return nil, &ParamsError{Source: key, Index: -1, Err: err}
	}
	mode := strings.ToLower(strings.TrimSpace(sf.ParseMode))
	if mode != "" && mode != "strict" && mode != "recover" {
		return nil, &ParamsError{Source: key, Index: -1, Err: fmt.Errorf("unknown parse_mode %q", sf.ParseMode)}
	}

	src := &Source{Key: key, Method: method, ParseMode: mode}
	if method == MethodNone {
		return src, nil
	}
	for i := range sf.Records {
		rec, err := decodeRecord(v, method, &sf.Records[i])
		if err != nil {
			return nil, &ParamsError{Source: key, Index: i, Err: err}
		}
		rec.Source, rec.Index, rec.Method, rec.ParseMode = key, i, method, mode
		src.Records = append(src.Records, rec)
	}
	return src, nil
}

func parseMethod(s string) (Method, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, string(MethodNone)) {
		return MethodNone, nil
	}
	for _, m := range Methods {
		if strings.EqualFold(s, string(m)) {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown method %q (want %s)", s, MethodNames())
}

// Record layouts per method. Defaults are set before decoding.
type xmlRecord struct {
	Common    `yaml:",inline"`
	XMLParams `yaml:",inline"`
}

type ckanRecord struct {
	Common     `yaml:",inline"`
	CKANParams `yaml:",inline"`
}

type oaiRecord struct {
	Common    `yaml:",inline"`
	OAIParams `yaml:",inline"`
}

type pdfRecord struct {
	Common    `yaml:",inline"`
	PDFParams `yaml:",inline"`
}

func decodeRecord(v *validator.Validate, method Method, node *yaml.Node) (RecordParams, error) {
	var rec RecordParams
	var params any
	switch method {
	case MethodISO19139, MethodISO19115_3:
		r := xmlRecord{XMLParams: XMLParams{UpgradeHeader: method == MethodISO19115_3}}
		if err := decodeStrict(node, &r); err != nil {
			return rec, err
		}
		rec.Common, rec.XML, params = r.Common, &r.XMLParams, &r.XMLParams
	case MethodCKAN:
		var r ckanRecord
		if err := decodeStrict(node, &r); err != nil {
			return rec, err
		}
		rec.Common, rec.CKAN, params = r.Common, &r.CKANParams, &r.CKANParams
	case MethodOAIPMH:
		r := oaiRecord{OAIParams: OAIParams{OAIPrefix: "oai_dc"}}
		if err := decodeStrict(node, &r); err != nil {
			return rec, err
		}
		rec.Common, rec.OAI, params = r.Common, &r.OAIParams, &r.OAIParams
	case MethodPDF:
		r := pdfRecord{PDFParams: PDFParams{Cutoff: 3000}}
		if err := decodeStrict(node, &r); err != nil {
			return rec, err
		}
		rec.Common, rec.PDF, params = r.Common, &r.PDFParams, &r.PDFParams
	default:
		return rec, fmt.Errorf("no record layout for method %s", method)
	}

	if err := v.Struct(rec.Common); err != nil {
		return rec, err
	}
	if err := v.Struct(params); err != nil {
		return rec, err
	}
	return rec, nil
}

// decodeStrict decodes a single node rejecting unknown keys. yaml.Node.Decode
// has no KnownFields switch, so the node goes through a Decoder.
func decodeStrict(node *yaml.Node, out any) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("record must be a mapping, got %s", kindName(node.Kind))
	}
	raw, err := yaml.Marshal(node)
	if err != nil {
		return err
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	return dec.Decode(out)
}

func kindName(k yaml.Kind) string {
	names := map[yaml.Kind]string{
		yaml.DocumentNode: "document",
		yaml.SequenceNode: "sequence",
		yaml.ScalarNode:   "scalar",
		yaml.AliasNode:    "alias",
	}
	if n, ok := names[k]; ok {
		return n
	}
	return "node"
}

// MethodNames returns the accepted method tags joined by "|".
func MethodNames() string {
	names := make([]string, 0, len(Methods))
	for _, m := range Methods {
		names = append(names, string(m))
	}
	slices.Sort(names)
	return strings.Join(names, "|")
}
