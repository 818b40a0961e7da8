package xmlmerge

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/lestrrat-go/libxml2"
	"github.com/lestrrat-go/libxml2/parser"
	"github.com/lestrrat-go/libxml2/types"
	"github.com/penwern/geomodel-harvest/pkg/namespaces"
	"golang.org/x/text/encoding/htmlindex"
)

// ErrMalformedDocument is returned when a source document cannot be parsed.
var ErrMalformedDocument = errors.New("malformed XML document")

// ParseMode selects how source documents with syntax errors are handled.
type ParseMode int

const (
	// ParseStrict rejects any malformed input.
	ParseStrict ParseMode = iota
	// ParseRecover lets libxml2 repair what it can.
	ParseRecover
)

func (m ParseMode) String() string {
	if m == ParseRecover {
		return "recover"
	}
	return "strict"
}

// ParseModeFromString accepts "strict" or "recover". Empty means strict.
func ParseModeFromString(s string) (ParseMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "strict":
		return ParseStrict, nil
	case "recover":
		return ParseRecover, nil
	}
	return ParseStrict, fmt.Errorf("unknown parse mode %q (want strict or recover)", s)
}

// Parse reads a metadata document. Ignorable whitespace is dropped so the
// merged result can be re-indented on output.
func Parse(data []byte, mode ParseMode) (types.Document, error) {
	opts := []parser.Option{parser.XMLParseNoBlanks, parser.XMLParseNoNet}
	if mode == ParseRecover {
		opts = append(opts, parser.XMLParseRecover)
	}
	doc, err := libxml2.Parse(data, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	if _, err := doc.DocumentElement(); err != nil {
		doc.Free()
		return nil, fmt.Errorf("%w: no document element", ErrMalformedDocument)
	}
	return doc, nil
}

// ToUTF8 converts a document served with the given charset to UTF-8. A
// document that names its own encoding in the XML declaration is returned
// unchanged, as is one served without a charset or already in UTF-8.
func ToUTF8(data []byte, charset string) ([]byte, error) {
	charset = strings.TrimSpace(charset)
	if charset == "" || declaresEncoding(data) {
		return data, nil
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, fmt.Errorf("%w: unsupported charset %q", ErrMalformedDocument, charset)
	}
	if name, _ := htmlindex.Name(enc); name == "utf-8" {
		return data, nil
	}
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("%w: decoding %s: %v", ErrMalformedDocument, charset, err)
	}
	return out, nil
}

func declaresEncoding(data []byte) bool {
	data = bytes.TrimLeft(data, "\xef\xbb\xbf \t\r\n")
	if !bytes.HasPrefix(data, []byte("<?xml")) {
		return false
	}
	end := bytes.Index(data, []byte("?>"))
	return end > 0 && bytes.Contains(data[:end], []byte("encoding"))
}

// Root returns the document element.
func Root(doc types.Document) (types.Node, error) {
	root, err := doc.DocumentElement()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	return root, nil
}

// Serialize returns the document as indented XML with a declaration.
func Serialize(doc types.Document) string {
	return doc.Dump(true)
}

// Count evaluates count(expr) against n.
func Count(n types.Node, expr string, ns namespaces.Table) (int, error) {
	ctx, err := newContext(n, ns)
	if err != nil {
		return 0, err
	}
	defer ctx.Free()
	nodes, err := findNodes(ctx, expr)
	if err != nil {
		return 0, err
	}
	return len(nodes), nil
}

// Text returns the text content of every node matching expr.
func Text(n types.Node, expr string, ns namespaces.Table) ([]string, error) {
	ctx, err := newContext(n, ns)
	if err != nil {
		return nil, err
	}
	defer ctx.Free()
	nodes, err := findNodes(ctx, expr)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(nodes))
	for _, node := range nodes {
		out = append(out, strings.TrimSpace(node.TextContent()))
	}
	return out, nil
}
