// Package xmlmerge splices XML fragments into namespace-heavy metadata
// documents at a location described by a qualified path.
//
// A qualified path is an ordered list of "prefix:local" names leading from
// the document element to an insertion point, terminated by a sentinel
// entry whose local name is Sentinel. Merge finds the deepest prefix of the
// path already present, creates the missing elements below it, and appends
// the fragment there.
//
// Merge is idempotent in anchor discovery only. Merging the same fragment
// twice at a fully existing anchor leaves two sibling copies; callers that
// need a single copy must not merge twice.
package xmlmerge

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lestrrat-go/libxml2"
	"github.com/lestrrat-go/libxml2/parser"
	"github.com/lestrrat-go/libxml2/types"
	"github.com/lestrrat-go/libxml2/xpath"
	"github.com/penwern/geomodel-harvest/pkg/logger"
	"github.com/penwern/geomodel-harvest/pkg/namespaces"
)

// Sentinel is the local name of the final qualified path entry.
const Sentinel = "BLAH"

var (
	ErrMalformedFragment = errors.New("malformed XML fragment")
	ErrEmptyPath         = errors.New("empty qualified path")
	ErrNilDocument       = errors.New("nil document root")
	ErrUnknownPrefix     = namespaces.ErrUnknownPrefix
)

// MalformedFragmentError reports a fragment that is not well-formed XML.
type MalformedFragmentError struct {
	Err error
}

func (e *MalformedFragmentError) Error() string {
	return fmt.Sprintf("%v: %v", ErrMalformedFragment, e.Err)
}

func (e *MalformedFragmentError) Unwrap() error { return e.Err }

func (e *MalformedFragmentError) Is(target error) bool { return target == ErrMalformedFragment }

// IsSentinel reports whether a qualified name is the path terminator.
func IsSentinel(qname string) bool {
	_, local, _ := strings.Cut(qname, ":")
	return local == Sentinel
}

// Merge inserts fragment into the tree under root following path.
// The namespace table must bind every prefix used by path.
func Merge(root types.Node, fragment string, path []string, ns namespaces.Table) error {
	if root == nil {
		return ErrNilDocument
	}
	if len(path) == 0 {
		return ErrEmptyPath
	}
	if err := ns.ValidatePath(path); err != nil {
		return err
	}

	fragment = strings.TrimSpace(fragment)
	if err := checkFragment(fragment); err != nil {
		return err
	}

	anchor, leftovers, err := findAnchor(root, path, ns)
	if err != nil {
		return err
	}

	if len(leftovers) == 1 {
		return appendFragment(anchor, fragment)
	}

	for _, qname := range leftovers {
		if IsSentinel(qname) {
			return appendFragment(anchor, fragment)
		}
		anchor, err = createChild(anchor, qname, ns)
		if err != nil {
			return err
		}
	}
	return nil
}

// findAnchor runs the longest matching prefix search. It returns the node
// to insert under and the path entries still to be created.
func findAnchor(root types.Node, path []string, ns namespaces.Table) (types.Node, []string, error) {
	ctx, err := newContext(root, ns)
	if err != nil {
		return nil, nil, err
	}
	defer ctx.Free()

	trial := append([]string(nil), path...)
	var found types.NodeList
	for len(found) == 0 && len(trial) > 1 {
		expr := "/" + strings.Join(trial, "/")
		found, err = findNodes(ctx, expr)
		if err != nil {
			return nil, nil, err
		}
		trial = trial[:len(trial)-1]
	}

	if len(found) == 0 {
		return root, path[len(trial):], nil
	}
	if len(found) > 1 {
		logger.Debug("%d nodes match %s, using the first", len(found), strings.Join(path[:len(trial)+1], "/"))
	}
	return found[0], path[len(trial)+1:], nil
}

func findNodes(ctx *xpath.Context, expr string) (types.NodeList, error) {
	res, err := ctx.Find(expr)
	if err != nil {
		return nil, fmt.Errorf("evaluating %s: %w", expr, err)
	}
	defer res.Free()
	return res.NodeList(), nil
}

func newContext(n types.Node, ns namespaces.Table) (*xpath.Context, error) {
	ctx, err := xpath.NewContext(n)
	if err != nil {
		return nil, fmt.Errorf("creating xpath context: %w", err)
	}
	for _, prefix := range ns.Prefixes() {
		if err := ctx.RegisterNS(prefix, ns[prefix]); err != nil {
			ctx.Free()
			return nil, fmt.Errorf("registering namespace %s: %w", prefix, err)
		}
	}
	return ctx, nil
}

func checkFragment(fragment string) error {
	doc, err := libxml2.ParseString(fragment)
	if err != nil {
		return &MalformedFragmentError{Err: err}
	}
	doc.Free()
	return nil
}

// appendFragment parses the fragment in the context of the anchor so the
// resulting nodes belong to the host document, then appends them.
func appendFragment(anchor types.Node, fragment string) error {
	node, err := anchor.ParseInContext(fragment, int(parser.XMLParseNoBlanks))
	if err != nil {
		return &MalformedFragmentError{Err: err}
	}
	if err := anchor.AddChild(node); err != nil {
		return fmt.Errorf("appending fragment: %w", err)
	}
	return nil
}

// createChild adds a new element named qname under parent. The element is
// always bound to the URI of its own prefix. Other prefixes of the table that
// are not bound in scope are declared on it as well.
func createChild(parent types.Node, qname string, ns namespaces.Table) (types.Node, error) {
	uri, local, err := ns.Resolve(qname)
	if err != nil {
		return nil, err
	}
	own, _, _ := strings.Cut(qname, ":")
	doc, err := parent.OwnerDocument()
	if err != nil {
		return nil, fmt.Errorf("resolving owner document: %w", err)
	}
	el, err := doc.CreateElement(local)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", qname, err)
	}
	if err := parent.AddChild(el); err != nil {
		return nil, fmt.Errorf("adding %s: %w", qname, err)
	}
	if err := el.SetNamespace(uri, own, true); err != nil {
		return nil, fmt.Errorf("binding %s: %w", qname, err)
	}
	if el.NamespaceURI() != uri {
		return nil, fmt.Errorf("binding %s: element has namespace %q", qname, el.NamespaceURI())
	}
	for _, prefix := range ns.Prefixes() {
		if bound, err := el.LookupNamespaceURI(prefix); err == nil && bound == ns[prefix] {
			continue
		}
		if err := el.SetNamespace(ns[prefix], prefix, false); err != nil {
			return nil, fmt.Errorf("declaring %s on %s: %w", prefix, qname, err)
		}
	}
	return el, nil
}
