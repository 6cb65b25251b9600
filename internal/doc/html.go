// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package doc

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/net/html"
)

// DocumentLoadError reports that a document could not be read or parsed.
// It is fatal for that document only.
type DocumentLoadError struct {
	Path string
	Err  error
}

func (e *DocumentLoadError) Error() string {
	return fmt.Sprintf("loading document %s: %v", e.Path, e.Err)
}

func (e *DocumentLoadError) Unwrap() error { return e.Err }

// LoadFile reads and parses the HTML or XHTML document at path.
func LoadFile(path string) (*Tree, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &DocumentLoadError{Path: path, Err: err}
	}
	defer f.Close()

	t, err := Parse(f)
	if err != nil {
		return nil, &DocumentLoadError{Path: path, Err: err}
	}
	return t, nil
}

// Parse builds a Tree from HTML or XHTML. Comments, doctypes and processing
// instructions are dropped; MathML foreign content keeps its local tag
// names. The root of the returned tree is the <html> element.
func Parse(r io.Reader) (*Tree, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	b := NewBuilder()
	var walk func(n *html.Node, parent NodeID)
	walk = func(n *html.Node, parent NodeID) {
		switch n.Type {
		case html.ElementNode:
			attrs := make([]Attr, 0, len(n.Attr))
			for _, a := range n.Attr {
				attrs = append(attrs, Attr{Key: a.Key, Val: a.Val})
			}
			id := b.Element(parent, n.Data, attrs...)
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				walk(c, id)
			}
		case html.TextNode:
			if parent != NoNode {
				b.Text(parent, n.Data)
			}
		case html.DocumentNode:
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				walk(c, parent)
			}
		}
	}
	walk(root, NoNode)

	t := b.Tree()
	if t.Root() == NoNode {
		return nil, fmt.Errorf("parse html: no root element")
	}
	return t, nil
}
