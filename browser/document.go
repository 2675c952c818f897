package browser

import (
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Document is a parsed, static HTML page.
type Document struct {
	doc *goquery.Document
}

// NewDocument parses r as HTML.
func NewDocument(r io.Reader) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}
	return &Document{doc: doc}, nil
}

// MustDocument parses an HTML string and panics on error. Meant for fixtures.
func MustDocument(html string) *Document {
	d, err := NewDocument(strings.NewReader(html))
	if err != nil {
		panic(err)
	}
	return d
}

// Has reports whether selector matches at least one node.
func (d *Document) Has(selector string) bool {
	return d.doc.Find(selector).Length() > 0
}

// Elements returns every node matching selector in document order.
func (d *Document) Elements(selector string) []Element {
	return wrapSelection(d.doc.Find(selector))
}

type node struct {
	sel *goquery.Selection
}

func (n node) Text() (string, error) {
	return strings.TrimSpace(n.sel.Text()), nil
}

func (n node) Find(selector string) (Element, error) {
	found := n.sel.Find(selector).First()
	if found.Length() == 0 {
		return nil, ErrNoSuchElement
	}
	return node{sel: found}, nil
}

func (n node) FindAll(selector string) ([]Element, error) {
	return wrapSelection(n.sel.Find(selector)), nil
}

func wrapSelection(sel *goquery.Selection) []Element {
	out := make([]Element, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		out = append(out, node{sel: s})
	})
	return out
}
