// Package document wraps fetched payloads in queryable trees: goquery for
// HTML and gjson for JSON. Parsing is tolerant; a selector that matches
// nothing is an empty result, never an error.
package document

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ParseError means the payload could not be turned into a tree at all.
type ParseError struct {
	Kind string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Kind, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

type Document struct {
	doc *goquery.Document
}

func Parse(body []byte) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, &ParseError{Kind: "html", Err: err}
	}
	return &Document{doc: doc}, nil
}

func (d *Document) Find(selector string) *goquery.Selection {
	return d.doc.Find(selector)
}

// Text returns the whitespace-collapsed text of the first match.
func (d *Document) Text(selector string) string {
	return TextOf(d.doc.Find(selector).First())
}

// FirstText tries each selector in order and returns the first non-empty text.
func (d *Document) FirstText(selectors ...string) string {
	for _, selector := range selectors {
		if text := d.Text(selector); text != "" {
			return text
		}
	}
	return ""
}

// Title is the <title> text, falling back to the first h1.
func (d *Document) Title() string {
	if title := d.Text("title"); title != "" {
		return title
	}
	return d.Text("h1")
}

// Remove drops every node matching selector from the tree.
func (d *Document) Remove(selector string) {
	d.doc.Find(selector).Remove()
}

func (d *Document) BodyText() string {
	return TextOf(d.doc.Find("body"))
}

// TextOf collapses whitespace in the text of sel.
func TextOf(sel *goquery.Selection) string {
	if sel == nil {
		return ""
	}
	return strings.Join(strings.Fields(sel.Text()), " ")
}

// AttrOf reads a trimmed attribute from the first node of sel.
func AttrOf(sel *goquery.Selection, name string) string {
	value, _ := sel.First().Attr(name)
	return strings.TrimSpace(value)
}
