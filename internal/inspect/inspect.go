// Package inspect lists the elements a rendered page puts in its <head>.
package inspect

import (
	"errors"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// Element is one element found in the head.
type Element struct {
	Tag   string
	Attrs []html.Attribute
	// Text is the body of a script or style element.
	Text string
}

// Attr returns the value of the named attribute, or "" if absent.
func (e Element) Attr(key string) string {
	for _, a := range e.Attrs {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// String renders the start tag of e.
func (e Element) String() string {
	var sb strings.Builder
	sb.WriteByte('<')
	sb.WriteString(e.Tag)
	for _, a := range e.Attrs {
		sb.WriteByte(' ')
		sb.WriteString(a.Key)
		sb.WriteString(`="`)
		sb.WriteString(html.EscapeString(a.Val))
		sb.WriteByte('"')
	}
	sb.WriteByte('>')
	return sb.String()
}

// Head tokenizes r and returns the elements between <head> and </head>, in
// document order. Parsing stops at </head> or <body>, whichever comes first.
func Head(r io.Reader) ([]Element, error) {
	z := html.NewTokenizer(r)
	var (
		out    []Element
		inHead bool
		raw    *Element
	)
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				return out, nil
			}
			return out, z.Err()

		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			switch tok.Data {
			case "head":
				inHead = true
				continue
			case "body":
				return out, nil
			case "html":
				continue
			}
			if !inHead {
				continue
			}
			out = append(out, Element{Tag: tok.Data, Attrs: tok.Attr})
			raw = nil
			if tt == html.StartTagToken && (tok.Data == "script" || tok.Data == "style") {
				raw = &out[len(out)-1]
			}

		case html.TextToken:
			if raw != nil {
				raw.Text += string(z.Text())
			}

		case html.EndTagToken:
			tok := z.Token()
			if tok.Data == "head" {
				return out, nil
			}
			raw = nil
		}
	}
}

// Links returns the rel values of every <link> in elems.
func Links(elems []Element) []string {
	var rels []string
	for _, e := range elems {
		if e.Tag == "link" {
			rels = append(rels, e.Attr("rel"))
		}
	}
	return rels
}

// Find returns the elements with the given tag whose attribute key has value val.
func Find(elems []Element, tag, key, val string) []Element {
	var out []Element
	for _, e := range elems {
		if e.Tag == tag && strings.EqualFold(e.Attr(key), val) {
			out = append(out, e)
		}
	}
	return out
}
