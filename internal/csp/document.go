package csp

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	httpEquivAttr = "http-equiv"
	httpEquivCSP  = "Content-Security-Policy"
)

// findPolicyMetas returns every <meta> whose http-equiv matches
// content-security-policy, ignoring case, in document order.
func findPolicyMetas(doc *goquery.Document) *goquery.Selection {
	return doc.Find("meta").FilterFunction(func(_ int, s *goquery.Selection) bool {
		v, ok := s.Attr(httpEquivAttr)
		return ok && strings.EqualFold(strings.TrimSpace(v), httpEquivCSP)
	})
}

// insertionPoint returns the element that receives generated nodes: the
// first <head>, else the first <body>. The name is "" when neither exists.
func insertionPoint(doc *goquery.Document) (*goquery.Selection, string) {
	if head := doc.Find("head").First(); head.Length() > 0 {
		return head, "HEAD"
	}
	if body := doc.Find("body").First(); body.Length() > 0 {
		return body, "BODY"
	}
	return nil, ""
}

func newElement(tag atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		DataAtom: tag,
		Data:     tag.String(),
		Attr:     attrs,
	}
}

func newStyleElement(css string) *html.Node {
	n := newElement(atom.Style)
	n.AppendChild(&html.Node{Type: html.TextNode, Data: css})
	return n
}

func newPolicyMeta(content string) *html.Node {
	return newElement(atom.Meta,
		html.Attribute{Key: httpEquivAttr, Val: httpEquivCSP},
		html.Attribute{Key: "content", Val: content},
	)
}
