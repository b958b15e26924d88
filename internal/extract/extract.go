// Package extract turns fetched markup into the plain text that gets hashed and classified
package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// strippedElements are removed together with their content before text is collected
const strippedElements = "script, style, noscript, template, svg, iframe"

// tagPattern is used only when the HTML parser cannot build a document
var tagPattern = regexp.MustCompile(`(?s)<[^>]*>`)

// Page is the plain-text view of a fetched document
type Page struct {
	// Title is the document title, empty when the document has none
	Title string
	// Text is the visible text with whitespace collapsed to single spaces
	Text string
}

// Parse extracts the title and visible text from raw HTML. Input that is not HTML
// passes through with its whitespace collapsed
func Parse(raw string) Page {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return Page{Text: collapse(tagPattern.ReplaceAllString(raw, " "))}
	}

	title := collapse(doc.Find("title").First().Text())

	doc.Find(strippedElements).Remove()
	doc.Find("title").Remove()

	var b strings.Builder

	for _, n := range doc.Nodes {
		writeText(&b, n)
	}

	return Page{
		Title: title,
		Text:  collapse(b.String()),
	}
}

// Text is shorthand for Parse(raw).Text
func Text(raw string) string {
	return Parse(raw).Text
}

// writeText appends every text node under n, separated by spaces so adjacent blocks do not run together
func writeText(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		b.WriteByte(' ')

		return
	case html.CommentNode, html.DoctypeNode:
		return
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeText(b, c)
	}
}

// collapse trims the string and folds every whitespace run into a single space
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
