// Package markup reduces HTML and JATS XML fragments to plain text.
package markup

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// tagPattern matches opening, closing and self-closing tags, including
// namespaced ones such as <jats:p>. A bare "<" in running text is not a tag.
var tagPattern = regexp.MustCompile(`</?[A-Za-z][\w:.-]*(\s[^<>]*)?/?>`)

// inlineElements do not introduce a word boundary when removed.
// Names are compared without their namespace prefix (jats:italic -> italic).
var inlineElements = map[string]bool{
	"a":              true,
	"abbr":           true,
	"b":              true,
	"bold":           true,
	"code":           true,
	"em":             true,
	"ext-link":       true,
	"i":              true,
	"inline-formula": true,
	"italic":         true,
	"monospace":      true,
	"sc":             true,
	"span":           true,
	"strong":         true,
	"sub":            true,
	"sup":            true,
	"u":              true,
	"underline":      true,
	"xref":           true,
}

// HasMarkup reports whether s contains something tag-like.
func HasMarkup(s string) bool {
	return tagPattern.MatchString(s)
}

// Strip removes all tags from s and returns normalized plain text.
// Block-level elements (paragraphs, titles, sections) become word boundaries;
// inline elements are removed in place. Entities are decoded. Text without any
// tags is returned unchanged.
func Strip(s string) string {
	if !HasMarkup(s) {
		return s
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return collapse(tagPattern.ReplaceAllString(s, " "))
	}

	// Head-only elements such as <title> are moved out of body by the parser,
	// so the whole document is walked.
	var b strings.Builder
	writeText(&b, doc.Selection)
	return collapse(b.String())
}

// writeText appends the text content of sel, separating block elements.
func writeText(b *strings.Builder, sel *goquery.Selection) {
	sel.Contents().Each(func(_ int, child *goquery.Selection) {
		name := goquery.NodeName(child)
		switch {
		case name == "#text":
			// Raw-text elements (title, textarea) keep nested tags as text.
			b.WriteString(tagPattern.ReplaceAllString(child.Text(), " "))
		case strings.HasPrefix(name, "#"):
			// comments, doctype
		case inlineElements[localName(name)]:
			writeText(b, child)
		default:
			b.WriteByte(' ')
			writeText(b, child)
			b.WriteByte(' ')
		}
	})
}

// localName drops an XML namespace prefix from an element name.
func localName(name string) string {
	if i := strings.LastIndexByte(name, ':'); i >= 0 {
		return name[i+1:]
	}
	return name
}

// collapse trims s and folds every whitespace run into a single space.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
