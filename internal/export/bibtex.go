// Package export renders stored articles in citation formats.
package export

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/matsen/artman/internal/article"
)

// Common name suffixes to keep with the family name.
var nameSuffixes = map[string]bool{
	"jr":   true,
	"jr.":  true,
	"sr":   true,
	"sr.":  true,
	"ii":   true,
	"iii":  true,
	"iv":   true,
	"phd":  true,
	"ph.d": true,
	"md":   true,
	"m.d":  true,
}

// shortIDLen is how many id characters go into a citation key.
const shortIDLen = 8

// ToBibTeX converts an article to a BibTeX entry.
func ToBibTeX(a article.Article) string {
	var b strings.Builder

	fmt.Fprintf(&b, "@article{%s,\n", CiteKey(a))

	if authors := formatAuthors(a.Author); authors != "" {
		fmt.Fprintf(&b, "  author = {%s},\n", authors)
	}

	fmt.Fprintf(&b, "  title = {%s},\n", escapeLatex(a.Title))

	if a.DOI != "" {
		fmt.Fprintf(&b, "  doi = {%s},\n", a.DOI)
	}

	// The stored summary is the closest thing to an abstract we have
	if a.Summary != "" {
		fmt.Fprintf(&b, "  abstract = {%s},\n", escapeLatex(a.Summary))
	}

	if a.Notes != "" {
		fmt.Fprintf(&b, "  note = {%s},\n", escapeLatex(a.Notes))
	}

	b.WriteString("}\n")

	return b.String()
}

// ToBibTeXList converts multiple articles to BibTeX format.
func ToBibTeXList(articles []article.Article) string {
	entries := make([]string, 0, len(articles))
	for _, a := range articles {
		entries = append(entries, ToBibTeX(a))
	}
	return strings.Join(entries, "\n")
}

// CiteKey derives a citation key from the first author's family name and the
// start of the record id, e.g. "Smith-3f2a9c1e".
func CiteKey(a article.Article) string {
	family := "Unknown"
	if names := splitAuthors(a.Author); len(names) > 0 {
		if _, last := splitAuthorName(names[0]); last != "" {
			if s := sanitizeForCiteKey(last); s != "" {
				family = s
			}
		}
	}

	id := sanitizeForCiteKey(a.ID)
	if len(id) > shortIDLen {
		id = id[:shortIDLen]
	}
	if id == "" {
		return family
	}
	return family + "-" + id
}

// splitAuthors splits the stored "Given Family, Given Family" author line.
func splitAuthors(author string) []string {
	var names []string
	for _, part := range strings.Split(author, ",") {
		if part = strings.TrimSpace(part); part != "" {
			names = append(names, part)
		}
	}
	return names
}

// formatAuthors formats authors in BibTeX style: "Family, Given and Family, Given".
func formatAuthors(author string) string {
	names := splitAuthors(author)
	formatted := make([]string, 0, len(names))
	for _, name := range names {
		first, last := splitAuthorName(name)
		if first != "" {
			formatted = append(formatted, escapeLatex(fmt.Sprintf("%s, %s", last, first)))
		} else {
			formatted = append(formatted, escapeLatex(last))
		}
	}
	return strings.Join(formatted, " and ")
}

// splitAuthorName splits a full name into given and family names.
// Multi-part surnames (von Neumann) split incorrectly.
func splitAuthorName(name string) (first, last string) {
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return "", parts[0]
	}

	lastPart := strings.ToLower(parts[len(parts)-1])
	if nameSuffixes[lastPart] && len(parts) > 2 {
		last = parts[len(parts)-2] + " " + parts[len(parts)-1]
		first = strings.Join(parts[:len(parts)-2], " ")
	} else {
		last = parts[len(parts)-1]
		first = strings.Join(parts[:len(parts)-1], " ")
	}
	return first, last
}

// sanitizeForCiteKey removes non-alphanumeric characters.
func sanitizeForCiteKey(s string) string {
	var result strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// escapeLatex escapes special LaTeX characters.
func escapeLatex(s string) string {
	replacer := strings.NewReplacer(
		`\`, `\textbackslash{}`,
		"&", `\&`,
		"%", `\%`,
		"$", `\$`,
		"#", `\#`,
		"_", `\_`,
		"{", `\{`,
		"}", `\}`,
		"~", `\textasciitilde{}`,
		"^", `\textasciicircum{}`,
	)
	return replacer.Replace(s)
}
