package crossref

import (
	"regexp"
	"strings"

	"github.com/matsen/artman/internal/markup"
)

// bracketPattern matches bracketed annotations such as "[Editorial]" in titles.
var bracketPattern = regexp.MustCompile(`\[.*?\]`)

// Work is the typed subset of a Crossref work record used by the resolver.
type Work struct {
	Title       string
	Authors     string // "Given Family, Given Family"
	Abstract    string // Plain text, "" when the registry has none
	Description string
}

// Metadata is the normalized result of a DOI lookup.
type Metadata struct {
	Title   string `json:"title"`
	Authors string `json:"authors"`
	Summary string `json:"summary"`
	DOI     string `json:"doi"`
}

// MapWork converts the untyped Crossref "message" object into a Work.
// Absent or mistyped fields map to "".
func MapWork(doc map[string]any) Work {
	return Work{
		Title:       mapTitle(doc["title"]),
		Authors:     mapAuthors(doc["author"]),
		Abstract:    strings.TrimSpace(markup.Strip(stringValue(doc["abstract"]))),
		Description: strings.TrimSpace(stringValue(doc["description"])),
	}
}

// mapTitle takes the first title (Crossref titles are arrays), strips markup
// and bracketed annotations.
func mapTitle(v any) string {
	var title string
	switch t := v.(type) {
	case string:
		title = t
	case []any:
		if len(t) > 0 {
			title = stringValue(t[0])
		}
	}
	title = markup.Strip(title)
	title = bracketPattern.ReplaceAllString(title, "")
	return strings.Join(strings.Fields(title), " ")
}

// mapAuthors joins "given family" names in registry order.
func mapAuthors(v any) string {
	list, ok := v.([]any)
	if !ok {
		return ""
	}

	names := make([]string, 0, len(list))
	for _, item := range list {
		a, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if name := authorName(a); name != "" {
			names = append(names, name)
		}
	}
	return strings.Join(names, ", ")
}

// authorName formats one contributor. A lone given or family part is used
// alone; organisations carry only "name".
func authorName(a map[string]any) string {
	given := strings.TrimSpace(stringValue(a["given"]))
	family := strings.TrimSpace(stringValue(a["family"]))

	switch {
	case given != "" && family != "":
		return given + " " + family
	case given != "" || family != "":
		return given + family
	default:
		return strings.TrimSpace(stringValue(a["name"]))
	}
}

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}
