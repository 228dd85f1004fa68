package markup

import "testing"

func TestStrip(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain text is untouched",
			input: "No markup here.  Two spaces stay.",
			want:  "No markup here.  Two spaces stay.",
		},
		{
			name:  "comparison operators are not tags",
			input: "p < 0.05 and q > 1",
			want:  "p < 0.05 and q > 1",
		},
		{
			name:  "jats abstract",
			input: "<jats:title>Abstract</jats:title><jats:p>We study <jats:italic>E. coli</jats:italic> growth.</jats:p>",
			want:  "Abstract We study E. coli growth.",
		},
		{
			name:  "html paragraphs",
			input: "<p>First paragraph.</p><p>Second paragraph.</p>",
			want:  "First paragraph. Second paragraph.",
		},
		{
			name:  "inline markup inside a word",
			input: "H<sub>2</sub>O is water",
			want:  "H2O is water",
		},
		{
			name:  "plain title element keeps its text",
			input: "<title>Background</title><p>We study nets.</p>",
			want:  "Background We study nets.",
		},
		{
			name:  "nested tags inside title",
			input: "<title>Results for <i>E. coli</i></title><p>Growth.</p>",
			want:  "Results for E. coli Growth.",
		},
		{
			name:  "entities decoded",
			input: "<p>Salt &amp; pepper</p>",
			want:  "Salt & pepper",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Strip(tt.input)
			if got != tt.want {
				t.Errorf("Strip(%q) = %q, want %q", tt.input, got, tt.want)
			}
			if HasMarkup(got) {
				t.Errorf("Strip(%q) left markup behind: %q", tt.input, got)
			}
		})
	}
}

func TestHasMarkup(t *testing.T) {
	if !HasMarkup("<b>bold</b>") {
		t.Error("HasMarkup() should detect tags")
	}
	if HasMarkup("a < b") {
		t.Error("HasMarkup() should not treat a lone < as a tag")
	}
}
