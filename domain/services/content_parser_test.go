package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultContentParser_ExtractTitle(t *testing.T) {
	parser := NewDefaultContentParser()

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "markdown heading",
			content: "# Spaced Repetition\n\nReview intervals grow over time.",
			want:    "Spaced Repetition",
		},
		{
			name:    "deep heading marker stripped",
			content: "### Deep Heading\nbody",
			want:    "Deep Heading",
		},
		{
			name:    "plain first line",
			content: "Just a plain first line\nsecond line",
			want:    "Just a plain first line",
		},
		{
			name:    "rich markup stripped",
			content: `<h1>Motivation</h1><p>See <span data-type="wiki-link" data-title="Active Recall"></span></p>`,
			want:    "Motivation",
		},
		{
			name:    "leading blank lines skipped",
			content: "\n\n   \nActual Title",
			want:    "Actual Title",
		},
		{
			name:    "empty content",
			content: "",
			want:    "Untitled",
		},
		{
			name:    "whitespace only",
			content: "   \n\t\n  ",
			want:    "Untitled",
		},
		{
			name:    "markup only",
			content: "<p></p><br/>",
			want:    "Untitled",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parser.ExtractTitle(tt.content))
		})
	}
}

func TestDefaultContentParser_ExtractReferencedTitles(t *testing.T) {
	parser := NewDefaultContentParser()

	t.Run("both encodings in document order", func(t *testing.T) {
		content := `<h1>Motivation</h1><p>See [[Spaced Repetition]] and <span data-type="wiki-link" data-title="Active Recall"></span></p>`

		titles := parser.ExtractReferencedTitles(content)

		assert.Equal(t, []string{"spaced repetition", "active recall"}, titles)
	})

	t.Run("case-insensitive dedup keeps first occurrence", func(t *testing.T) {
		content := `[[Alpha]] then [[ALPHA]] then data-title="alpha" then [[Beta]]`

		titles := parser.ExtractReferencedTitles(content)

		assert.Equal(t, []string{"alpha", "beta"}, titles)
	})

	t.Run("no references", func(t *testing.T) {
		assert.Empty(t, parser.ExtractReferencedTitles("nothing to see here"))
	})

	t.Run("empty and whitespace captures dropped", func(t *testing.T) {
		content := `data-title="" and [[   ]] and [[Real]]`

		titles := parser.ExtractReferencedTitles(content)

		assert.Equal(t, []string{"real"}, titles)
	})

	t.Run("reference titles are trimmed", func(t *testing.T) {
		titles := parser.ExtractReferencedTitles("[[  Padded Title ]]")

		assert.Equal(t, []string{"padded title"}, titles)
	})

	t.Run("brackets do not span lines", func(t *testing.T) {
		titles := parser.ExtractReferencedTitles("[[broken\ntitle]]")

		assert.Empty(t, titles)
	})

	t.Run("pure function returns identical results when repeated", func(t *testing.T) {
		content := `[[One]] <span data-title="Two"></span> [[one]]`

		first := parser.ExtractReferencedTitles(content)
		second := parser.ExtractReferencedTitles(content)

		assert.Equal(t, first, second)
	})
}
