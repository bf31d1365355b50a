package extract

import (
	"testing"

	"github.com/fumiama/go-docx"
)

func TestDocxHeadingLevel(t *testing.T) {
	tests := []struct {
		style string
		want  int
	}{
		{style: "Heading1", want: 1},
		{style: "heading 2", want: 2},
		{style: "Heading6", want: 6},
		{style: "Heading7", want: 0},
		{style: "Normal", want: 0},
		{style: "", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.style, func(t *testing.T) {
			para := &docx.Paragraph{Properties: &docx.ParagraphProperties{Style: &docx.Style{Val: tt.style}}}
			if got := docxHeadingLevel(para); got != tt.want {
				t.Errorf("docxHeadingLevel(%q) = %d, want %d", tt.style, got, tt.want)
			}
		})
	}

	if got := docxHeadingLevel(&docx.Paragraph{}); got != 0 {
		t.Errorf("docxHeadingLevel(no properties) = %d, want 0", got)
	}
}

func TestDocxParagraphText(t *testing.T) {
	para := &docx.Paragraph{
		Children: []interface{}{
			&docx.Run{Children: []interface{}{&docx.Text{Text: " Hello"}}},
			&docx.Run{Children: []interface{}{&docx.Text{Text: ", world "}}},
		},
	}

	if got := docxParagraphText(para); got != "Hello, world" {
		t.Errorf("docxParagraphText() = %q", got)
	}
}

func TestJoinBlocks(t *testing.T) {
	if got := joinBlocks(nil); got != "" {
		t.Errorf("joinBlocks(nil) = %q", got)
	}
	if got := joinBlocks([]string{"# A", "b"}); got != "# A\n\nb\n" {
		t.Errorf("joinBlocks() = %q", got)
	}
}
