package indexer

import (
	"bytes"
	"path/filepath"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

var markdownParser = goldmark.New(
	goldmark.WithExtensions(extension.Table),
)

// Analyze computes the breakpoints and atomic spans of text for the given format.
// Plain text and PDF output get line, blank-line and sentence breakpoints
// (PDF page breaks count as blocks). Markdown additionally gets heading and
// block breakpoints from the goldmark AST, and fenced code blocks become
// atomic spans.
func Analyze(format Format, txt string) Structure {
	var st Structure
	if txt == "" {
		return st
	}

	bps := scanText(txt, format == FormatPDF)
	if format == FormatMarkdown {
		md := analyzeMarkdown([]byte(txt))
		st.Title = md.title
		st.Atomic = md.atomic
		bps = append(bps, md.breakpoints...)
	}
	st.Breakpoints = normalizeBreakpoints(bps, utf8.RuneCountInString(txt))
	return st
}

// scanText finds text-level breakpoints. Offsets point just past the
// separator so a chunk ending there keeps the separator.
func scanText(txt string, pages bool) []Breakpoint {
	bps := make([]Breakpoint, 0, len(txt)/8)
	var prev rune
	pos := 0
	lineBlank := true
	seenNewline := false

	for _, r := range txt {
		next := pos + 1
		switch {
		case r == '\n':
			kind := BreakLine
			if lineBlank && seenNewline {
				kind = BreakBlock
			}
			bps = append(bps, Breakpoint{Offset: next, Kind: kind})
			lineBlank = true
			seenNewline = true
		case r == '\f' && pages:
			bps = append(bps, Breakpoint{Offset: next, Kind: BreakBlock})
			lineBlank = true
		case r == ' ' || r == '\t':
			kind := BreakWord
			if prev == '.' || prev == '!' || prev == '?' {
				kind = BreakSentence
			}
			bps = append(bps, Breakpoint{Offset: next, Kind: kind})
		default:
			if !unicode.IsSpace(r) {
				lineBlank = false
			}
		}
		prev = r
		pos = next
	}
	return bps
}

// normalizeBreakpoints sorts by offset, keeps the strongest kind per offset
// and drops offsets that cannot end a chunk.
func normalizeBreakpoints(bps []Breakpoint, n int) []Breakpoint {
	sort.SliceStable(bps, func(i, j int) bool {
		if bps[i].Offset != bps[j].Offset {
			return bps[i].Offset < bps[j].Offset
		}
		return bps[i].Kind > bps[j].Kind
	})

	out := bps[:0]
	last := -1
	for _, bp := range bps {
		if bp.Offset <= 0 || bp.Offset >= n || bp.Offset == last {
			continue
		}
		out = append(out, bp)
		last = bp.Offset
	}
	return out
}

// normalizeSpans sorts spans and drops empty, out of range or overlapping ones.
func normalizeSpans(spans []Span, n int) []Span {
	sorted := make([]Span, 0, len(spans))
	for _, s := range spans {
		if s.Start < 0 || s.End > n || s.Len() <= 0 {
			continue
		}
		sorted = append(sorted, s)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	out := sorted[:0]
	for _, s := range sorted {
		if len(out) > 0 && s.Start < out[len(out)-1].End {
			continue
		}
		out = append(out, s)
	}
	return out
}

type markdownLayout struct {
	title       string
	breakpoints []Breakpoint
	atomic      []Span
}

type byteBreak struct {
	offset int
	kind   BreakKind
}

// analyzeMarkdown walks the goldmark AST and records where blocks start.
func analyzeMarkdown(src []byte) markdownLayout {
	doc := markdownParser.Parser().Parse(text.NewReader(src))

	var breaks []byteBreak
	var fences []Span

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if n.Type() == ast.TypeInline {
			return ast.WalkSkipChildren, nil
		}

		switch node := n.(type) {
		case *ast.Document:
			return ast.WalkContinue, nil

		case *ast.FencedCodeBlock:
			if span, ok := fenceSpan(node, src); ok {
				fences = append(fences, span)
				breaks = append(breaks,
					byteBreak{offset: span.Start, kind: BreakBlock},
					byteBreak{offset: span.End, kind: BreakBlock},
				)
			}
			return ast.WalkSkipChildren, nil

		case *ast.Heading:
			if off, ok := blockStart(node, src); ok {
				breaks = append(breaks, byteBreak{offset: off, kind: BreakSection})
			}
			return ast.WalkSkipChildren, nil

		default:
			if off, ok := blockStart(n, src); ok {
				breaks = append(breaks, byteBreak{offset: off, kind: BreakBlock})
			}
			return ast.WalkContinue, nil
		}
	})

	layout := markdownLayout{
		title: extractTitle(doc, src),
	}

	// Walk order is document order, so fences are already ascending.
	counter := runeCounter{src: src}
	for _, f := range fences {
		layout.atomic = append(layout.atomic, Span{Start: counter.at(f.Start), End: counter.at(f.End)})
	}

	sort.Slice(breaks, func(i, j int) bool { return breaks[i].offset < breaks[j].offset })
	counter = runeCounter{src: src}
	for _, b := range breaks {
		layout.breakpoints = append(layout.breakpoints, Breakpoint{Offset: counter.at(b.offset), Kind: b.kind})
	}

	return layout
}

// blockStart returns the byte offset of the first line of a block node.
func blockStart(n ast.Node, src []byte) (int, bool) {
	off, ok := firstSegmentStart(n)
	if !ok {
		return 0, false
	}
	return lineStart(src, off), true
}

func firstSegmentStart(n ast.Node) (int, bool) {
	if n.Type() == ast.TypeBlock && n.Lines().Len() > 0 {
		return n.Lines().At(0).Start, true
	}
	if t, ok := n.(*ast.Text); ok {
		return t.Segment.Start, true
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if off, ok := firstSegmentStart(c); ok {
			return off, true
		}
	}
	return 0, false
}

// fenceSpan returns the byte range of a fenced code block including the
// opening and closing fence lines.
func fenceSpan(node *ast.FencedCodeBlock, src []byte) (Span, bool) {
	lines := node.Lines()

	var open int
	switch {
	case node.Info != nil:
		open = lineStart(src, node.Info.Segment.Start)
	case lines.Len() > 0:
		first := lineStart(src, lines.At(0).Start)
		if first == 0 {
			return Span{}, false
		}
		open = lineStart(src, first-1)
	default:
		return Span{}, false
	}

	closeFrom := lineEnd(src, open)
	if lines.Len() > 0 {
		last := lines.At(lines.Len() - 1)
		if last.Stop > last.Start {
			closeFrom = lineEnd(src, last.Stop-1)
		} else {
			closeFrom = lineEnd(src, last.Stop)
		}
	}

	end := closeFrom
	if fence := fenceChar(src[open:lineEnd(src, open)]); fence != 0 && closeFrom < len(src) {
		closeEnd := lineEnd(src, closeFrom)
		if isClosingFence(src[closeFrom:closeEnd], fence) {
			end = closeEnd
		}
	}

	return Span{Start: open, End: end}, true
}

func fenceChar(line []byte) byte {
	if i := bytes.IndexAny(line, "`~"); i >= 0 {
		return line[i]
	}
	return 0
}

func isClosingFence(line []byte, fence byte) bool {
	trimmed := bytes.TrimLeft(line, " \t>")
	run := 0
	for run < len(trimmed) && trimmed[run] == fence {
		run++
	}
	return run >= 3 && len(bytes.TrimSpace(trimmed[run:])) == 0
}

// lineStart returns the offset of the first byte of the line containing pos.
func lineStart(src []byte, pos int) int {
	if pos > len(src) {
		pos = len(src)
	}
	for pos > 0 && src[pos-1] != '\n' {
		pos--
	}
	return pos
}

// lineEnd returns the offset just past the newline ending the line containing pos.
func lineEnd(src []byte, pos int) int {
	if pos >= len(src) {
		return len(src)
	}
	if i := bytes.IndexByte(src[pos:], '\n'); i >= 0 {
		return pos + i + 1
	}
	return len(src)
}

// runeCounter converts ascending byte offsets to rune offsets in one pass.
type runeCounter struct {
	src []byte
	b   int
	r   int
}

func (c *runeCounter) at(off int) int {
	if off < c.b {
		c.b, c.r = 0, 0
	}
	for c.b < off && c.b < len(c.src) {
		_, size := utf8.DecodeRune(c.src[c.b:])
		c.b += size
		c.r++
	}
	return c.r
}

// extractTitle returns the first level 1 heading, or the first level 2
// heading when the document has no level 1 heading.
func extractTitle(doc ast.Node, src []byte) string {
	var firstH1, firstH2 string

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		if heading, ok := n.(*ast.Heading); ok {
			headingText := extractTextFromNode(heading, src)
			if heading.Level == 1 && firstH1 == "" {
				firstH1 = headingText
				return ast.WalkStop, nil
			}
			if heading.Level == 2 && firstH2 == "" {
				firstH2 = headingText
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	if firstH1 != "" {
		return firstH1
	}
	return firstH2
}

// extractTextFromNode extracts text content from a node and its children.
func extractTextFromNode(n ast.Node, src []byte) string {
	var sb strings.Builder

	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := node.(type) {
		case *ast.Text:
			sb.Write(v.Segment.Value(src))
		case *ast.String:
			sb.Write(v.Value)
		}
		return ast.WalkContinue, nil
	})

	return strings.TrimSpace(sb.String())
}

// TitleFromFilename derives a display title from a file name by removing
// the extension and capitalizing words.
func TitleFromFilename(filename string) string {
	name := filepath.Base(filename)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	name = strings.NewReplacer("_", " ", "-", " ").Replace(name)

	words := strings.Fields(name)
	for i, word := range words {
		runes := []rune(word)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}

	return strings.Join(words, " ")
}
