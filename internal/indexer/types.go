package indexer

// Format identifies how a document's text was produced.
type Format string

const (
	FormatText     Format = "txt"
	FormatPDF      Format = "pdf"
	FormatMarkdown Format = "markdown"
)

// Document is the extracted text of one uploaded or scanned file.
type Document struct {
	ID        string     // Filename or other source identifier
	Format    Format     // Source format, drives the structure pre-pass
	Text      string     // Raw extracted text, never rewritten by the chunker
	Structure *Structure // Optional; computed with Analyze when nil
}

// Chunk is a contiguous, overlapping window of a document's text.
// Offsets are rune (character) offsets into Document.Text, End exclusive.
type Chunk struct {
	DocumentID string
	Index      int // Chunk index within document (starts at 0)
	Text       string
	Start      int
	End        int
	Length     int // End - Start
	ByteLength int // len(Text)
}

// ChunkingConfig controls window size and overlap, both counted in runes.
type ChunkingConfig struct {
	ChunkSize    int
	ChunkOverlap int
	// Tolerance is the fraction of ChunkSize the chunker may look back from
	// the window limit for a natural breakpoint. Zero selects DefaultTolerance.
	Tolerance float64
}

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 400
	DefaultTolerance    = 0.2
)

// DefaultChunkingConfig returns the stock 1000/400 configuration.
func DefaultChunkingConfig() ChunkingConfig {
	return ChunkingConfig{
		ChunkSize:    DefaultChunkSize,
		ChunkOverlap: DefaultChunkOverlap,
		Tolerance:    DefaultTolerance,
	}
}

// BreakKind ranks breakpoints. Higher values are stronger boundaries.
type BreakKind int

const (
	BreakWord BreakKind = iota + 1
	BreakSentence
	BreakLine
	BreakBlock
	BreakSection
)

func (k BreakKind) String() string {
	switch k {
	case BreakWord:
		return "word"
	case BreakSentence:
		return "sentence"
	case BreakLine:
		return "line"
	case BreakBlock:
		return "block"
	case BreakSection:
		return "section"
	default:
		return "unknown"
	}
}

// Breakpoint is a rune offset at which a chunk may end.
type Breakpoint struct {
	Offset int
	Kind   BreakKind
}

// Span is a half-open rune range [Start, End).
type Span struct {
	Start int
	End   int
}

// Len returns the number of runes covered by the span.
func (s Span) Len() int {
	return s.End - s.Start
}

// Structure is the boundary metadata of a document.
// Breakpoints are sorted by offset with at most one entry per offset.
// Atomic spans (fenced code) are sorted and do not overlap.
type Structure struct {
	Title       string
	Breakpoints []Breakpoint
	Atomic      []Span
}
