package indexer

import (
	"strings"
)

// Split cuts doc.Text into overlapping chunks of at most cfg.ChunkSize runes.
//
// Each window ends at the strongest breakpoint found within the tolerance
// lookback from the window limit (latest wins on ties), or exactly at the
// limit when none exists. A fenced code block that fits in one chunk always
// appears whole in some chunk: a window whose limit falls inside it ends at the
// fence start, or, for fences longer than ChunkSize-ChunkOverlap, early enough
// that a following window starts at or before the fence and reaches its end.
// Consecutive chunks share exactly cfg.ChunkOverlap runes, so dropping the
// overlap prefix of every chunk after the first reconstructs the text.
//
// Split is pure and safe for concurrent use.
func Split(doc Document, cfg ChunkingConfig) ([]Chunk, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if doc.Text == "" {
		return []Chunk{}, nil
	}

	runes := []rune(doc.Text)
	n := len(runes)
	if n <= cfg.ChunkSize {
		return []Chunk{newChunk(doc.ID, 0, runes, 0, n)}, nil
	}

	st := doc.Structure
	if st == nil {
		analyzed := Analyze(doc.Format, doc.Text)
		st = &analyzed
	}

	w := newWindower(cfg, n, st)
	chunks := make([]Chunk, 0, n/(cfg.ChunkSize-cfg.ChunkOverlap)+1)
	start := 0
	for {
		end := w.end(start)
		chunks = append(chunks, newChunk(doc.ID, len(chunks), runes, start, end))
		if end >= n {
			break
		}
		start = end - cfg.ChunkOverlap
	}

	return chunks, nil
}

// Reconstruct rebuilds the source text from chunks produced with the given overlap.
func Reconstruct(chunks []Chunk, overlap int) string {
	var sb strings.Builder
	for i, c := range chunks {
		if i == 0 {
			sb.WriteString(c.Text)
			continue
		}
		runes := []rune(c.Text)
		if overlap < len(runes) {
			sb.WriteString(string(runes[overlap:]))
		}
	}
	return sb.String()
}

func newChunk(docID string, index int, runes []rune, start, end int) Chunk {
	text := string(runes[start:end])
	return Chunk{
		DocumentID: docID,
		Index:      index,
		Text:       text,
		Start:      start,
		End:        end,
		Length:     end - start,
		ByteLength: len(text),
	}
}

// windower picks chunk end offsets. Window starts strictly increase, so the
// breakpoint and span cursors only move forward.
type windower struct {
	size    int
	overlap int
	tol     int
	n       int

	bps    []Breakpoint
	atomic []Span // spans that fit in a single chunk

	bi int // first breakpoint >= current lookback floor
	ai int // first atomic span ending after the current limit
	ci int // first atomic span ending after the current lookback floor
}

func newWindower(cfg ChunkingConfig, n int, st *Structure) *windower {
	tolerance := cfg.Tolerance
	if tolerance == 0 {
		tolerance = DefaultTolerance
	}

	bps := normalizeBreakpoints(append([]Breakpoint(nil), st.Breakpoints...), n)

	var atomic []Span
	for _, s := range normalizeSpans(st.Atomic, n) {
		if s.Len() <= cfg.ChunkSize {
			atomic = append(atomic, s)
		}
	}

	return &windower{
		size:    cfg.ChunkSize,
		overlap: cfg.ChunkOverlap,
		tol:     int(float64(cfg.ChunkSize) * tolerance),
		n:       n,
		bps:     bps,
		atomic:  atomic,
	}
}

func (w *windower) end(start int) int {
	limit := start + w.size
	if limit >= w.n {
		return w.n
	}

	// Any end below minEnd would not move the next window forward.
	minEnd := start + w.overlap + 1

	if s, ok := w.atomicAt(limit); ok && s.Start > start {
		return w.atomicEnd(s, start, limit)
	}

	lo := max(limit-w.tol, minEnd)
	if off, ok := w.breakpointIn(lo, limit); ok {
		return off
	}
	return limit
}

// atomicEnd ends a window whose limit falls inside s so that s stays whole in a
// later window. s starts after start and is at most size runes long.
func (w *windower) atomicEnd(s Span, start, limit int) int {
	minEnd := start + w.overlap + 1
	step := w.size - w.overlap

	// The next window starts at end-overlap and holds s whole when
	// end-overlap <= s.Start and end-overlap+size >= s.End.
	lo := max(minEnd, s.End-step)
	hi := min(limit, s.Start+w.overlap)

	if s.Start >= minEnd && (s.Len() <= step || lo > hi) {
		return s.Start
	}
	// hi >= minEnd because s.Start > start. The next start stays at or before
	// s.Start, so a window eventually holds s whole.
	return hi
}

// atomicAt returns the atomic span strictly containing pos.
func (w *windower) atomicAt(pos int) (Span, bool) {
	for w.ai < len(w.atomic) && w.atomic[w.ai].End <= pos {
		w.ai++
	}
	if w.ai < len(w.atomic) {
		s := w.atomic[w.ai]
		if s.Start < pos && pos < s.End {
			return s, true
		}
	}
	return Span{}, false
}

// breakpointIn returns the strongest breakpoint in [lo, hi], preferring the
// latest among equals and skipping offsets strictly inside atomic spans.
func (w *windower) breakpointIn(lo, hi int) (int, bool) {
	for w.bi < len(w.bps) && w.bps[w.bi].Offset < lo {
		w.bi++
	}
	for w.ci < len(w.atomic) && w.atomic[w.ci].End <= lo {
		w.ci++
	}

	best := -1
	var bestKind BreakKind
	ci := w.ci
	for i := w.bi; i < len(w.bps) && w.bps[i].Offset <= hi; i++ {
		bp := w.bps[i]
		for ci < len(w.atomic) && w.atomic[ci].End <= bp.Offset {
			ci++
		}
		if ci < len(w.atomic) && w.atomic[ci].Start < bp.Offset {
			continue
		}
		if bp.Kind >= bestKind {
			best, bestKind = bp.Offset, bp.Kind
		}
	}

	return best, best >= 0
}
