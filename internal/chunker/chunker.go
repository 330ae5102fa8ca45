package chunker

import (
	"codexsum/internal/language"
	"codexsum/pkg/types"
)

const (
	// DefaultMaxChunkSize is the chunk size threshold in bytes.
	DefaultMaxChunkSize = 2000

	// DefaultOverlap is the context window carried across chunk boundaries.
	DefaultOverlap = 400
)

// Options configures a Chunker. The zero value gets the defaults.
type Options struct {
	MaxChunkSize int  // bytes per chunk; chunks only exceed this when flagged Oversized
	Overlap      int  // trailing bytes of the previous chunk carried as marked context
	Semantic     bool // language-aware boundaries vs pure size splitting
}

// Chunker splits one file into an ordered sequence of chunks. Chunking is
// deterministic and stateless: identical content and options always produce
// an identical sequence.
type Chunker struct {
	opts Options
}

// New creates a Chunker.
func New(opts Options) *Chunker {
	if opts.MaxChunkSize <= 0 {
		opts.MaxChunkSize = DefaultMaxChunkSize
	}
	if opts.Overlap < 0 {
		opts.Overlap = 0
	}
	return &Chunker{opts: opts}
}

// lineSpan is one line of the file, newline included.
type lineSpan struct {
	start, end int // byte offsets, end exclusive
}

// Chunk splits the file. An empty file yields zero chunks. Chunk spans are
// non-overlapping and concatenate, in index order, back to the exact file
// content; the Overlap field is marked context outside the partition.
func (c *Chunker) Chunk(file *types.SourceFile) []*types.Chunk {
	if len(file.Content) == 0 {
		return nil
	}

	lines := splitLines(file.Content)
	b := &builder{
		file:  file,
		lines: lines,
		max:   c.opts.MaxChunkSize,
	}

	if c.opts.Semantic {
		if det, ok := language.ForLanguage(file.Language); ok {
			if bounds := det.DetectBoundaries(file.Content); len(bounds) > 0 {
				c.chunkSemantic(b, bounds)
				return c.finish(b)
			}
		}
	}

	// Generic fallback: pure size boundaries at the nearest newline.
	b.emitSplit(0, len(lines)-1, types.ChunkBlob, "", "", false)
	return c.finish(b)
}

// chunkSemantic partitions the file around the recognized boundaries. Gaps
// before, between, and after units become module-level chunks.
func (c *Chunker) chunkSemantic(b *builder, bounds []language.Boundary) {
	cursor := 0 // 0-based line index of the next unconsumed line
	for _, bd := range bounds {
		start := bd.StartLine - 1
		end := bd.EndLine - 1
		if start >= len(b.lines) {
			break
		}
		if end >= len(b.lines) {
			end = len(b.lines) - 1
		}
		if start < cursor {
			// Boundary overlapping already-consumed lines; keep the
			// partition lossless by trimming it.
			start = cursor
			if start > end {
				continue
			}
		}
		if cursor < start {
			b.emitSplit(cursor, start-1, types.ChunkModule, "", "", false)
		}
		b.emitSplit(start, end, bd.Kind, bd.Symbol, bd.Parent, true)
		cursor = end + 1
	}
	if cursor < len(b.lines) {
		b.emitSplit(cursor, len(b.lines)-1, types.ChunkModule, "", "", false)
	}
}

// finish applies the overlap window and computes per-chunk hashes and token
// estimates.
func (c *Chunker) finish(b *builder) []*types.Chunk {
	for i, ch := range b.chunks {
		if i > 0 && c.opts.Overlap > 0 {
			prev := b.chunks[i-1].Text
			n := c.opts.Overlap
			if n > len(prev) {
				n = len(prev)
			}
			ch.Overlap = prev[len(prev)-n:]
		}
		ch.ComputeContentHash()
		ch.ComputeTokenCount()
	}
	return b.chunks
}

// builder accumulates chunks over the file's line table.
type builder struct {
	file   *types.SourceFile
	lines  []lineSpan
	max    int
	chunks []*types.Chunk
}

// emitSplit emits the line range [from,to] as one chunk when it fits, or as
// a greedy sequence of line-aligned pieces when it does not. For a split
// structural unit the head keeps its kind and the tail pieces are marked
// blob continuations; a single line larger than the threshold is emitted
// whole and flagged Oversized, never truncated.
func (b *builder) emitSplit(from, to int, kind types.ChunkKind, symbol, parent string, structural bool) {
	if from > to {
		return
	}
	size := b.lines[to].end - b.lines[from].start
	if size <= b.max {
		b.emit(from, to, kind, symbol, parent, false, false)
		return
	}

	first := true
	cur := from
	for cur <= to {
		// Grow the piece while the next line still fits.
		end := cur
		pieceSize := b.lines[cur].end - b.lines[cur].start
		for end+1 <= to {
			next := b.lines[end+1].end - b.lines[end+1].start
			if pieceSize+next > b.max {
				break
			}
			pieceSize += next
			end++
		}
		oversized := pieceSize > b.max // single line beyond the threshold
		pieceKind := kind
		continued := false
		if structural && !first {
			pieceKind = types.ChunkBlob
			continued = true
		}
		pieceSymbol, pieceParent := symbol, parent
		if structural && !first {
			pieceParent = symbol
			pieceSymbol = ""
		}
		b.emit(cur, end, pieceKind, pieceSymbol, pieceParent, oversized, continued)
		first = false
		cur = end + 1
	}
}

func (b *builder) emit(from, to int, kind types.ChunkKind, symbol, parent string, oversized, continued bool) {
	start := b.lines[from].start
	end := b.lines[to].end
	b.chunks = append(b.chunks, &types.Chunk{
		FilePath:  b.file.Path,
		Index:     len(b.chunks),
		StartByte: start,
		EndByte:   end,
		StartLine: from + 1,
		EndLine:   to + 1,
		Text:      string(b.file.Content[start:end]),
		Kind:      kind,
		Symbol:    symbol,
		Parent:    parent,
		Oversized: oversized,
		Continued: continued,
	})
}

// splitLines builds the line table. Every byte of the file belongs to
// exactly one line; newlines stay attached to their line.
func splitLines(content []byte) []lineSpan {
	var lines []lineSpan
	start := 0
	for i, c := range content {
		if c == '\n' {
			lines = append(lines, lineSpan{start, i + 1})
			start = i + 1
		}
	}
	if start < len(content) {
		lines = append(lines, lineSpan{start, len(content)})
	}
	return lines
}
