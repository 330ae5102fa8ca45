package types

import (
	"crypto/sha256"
	"errors"
)

// ChunkKind classifies the semantic scope of a chunk.
type ChunkKind string

const (
	ChunkFunction ChunkKind = "function"
	ChunkClass    ChunkKind = "class"
	ChunkModule   ChunkKind = "module"
	ChunkBlob     ChunkKind = "blob" // size-bounded fallback, no structural meaning
)

// Chunk is a bounded slice of one file's content, the unit of summarization
// work. Chunk spans within a file are non-overlapping and, concatenated in
// Index order, reconstruct the file exactly. The Overlap prefix is context
// carried from the previous chunk and is not part of the reconstruction.
type Chunk struct {
	// Identification
	FilePath string
	Index    int // 0-based, defines reassembly order

	// Span within the file
	StartByte int
	EndByte   int // exclusive
	StartLine int // 1-based
	EndLine   int

	// Content
	Text        string
	Overlap     string // trailing bytes of the previous chunk, marked context
	ContentHash [32]byte
	TokenCount  int

	// Structural metadata
	Kind      ChunkKind
	Symbol    string // declared name, when known
	Parent    string // enclosing symbol, when known
	Oversized bool   // exceeds the configured size and could not be split
	Continued bool   // tail of a force-split structural unit
}

// TokensPerChar is the chars-per-token heuristic used for budget estimates.
const TokensPerChar = 4

// PromptText is the text sent to a provider: the marked overlap window
// followed by the chunk's own content.
func (c *Chunk) PromptText() string {
	if c.Overlap == "" {
		return c.Text
	}
	return c.Overlap + c.Text
}

// ComputeTokenCount estimates tokens for the text a provider will see.
func (c *Chunk) ComputeTokenCount() int {
	c.TokenCount = (len(c.Text) + len(c.Overlap)) / TokensPerChar
	return c.TokenCount
}

// ComputeContentHash hashes the chunk's own content. The overlap is excluded
// so a cache hit does not depend on the neighboring chunk.
func (c *Chunk) ComputeContentHash() {
	c.ContentHash = sha256.Sum256([]byte(c.Text))
}

// Validate performs structural validation of the chunk.
func (c *Chunk) Validate() error {
	if c.FilePath == "" {
		return errors.New("chunk file path is required")
	}
	if c.Index < 0 {
		return errors.New("chunk index must be >= 0")
	}
	if c.StartByte < 0 || c.EndByte < c.StartByte {
		return errors.New("invalid chunk byte span")
	}
	if c.StartLine <= 0 || c.EndLine < c.StartLine {
		return errors.New("invalid chunk line span")
	}
	switch c.Kind {
	case ChunkFunction, ChunkClass, ChunkModule, ChunkBlob:
	default:
		return errors.New("invalid chunk kind")
	}
	return nil
}

// EstimateTokens estimates the number of model tokens in a string.
func EstimateTokens(text string) int {
	return len(text) / TokensPerChar
}
