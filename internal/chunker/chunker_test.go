package chunker

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codexsum/pkg/types"
)

// reconstruct concatenates chunk texts in index order; overlap is metadata
// and must not be included.
func reconstruct(chunks []*types.Chunk) string {
	var b strings.Builder
	for _, c := range chunks {
		b.WriteString(c.Text)
	}
	return b.String()
}

func TestChunkEmptyFile(t *testing.T) {
	c := New(Options{})
	file := types.NewSourceFile("empty.go", nil)
	chunks := c.Chunk(file)
	assert.Empty(t, chunks)
}

func TestGenericChunkingReconstructsContent(t *testing.T) {
	var lines []string
	for i := 0; i < 100; i++ {
		lines = append(lines, fmt.Sprintf("line %03d with some padding text", i))
	}
	content := strings.Join(lines, "\n") + "\n"

	c := New(Options{MaxChunkSize: 200})
	file := types.NewSourceFile("data.txt", []byte(content))
	chunks := c.Chunk(file)
	require.NotEmpty(t, chunks)

	assert.Equal(t, content, reconstruct(chunks))
	for i, ch := range chunks {
		assert.Equal(t, i, ch.Index)
		assert.Equal(t, types.ChunkBlob, ch.Kind)
		if !ch.Oversized {
			assert.LessOrEqual(t, len(ch.Text), 200, "chunk %d over threshold", i)
		}
	}

	// Spans are contiguous and cover the whole file.
	assert.Equal(t, 0, chunks[0].StartByte)
	for i := 1; i < len(chunks); i++ {
		assert.Equal(t, chunks[i-1].EndByte, chunks[i].StartByte)
	}
	assert.Equal(t, len(content), chunks[len(chunks)-1].EndByte)
}

func TestSplitAtNewlineBoundaries(t *testing.T) {
	content := "aaaa\nbbbb\ncccc\ndddd\n"
	c := New(Options{MaxChunkSize: 10})
	chunks := c.Chunk(types.NewSourceFile("x.txt", []byte(content)))
	require.Len(t, chunks, 2)
	assert.Equal(t, "aaaa\nbbbb\n", chunks[0].Text)
	assert.Equal(t, "cccc\ndddd\n", chunks[1].Text)
}

func TestOverlapWindow(t *testing.T) {
	content := strings.Repeat("abcdefghi\n", 20)
	c := New(Options{MaxChunkSize: 50, Overlap: 15})
	chunks := c.Chunk(types.NewSourceFile("x.txt", []byte(content)))
	require.Greater(t, len(chunks), 1)

	assert.Empty(t, chunks[0].Overlap)
	for i := 1; i < len(chunks); i++ {
		prev := chunks[i-1].Text
		want := prev[len(prev)-15:]
		assert.Equal(t, want, chunks[i].Overlap, "chunk %d", i)
		// Prompt text carries the overlap; reconstruction does not.
		assert.Equal(t, want+chunks[i].Text, chunks[i].PromptText())
	}
	assert.Equal(t, content, reconstruct(chunks))
}

func TestOversizedSingleLineNeverTruncated(t *testing.T) {
	long := strings.Repeat("x", 500)
	content := "short\n" + long + "\nshort again\n"
	c := New(Options{MaxChunkSize: 100})
	chunks := c.Chunk(types.NewSourceFile("x.txt", []byte(content)))

	var oversized *types.Chunk
	for _, ch := range chunks {
		if ch.Oversized {
			require.Nil(t, oversized, "only one oversized chunk expected")
			oversized = ch
		}
	}
	require.NotNil(t, oversized)
	assert.Contains(t, oversized.Text, long)
	assert.Equal(t, content, reconstruct(chunks))
}

func TestChunkingIsDeterministic(t *testing.T) {
	content := strings.Repeat("some code line\n", 300)
	c := New(Options{MaxChunkSize: 256, Overlap: 32})
	file := types.NewSourceFile("x.py", []byte(content))

	first := c.Chunk(file)
	second := c.Chunk(file)
	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, *first[i], *second[i], "chunk %d differs between runs", i)
	}
}

const goSource = `package sample

import "fmt"

// Greeter greets.
type Greeter struct {
	name string
}

// Greet says hello.
func (g *Greeter) Greet() string {
	return "hello " + g.name
}

func main() {
	fmt.Println(New("world").Greet())
}

func New(name string) *Greeter {
	return &Greeter{name: name}
}
`

func TestSemanticChunkingGo(t *testing.T) {
	c := New(Options{MaxChunkSize: 2000, Semantic: true})
	chunks := c.Chunk(types.NewSourceFile("sample.go", []byte(goSource)))
	require.NotEmpty(t, chunks)

	assert.Equal(t, goSource, reconstruct(chunks))

	symbols := map[string]types.ChunkKind{}
	for _, ch := range chunks {
		if ch.Symbol != "" {
			symbols[ch.Symbol] = ch.Kind
		}
	}
	assert.Equal(t, types.ChunkClass, symbols["Greeter"])
	assert.Equal(t, types.ChunkFunction, symbols["Greet"])
	assert.Equal(t, types.ChunkFunction, symbols["main"])
	assert.Equal(t, types.ChunkFunction, symbols["New"])

	// The package/import preamble lands in a module-level chunk.
	assert.Equal(t, types.ChunkModule, chunks[0].Kind)
}

func TestSemanticNeverBisectsSmallUnit(t *testing.T) {
	c := New(Options{MaxChunkSize: 2000, Semantic: true})
	chunks := c.Chunk(types.NewSourceFile("sample.go", []byte(goSource)))

	for _, ch := range chunks {
		if ch.Symbol == "Greet" {
			assert.Contains(t, ch.Text, "func (g *Greeter) Greet()")
			assert.Contains(t, ch.Text, `return "hello " + g.name`)
			assert.False(t, ch.Continued)
		}
	}
}

func TestForceSplitStructuralUnit(t *testing.T) {
	var body []string
	for i := 0; i < 50; i++ {
		body = append(body, fmt.Sprintf("    total += compute_step_%d(total)", i))
	}
	content := "def massive(total):\n" + strings.Join(body, "\n") + "\n"

	c := New(Options{MaxChunkSize: 300, Semantic: true})
	chunks := c.Chunk(types.NewSourceFile("big.py", []byte(content)))
	require.Greater(t, len(chunks), 1)

	head := chunks[0]
	assert.Equal(t, types.ChunkFunction, head.Kind)
	assert.Equal(t, "massive", head.Symbol)
	assert.False(t, head.Continued)

	for _, tail := range chunks[1:] {
		assert.Equal(t, types.ChunkBlob, tail.Kind)
		assert.True(t, tail.Continued)
		assert.Equal(t, "massive", tail.Parent)
	}
	assert.Equal(t, content, reconstruct(chunks))
}

func TestSemanticFallsBackForUnknownLanguage(t *testing.T) {
	content := "just some text\nacross two lines\n"
	c := New(Options{MaxChunkSize: 2000, Semantic: true})
	chunks := c.Chunk(types.NewSourceFile("notes.txt", []byte(content)))
	require.Len(t, chunks, 1)
	assert.Equal(t, types.ChunkBlob, chunks[0].Kind)
}

func TestFileWithoutTrailingNewline(t *testing.T) {
	content := "line one\nline two without newline"
	c := New(Options{MaxChunkSize: 12})
	chunks := c.Chunk(types.NewSourceFile("x.txt", []byte(content)))
	require.Len(t, chunks, 2)
	assert.Equal(t, content, reconstruct(chunks))
}
