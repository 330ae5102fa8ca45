package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"codexsum/pkg/types"
)

func TestChunkPromptMarksOverlap(t *testing.T) {
	chunk := &types.Chunk{
		FilePath:  "pkg/x.go",
		Index:     1,
		StartLine: 10,
		EndLine:   20,
		Kind:      types.ChunkFunction,
		Symbol:    "Process",
		Overlap:   "previous tail",
		Text:      "func Process() {}\n",
	}
	req := ChunkPrompt(chunk)

	assert.NotEmpty(t, req.System)
	assert.Contains(t, req.User, "pkg/x.go")
	assert.Contains(t, req.User, "Symbol: Process")
	assert.Contains(t, req.User, "already summarized, do not re-describe")
	assert.Contains(t, req.User, "previous tail")
	assert.Contains(t, req.User, "func Process() {}")
}

func TestChunkPromptContinuation(t *testing.T) {
	chunk := &types.Chunk{
		FilePath:  "pkg/x.go",
		Kind:      types.ChunkBlob,
		Parent:    "Process",
		Continued: true,
		Text:      "more body\n",
	}
	req := ChunkPrompt(chunk)
	assert.Contains(t, req.User, "continuation of a unit split across chunks")
	assert.Contains(t, req.User, "Parent: Process")
}

func TestChunkPromptWithoutOverlap(t *testing.T) {
	chunk := &types.Chunk{FilePath: "a.py", Kind: types.ChunkModule, Text: "import os\n"}
	req := ChunkPrompt(chunk)
	assert.NotContains(t, req.User, "Context from previous chunk")
}

func TestOverviewPrompt(t *testing.T) {
	req := OverviewPrompt([]string{"summary one", "summary two"})
	assert.Contains(t, req.User, "summary one")
	assert.Contains(t, req.User, "summary two")
	assert.NotEmpty(t, req.System)
}
