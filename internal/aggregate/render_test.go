package aggregate

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codexsum/pkg/types"
)

func sampleSummary(t *testing.T) *types.ProjectSummary {
	t.Helper()
	a := New()
	a.RegisterFile("main.go", types.LangGo, 1)
	a.RegisterFile("util.py", types.LangPython, 2)
	a.Record(okResult("main.go", 0, "entry point wiring"))
	a.Record(okResult("util.py", 0, "path helpers"))
	a.Record(failedResult("util.py", 1, types.ErrKindTransient))

	ps, err := a.Finalize()
	require.NoError(t, err)
	ps.RunID = "run-123"
	ps.Root = "/src/project"
	ps.Overview = "A small sample project."
	ps.Generated = time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	ps.ByProvider = map[string]types.ProviderStats{
		"openai": {Requests: 3, Tokens: 200, Errors: 1},
	}
	return ps
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"markdown", FormatMarkdown, false},
		{"", FormatMarkdown, false},
		{"JSON", FormatJSON, false},
		{" text ", FormatText, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if tt.wantErr {
			assert.Error(t, err, "input %q", tt.in)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestRenderMarkdown(t *testing.T) {
	doc := RenderMarkdown(sampleSummary(t))

	assert.Contains(t, doc, "# Codebase Summary")
	assert.Contains(t, doc, "**Codebase:** /src/project")
	assert.Contains(t, doc, "## Overview\n\nA small sample project.")
	assert.Contains(t, doc, "### main.go (go)")
	assert.Contains(t, doc, "entry point wiring")
	assert.Contains(t, doc, "### util.py (python)")
	assert.Contains(t, doc, "[chunk 1 summarization failed: transient")
	assert.Contains(t, doc, "| Chunks failed | 1 |")
	assert.Contains(t, doc, "| openai | 3 | 200 | 1 |")
	assert.Contains(t, doc, "## Errors")
	assert.Contains(t, doc, "util.py chunk 1: transient")
}

func TestRenderJSON(t *testing.T) {
	out, err := RenderJSON(sampleSummary(t))
	require.NoError(t, err)

	var doc struct {
		RunID string `json:"run_id"`
		Files []struct {
			Path   string `json:"path"`
			Chunks []struct {
				Index   int    `json:"index"`
				Summary string `json:"summary"`
				Error   string `json:"error"`
			} `json:"chunks"`
		} `json:"files"`
		Metrics types.Metrics `json:"metrics"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))

	assert.Equal(t, "run-123", doc.RunID)
	require.Len(t, doc.Files, 2)
	assert.Equal(t, "main.go", doc.Files[0].Path, "discovery order preserved")
	require.Len(t, doc.Files[1].Chunks, 2)
	assert.Equal(t, "transient", doc.Files[1].Chunks[1].Error)
	assert.Equal(t, 1, doc.Metrics.ChunksFailed)
}

func TestRenderText(t *testing.T) {
	doc := RenderText(sampleSummary(t))
	assert.Contains(t, doc, "CODEBASE SUMMARY")
	assert.Contains(t, doc, "=== main.go ===")
	assert.Contains(t, doc, "entry point wiring")
	assert.Contains(t, doc, "Failed: 1")
}
