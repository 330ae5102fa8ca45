package aggregate

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"codexsum/pkg/types"
)

// Format selects the final document rendering.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
	FormatText     Format = "text"
)

// ParseFormat validates a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatMarkdown, "":
		return FormatMarkdown, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatText:
		return FormatText, nil
	}
	return "", fmt.Errorf("unknown output format %q (markdown, json, text)", s)
}

// Render produces the final document in the requested format.
func Render(ps *types.ProjectSummary, format Format) (string, error) {
	switch format {
	case FormatJSON:
		return RenderJSON(ps)
	case FormatText:
		return RenderText(ps), nil
	default:
		return RenderMarkdown(ps), nil
	}
}

// FileText joins a file's chunk summaries back in sequence order. Failed
// chunks surface as explicit inline markers rather than silent gaps, so the
// document is honest about what was not summarized.
func FileText(fs *types.FileSummary) string {
	if fs.Empty {
		return "(empty file)"
	}
	var b strings.Builder
	for _, res := range fs.Chunks {
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		switch {
		case res == nil:
			b.WriteString("[missing result]")
		case res.OK():
			b.WriteString(strings.TrimSpace(res.Summary))
		default:
			b.WriteString(failureMarker(res))
		}
	}
	return b.String()
}

func failureMarker(res *types.ChunkResult) string {
	if res.ErrKind == types.ErrKindCancelled {
		return fmt.Sprintf("[chunk %d not summarized: run cancelled]", res.Index)
	}
	msg := lastAttemptError(res)
	if msg == "" {
		return fmt.Sprintf("[chunk %d summarization failed: %s]", res.Index, res.ErrKind)
	}
	return fmt.Sprintf("[chunk %d summarization failed: %s: %s]", res.Index, res.ErrKind, msg)
}

func lastAttemptError(res *types.ChunkResult) string {
	for i := len(res.Attempts) - 1; i >= 0; i-- {
		a := res.Attempts[i]
		if a.ErrKind != types.ErrKindSkipped && a.Err != "" {
			return fmt.Sprintf("%s: %s", a.Provider, a.Err)
		}
	}
	return ""
}

// RenderMarkdown produces the primary human-facing document.
func RenderMarkdown(ps *types.ProjectSummary) string {
	var b strings.Builder
	b.WriteString("# Codebase Summary\n\n")
	fmt.Fprintf(&b, "**Generated:** %s\n", ps.Generated.Format(time.RFC3339))
	if ps.Root != "" {
		fmt.Fprintf(&b, "**Codebase:** %s\n", ps.Root)
	}
	if ps.RunID != "" {
		fmt.Fprintf(&b, "**Run:** %s\n", ps.RunID)
	}
	fmt.Fprintf(&b, "**Files processed:** %d\n", ps.Metrics.FilesProcessed)
	if len(ps.Incomplete) > 0 {
		fmt.Fprintf(&b, "**Incomplete:** %d file(s) were cut short by cancellation\n", len(ps.Incomplete))
	}
	b.WriteString("\n")

	if ps.Overview != "" {
		b.WriteString("## Overview\n\n")
		b.WriteString(strings.TrimSpace(ps.Overview))
		b.WriteString("\n\n")
	}

	b.WriteString("## Files\n\n")
	for _, path := range ps.Order {
		fs := ps.Files[path]
		if fs.Language != types.LangUnknown {
			fmt.Fprintf(&b, "### %s (%s)\n\n", path, fs.Language)
		} else {
			fmt.Fprintf(&b, "### %s\n\n", path)
		}
		b.WriteString(FileText(fs))
		b.WriteString("\n\n")
	}

	b.WriteString("## Statistics\n\n")
	b.WriteString("| Metric | Value |\n|--------|-------|\n")
	fmt.Fprintf(&b, "| Files processed | %d |\n", ps.Metrics.FilesProcessed)
	fmt.Fprintf(&b, "| Chunks total | %d |\n", ps.Metrics.ChunksTotal)
	fmt.Fprintf(&b, "| Chunks failed | %d |\n", ps.Metrics.ChunksFailed)
	fmt.Fprintf(&b, "| Cache hits | %d |\n", ps.Metrics.CacheHits)
	fmt.Fprintf(&b, "| Fallbacks used | %d |\n", ps.Metrics.FallbacksUsed)
	fmt.Fprintf(&b, "| Tokens used | %d |\n", ps.Metrics.TokensUsed)
	fmt.Fprintf(&b, "| Estimated cost | $%.4f |\n", ps.Metrics.EstimatedCost)
	if ps.Metrics.WallTime > 0 {
		fmt.Fprintf(&b, "| Wall time | %s |\n", ps.Metrics.WallTime.Round(time.Millisecond))
	}
	b.WriteString("\n")

	if len(ps.ByProvider) > 0 {
		b.WriteString("### Provider Breakdown\n\n")
		b.WriteString("| Provider | Requests | Tokens | Errors |\n|----------|----------|--------|--------|\n")
		for _, name := range sortedProviders(ps.ByProvider) {
			st := ps.ByProvider[name]
			fmt.Fprintf(&b, "| %s | %d | %d | %d |\n", name, st.Requests, st.Tokens, st.Errors)
		}
		b.WriteString("\n")
	}

	if failures := collectFailures(ps); len(failures) > 0 {
		b.WriteString("## Errors\n\n")
		for _, f := range failures {
			fmt.Fprintf(&b, "- %s\n", f)
		}
		b.WriteString("\n")
	}

	return b.String()
}

// RenderText is the plain variant for terminals and piping.
func RenderText(ps *types.ProjectSummary) string {
	var b strings.Builder
	b.WriteString("CODEBASE SUMMARY\n")
	fmt.Fprintf(&b, "Generated: %s\n", ps.Generated.Format(time.RFC3339))
	if ps.Root != "" {
		fmt.Fprintf(&b, "Codebase: %s\n", ps.Root)
	}
	fmt.Fprintf(&b, "Files: %d  Chunks: %d  Failed: %d  Tokens: %d  Cost: $%.4f\n\n",
		ps.Metrics.FilesProcessed, ps.Metrics.ChunksTotal, ps.Metrics.ChunksFailed,
		ps.Metrics.TokensUsed, ps.Metrics.EstimatedCost)

	if ps.Overview != "" {
		b.WriteString("OVERVIEW\n")
		b.WriteString(strings.TrimSpace(ps.Overview))
		b.WriteString("\n\n")
	}

	for _, path := range ps.Order {
		fs := ps.Files[path]
		fmt.Fprintf(&b, "=== %s ===\n", path)
		b.WriteString(FileText(fs))
		b.WriteString("\n\n")
	}
	return b.String()
}

// jsonDocument is the machine-readable shape. Files appear as an ordered
// array so consumers do not have to re-derive discovery order from a map.
type jsonDocument struct {
	RunID      string                         `json:"run_id,omitempty"`
	Generated  time.Time                      `json:"generated"`
	Root       string                         `json:"root,omitempty"`
	Overview   string                         `json:"overview,omitempty"`
	Files      []jsonFile                     `json:"files"`
	Metrics    types.Metrics                  `json:"metrics"`
	ByProvider map[string]types.ProviderStats `json:"by_provider,omitempty"`
	Incomplete []string                       `json:"incomplete,omitempty"`
}

type jsonFile struct {
	Path     string      `json:"path"`
	Language string      `json:"language"`
	Empty    bool        `json:"empty,omitempty"`
	Chunks   []jsonChunk `json:"chunks,omitempty"`
}

type jsonChunk struct {
	Index    int     `json:"index"`
	Summary  string  `json:"summary,omitempty"`
	Provider string  `json:"provider,omitempty"`
	Model    string  `json:"model,omitempty"`
	Tokens   int     `json:"tokens,omitempty"`
	Cost     float64 `json:"cost,omitempty"`
	Error    string  `json:"error,omitempty"`
}

// RenderJSON produces the machine-readable document.
func RenderJSON(ps *types.ProjectSummary) (string, error) {
	doc := jsonDocument{
		RunID:      ps.RunID,
		Generated:  ps.Generated,
		Root:       ps.Root,
		Overview:   ps.Overview,
		Files:      make([]jsonFile, 0, len(ps.Order)),
		Metrics:    ps.Metrics,
		ByProvider: ps.ByProvider,
		Incomplete: ps.Incomplete,
	}
	for _, path := range ps.Order {
		fs := ps.Files[path]
		jf := jsonFile{Path: path, Language: string(fs.Language), Empty: fs.Empty}
		for _, res := range fs.Chunks {
			if res == nil {
				continue
			}
			jc := jsonChunk{Index: res.Index}
			if res.OK() {
				jc.Summary = res.Summary
				jc.Provider = res.Provider
				jc.Model = res.Model
				jc.Tokens = res.TokensUsed
				jc.Cost = res.Cost
			} else {
				jc.Error = string(res.ErrKind)
			}
			jf.Chunks = append(jf.Chunks, jc)
		}
		doc.Files = append(doc.Files, jf)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding summary: %w", err)
	}
	return string(data), nil
}

func sortedProviders(m map[string]types.ProviderStats) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func collectFailures(ps *types.ProjectSummary) []string {
	var out []string
	for _, path := range ps.Order {
		for _, res := range ps.Files[path].Chunks {
			if res == nil || res.OK() || res.ErrKind == types.ErrKindCancelled {
				continue
			}
			line := fmt.Sprintf("%s chunk %d: %s", path, res.Index, res.ErrKind)
			if msg := lastAttemptError(res); msg != "" {
				line += ": " + msg
			}
			out = append(out, line)
		}
	}
	return out
}
