package provider

import (
	"fmt"
	"strings"

	"codexsum/pkg/types"
)

// Prompt templates for the three summarization tasks. Kept as package
// constants so a chunk's prompt is a pure function of its content.
const (
	chunkSystemPrompt = `You are analyzing a code chunk. Provide a brief summary focusing on:
- What this code does
- Key functions/methods and their purpose
- Important data structures
- Any notable patterns or algorithms
Keep it concise (under 150 tokens).`

	fileSystemPrompt = `You are a senior software engineer analyzing code. Provide a concise,
technical summary of the given code file. Focus on:
- Primary purpose and functionality
- Key data structures and their roles
- Public API/interface (functions, methods, exports)
- Important algorithms or business logic
- Dependencies and integrations
Be precise and use technical terminology. Limit response to 300 tokens maximum.`

	overviewSystemPrompt = `Combine and synthesize the following file summaries into a cohesive
project overview. Organize by:
- Project structure and architecture
- Key modules and their responsibilities
- Main functionality and features
- Technology stack and dependencies
Create a professional summary suitable for technical documentation.`
)

// ChunkPrompt renders the request for one chunk. The overlap window, when
// present, is explicitly marked so the model knows it repeats earlier
// context rather than new content.
func ChunkPrompt(chunk *types.Chunk) Request {
	var b strings.Builder
	fmt.Fprintf(&b, "File: %s (lines %d-%d)\n", chunk.FilePath, chunk.StartLine, chunk.EndLine)
	fmt.Fprintf(&b, "Chunk kind: %s\n", chunk.Kind)
	if chunk.Symbol != "" {
		fmt.Fprintf(&b, "Symbol: %s\n", chunk.Symbol)
	}
	if chunk.Parent != "" {
		fmt.Fprintf(&b, "Parent: %s\n", chunk.Parent)
	}
	if chunk.Continued {
		b.WriteString("Note: continuation of a unit split across chunks.\n")
	}
	if chunk.Overlap != "" {
		b.WriteString("Context from previous chunk (already summarized, do not re-describe):\n")
		b.WriteString(chunk.Overlap)
		b.WriteString("\n--- chunk content ---\n")
	}
	b.WriteString("Content:\n")
	b.WriteString(chunk.Text)
	return Request{System: chunkSystemPrompt, User: b.String()}
}

// FilePrompt renders the request for a whole small file summarized in one
// call.
func FilePrompt(path string, lang types.Language, content string) Request {
	var b strings.Builder
	fmt.Fprintf(&b, "File: %s\nLanguage: %s\nContent:\n%s", path, lang, content)
	return Request{System: fileSystemPrompt, User: b.String()}
}

// OverviewPrompt renders the request that merges file summaries into the
// project overview.
func OverviewPrompt(summaries []string) Request {
	return Request{
		System: overviewSystemPrompt,
		User:   "File summaries:\n" + strings.Join(summaries, "\n\n"),
	}
}
