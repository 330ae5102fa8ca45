package language

import (
	"regexp"
	"strings"

	"codexsum/pkg/types"
)

// rule matches the opening line of one kind of structural unit. The first
// capture group, when present, is the declared name.
type rule struct {
	kind types.ChunkKind
	re   *regexp.Regexp
}

// blockEndFunc finds the last line (1-based, inclusive) of the unit opening
// at startLine.
type blockEndFunc func(lines []string, startLine int) int

var pythonRules = []rule{
	{types.ChunkFunction, regexp.MustCompile(`^(?:async\s+)?def\s+(\w+)`)},
	{types.ChunkClass, regexp.MustCompile(`^class\s+(\w+)`)},
}

var rustRules = []rule{
	{types.ChunkFunction, regexp.MustCompile(`^(?:pub(?:\([^)]*\))?\s+)?(?:async\s+)?(?:unsafe\s+)?fn\s+(\w+)`)},
	{types.ChunkClass, regexp.MustCompile(`^(?:pub(?:\([^)]*\))?\s+)?(?:struct|enum|trait)\s+(\w+)`)},
	{types.ChunkClass, regexp.MustCompile(`^impl\b[^{]*?(\w+)\s*(?:<[^>]*>)?\s*\{`)},
	{types.ChunkModule, regexp.MustCompile(`^(?:pub\s+)?mod\s+(\w+)\s*\{`)},
}

var javascriptRules = []rule{
	{types.ChunkFunction, regexp.MustCompile(`^(?:export\s+)?(?:default\s+)?(?:async\s+)?function\s*\*?\s*(\w+)`)},
	{types.ChunkClass, regexp.MustCompile(`^(?:export\s+)?(?:default\s+)?(?:abstract\s+)?class\s+(\w+)`)},
	{types.ChunkFunction, regexp.MustCompile(`^(?:export\s+)?const\s+(\w+)\s*=\s*(?:async\s*)?\(`)},
}

// patternDetector recognizes boundaries with per-language line patterns and
// a block-end heuristic (indentation for Python, brace depth for the rest).
type patternDetector struct {
	lang     types.Language
	rules    []rule
	blockEnd blockEndFunc
}

func newPatternDetector(lang types.Language, rules []rule, end blockEndFunc) *patternDetector {
	return &patternDetector{lang: lang, rules: rules, blockEnd: end}
}

func (d *patternDetector) Language() types.Language { return d.lang }

func (d *patternDetector) DetectBoundaries(content []byte) []Boundary {
	lines := strings.Split(string(content), "\n")
	var bounds []Boundary
	for i, line := range lines {
		for _, r := range d.rules {
			m := r.re.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			symbol := ""
			if len(m) > 1 {
				symbol = m[1]
			}
			start := i + 1
			end := d.blockEnd(lines, start)
			bounds = append(bounds, Boundary{
				StartLine: start,
				EndLine:   end,
				Kind:      r.kind,
				Symbol:    symbol,
			})
			break
		}
	}
	return normalize(bounds)
}

// blockByIndent ends the block at the last line indented deeper than the
// opening line. Blank lines inside the block do not terminate it.
func blockByIndent(lines []string, startLine int) int {
	idx := startLine - 1
	if idx >= len(lines) {
		return startLine
	}
	base := indentOf(lines[idx])
	end := startLine
	for i := idx + 1; i < len(lines); i++ {
		line := lines[i]
		if strings.TrimSpace(line) == "" {
			continue
		}
		if indentOf(line) <= base {
			break
		}
		end = i + 1
	}
	return end
}

func indentOf(line string) int {
	return len(line) - len(strings.TrimLeft(line, " \t"))
}

// blockByBraces ends the block when the brace depth opened on or after the
// starting line returns to zero. Declarations without an opening brace span
// a single line.
func blockByBraces(lines []string, startLine int) int {
	depth := 0
	opened := false
	for i := startLine - 1; i < len(lines); i++ {
		depth += strings.Count(lines[i], "{") - strings.Count(lines[i], "}")
		if strings.Contains(lines[i], "{") {
			opened = true
		}
		if opened && depth <= 0 {
			return i + 1
		}
		if !opened && i > startLine { // no block ever opened
			return startLine
		}
	}
	return len(lines)
}
