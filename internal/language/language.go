package language

import (
	"sort"

	"codexsum/pkg/types"
)

// Boundary is one structural unit recognized in a file: a span of whole
// lines, tagged with the unit's kind and declared name.
type Boundary struct {
	StartLine int // 1-based, inclusive
	EndLine   int // inclusive
	Kind      types.ChunkKind
	Symbol    string
	Parent    string // enclosing symbol, e.g. a method's receiver type
}

// Detector recognizes structural boundaries for one language. Detection is
// deterministic: identical content always yields identical boundaries.
// A nil or empty result means the caller should chunk generically.
type Detector interface {
	Language() types.Language
	DetectBoundaries(content []byte) []Boundary
}

// detectors is the closed set of supported languages. Selection is a single
// map lookup resolved once per file.
var detectors = map[types.Language]Detector{
	types.LangGo:         &goDetector{},
	types.LangPython:     newPatternDetector(types.LangPython, pythonRules, blockByIndent),
	types.LangRust:       newPatternDetector(types.LangRust, rustRules, blockByBraces),
	types.LangJavaScript: newPatternDetector(types.LangJavaScript, javascriptRules, blockByBraces),
	types.LangTypeScript: newPatternDetector(types.LangTypeScript, javascriptRules, blockByBraces),
}

// ForLanguage returns the detector for a language tag, or false when the
// language is outside the supported set.
func ForLanguage(lang types.Language) (Detector, bool) {
	d, ok := detectors[lang]
	return d, ok
}

// Supported lists the languages with semantic chunking support.
func Supported() []types.Language {
	langs := make([]types.Language, 0, len(detectors))
	for l := range detectors {
		langs = append(langs, l)
	}
	sort.Slice(langs, func(i, j int) bool { return langs[i] < langs[j] })
	return langs
}

// normalize sorts boundaries by start line and drops units nested inside an
// earlier one, so the result is an ordered, non-overlapping sequence the
// chunker can partition around.
func normalize(bounds []Boundary) []Boundary {
	if len(bounds) == 0 {
		return nil
	}
	sort.SliceStable(bounds, func(i, j int) bool {
		if bounds[i].StartLine != bounds[j].StartLine {
			return bounds[i].StartLine < bounds[j].StartLine
		}
		// Wider unit first so the nested one is the duplicate.
		return bounds[i].EndLine > bounds[j].EndLine
	})
	out := bounds[:0]
	lastEnd := 0
	for _, b := range bounds {
		if b.StartLine <= lastEnd {
			continue
		}
		if b.EndLine < b.StartLine {
			continue
		}
		out = append(out, b)
		lastEnd = b.EndLine
	}
	return out
}
