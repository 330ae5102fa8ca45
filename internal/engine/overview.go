package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"codexsum/internal/aggregate"
	"codexsum/internal/provider"
	"codexsum/pkg/types"
)

// maxOverviewChars bounds the combined summary text sent in one overview
// call. Larger inputs are reduced hierarchically: groups under the budget
// are summarized first, then the group summaries are merged.
const maxOverviewChars = 24000

// maxReduceDepth stops pathological recursion when group summaries refuse
// to shrink.
const maxReduceDepth = 3

// overviewSpend totals the tokens and cost of the overview calls so they
// land in the run metrics alongside the chunk spend.
type overviewSpend struct {
	tokens int64
	cost   float64
}

func (s *overviewSpend) add(res *types.ChunkResult) {
	s.tokens += int64(res.TokensUsed)
	s.cost += res.Cost
}

// overview produces the project-level synthesis of all file summaries. If
// the chain cannot produce one, a plain concatenation grouped by language
// stands in so the document is never missing its top section. The returned
// spend covers every provider call the overview issued, including the
// intermediate reduction calls.
func (e *Engine) overview(ctx context.Context, ps *types.ProjectSummary) (string, overviewSpend) {
	var spend overviewSpend
	sections := make([]string, 0, len(ps.Order))
	for _, path := range ps.Order {
		fs := ps.Files[path]
		if fs.Empty {
			continue
		}
		sections = append(sections, fmt.Sprintf("## %s\n%s", path, aggregate.FileText(fs)))
	}
	if len(sections) == 0 {
		return "", spend
	}

	if text, ok := e.reduce(ctx, sections, 0, &spend); ok {
		return text, spend
	}
	e.log.Warn("overview generation failed, using grouped concatenation")
	return fallbackOverview(ps), spend
}

// reduce merges sections into one overview, recursing through intermediate
// group summaries when the combined text exceeds the budget.
func (e *Engine) reduce(ctx context.Context, sections []string, depth int, spend *overviewSpend) (string, bool) {
	total := 0
	for _, s := range sections {
		total += len(s)
	}
	if total <= maxOverviewChars || len(sections) == 1 || depth >= maxReduceDepth {
		res := e.orch.ExecuteRequest(ctx, provider.OverviewPrompt(sections))
		spend.add(res)
		if !res.OK() {
			return "", false
		}
		return res.Summary, true
	}

	e.log.Debug("overview input over budget, reducing hierarchically",
		zap.Int("chars", total), zap.Int("sections", len(sections)), zap.Int("depth", depth))

	var merged []string
	group := make([]string, 0, 8)
	groupSize := 0
	flush := func() bool {
		if len(group) == 0 {
			return true
		}
		res := e.orch.ExecuteRequest(ctx, provider.OverviewPrompt(group))
		spend.add(res)
		if !res.OK() {
			return false
		}
		merged = append(merged, res.Summary)
		group = group[:0]
		groupSize = 0
		return true
	}

	for _, s := range sections {
		if groupSize > 0 && groupSize+len(s) > maxOverviewChars {
			if !flush() {
				return "", false
			}
		}
		group = append(group, s)
		groupSize += len(s)
	}
	if !flush() {
		return "", false
	}
	return e.reduce(ctx, merged, depth+1, spend)
}

// fallbackOverview lists the summarized files grouped by language, with no
// provider involvement.
func fallbackOverview(ps *types.ProjectSummary) string {
	byLang := make(map[types.Language][]string)
	for _, path := range ps.Order {
		fs := ps.Files[path]
		if fs.Empty {
			continue
		}
		byLang[fs.Language] = append(byLang[fs.Language], path)
	}

	langs := make([]string, 0, len(byLang))
	for lang := range byLang {
		langs = append(langs, string(lang))
	}
	sort.Strings(langs)

	var b strings.Builder
	b.WriteString("Project contents by language:\n")
	for _, lang := range langs {
		fmt.Fprintf(&b, "\n%s:\n", lang)
		for _, path := range byLang[types.Language(lang)] {
			fmt.Fprintf(&b, "  - %s\n", path)
		}
	}
	return b.String()
}
