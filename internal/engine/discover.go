package engine

import (
	"os"
	"path/filepath"
	"strings"

	"codexsum/internal/config"
	"codexsum/pkg/types"
)

// skipDirs are never descended into regardless of patterns.
var skipDirs = map[string]bool{
	"vendor":       true,
	"node_modules": true,
	"target":       true,
	"__pycache__":  true,
}

// discover walks root and returns the files to summarize, in walk order.
// With no include patterns, any file with a recognized language qualifies;
// include patterns replace that default. Exclude patterns and the max file
// size filter always apply. Patterns match the base name or the
// slash-separated path relative to root.
func discover(root string, cfg *config.Config) ([]string, error) {
	var files []string

	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			name := info.Name()
			if path != root && (strings.HasPrefix(name, ".") || skipDirs[name]) {
				return filepath.SkipDir
			}
			return nil
		}

		if strings.HasPrefix(info.Name(), ".") {
			return nil
		}
		rel := relPath(root, path)
		if matchesAny(cfg.ExcludePatterns, rel, info.Name()) {
			return nil
		}
		if len(cfg.IncludePatterns) > 0 {
			if !matchesAny(cfg.IncludePatterns, rel, info.Name()) {
				return nil
			}
		} else if types.DetectLanguage(path) == types.LangUnknown {
			return nil
		}
		if info.Size() > cfg.MaxFileSize {
			return nil
		}

		files = append(files, path)
		return nil
	})

	return files, err
}

func matchesAny(patterns []string, rel, base string) bool {
	for _, p := range patterns {
		if ok, _ := filepath.Match(p, base); ok {
			return true
		}
		if ok, _ := filepath.Match(p, rel); ok {
			return true
		}
	}
	return false
}
