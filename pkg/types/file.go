package types

import (
	"path/filepath"
	"strings"
)

// Language is the detected source language of a file.
type Language string

const (
	LangGo         Language = "go"
	LangPython     Language = "python"
	LangRust       Language = "rust"
	LangJavaScript Language = "javascript"
	LangTypeScript Language = "typescript"
	LangUnknown    Language = "unknown"
)

// extLanguages maps file extensions to languages. Unlisted extensions fall
// back to LangUnknown and generic chunking.
var extLanguages = map[string]Language{
	".go":  LangGo,
	".py":  LangPython,
	".pyw": LangPython,
	".rs":  LangRust,
	".js":  LangJavaScript,
	".jsx": LangJavaScript,
	".mjs": LangJavaScript,
	".cjs": LangJavaScript,
	".ts":  LangTypeScript,
	".tsx": LangTypeScript,
}

// DetectLanguage maps a file path to its language by extension.
func DetectLanguage(path string) Language {
	ext := strings.ToLower(filepath.Ext(path))
	if lang, ok := extLanguages[ext]; ok {
		return lang
	}
	return LangUnknown
}

// SourceFile is one file of the input tree. Immutable once read; the
// chunker and everything downstream treat Content as read-only.
type SourceFile struct {
	Path     string
	Content  []byte
	Language Language
	Size     int64
}

// NewSourceFile builds a SourceFile with language detected from the path.
func NewSourceFile(path string, content []byte) *SourceFile {
	return &SourceFile{
		Path:     path,
		Content:  content,
		Language: DetectLanguage(path),
		Size:     int64(len(content)),
	}
}

// IsEmpty reports whether the file has no content at all.
func (f *SourceFile) IsEmpty() bool {
	return len(f.Content) == 0
}
