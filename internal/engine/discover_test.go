package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codexsum/internal/config"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func relNames(t *testing.T, root string, paths []string) []string {
	t.Helper()
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		out = append(out, relPath(root, p))
	}
	return out
}

func testTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, root, "main.go", "package main\n")
	writeFile(t, root, "util.py", "x = 1\n")
	writeFile(t, root, "README.md", "# readme\n")
	writeFile(t, root, "main_test.go", "package main\n")
	writeFile(t, root, ".env.py", "SECRET=1\n")
	writeFile(t, root, "sub/handler.js", "const x = 1;\n")
	writeFile(t, root, ".git/config.py", "noop\n")
	writeFile(t, root, "vendor/dep.go", "package dep\n")
	writeFile(t, root, "node_modules/mod.js", "x\n")
	return root
}

func TestDiscoverDefaultsToKnownLanguages(t *testing.T) {
	root := testTree(t)
	got, err := discover(root, config.Default())
	require.NoError(t, err)

	assert.ElementsMatch(t,
		[]string{"main.go", "main_test.go", "sub/handler.js", "util.py"},
		relNames(t, root, got))
}

func TestDiscoverIncludePatterns(t *testing.T) {
	root := testTree(t)
	cfg := config.Default()
	cfg.IncludePatterns = []string{"*.py"}

	got, err := discover(root, cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"util.py"}, relNames(t, root, got))
}

func TestDiscoverExcludePatterns(t *testing.T) {
	root := testTree(t)
	cfg := config.Default()
	cfg.ExcludePatterns = []string{"*_test.go", "sub/*"}

	got, err := discover(root, cfg)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"main.go", "util.py"}, relNames(t, root, got))
}

func TestDiscoverMaxFileSize(t *testing.T) {
	root := testTree(t)
	cfg := config.Default()
	cfg.MaxFileSize = 5

	got, err := discover(root, cfg)
	require.NoError(t, err)
	assert.Empty(t, got, "everything in the tree is bigger than 5 bytes")
}

func TestDiscoverSkipsHiddenAndVendorTrees(t *testing.T) {
	root := testTree(t)
	cfg := config.Default()
	cfg.IncludePatterns = []string{"*"}

	got, err := discover(root, cfg)
	require.NoError(t, err)
	names := relNames(t, root, got)
	assert.NotContains(t, names, ".git/config.py")
	assert.NotContains(t, names, "vendor/dep.go")
	assert.NotContains(t, names, "node_modules/mod.js")
	assert.NotContains(t, names, ".env.py")
	assert.Contains(t, names, "README.md", "include * overrides the language default")
}

func TestRelPath(t *testing.T) {
	assert.Equal(t, "sub/file.go", relPath("/a/b", filepath.Join("/a/b", "sub", "file.go")))
}
