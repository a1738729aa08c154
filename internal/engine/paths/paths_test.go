package paths

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"markprep/internal/core/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIncludePaths(t *testing.T) {
	r := New("/work", "")

	t.Run("empty filename skips file directory", func(t *testing.T) {
		assert.Equal(t, []string{"/work", "/work/node_modules"}, r.IncludePaths(""))
	})

	t.Run("file directory is second", func(t *testing.T) {
		got := r.IncludePaths("/a/b/c.js")
		require.Len(t, got, 3)
		assert.Equal(t, "/work", got[0])
		assert.Equal(t, "/a/b", got[1])
		assert.Equal(t, "/work/node_modules", got[2])
	})

	t.Run("relative filename", func(t *testing.T) {
		assert.Equal(t, []string{"/work", "src", "/work/node_modules"}, r.IncludePaths("src/App.svelte"))
	})

	t.Run("pure", func(t *testing.T) {
		assert.Equal(t, r.IncludePaths("/x/y.css"), r.IncludePaths("/x/y.css"))
	})
}

func TestNewModulesDir(t *testing.T) {
	assert.Equal(t, "/work/vendor", New("/work", "vendor").ModulesDir())
	assert.Equal(t, "/opt/mods", New("/work", "/opt/mods").ModulesDir())
	assert.Equal(t, "", New("", "").ModulesDir())
	assert.Empty(t, New("", "").IncludePaths(""))
}

func TestFromWorkingDir(t *testing.T) {
	cwd, err := os.Getwd()
	require.NoError(t, err)

	r, err := FromWorkingDir("")
	require.NoError(t, err)
	assert.Equal(t, cwd, r.WorkingDir())
	assert.Equal(t, filepath.Join(cwd, DefaultModulesDir), r.ModulesDir())
}

func TestResolveSrc(t *testing.T) {
	assert.Equal(t, "/a/b/style.scss", ResolveSrc("/a/b/App.svelte", "./style.scss"))
	assert.Equal(t, "/a/shared.css", ResolveSrc("/a/b/App.svelte", "../shared.css"))
	assert.Equal(t, "/abs/x.css", ResolveSrc("/a/b/App.svelte", "/abs/x.css"))
}

func TestFind(t *testing.T) {
	root := t.TempDir()
	modules := filepath.Join(root, "node_modules", "theme")
	require.NoError(t, os.MkdirAll(modules, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(modules, "vars.css"), []byte(":root{}"), 0o644))

	srcDir := filepath.Join(root, "src")
	require.NoError(t, os.MkdirAll(srcDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "local.css"), []byte("a{}"), 0o644))

	r := New(root, "")
	importer := filepath.Join(srcDir, "App.svelte")

	got, ok := r.Find(importer, "local.css")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(srcDir, "local.css"), got)

	got, ok = r.Find(importer, "theme/vars.css")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(modules, "vars.css"), got)

	_, ok = r.Find(importer, "missing.css")
	assert.False(t, ok)

	_, ok = r.Find(importer, "src")
	assert.False(t, ok, "directories are not matches")
}

func TestReadSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.ts")
	require.NoError(t, os.WriteFile(path, []byte("let a = 1"), 0o644))

	got, err := ReadSource(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "let a = 1", got)

	_, err = ReadSource(context.Background(), filepath.Join(dir, "missing.ts"))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeIO))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = ReadSource(ctx, path)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFindInOrder(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(first, "a.css"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(second, "a.css"), nil, 0o644))

	got, ok := FindIn([]string{first, second}, "a.css")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(first, "a.css"), got)

	abs := filepath.Join(second, "a.css")
	got, ok = FindIn(nil, abs)
	require.True(t, ok)
	assert.Equal(t, abs, got)

	_, ok = FindIn([]string{first}, "nope.css")
	assert.False(t, ok)
}
