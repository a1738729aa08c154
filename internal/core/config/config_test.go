package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	content := `
version = 1
modules_dir = "vendor_modules"

[defaults]
script = "typescript"

[[aliases]]
alias = "vue"
lang = "html"

[[aliases]]
alias = " ts "
lang = "typescript"

[alias_overrides.sass]
indentedSyntax = false

[transformers.css]
strict = false
includePaths = ["./styles"]

[commands.scss]
argv = ["sass", "--stdin"]

[watch]
debounce = "1s"
exclude_files = ["*.min.*"]

[output]
dir = "dist"

[observability]
metrics_addr = "127.0.0.1:9464"

[log]
level = "DEBUG"
`
	path := filepath.Join(t.TempDir(), "markprep.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "vendor_modules", cfg.ModulesDir)
	assert.Equal(t, "typescript", cfg.Defaults.Script)
	assert.Equal(t, "css", cfg.Defaults.Style, "unset defaults are filled")
	assert.Equal(t, []Alias{{Alias: "vue", Lang: "html"}, {Alias: "ts", Lang: "typescript"}}, cfg.Aliases)
	assert.Equal(t, false, cfg.AliasOverrides["sass"]["indentedSyntax"])
	assert.Equal(t, false, cfg.Transformers["css"]["strict"])
	assert.Equal(t, []any{"./styles"}, cfg.Transformers["css"]["includePaths"])
	assert.Equal(t, []string{"sass", "--stdin"}, cfg.Commands["scss"].Argv)
	assert.Equal(t, 30*time.Second, cfg.Commands["scss"].Timeout)
	assert.Equal(t, time.Second, cfg.Watch.Debounce)
	assert.Equal(t, []string{"*.min.*"}, cfg.Watch.ExcludeFiles)
	assert.Equal(t, []string{".git", "node_modules"}, cfg.Watch.ExcludeDirs)
	assert.Equal(t, "dist", cfg.Output.Dir)
	assert.Equal(t, "127.0.0.1:9464", cfg.Observability.MetricsAddr)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestParseInvalidTOML(t *testing.T) {
	_, err := Parse("version = ")
	assert.Error(t, err)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 1, cfg.Version)
	assert.Equal(t, "node_modules", cfg.ModulesDir)
	assert.Equal(t, "javascript", cfg.Defaults.Script)
	assert.Equal(t, "css", cfg.Defaults.Style)
	assert.Equal(t, 300*time.Millisecond, cfg.Watch.Debounce)
	assert.Equal(t, []string{".svelte", ".html"}, cfg.Watch.Extensions)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.NoError(t, Validate(cfg))
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("MARKPREP_DEFAULTS_STYLE", "scss")
	t.Setenv("MARKPREP_WATCH_DEBOUNCE", "2s")
	t.Setenv("MARKPREP_LOG_LEVEL", " WARN ")
	t.Setenv("MARKPREP_OUTPUT_DIR", "out")

	cfg := DefaultConfig()
	ApplyEnvOverrides(cfg)

	assert.Equal(t, "scss", cfg.Defaults.Style)
	assert.Equal(t, 2*time.Second, cfg.Watch.Debounce)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "out", cfg.Output.Dir)
}

func TestApplyEnvOverridesIgnoresBadDuration(t *testing.T) {
	t.Setenv("MARKPREP_WATCH_DEBOUNCE", "soon")
	cfg := DefaultConfig()
	ApplyEnvOverrides(cfg)
	assert.Equal(t, 300*time.Millisecond, cfg.Watch.Debounce)
}
