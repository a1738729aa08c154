// Package paths computes the search roots transformers use to resolve
// relative imports, and reads external block sources.
package paths

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"markprep/internal/core/errors"
)

// DefaultModulesDir is the dependency directory searched after the importer's own.
const DefaultModulesDir = "node_modules"

// Resolver captures the working directory once so IncludePaths is a pure
// function of its input.
type Resolver struct {
	cwd     string
	modules string
}

// New returns a resolver rooted at cwd. An empty modulesDir selects
// DefaultModulesDir; a relative one is joined to cwd.
func New(cwd, modulesDir string) *Resolver {
	if strings.TrimSpace(modulesDir) == "" {
		modulesDir = DefaultModulesDir
	}
	r := &Resolver{cwd: cwd}
	if cwd != "" || filepath.IsAbs(modulesDir) {
		r.modules = resolveRelative(cwd, modulesDir)
	}
	return r
}

// FromWorkingDir returns a resolver rooted at the process working directory.
func FromWorkingDir(modulesDir string) (*Resolver, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeIO, "resolve working directory")
	}
	return New(cwd, modulesDir), nil
}

// WorkingDir returns the directory the resolver was rooted at.
func (r *Resolver) WorkingDir() string { return r.cwd }

// ModulesDir returns the absolute dependency directory, or "" when unrooted.
func (r *Resolver) ModulesDir() string { return r.modules }

// IncludePaths returns, in order, the working directory, the directory of
// fromFilename and the modules directory, skipping empty entries.
func (r *Resolver) IncludePaths(fromFilename string) []string {
	candidates := []string{r.cwd, "", r.modules}
	if fromFilename != "" {
		candidates[1] = filepath.Dir(fromFilename)
	}
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}

// ResolveSrc resolves src relative to the directory of importerFile.
func ResolveSrc(importerFile, src string) string {
	return resolveRelative(filepath.Dir(importerFile), src)
}

// Find searches the include paths of fromFilename for rel.
func (r *Resolver) Find(fromFilename, rel string) (string, bool) {
	return FindIn(r.IncludePaths(fromFilename), rel)
}

// FindIn returns the first regular file dir/rel over dirs, in order. An
// absolute rel is only checked as is.
func FindIn(dirs []string, rel string) (string, bool) {
	if filepath.IsAbs(rel) {
		if info, err := os.Stat(rel); err == nil && !info.IsDir() {
			return rel, true
		}
		return "", false
	}
	for _, dir := range dirs {
		candidate := filepath.Join(dir, rel)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}
	}
	return "", false
}

// ReadSource returns the content of path.
func ReadSource(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.AddContext(
			errors.Wrap(err, errors.CodeIO, fmt.Sprintf("read source %s", path)),
			errors.CtxPath, path,
		)
	}
	return string(data), nil
}

func resolveRelative(base, value string) string {
	raw := strings.TrimSpace(value)
	if raw == "" {
		return filepath.Clean(base)
	}
	if filepath.IsAbs(raw) {
		return filepath.Clean(raw)
	}
	return filepath.Clean(filepath.Join(base, raw))
}
