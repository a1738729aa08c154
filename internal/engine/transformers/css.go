package transformers

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"markprep/internal/engine/paths"
	"markprep/internal/engine/syntax"
	"markprep/internal/engine/transform"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// stylesheet validates CSS and reports the files its @import rules resolve
// to. The code is returned unchanged.
type stylesheet struct {
	grammars *syntax.Grammars
}

func newStylesheet(grammars *syntax.Grammars) (*stylesheet, error) {
	// Fail the load, not the first block, if the grammar is unusable.
	if _, err := grammars.Pool(syntax.CSS); err != nil {
		return nil, err
	}
	return &stylesheet{grammars: grammars}, nil
}

func (s *stylesheet) Transform(ctx context.Context, in transform.Input) (transform.Result, error) {
	if err := ctx.Err(); err != nil {
		return transform.Result{}, err
	}
	source := []byte(in.Content)
	tree, err := s.grammars.Parse(syntax.CSS, source)
	if err != nil {
		return transform.Result{}, err
	}
	defer tree.Close()

	root := tree.RootNode()
	if in.Config.Bool(KeyStrict, true) {
		if synErr := syntax.FirstError(root, source); synErr != nil {
			return transform.Result{}, synErr
		}
	}

	dirs := in.Config.Strings(KeyIncludePaths)
	if len(dirs) == 0 && in.Filename != "" {
		dirs = []string{filepath.Dir(in.Filename)}
	}

	var deps []string
	for _, spec := range cssImports(root, source) {
		if isRemote(spec) {
			continue
		}
		resolved, ok := paths.FindIn(dirs, spec)
		if !ok && filepath.Ext(spec) == "" {
			resolved, ok = paths.FindIn(dirs, spec+".css")
		}
		if !ok {
			slog.Debug("unresolved css import", "path", in.Filename, "import", spec)
			continue
		}
		deps = append(deps, resolved)
	}

	return transform.Result{Code: in.Content, Dependencies: deps}, nil
}

// cssImports returns the target of every @import rule in document order.
func cssImports(root *sitter.Node, source []byte) []string {
	var out []string
	syntax.Walk(root, func(n *sitter.Node) bool {
		if n.Kind() != "import_statement" {
			return true
		}
		if target := importTarget(n.NamedChild(0), source); target != "" {
			out = append(out, target)
		}
		return false
	})
	return out
}

func importTarget(value *sitter.Node, source []byte) string {
	if value == nil {
		return ""
	}
	if value.Kind() == "call_expression" {
		// url(...) form
		args := value.ChildByFieldName("arguments")
		if args == nil {
			for i := uint(0); i < value.NamedChildCount(); i++ {
				if ch := value.NamedChild(i); ch != nil && ch.Kind() == "arguments" {
					args = ch
					break
				}
			}
		}
		if args == nil || args.NamedChildCount() == 0 {
			return ""
		}
		return syntax.Unquote(syntax.Text(args.NamedChild(0), source))
	}
	return syntax.Unquote(syntax.Text(value, source))
}

func isRemote(spec string) bool {
	lower := strings.ToLower(spec)
	return strings.HasPrefix(lower, "http://") ||
		strings.HasPrefix(lower, "https://") ||
		strings.HasPrefix(lower, "//") ||
		strings.HasPrefix(lower, "data:")
}
