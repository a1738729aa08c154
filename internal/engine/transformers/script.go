package transformers

import (
	"context"
	"strings"

	"markprep/internal/engine/paths"
	"markprep/internal/engine/syntax"
	"markprep/internal/engine/transform"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// KeyJSX switches the typescript transformer to the TSX grammar (bool).
const KeyJSX = "jsx"

// script validates ECMAScript-family code and reports relative module
// specifiers, resolved against the block's file, as dependencies. The code
// is returned unchanged.
type script struct {
	grammars *syntax.Grammars
	grammar  string
}

func newScript(grammars *syntax.Grammars, grammar string) (*script, error) {
	if _, err := grammars.Pool(grammar); err != nil {
		return nil, err
	}
	return &script{grammars: grammars, grammar: grammar}, nil
}

func (s *script) Transform(ctx context.Context, in transform.Input) (transform.Result, error) {
	if err := ctx.Err(); err != nil {
		return transform.Result{}, err
	}
	grammar := s.grammar
	if grammar == syntax.TypeScript && in.Config.Bool(KeyJSX, false) {
		grammar = syntax.TSX
	}

	source := []byte(in.Content)
	tree, err := s.grammars.Parse(grammar, source)
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

	var deps []string
	seen := make(map[string]bool)
	for _, spec := range moduleSpecifiers(root, source) {
		if !isRelative(spec) {
			continue
		}
		dep := spec
		if in.Filename != "" {
			dep = paths.ResolveSrc(in.Filename, spec)
		}
		if !seen[dep] {
			seen[dep] = true
			deps = append(deps, dep)
		}
	}
	return transform.Result{Code: in.Content, Dependencies: deps}, nil
}

// moduleSpecifiers collects the sources of import and re-export statements.
func moduleSpecifiers(root *sitter.Node, source []byte) []string {
	var out []string
	syntax.Walk(root, func(n *sitter.Node) bool {
		switch n.Kind() {
		case "import_statement", "export_statement":
			if src := n.ChildByFieldName("source"); src != nil {
				out = append(out, syntax.Unquote(syntax.Text(src, source)))
			}
			return false
		}
		return true
	})
	return out
}

func isRelative(spec string) bool {
	return strings.HasPrefix(spec, "./") || strings.HasPrefix(spec, "../")
}
