// Package transformers holds the built-in transformer implementations and
// registers them lazily with a transform.Registry.
package transformers

import (
	"markprep/internal/engine/syntax"
	"markprep/internal/engine/transform"
)

// Config keys understood by the built-in transformers.
const (
	// KeyIncludePaths lists search roots for relative imports ([]string).
	KeyIncludePaths = "includePaths"
	// KeyStrict fails the block on syntax errors (bool, default true).
	KeyStrict = "strict"
)

// Names of the built-in transformers.
const (
	CSS        = "css"
	JavaScript = "javascript"
	TypeScript = "typescript"
	Markdown   = "markdown"
	YAML       = "yaml"
)

// Register adds factories for every built-in transformer. Nothing is
// constructed until the registry first runs a name.
func Register(reg *transform.Registry, grammars *syntax.Grammars) {
	if grammars == nil {
		grammars = syntax.NewGrammars()
	}
	reg.Register(CSS, func() (transform.Transformer, error) {
		return newStylesheet(grammars)
	})
	reg.Register(JavaScript, func() (transform.Transformer, error) {
		return newScript(grammars, syntax.JavaScript)
	})
	reg.Register(TypeScript, func() (transform.Transformer, error) {
		return newScript(grammars, syntax.TypeScript)
	})
	reg.Register(Markdown, func() (transform.Transformer, error) {
		return newMarkdown(), nil
	})
	reg.Register(YAML, func() (transform.Transformer, error) {
		return &yamlData{}, nil
	})
}
