package syntax

import (
	"fmt"
	"sort"
	"sync"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_css "github.com/tree-sitter/tree-sitter-css/bindings/go"
	tree_sitter_html "github.com/tree-sitter/tree-sitter-html/bindings/go"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// Grammar names known to this package.
const (
	CSS        = "css"
	HTML       = "html"
	JavaScript = "javascript"
	TypeScript = "typescript"
	TSX        = "tsx"
)

func newLanguage(name string) (*sitter.Language, error) {
	switch name {
	case CSS:
		return sitter.NewLanguage(tree_sitter_css.Language()), nil
	case HTML:
		return sitter.NewLanguage(tree_sitter_html.Language()), nil
	case JavaScript:
		return sitter.NewLanguage(tree_sitter_javascript.Language()), nil
	case TypeScript:
		return sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript()), nil
	case TSX:
		return sitter.NewLanguage(tree_sitter_typescript.LanguageTSX()), nil
	}
	return nil, fmt.Errorf("no tree-sitter grammar bundled for %q", name)
}

// Names lists the bundled grammars.
func Names() []string {
	names := []string{CSS, HTML, JavaScript, TypeScript, TSX}
	sort.Strings(names)
	return names
}

// Grammars lazily builds one ParserPool per grammar.
type Grammars struct {
	mu    sync.Mutex
	pools map[string]*ParserPool
}

func NewGrammars() *Grammars {
	return &Grammars{pools: make(map[string]*ParserPool)}
}

// Pool returns the parser pool for name, creating it on first use.
func (g *Grammars) Pool(name string) (*ParserPool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if p, ok := g.pools[name]; ok {
		return p, nil
	}
	lang, err := newLanguage(name)
	if err != nil {
		return nil, err
	}
	p := NewParserPool(name, lang)
	g.pools[name] = p
	return p, nil
}

// Parse parses source with the named grammar. The caller must Close the tree.
func (g *Grammars) Parse(name string, source []byte) (*sitter.Tree, error) {
	pool, err := g.Pool(name)
	if err != nil {
		return nil, err
	}
	return pool.Parse(source)
}
