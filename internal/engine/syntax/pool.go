// # internal/engine/syntax/pool.go
package syntax

import (
	"fmt"
	"sync"
	"sync/atomic"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// ParserPool recycles tree-sitter parsers bound to one grammar. Safe for
// concurrent use.
type ParserPool struct {
	name string
	lang *sitter.Language
	pool sync.Pool

	leased atomic.Int64
	parses atomic.Uint64
}

// PoolStats is a point-in-time view of a pool.
type PoolStats struct {
	Leased int64
	Parses uint64
}

func NewParserPool(name string, lang *sitter.Language) *ParserPool {
	p := &ParserPool{name: name, lang: lang}
	p.pool.New = func() any {
		sp := sitter.NewParser()
		_ = sp.SetLanguage(lang)
		return sp
	}
	return p
}

// Get leases a parser. It must be handed back with Put.
func (p *ParserPool) Get() *sitter.Parser {
	sp := p.pool.Get().(*sitter.Parser)
	_ = sp.SetLanguage(p.lang)
	p.leased.Add(1)
	return sp
}

// Put resets sp and returns it to the pool. Put(nil) is a no-op.
func (p *ParserPool) Put(sp *sitter.Parser) {
	if sp == nil {
		return
	}
	p.leased.Add(-1)
	sp.Reset()
	p.pool.Put(sp)
}

// Parse leases a parser for one full parse of source. The caller must Close
// the tree.
func (p *ParserPool) Parse(source []byte) (*sitter.Tree, error) {
	sp := p.Get()
	defer p.Put(sp)
	p.parses.Add(1)
	tree := sp.Parse(source, nil)
	if tree == nil {
		return nil, fmt.Errorf("%s parser returned no tree", p.name)
	}
	return tree, nil
}

func (p *ParserPool) Stats() PoolStats {
	return PoolStats{Leased: p.leased.Load(), Parses: p.parses.Load()}
}
