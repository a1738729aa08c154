// Package preprocess runs every script and style block of a component file
// through the transformer its attributes select.
package preprocess

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"markprep/internal/core/config"
	"markprep/internal/core/errors"
	"markprep/internal/engine/attrs"
	"markprep/internal/engine/language"
	"markprep/internal/engine/markup"
	"markprep/internal/engine/paths"
	"markprep/internal/engine/syntax"
	"markprep/internal/engine/transform"
	"markprep/internal/engine/transformers"
	"markprep/internal/shared/observability"
	"markprep/internal/shared/util"
)

// How a block was handled.
const (
	HandlerOverride    = "override"
	HandlerTransformer = "transformer"
	HandlerPassthrough = "passthrough"
	HandlerUnsupported = "unsupported"
)

// BlockReport records the decisions taken for one block.
type BlockReport struct {
	Tag        string
	Line       int
	Attributes attrs.Attributes
	Lang       string
	Alias      string
	Handler    string
	Src        string
}

// Output is the processed file.
type Output struct {
	Code         string
	Dependencies []string
	Blocks       []BlockReport
}

// Pipeline owns the alias table, include-path resolver and transformer
// registry used for a run. Safe for concurrent use.
type Pipeline struct {
	cfg       *config.Config
	table     *language.Table
	includes  *paths.Resolver
	registry  *transform.Registry
	extractor *markup.Extractor
	overrides map[string]transform.OverrideFunc
	// extra holds WithOverride funcs until the table is final.
	extra map[string]transform.OverrideFunc
	// settings holds cfg.Transformers keyed by canonical language.
	settings map[string]map[string]any

	workDir string

	processedMu sync.RWMutex
	processed   map[string][]BlockReport
}

type Option func(*Pipeline)

// WithOverride handles every block resolving to lang with fn instead of the
// registered transformer. An alias is mapped to its canonical language.
func WithOverride(lang string, fn transform.OverrideFunc) Option {
	return func(p *Pipeline) { p.extra[lang] = fn }
}

// WithTable starts from a copy of t instead of a fresh default table. t itself
// is never modified.
func WithTable(t *language.Table) Option {
	return func(p *Pipeline) { p.table = t.Clone() }
}

// WithRegistry replaces the registry pre-populated with the built-in transformers.
func WithRegistry(reg *transform.Registry) Option {
	return func(p *Pipeline) { p.registry = reg }
}

// WithWorkingDir roots include paths at dir instead of the process working directory.
func WithWorkingDir(dir string) Option {
	return func(p *Pipeline) { p.workDir = dir }
}

// New builds a pipeline from cfg. A nil cfg uses config.DefaultConfig().
func New(cfg *config.Config, opts ...Option) (*Pipeline, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	p := &Pipeline{
		cfg:       cfg,
		table:     language.NewTable(),
		overrides: make(map[string]transform.OverrideFunc),
		extra:     make(map[string]transform.OverrideFunc),
		processed: make(map[string][]BlockReport),
	}
	for _, opt := range opts {
		opt(p)
	}

	for _, a := range cfg.Aliases {
		p.table.Register(language.Entry{Alias: a.Alias, Lang: a.Lang})
	}
	for alias, overrides := range cfg.AliasOverrides {
		p.table.SetOverrides(alias, overrides)
	}

	for _, lang := range p.canonicalKeys("command", util.SortedKeys(cfg.Commands)) {
		p.overrides[lang.canonical] = CommandOverride(lang.canonical, cfg.Commands[lang.key])
	}
	p.settings = make(map[string]map[string]any, len(cfg.Transformers))
	for _, lang := range p.canonicalKeys("transformer settings", util.SortedKeys(cfg.Transformers)) {
		p.settings[lang.canonical] = cfg.Transformers[lang.key]
	}

	for _, key := range util.SortedKeys(p.extra) {
		p.overrides[p.canonical(key)] = p.extra[key]
	}

	if p.workDir == "" {
		resolver, err := paths.FromWorkingDir(cfg.ModulesDir)
		if err != nil {
			return nil, err
		}
		p.includes = resolver
	} else {
		p.includes = paths.New(p.workDir, cfg.ModulesDir)
	}

	grammars := syntax.NewGrammars()
	if p.registry == nil {
		p.registry = transform.NewRegistry()
		transformers.Register(p.registry, grammars)
	}
	p.extractor = markup.NewExtractor(grammars)
	return p, nil
}

type langKey struct {
	key       string
	canonical string
}

// canonicalKeys maps configured language keys through the alias table. An
// alias key loses to an explicit entry for its canonical language.
func (p *Pipeline) canonicalKeys(what string, keys []string) []langKey {
	present := make(map[string]bool, len(keys))
	for _, k := range keys {
		present[k] = true
	}
	out := make([]langKey, 0, len(keys))
	for _, k := range keys {
		canon := p.canonical(k)
		if canon != k {
			if present[canon] {
				slog.Warn("ignoring "+what+" keyed by alias", "alias", k, "lang", canon)
				continue
			}
			slog.Debug("applying "+what+" keyed by alias", "alias", k, "lang", canon)
		}
		out = append(out, langKey{key: k, canonical: canon})
	}
	return out
}

func (p *Pipeline) canonical(lang string) string {
	if canon, ok := p.table.Lookup(lang); ok {
		return canon
	}
	return lang
}

// Table exposes the alias table for runtime registrations.
func (p *Pipeline) Table() *language.Table { return p.table }

// Registry exposes the transformer registry.
func (p *Pipeline) Registry() *transform.Registry { return p.registry }

// Includes exposes the include-path resolver.
func (p *Pipeline) Includes() *paths.Resolver { return p.includes }

// DefaultLanguage returns the configured default for a block tag.
func (p *Pipeline) DefaultLanguage(tag string) string {
	if tag == markup.TagStyle {
		return p.cfg.Defaults.Style
	}
	return p.cfg.Defaults.Script
}

// ProcessFile reads path and processes it.
func (p *Pipeline) ProcessFile(ctx context.Context, path string) (Output, error) {
	content, err := paths.ReadSource(ctx, path)
	if err != nil {
		return Output{}, err
	}
	return p.Process(ctx, path, content)
}

// Process transforms every block of source. Any block failure aborts the file.
func (p *Pipeline) Process(ctx context.Context, filename, source string) (Output, error) {
	out, err := p.process(ctx, filename, source)
	if err != nil {
		observability.FilesProcessedTotal.WithLabelValues(observability.OutcomeError).Inc()
		return Output{}, err
	}
	observability.FilesProcessedTotal.WithLabelValues(observability.OutcomeOK).Inc()

	p.processedMu.Lock()
	p.processed[filename] = out.Blocks
	p.processedMu.Unlock()
	return out, nil
}

// ProcessedBlocks returns the block reports of the last successful run on filename.
func (p *Pipeline) ProcessedBlocks(filename string) ([]BlockReport, bool) {
	p.processedMu.RLock()
	defer p.processedMu.RUnlock()
	blocks, ok := p.processed[filename]
	return blocks, ok
}

func (p *Pipeline) process(ctx context.Context, filename, source string) (Output, error) {
	blocks, err := p.extractor.Blocks([]byte(source))
	if err != nil {
		err = errors.AddContext(errors.Wrap(err, errors.CodeValidationError, "extract blocks"), errors.CtxOperation, "extract")
		return Output{}, errors.AddContext(err, errors.CtxPath, filename)
	}

	var (
		out  Output
		reps []markup.Replacement
		seen = make(map[string]bool)
	)
	addDeps := func(deps ...string) {
		for _, d := range deps {
			if d != "" && !seen[d] {
				seen[d] = true
				out.Dependencies = append(out.Dependencies, d)
			}
		}
	}

	for _, b := range blocks {
		if err := ctx.Err(); err != nil {
			return Output{}, errors.Locate(errors.Wrap(err, errors.CodeInternal, "processing stopped"), filename, b.Line)
		}
		report, res, err := p.processBlock(ctx, filename, b)
		if err != nil {
			return Output{}, errors.Locate(err, filename, b.Line)
		}
		out.Blocks = append(out.Blocks, report)
		if report.Src != "" {
			addDeps(report.Src)
		}
		addDeps(res.Dependencies...)
		if spliced(b, report, res) {
			reps = append(reps, b.Replace(res.Code))
		}
	}

	code, err := markup.Apply(source, reps)
	if err != nil {
		err = errors.AddContext(errors.Wrap(err, errors.CodeInternal, "splice blocks"), errors.CtxOperation, "splice")
		return Output{}, errors.AddContext(err, errors.CtxPath, filename)
	}
	out.Code = code
	return out, nil
}

// spliced reports whether a block's result replaces its content. Passthrough
// blocks keep their text unless it came from src, and an empty self-closing
// tag is left as written.
func spliced(b markup.Block, report BlockReport, res transform.Result) bool {
	if report.Src == "" {
		if report.Handler == HandlerPassthrough {
			return false
		}
		if b.SelfClosing && res.Code == "" {
			return false
		}
	}
	return true
}

func (p *Pipeline) processBlock(ctx context.Context, filename string, b markup.Block) (BlockReport, transform.Result, error) {
	a := attrs.Parse(b.Attrs)
	defaultLang := p.DefaultLanguage(b.Tag)
	resolved := p.table.Resolve(a, defaultLang)
	report := BlockReport{
		Tag:        b.Tag,
		Line:       b.Line,
		Attributes: a,
		Lang:       resolved.Lang,
		Alias:      resolved.Alias,
	}

	src := transform.Source{Content: b.Content, Filename: filename}
	if ref, ok := a.Lookup("src"); ok && isLocalSrc(ref) {
		path := paths.ResolveSrc(filename, ref)
		content, err := paths.ReadSource(ctx, path)
		if err != nil {
			return report, transform.Result{}, err
		}
		report.Src = path
		src = transform.Source{Content: content, Filename: path}
	}

	dispatch, handler := p.dispatchFor(resolved, src.Filename)
	if dispatch == nil {
		if resolved.Lang != p.table.Resolve(attrs.Attributes{}, defaultLang).Lang {
			return report, transform.Result{}, errors.UnsupportedLanguage(resolved.Lang, filename)
		}
		report.Handler = HandlerPassthrough
		observability.BlocksProcessedTotal.WithLabelValues(b.Tag, resolved.Lang).Inc()
		return report, transform.Result{Code: src.Content}, nil
	}
	report.Handler = handler
	if handler == HandlerOverride {
		observability.OverrideRunsTotal.WithLabelValues(resolved.Lang).Inc()
	}

	slog.Debug("transforming block", "path", filename, "line", b.Line, "lang", resolved.Lang, "alias", resolved.Alias, "handler", handler)
	res, err := p.registry.Run(ctx, dispatch, src)
	if err != nil {
		return report, transform.Result{}, err
	}
	observability.BlocksProcessedTotal.WithLabelValues(b.Tag, resolved.Lang).Inc()
	return report, res, nil
}

// Explanation describes how a block would be handled without running it.
type Explanation struct {
	language.Result
	Handler string
	// Config is what a named transformer would receive, nil otherwise.
	Config transform.Config
}

// Explain resolves a block with attributes a found in filename.
func (p *Pipeline) Explain(tag, filename string, a attrs.Attributes) Explanation {
	defaultLang := p.DefaultLanguage(tag)
	resolved := p.table.Resolve(a, defaultLang)
	ex := Explanation{Result: resolved}

	dispatch, handler := p.dispatchFor(resolved, filename)
	switch d := dispatch.(type) {
	case transform.Named:
		ex.Handler = handler
		ex.Config = d.Config
	case transform.Override:
		ex.Handler = handler
	default:
		ex.Handler = HandlerUnsupported
		if resolved.Lang == p.table.Resolve(attrs.Attributes{}, defaultLang).Lang {
			ex.Handler = HandlerPassthrough
		}
	}
	return ex
}

func (p *Pipeline) dispatchFor(resolved language.Result, filename string) (transform.Dispatch, string) {
	if fn, ok := p.overrides[resolved.Lang]; ok && fn != nil {
		return transform.Override{Fn: fn}, HandlerOverride
	}
	if p.registry.Has(resolved.Lang) {
		return transform.Named{Name: resolved.Lang, Config: p.transformerConfig(resolved, filename)}, HandlerTransformer
	}
	return nil, ""
}

// transformerConfig layers the configured settings for the language, the
// alias overrides and the include paths for filename.
func (p *Pipeline) transformerConfig(resolved language.Result, filename string) transform.Config {
	base := transform.Config(p.settings[resolved.Lang])
	cfg := transform.Merge(base, p.table.Overrides(resolved.Alias))

	includes := p.includes.IncludePaths(filename)
	if user := base.Strings(transformers.KeyIncludePaths); len(user) > 0 {
		resolvedUser := make([]string, 0, len(user)+len(includes))
		for _, dir := range user {
			if !filepath.IsAbs(dir) {
				dir = filepath.Join(p.includes.WorkingDir(), dir)
			}
			resolvedUser = append(resolvedUser, dir)
		}
		includes = append(resolvedUser, includes...)
	}
	cfg[transformers.KeyIncludePaths] = includes
	return cfg
}

func isLocalSrc(ref string) bool {
	lower := strings.ToLower(ref)
	return !strings.Contains(lower, "://") && !strings.HasPrefix(lower, "//") && !strings.HasPrefix(lower, "data:")
}
