// Package transform dispatches block content to named transformers, loading
// each implementation lazily and at most once per registry.
package transform

import "context"

// Config is forwarded verbatim to a named transformer.
type Config map[string]any

// Source is the block content handed to a transformer or override.
type Source struct {
	Content  string
	Filename string
}

// Input is what a named transformer receives.
type Input struct {
	Content  string
	Filename string
	Config   Config
}

// Result is the conventional transformer output. The registry passes it
// through without inspection.
type Result struct {
	Code         string
	Map          string
	Dependencies []string
}

// Transformer converts content written in one language.
type Transformer interface {
	Transform(ctx context.Context, in Input) (Result, error)
}

// TransformerFunc adapts a function to Transformer.
type TransformerFunc func(ctx context.Context, in Input) (Result, error)

func (f TransformerFunc) Transform(ctx context.Context, in Input) (Result, error) {
	return f(ctx, in)
}

// Factory loads a transformer implementation. A registry calls it until it
// first succeeds, then reuses the result.
type Factory func() (Transformer, error)

// OverrideFunc replaces the built-in pipeline for a language.
type OverrideFunc func(ctx context.Context, src Source) (Result, error)

// Dispatch selects how Run handles a block: Override or Named.
type Dispatch interface {
	dispatch()
}

// Override bypasses the registry and calls Fn directly.
type Override struct {
	Fn OverrideFunc
}

// Named runs the transformer registered under Name with Config.
type Named struct {
	Name   string
	Config Config
}

func (Override) dispatch() {}
func (Named) dispatch()    {}

// Get returns the string value of key, or def.
func (c Config) Get(key, def string) string {
	if v, ok := c[key].(string); ok {
		return v
	}
	return def
}

// Bool returns the boolean value of key, or def.
func (c Config) Bool(key string, def bool) bool {
	if v, ok := c[key].(bool); ok {
		return v
	}
	return def
}

// Strings returns key as a string slice, accepting []string and []any.
func (c Config) Strings(key string) []string {
	switch v := c[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// Merge returns a new config with the entries of each layer applied in order.
func Merge(layers ...Config) Config {
	out := make(Config)
	for _, layer := range layers {
		for k, v := range layer {
			out[k] = v
		}
	}
	return out
}
