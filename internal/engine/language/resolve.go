package language

import (
	"regexp"

	"markprep/internal/engine/attrs"
)

// Result is the outcome of resolving a block's language.
type Result struct {
	// Lang is the canonical name, after alias lookup.
	Lang string
	// Alias is the token as found in the attributes, before lookup.
	Alias string
}

var (
	mimePrefix = regexp.MustCompile(`^(text|application)/(.*)$`)
	srcExt     = regexp.MustCompile(`\.([^/.]+)$`)
)

// Resolve picks the alias token from lang, then type, then the src extension,
// falling back to defaultLang, and canonicalizes it through the table.
// It never fails: unknown tokens pass through as their own canonical name.
func (t *Table) Resolve(a attrs.Attributes, defaultLang string) Result {
	token := Token(a, defaultLang)
	lang := token
	if canonical, ok := t.Lookup(token); ok && canonical != "" {
		lang = canonical
	}
	return Result{Lang: lang, Alias: token}
}

// Token returns the pre-lookup alias token for a.
func Token(a attrs.Attributes, defaultLang string) string {
	if v, ok := a.Lookup("lang"); ok {
		return v
	}
	if v, ok := a.Lookup("type"); ok {
		// Unrecognized MIME prefixes pass through untouched.
		return mimePrefix.ReplaceAllString(v, "$2")
	}
	if v, ok := a.Lookup("src"); ok {
		if m := srcExt.FindStringSubmatch(v); m != nil {
			return m[1]
		}
	}
	return defaultLang
}
