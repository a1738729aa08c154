// Package attrs parses the raw attribute string of a markup block's opening
// tag into a name/value map.
package attrs

import (
	"sort"
	"strings"
)

// Value is either a presence flag (attribute written without a value) or a
// string with all quote characters removed.
type Value struct {
	Text string
	Flag bool
}

// Flag is the value of an attribute present without `=`.
var Flag = Value{Flag: true}

// String returns a string value.
func String(s string) Value { return Value{Text: s} }

type Attributes map[string]Value

// Parse splits attrsStr on whitespace runs and turns each token into an entry.
// It never fails: a token it cannot make sense of becomes a flag named by the
// whole token.
func Parse(attrsStr string) Attributes {
	out := make(Attributes)
	for _, token := range strings.Fields(attrsStr) {
		name, raw, ok := strings.Cut(token, "=")
		if !ok || raw == "" {
			out[name] = Flag
			continue
		}
		out[name] = String(stripQuotes(raw))
	}
	return out
}

var quotes = strings.NewReplacer(`"`, "", `'`, "")

func stripQuotes(s string) string {
	return quotes.Replace(s)
}

// Lookup returns the value of a string-valued attribute. Flags and empty
// strings report false.
func (a Attributes) Lookup(name string) (string, bool) {
	v, ok := a[name]
	if !ok || v.Flag || v.Text == "" {
		return "", false
	}
	return v.Text, true
}

// Has reports whether the attribute is present in any form.
func (a Attributes) Has(name string) bool {
	_, ok := a[name]
	return ok
}

// String re-serializes the attributes in name order.
func (a Attributes) String() string {
	names := make([]string, 0, len(a))
	for name := range a {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for i, name := range names {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(name)
		if v := a[name]; !v.Flag {
			b.WriteString(`="`)
			b.WriteString(v.Text)
			b.WriteByte('"')
		}
	}
	return b.String()
}
