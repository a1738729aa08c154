package attrs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Attributes
	}{
		{name: "empty", input: "", want: Attributes{}},
		{name: "whitespace only", input: " \t\n ", want: Attributes{}},
		{name: "flag", input: "foo", want: Attributes{"foo": Flag}},
		{
			name:  "quoted values",
			input: `a=1 b='2' c="3"`,
			want:  Attributes{"a": String("1"), "b": String("2"), "c": String("3")},
		},
		{
			name:  "mixed with runs of whitespace",
			input: "  lang=\"ts\"\n\tglobal   src=./x.ts ",
			want:  Attributes{"lang": String("ts"), "global": Flag, "src": String("./x.ts")},
		},
		{
			name:  "quotes stripped anywhere",
			input: `title=it's"odd"`,
			want:  Attributes{"title": String("itsodd")},
		},
		{
			name:  "split on first equals",
			input: "data=a=b",
			want:  Attributes{"data": String("a=b")},
		},
		{
			name:  "empty raw value is a flag",
			input: "lang=",
			want:  Attributes{"lang": Flag},
		},
		{
			name:  "empty quoted value is an empty string",
			input: `lang=""`,
			want:  Attributes{"lang": String("")},
		},
		{
			name:  "later duplicate wins",
			input: "lang=ts lang=js",
			want:  Attributes{"lang": String("js")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.input))
		})
	}
}

func TestAttributesLookup(t *testing.T) {
	a := Parse(`lang="scss" global type=""`)

	v, ok := a.Lookup("lang")
	assert.True(t, ok)
	assert.Equal(t, "scss", v)

	_, ok = a.Lookup("global")
	assert.False(t, ok, "flags are not string values")
	assert.True(t, a.Has("global"))

	_, ok = a.Lookup("type")
	assert.False(t, ok, "empty strings are not string values")

	_, ok = a.Lookup("src")
	assert.False(t, ok)
	assert.False(t, a.Has("src"))
}

func TestAttributesString(t *testing.T) {
	a := Parse(`src='a.ts' global lang=ts`)
	assert.Equal(t, `global lang="ts" src="a.ts"`, a.String())
	assert.Equal(t, "", Attributes{}.String())
}
