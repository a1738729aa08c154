package markup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const component = `<script lang="ts">
let count: number = 0;
</script>

<button class="counter">{count}</button>

<style lang='scss' global>
.a { .b { color: red; } }
</style>
`

func TestBlocks(t *testing.T) {
	blocks, err := NewExtractor(nil).Blocks([]byte(component))
	require.NoError(t, err)
	require.Len(t, blocks, 2)

	script := blocks[0]
	assert.Equal(t, TagScript, script.Tag)
	assert.Equal(t, `lang="ts"`, script.Attrs)
	assert.Equal(t, "\nlet count: number = 0;\n", script.Content)
	assert.Equal(t, 1, script.Line)
	assert.Equal(t, script.Content, component[script.ContentStart:script.ContentEnd])

	style := blocks[1]
	assert.Equal(t, TagStyle, style.Tag)
	assert.Equal(t, `lang='scss' global`, style.Attrs)
	assert.Contains(t, style.Content, ".a { .b { color: red; } }")
	assert.Equal(t, 7, style.Line)
}

func TestBlocksWithoutAttributesOrContent(t *testing.T) {
	src := "<script></script><style>\n</style><p>x</p>"
	blocks, err := NewExtractor(nil).Blocks([]byte(src))
	require.NoError(t, err)
	require.Len(t, blocks, 2)

	assert.Equal(t, "", blocks[0].Attrs)
	assert.Equal(t, "", blocks[0].Content)
	assert.Equal(t, len("<script>"), blocks[0].ContentStart)
	assert.Equal(t, blocks[0].ContentStart, blocks[0].ContentEnd)
}

func TestBlocksNone(t *testing.T) {
	blocks, err := NewExtractor(nil).Blocks([]byte("<div>plain</div>"))
	require.NoError(t, err)
	assert.Empty(t, blocks)
}

func TestSplice(t *testing.T) {
	assert.Equal(t, "a-X-c", Splice("a-b-c", 2, 3, "X"))
	assert.Equal(t, "Xabc", Splice("abc", 0, 0, "X"))
}

func TestApply(t *testing.T) {
	src := "<script>A</script><style>B</style>"
	out, err := Apply(src, []Replacement{
		{Start: 8, End: 9, Text: "alpha"},
		{Start: 25, End: 26, Text: "beta"},
	})
	require.NoError(t, err)
	assert.Equal(t, "<script>alpha</script><style>beta</style>", out)

	_, err = Apply(src, []Replacement{{Start: 5, End: 10}, {Start: 8, End: 12}})
	assert.Error(t, err, "overlapping replacements")

	_, err = Apply(src, []Replacement{{Start: 5, End: 500}})
	assert.Error(t, err)
}

func TestBlocksSelfClosing(t *testing.T) {
	for _, src := range []string{`<style src="./a.css" />`, `<style src="./a.css"/>`} {
		blocks, err := NewExtractor(nil).Blocks([]byte(src))
		require.NoError(t, err, src)
		require.Len(t, blocks, 1, src)

		b := blocks[0]
		assert.Equal(t, TagStyle, b.Tag)
		assert.Equal(t, `src="./a.css"`, b.Attrs)
		assert.True(t, b.SelfClosing)
		assert.Equal(t, 0, b.Start)
		assert.Equal(t, len(src), b.End)
		assert.Equal(t, b.End, b.ContentStart)
		assert.Equal(t, b.ContentStart, b.ContentEnd)
		assert.Equal(t, 1, b.Line)
	}
}

func TestBlocksSelfClosingIgnoredInCommentsAndContent(t *testing.T) {
	src := "<!-- <style src=\"x.css\"/> -->\n<script>let s = \"<style/>\";</script>"
	blocks, err := NewExtractor(nil).Blocks([]byte(src))
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, TagScript, blocks[0].Tag)
	assert.False(t, blocks[0].SelfClosing)
}

func TestBlockReplace(t *testing.T) {
	b := Block{ContentStart: 7, ContentEnd: 9}
	assert.Equal(t, Replacement{Start: 7, End: 9, Text: "x"}, b.Replace("x"))

	src := `<style src="./a.css" />`
	closed := Block{Tag: TagStyle, Attrs: `src="./a.css"`, Start: 0, End: len(src), ContentStart: len(src), ContentEnd: len(src), SelfClosing: true}
	out, err := Apply(src, []Replacement{closed.Replace("p{}")})
	require.NoError(t, err)
	assert.Equal(t, `<style src="./a.css">p{}</style>`, out)
}
