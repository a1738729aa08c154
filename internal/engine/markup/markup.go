// Package markup locates <script> and <style> blocks in a component file and
// splices transformed content back into it.
package markup

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"markprep/internal/engine/syntax"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// Tags whose content is preprocessed.
const (
	TagScript = "script"
	TagStyle  = "style"
)

// Block is one tagged region. Offsets are byte offsets into the source;
// Start and End span the whole element.
type Block struct {
	Tag          string
	Attrs        string
	Content      string
	Start        int
	End          int
	ContentStart int
	ContentEnd   int
	Line         int
	// SelfClosing marks a <tag ... /> block. Its content range is empty and
	// sits at the end of the tag.
	SelfClosing bool
}

// Replace returns the replacement writing text as the block's content. A
// self-closing tag is expanded to <tag attrs>text</tag>.
func (b Block) Replace(text string) Replacement {
	if !b.SelfClosing {
		return Replacement{Start: b.ContentStart, End: b.ContentEnd, Text: text}
	}
	open := "<" + b.Tag
	if b.Attrs != "" {
		open += " " + b.Attrs
	}
	return Replacement{Start: b.Start, End: b.End, Text: open + ">" + text + "</" + b.Tag + ">"}
}

// selfClosingTag matches <script .../> and <style .../>. The HTML grammar has
// no element for them, so they are found lexically.
var selfClosingTag = regexp.MustCompile(`(?i)<(script|style)\b((?:[^>"']|"[^"]*"|'[^']*')*?)/>`)

// Extractor finds blocks using the tree-sitter HTML grammar.
type Extractor struct {
	grammars *syntax.Grammars
}

func NewExtractor(grammars *syntax.Grammars) *Extractor {
	if grammars == nil {
		grammars = syntax.NewGrammars()
	}
	return &Extractor{grammars: grammars}
}

// Blocks returns the script and style blocks of source in document order.
func (e *Extractor) Blocks(source []byte) ([]Block, error) {
	tree, err := e.grammars.Parse(syntax.HTML, source)
	if err != nil {
		return nil, fmt.Errorf("parse markup: %w", err)
	}
	defer tree.Close()

	var (
		blocks []Block
		taken  [][2]int
	)
	syntax.Walk(tree.RootNode(), func(n *sitter.Node) bool {
		switch n.Kind() {
		case "script_element", "style_element":
			if b, ok := blockFromElement(n, source); ok {
				blocks = append(blocks, b)
				taken = append(taken, [2]int{b.Start, b.End})
			}
			return false
		case "comment":
			taken = append(taken, [2]int{int(n.StartByte()), int(n.EndByte())})
			return false
		}
		return true
	})
	blocks = append(blocks, selfClosingBlocks(source, taken)...)
	sort.SliceStable(blocks, func(i, j int) bool { return blocks[i].Start < blocks[j].Start })
	return blocks, nil
}

// selfClosingBlocks finds self-closing script and style tags outside the
// spans already taken by elements and comments.
func selfClosingBlocks(source []byte, taken [][2]int) []Block {
	var blocks []Block
	for _, m := range selfClosingTag.FindAllSubmatchIndex(source, -1) {
		start, end := m[0], m[1]
		if overlaps(taken, start, end) {
			continue
		}
		blocks = append(blocks, Block{
			Tag:          strings.ToLower(string(source[m[2]:m[3]])),
			Attrs:        strings.TrimSpace(string(source[m[4]:m[5]])),
			Start:        start,
			End:          end,
			ContentStart: end,
			ContentEnd:   end,
			Line:         strings.Count(string(source[:start]), "\n") + 1,
			SelfClosing:  true,
		})
	}
	return blocks
}

func overlaps(spans [][2]int, start, end int) bool {
	for _, s := range spans {
		if start < s[1] && s[0] < end {
			return true
		}
	}
	return false
}

func blockFromElement(el *sitter.Node, source []byte) (Block, bool) {
	var startTag, raw *sitter.Node
	for i := uint(0); i < el.ChildCount(); i++ {
		ch := el.Child(i)
		if ch == nil {
			continue
		}
		switch ch.Kind() {
		case "start_tag":
			startTag = ch
		case "raw_text":
			raw = ch
		}
	}
	if startTag == nil {
		return Block{}, false
	}

	var tagName *sitter.Node
	for i := uint(0); i < startTag.ChildCount(); i++ {
		if ch := startTag.Child(i); ch != nil && ch.Kind() == "tag_name" {
			tagName = ch
			break
		}
	}
	if tagName == nil {
		return Block{}, false
	}

	b := Block{
		Tag:   strings.ToLower(syntax.Text(tagName, source)),
		Start: int(el.StartByte()),
		End:   int(el.EndByte()),
		Line:  int(el.StartPosition().Row) + 1,
	}

	attrEnd := int(startTag.EndByte()) - 1
	attrStart := int(tagName.EndByte())
	if attrEnd > attrStart {
		b.Attrs = strings.TrimSpace(strings.TrimSuffix(string(source[attrStart:attrEnd]), "/"))
	}

	// A start tag recovered from "/>" owns no content.
	if strings.HasSuffix(syntax.Text(startTag, source), "/>") {
		b.SelfClosing = true
		b.End = int(startTag.EndByte())
		b.ContentStart = b.End
		b.ContentEnd = b.End
		return b, true
	}

	if raw != nil {
		b.ContentStart = int(raw.StartByte())
		b.ContentEnd = int(raw.EndByte())
		b.Content = string(source[b.ContentStart:b.ContentEnd])
	} else {
		b.ContentStart = int(startTag.EndByte())
		b.ContentEnd = b.ContentStart
	}
	return b, true
}

// Replacement swaps the bytes in [Start, End) for Text.
type Replacement struct {
	Start int
	End   int
	Text  string
}

// Splice replaces source[start:end] with text.
func Splice(source string, start, end int, text string) string {
	return source[:start] + text + source[end:]
}

// Apply performs non-overlapping replacements, last first so earlier offsets
// stay valid.
func Apply(source string, reps []Replacement) (string, error) {
	sorted := make([]Replacement, len(reps))
	copy(sorted, reps)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start > sorted[j].Start })

	limit := len(source)
	for _, r := range sorted {
		if r.Start < 0 || r.End < r.Start || r.End > limit {
			return "", fmt.Errorf("replacement [%d,%d) out of range or overlapping", r.Start, r.End)
		}
		source = Splice(source, r.Start, r.End, r.Text)
		limit = r.Start
	}
	return source, nil
}
