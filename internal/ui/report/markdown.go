package report

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"markprep/internal/engine/preprocess"
)

// FileResult is the outcome of processing one file.
type FileResult struct {
	Path         string
	Blocks       []preprocess.BlockReport
	Dependencies []string
	Err          error
}

type MarkdownReportOptions struct {
	ProjectRoot         string
	Version             string
	GeneratedAt         time.Time
	CollapsibleSections bool
}

type MarkdownGenerator struct{}

func NewMarkdownGenerator() *MarkdownGenerator {
	return &MarkdownGenerator{}
}

// Generate renders a run summary followed by per-file block and dependency tables.
func (m *MarkdownGenerator) Generate(results []FileResult, opts MarkdownReportOptions) string {
	if opts.GeneratedAt.IsZero() {
		opts.GeneratedAt = time.Now().UTC()
	}

	blocks, failed, deps := 0, 0, 0
	for _, r := range results {
		blocks += len(r.Blocks)
		deps += len(r.Dependencies)
		if r.Err != nil {
			failed++
		}
	}

	var b strings.Builder
	b.WriteString("---\n")
	b.WriteString("title: Preprocessing Report\n")
	b.WriteString("generated_at: " + opts.GeneratedAt.UTC().Format(time.RFC3339) + "\n")
	b.WriteString("version: " + nonEmpty(opts.Version, "unknown") + "\n")
	b.WriteString("---\n\n")

	b.WriteString("# Preprocessing Report\n\n")
	b.WriteString("## Summary\n")
	b.WriteString("| Metric | Value |\n")
	b.WriteString("| --- | --- |\n")
	b.WriteString(fmt.Sprintf("| Files | %d |\n", len(results)))
	b.WriteString(fmt.Sprintf("| Failed Files | %d |\n", failed))
	b.WriteString(fmt.Sprintf("| Blocks | %d |\n", blocks))
	b.WriteString(fmt.Sprintf("| Dependencies | %d |\n\n", deps))

	m.writeFailures(&b, results, opts.ProjectRoot)
	m.writeBlocks(&b, results, opts.ProjectRoot, opts.CollapsibleSections)
	m.writeDependencies(&b, results, opts.ProjectRoot, opts.CollapsibleSections)
	return b.String()
}

func (m *MarkdownGenerator) writeFailures(b *strings.Builder, results []FileResult, projectRoot string) {
	b.WriteString("## Failures\n")
	var rows []string
	for _, r := range results {
		if r.Err == nil {
			continue
		}
		msg := strings.ReplaceAll(r.Err.Error(), "\n", " ")
		rows = append(rows, fmt.Sprintf("| `%s` | %s |\n", relPath(projectRoot, r.Path), escapeCell(msg)))
	}
	if len(rows) == 0 {
		b.WriteString("No failures.\n\n")
		return
	}
	for _, line := range []string{"| File | Error |\n", "| --- | --- |\n"} {
		b.WriteString(line)
	}
	for _, row := range rows {
		b.WriteString(row)
	}
	b.WriteString("\n")
}

func (m *MarkdownGenerator) writeBlocks(b *strings.Builder, results []FileResult, projectRoot string, collapsible bool) {
	b.WriteString("## Blocks\n")
	var rows []string
	for _, r := range results {
		for _, blk := range r.Blocks {
			src := ""
			if blk.Src != "" {
				src = "`" + relPath(projectRoot, blk.Src) + "`"
			}
			rows = append(rows, fmt.Sprintf(
				"| `%s:%d` | %s | `%s` | `%s` | %s | %s |\n",
				relPath(projectRoot, r.Path),
				blk.Line,
				blk.Tag,
				blk.Alias,
				blk.Lang,
				blk.Handler,
				src,
			))
		}
	}
	if len(rows) == 0 {
		b.WriteString("No blocks processed.\n\n")
		return
	}
	m.writeTableWithCollapse(
		b,
		"Block details",
		collapsible,
		len(rows) > 10,
		[]string{"| Location | Tag | Alias | Language | Handler | Source |\n", "| --- | --- | --- | --- | --- | --- |\n"},
		rows,
	)
}

func (m *MarkdownGenerator) writeDependencies(b *strings.Builder, results []FileResult, projectRoot string, collapsible bool) {
	b.WriteString("## Dependencies\n")
	var rows []string
	for _, r := range results {
		for _, dep := range r.Dependencies {
			rows = append(rows, fmt.Sprintf("| `%s` | `%s` |\n", relPath(projectRoot, r.Path), relPath(projectRoot, dep)))
		}
	}
	if len(rows) == 0 {
		b.WriteString("No dependencies recorded.\n\n")
		return
	}
	m.writeTableWithCollapse(
		b,
		"Dependency details",
		collapsible,
		len(rows) > 10,
		[]string{"| File | Dependency |\n", "| --- | --- |\n"},
		rows,
	)
}

func (m *MarkdownGenerator) writeTableWithCollapse(
	b *strings.Builder,
	summary string,
	collapsible bool,
	collapse bool,
	header []string,
	rows []string,
) {
	if collapsible && collapse {
		b.WriteString("<details>\n")
		b.WriteString("<summary>")
		b.WriteString(summary)
		b.WriteString("</summary>\n\n")
	}
	for _, line := range header {
		b.WriteString(line)
	}
	for _, line := range rows {
		b.WriteString(line)
	}
	b.WriteString("\n")
	if collapsible && collapse {
		b.WriteString("</details>\n\n")
	}
}

func relPath(root, path string) string {
	root = strings.TrimSpace(root)
	path = strings.TrimSpace(path)
	if root == "" || path == "" {
		return filepath.ToSlash(path)
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

func nonEmpty(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
