package cliapp

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"markprep/internal/engine/attrs"
	"markprep/internal/engine/markup"
	"markprep/internal/engine/preprocess"
	"markprep/internal/engine/syntax"
	"markprep/internal/engine/transformers"
	"markprep/internal/shared/util"
	"markprep/internal/ui/report"
	"markprep/internal/watcher"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

type processOptions struct {
	outDir string
	deps   bool
	report string
}

func newProcessCmd(rt *session) *cobra.Command {
	var opts processOptions
	cmd := &cobra.Command{
		Use:   "process <file>...",
		Short: "Transform the blocks of each file and print or write the result",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outDir := opts.outDir
			if outDir == "" {
				outDir = rt.cfg.Output.Dir
			}
			var (
				results  []report.FileResult
				firstErr error
			)
			for _, file := range args {
				out, err := rt.pipeline.ProcessFile(cmd.Context(), file)
				results = append(results, report.FileResult{Path: file, Blocks: out.Blocks, Dependencies: out.Dependencies, Err: err})
				if err != nil {
					// With a report every file is attempted.
					if opts.report == "" {
						return err
					}
					if firstErr == nil {
						firstErr = err
					}
					continue
				}
				if err := emit(cmd.OutOrStdout(), outDir, file, out); err != nil {
					return err
				}
				if opts.deps {
					for _, dep := range out.Dependencies {
						fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", file, dep)
					}
				}
			}
			if opts.report != "" {
				if err := writeReport(opts.report, results); err != nil {
					return err
				}
			}
			return firstErr
		},
	}
	fs := cmd.Flags()
	fs.StringVarP(&opts.outDir, "out", "o", "", "write results under this directory (overrides output.dir)")
	fs.BoolVar(&opts.deps, "deps", false, "print the dependencies of each file to stderr")
	fs.StringVar(&opts.report, "report", "", "write a markdown report of the run to this path")
	return cmd
}

func writeReport(path string, results []report.FileResult) error {
	root, _ := os.Getwd()
	content := report.NewMarkdownGenerator().Generate(results, report.MarkdownReportOptions{
		ProjectRoot:         root,
		Version:             versionString,
		CollapsibleSections: true,
	})
	if err := util.WriteFileAtomic(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write report %s: %w", path, err)
	}
	slog.Info("wrote report", "path", path, "files", len(results))
	return nil
}

// emit writes out to outDir mirroring file's path relative to the working
// directory, or to w when outDir is empty.
func emit(w io.Writer, outDir, file string, out preprocess.Output) error {
	if outDir == "" {
		_, err := io.WriteString(w, out.Code)
		return err
	}
	target := filepath.Join(outDir, outputName(file))
	if err := util.WriteFileAtomic(target, []byte(out.Code), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", target, err)
	}
	slog.Info("wrote output", "source", file, "target", target, "blocks", len(out.Blocks))
	return nil
}

func outputName(file string) string {
	abs, err := filepath.Abs(file)
	if err != nil {
		return filepath.Base(file)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return filepath.Base(file)
	}
	rel, err := filepath.Rel(cwd, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.Base(file)
	}
	return rel
}

type resolveOptions struct {
	tag  string
	file string
}

func newResolveCmd(rt *session) *cobra.Command {
	opts := resolveOptions{tag: markup.TagScript}
	cmd := &cobra.Command{
		Use:   "resolve [attributes]",
		Short: "Show how a block with the given attributes would be handled",
		Example: `  markprep resolve 'lang="ts"'
  markprep resolve --tag style --file src/App.svelte 'lang=sass'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.tag != markup.TagScript && opts.tag != markup.TagStyle {
				return fmt.Errorf("--tag must be %q or %q", markup.TagScript, markup.TagStyle)
			}
			filename := opts.file
			if filename != "" {
				if abs, err := filepath.Abs(filename); err == nil {
					filename = abs
				}
			}
			a := attrs.Parse(strings.Join(args, " "))
			ex := rt.pipeline.Explain(opts.tag, filename, a)
			writeExplanation(cmd.OutOrStdout(), a, ex)
			return nil
		},
	}
	fs := cmd.Flags()
	fs.StringVar(&opts.tag, "tag", markup.TagScript, "block tag: script or style")
	fs.StringVar(&opts.file, "file", "", "component file the block belongs to")
	return cmd
}

func writeExplanation(w io.Writer, a attrs.Attributes, ex preprocess.Explanation) {
	fmt.Fprintf(w, "attributes: %s\n", a)
	fmt.Fprintf(w, "alias:      %s\n", ex.Alias)
	fmt.Fprintf(w, "lang:       %s\n", ex.Lang)
	fmt.Fprintf(w, "handler:    %s\n", ex.Handler)
	if ex.Config == nil {
		return
	}
	fmt.Fprintln(w, "config:")
	for _, key := range util.SortedKeys(ex.Config) {
		if key == transformers.KeyIncludePaths {
			continue
		}
		fmt.Fprintf(w, "  %s = %v\n", key, ex.Config[key])
	}
	fmt.Fprintln(w, "include paths:")
	for _, dir := range ex.Config.Strings(transformers.KeyIncludePaths) {
		fmt.Fprintf(w, "  %s\n", dir)
	}
}

func newLanguagesCmd(rt *session) *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List aliases, transformers, grammars and command overrides",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			fmt.Fprintln(w, "aliases:")
			for _, e := range rt.pipeline.Table().Entries() {
				fmt.Fprintf(w, "  %-12s -> %s\n", e.Alias, e.Lang)
			}
			fmt.Fprintln(w, "transformers:")
			for _, name := range rt.pipeline.Registry().Names() {
				fmt.Fprintf(w, "  %s\n", name)
			}
			fmt.Fprintln(w, "grammars:")
			for _, name := range syntax.Names() {
				fmt.Fprintf(w, "  %s\n", name)
			}
			if len(rt.cfg.Commands) > 0 {
				fmt.Fprintln(w, "commands:")
				for _, lang := range util.SortedKeys(rt.cfg.Commands) {
					fmt.Fprintf(w, "  %-12s %s\n", lang, strings.Join(rt.cfg.Commands[lang].Argv, " "))
				}
			}
			return nil
		},
	}
}

type watchOptions struct {
	outDir  string
	initial bool
}

func newWatchCmd(rt *session) *cobra.Command {
	opts := watchOptions{initial: true}
	cmd := &cobra.Command{
		Use:   "watch [path]...",
		Short: "Re-process component files as they change",
		RunE: func(cmd *cobra.Command, args []string) error {
			roots := args
			if len(roots) == 0 {
				roots = []string{"."}
			}
			if opts.outDir == "" {
				opts.outDir = rt.cfg.Output.Dir
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runWatch(ctx, rt, roots, opts)
		},
	}
	fs := cmd.Flags()
	fs.StringVarP(&opts.outDir, "out", "o", "", "write results under this directory (overrides output.dir)")
	fs.BoolVar(&opts.initial, "initial", true, "process every matching file before watching")
	return cmd
}

func runWatch(ctx context.Context, rt *session, roots []string, opts watchOptions) error {
	if opts.outDir == "" {
		slog.Warn("no output directory configured, results are only logged")
	}
	processBatch := func(paths []string) {
		batch := uuid.NewString()
		failed := 0
		for _, path := range paths {
			if _, err := os.Stat(path); err != nil {
				slog.Debug("skipping vanished file", "batch", batch, "path", path)
				continue
			}
			out, err := rt.pipeline.ProcessFile(ctx, path)
			if err != nil {
				failed++
				slog.Error("processing failed", "batch", batch, "path", path, "error", err)
				continue
			}
			if opts.outDir != "" {
				if err := emit(io.Discard, opts.outDir, path, out); err != nil {
					failed++
					slog.Error("writing output failed", "batch", batch, "path", path, "error", err)
				}
			} else {
				slog.Info("processed", "batch", batch, "path", path, "blocks", len(out.Blocks), "dependencies", len(out.Dependencies))
			}
		}
		heap := util.ReadHeap()
		slog.Info("batch complete", "batch", batch, "files", len(paths), "failed", failed, "heap_mb", heap.AllocMB, "gc", heap.NumGC)
	}

	watchCfg := rt.cfg.Watch
	if opts.outDir != "" {
		// Results written under a watched root must not trigger another pass.
		watchCfg.ExcludeDirs = append(append([]string(nil), watchCfg.ExcludeDirs...), filepath.Base(filepath.Clean(opts.outDir)))
	}
	w, err := watcher.NewWatcher(watchCfg, processBatch)
	if err != nil {
		return err
	}
	defer w.Close()

	if opts.initial {
		files, err := w.Scan(roots)
		if err != nil {
			return err
		}
		if len(files) > 0 {
			processBatch(files)
		}
	}

	if err := w.Watch(roots); err != nil {
		return err
	}
	slog.Info("watching for changes", "roots", roots, "debounce", rt.cfg.Watch.Debounce)
	<-ctx.Done()
	return nil
}
