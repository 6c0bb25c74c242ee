package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/hashicorp/go-multierror"
	"github.com/icase-intl/langkit/config"
	"github.com/icase-intl/langkit/extract"
	"github.com/icase-intl/langkit/i18n"
	"github.com/icase-intl/langkit/lockfile"
	"github.com/icase-intl/langkit/merge"
	"github.com/icase-intl/langkit/rewrite"
	"github.com/icase-intl/langkit/visit"
	"github.com/spf13/cobra"
)

// ---------------------------------------------------------------------------
// Project loading
// ---------------------------------------------------------------------------

// project is a loaded configuration plus the visit options derived from it.
type project struct {
	cfg  *config.File
	opts visit.Options
}

func loadProject() (*project, error) {
	cfg, err := config.Load(rootDir)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, fmt.Errorf(i18n.T("no %s found in %s"), config.FileName, rootDir)
	}
	return &project{
		cfg: cfg,
		opts: visit.Options{
			Lookup: rewrite.Lookup{
				Name:          cfg.Lookup.Name,
				ComponentName: cfg.Lookup.ComponentName,
				ImportSource:  cfg.Lookup.ImportSource,
			},
		},
	}, nil
}

// sources returns args, or the configured source directories scanned for
// supported files. full reports whether the whole project was scanned.
func (p *project) sources(args []string) (files []string, full bool, err error) {
	paths := args
	if len(paths) == 0 {
		paths = p.cfg.SourcePaths()
		full = true
	}
	files, err = extract.FindSources(paths)
	if err != nil {
		return nil, false, err
	}
	if len(files) == 0 {
		return nil, false, fmt.Errorf(i18n.T("no source files found in %s"), strings.Join(paths, ", "))
	}
	return files, full, nil
}

// ---------------------------------------------------------------------------
// Pipeline
// ---------------------------------------------------------------------------

// pass describes what a run does with each visited file.
type pass struct {
	// report prints every occurrence.
	report bool
	// write applies the rewrites to the sources.
	write bool
	// diff finalizes each file against the catalogs.
	diff bool
	// collect fills the run-wide table for the batch translator.
	collect bool
}

// stats is the run summary.
type stats struct {
	files       int
	skipped     int
	occurrences int
	fixed       int
	conflicts   int
	diagnostics int
	added       int
	removed     int
}

// walk visits every file in order. Diff-mode finalization runs as soon as
// a file's visitation completes.
func (p *project) walk(files []string, ps pass, acc *visit.Accumulation, sync *merge.Synchronizer) (stats, error) {
	var st stats
	var errs *multierror.Error

	opts := p.opts
	opts.CollectFixed = ps.write

	for _, path := range files {
		src, err := extract.Load(path)
		if errors.Is(err, extract.ErrNoAST) || errors.Is(err, extract.ErrStaleAST) {
			logWarning("%v", err)
			st.skipped++
			continue
		}
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		st.files++

		res := visit.File(path, src.Program, src.Component, acc, opts)
		st.occurrences += len(res.Occurrences)
		st.diagnostics += len(res.Diagnostics)
		if ps.report {
			printResult(src.Text, res)
		}

		if ps.write && len(res.Occurrences) > 0 {
			out, applied, skipped, err := res.Fix(src.Text)
			if errors.Is(err, visit.ErrStaleTree) {
				logWarning("%v", err)
				st.files--
				st.skipped++
				continue
			}
			if err != nil {
				errs = multierror.Append(errs, fmt.Errorf("%s: %w", path, err))
				continue
			}
			if applied > 0 {
				if err := writeSource(path, out); err != nil {
					errs = multierror.Append(errs, err)
					continue
				}
				logSuccess(i18n.N("%s: %d literal wrapped", "%s: %d literals wrapped", applied), path, applied)
			}
			st.fixed += applied
			st.conflicts += skipped
		}

		if ps.diff && sync != nil {
			r, err := sync.Finalize(path, acc.Literals(path))
			if err != nil {
				errs = multierror.Append(errs, err)
			}
			st.added += r.Added
			st.removed += r.Removed
		}
	}
	return st, errs.ErrorOrNil()
}

// writeSource replaces path, keeping its permissions.
func writeSource(path string, data []byte) error {
	mode := os.FileMode(0644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := os.WriteFile(path, data, mode); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

var (
	locStyle  = color.New(color.Faint)
	kindStyle = color.New(color.FgYellow)
	fixStyle  = color.New(color.FgCyan)
)

func printResult(src []byte, res *visit.Result) {
	for _, d := range res.Diagnostics {
		fmt.Printf("%s %s\n", locStyle.Sprintf("%s:%d:%d", relPath(res.Path), d.Line, d.Column), color.RedString(d.Message))
	}
	for _, o := range res.Occurrences {
		line, col := visit.Position(src, o.Node.Range().Start)
		fix := ""
		if o.Fixable() {
			fix = " " + fixStyle.Sprint(i18n.T("(fixable)"))
		}
		fmt.Printf("%s %s%s\n", locStyle.Sprintf("%s:%d:%d", relPath(res.Path), line, col), kindStyle.Sprint(o.Message()), fix)
	}
}

// ---------------------------------------------------------------------------
// Diff-mode state
// ---------------------------------------------------------------------------

// openSync prepares the synchronizer and its lock file.
func (p *project) openSync() (*merge.Synchronizer, error) {
	lf, err := lockfile.Load(p.cfg.Root())
	if err != nil {
		return nil, err
	}
	return &merge.Synchronizer{
		Dir:     p.cfg.CatalogDir(),
		Format:  p.cfg.SaveFormat,
		Locales: p.cfg.TargetLocales,
		State:   lf,
	}, nil
}

// closeSync saves the lock file. After a full scan, entries of files that
// no longer exist are dropped.
func closeSync(sync *merge.Synchronizer, files []string, full bool) error {
	if full {
		sync.State.Clean(files)
	}
	return sync.State.Save()
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

// ---------------------------------------------------------------------------
// check
// ---------------------------------------------------------------------------

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check [files...]",
		Short: "Report literals that are not wrapped in a lookup call",
		Long: `Report every Chinese literal that is not wrapped in a lookup call.

Nothing is written. Exits with status 1 when anything is reported.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProject()
			if err != nil {
				return err
			}
			files, _, err := p.sources(args)
			if err != nil {
				return err
			}
			st, err := p.walk(files, pass{report: true}, nil, nil)
			if err != nil {
				return err
			}
			if st.occurrences+st.diagnostics == 0 {
				logSuccess(i18n.T("No occurrences found"))
				return nil
			}
			logWarning(i18n.N("%d occurrence in %d files", "%d occurrences in %d files", st.occurrences), st.occurrences, st.files)
			return errFound
		},
	}
}

// ---------------------------------------------------------------------------
// fix
// ---------------------------------------------------------------------------

func newFixCmd() *cobra.Command {
	var (
		noSync       bool
		apiKey       string
		skipInEditor bool
	)

	cmd := &cobra.Command{
		Use:   "fix [files...]",
		Short: "Wrap literals and update the catalogs",
		Long: `Rewrite every fixable occurrence into a lookup call, then update the
catalogs the way the configured mode does: diff mode patches each catalog as
files complete, hash mode machine-translates the collected literals at the
end of the run.

The syntax tree dumps are stale after a rewrite; regenerate them before the
next run. Files whose dump is older than the source, or no longer matches
it, are skipped with a warning.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProject()
			if err != nil {
				return err
			}
			files, full, err := p.sources(args)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("skip-in-editor") {
				p.cfg.SkipInEditor = &skipInEditor
			}

			ps := pass{write: true}
			if !noSync {
				ps.diff = p.cfg.Mode == config.ModeDiff
				ps.collect = p.cfg.Mode == config.ModeHash
			}
			return p.run(files, full, ps, apiKey)
		},
	}

	cmd.Flags().BoolVar(&noSync, "no-sync", false, "Only rewrite sources, leave the catalogs alone")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "API key (or LANGKIT_API_KEY env var)")
	cmd.Flags().BoolVar(&skipInEditor, "skip-in-editor", true, "Skip hash-mode collection when running inside VS Code")

	return cmd
}

// run executes one pass over files and the catalog stage it asks for.
func (p *project) run(files []string, full bool, ps pass, apiKey string) error {
	acc := visit.NewAccumulation()
	acc.SkipEntries = !ps.collect
	if ps.collect && *p.cfg.SkipInEditor && visit.EditorSession() {
		logWarning(i18n.T("Running inside VS Code: hash-mode collection skipped"))
		acc.SkipEntries = true
	}

	var sync *merge.Synchronizer
	if ps.diff {
		s, err := p.openSync()
		if err != nil {
			return err
		}
		sync = s
	}

	st, walkErr := p.walk(files, ps, acc, sync)

	if sync != nil {
		if err := closeSync(sync, files, full); err != nil {
			walkErr = multierror.Append(walkErr, err)
		}
	}

	summarize(st, ps)

	if ps.collect && !acc.SkipEntries {
		if err := p.translateEntries(acc, apiKey, false); err != nil {
			walkErr = multierror.Append(walkErr, err)
		}
	}
	return walkErr
}

func summarize(st stats, ps pass) {
	logInfo(i18n.N("%d file visited", "%d files visited", st.files), st.files)
	if st.skipped > 0 {
		logWarning(i18n.N("%d file skipped (missing or stale syntax tree dump)", "%d files skipped (missing or stale syntax tree dump)", st.skipped), st.skipped)
	}
	if ps.write {
		logInfo(i18n.T("Wrapped: %d of %d occurrences"), st.fixed, st.occurrences)
		if st.conflicts > 0 {
			logWarning(i18n.T("%d overlapping rewrites deferred; run fix again"), st.conflicts)
		}
	}
	if ps.diff {
		logInfo(i18n.T("Catalog entries added: %d, removed: %d"), st.added, st.removed)
	}
}

// ---------------------------------------------------------------------------
// sync
// ---------------------------------------------------------------------------

func newSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync [files...]",
		Short: "Update the catalogs from wrapped literals (diff mode)",
		Long: `Collect every wrapped literal and patch each target catalog: new
literals are added keyed by checksum, literals that disappeared since the
previous run are removed. The previous run is read from ` + lockfile.LockFileName + `.

Sources are not modified.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProject()
			if err != nil {
				return err
			}
			files, full, err := p.sources(args)
			if err != nil {
				return err
			}
			if p.cfg.Mode != config.ModeDiff {
				logWarning(i18n.T("Configured mode is %q; syncing in diff mode anyway"), p.cfg.Mode)
			}
			return p.run(files, full, pass{diff: true}, "")
		},
	}
}

// relPath shortens path against the project root for display.
func relPath(path string) string {
	if rel, err := filepath.Rel(rootDir, path); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return path
}
