package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/icase-intl/langkit/catalog"
	"github.com/icase-intl/langkit/config"
	"github.com/icase-intl/langkit/extract"
	"github.com/icase-intl/langkit/i18n"
	"github.com/icase-intl/langkit/langmeta"
	"github.com/icase-intl/langkit/lockfile"
	"github.com/icase-intl/langkit/translate"
	"github.com/spf13/cobra"
)

// ---------------------------------------------------------------------------
// status (read-only: configuration + catalog stats)
// ---------------------------------------------------------------------------

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show configuration and catalog statistics",
		Long: `Show the loaded configuration, the discovered sources and, per target
locale, how many catalog entries exist and how many are still empty.
Does not modify any files.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProject()
			if err != nil {
				return err
			}
			runStatus(p.cfg)
			return nil
		},
	}
}

var headerStyle = color.New(color.FgBlue)

func runStatus(cfg *config.File) {
	headerStyle.Fprintln(os.Stderr, "\n"+i18n.T("Project"))
	fmt.Fprintln(os.Stderr, strings.Repeat("─", 60))

	absRoot, _ := filepath.Abs(cfg.Root())
	fmt.Fprintf(os.Stderr, "  Root:       %s\n", absRoot)
	fmt.Fprintf(os.Stderr, "  Config:     %s\n", relPath(cfg.Path()))
	fmt.Fprintf(os.Stderr, "  Mode:       %s\n", cfg.Mode)
	fmt.Fprintf(os.Stderr, "  Catalogs:   %s\n", relPath(cfg.CatalogDir()))
	fmt.Fprintf(os.Stderr, "  Sources:    %s\n", strings.Join(cfg.Sources, ", "))

	if files, err := extract.FindSources(cfg.SourcePaths()); err == nil {
		fmt.Fprintf(os.Stderr, "  Files:      %s\n", extract.DescribeFiles(files))
	}
	if cfg.Mode == config.ModeHash {
		prov := translate.ResolveProvider(translate.Provider{ID: cfg.Provider.ID, Model: cfg.Provider.Model})
		fmt.Fprintf(os.Stderr, "  Provider:   %s (%s)\n", prov.Name, prov.Model)
	}
	if lf, err := lockfile.Load(cfg.Root()); err == nil {
		fmt.Fprintf(os.Stderr, "  Lock:       %s\n", lf.Summary())
	}
	fmt.Fprintln(os.Stderr)

	showCatalogStats(cfg)
}

// showCatalogStats prints one row per target locale. Coverage is measured
// against the largest catalog, or the source locale's when configured.
func showCatalogStats(cfg *config.File) {
	files := make(map[string]*catalog.File, len(cfg.TargetLocales))
	reference := 0
	for _, loc := range cfg.TargetLocales {
		path := catalog.Path(cfg.CatalogDir(), loc, cfg.SaveFormat)
		f, err := catalog.ParseFile(path)
		if err != nil {
			continue
		}
		files[loc] = f
		if loc == cfg.SourceLocale || (cfg.SourceLocale == "" && f.Len() > reference) {
			reference = f.Len()
		}
	}

	headerStyle.Fprintln(os.Stderr, i18n.T("Catalogs"))
	fmt.Fprintln(os.Stderr, strings.Repeat("─", 60))
	width := langColumnWidth(cfg.TargetLocales)
	for _, loc := range cfg.TargetLocales {
		f, ok := files[loc]
		if !ok {
			fmt.Fprintf(os.Stderr, "  %s  %s\n", langCell(loc, width), color.RedString(i18n.T("missing")))
			continue
		}
		filled := f.Len() - len(f.UntranslatedKeys())
		percent := 0
		if reference > 0 {
			percent = filled * 100 / reference
		}
		fmt.Fprintf(os.Stderr, "  %s  %s  %d/%d\n", langCell(loc, width), progressBar(percent, 20), filled, reference)
	}
	fmt.Fprintln(os.Stderr)
}

// progressBar renders a colored bar followed by the right-aligned percent.
func progressBar(percent, width int) string {
	percent = max(0, min(percent, 100))
	filled := percent * width / 100
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)

	c := color.New(color.FgRed)
	switch {
	case percent >= 100:
		c = color.New(color.FgGreen)
	case percent >= 50:
		c = color.New(color.FgYellow)
	}
	return c.Sprint(bar) + fmt.Sprintf(" %3d%%", percent)
}

func langColumnWidth(locales []string) int {
	w := 0
	for _, l := range locales {
		w = max(w, len(l))
	}
	return w
}

// langCell renders a flag and the locale code padded to width.
func langCell(locale string, width int) string {
	flag := langmeta.Resolve(locale).Flag
	if flag == "" {
		flag = "  "
	}
	return flag + " " + fmt.Sprintf("%-*s", width, locale)
}
