// Package extract discovers the source files langkit processes and loads
// their syntax trees.
//
// langkit does not parse JavaScript or Vue. Every source file is expected
// to have a JSON dump of its tree next to it, written by an ESTree parser
// (vue-eslint-parser for .vue files):
//
//	src/App.vue
//	src/App.vue.ast.json
package extract

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/icase-intl/langkit/tree"
)

// ASTSuffix is appended to a source path to find its tree dump.
const ASTSuffix = ".ast.json"

var (
	// ErrNoAST is returned when a source file has no tree dump.
	ErrNoAST = errors.New("no syntax tree dump")
	// ErrStaleAST is returned when the source was modified after its tree
	// dump was written, as happens after fix.
	ErrStaleAST = errors.New("syntax tree dump is older than the source")
)

// SupportedExtensions maps file extensions to source kinds.
var SupportedExtensions = map[string]string{
	".js":  "JavaScript",
	".mjs": "JavaScript",
	".cjs": "JavaScript",
	".jsx": "JavaScript",
	".ts":  "TypeScript",
	".tsx": "TypeScript",
	".vue": "Vue",
}

// skipDirs contains directory names to skip during source file scanning.
var skipDirs = map[string]bool{
	".git":         true,
	".hg":          true,
	".svn":         true,
	"node_modules": true,
	"vendor":       true,
	"dist":         true,
	"build":        true,
	"coverage":     true,
	".nuxt":        true,
	".output":      true,
}

// IsSupported reports whether path has a supported extension.
func IsSupported(path string) bool {
	_, ok := SupportedExtensions[filepath.Ext(path)]
	return ok
}

// IsComponent reports whether path is a single-file component.
func IsComponent(path string) bool {
	return filepath.Ext(path) == ".vue"
}

// ASTPath returns the tree dump path for a source file.
func ASTPath(src string) string {
	return src + ASTSuffix
}

// FindSources recursively finds all source files with known extensions in
// paths. A path naming a file is taken as is. Skips common non-source
// directories (node_modules, .git, dist, etc.).
func FindSources(paths []string) ([]string, error) {
	var files []string
	seen := make(map[string]bool)

	add := func(p string) {
		p = filepath.Clean(p)
		if !seen[p] {
			seen[p] = true
			files = append(files, p)
		}
	}

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", root, err)
		}
		if !info.IsDir() {
			add(root)
			continue
		}
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil // skip unreadable entries
			}
			if d.IsDir() {
				if path != root && skipDirs[d.Name()] {
					return filepath.SkipDir
				}
				return nil
			}
			if IsSupported(path) {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", root, err)
		}
	}

	sort.Strings(files)
	return files, nil
}

// Source is a source file with its text and tree.
type Source struct {
	Path      string
	Text      []byte
	Program   *tree.Program
	Component bool
}

// Load reads a source file and its tree dump. Tree ranges are converted to
// byte offsets into Text. A dump older than its source is refused with
// ErrStaleAST.
func Load(path string) (*Source, error) {
	text, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	srcInfo, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	astPath := ASTPath(path)
	astInfo, err := os.Stat(astPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w (expected %s)", path, ErrNoAST, astPath)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", astPath, err)
	}
	if astInfo.ModTime().Before(srcInfo.ModTime()) {
		return nil, fmt.Errorf("%s: %w (regenerate %s)", path, ErrStaleAST, astPath)
	}
	prog, err := tree.DecodeFile(astPath)
	if err != nil {
		return nil, err
	}
	tree.Rebase(prog, text)
	return &Source{Path: path, Text: text, Program: prog, Component: IsComponent(path)}, nil
}

// FilesByLanguage groups source files by their kind.
func FilesByLanguage(files []string) map[string][]string {
	result := make(map[string][]string)
	for _, f := range files {
		if lang, ok := SupportedExtensions[filepath.Ext(f)]; ok {
			result[lang] = append(result[lang], f)
		}
	}
	return result
}

// DescribeFiles returns a human-readable summary of the source files found.
func DescribeFiles(files []string) string {
	byLang := FilesByLanguage(files)
	var parts []string
	// Sort for deterministic output
	var langs []string
	for lang := range byLang {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	for _, lang := range langs {
		parts = append(parts, fmt.Sprintf("%d %s", len(byLang[lang]), lang))
	}
	return strings.Join(parts, ", ")
}
