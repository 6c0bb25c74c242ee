// Package config loads .langkit.yaml, the project configuration file.
//
// The file lives in the project root and declares where catalogs are
// written, which locales to maintain, and how the run synchronizes them:
//
//	save_path: src/locales
//	target_locales: [zh-CN, en-US]
//	mode: diff
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// YAML schema
// ---------------------------------------------------------------------------

// File is the top-level .langkit.yaml structure.
type File struct {
	// SavePath is the catalog directory relative to the project root.
	SavePath string `yaml:"save_path"`
	// SaveFormat is the catalog extension; only "json" is supported.
	SaveFormat string `yaml:"save_format,omitempty"`
	// TargetLocales are the catalogs to maintain. Detected from existing
	// catalogs when empty.
	TargetLocales []string `yaml:"target_locales,omitempty"`
	// SourceLocale is copied through untranslated in hash mode.
	SourceLocale string `yaml:"source_locale,omitempty"`
	// ChunkSize is how many entries are sent per translation call.
	ChunkSize int `yaml:"chunk_size,omitempty"`
	// Mode is "diff" or "hash".
	Mode string `yaml:"mode,omitempty"`
	// Sources are directories or files scanned when no files are given.
	Sources []string `yaml:"sources,omitempty"`
	// Timeout bounds the batch translation stage.
	Timeout time.Duration `yaml:"timeout,omitempty"`
	// SkipInEditor disables hash-mode collection when VSCODE_PID is set.
	SkipInEditor *bool `yaml:"skip_in_editor,omitempty"`

	Lookup   Lookup   `yaml:"lookup,omitempty"`
	Provider Provider `yaml:"provider,omitempty"`

	root string
	path string
}

// Lookup names the lookup function per context.
type Lookup struct {
	Name          string `yaml:"name,omitempty"`
	ComponentName string `yaml:"component_name,omitempty"`
	ImportSource  string `yaml:"import_source,omitempty"`
}

// Provider selects the translation service for hash mode.
type Provider struct {
	ID      string  `yaml:"id,omitempty"`
	BaseURL string  `yaml:"base_url,omitempty"`
	Model   string  `yaml:"model,omitempty"`
	Proxy   string  `yaml:"proxy,omitempty"`
	RPS     float64 `yaml:"rps,omitempty"`
	Prompt  string  `yaml:"prompt,omitempty"`
}

// Modes.
const (
	ModeDiff = "diff"
	ModeHash = "hash"
)

// Defaults.
const (
	DefaultFormat    = "json"
	DefaultChunkSize = 100
	DefaultTimeout   = 10 * time.Minute
	DefaultProvider  = "openai"
)

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// FileName is the default config file name.
const FileName = ".langkit.yaml"

// Load loads and validates .langkit.yaml from the given directory.
// Returns nil if no .langkit.yaml exists.
func Load(rootDir string) (*File, error) {
	path := filepath.Join(rootDir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	f.root = rootDir
	f.path = path

	if len(f.TargetLocales) == 0 {
		f.TargetLocales = detectLocales(f.CatalogDir())
		if len(f.TargetLocales) == 0 {
			return nil, fmt.Errorf("%s: no target_locales and no catalogs found in %s", path, f.SavePath)
		}
	}
	return f, nil
}

// Parse decodes and validates configuration data, applying defaults.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing: %w", err)
	}
	f.applyDefaults()
	if err := f.validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *File) applyDefaults() {
	if f.SaveFormat == "" {
		f.SaveFormat = DefaultFormat
	}
	if f.ChunkSize == 0 {
		f.ChunkSize = DefaultChunkSize
	}
	if f.Mode == "" {
		f.Mode = ModeDiff
	}
	if len(f.Sources) == 0 {
		f.Sources = []string{"src"}
	}
	if f.Timeout == 0 {
		f.Timeout = DefaultTimeout
	}
	if f.SkipInEditor == nil {
		skip := true
		f.SkipInEditor = &skip
	}
	if f.Provider.ID == "" {
		f.Provider.ID = DefaultProvider
	}
}

func (f *File) validate() error {
	if f.SavePath == "" {
		return fmt.Errorf("save_path is required")
	}
	if f.SaveFormat != DefaultFormat {
		return fmt.Errorf("save_format %q is not supported (valid: json)", f.SaveFormat)
	}
	switch f.Mode {
	case ModeDiff, ModeHash:
	default:
		return fmt.Errorf("unknown mode %q (valid: diff, hash)", f.Mode)
	}
	if f.ChunkSize < 0 {
		return fmt.Errorf("chunk_size must be positive, got %d", f.ChunkSize)
	}
	if f.Provider.RPS < 0 {
		return fmt.Errorf("provider.rps must not be negative")
	}

	seen := make(map[string]bool, len(f.TargetLocales))
	for _, loc := range f.TargetLocales {
		if err := ValidateLocale(loc); err != nil {
			return fmt.Errorf("target_locales: %w", err)
		}
		if seen[loc] {
			return fmt.Errorf("target_locales: %q listed twice", loc)
		}
		seen[loc] = true
	}
	if f.SourceLocale != "" {
		if err := ValidateLocale(f.SourceLocale); err != nil {
			return fmt.Errorf("source_locale: %w", err)
		}
	}
	return nil
}

// ValidateLocale checks that locale is a well-formed BCP 47 tag.
func ValidateLocale(locale string) error {
	if _, err := language.Parse(locale); err != nil {
		return fmt.Errorf("invalid locale %q: %w", locale, err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Paths
// ---------------------------------------------------------------------------

// Path returns the file the configuration was loaded from.
func (f *File) Path() string {
	return f.path
}

// Root returns the project root.
func (f *File) Root() string {
	if f.root == "" {
		return "."
	}
	return f.root
}

// CatalogDir returns the catalog directory resolved against the root.
func (f *File) CatalogDir() string {
	return f.resolve(f.SavePath)
}

// SourcePaths returns the configured sources resolved against the root.
func (f *File) SourcePaths() []string {
	out := make([]string, len(f.Sources))
	for i, s := range f.Sources {
		out[i] = f.resolve(s)
	}
	return out
}

func (f *File) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(f.Root(), p)
}

// detectLocales finds locale names from existing JSON catalogs in dir.
func detectLocales(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	var locales []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, "."+DefaultFormat) {
			continue
		}
		loc := strings.TrimSuffix(name, "."+DefaultFormat)
		if ValidateLocale(loc) == nil {
			locales = append(locales, loc)
		}
	}
	sort.Strings(locales)
	return locales
}
