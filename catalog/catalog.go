// Package catalog implements reading and writing of flat JSON locale
// catalogs.
//
// The expected file format is:
//
//	{
//	    "a3f0c2e1": "你好",
//	    "5d41402a": "欢迎{name}"
//	}
//
// Keys are the CRC-32 checksum of the source text in lowercase hex (see
// Checksum); values are the display text for the catalog's locale. There
// is one file per locale: {dir}/{locale}.json.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"hash/crc32"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// Logger is the logger used by package catalog.
var Logger = zerolog.Nop()

// FormatJSON is the only supported catalog format.
const FormatJSON = "json"

// Checksum returns the catalog key for text: CRC-32 (IEEE) of its UTF-8
// bytes as lowercase hex without zero padding.
func Checksum(text string) string {
	return strconv.FormatUint(uint64(crc32.ChecksumIEEE([]byte(text))), 16)
}

// Path returns the catalog file path for locale.
func Path(dir, locale, format string) string {
	if format == "" {
		format = FormatJSON
	}
	return filepath.Join(dir, locale+"."+format)
}

// File is a parsed locale catalog. Key order is preserved from the file
// and new keys are appended.
type File struct {
	Translations map[string]string
	keys         []string
}

// New returns an empty catalog.
func New() *File {
	return &File{Translations: make(map[string]string)}
}

// ParseFile reads and parses a catalog file.
func ParseFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return Parse(data)
}

// Parse parses catalog JSON data. Empty input is an empty catalog.
func Parse(data []byte) (*File, error) {
	f := New()
	if len(strings.TrimSpace(string(data))) == 0 {
		return f, nil
	}
	if err := f.parseOrdered(data); err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}
	return f, nil
}

// Load reads the catalog at path. A missing file is an empty catalog; so
// is an unreadable or corrupt one, which is logged and then overwritten by
// the next write.
func Load(path string) *File {
	f, err := ParseFile(path)
	if err == nil {
		return f
	}
	if !errors.Is(err, fs.ErrNotExist) {
		Logger.Warn().Err(err).Str("path", path).Msg("Discarding unreadable catalog")
	}
	return New()
}

func (f *File) parseOrdered(data []byte) error {
	dec := json.NewDecoder(strings.NewReader(string(data)))

	// Read opening brace.
	t, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := t.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("expected {, got %v", t)
	}

	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := kt.(string)
		if !ok {
			return fmt.Errorf("expected string key, got %T", kt)
		}

		vt, err := dec.Token()
		if err != nil {
			return err
		}
		value, ok := vt.(string)
		if !ok {
			return fmt.Errorf("expected string value for key %q, got %T", key, vt)
		}
		f.Set(key, value)
	}
	return nil
}

// Keys returns the keys in file order.
func (f *File) Keys() []string {
	return f.keys
}

// Len returns the number of entries.
func (f *File) Len() int {
	return len(f.keys)
}

// Get returns the value for key.
func (f *File) Get(key string) (string, bool) {
	v, ok := f.Translations[key]
	return v, ok
}

// Set stores value under key, appending key if it is new.
func (f *File) Set(key, value string) {
	if _, ok := f.Translations[key]; !ok {
		f.keys = append(f.keys, key)
	}
	f.Translations[key] = value
}

// Add stores value only if key is absent. It reports whether it did.
func (f *File) Add(key, value string) bool {
	if _, ok := f.Translations[key]; ok {
		return false
	}
	f.Set(key, value)
	return true
}

// Delete removes key. It reports whether the key existed.
func (f *File) Delete(key string) bool {
	if _, ok := f.Translations[key]; !ok {
		return false
	}
	delete(f.Translations, key)
	for i, k := range f.keys {
		if k == key {
			f.keys = append(f.keys[:i], f.keys[i+1:]...)
			break
		}
	}
	return true
}

// Merge copies every entry of other over f, in other's key order.
func (f *File) Merge(other *File) {
	for _, k := range other.keys {
		f.Set(k, other.Translations[k])
	}
}

// UntranslatedKeys returns keys whose value is empty.
func (f *File) UntranslatedKeys() []string {
	var result []string
	for _, k := range f.keys {
		if f.Translations[k] == "" {
			result = append(result, k)
		}
	}
	return result
}

// WriteFile writes the catalog to disk, creating the directory if needed.
func (f *File) WriteFile(path string) error {
	data, err := f.Marshal()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// Marshal produces the JSON output with 4-space indentation, keeping key
// order.
func (f *File) Marshal() ([]byte, error) {
	if len(f.keys) == 0 {
		return []byte("{}\n"), nil
	}

	var b strings.Builder
	b.WriteString("{\n")
	for i, k := range f.keys {
		key, err := jsonString(k)
		if err != nil {
			return nil, err
		}
		value, err := jsonString(f.Translations[k])
		if err != nil {
			return nil, err
		}
		b.WriteString("    " + key + ": " + value)
		if i < len(f.keys)-1 {
			b.WriteByte(',')
		}
		b.WriteByte('\n')
	}
	b.WriteString("}\n")
	return []byte(b.String()), nil
}

// jsonString returns a JSON-encoded string without HTML escaping.
func jsonString(s string) (string, error) {
	var b strings.Builder
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return "", err
	}
	return strings.TrimSuffix(b.String(), "\n"), nil
}
