// Package langmeta provides locale display metadata (names and emoji flags)
// for the CLI.
package langmeta

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Meta describes how a locale is shown to users.
type Meta struct {
	// Code is the canonical BCP 47 form, e.g. pt-BR.
	Code string
	// Name is the locale's name in its own language.
	Name string
	// English is the English name.
	English string
	// Flag is the emoji flag of the locale's region, "" when unknown.
	Flag string
}

// Label renders "flag code (Name)" for tables.
func (m Meta) Label() string {
	var b strings.Builder
	if m.Flag != "" {
		b.WriteString(m.Flag)
		b.WriteByte(' ')
	}
	b.WriteString(m.Code)
	if m.Name != "" && m.Name != m.Code {
		b.WriteString(" (" + m.Name + ")")
	}
	return b.String()
}

// Resolve returns best-effort metadata for a locale code. pt_BR, pt-br and
// pt-BR resolve alike; a locale without a region gets the flag of its most
// likely region. Unparseable codes pass through as their own name.
func Resolve(locale string) Meta {
	code := strings.ReplaceAll(strings.TrimSpace(locale), "_", "-")
	tag, err := language.Parse(code)
	if err != nil {
		return Meta{Code: locale, Name: locale}
	}
	m := Meta{Code: tag.String()}
	if n := display.Self.Name(tag); n != "" {
		m.Name = n
	}
	if n := display.English.Tags().Name(tag); n != "" {
		m.English = n
	}
	if region, conf := tag.Region(); conf >= language.Low {
		m.Flag = FlagFromRegion(region.String())
	}
	return m
}

// FlagFromRegion converts a two-letter region code to its regional
// indicator pair.
func FlagFromRegion(region string) string {
	if len(region) != 2 {
		return ""
	}
	region = strings.ToUpper(region)
	var b strings.Builder
	for _, r := range region {
		if r < 'A' || r > 'Z' {
			return ""
		}
		b.WriteRune(0x1F1E6 + (r - 'A'))
	}
	return b.String()
}
