// Package i18n localizes langkit's own messages.
//
// Translations are gettext .po files embedded in the binary:
//
//	locales/{locale}/LC_MESSAGES/langkit.po
//
// Init picks the embedded locale closest to the requested one, so that
// zh or zh-Hans-CN still land on zh_CN. Messages without a
// translation pass through unchanged.
package i18n

import (
	"embed"
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/leonelquinteros/gotext"
	"golang.org/x/text/language"
)

//go:embed all:locales
var locales embed.FS

const domain = "langkit"

var po *gotext.Locale

// Available returns the embedded locale directory names, sorted.
func Available() []string {
	entries, err := fs.ReadDir(locales, "locales")
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out
}

// Match returns the embedded locale that best serves lang, or "" when
// none is a reasonable match.
func Match(lang string) string {
	want, err := language.Parse(strings.ReplaceAll(lang, "_", "-"))
	if err != nil {
		return ""
	}
	avail := Available()
	if len(avail) == 0 {
		return ""
	}
	// English is the untranslated source; it wins ties with itself.
	tags := []language.Tag{language.English}
	for _, a := range avail {
		tag, err := language.Parse(strings.ReplaceAll(a, "_", "-"))
		if err != nil {
			tag = language.Und
		}
		tags = append(tags, tag)
	}
	_, idx, conf := language.NewMatcher(tags).Match(want)
	if idx == 0 || conf < language.High {
		return ""
	}
	return avail[idx-1]
}

// Init loads the messages for lang. An empty lang is detected from
// LANGUAGE, LC_ALL, LC_MESSAGES and LANG, in that order.
func Init(lang string) {
	if lang == "" {
		lang = detectLanguage()
	}
	matched := Match(lang)
	if matched == "" {
		po = nil
		return
	}
	po = gotext.NewLocaleFSWithPath(matched, locales, "locales")
	po.AddDomain(domain)
	po.SetDomain(domain)
}

// T translates a message.
func T(msgid string) string {
	if po == nil {
		return msgid
	}
	return po.Get(msgid)
}

// N translates a message with plural forms.
func N(singular, plural string, n int) string {
	if po == nil {
		if n == 1 {
			return singular
		}
		return plural
	}
	return po.GetN(singular, plural, n)
}

// detectLanguage follows GNU gettext: LANGUAGE > LC_ALL > LC_MESSAGES > LANG.
func detectLanguage() string {
	for _, env := range []string{"LANGUAGE", "LC_ALL", "LC_MESSAGES", "LANG"} {
		val := os.Getenv(env)
		if val == "" {
			continue
		}
		if env == "LANGUAGE" {
			val, _, _ = strings.Cut(val, ":")
		}
		// ru_RU.UTF-8 -> ru_RU
		val, _, _ = strings.Cut(val, ".")
		if val == "C" || val == "POSIX" || val == "" {
			continue
		}
		return val
	}
	return "en"
}
