package langmeta

import "testing"

func TestFlagFromRegion(t *testing.T) {
	cases := map[string]string{
		"us":  "🇺🇸",
		"BR":  "🇧🇷",
		"USA": "",
		"1A":  "",
		"":    "",
	}
	for in, want := range cases {
		if got := FlagFromRegion(in); got != want {
			t.Fatalf("FlagFromRegion(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestResolve(t *testing.T) {
	t.Run("underscore variant", func(t *testing.T) {
		got := Resolve("pt_BR")
		if got.Code != "pt-BR" || got.Flag != "🇧🇷" {
			t.Fatalf("unexpected result: %#v", got)
		}
	})

	t.Run("region is inferred", func(t *testing.T) {
		got := Resolve("fr")
		if got.Flag != "🇫🇷" || got.English != "French" {
			t.Fatalf("unexpected result: %#v", got)
		}
	})

	t.Run("unparseable passthrough", func(t *testing.T) {
		got := Resolve("not a locale")
		if got.Name != "not a locale" || got.Flag != "" {
			t.Fatalf("unexpected result: %#v", got)
		}
	})
}

func TestLabel(t *testing.T) {
	m := Meta{Code: "de", Name: "Deutsch", Flag: "🇩🇪"}
	if got := m.Label(); got != "🇩🇪 de (Deutsch)" {
		t.Fatalf("Label() = %q", got)
	}
	if got := (Meta{Code: "xx", Name: "xx"}).Label(); got != "xx" {
		t.Fatalf("Label() = %q", got)
	}
}
