package catalog

import (
	"testing"
	"testing/fstest"
)

func TestLoadEmbeddedHasExpectedLocales(t *testing.T) {
	bundle, err := LoadEmbedded()
	if err != nil {
		t.Fatalf("load embedded catalogs: %v", err)
	}
	for _, locale := range []string{"en-US", "pt-PT"} {
		if !bundle.HasLocale(locale) {
			t.Fatalf("expected locale %s", locale)
		}
	}
	if _, ok := bundle.Message("en-US", "story.notice.stats_unavailable"); !ok {
		t.Fatal("expected stats notice message")
	}
}

func TestMessageFallsBackToBaseLocale(t *testing.T) {
	bundle, err := LoadEmbedded()
	if err != nil {
		t.Fatalf("load embedded catalogs: %v", err)
	}
	want, _ := bundle.Message(BaseLocale, "story.gauge.zone.low")
	got, ok := bundle.Message("fr-FR", "story.gauge.zone.low")
	if !ok || got != want {
		t.Fatalf("fallback message = %q (%v), want %q", got, ok, want)
	}
}

func TestPrinterFormatsGroupedNumbers(t *testing.T) {
	p := Default().Printer("en-US")
	if got := p.Sprintf("story.marker.listings", 12345); got != "12,345 listings" {
		t.Fatalf("listings = %q", got)
	}
	if got := Default().Printer("xx").Sprintf("story.gauge.share", 4.25); got != "4.2%" && got != "4.3%" {
		t.Fatalf("share = %q", got)
	}
}

func TestMatchAcceptLanguage(t *testing.T) {
	bundle := Default()
	cases := map[string]string{
		"pt-PT,pt;q=0.9": "pt-PT",
		"en-GB":          "en-US",
		"":               "en-US",
		"ja":             "en-US",
	}
	for header, want := range cases {
		if got := bundle.Match(header); got != want {
			t.Fatalf("Match(%q) = %q, want %q", header, got, want)
		}
	}
}

func TestLoadFromFSRejectsKeyOutsideNamespace(t *testing.T) {
	fsys := fstest.MapFS{
		"locales/en-US/story.yaml": &fstest.MapFile{Data: []byte(`locale: "en-US"
namespace: "story"
messages:
  "other.bad": "nope"
`)},
	}
	if _, err := LoadFromFS(fsys); err == nil {
		t.Fatal("expected namespace prefix error")
	}
}

func TestLoadFromFSRejectsLocaleMismatch(t *testing.T) {
	fsys := fstest.MapFS{
		"locales/en-US/story.yaml": &fstest.MapFile{Data: []byte(`locale: "pt-PT"
namespace: "story"
messages:
  "story.a": "a"
`)},
	}
	if _, err := LoadFromFS(fsys); err == nil {
		t.Fatal("expected locale mismatch error")
	}
}

func TestLoadFromFSRequiresBaseLocale(t *testing.T) {
	fsys := fstest.MapFS{
		"locales/pt-PT/story.yaml": &fstest.MapFile{Data: []byte(`locale: "pt-PT"
namespace: "story"
messages:
  "story.a": "a"
`)},
	}
	if _, err := LoadFromFS(fsys); err == nil {
		t.Fatal("expected missing base locale error")
	}
}

func TestParseCatalogFileErrors(t *testing.T) {
	cases := map[string]string{
		"no messages":       "locale: \"en-US\"\nnamespace: \"story\"\n",
		"stray line":        "garbage\n",
		"unterminated key":  "locale: \"en-US\"\nnamespace: \"story\"\nmessages:\n  \"story.a: \"x\"\n",
		"missing separator": "locale: \"en-US\"\nnamespace: \"story\"\nmessages:\n  \"story.a\" \"x\"\n",
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := parseCatalogFile([]byte(input)); err == nil {
				t.Fatal("expected parse error")
			}
		})
	}
}
