package catalog

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"github.com/unfoldingWord-dev/uwcatalog/pkg/feeds"
)

const (
	testTSAPI  = "https://api.test/ts/txt/2"
	testOBSAPI = "https://api.test/obs/txt/1"
	testTSRoot = "/out/ts/txt/2"
	testUWPath = "/out/uw/txt/2/catalog.json"
)

var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// fakeWeb serves canned source documents and remembers what was asked for.
type fakeWeb struct {
	docs  map[string]string
	asked []string
}

func (w *fakeWeb) Fetch(_ context.Context, url string) (string, error) {
	w.asked = append(w.asked, url)
	body, ok := w.docs[url]
	if !ok {
		return "", fmt.Errorf("GET %s: HTTP 404", url)
	}
	return body, nil
}

func (w *fakeWeb) wasAsked(url string) bool {
	for _, u := range w.asked {
		if u == url {
			return true
		}
	}
	return false
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.OBSAPI = testOBSAPI
	cfg.OBSCatalogURL = testOBSAPI + "/obs-catalog.json"
	cfg.OBSAudioURL = "https://api.test/obs/mp3/1/en/en-obs-v4/status.json"
	cfg.TSAPI = testTSAPI
	cfg.TSRoot = testTSRoot
	cfg.UWCatalogPath = testUWPath
	cfg.USFMAPI = "https://api.test"
	cfg.StatusURL = "https://api.test/{short}/txt/1/{short}-{lang}/status.json"
	cfg.LanguagesURL = "https://td.test/exports/langnames.json"
	cfg.Pairs = []feeds.Pair{{Slug: "ulb", Lang: "en"}, {Slug: "udb", Lang: "en"}, {Slug: "avd", Lang: "ar"}}
	cfg.Books = []string{"gen", "mat"}
	cfg.DiscoveryRoot = ""
	cfg.Now = func() time.Time { return testNow }
	return cfg
}

func newFakeWeb() *fakeWeb {
	return &fakeWeb{docs: map[string]string{
		testOBSAPI + "/obs-catalog.json": `[
		  {"date_modified": "20150826", "direction": "ltr", "language": "fr", "status": {"checking_level": "1"}, "string": "français"},
		  {"date_modified": "20150901", "direction": "ltr", "language": "en", "status": {"checking_level": "3"}, "string": "English"}
		]`,
		testOBSAPI + "/en/obs-en-front-matter.json": `{"name": "Open Bible Stories", "tagline": "an unrestricted visual mini-Bible in any language"}`,
		testOBSAPI + "/fr/obs-fr-front-matter.json": `{"name": "Histoires Bibliques", "tagline": "une mini-Bible visuelle"}`,
		testOBSAPI + "/en/obs-en.json":              `{"date_modified": "20150910", "chapters": []}`,
		testOBSAPI + "/en/kt-en.json":               `[{"term": "God"}, {"date_modified": "20150801"}]`,
		testOBSAPI + "/en/tw_cat-en.json":           `{"date_modified": "20151001", "chapters": []}`,

		"https://td.test/exports/langnames.json": `[
		  {"lc": "ar", "ln": "العربية", "ld": "rtl", "gw": true},
		  {"lc": "en", "ln": "English", "ld": "ltr", "gw": true}
		]`,

		"https://api.test/ulb/txt/1/ulb-en/status.json": `{
		  "books_published": {
		    "mat": {"desc": "", "meta": ["Bible: NT"], "name": "Matthew", "sort": "41"},
		    "gen": {"desc": "", "meta": ["Bible: OT"], "name": "Genesis", "sort": "01"}
		  },
		  "date_modified": "20160706", "lang": "en", "name": "Unlocked Literal Bible", "slug": "ulb-en",
		  "status": {"checking_level": "3", "version": "7"}
		}`,
		"https://api.test/udb/txt/1/udb-en/status.json": `{
		  "books_published": {
		    "gen": {"desc": "", "meta": ["Bible: OT"], "name": "Genesis", "sort": "01"}
		  },
		  "date_modified": "20160601", "lang": "en", "name": "Unlocked Dynamic Bible", "slug": "udb-en",
		  "status": {"checking_level": "3", "version": "6"}
		}`,
		"https://api.test/avd/txt/1/avd-ar/status.json": `{
		  "books_published": {
		    "mat": {"desc": "", "meta": ["Bible: NT"], "name": "متى", "sort": "41"}
		  },
		  "date_modified": "20160110", "lang": "ar", "name": "Van Dyck", "slug": "avd-ar",
		  "status": {"checking_level": "3", "version": "1"}
		}`,

		testTSAPI + "/gen/en/ulb/source.json": `{"date_modified": "20160801", "chapters": []}`,
		testTSAPI + "/gen/en/notes.json":      `[{"id": "gen-01"}, {"date_modified": "20160901"}]`,
		testTSAPI + "/bible/en/terms.json":    `[{"date_modified": "20150101"}]`,
		testTSAPI + "/mat/ar/avd/source.json": `{"date_modified": "20160115"}`,

		"https://api.test/obs/mp3/1/en/en-obs-v4/status.json": `{"slug": "en-obs-v4", "bitrate": [64, 32], "date_modified": "20151010", "source_text": "en"}`,
	}}
}

// obsEntries parses the fixture OBS catalog.
func obsEntries(t *testing.T, web *fakeWeb) []feeds.OBSEntry {
	t.Helper()
	entries, err := feeds.ParseOBSCatalog(web.docs[testOBSAPI+"/obs-catalog.json"])
	require.NoError(t, err)
	return entries
}

// statusSet parses the fixture status feeds in configured order.
func statusSet(t *testing.T, cfg Config, web *fakeWeb) *StatusSet {
	t.Helper()
	set := NewStatusSet()
	for _, p := range cfg.Pairs {
		st, err := feeds.ParseStatus(web.docs[cfg.statusURL(p)])
		require.NoError(t, err)
		set.Add(p, st)
	}
	return set
}

func languageNames(t *testing.T, web *fakeWeb) feeds.Languages {
	t.Helper()
	names, err := feeds.ParseLanguageNames(web.docs["https://td.test/exports/langnames.json"])
	require.NoError(t, err)
	return names
}

// doc returns a written document as a gjson result.
func doc(t *testing.T, w *MemoryWriter, path string) gjson.Result {
	t.Helper()
	b, ok := w.File(path)
	require.True(t, ok, "%s was not written", path)
	return gjson.ParseBytes(b)
}

func epoch(date string) string {
	d, err := time.ParseInLocation("20060102", date, time.UTC)
	if err != nil {
		panic(err)
	}
	return fmt.Sprint(d.Unix())
}
