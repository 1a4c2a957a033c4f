package catalog

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unfoldingWord-dev/uwcatalog/pkg/version"
)

// stagedHandoff runs the resource stages and returns what they hand over.
func stagedHandoff(t *testing.T, cfg Config, web *fakeWeb) *Handoff {
	t.Helper()
	b := NewBuilder(cfg, web, NewMemoryWriter(), nil)
	h := newHandoff()

	obs, err := b.BuildOBS(context.Background(), obsEntries(t, web))
	require.NoError(t, err)
	h.Listings[OBSProject] = obs

	bible, err := b.BuildBible(context.Background(), languageNames(t, web), statusSet(t, cfg, web))
	require.NoError(t, err)
	for bk, l := range bible {
		h.Listings[bk] = l
	}
	return h
}

func TestBuildProjects(t *testing.T) {
	cfg := testConfig()
	web := newFakeWeb()
	h := stagedHandoff(t, cfg, web)
	out := NewMemoryWriter()

	got, err := NewBuilder(cfg, web, out, nil).BuildProjects(context.Background(), h)
	require.NoError(t, err)

	want := []ProjectEntry{
		{
			Slug:        "obs",
			Modified:    "20150901",
			LangCatalog: version.Link{Base: testTSAPI + "/obs/languages.json", Token: "20150901"},
			Sort:        "01",
			Meta:        []string{},
		},
		{
			Slug:        "gen",
			Modified:    "20160901",
			LangCatalog: version.Link{Base: testTSAPI + "/gen/languages.json", Token: "20160901"},
			Sort:        "01",
			Meta:        []string{"bible-ot"},
		},
		{
			Slug:        "mat",
			Modified:    "20160706",
			LangCatalog: version.Link{Base: testTSAPI + "/mat/languages.json", Token: "20160706"},
			Sort:        "41",
			Meta:        []string{"bible-nt"},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("projects mismatch (-want +got):\n%s", diff)
	}

	cat := doc(t, out, testTSRoot+"/catalog.json")
	assert.Equal(t, "[]", cat.Get("0.meta").Raw)
	assert.Equal(t, testTSAPI+"/mat/languages.json?date_modified=20160706", cat.Get("2.lang_catalog").String())
	assert.False(t, web.wasAsked(testTSAPI+"/obs/languages.json"), "handed-over listings are not read back")
}

func TestBuildProjectsReadsBackMissingListings(t *testing.T) {
	cfg := testConfig()
	web := newFakeWeb()
	h := stagedHandoff(t, cfg, web)
	delete(h.Listings, "mat")
	web.docs[testTSAPI+"/mat/languages.json"] = `[
	  {"language": {"slug": "en", "name": "English", "direction": "ltr", "date_modified": "20150301"},
	   "project": {"desc": "", "meta": ["Bible: NT"], "name": "Matthew", "sort": "41"},
	   "res_catalog": "` + testTSAPI + `/mat/en/resources.json?date_modified=20150301"},
	  {"language": {"slug": "ru", "name": "русский", "direction": "ltr", "date_modified": "20151212"},
	   "project": {"desc": "", "meta": ["Bible: NT"], "name": "От Матфея", "sort": "41"},
	   "res_catalog": "` + testTSAPI + `/mat/ru/resources.json"}
	]`

	got, err := NewBuilder(cfg, web, NewMemoryWriter(), nil).BuildProjects(context.Background(), h)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.True(t, web.wasAsked(testTSAPI+"/mat/languages.json"))
	assert.Equal(t, version.Token("20151212"), got[2].Modified)
	assert.Equal(t, "41", got[2].Sort)
}

func TestBuildProjectsSkipsEmptyListings(t *testing.T) {
	cfg := testConfig()
	web := newFakeWeb()
	h := stagedHandoff(t, cfg, web)
	h.Listings["gen"] = []LanguageListing{}

	got, err := NewBuilder(cfg, web, NewMemoryWriter(), nil).BuildProjects(context.Background(), h)
	require.NoError(t, err)
	var slugs []string
	for _, e := range got {
		slugs = append(slugs, e.Slug)
	}
	assert.Equal(t, []string{"obs", "mat"}, slugs)
}

func TestBuildProjectsUnreachableListing(t *testing.T) {
	cfg := testConfig()
	web := newFakeWeb()
	h := stagedHandoff(t, cfg, web)
	delete(h.Listings, "gen")

	_, err := NewBuilder(cfg, web, NewMemoryWriter(), nil).BuildProjects(context.Background(), h)
	require.Error(t, err)
}

func TestNewestDateIsNumeric(t *testing.T) {
	listing := []LanguageListing{
		{Language: LanguageRef{Modified: "20160101"}},
		{Language: LanguageRef{Modified: "1451606400"}},
		{Language: LanguageRef{Modified: "20160101"}},
	}
	assert.Equal(t, version.Token("1451606400"), newestDate(listing))
}

func TestNewestDateIgnoresUnparseable(t *testing.T) {
	for _, listing := range [][]LanguageListing{
		{{Language: LanguageRef{Modified: "20160101"}}, {Language: LanguageRef{Modified: "n/a"}}},
		{{Language: LanguageRef{Modified: "n/a"}}, {Language: LanguageRef{Modified: "20160101"}}},
		{{Language: LanguageRef{Modified: ""}}, {Language: LanguageRef{Modified: "20160101"}}, {Language: LanguageRef{Modified: "2016-02-01"}}},
	} {
		assert.Equal(t, version.Token("20160101"), newestDate(listing))
	}
}
