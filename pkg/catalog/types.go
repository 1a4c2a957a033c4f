package catalog

import (
	"encoding/json"
	"sort"

	"github.com/unfoldingWord-dev/uwcatalog/pkg/feeds"
	"github.com/unfoldingWord-dev/uwcatalog/pkg/version"
)

// OBSResource is the single entry of an OBS language's resources.json.
type OBSResource struct {
	Modified          version.Token   `json:"date_modified"`
	Status            json.RawMessage `json:"status"`
	Slug              string          `json:"slug"`
	Name              string          `json:"name"`
	Source            version.Link    `json:"source"`
	Terms             version.Link    `json:"terms"`
	Notes             version.Link    `json:"notes"`
	TWCat             version.Link    `json:"tw_cat"`
	CheckingQuestions version.Link    `json:"checking_questions"`
}

func (r OBSResource) DateModified() version.Token { return r.Modified }

func (r OBSResource) Links() []version.Link {
	return []version.Link{r.Source, r.Terms, r.Notes, r.TWCat, r.CheckingQuestions}
}

// BibleResource is one resource entry of a (book, language) resources.json.
type BibleResource struct {
	Modified          version.Token   `json:"date_modified"`
	Name              string          `json:"name"`
	Slug              string          `json:"slug"`
	Status            json.RawMessage `json:"status"`
	Source            version.Link    `json:"source"`
	USFM              version.Link    `json:"usfm"`
	Terms             version.Link    `json:"terms"`
	Notes             version.Link    `json:"notes"`
	TWCat             version.Link    `json:"tw_cat"`
	CheckingQuestions version.Link    `json:"checking_questions"`
}

func (r BibleResource) DateModified() version.Token { return r.Modified }

func (r BibleResource) Links() []version.Link {
	return []version.Link{r.Source, r.USFM, r.Terms, r.Notes, r.TWCat, r.CheckingQuestions}
}

// LanguageRef identifies the language of a listing entry.
type LanguageRef struct {
	Slug      string        `json:"slug"`
	Name      string        `json:"name"`
	Direction string        `json:"direction"`
	Modified  version.Token `json:"date_modified"`
}

// ProjectInfo describes the project (OBS or one Bible book) of a listing entry.
type ProjectInfo struct {
	Desc string          `json:"desc"`
	Meta json.RawMessage `json:"meta,omitempty"`
	Name string          `json:"name"`
	Sort string          `json:"sort,omitempty"`
}

// HasMeta reports whether the free-text meta field mentions sub.
func (p ProjectInfo) HasMeta(sub string) bool {
	return feeds.Book{Meta: p.Meta}.HasMeta(sub)
}

func projectFromBook(b feeds.Book) ProjectInfo {
	return ProjectInfo{Desc: b.Desc, Meta: b.Meta, Name: b.Name, Sort: b.Sort}
}

// LanguageListing is one row of a project's languages.json. Its version token
// lives on the nested language.
type LanguageListing struct {
	Language   LanguageRef  `json:"language"`
	Project    ProjectInfo  `json:"project"`
	ResCatalog version.Link `json:"res_catalog"`
}

func (l LanguageListing) DateModified() version.Token { return l.Language.Modified }

func (l LanguageListing) Links() []version.Link { return []version.Link{l.ResCatalog} }

// ProjectEntry is one row of the global ts catalog.
type ProjectEntry struct {
	Slug        string        `json:"slug"`
	Modified    version.Token `json:"date_modified"`
	LangCatalog version.Link  `json:"lang_catalog"`
	Sort        string        `json:"sort"`
	Meta        []string      `json:"meta"`
}

// LegacyCatalog is the combined uw catalog.
type LegacyCatalog struct {
	Cat []LegacySection `json:"cat"`
	Mod int64           `json:"mod"`
}

type LegacySection struct {
	Title string           `json:"title"`
	Slug  string           `json:"slug"`
	Langs []LegacyLanguage `json:"langs"`
}

type LegacyLanguage struct {
	LC   string          `json:"lc"`
	Mod  version.Token   `json:"mod"`
	Vers []LegacyVersion `json:"vers"`
}

type LegacyVersion struct {
	Name   string          `json:"name"`
	Slug   string          `json:"slug"`
	Mod    version.Token   `json:"mod"`
	Status json.RawMessage `json:"status"`
	TOC    []TOCEntry      `json:"toc"`
}

// TOCEntry is one book (or the single OBS row) of a version's table of
// contents. sort only orders rows while building and is never emitted.
type TOCEntry struct {
	Title  string        `json:"title"`
	Slug   string        `json:"slug"`
	Media  *Media        `json:"media,omitempty"`
	Mod    version.Token `json:"mod"`
	Desc   string        `json:"desc"`
	Src    string        `json:"src"`
	SrcSig string        `json:"src_sig"`
	PDF    string        `json:"pdf,omitempty"`

	sort string
}

type Media struct {
	Audio json.RawMessage `json:"audio"`
	Video json.RawMessage `json:"video"`
}

func emptyMedia() *Media {
	return &Media{Audio: json.RawMessage("{}"), Video: json.RawMessage("{}")}
}

func sortTOC(toc []TOCEntry) {
	sort.SliceStable(toc, func(i, j int) bool {
		if toc[i].sort != toc[j].sort {
			return toc[i].sort < toc[j].sort
		}
		return toc[i].Slug < toc[j].Slug
	})
}

func sortLanguages(langs []LegacyLanguage) {
	sort.SliceStable(langs, func(i, j int) bool { return langs[i].LC < langs[j].LC })
}

// Handoff carries what the resource stage produced to the later stages, so
// they don't have to read the just-written files back.
type Handoff struct {
	// Listings holds each project's language listing, keyed by project slug.
	Listings map[string][]LanguageListing
}

func newHandoff() *Handoff {
	return &Handoff{Listings: make(map[string][]LanguageListing)}
}

// OBSLanguages is the OBS language listing of this run.
func (h *Handoff) OBSLanguages() []LanguageListing {
	if h == nil {
		return nil
	}
	return h.Listings[OBSProject]
}
