package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/unfoldingWord-dev/uwcatalog/pkg/feeds"
	"github.com/unfoldingWord-dev/uwcatalog/pkg/version"
)

const audioLanguage = "en"

// bibleSection groups the resources by language, one version per resource.
func (b *Builder) bibleSection(set *StatusSet, seconds func(string) (version.Token, error)) (LegacySection, error) {
	section := LegacySection{Title: "Bible", Slug: "bible", Langs: []LegacyLanguage{}}
	index := make(map[string]int)

	for _, p := range set.Pairs {
		st := set.ByPair[p]
		mod, err := seconds(string(st.DateModified))
		if err != nil {
			return section, fmt.Errorf("%s: %w", p, err)
		}

		i, ok := index[p.Lang]
		if !ok {
			i = len(section.Langs)
			index[p.Lang] = i
			section.Langs = append(section.Langs, LegacyLanguage{LC: p.Lang, Mod: mod, Vers: []LegacyVersion{}})
		}
		lang := &section.Langs[i]
		lang.Mod = version.Max(lang.Mod, mod)

		ver := LegacyVersion{
			Name:   st.Name,
			Slug:   st.Slug,
			Mod:    mod,
			Status: st.Status,
			TOC:    []TOCEntry{},
		}
		for _, code := range st.BookCodes() {
			bk := st.Books[code]
			src := b.cfg.usfmURL(p, code, bk.Sort)
			ver.TOC = append(ver.TOC, TOCEntry{
				Title:  bk.Name,
				Slug:   code,
				Mod:    mod,
				Desc:   bk.Desc,
				Src:    src,
				SrcSig: strings.Replace(src, ".usfm", ".sig", 1),
				PDF:    strings.Replace(src, ".usfm", ".pdf", 1),
				sort:   bk.Sort,
			})
		}
		sortTOC(ver.TOC)
		lang.Vers = append(lang.Vers, ver)
	}

	sortLanguages(section.Langs)
	return section, nil
}

// media returns the media block of an OBS language. Only English has audio.
func (b *Builder) media(ctx context.Context, lc string) (*Media, error) {
	m := emptyMedia()
	if lc != audioLanguage {
		return m, nil
	}
	body, err := b.fetchRequired(ctx, b.cfg.OBSAudioURL)
	if err != nil {
		return nil, err
	}
	audio, err := feeds.ParseAudioStatus(body)
	if err != nil {
		return nil, err
	}
	m.Audio = audio
	return m, nil
}

func (b *Builder) obsSection(ctx context.Context, entries []feeds.OBSEntry, obsLangs []LanguageListing, seconds func(string) (version.Token, error)) (LegacySection, error) {
	section := LegacySection{Title: "Open Bible Stories", Slug: "obs", Langs: []LegacyLanguage{}}

	for _, e := range entries {
		lc := e.Language
		mod, err := seconds(string(e.DateModified))
		if err != nil {
			return section, fmt.Errorf("obs %s: %w", lc, err)
		}

		var name, desc string
		for _, l := range obsLangs {
			if l.Language.Slug == lc {
				name, desc = l.Project.Name, l.Project.Desc
			}
		}

		slug := "obs-" + lc
		src := b.cfg.obsURL(lc, slug+".json")
		media, err := b.media(ctx, lc)
		if err != nil {
			return section, fmt.Errorf("obs %s media: %w", lc, err)
		}

		section.Langs = append(section.Langs, LegacyLanguage{
			LC:  lc,
			Mod: mod,
			Vers: []LegacyVersion{{
				Name:   name,
				Slug:   slug,
				Mod:    mod,
				Status: e.Status,
				TOC: []TOCEntry{{
					Title:  "",
					Slug:   "",
					Media:  media,
					Mod:    mod,
					Desc:   desc,
					Src:    src,
					SrcSig: strings.Replace(src, ".json", ".sig", 1),
				}},
			}},
		})
	}

	sortLanguages(section.Langs)
	return section, nil
}

// BuildLegacy writes the combined uw catalog. Its mod values are epoch
// seconds; see version.Seconds for the same-day case.
func (b *Builder) BuildLegacy(ctx context.Context, obs []feeds.OBSEntry, set *StatusSet, obsLangs []LanguageListing) (*LegacyCatalog, error) {
	now := b.cfg.now()
	seconds := func(date string) (version.Token, error) { return version.Seconds(date, now) }

	bible, err := b.bibleSection(set, seconds)
	if err != nil {
		return nil, err
	}
	obsSec, err := b.obsSection(ctx, obs, obsLangs, seconds)
	if err != nil {
		return nil, err
	}

	var (
		mod   int64
		found bool
	)
	for _, sec := range []LegacySection{bible, obsSec} {
		for _, l := range sec.Langs {
			n, ok := l.Mod.Int()
			if !ok {
				continue
			}
			if !found || n > mod {
				mod, found = n, true
			}
		}
	}
	if !found {
		return nil, ErrNoLanguages
	}

	cat := &LegacyCatalog{Cat: []LegacySection{bible, obsSec}, Mod: mod}
	if err := b.write(ctx, b.cfg.UWCatalogPath, KindLegacy, cat); err != nil {
		return nil, err
	}
	return cat, nil
}
