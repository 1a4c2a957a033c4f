package catalog

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/unfoldingWord-dev/uwcatalog/pkg/feeds"
	"github.com/unfoldingWord-dev/uwcatalog/pkg/version"
)

const (
	obsSlug = "obs"
	obsName = "Open Bible Stories"
)

// BuildOBS writes one resources.json per OBS language and the OBS language
// listing, keeping the order of the OBS catalog.
func (b *Builder) BuildOBS(ctx context.Context, entries []feeds.OBSEntry) ([]LanguageListing, error) {
	listing := []LanguageListing{}

	for _, e := range entries {
		lc := e.Language
		body, err := b.fetchRequired(ctx, b.cfg.obsURL(lc, fmt.Sprintf("obs-%s-front-matter.json", lc)))
		if err != nil {
			return nil, err
		}
		front, err := feeds.ParseFrontMatter(body)
		if err != nil {
			return nil, fmt.Errorf("obs %s: %w", lc, err)
		}

		res := OBSResource{
			Modified:          e.DateModified,
			Status:            e.Status,
			Slug:              obsSlug,
			Name:              obsName,
			Source:            version.AddDate(ctx, b.fetch, b.cfg.obsURL(lc, fmt.Sprintf("obs-%s.json", lc))),
			Terms:             version.AddDate(ctx, b.fetch, b.cfg.obsURL(lc, fmt.Sprintf("kt-%s.json", lc))),
			Notes:             version.AddDate(ctx, b.fetch, b.cfg.obsURL(lc, fmt.Sprintf("tN-%s.json", lc))),
			TWCat:             version.AddDate(ctx, b.fetch, b.cfg.obsURL(lc, fmt.Sprintf("tw_cat-%s.json", lc))),
			CheckingQuestions: version.AddDate(ctx, b.fetch, b.cfg.obsURL(lc, fmt.Sprintf("CQ-%s.json", lc))),
		}
		res.Modified = version.MostRecent(res)

		if err := b.write(ctx, b.cfg.tsPath(OBSProject, lc, "resources.json"), KindResources, []OBSResource{res}); err != nil {
			return nil, err
		}

		listing = append(listing, LanguageListing{
			Language: LanguageRef{
				Slug:      lc,
				Name:      e.Name,
				Direction: e.Direction,
				Modified:  e.DateModified,
			},
			Project: ProjectInfo{
				Name: front.Name,
				Desc: front.Tagline,
				Meta: json.RawMessage("[]"),
			},
			ResCatalog: version.Link{
				Base:  b.cfg.tsURL(OBSProject, lc, "resources.json"),
				Token: res.Modified,
			},
		})
		b.log.Debugf("OBS %s: date_modified=%s", lc, res.Modified)
	}

	if err := b.write(ctx, b.cfg.tsPath(OBSProject, "languages.json"), KindLanguages, listing); err != nil {
		return nil, err
	}
	return listing, nil
}

// bibleResource builds the resource entry of one Bible resource for one book.
func (b *Builder) bibleResource(ctx context.Context, p feeds.Pair, bk string, st feeds.Status) BibleResource {
	source := version.AddDate(ctx, b.fetch, b.cfg.tsURL(bk, p.Lang, p.Slug, "source.json"))

	res := BibleResource{
		Modified: st.DateModified,
		Name:     st.Name,
		// Status feeds may carry a language suffix in their own slug.
		Slug:   p.Slug,
		Status: st.Status,
		Source: source,
		// The USFM file is versioned together with the source it was built from.
		USFM:              version.Link{Base: b.cfg.usfmURL(p, bk, st.Books[bk].Sort), Token: source.Token},
		Terms:             version.AddDate(ctx, b.fetch, b.cfg.tsURL("bible", p.Lang, "terms.json")),
		Notes:             version.AddDate(ctx, b.fetch, b.cfg.tsURL(bk, p.Lang, "notes.json")),
		TWCat:             version.AddDate(ctx, b.fetch, b.cfg.tsURL(bk, p.Lang, "tw_cat.json")),
		CheckingQuestions: version.AddDate(ctx, b.fetch, b.cfg.tsURL(bk, p.Lang, "questions.json")),
	}
	res.Modified = version.MostRecent(res)
	return res
}

// resourcesToken is the token a link to a written resources list carries:
// the date_modified of its first entry.
func resourcesToken(res []BibleResource) version.Token {
	for _, r := range res {
		if r.Modified != "" {
			return r.Modified
		}
	}
	return ""
}

// BuildBible writes one resources.json per (book, language) and one
// languages.json per book. It returns the language listings keyed by book.
func (b *Builder) BuildBible(ctx context.Context, names feeds.Languages, set *StatusSet) (map[string][]LanguageListing, error) {
	books := set.Books(b.cfg.Books)
	langs := set.Languages()
	written := make(map[string][]BibleResource)

	for _, bk := range books {
		for _, lang := range langs {
			resources := []BibleResource{}
			for _, p := range set.Pairs {
				if p.Lang != lang {
					continue
				}
				st := set.ByPair[p]
				if !st.Publishes(bk) {
					continue
				}
				resources = append(resources, b.bibleResource(ctx, p, bk, st))
			}
			if err := b.write(ctx, b.cfg.tsPath(bk, lang, "resources.json"), KindResources, resources); err != nil {
				return nil, err
			}
			written[bk+"/"+lang] = resources
		}
	}

	listings := make(map[string][]LanguageListing, len(books))
	for _, bk := range books {
		listing := []LanguageListing{}
		for _, lang := range langs {
			for _, p := range set.Pairs {
				if p.Lang != lang {
					continue
				}
				st := set.ByPair[p]
				if !st.Publishes(bk) {
					continue
				}

				info, err := names.Lookup(lang)
				if err != nil {
					return nil, fmt.Errorf("%s %s: %w", bk, p, err)
				}
				entry := LanguageListing{
					Language: LanguageRef{
						Slug:      info.Code,
						Name:      info.Name,
						Direction: info.Direction,
						Modified:  st.DateModified,
					},
					Project: projectFromBook(st.Books[bk]),
					ResCatalog: version.Link{
						Base:  b.cfg.tsURL(bk, info.Code, "resources.json"),
						Token: resourcesToken(written[bk+"/"+lang]),
					},
				}
				entry.Language.Modified = version.MostRecent(entry)
				listing = append(listing, entry)
				// First resource of a language wins.
				break
			}
		}
		if err := b.write(ctx, b.cfg.tsPath(bk, "languages.json"), KindLanguages, listing); err != nil {
			return nil, err
		}
		listings[bk] = listing
	}
	return listings, nil
}
