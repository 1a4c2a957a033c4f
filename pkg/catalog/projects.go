package catalog

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/unfoldingWord-dev/uwcatalog/pkg/version"
)

const obsSort = "01"

var metaTags = []struct {
	marker string
	tag    string
}{
	{"Bible: OT", "bible-ot"},
	{"Bible: NT", "bible-nt"},
}

// projectListing returns a project's language listing from this run, or
// reads the published one back when this run did not produce it.
func (b *Builder) projectListing(ctx context.Context, h *Handoff, project string) ([]LanguageListing, error) {
	if h != nil {
		if l, ok := h.Listings[project]; ok {
			return l, nil
		}
	}

	url := b.cfg.tsURL(project, "languages.json")
	body, err := b.fetchRequired(ctx, url)
	if err != nil {
		return nil, err
	}
	var listing []LanguageListing
	if err := json.Unmarshal([]byte(body), &listing); err != nil {
		return nil, fmt.Errorf("parse %s: %w", url, err)
	}
	b.log.Debugf("Read back %s (%d languages)", url, len(listing))
	return listing, nil
}

// newestDate returns the largest language date_modified of a listing.
// Unparseable dates never win over parseable ones.
func newestDate(listing []LanguageListing) version.Token {
	newest := listing[0].Language.Modified
	for _, l := range listing[1:] {
		newest = version.Max(newest, l.Language.Modified)
	}
	return newest
}

func metaFor(p ProjectInfo) []string {
	meta := []string{}
	for _, m := range metaTags {
		if p.HasMeta(m.marker) {
			meta = append(meta, m.tag)
		}
	}
	return meta
}

// BuildProjects writes the global project catalog: OBS first, then every
// Bible book in enumeration order.
func (b *Builder) BuildProjects(ctx context.Context, h *Handoff) ([]ProjectEntry, error) {
	projects := append([]string{OBSProject}, b.cfg.Books...)
	entries := []ProjectEntry{}

	for _, p := range projects {
		listing, err := b.projectListing(ctx, h, p)
		if err != nil {
			return nil, err
		}
		if len(listing) == 0 {
			b.log.Warnf("Project %s has no languages, leaving it out of the catalog", p)
			continue
		}

		newest := newestDate(listing)
		sortKey := obsSort
		if p != OBSProject {
			sortKey = listing[0].Project.Sort
		}

		entries = append(entries, ProjectEntry{
			Slug:        p,
			Modified:    newest,
			LangCatalog: version.Link{Base: b.cfg.tsURL(p, "languages.json"), Token: newest},
			Sort:        sortKey,
			Meta:        metaFor(listing[0].Project),
		})
	}

	if err := b.write(ctx, b.cfg.tsPath("catalog.json"), KindProjects, entries); err != nil {
		return nil, err
	}
	return entries, nil
}
