package catalog

import (
	"context"
	"fmt"

	"github.com/unfoldingWord-dev/uwcatalog/pkg/feeds"
	"github.com/unfoldingWord-dev/uwcatalog/pkg/whttp"
)

// Result summarizes a run.
type Result struct {
	Pairs        []feeds.Pair
	OBSLanguages int
	Books        int
	Projects     int
	LegacyMod    int64
	Written      []string
}

// Run rebuilds every catalog from freshly fetched sources. Stages run one
// after another; a failing stage leaves the files of earlier stages in place.
func Run(ctx context.Context, cfg Config, f whttp.Fetcher, w Writer, log Logger) (*Result, error) {
	if log == nil {
		log = nopLogger{}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	b := NewBuilder(cfg, f, w, log)
	h := newHandoff()
	res := &Result{Pairs: ResolvePairs(cfg, log)}

	// OBS
	body, err := b.fetchRequired(ctx, cfg.OBSCatalogURL)
	if err != nil {
		return nil, err
	}
	obs, err := feeds.ParseOBSCatalog(body)
	if err != nil {
		return nil, err
	}
	log.Infof("Building OBS catalogs for %d languages", len(obs))
	obsLangs, err := b.BuildOBS(ctx, obs)
	if err != nil {
		return nil, err
	}
	h.Listings[OBSProject] = obsLangs
	res.OBSLanguages = len(obsLangs)

	// Bible
	body, err = b.fetchRequired(ctx, cfg.LanguagesURL)
	if err != nil {
		return nil, err
	}
	names, err := feeds.ParseLanguageNames(body)
	if err != nil {
		return nil, err
	}
	set, err := fetchStatuses(ctx, b, res.Pairs)
	if err != nil {
		return nil, err
	}
	log.Infof("Building Bible catalogs for %d resources", len(set.Pairs))
	bible, err := b.BuildBible(ctx, names, set)
	if err != nil {
		return nil, err
	}
	for bk, l := range bible {
		h.Listings[bk] = l
	}
	res.Books = len(bible)

	// Global
	projects, err := b.BuildProjects(ctx, h)
	if err != nil {
		return nil, err
	}
	res.Projects = len(projects)

	legacy, err := b.BuildLegacy(ctx, obs, set, h.OBSLanguages())
	if err != nil {
		return nil, err
	}
	res.LegacyMod = legacy.Mod
	res.Written = b.Written()

	log.Infof("Wrote %d catalog files", len(res.Written))
	return res, nil
}

func fetchStatuses(ctx context.Context, b *Builder, pairs []feeds.Pair) (*StatusSet, error) {
	set := NewStatusSet()
	for _, p := range pairs {
		body, err := b.fetchRequired(ctx, b.cfg.statusURL(p))
		if err != nil {
			return nil, fmt.Errorf("status of %s: %w", p, err)
		}
		st, err := feeds.ParseStatus(body)
		if err != nil {
			return nil, fmt.Errorf("status of %s: %w", p, err)
		}
		set.Add(p, st)
	}
	return set, nil
}
