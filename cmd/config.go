package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"github.com/unfoldingWord-dev/uwcatalog/internal/utils"
	"github.com/unfoldingWord-dev/uwcatalog/pkg/catalog"
	"github.com/unfoldingWord-dev/uwcatalog/pkg/feeds"
	"github.com/unfoldingWord-dev/uwcatalog/pkg/whttp"
)

// loadConfig turns the viper settings into the run configuration and the
// fetcher options. Nothing reads viper after this.
func loadConfig(v *viper.Viper) (catalog.Config, whttp.Options, error) {
	cfg := catalog.Config{
		OBSAPI:            v.GetString("obs.api"),
		OBSCatalogURL:     v.GetString("obs.catalog_url"),
		OBSAudioURL:       v.GetString("obs.audio_url"),
		TSAPI:             v.GetString("ts.api"),
		TSRoot:            v.GetString("ts.root"),
		UWCatalogPath:     v.GetString("uw.catalog_path"),
		USFMAPI:           v.GetString("usfm.api"),
		StatusURL:         v.GetString("bible.status_url"),
		LanguagesURL:      v.GetString("languages.url"),
		Books:             bookCodes(v.GetStringSlice("bible.books")),
		DiscoveryRoot:     v.GetString("discovery.root"),
		DiscoveryVersions: v.GetStringSlice("discovery.versions"),
	}

	for _, s := range v.GetStringSlice("bible.slugs") {
		slug, lang, ok := utils.SplitPair(s)
		if !ok {
			return cfg, whttp.Options{}, fmt.Errorf("config: bible.slugs: %q is not slug/lang", s)
		}
		cfg.Pairs = append(cfg.Pairs, feeds.Pair{Slug: slug, Lang: lang})
	}
	if len(cfg.Books) == 0 {
		cfg.Books = append([]string(nil), catalog.DefaultBooks...)
	}

	opts := whttp.Options{
		UserAgent: v.GetString("fetch.user_agent"),
		Retries:   v.GetInt("fetch.retries"),
		Timeout:   v.GetDuration("fetch.timeout"),
		RPS:       v.GetFloat64("fetch.rps"),
	}
	if opts.Retries < 0 {
		return cfg, opts, fmt.Errorf("config: fetch.retries must not be negative")
	}
	return cfg, opts, cfg.Validate()
}

// bookCodes normalizes book codes to lower case and drops repeats,
// keeping the first position of each.
func bookCodes(ss []string) []string {
	out := make([]string, 0, len(ss))
	seen := make(map[string]bool, len(ss))
	for _, s := range ss {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
