package catalog

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/unfoldingWord-dev/uwcatalog/pkg/feeds"
)

// sourceLanguage is always covered by the default pairs, so discovery skips it.
const sourceLanguage = "en"

// ResolvePairs returns the Bible resources of a run: the single scoped
// resource, or the configured defaults plus every discovered language.
func ResolvePairs(cfg Config, log Logger) []feeds.Pair {
	if log == nil {
		log = nopLogger{}
	}
	if cfg.Scoped() {
		return []feeds.Pair{cfg.Only}
	}
	pairs := append([]feeds.Pair(nil), cfg.Pairs...)
	if cfg.DiscoveryRoot == "" {
		return pairs
	}
	return Discover(cfg.DiscoveryRoot, cfg.DiscoveryVersions, pairs, log)
}

// Discover scans <root>/<version>/txt/1/ for "<version>-<lang>" directories
// and appends each (version, lang) not already present.
func Discover(root string, versions []string, pairs []feeds.Pair, log Logger) []feeds.Pair {
	seen := make(map[feeds.Pair]bool, len(pairs))
	for _, p := range pairs {
		seen[p] = true
	}

	for _, ver := range versions {
		dir := filepath.Join(root, ver, "txt", "1")
		ents, err := os.ReadDir(dir)
		if err != nil {
			log.Debugf("Skipping discovery in %s: %v", dir, err)
			continue
		}
		for _, ent := range ents {
			lc, ok := strings.CutPrefix(ent.Name(), ver+"-")
			if !ent.IsDir() || !ok || lc == "" || lc == sourceLanguage {
				continue
			}
			p := feeds.Pair{Slug: ver, Lang: lc}
			if seen[p] {
				continue
			}
			seen[p] = true
			pairs = append(pairs, p)
			log.Debugf("Discovered %s", p)
		}
	}
	return pairs
}
