package catalog

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/unfoldingWord-dev/uwcatalog/pkg/feeds"
)

// OBSProject is the project slug of Open Bible Stories.
const OBSProject = "obs"

// DefaultBooks is the fixed Bible book enumeration used for the project
// catalog. Order matters: it is the order rows appear in catalog.json.
var DefaultBooks = []string{
	"1ch", "1co", "1jn", "1ki", "1pe", "1sa", "1th", "1ti", "2ch",
	"2co", "2jn", "2ki", "2pe", "2sa", "2th", "2ti", "3jn", "act",
	"amo", "col", "dan", "deu", "ecc", "eph", "est", "exo", "ezk",
	"ezr", "gal", "gen", "hab", "hag", "heb", "hos", "jas", "jdg",
	"jer", "jhn", "job", "jol", "jon", "jos", "jud", "lam", "lev",
	"luk", "mal", "mat", "mic", "mrk", "nam", "neh", "num", "oba",
	"phm", "php", "pro", "rev", "rom", "rut", "sng", "tit", "zec",
	"zep", "isa", "psa",
}

// DefaultPairs are the Bible resources always included in a full run.
var DefaultPairs = []feeds.Pair{
	{Slug: "udb", Lang: "en"},
	{Slug: "ulb", Lang: "en"},
	{Slug: "avd", Lang: "ar"},
}

// Config is everything a run needs. It is built once and passed by value to
// every builder; nothing in it is mutated during a run.
type Config struct {
	OBSAPI        string // base of the OBS v1 source API
	OBSCatalogURL string
	OBSAudioURL   string
	TSAPI         string // public base of the generated ts catalogs
	TSRoot        string // local directory the ts catalogs are written to
	UWCatalogPath string // local path of the combined legacy catalog
	USFMAPI       string
	// StatusURL is a template; {short} and {lang} are substituted.
	StatusURL    string
	LanguagesURL string

	Pairs []feeds.Pair
	Books []string

	// Only scopes the run to a single resource when both halves are set.
	Only feeds.Pair

	DiscoveryRoot     string
	DiscoveryVersions []string

	// Now is the clock used for epoch-second tokens. Nil means time.Now.
	Now func() time.Time
}

func DefaultConfig() Config {
	return Config{
		OBSAPI:            "https://api.unfoldingword.org/obs/txt/1",
		OBSCatalogURL:     "https://api.unfoldingword.org/obs/txt/1/obs-catalog.json",
		OBSAudioURL:       "https://api.unfoldingword.org/obs/mp3/1/en/en-obs-v4/status.json",
		TSAPI:             "https://api.unfoldingword.org/ts/txt/2",
		TSRoot:            "/var/www/vhosts/api.unfoldingword.org/httpdocs/ts/txt/2",
		UWCatalogPath:     "/var/www/vhosts/api.unfoldingword.org/httpdocs/uw/txt/2/catalog.json",
		USFMAPI:           "https://api.unfoldingword.org",
		StatusURL:         "https://api.unfoldingword.org/{short}/txt/1/{short}-{lang}/status.json",
		LanguagesURL:      "http://td.unfoldingword.org/exports/langnames.json",
		Pairs:             append([]feeds.Pair(nil), DefaultPairs...),
		Books:             append([]string(nil), DefaultBooks...),
		DiscoveryRoot:     "/var/www/vhosts/api.unfoldingword.org/httpdocs",
		DiscoveryVersions: []string{"ulb", "udb"},
	}
}

// Scoped reports whether the run is limited to a single resource.
func (c Config) Scoped() bool {
	return c.Only.Slug != "" && c.Only.Lang != ""
}

// Validate checks the settings every run depends on.
func (c Config) Validate() error {
	for name, v := range map[string]string{
		"obs.api":          c.OBSAPI,
		"obs.catalog_url":  c.OBSCatalogURL,
		"obs.audio_url":    c.OBSAudioURL,
		"ts.api":           c.TSAPI,
		"ts.root":          c.TSRoot,
		"uw.catalog_path":  c.UWCatalogPath,
		"usfm.api":         c.USFMAPI,
		"bible.status_url": c.StatusURL,
		"languages.url":    c.LanguagesURL,
	} {
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("config: %s is empty", name)
		}
	}
	if !strings.Contains(c.StatusURL, "{lang}") {
		return fmt.Errorf("config: bible.status_url must contain {lang}")
	}
	seen := make(map[string]bool, len(c.Books))
	for _, bk := range c.Books {
		if seen[bk] {
			return fmt.Errorf("config: bible.books lists %q twice", bk)
		}
		seen[bk] = true
	}
	return nil
}

func (c Config) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c Config) statusURL(p feeds.Pair) string {
	return strings.NewReplacer("{short}", p.Short(), "{slug}", p.Slug, "{lang}", p.Lang).Replace(c.StatusURL)
}

// usfmURL is the unstamped location of a book's USFM source.
func (c Config) usfmURL(p feeds.Pair, bk, sort string) string {
	short := p.Short()
	return fmt.Sprintf("%s/%s/txt/1/%s-%s/%s-%s.usfm", strings.TrimRight(c.USFMAPI, "/"), short, short, p.Lang, sort, strings.ToUpper(bk))
}

func (c Config) tsURL(parts ...string) string {
	return strings.TrimRight(c.TSAPI, "/") + "/" + strings.Join(parts, "/")
}

func (c Config) tsPath(parts ...string) string {
	return filepath.Join(append([]string{c.TSRoot}, parts...)...)
}

func (c Config) obsURL(lang, file string) string {
	return fmt.Sprintf("%s/%s/%s", strings.TrimRight(c.OBSAPI, "/"), lang, file)
}
