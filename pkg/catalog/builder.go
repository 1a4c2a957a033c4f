package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/unfoldingWord-dev/uwcatalog/pkg/feeds"
	"github.com/unfoldingWord-dev/uwcatalog/pkg/whttp"
)

var ErrNoLanguages = errors.New("no languages to catalog")

// Builder assembles the catalogs of one run.
type Builder struct {
	cfg   Config
	fetch whttp.Fetcher
	out   Writer
	log   Logger

	written []string
}

func NewBuilder(cfg Config, f whttp.Fetcher, w Writer, log Logger) *Builder {
	if log == nil {
		log = nopLogger{}
	}
	return &Builder{cfg: cfg, fetch: f, out: w, log: log}
}

// Written lists every path written so far, in write order.
func (b *Builder) Written() []string {
	return append([]string(nil), b.written...)
}

func (b *Builder) write(ctx context.Context, path, kind string, v any) error {
	if err := b.out.Write(ctx, Document{Path: path, Kind: kind, Value: v}); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	b.written = append(b.written, path)
	b.log.Debugf("Wrote %s", path)
	return nil
}

// fetchRequired fetches a feed the run cannot do without.
func (b *Builder) fetchRequired(ctx context.Context, url string) (string, error) {
	body, err := b.fetch.Fetch(ctx, url)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", url, err)
	}
	return body, nil
}

// StatusSet holds the status feed of every resource of the run, keyed by
// (slug, language), plus the resource order.
type StatusSet struct {
	Pairs  []feeds.Pair
	ByPair map[feeds.Pair]feeds.Status
}

func NewStatusSet() *StatusSet {
	return &StatusSet{ByPair: make(map[feeds.Pair]feeds.Status)}
}

// Add appends a resource. A pair already present is replaced in place.
func (s *StatusSet) Add(p feeds.Pair, st feeds.Status) {
	if _, ok := s.ByPair[p]; !ok {
		s.Pairs = append(s.Pairs, p)
	}
	s.ByPair[p] = st
}

// Languages returns the distinct resource languages in ascending order.
func (s *StatusSet) Languages() []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range s.Pairs {
		if !seen[p.Lang] {
			seen[p.Lang] = true
			out = append(out, p.Lang)
		}
	}
	sort.Strings(out)
	return out
}

// Books returns the union of published books: first the ones in the fixed
// enumeration order, then any others in code order.
func (s *StatusSet) Books(enumeration []string) []string {
	published := make(map[string]bool)
	for _, p := range s.Pairs {
		for code := range s.ByPair[p].Books {
			published[code] = true
		}
	}

	var out []string
	for _, bk := range enumeration {
		if published[bk] {
			out = append(out, bk)
			delete(published, bk)
		}
	}
	var rest []string
	for bk := range published {
		rest = append(rest, bk)
	}
	sort.Strings(rest)
	return append(out, rest...)
}
