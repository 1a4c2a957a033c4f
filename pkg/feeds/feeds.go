// Package feeds parses the upstream source feeds (OBS catalog, front matter,
// language names, per-resource status and audio status) into typed records.
package feeds

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"github.com/unfoldingWord-dev/uwcatalog/pkg/version"
)

var (
	ErrMalformed       = errors.New("malformed feed")
	ErrMissingField    = errors.New("missing field")
	ErrUnknownLanguage = errors.New("unknown language code")
)

// Pair identifies one Bible resource: a resource slug in one language.
type Pair struct {
	Slug string
	Lang string
}

// Short is the slug up to its first dash ("ulb-x" -> "ulb").
func (p Pair) Short() string {
	short, _, _ := strings.Cut(p.Slug, "-")
	return short
}

func (p Pair) String() string { return p.Slug + "/" + p.Lang }

// OBSEntry is one language row of the global OBS catalog.
type OBSEntry struct {
	Language     string
	Name         string
	Direction    string
	DateModified version.Token
	Status       json.RawMessage
}

// FrontMatter carries the project title and tagline of an OBS language.
type FrontMatter struct {
	Name    string
	Tagline string
}

// Language is one row of the language names feed.
type Language struct {
	Code      string
	Name      string
	Direction string
}

// Languages is the language names feed in feed order.
type Languages []Language

// Book describes one published book of a Bible resource.
type Book struct {
	Desc string          `json:"desc"`
	Meta json.RawMessage `json:"meta,omitempty"`
	Name string          `json:"name"`
	Sort string          `json:"sort"`
}

// Status is the per (slug, language) status feed of a Bible resource.
type Status struct {
	Name         string
	Slug         string
	Lang         string
	DateModified version.Token
	Status       json.RawMessage
	Books        map[string]Book
}

func parseDoc(body, what string) (gjson.Result, error) {
	if !gjson.Valid(body) {
		return gjson.Result{}, fmt.Errorf("%s: %w", what, ErrMalformed)
	}
	return gjson.Parse(body), nil
}

func required(r gjson.Result, key, what string) (gjson.Result, error) {
	v := r.Get(key)
	if !v.Exists() {
		return v, fmt.Errorf("%s: %q: %w", what, key, ErrMissingField)
	}
	return v, nil
}

// raw returns the raw JSON of r, or null when it doesn't exist.
func raw(r gjson.Result) json.RawMessage {
	if !r.Exists() {
		return json.RawMessage("null")
	}
	return json.RawMessage(r.Raw)
}

// ParseOBSCatalog parses the global OBS catalog, preserving feed order.
func ParseOBSCatalog(body string) ([]OBSEntry, error) {
	doc, err := parseDoc(body, "obs catalog")
	if err != nil {
		return nil, err
	}
	if !doc.IsArray() {
		return nil, fmt.Errorf("obs catalog: expected a list: %w", ErrMalformed)
	}

	var entries []OBSEntry
	for i, e := range doc.Array() {
		what := fmt.Sprintf("obs catalog entry %d", i)
		var fields [4]gjson.Result
		for j, key := range []string{"language", "string", "direction", "date_modified"} {
			if fields[j], err = required(e, key, what); err != nil {
				return nil, err
			}
		}
		entries = append(entries, OBSEntry{
			Language:     fields[0].String(),
			Name:         fields[1].String(),
			Direction:    fields[2].String(),
			DateModified: version.Token(fields[3].String()),
			Status:       raw(e.Get("status")),
		})
	}
	return entries, nil
}

// ParseFrontMatter parses an OBS front matter document.
func ParseFrontMatter(body string) (FrontMatter, error) {
	doc, err := parseDoc(body, "front matter")
	if err != nil {
		return FrontMatter{}, err
	}
	name, err := required(doc, "name", "front matter")
	if err != nil {
		return FrontMatter{}, err
	}
	tagline, err := required(doc, "tagline", "front matter")
	if err != nil {
		return FrontMatter{}, err
	}
	return FrontMatter{Name: name.String(), Tagline: tagline.String()}, nil
}

// ParseLanguageNames parses the language names export. Rows without a code
// are dropped.
func ParseLanguageNames(body string) (Languages, error) {
	doc, err := parseDoc(body, "language names")
	if err != nil {
		return nil, err
	}
	if !doc.IsArray() {
		return nil, fmt.Errorf("language names: expected a list: %w", ErrMalformed)
	}

	var out Languages
	doc.ForEach(func(_, row gjson.Result) bool {
		lc := row.Get("lc").String()
		if lc == "" {
			return true
		}
		out = append(out, Language{
			Code:      lc,
			Name:      row.Get("ln").String(),
			Direction: row.Get("ld").String(),
		})
		return true
	})
	return out, nil
}

// Lookup returns the first language with the given code.
func (ls Languages) Lookup(code string) (Language, error) {
	for _, l := range ls {
		if l.Code == code {
			return l, nil
		}
	}
	return Language{}, fmt.Errorf("%q: %w", code, ErrUnknownLanguage)
}

// ParseStatus parses a Bible resource status feed.
func ParseStatus(body string) (Status, error) {
	doc, err := parseDoc(body, "status")
	if err != nil {
		return Status{}, err
	}

	var fields [4]gjson.Result
	for i, key := range []string{"name", "slug", "date_modified", "books_published"} {
		if fields[i], err = required(doc, key, "status"); err != nil {
			return Status{}, err
		}
	}
	if !fields[3].IsObject() {
		return Status{}, fmt.Errorf("status: books_published is not an object: %w", ErrMalformed)
	}

	st := Status{
		Name:         fields[0].String(),
		Slug:         fields[1].String(),
		DateModified: version.Token(fields[2].String()),
		Lang:         doc.Get("lang").String(),
		Status:       raw(doc.Get("status")),
		Books:        make(map[string]Book),
	}
	fields[3].ForEach(func(code, b gjson.Result) bool {
		bk := Book{
			Name: b.Get("name").String(),
			Sort: b.Get("sort").String(),
			Desc: b.Get("desc").String(),
		}
		if m := b.Get("meta"); m.Exists() {
			bk.Meta = json.RawMessage(m.Raw)
		}
		st.Books[code.String()] = bk
		return true
	})
	return st, nil
}

// Publishes reports whether the status lists book code bk.
func (s Status) Publishes(bk string) bool {
	_, ok := s.Books[bk]
	return ok
}

// BookCodes returns the published book codes ordered by their sort key,
// falling back to the code itself when sort keys tie.
func (s Status) BookCodes() []string {
	codes := make([]string, 0, len(s.Books))
	for code := range s.Books {
		codes = append(codes, code)
	}
	sort.SliceStable(codes, func(i, j int) bool {
		a, b := s.Books[codes[i]], s.Books[codes[j]]
		if a.Sort != b.Sort {
			return a.Sort < b.Sort
		}
		return codes[i] < codes[j]
	})
	return codes
}

// HasMeta reports whether the book's meta (a string or a list of strings)
// contains sub.
func (b Book) HasMeta(sub string) bool {
	if len(b.Meta) == 0 {
		return false
	}
	m := gjson.ParseBytes(b.Meta)
	if m.IsArray() {
		for _, el := range m.Array() {
			if strings.Contains(el.String(), sub) {
				return true
			}
		}
		return false
	}
	return strings.Contains(m.String(), sub)
}

// ParseAudioStatus returns the audio status document with its own slug
// removed, ready to embed as a media block.
func ParseAudioStatus(body string) (json.RawMessage, error) {
	doc, err := parseDoc(body, "audio status")
	if err != nil {
		return nil, err
	}
	if !doc.IsObject() {
		return nil, fmt.Errorf("audio status: expected an object: %w", ErrMalformed)
	}
	out, err := sjson.Delete(body, "slug")
	if err != nil {
		return nil, fmt.Errorf("audio status: %w", err)
	}
	return json.RawMessage(strings.TrimSpace(out)), nil
}
