// Package version derives and compares the date_modified tokens stamped on
// every catalog node and on every link a catalog advertises.
package version

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"github.com/unfoldingWord-dev/uwcatalog/pkg/whttp"
)

const (
	// Param is the query parameter that carries a token on a link.
	Param = "date_modified"

	dateLayout = "20060102"
)

// Token is a freshness marker: either a raw YYYYMMDD date or epoch seconds.
// Tokens are always compared as integers.
type Token string

// Int returns the integer value of the token.
func (t Token) Int() (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(string(t)), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func (t Token) String() string { return string(t) }

// Max returns the larger of two tokens. Unparseable tokens lose.
func Max(a, b Token) Token {
	an, aok := a.Int()
	bn, bok := b.Int()
	switch {
	case !bok:
		return a
	case !aok:
		return b
	case bn > an:
		return b
	}
	return a
}

// Link is a URL plus the token of the document it points at.
// A zero Token means the link could not be stamped.
type Link struct {
	Base  string
	Token Token
}

// Unstamped returns a link that carries no token.
func Unstamped(base string) Link { return Link{Base: base} }

// Stamped reports whether the link carries a token.
func (l Link) Stamped() bool { return l.Token != "" }

// Query returns the "date_modified=<token>" fragment, or "" when unstamped.
func (l Link) Query() string {
	if !l.Stamped() {
		return ""
	}
	return Param + "=" + string(l.Token)
}

func (l Link) String() string {
	if !l.Stamped() {
		return l.Base
	}
	return l.Base + "?" + l.Query()
}

func (l Link) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

func (l *Link) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*l = ParseLink(s)
	return nil
}

// ParseLink splits a rendered link back into base and token.
func ParseLink(s string) Link {
	idx := strings.LastIndex(s, Param+"=")
	if idx <= 0 {
		return Unstamped(s)
	}
	sep := s[idx-1]
	if sep != '?' && sep != '&' {
		return Unstamped(s)
	}
	return Link{Base: s[:idx-1], Token: Token(s[idx+len(Param)+1:])}
}

// Node is anything that carries its own token and advertises versioned links.
type Node interface {
	DateModified() Token
	Links() []Link
}

// MostRecent returns the largest token among the node's own token and the
// tokens of every stamped link it advertises. Unstamped links are ignored.
func MostRecent(n Node) Token {
	best := n.DateModified()
	for _, l := range n.Links() {
		if !l.Stamped() {
			continue
		}
		best = Max(best, l.Token)
	}
	return best
}

// Extract finds the token of a JSON payload: the object's own date_modified,
// or the date_modified of the first list element that has one.
func Extract(payload string) (Token, bool) {
	if !gjson.Valid(payload) {
		return "", false
	}
	doc := gjson.Parse(payload)
	switch {
	case doc.IsObject():
		dm := doc.Get(Param)
		if dm.Exists() && dm.String() != "" {
			return Token(dm.String()), true
		}
	case doc.IsArray():
		var tok Token
		doc.ForEach(func(_, el gjson.Result) bool {
			dm := el.Get(Param)
			if dm.Exists() && dm.String() != "" {
				tok = Token(dm.String())
				return false
			}
			return true
		})
		if tok != "" {
			return tok, true
		}
	}
	return "", false
}

// Stamp builds the link for url from a payload already in hand.
func Stamp(url, payload string) Link {
	tok, ok := Extract(payload)
	if !ok {
		return Unstamped(url)
	}
	return Link{Base: url, Token: tok}
}

// AddDate fetches url and stamps it with the token of the fetched document.
// When the document cannot be fetched or carries no token the link comes
// back unstamped; callers treat that as acceptable.
func AddDate(ctx context.Context, f whttp.Fetcher, url string) Link {
	body, err := f.Fetch(ctx, url)
	if err != nil {
		return Unstamped(url)
	}
	return Stamp(url, body)
}

// Seconds converts a YYYYMMDD date to epoch seconds at local midnight. When
// date is the same calendar day as now the current time is returned instead,
// so same-day updates stay distinguishable.
func Seconds(date string, now time.Time) (Token, error) {
	t, err := time.ParseInLocation(dateLayout, date, now.Location())
	if err != nil {
		return "", fmt.Errorf("parse date %q: %w", date, err)
	}
	if date == now.Format(dateLayout) {
		t = now
	}
	return Token(strconv.FormatInt(t.Unix(), 10)), nil
}
