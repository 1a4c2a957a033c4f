package cmd

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/unfoldingWord-dev/uwcatalog/pkg/catalog"
	"github.com/unfoldingWord-dev/uwcatalog/pkg/feeds"
	"github.com/unfoldingWord-dev/uwcatalog/pkg/whttp"
)

func TestLoadConfigDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg, opts, err := loadConfig(v)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	want := catalog.DefaultConfig()
	if !reflect.DeepEqual(cfg, want) {
		t.Fatalf("unexpected config.\nwant: %#v\ngot:  %#v", want, cfg)
	}
	if opts.Retries != 3 || opts.Timeout != 30*time.Second || opts.RPS != 0 || opts.UserAgent != whttp.USER_AGENT {
		t.Fatalf("unexpected fetch options: %#v", opts)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigType("yaml")
	yaml := `
ts:
  root: /tmp/ts
bible:
  slugs: ["ulb/en", "ulb-x/fr"]
  books: ["GEN", " mat ", "gen"]
fetch:
  rps: 2.5
  timeout: 5s
`
	if err := v.ReadConfig(strings.NewReader(yaml)); err != nil {
		t.Fatalf("read: %v", err)
	}

	cfg, opts, err := loadConfig(v)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.TSRoot != "/tmp/ts" {
		t.Fatalf("unexpected ts root %q", cfg.TSRoot)
	}
	wantPairs := []feeds.Pair{{Slug: "ulb", Lang: "en"}, {Slug: "ulb-x", Lang: "fr"}}
	if !reflect.DeepEqual(cfg.Pairs, wantPairs) {
		t.Fatalf("unexpected pairs: %#v", cfg.Pairs)
	}
	if !reflect.DeepEqual(cfg.Books, []string{"gen", "mat"}) {
		t.Fatalf("unexpected books: %#v", cfg.Books)
	}
	if opts.RPS != 2.5 || opts.Timeout != 5*time.Second {
		t.Fatalf("unexpected fetch options: %#v", opts)
	}
}

func TestLoadConfigRejectsBadPairs(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("bible.slugs", []string{"ulb"})

	if _, _, err := loadConfig(v); err == nil || !strings.Contains(err.Error(), "bible.slugs") {
		t.Fatalf("expected a bible.slugs error, got %v", err)
	}
}

func TestLoadConfigRejectsEmptyURLs(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("obs.catalog_url", "")

	if _, _, err := loadConfig(v); err == nil || !strings.Contains(err.Error(), "obs.catalog_url") {
		t.Fatalf("expected an obs.catalog_url error, got %v", err)
	}
}
