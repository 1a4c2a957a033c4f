package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/unfoldingWord-dev/uwcatalog/pkg/catalog"
	"github.com/unfoldingWord-dev/uwcatalog/pkg/feeds"
	"github.com/unfoldingWord-dev/uwcatalog/pkg/whttp"
)

func main() {
	// Usage: go run *.go -slug ulb -lang en

	slugFlag := flag.String("slug", "", "Bible resource slug")
	langFlag := flag.String("lang", "", "Language code")

	// Parse the command-line flags
	flag.Parse()

	if *slugFlag == "" || *langFlag == "" {
		fmt.Println("Both -slug and -lang are required.")
		return
	}

	client, err := whttp.NewClient(whttp.Options{Retries: 2, RPS: 5})
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	cfg := catalog.DefaultConfig()
	cfg.Only = feeds.Pair{Slug: *slugFlag, Lang: *langFlag}

	// Nothing touches the disk: every document stays in memory.
	out := catalog.NewMemoryWriter()
	if _, err := catalog.Run(context.Background(), cfg, client, out, nil); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	for _, p := range out.Paths() {
		b, _ := out.File(p)
		fmt.Println(p, len(b))
	}
}
