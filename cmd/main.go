package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/cederberg/liquidsite-sub003/internal/app"
	"github.com/cederberg/liquidsite-sub003/internal/data/record"
	"github.com/cederberg/liquidsite-sub003/internal/domain"
)

const usage = `usage: liquidsite-db [flags] <command>

commands:
  migrate                   create missing tables
  count <domain> [parent]   count content objects
  list  <domain> [parent]   list content objects

flags:
`

func main() {
	os.Exit(run())
}

// run executes one command and returns the process exit code.
func run() int {
	var (
		published bool
		online    bool
		offset    int
		limit     int
		sortBy    string
	)
	flag.BoolVar(&published, "published", false, "only published revisions")
	flag.BoolVar(&online, "online", false, "only objects online now")
	flag.IntVar(&offset, "offset", 0, "first row to list")
	flag.IntVar(&limit, "limit", 0, "rows to list (default QUERY_DEFAULT_LIMIT)")
	flag.StringVar(&sortBy, "sort", "ID", "content column to sort the list by")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		return 2
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	application, err := app.New(ctx)
	if err != nil {
		fmt.Printf("init app: %v\n", err)
		return 1
	}
	defer application.Close(context.Background())

	args := flag.Args()
	switch args[0] {
	case "migrate":
		if err := application.Migrate(ctx); err != nil {
			application.Log.Error("migrate failed", "error", err)
			return 1
		}
		fmt.Println("schema up to date")
		return 0
	case "count", "list":
	default:
		flag.Usage()
		return 2
	}

	if len(args) < 2 {
		flag.Usage()
		return 2
	}
	q := application.Repos.Content.Query(args[1]).
		RequirePublished(published).
		RequireOnline(online)
	if len(args) > 2 {
		parent, err := strconv.Atoi(args[2])
		if err != nil {
			fmt.Printf("invalid parent id %q\n", args[2])
			return 2
		}
		q.RequireParent(parent)
	}

	if args[0] == "count" {
		n, err := application.Repos.Content.Count(ctx, nil, q)
		if err != nil {
			application.Log.Error("count failed", "error", err)
			return 1
		}
		fmt.Println(n)
		return 0
	}

	if limit <= 0 {
		limit = application.Cfg.QueryDefaultLimit
	}
	recs, err := application.Repos.Content.Select(ctx, nil, q.SortByColumn(sortBy, true).Limit(offset, limit))
	if err != nil {
		application.Log.Error("list failed", "error", err)
		return 1
	}
	for _, rec := range recs {
		fmt.Printf("%6d  rev %-3d  %-10s  %s\n",
			record.Get(rec, domain.Content.ID),
			record.Get(rec, domain.Content.Revision),
			domain.CategoryName(record.Get(rec, domain.Content.Category)),
			record.Get(rec, domain.Content.Name),
		)
	}
	return 0
}
