package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rubiojr/hnsearch/pkg/config"
	"github.com/rubiojr/hnsearch/pkg/core"
	"github.com/rubiojr/hnsearch/pkg/session"
	"github.com/rubiojr/hnsearch/pkg/view"
	"github.com/urfave/cli/v3"
)

// SearchCommand creates the search command
func SearchCommand() *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Search Hacker News and print the results",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "query",
				Usage: "Search query (defaults to default_query from the config)",
			},
			&cli.IntFlag{
				Name:  "pages",
				Usage: "Number of pages to fetch",
				Value: 1,
			},
			&cli.StringFlag{
				Name:  "sort",
				Usage: "Sort by NONE, TITLE, AUTHOR, COMMENTS or POINTS",
				Value: string(view.SortNone),
			},
			&cli.BoolFlag{
				Name:  "reverse",
				Usage: "Reverse the sort order",
			},
			&cli.StringSliceFlag{
				Name:  "dismiss",
				Usage: "Hide the hit with this object id (repeatable)",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print results as JSON",
			},
			&cli.BoolFlag{
				Name:  "plain",
				Usage: "Print results as plain text instead of a table",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			key, err := view.ParseSortKey(c.String("sort"))
			if err != nil {
				return err
			}
			return searchHits(ctx, c.String("config"), searchOptions{
				query:   c.String("query"),
				pages:   c.Int("pages"),
				sorter:  view.Sorter{Key: key, Reverse: c.Bool("reverse")},
				dismiss: c.StringSlice("dismiss"),
				json:    c.Bool("json"),
				plain:   c.Bool("plain"),
			})
		},
	}
}

type searchOptions struct {
	query   string
	pages   int
	sorter  view.Sorter
	dismiss []string
	json    bool
	plain   bool
}

type searchOutput struct {
	Query string      `json:"query"`
	Page  int         `json:"page"`
	Count int         `json:"count"`
	Hits  interface{} `json:"hits"`
}

// searchHits runs one session to completion and prints what it shows
func searchHits(ctx context.Context, configPath string, opts searchOptions) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if opts.query == "" {
		opts.query = cfg.DefaultQuery
	}
	if opts.pages < 1 {
		opts.pages = 1
	}

	sess, err := newSession(cfg, "cli")
	if err != nil {
		return err
	}
	defer sess.Close()

	snap, err := collect(ctx, sess, opts)
	if err != nil {
		return err
	}

	return printHits(os.Stdout, snap, opts)
}

// printHits writes the snapshot's hits in the format chosen by opts
func printHits(w io.Writer, snap session.Snapshot, opts searchOptions) error {
	hits := opts.sorter.Apply(snap.Hits)
	switch {
	case opts.json:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(searchOutput{Query: snap.ActiveTerm, Page: snap.Page, Count: len(hits), Hits: hits})
	case opts.plain:
		for i, h := range hits {
			if i > 0 {
				fmt.Fprintln(w)
			}
			fmt.Fprintln(w, core.PrettyText(h))
		}
		return nil
	}

	fmt.Fprintln(w, renderSummary(snap.ActiveTerm, snap.Page, len(hits)))
	fmt.Fprintln(w, renderTable(hits, opts.sorter, -1))
	return nil
}

// collect submits the query, loads the requested pages and applies
// dismissals. It stops paging early once the endpoint reports no more pages.
func collect(ctx context.Context, sess *session.Session, opts searchOptions) (session.Snapshot, error) {
	if _, err := sess.Submit(opts.query); err != nil {
		return session.Snapshot{}, err
	}
	snap, err := sess.WaitIdle(ctx)
	if err != nil {
		return snap, err
	}

	for page := 1; page < opts.pages && snap.HasMore && !snap.Failed(); page++ {
		if _, err := sess.LoadMore(); err != nil {
			return snap, err
		}
		if snap, err = sess.WaitIdle(ctx); err != nil {
			return snap, err
		}
	}
	if snap.Failed() {
		return snap, fmt.Errorf("search for %q failed: %w", snap.ActiveTerm, snap.Err)
	}

	for _, id := range opts.dismiss {
		if snap, err = sess.Dismiss(id); err != nil {
			return snap, err
		}
	}
	return snap, nil
}
