package main

import (
	"context"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"courier/internal/app"
	"courier/internal/domain"
)

type searchOptions struct {
	filters []string
	pages   int
	json    bool
}

func newSearchCmd(rt *runtime) *cobra.Command {
	opts := &searchOptions{}
	cmd := &cobra.Command{
		Use:   "search QUERY",
		Short: "Run a full search and print the results",
		Args:  cobra.MaximumNArgs(1),
		RunE:  rt.run(func(ctx context.Context, a *app.App, out io.Writer, args []string) error {
			query := ""
			if len(args) > 0 {
				query = args[0]
			}
			return runSearch(ctx, a, out, query, opts)
		}),
	}
	cmd.Flags().StringArrayVarP(&opts.filters, "filter", "f", nil, "filter as key=value, repeatable")
	cmd.Flags().IntVarP(&opts.pages, "pages", "p", 1, "number of pages to fetch")
	cmd.Flags().BoolVar(&opts.json, "json", false, "print one JSON record per line")
	return cmd
}

func runSearch(ctx context.Context, a *app.App, out io.Writer, query string, opts *searchOptions) error {
	if opts.pages < 1 {
		return fmt.Errorf("--pages must be at least 1")
	}

	s := a.Session
	for _, expr := range opts.filters {
		key, value, err := domain.ParseFilter(expr)
		if err != nil {
			return err
		}
		if err := s.SetFilter(key, value); err != nil {
			return err
		}
	}
	s.SetQuery(query)

	s.Search(ctx, true)
	for page := 1; page < opts.pages; page++ {
		if !s.LoadMore(ctx) {
			break
		}
	}

	st := s.Snapshot()
	if st.Err != nil {
		return st.Err
	}
	if !st.Searched {
		return fmt.Errorf("nothing to search: give a query or a filter")
	}

	for _, r := range st.Results {
		if opts.json {
			line, err := domain.EncodeResult(r)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(line))
			continue
		}
		fmt.Fprintf(out, "%-10s %-12s %s\n", r.Kind(), r.ResultID(), domain.ResultTitle(r))
	}
	if !opts.json {
		fmt.Fprintf(out, "%s of %s results in %s\n",
			humanize.Comma(int64(len(st.Results))), humanize.Comma(int64(st.Stats.Total)), st.Stats.Took)
	}
	return nil
}
