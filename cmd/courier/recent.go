package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"courier/internal/app"
)

func newRecentCmd(rt *runtime) *cobra.Command {
	var clearAll bool
	cmd := &cobra.Command{
		Use:   "recent",
		Short: "List recent search queries, most recent first",
		Args:  cobra.NoArgs,
		RunE:  rt.run(func(ctx context.Context, a *app.App, out io.Writer, args []string) error {
			if clearAll {
				if err := a.Session.ClearRecent(ctx); err != nil {
					return err
				}
				fmt.Fprintln(out, "recent searches cleared")
				return nil
			}
			for _, q := range a.Session.Recent() {
				fmt.Fprintln(out, q)
			}
			return nil
		}),
	}
	cmd.Flags().BoolVar(&clearAll, "clear", false, "forget all recent searches")
	return cmd
}
