package main

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"courier/internal/app"
	"courier/internal/domain"
)

type uploadOptions struct {
	channel     string
	server      string
	description string
}

func newUploadCmd(rt *runtime) *cobra.Command {
	opts := &uploadOptions{}
	cmd := &cobra.Command{
		Use:   "upload FILE...",
		Short: "Validate and upload files, printing the URL of each",
		Args:  cobra.MinimumNArgs(1),
		RunE:  rt.run(func(ctx context.Context, a *app.App, out io.Writer, args []string) error {
			return runUpload(ctx, a, out, args, opts)
		}),
	}
	cmd.Flags().StringVar(&opts.channel, "channel", "", "channel the upload is attached to")
	cmd.Flags().StringVar(&opts.server, "server", "", "server the upload is attached to")
	cmd.Flags().StringVar(&opts.description, "description", "", "description stored with each upload")
	return cmd
}

func runUpload(ctx context.Context, a *app.App, out io.Writer, paths []string, opts *uploadOptions) error {
	target := a.Queue.Config().Target
	if opts.channel != "" {
		target.ChannelID = opts.channel
	}
	if opts.server != "" {
		target.ServerID = opts.server
	}
	if opts.description != "" {
		target.Description = opts.description
	}
	a.Queue.SetTarget(target)

	files, rejected := a.OpenFiles(paths)
	sel := a.Queue.SelectFiles(ctx, files)
	for name, reason := range sel.Rejected {
		rejected[name] = reason
	}

	names := make([]string, 0, len(rejected))
	for name := range rejected {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(out, "rejected %s: %s\n", name, rejected[name])
	}
	if sel.Dropped > 0 {
		fmt.Fprintf(out, "dropped %d file(s) over the limit of %d\n", sel.Dropped, a.Queue.Config().MaxCount)
	}

	a.Queue.UploadAll(ctx)
	// auto-upload may have started transfers that UploadAll skipped
	a.Queue.Wait()

	failed := 0
	for _, item := range a.Queue.Items() {
		switch item.Status {
		case domain.StatusUploaded:
			fmt.Fprintf(out, "uploaded %s (%s) %s\n", item.File.Name, humanize.Bytes(uint64(item.File.Size)), item.RemoteURL)
		default:
			failed++
			reason := item.Error
			if reason == "" {
				reason = string(item.Status)
			}
			fmt.Fprintf(out, "failed %s: %s\n", item.File.Name, reason)
		}
	}

	switch {
	case failed > 0:
		return fmt.Errorf("%d of %d uploads failed", failed, len(sel.Accepted))
	case len(sel.Accepted) == 0:
		return fmt.Errorf("no files were accepted")
	}
	return nil
}
