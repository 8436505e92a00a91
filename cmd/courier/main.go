// Command courier is the headless companion of the courier TUI: it uploads
// files, runs searches and manages the recent-query history from scripts.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"courier/internal/app"
	"courier/internal/config"
	"courier/internal/eventbus"
	"courier/internal/logging"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd(os.Environ()).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// runtime holds what every subcommand needs once flags are parsed
type runtime struct {
	environ    []string
	configPath string
	verbose    bool

	app       *app.App
	bus       eventbus.EventBus
	logCloser io.Closer
}

func newRootCmd(environ []string) *cobra.Command {
	rt := &runtime{environ: environ}

	root := &cobra.Command{
		Use:          "courier",
		Short:        "Upload attachments and search a community from the command line",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&rt.configPath, "config", "c", "", "path to the config file")
	root.PersistentFlags().BoolVarP(&rt.verbose, "verbose", "v", false, "also log to stderr")

	root.AddCommand(newUploadCmd(rt), newSearchCmd(rt), newRecentCmd(rt))
	return root
}

// action is the body of a subcommand, run with a started App
type action func(ctx context.Context, a *app.App, out io.Writer, args []string) error

// run adapts fn to a cobra RunE, starting the App before fn and closing
// it afterwards whatever fn returns
func (rt *runtime) run(fn action) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		if err := rt.start(cmd.Context()); err != nil {
			return err
		}
		defer func() {
			if stopErr := rt.stop(); err == nil {
				err = stopErr
			}
		}()
		return fn(cmd.Context(), rt.app, cmd.OutOrStdout(), args)
	}
}

func (rt *runtime) start(ctx context.Context) error {
	opts := []config.Option{config.WithEnviron(rt.environ)}
	if rt.configPath != "" {
		opts = append(opts, config.WithFile(rt.configPath))
	}
	cfg, err := config.NewConfigService(opts...).Load()
	if err != nil {
		return err
	}

	closer, err := logging.Setup(cfg.Log, rt.verbose)
	if err != nil {
		return err
	}
	rt.logCloser = closer

	rt.bus = eventbus.New()
	a, err := app.New(ctx, cfg, afero.NewOsFs(), rt.bus)
	if err != nil {
		rt.bus.Close()
		closer.Close()
		return err
	}
	rt.app = a
	log.Debugf("Config loaded, storage %s, search %s", cfg.Storage.Provider, cfg.Search.Provider)
	return nil
}

func (rt *runtime) stop() error {
	var err error
	if rt.app != nil {
		err = rt.app.Close()
		rt.app = nil
	}
	if rt.bus != nil {
		rt.bus.Close()
		rt.bus = nil
	}
	if rt.logCloser != nil {
		logging.Discard()
		rt.logCloser.Close()
		rt.logCloser = nil
	}
	if err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	return nil
}
