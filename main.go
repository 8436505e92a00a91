package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"courier/internal/app"
	"courier/internal/config"
	"courier/internal/eventbus"
	"courier/internal/logging"
	"courier/internal/ui"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to the config file")
	flag.StringVar(&configPath, "c", "", "Path to the config file (shorthand)")
	flag.Parse()

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	bus := eventbus.New()
	defer bus.Close()

	opts := []config.Option{config.WithBus(bus)}
	if configPath != "" {
		opts = append(opts, config.WithFile(configPath))
	}
	configSvc := config.NewConfigService(opts...)
	created := false
	if configPath == "" {
		var err error
		if created, err = configSvc.EnsureFile(); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing default config: %v\n", err)
			os.Exit(1)
		}
	}
	cfg, err := configSvc.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	closer, err := logging.Setup(cfg.Log, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error setting up logging: %v\n", err)
		os.Exit(1)
	}
	defer closer.Close()
	if created {
		log.Infof("Wrote default config to %s", configSvc.Path())
	}
	log.Infof("Loaded config from %s", configSvc.Path())

	a, err := app.New(ctx, cfg, afero.NewOsFs(), bus)
	if err != nil {
		log.Errorf("Failed to start: %v", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Warnf("Failed to close app: %v", err)
		}
	}()

	model := ui.NewModel(ctx, a)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	model.SetProgram(p)

	// Events arrive on the bus dispatch goroutine; the program reads them
	// from a buffered channel
	eventChan := make(chan eventbus.DomainEvent, 100)
	forward := func(e eventbus.DomainEvent) {
		select {
		case eventChan <- e:
		default:
			log.Debugf("Event channel full, dropping %s", e.Type())
		}
	}
	types := append(append([]eventbus.EventType{}, eventbus.UploadEvents...), eventbus.SearchEvents...)
	for _, t := range append(types, eventbus.EventError) {
		defer bus.Subscribe(t, forward)()
	}

	go func() {
		for {
			select {
			case e := <-eventChan:
				p.Send(ui.EventMsg{Event: e})
			case <-ctx.Done():
				return
			}
		}
	}()

	log.Info("Starting UI")
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		log.Errorf("Error running program: %v", err)
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
	log.Info("UI exited normally")
}
