package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/wargrid/wargrid/internal/core/events/bus"
	"github.com/wargrid/wargrid/internal/core/observability/log"
	"github.com/wargrid/wargrid/internal/core/scenario"
	"github.com/wargrid/wargrid/internal/server"
)

func main() {
	var (
		scenarioPath = flag.String("scenario", "scenario.yaml", "battle scenario file (yaml or json)")
		configPath   = flag.String("config", "", "server config file (yaml), defaults apply when empty")
		httpAddr     = flag.String("http", "", "override the http listen address")
		enableQUIC   = flag.Bool("quic", false, "also serve the query api over quic")
	)
	flag.Parse()

	if err := run(*scenarioPath, *configPath, *httpAddr, *enableQUIC); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(scenarioPath, configPath, httpAddr string, enableQUIC bool) error {
	cfg := server.DefaultConfig()
	if configPath != "" {
		var err error
		cfg, err = server.LoadConfig(configPath)
		if err != nil {
			return err
		}
	}
	if httpAddr != "" {
		cfg.HTTPAddr = httpAddr
	}
	if enableQUIC {
		cfg.EnableQUIC = true
	}

	logger := log.New(log.ParseLevel(cfg.LogLevel))

	sc, err := scenario.LoadFile(scenarioPath)
	if err != nil {
		return err
	}
	events := bus.New()
	battle, err := scenario.Build(sc, events)
	if err != nil {
		return err
	}
	logger.Info("scenario loaded",
		log.String("name", sc.Name),
		log.Int("players", sc.Players()),
		log.Int("units", battle.Roster().Len()))

	srv, err := server.New(cfg, battle, events, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := srv.Start(ctx); err != nil {
		return err
	}

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, os.Interrupt, syscall.SIGTERM)
	<-stopCh
	cancel()
	return srv.Stop()
}
