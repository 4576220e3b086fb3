//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package injector

import (
	"github.com/google/wire"

	"github.com/wargrid/wargrid/internal/core/battle"
	"github.com/wargrid/wargrid/internal/core/events/bus"
	"github.com/wargrid/wargrid/internal/core/observability/log"
	"github.com/wargrid/wargrid/internal/core/scenario"
	"github.com/wargrid/wargrid/internal/server"
)

// ProviderSet assembles a battle service from a server config and a decoded
// scenario.
var ProviderSet = wire.NewSet(
	bus.New,
	ProvideLogger,
	ProvideBattle,
	server.New,
	wire.Bind(new(log.Log), new(*log.Logger)),
)

func ProvideLogger(cfg server.Config) *log.Logger {
	return log.New(log.ParseLevel(cfg.LogLevel))
}

func ProvideBattle(sc *scenario.Scenario, events *bus.Bus) (*battle.Battle, error) {
	return scenario.Build(sc, events)
}

// InitializeServer builds the full service graph.
func InitializeServer(cfg server.Config, sc *scenario.Scenario) (*server.Server, error) {
	wire.Build(ProviderSet)
	return nil, nil
}
