//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package injector

import (
	"github.com/google/wire"

	"github.com/zeusync/listsync/internal/config"
	"github.com/zeusync/listsync/internal/core/observability/log"
	"github.com/zeusync/listsync/internal/server"
)

func InitializeServer(cfg *config.Config, logger log.Log) *server.Server {
	wire.Build(server.New)
	return nil
}
