//go:build wireinject

package main

import (
	"context"

	"podsync/ioc"
	"podsync/pkg/server"

	"github.com/google/wire"
)

func InitApp(ctx context.Context, path ioc.ConfigPath) (*server.HTTPServer, func(), error) {
	panic(wire.Build(
		ioc.InitConfig,
		ioc.InitLogger,
		ioc.InitStore,
		ioc.InitGraph,
		ioc.InitGraphAdmin,
		ioc.InitPublisher,
		ioc.InitAgentConnector,
		ioc.InitDiscoverer,
		ioc.InitAgentResolver,
		ioc.InitSyncer,
		ioc.InitAppService,
		ioc.InitRegistry,
		ioc.InitHostHandler,
		ioc.InitGinEngine,
		ioc.InitJobs,
		server.NewHTTPServer,
	))
}
