package main

import (
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/isdmx/envbox/config"
	"github.com/isdmx/envbox/logger"
	"github.com/isdmx/envbox/mcpserver"
	"github.com/isdmx/envbox/sandbox"
)

// newExecutor builds the scoped command runner from the loaded configuration.
func newExecutor(cfg *config.Config, log *zap.Logger) sandbox.CommandExecutor {
	return sandbox.NewRunner(log,
		sandbox.WithScopeOptions(
			sandbox.WithTempRoot(cfg.Scope.TempRoot),
			sandbox.WithDirPattern(cfg.Scope.DirPattern),
			sandbox.WithLogger(log),
		),
	)
}

func main() {
	app := fx.New(
		// Provide dependencies
		fx.Provide(
			config.New,
			logger.NewFromConfig,
			newExecutor,
			mcpserver.New,
		),

		// Start the appropriate transport based on config
		fx.Invoke(
			func(cfg *config.Config, server *mcpserver.MCPServer) {
				switch cfg.Server.Transport {
				case "stdio":
					go func() {
						if err := server.ServeStdio(); err != nil {
							panic(err)
						}
					}()
				case "http":
					go func() {
						if err := server.ServeHTTP(); err != nil {
							panic(err)
						}
					}()
				default:
					panic("unsupported transport: " + cfg.Server.Transport)
				}
			},
		),

		// Use the application logger for fx logs
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
	)

	app.Run()
}
