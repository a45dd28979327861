package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/zeusync/listsync/internal/config"
	"github.com/zeusync/listsync/internal/core/observability/log"
	"github.com/zeusync/listsync/internal/injector"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		configPath string
		listenAddr string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve collections over a websocket change feed",
		Long: `Serve hosts the collections named in the config file.

Endpoints:
  GET  /ws?collection=name   snapshot followed by every change
  POST /ops?collection=name  apply a JSON list of ops
  GET  /collections          names and sizes`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			if configPath != "" {
				var err error
				if cfg, err = config.Load(configPath); err != nil {
					return err
				}
			}
			if listenAddr != "" {
				cfg.Server.ListenAddr = listenAddr
			}
			// The flag wins over the file unless left at its default.
			if !cmd.Flags().Changed("log-level") {
				a.logger.SetLevel(cfg.Level())
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := injector.InitializeServer(cfg, a.logger)
			a.logger.Info("Serving collections", log.String("config", configPath))
			return srv.Run(ctx)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "YAML config file")
	cmd.Flags().StringVar(&listenAddr, "listen", "", "Override server.listen_addr")
	return cmd
}
