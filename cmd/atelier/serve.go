package main

import (
	"context"
	"errors"
	"net/http"

	"github.com/atelierhq/atelier/internal/config"
	"github.com/atelierhq/atelier/internal/handlers"
	"github.com/atelierhq/atelier/internal/logging"
	"github.com/atelierhq/atelier/internal/server"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

func serveCmd() *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:          "serve",
		Short:        "Run the HTTP API for build sessions",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logging.InitJSON(debug)

			store, workDir, closeFn, err := openStore()
			if err != nil {
				return err
			}
			defer closeFn()

			cfg, err := loadConfig(workDir)
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.Server.Listen = listen
			}

			hub, err := newHub(cfg, workDir, store)
			if err != nil {
				return err
			}

			fx.New(
				fx.Supply(cfg, store, hub),
				fx.Provide(
					provideServerHandler(handlers.NewPingHandler),
					provideServerHandler(handlers.NewSessionsHandler),
					provideServerHandler(handlers.NewBuildsHandler),
					provideServer,
				),
				fx.Invoke(startServer),
				fx.NopLogger,
			).Run()
			return nil
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "listen address, overrides server.listen")
	return cmd
}

func provideServerHandler(fn any) any {
	return fx.Annotate(
		fn,
		fx.As(new(server.Handler)),
		fx.ResultTags(`group:"server_handlers"`),
	)
}

type serverParams struct {
	fx.In

	Config   config.Config
	Handlers []server.Handler `group:"server_handlers"`
}

func provideServer(params serverParams) *server.Server {
	return server.New(params.Config.Server.Listen, params.Handlers...)
}

func startServer(lc fx.Lifecycle, srv *server.Server, shutdowner fx.Shutdowner) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error().Err(err).Msg("http server failed")
					_ = shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Stop(ctx)
		},
	})
}
