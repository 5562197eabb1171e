package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/atelierhq/atelier/internal/mcp"
	"github.com/spf13/cobra"
)

func mcpCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "mcp",
		Short:        "Serve build sessions over the Model Context Protocol on stdio",
		Long:         "Serve build sessions over the Model Context Protocol on stdio, so editor agents can drive the blueprint flow with tools.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, workDir, closeFn, err := openStore()
			if err != nil {
				return err
			}
			defer closeFn()

			cfg, err := loadConfig(workDir)
			if err != nil {
				return err
			}
			hub, err := newHub(cfg, workDir, store)
			if err != nil {
				return err
			}
			srv, err := mcp.NewServer(hub, version)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.Run(ctx)
		},
	}
}
