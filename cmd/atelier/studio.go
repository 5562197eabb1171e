package main

import (
	"fmt"
	"os"

	"github.com/atelierhq/atelier/internal/studio"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func studioCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "studio",
		Short: "Manage platform-side resources",
	}
	cmd.AddCommand(studioSyncCmd())
	return cmd
}

func studioSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "sync",
		Short:        "Push the builder agent definition to the platform",
		Long:         "Push the builder agent definition to the platform, creating it when generator.agent_id is unset and updating it in place otherwise.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			workDir, err := os.Getwd()
			if err != nil {
				return err
			}
			cfg, err := loadConfig(workDir)
			if err != nil {
				return err
			}
			client, err := studio.NewClient(cfg.Studio, cfg.Defaults, nil)
			if err != nil {
				return err
			}
			agentID, err := client.SyncBuilderAgent(cmd.Context(), cfg.Generator.AgentID)
			if err != nil {
				return err
			}
			if cfg.Generator.AgentID == "" {
				log.Info().Str("agent_id", agentID).Msg("builder agent created")
				fmt.Printf("set generator.agent_id to %s in .atelier/config.json\n", agentID)
			} else {
				log.Info().Str("agent_id", agentID).Msg("builder agent updated")
			}
			return nil
		},
	}
}
