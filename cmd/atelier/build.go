package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/atelierhq/atelier/internal/builder"
	"github.com/atelierhq/atelier/internal/generate"
	"github.com/atelierhq/atelier/internal/logging"
	"github.com/atelierhq/atelier/internal/studio"
	"github.com/atelierhq/atelier/internal/tui"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func buildCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "build",
		Short:        "Start the interactive blueprint wizard",
		Long:         "Start the interactive blueprint wizard: describe a problem, review the proposed team, refine each agent, and create the blueprint on the platform.",
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
			gen, err := generate.New(cfg, workDir)
			if err != nil {
				return err
			}
			client, err := studio.NewClient(cfg.Studio, cfg.Defaults, nil)
			if err != nil {
				return err
			}

			b := builder.New(builder.Config{
				SessionID:      uuid.NewString(),
				Generator:      gen,
				Platform:       client,
				Recorder:       store,
				MaxRetries:     cfg.Limits.CraftRetries(),
				MaxSpecialists: cfg.Limits.Specialists(),
			})

			logPath := filepath.Join(workDir, ".atelier", "atelier.log")
			logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
			if err != nil {
				return fmt.Errorf("open log file: %w", err)
			}
			defer logFile.Close()
			restore := logging.Redirect(logFile)
			defer restore()

			return tui.Run(b)
		},
	}
}
