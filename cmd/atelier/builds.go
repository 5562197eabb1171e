package main

import (
	"fmt"
	"io"
	"os"

	"github.com/atelierhq/atelier/internal/generate"
	"github.com/atelierhq/atelier/internal/history"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func buildsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "builds",
		Short: "Manage recorded builds",
	}
	cmd.AddCommand(buildsListCmd())
	cmd.AddCommand(buildsPruneCmd())
	return cmd
}

func buildsListCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded builds, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, closeFn, err := openStore()
			if err != nil {
				return err
			}
			defer closeFn()

			items, err := store.ListBuilds(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(items) == 0 {
				log.Info().Msg("no builds")
				return nil
			}
			for _, item := range items {
				blueprintID := item.BlueprintID
				if blueprintID == "" {
					blueprintID = "-"
				}
				_, _ = io.WriteString(os.Stdout, fmt.Sprintf("%s\t%s\t%d agents\t%s\t%s\n",
					item.BuildID, item.CreatedAt, item.AgentCount, blueprintID, clip(item.Requirements, 60)))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum builds to list")
	return cmd
}

func buildsPruneCmd() *cobra.Command {
	var keepLast int
	var keepDays int
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Prune old builds from the database and generation runs from disk",
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

			if keepLast <= 0 && keepDays <= 0 {
				keepLast = cfg.Retention.KeepLast
				keepDays = cfg.Retention.KeepDays
			}
			if keepLast <= 0 && keepDays <= 0 {
				return fmt.Errorf("set --keep-last or --keep-days (or configure retention in .atelier/config.json)")
			}

			res, err := store.PruneBuilds(cmd.Context(), history.RetentionPolicy{KeepLast: keepLast, KeepDays: keepDays}, dryRun)
			if err != nil {
				return err
			}
			runRes, err := generate.PruneRuns(workDir, generate.RetentionPolicy{KeepLast: keepLast, KeepDays: keepDays}, dryRun)
			if err != nil {
				return err
			}

			mode := "deleted"
			if dryRun {
				mode = "would delete"
			}
			log.Info().Msgf("%s %d builds (kept %d)", mode, res.Deleted, res.Kept)
			log.Info().Msgf("%s %d generation runs (kept %d, skipped %d)", mode, runRes.Deleted, runRes.Kept, runRes.Skipped)
			return nil
		},
	}
	cmd.Flags().IntVar(&keepLast, "keep-last", 0, "keep the newest N builds")
	cmd.Flags().IntVar(&keepDays, "keep-days", 0, "keep builds newer than N days")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report what would be pruned without deleting")
	return cmd
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
