package main

import (
	"fmt"

	"github.com/atelierhq/atelier/internal/export"
	"github.com/spf13/cobra"
)

func exportCmd() *cobra.Command {
	var out string
	var asZip bool
	cmd := &cobra.Command{
		Use:          "export <build-id|last>",
		Short:        "Export a recorded build as agent YAML files plus an overview",
		Args:         cobra.ExactArgs(1),
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

			ctx := cmd.Context()
			buildID := args[0]
			if buildID == "last" {
				items, err := store.ListBuilds(ctx, 1)
				if err != nil {
					return err
				}
				if len(items) == 0 {
					return fmt.Errorf("no builds recorded yet")
				}
				buildID = items[0].BuildID
			}

			build, err := store.GetBuild(ctx, buildID)
			if err != nil {
				return err
			}
			files, err := export.Bundle(build, cfg.Defaults)
			if err != nil {
				return err
			}

			target := out
			if asZip {
				if target == "" {
					target = "blueprint-" + build.BuildID + ".zip"
				}
				if err := export.WriteZip(target, files); err != nil {
					return err
				}
			} else {
				if target == "" {
					target = "blueprint-" + build.BuildID
				}
				if err := export.WriteDir(target, files); err != nil {
					return err
				}
			}

			fmt.Printf("exported %d files to %s\n", len(files), target)
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "output directory or zip path")
	cmd.Flags().BoolVar(&asZip, "zip", false, "write a zip archive instead of a directory")
	return cmd
}
