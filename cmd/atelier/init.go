package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage atelier configuration",
	}
	cmd.AddCommand(configInitCmd())
	cmd.AddCommand(configValidateCmd())
	return cmd
}

// defaultSettings is the starter config installed by `config init`. It
// points the studio backend at the platform and leaves the builder agent
// id empty for `studio sync` to fill in.
func defaultSettings() map[string]any {
	return map[string]any{
		"studio": map[string]any{
			"base_url":    "https://agent-prod.studio.lyzr.ai",
			"api_key_env": "LYZR_API_KEY",
		},
		"generator": map[string]any{
			"type":     "studio",
			"agent_id": "",
		},
		"defaults": map[string]any{
			"model_id":    "groq/llama-3.3-70b-versatile",
			"provider_id": "groq",
			"temperature": 0.7,
		},
		"limits": map[string]any{
			"max_craft_retries": 5,
			"max_specialists":   4,
		},
		"retention": map[string]any{
			"keep_last": 50,
			"keep_days": 30,
		},
		"server": map[string]any{
			"listen": ":8080",
		},
	}
}

func configInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Install a starter config",
		Long:  "Install a starter config by creating the .atelier directory and writing a default config.json.",
		RunE: func(cmd *cobra.Command, args []string) error {
			workDir, err := os.Getwd()
			if err != nil {
				return err
			}

			atelierDir := filepath.Join(workDir, ".atelier")
			log.Info().Str("dir", atelierDir).Msg("creating atelier directory")
			if err := os.MkdirAll(atelierDir, 0o755); err != nil {
				return fmt.Errorf("create atelier dir: %w", err)
			}

			configPath := filepath.Join(atelierDir, "config.json")
			if _, err := os.Stat(configPath); err == nil {
				log.Info().Msg("config.json already exists, skipping")
				return nil
			}

			log.Info().Str("path", configPath).Msg("installing default config")
			data, err := json.MarshalIndent(defaultSettings(), "", "  ")
			if err != nil {
				return fmt.Errorf("marshal default config: %w", err)
			}
			if err := os.WriteFile(configPath, data, 0o644); err != nil {
				return fmt.Errorf("write default config: %w", err)
			}

			fmt.Printf("atelier config installed at %s\n", configPath)
			return nil
		},
	}
}

func configValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the config file against the schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			workDir, err := os.Getwd()
			if err != nil {
				return err
			}
			cfg, err := loadConfig(workDir)
			if err != nil {
				return err
			}
			fmt.Printf("config OK (%s generator)\n", cfg.Generator.Type)
			return nil
		},
	}
}
