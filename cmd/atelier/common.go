package main

import (
	"os"
	"path/filepath"

	"github.com/atelierhq/atelier/internal/builder"
	"github.com/atelierhq/atelier/internal/config"
	"github.com/atelierhq/atelier/internal/generate"
	"github.com/atelierhq/atelier/internal/history"
	"github.com/atelierhq/atelier/internal/studio"
)

func openStore() (*history.Store, string, func(), error) {
	workDir, err := os.Getwd()
	if err != nil {
		return nil, "", func() {}, err
	}
	atelierDir := filepath.Join(workDir, ".atelier")
	if err := os.MkdirAll(atelierDir, 0o755); err != nil {
		return nil, "", func() {}, err
	}
	dbPath := filepath.Join(atelierDir, "atelier.db")
	storeDB, err := history.Open(dbPath)
	if err != nil {
		return nil, "", func() {}, err
	}
	return history.NewStore(storeDB), workDir, func() { _ = storeDB.Close() }, nil
}

// newHub wires a session hub whose builders share one generator and one
// platform client. Sessions get their collaborators at creation time.
func newHub(cfg config.Config, workDir string, recorder builder.Recorder) (*builder.Hub, error) {
	gen, err := generate.New(cfg, workDir)
	if err != nil {
		return nil, err
	}
	client, err := studio.NewClient(cfg.Studio, cfg.Defaults, nil)
	if err != nil {
		return nil, err
	}
	return builder.NewHub(func(id string) *builder.Builder {
		return builder.New(builder.Config{
			SessionID:      id,
			Generator:      gen,
			Platform:       client,
			Recorder:       recorder,
			MaxRetries:     cfg.Limits.CraftRetries(),
			MaxSpecialists: cfg.Limits.Specialists(),
		})
	}), nil
}
