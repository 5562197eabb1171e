// Package export writes a completed build to disk: one platform-shaped YAML
// file per agent, a blueprint manifest, and a human-readable overview. It
// works entirely from the recorded build and never talks to the platform.
package export

import (
	"archive/zip"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/atelierhq/atelier/internal/blueprint"
	"github.com/atelierhq/atelier/internal/config"
	"github.com/atelierhq/atelier/internal/history"
	"github.com/atelierhq/atelier/internal/studio"
)

// ManifestName is the blueprint manifest file inside a bundle.
const ManifestName = "blueprint.yaml"

// OverviewName is the markdown overview file inside a bundle.
const OverviewName = "OVERVIEW.md"

type manifest struct {
	Name        string          `yaml:"name"`
	Pattern     string          `yaml:"pattern"`
	BlueprintID string          `yaml:"blueprint_id,omitempty"`
	SessionID   string          `yaml:"session_id"`
	CreatedAt   string          `yaml:"created_at"`
	Coordinator manifestAgent   `yaml:"coordinator"`
	Specialists []manifestAgent `yaml:"specialists"`
}

type manifestAgent struct {
	Name    string `yaml:"name"`
	File    string `yaml:"file"`
	AgentID string `yaml:"agent_id,omitempty"`
}

// Bundle renders the files of an export keyed by relative path.
func Bundle(build history.Build, defaults config.AgentDefaults) (map[string][]byte, error) {
	if len(build.Agents) == 0 {
		return nil, fmt.Errorf("build %s has no agents", build.BuildID)
	}
	agents := slices.Clone(build.Agents)
	slices.SortFunc(agents, func(a, b history.BuildAgent) int { return a.Index - b.Index })
	if agents[0].Role != string(blueprint.RoleCoordinator) {
		return nil, fmt.Errorf("build %s has no coordinator", build.BuildID)
	}
	coordinator := agents[0]
	specialists := agents[1:]

	specialistIDs := make([]string, 0, len(specialists))
	for _, a := range specialists {
		specialistIDs = append(specialistIDs, a.RemoteID)
	}

	files := make(map[string][]byte, len(agents)+2)
	for i, agent := range agents {
		var subIDs []string
		if i == 0 {
			subIDs = specialistIDs
		}
		payload := studio.PayloadFromSpec(agent.Spec, subIDs, defaults)
		data, err := yaml.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal agent %s: %w", agent.Name, err)
		}
		name := agent.Filename
		if name == "" {
			return nil, fmt.Errorf("agent %s has no filename", agent.Name)
		}
		if _, dup := files[name]; dup {
			return nil, fmt.Errorf("duplicate agent filename %s", name)
		}
		files[name] = data
	}

	m := manifest{
		Name:        coordinator.Name,
		Pattern:     build.Pattern,
		BlueprintID: build.BlueprintID,
		SessionID:   build.SessionID,
		CreatedAt:   build.CreatedAt,
		Coordinator: manifestAgent{Name: coordinator.Name, File: coordinator.Filename, AgentID: coordinator.RemoteID},
		Specialists: make([]manifestAgent, 0, len(specialists)),
	}
	for _, a := range specialists {
		m.Specialists = append(m.Specialists, manifestAgent{Name: a.Name, File: a.Filename, AgentID: a.RemoteID})
	}
	manifestData, err := yaml.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	files[ManifestName] = manifestData
	files[OverviewName] = []byte(overview(build, coordinator, specialists))
	return files, nil
}

func overview(build history.Build, coordinator history.BuildAgent, specialists []history.BuildAgent) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", coordinator.Name)

	sb.WriteString("## Problem\n\n")
	sb.WriteString(strings.TrimSpace(build.Requirements))
	sb.WriteString("\n\n")

	sb.WriteString("## Approach\n\n")
	if reasoning := strings.TrimSpace(build.Reasoning); reasoning != "" {
		sb.WriteString(reasoning)
		sb.WriteString("\n\n")
	}
	if len(specialists) == 0 {
		fmt.Fprintf(&sb, "A single agent, %s, handles the whole task.\n\n", coordinator.Name)
	} else {
		fmt.Fprintf(&sb, "%s delegates to %d specialist agent%s.\n\n",
			coordinator.Name, len(specialists), plural(len(specialists)))
	}

	sb.WriteString("## Capabilities\n\n")
	fmt.Fprintf(&sb, "- **%s** (`%s`): %s\n", coordinator.Name, coordinator.Filename, capability(coordinator.Spec.RoleDescription, coordinator.Spec.Description))
	for _, a := range specialists {
		fmt.Fprintf(&sb, "- **%s** (`%s`): %s\n", a.Name, a.Filename, capability(a.Spec.RoleDescription, a.Spec.UsageDescription))
	}
	return sb.String()
}

func capability(role, fallback string) string {
	text := strings.TrimSpace(role)
	if text == "" {
		text = strings.TrimSpace(fallback)
	}
	if text != "" && !strings.HasSuffix(text, ".") {
		text += "."
	}
	return text
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

// WriteDir writes a bundle into dir, creating it if needed.
func WriteDir(dir string, files map[string][]byte) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}
	for _, name := range sortedNames(files) {
		if err := os.WriteFile(filepath.Join(dir, name), files[name], 0o644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	return nil
}

// WriteZip writes a bundle as a zip archive at path.
func WriteZip(path string, files map[string][]byte) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}
	zw := zip.NewWriter(out)
	for _, name := range sortedNames(files) {
		w, err := zw.Create(name)
		if err != nil {
			_ = zw.Close()
			_ = out.Close()
			return fmt.Errorf("add %s: %w", name, err)
		}
		if _, err := w.Write(files[name]); err != nil {
			_ = zw.Close()
			_ = out.Close()
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		_ = out.Close()
		return fmt.Errorf("finish archive: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close archive: %w", err)
	}
	return nil
}

func sortedNames(files map[string][]byte) []string {
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
