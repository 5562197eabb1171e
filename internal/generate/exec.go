package generate

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/metalagman/ainvoke/adk"
	"github.com/rs/zerolog/log"
	"google.golang.org/adk/agent"
	"google.golang.org/adk/runner"
	"google.golang.org/adk/session"
	"google.golang.org/genai"

	"github.com/atelierhq/atelier/internal/blueprint"
	"github.com/atelierhq/atelier/internal/config"
	"github.com/atelierhq/atelier/internal/logging"
)

// ExecGenerator runs a local CLI agent for each generation call, keeping
// per-call run dirs with prompt, input, output, and stdio logs under
// .atelier/gens/.
type ExecGenerator struct {
	workDir  string
	cfg      config.GeneratorConfig
	defaults config.AgentDefaults
}

// NewExecGenerator constructs the exec generator.
func NewExecGenerator(workDir string, cfg config.GeneratorConfig, defaults config.AgentDefaults) (*ExecGenerator, error) {
	if len(cfg.Cmd) == 0 {
		return nil, fmt.Errorf("exec generator requires cmd")
	}
	return &ExecGenerator{
		workDir:  workDir,
		cfg:      cfg,
		defaults: defaults,
	}, nil
}

// Architect proposes an agent team for the given requirements.
func (g *ExecGenerator) Architect(ctx context.Context, req blueprint.ArchitectureRequest) (blueprint.ArchitectureResult, error) {
	raw, err := g.run(ctx, "atelier_architect", "Atelier architecture designer",
		buildArchitectPrompt(), architectureInputSchema, architectureOutputSchema, req)
	if err != nil {
		return blueprint.ArchitectureResult{}, err
	}
	proposal, err := decodeProposal(raw)
	if err != nil {
		return blueprint.ArchitectureResult{}, err
	}
	return blueprint.ArchitectureResult{SessionID: req.SessionID, Proposal: proposal}, nil
}

// Craft elaborates a single agent into a full specification.
func (g *ExecGenerator) Craft(ctx context.Context, req blueprint.CraftRequest) (blueprint.CraftResult, error) {
	raw, err := g.run(ctx, "atelier_craft", "Atelier agent designer",
		buildCraftPrompt(req), craftInputSchema, craftOutputSchema, req)
	if err != nil {
		return blueprint.CraftResult{}, err
	}
	spec, err := decodeSpec(raw, req, g.defaults)
	if err != nil {
		return blueprint.CraftResult{}, err
	}
	return blueprint.CraftResult{SessionID: req.SessionID, Spec: spec}, nil
}

func (g *ExecGenerator) run(ctx context.Context, name, desc, prompt, inputSchema, outputSchema string, input any) ([]byte, error) {
	runDir, err := g.newRunDir()
	if err != nil {
		return nil, err
	}

	stdoutFile, stderrFile, closeLogs, err := openLogFiles(runDir)
	if err != nil {
		return nil, err
	}
	defer closeLogs()
	stdout, stderr := agentOutputWriters(logging.DebugEnabled(), stdoutFile, stderrFile)

	if err := os.WriteFile(filepath.Join(runDir, "logs", "prompt.txt"), []byte(prompt), 0o644); err != nil {
		return nil, fmt.Errorf("write prompt log: %w", err)
	}

	reqJSON, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	if err := os.WriteFile(filepath.Join(runDir, "input.json"), reqJSON, 0o644); err != nil {
		return nil, fmt.Errorf("write input.json: %w", err)
	}

	execAgent, err := adk.NewExecAgent(
		name,
		desc,
		g.cfg.Cmd,
		adk.WithExecAgentPrompt(prompt),
		adk.WithExecAgentInputSchema(inputSchema),
		adk.WithExecAgentOutputSchema(outputSchema),
		adk.WithExecAgentRunDir(runDir),
		adk.WithExecAgentUseTTY(g.cfg.UseTTY != nil && *g.cfg.UseTTY),
		adk.WithExecAgentStdout(stdout),
		adk.WithExecAgentStderr(stderr),
	)
	if err != nil {
		return nil, fmt.Errorf("create exec agent: %w", err)
	}

	sessionService := session.InMemoryService()
	adkRunner, err := runner.New(runner.Config{
		AppName:        "atelier-generate",
		Agent:          execAgent,
		SessionService: sessionService,
	})
	if err != nil {
		return nil, fmt.Errorf("create generation runner: %w", err)
	}

	sess, err := sessionService.Create(ctx, &session.CreateRequest{
		AppName: "atelier-generate",
		UserID:  "atelier-user",
	})
	if err != nil {
		return nil, fmt.Errorf("create generation session: %w", err)
	}

	userContent := genai.NewContentFromText(string(reqJSON), genai.RoleUser)
	var lastOut []byte
	for ev, err := range adkRunner.Run(ctx, "atelier-user", sess.Session.ID(), userContent, agent.RunConfig{}) {
		if err != nil {
			return nil, fmt.Errorf("generation agent run failed: %w", err)
		}
		if ev.Content != nil && len(ev.Content.Parts) > 0 {
			lastOut = []byte(ev.Content.Parts[0].Text)
		}
	}
	if len(lastOut) == 0 {
		return nil, fmt.Errorf("generation agent produced empty output")
	}

	if writeErr := os.WriteFile(filepath.Join(runDir, "output.json"), lastOut, 0o644); writeErr != nil {
		log.Warn().Err(writeErr).Msg("failed to write generation output.json")
	}

	return lastOut, nil
}

func (g *ExecGenerator) newRunDir() (string, error) {
	sfx, err := randomHex(3)
	if err != nil {
		return "", fmt.Errorf("generate run id: %w", err)
	}
	runID := fmt.Sprintf("%s-%s", time.Now().UTC().Format(runStampLayout), sfx)
	runDir := filepath.Join(gensDir(g.workDir), runID)
	if err := os.MkdirAll(filepath.Join(runDir, "logs"), 0o755); err != nil {
		return "", fmt.Errorf("create generation logs dir: %w", err)
	}
	return runDir, nil
}

func openLogFiles(runDir string) (*os.File, *os.File, func(), error) {
	stdoutFile, err := os.OpenFile(filepath.Join(runDir, "logs", "stdout.txt"), os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open generation stdout log: %w", err)
	}
	stderrFile, err := os.OpenFile(filepath.Join(runDir, "logs", "stderr.txt"), os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		_ = stdoutFile.Close()
		return nil, nil, nil, fmt.Errorf("open generation stderr log: %w", err)
	}
	closeFn := func() {
		_ = stdoutFile.Close()
		_ = stderrFile.Close()
	}
	return stdoutFile, stderrFile, closeFn, nil
}

func agentOutputWriters(debugEnabled bool, stdoutLog io.Writer, stderrLog io.Writer) (io.Writer, io.Writer) {
	if !debugEnabled {
		return stdoutLog, stderrLog
	}
	return io.MultiWriter(os.Stdout, stdoutLog), io.MultiWriter(os.Stderr, stderrLog)
}

func randomHex(bytesLen int) (string, error) {
	buf := make([]byte, bytesLen)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
