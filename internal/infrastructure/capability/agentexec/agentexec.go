// Package agentexec adapts external extraction agents that run as local
// subprocesses. The protocol is one JSON request on stdin, one JSON response
// on stdout; anything on stderr becomes error context. The agents are native
// binaries that crash under concurrent use, which is why all dispatch goes
// through the pipeline admission gate.
package agentexec

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/mkorchagin/admission-analyzer/internal/core/domain"
)

const maxStderrBytes = 2048

type runner struct {
	name string
	argv []string
	log  *slog.Logger
}

func newRunner(name, command string, log *slog.Logger) (*runner, error) {
	argv := strings.Fields(command)
	if len(argv) == 0 {
		return nil, fmt.Errorf("agentexec: %s agent command is empty", name)
	}
	return &runner{name: name, argv: argv, log: log}, nil
}

func (r *runner) run(ctx context.Context, request any, response any) error {
	payload, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("agentexec: encode %s request: %w", r.name, err)
	}

	cmd := exec.CommandContext(ctx, r.argv[0], r.argv[1:]...)
	cmd.Stdin = bytes.NewReader(payload)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err = cmd.Run()
	r.log.Debug("agent_invoked",
		"agent", r.name,
		"command", r.argv[0],
		"duration", time.Since(start).String(),
		"error", err != nil,
	)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("agentexec: %s agent failed: %w: %s", r.name, err, truncatedStderr(&stderr))
	}

	if err := json.Unmarshal(stdout.Bytes(), response); err != nil {
		return fmt.Errorf("agentexec: decode %s response: %w", r.name, err)
	}
	return nil
}

func truncatedStderr(buf *bytes.Buffer) string {
	s := strings.TrimSpace(buf.String())
	if len(s) > maxStderrBytes {
		s = s[:maxStderrBytes] + "..."
	}
	if s == "" {
		return "(no stderr output)"
	}
	return s
}

type filesRequest struct {
	Files []string `json:"files"`
}

type financialRequest struct {
	Files        []string `json:"files"`
	ThresholdEUR float64  `json:"threshold_eur"`
}

type IdentityAgent struct {
	r *runner
}

func NewIdentityAgent(command string, log *slog.Logger) (*IdentityAgent, error) {
	r, err := newRunner("identity", command, log)
	if err != nil {
		return nil, err
	}
	return &IdentityAgent{r: r}, nil
}

func (a *IdentityAgent) Process(ctx context.Context, files []string) (*domain.IdentityExtract, error) {
	var out domain.IdentityExtract
	if err := a.r.run(ctx, filesRequest{Files: files}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type FinancialAgent struct {
	r *runner
}

func NewFinancialAgent(command string, log *slog.Logger) (*FinancialAgent, error) {
	r, err := newRunner("financial", command, log)
	if err != nil {
		return nil, err
	}
	return &FinancialAgent{r: r}, nil
}

func (a *FinancialAgent) Process(ctx context.Context, files []string, thresholdEUR float64) (*domain.FinancialExtract, error) {
	var out domain.FinancialExtract
	if err := a.r.run(ctx, financialRequest{Files: files, ThresholdEUR: thresholdEUR}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type EducationAgent struct {
	r *runner
}

func NewEducationAgent(command string, log *slog.Logger) (*EducationAgent, error) {
	r, err := newRunner("education", command, log)
	if err != nil {
		return nil, err
	}
	return &EducationAgent{r: r}, nil
}

func (a *EducationAgent) Process(ctx context.Context, files []string) (*domain.EducationExtract, error) {
	var out domain.EducationExtract
	if err := a.r.run(ctx, filesRequest{Files: files}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
