package chem

import (
	"context"
	"fmt"
	"strings"

	"github.com/nemanja-m/divvy/internal/runner"
	"github.com/nemanja-m/divvy/pkg/codec"
	"github.com/nemanja-m/divvy/pkg/kinds"
)

// ProcessEngine delegates to a helper program that speaks one JSON request
// on stdin and one JSON response on stdout per invocation. The sub-command
// names the operation: parse, fingerprint, compile or match. A non-zero
// exit means the input was rejected and stderr says why.
type ProcessEngine struct {
	runner runner.Runner
}

func NewProcessEngine(r runner.Runner) *ProcessEngine {
	return &ProcessEngine{runner: r}
}

type engineRequest struct {
	SMILES      string `json:"smiles,omitempty"`
	SMARTS      string `json:"smarts,omitempty"`
	Fingerprint string `json:"fingerprint,omitempty"`
}

type engineResponse struct {
	Words   []uint32    `json:"words,omitempty"`
	Matches MatchResult `json:"matches,omitempty"`
}

func (e *ProcessEngine) call(ctx context.Context, op string, req engineRequest, rejected error) (*engineResponse, error) {
	payload, err := codec.Encode(req)
	if err != nil {
		return nil, err
	}
	out, err := e.runner.Run(ctx, runner.Command{SubCommand: op, Prompts: []string{payload}})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEngineUnavailable, err)
	}
	if !out.Success {
		return nil, fmt.Errorf("%w: %s", rejected, strings.TrimSpace(out.Stderr))
	}
	if strings.TrimSpace(out.Stdout) == "" {
		return &engineResponse{}, nil
	}
	resp, err := codec.Decode[engineResponse](out.Stdout)
	if err != nil {
		return nil, fmt.Errorf("engine %s: %w", op, err)
	}
	return &resp, nil
}

func (e *ProcessEngine) ParseMolecule(ctx context.Context, smiles string) (Molecule, error) {
	if _, err := e.call(ctx, "parse", engineRequest{SMILES: smiles}, ErrInvalidMolecule); err != nil {
		return Molecule{}, err
	}
	return Molecule{SMILES: smiles}, nil
}

func (e *ProcessEngine) Fingerprint(ctx context.Context, mol Molecule, fp kinds.Fingerprint) ([]uint32, error) {
	resp, err := e.call(ctx, "fingerprint", engineRequest{SMILES: mol.SMILES, Fingerprint: fp.String()}, ErrInvalidMolecule)
	if err != nil {
		return nil, err
	}
	if len(resp.Words) != fp.Words() {
		return nil, fmt.Errorf("engine fingerprint: got %d words, want %d", len(resp.Words), fp.Words())
	}
	return resp.Words, nil
}

func (e *ProcessEngine) CompilePattern(ctx context.Context, smarts string) (Pattern, error) {
	if _, err := e.call(ctx, "compile", engineRequest{SMARTS: smarts}, ErrInvalidPattern); err != nil {
		return nil, err
	}
	return &processPattern{engine: e, smarts: smarts}, nil
}

type processPattern struct {
	engine *ProcessEngine
	smarts string
}

func (p *processPattern) Match(ctx context.Context, mol Molecule) (MatchResult, error) {
	resp, err := p.engine.call(ctx, "match", engineRequest{SMARTS: p.smarts, SMILES: mol.SMILES}, ErrInvalidMolecule)
	if err != nil {
		return nil, err
	}
	return resp.Matches, nil
}
