package operator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/nemanja-m/divvy/internal/datastore"
	"github.com/nemanja-m/divvy/internal/runner"
	"github.com/nemanja-m/divvy/pkg/kinds"
)

var ErrSimulationNotFound = errors.New("simulation directory not found")

type GmxInput struct {
	SimulationID string   `json:"simulation_id"`
	SubCommand   string   `json:"sub_command"`
	Arguments    []string `json:"arguments"`
	Prompts      []string `json:"prompts"`
	FilesDir     string   `json:"files_dir"`
	FilesInput   []string `json:"files_input"`
	FilesOutput  []string `json:"files_output"`
}

type GmxOutput struct {
	Success bool   `json:"success"`
	Stdout  string `json:"stdout"`
	Stderr  string `json:"stderr"`
}

// Append concatenates the streams and keeps the latest success flag.
func (o *GmxOutput) Append(other GmxOutput) {
	o.Success = other.Success
	o.Stdout += other.Stdout
	o.Stderr += other.Stderr
}

type GmxConfig struct {
	// WorkDir holds one directory per simulation id.
	WorkDir string
}

// GmxCommand runs one gmx sub-command inside a simulation directory.
type GmxCommand struct {
	kind   kinds.GmxCommand
	cfg    GmxConfig
	runner runner.Runner
}

// NewGmxCommand panics unless kind is the gmx command kind.
func NewGmxCommand(kind kinds.Operator, cfg GmxConfig, r runner.Runner) *GmxCommand {
	k, ok := kind.(kinds.GmxCommand)
	if !ok {
		panic(kindMismatch(kinds.OperatorGmxCommand, kind))
	}
	return &GmxCommand{kind: k, cfg: cfg, runner: r}
}

func (g *GmxCommand) Kind() kinds.Operator {
	return g.kind
}

func (g *GmxCommand) Blank() GmxOutput {
	return GmxOutput{}
}

func (g *GmxCommand) PrepareData(context.Context, kinds.Dataset, kinds.Dividend, datastore.Store) (struct{}, bool, error) {
	return struct{}{}, true, nil
}

// SimulationDir is where the sub-command of in runs.
func (g *GmxCommand) SimulationDir(in GmxInput) string {
	return filepath.Join(g.cfg.WorkDir, in.SimulationID)
}

func (g *GmxCommand) Compute(ctx context.Context, in GmxInput, _ struct{}, _ kinds.Dividend) (GmxOutput, error) {
	dir := g.SimulationDir(in)
	if in.SimulationID == "" || strings.Contains(in.SimulationID, "..") {
		return GmxOutput{}, fmt.Errorf("%w: invalid simulation id %q", ErrSimulationNotFound, in.SimulationID)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return GmxOutput{}, fmt.Errorf("%w: %s", ErrSimulationNotFound, dir)
	}

	outcome, err := g.runner.Run(ctx, runner.Command{
		SubCommand: in.SubCommand,
		Args:       in.Arguments,
		Dir:        dir,
		Prompts:    in.Prompts,
	})
	if err != nil {
		return GmxOutput{}, err
	}
	if !outcome.Success {
		return GmxOutput{}, errors.New(outcome.Stderr)
	}
	return GmxOutput{Success: true, Stdout: outcome.Stdout, Stderr: outcome.Stderr}, nil
}

func (g *GmxCommand) Report(jobID string, in GmxInput, _ struct{}, out GmxOutput) *GmxReport {
	return &GmxReport{
		JobID:         jobID,
		ComputingUnit: kinds.NewComputingUnit(g.kind, kinds.DatasetEmpty),
		Input:         in,
		Output:        out,
	}
}

type GmxReport struct {
	JobID         string              `json:"job_id"`
	ComputingUnit kinds.ComputingUnit `json:"cuk"`
	Input         GmxInput            `json:"input"`
	Output        GmxOutput           `json:"output"`
}

func (r *GmxReport) Print(w io.Writer) {
	fmt.Fprintf(w, " Report of GROMACS gmx command\n\n")
	fmt.Fprintf(w, " Input\n")
	fmt.Fprintf(w, "\t simulation: %s\n", r.Input.SimulationID)
	fmt.Fprintf(w, "\t command: gmx %s\n", strings.Join(append([]string{r.Input.SubCommand}, r.Input.Arguments...), " "))
	if len(r.Input.Prompts) > 0 {
		fmt.Fprintf(w, "\t prompts: %s\n", strings.Join(r.Input.Prompts, " | "))
	}
	fmt.Fprintf(w, " Output\n")
	fmt.Fprintf(w, "\t success: %t\n", r.Output.Success)
	fmt.Fprintf(w, "\t stdout:\n%s\n", r.Output.Stdout)
	if r.Output.Stderr != "" {
		fmt.Fprintf(w, "\t stderr:\n%s\n", r.Output.Stderr)
	}
}
