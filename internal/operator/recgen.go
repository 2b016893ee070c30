package operator

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/nemanja-m/divvy/internal/datastore"
	"github.com/nemanja-m/divvy/internal/runner"
	"github.com/nemanja-m/divvy/pkg/kinds"
)

const recgenInputFile = "input.mol"

type ReCGenInput struct {
	// Mol is the seed structure as a MDL mol block.
	Mol    string `json:"mol"`
	DBFile string `json:"db_file,omitempty"`
}

type ReCGenOutput struct {
	Results []string `json:"results"`
}

// Append adds the structures of other not already present.
func (o *ReCGenOutput) Append(other ReCGenOutput) {
	for _, s := range other.Results {
		if !slices.Contains(o.Results, s) {
			o.Results = append(o.Results, s)
		}
	}
}

func (o ReCGenOutput) Len() int {
	return len(o.Results)
}

type ReCGenConfig struct {
	// WorkDir receives a scratch directory per run.
	WorkDir string
}

// ReCGenBuild generates candidate ligands from a seed structure with the
// recgen program.
type ReCGenBuild struct {
	kind   kinds.ReCGenBuild
	cfg    ReCGenConfig
	runner runner.Runner
}

// NewReCGenBuild panics unless kind is the recgen build kind.
func NewReCGenBuild(kind kinds.Operator, cfg ReCGenConfig, r runner.Runner) *ReCGenBuild {
	k, ok := kind.(kinds.ReCGenBuild)
	if !ok {
		panic(kindMismatch(kinds.OperatorReCGenBuild, kind))
	}
	return &ReCGenBuild{kind: k, cfg: cfg, runner: r}
}

func (b *ReCGenBuild) Kind() kinds.Operator {
	return b.kind
}

func (b *ReCGenBuild) Blank() ReCGenOutput {
	return ReCGenOutput{Results: []string{}}
}

func (b *ReCGenBuild) PrepareData(context.Context, kinds.Dataset, kinds.Dividend, datastore.Store) (struct{}, bool, error) {
	return struct{}{}, true, nil
}

func (b *ReCGenBuild) Compute(ctx context.Context, in ReCGenInput, _ struct{}, _ kinds.Dividend) (ReCGenOutput, error) {
	if strings.TrimSpace(in.Mol) == "" {
		return ReCGenOutput{}, errors.New("recgen: empty mol block")
	}

	root := filepath.Join(b.cfg.WorkDir, "recgen")
	if err := os.MkdirAll(root, 0o755); err != nil {
		return ReCGenOutput{}, err
	}
	dir, err := os.MkdirTemp(root, "build-")
	if err != nil {
		return ReCGenOutput{}, err
	}
	defer os.RemoveAll(dir)

	if err := os.WriteFile(filepath.Join(dir, recgenInputFile), []byte(in.Mol), 0o644); err != nil {
		return ReCGenOutput{}, err
	}

	args := []string{"--input", recgenInputFile}
	if in.DBFile != "" {
		args = append(args, "--db", in.DBFile)
	}
	outcome, err := b.runner.Run(ctx, runner.Command{SubCommand: "build", Args: args, Dir: dir})
	if err != nil {
		return ReCGenOutput{}, err
	}
	if !outcome.Success {
		return ReCGenOutput{}, errors.New(outcome.Stderr)
	}

	out := b.Blank()
	scanner := bufio.NewScanner(strings.NewReader(outcome.Stdout))
	for scanner.Scan() {
		if smiles := strings.TrimSpace(scanner.Text()); smiles != "" {
			out.Append(ReCGenOutput{Results: []string{smiles}})
		}
	}
	return out, nil
}

func (b *ReCGenBuild) Report(jobID string, in ReCGenInput, _ struct{}, out ReCGenOutput) *ReCGenReport {
	return &ReCGenReport{
		JobID:         jobID,
		ComputingUnit: kinds.NewComputingUnit(b.kind, kinds.DatasetEmpty),
		Input:         in,
		Output:        out,
	}
}

type ReCGenReport struct {
	JobID         string              `json:"job_id"`
	ComputingUnit kinds.ComputingUnit `json:"cuk"`
	Input         ReCGenInput         `json:"input"`
	Output        ReCGenOutput        `json:"output"`
}

func (r *ReCGenReport) Print(w io.Writer) {
	fmt.Fprintf(w, " Report of ReCGen Build\n\n")
	fmt.Fprintf(w, " Input\n")
	fmt.Fprintf(w, "\t input mol: %s\n", r.Input.Mol)
	fmt.Fprintf(w, " Dataset\n")
	fmt.Fprintf(w, "\t kind: %s\n", r.ComputingUnit.Dataset)
	fmt.Fprintf(w, " Output\n")
	for _, smiles := range r.Output.Results {
		fmt.Fprintf(w, "\t %s\n", smiles)
	}
	fmt.Fprintf(w, "\t Count: %d\n", r.Output.Len())
}
