package operator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/nemanja-m/divvy/internal/chem"
	"github.com/nemanja-m/divvy/internal/datastore"
	"github.com/nemanja-m/divvy/pkg/kinds"
)

type SubstructureInput struct {
	SMARTS string `json:"smarts"`
}

// Match is one entry with at least one embedding of the pattern, encoded
// as a [embeddings, id] pair.
type Match struct {
	Embeddings chem.MatchResult
	ID         string
}

func (m Match) MarshalJSON() ([]byte, error) {
	embeddings := m.Embeddings
	if embeddings == nil {
		embeddings = chem.MatchResult{}
	}
	return json.Marshal([2]any{embeddings, m.ID})
}

func (m *Match) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("match: want [embeddings, id], got %d elements", len(pair))
	}
	if err := json.Unmarshal(pair[0], &m.Embeddings); err != nil {
		return err
	}
	return json.Unmarshal(pair[1], &m.ID)
}

type SubstructureOutput struct {
	Results []Match `json:"results"`
}

func (o *SubstructureOutput) Append(other SubstructureOutput) {
	o.Results = append(o.Results, other.Results...)
}

func (o SubstructureOutput) Len() int {
	return len(o.Results)
}

type SubstructureData struct {
	Dataset   kinds.Dataset
	IDs       []string
	Molecules []chem.Molecule
}

// Substructure retains every entry the pattern matches at least once.
type Substructure struct {
	kind   kinds.Substructure
	engine chem.Engine
}

// NewSubstructure panics unless kind is the substructure kind.
func NewSubstructure(kind kinds.Operator, engine chem.Engine) *Substructure {
	k, ok := kind.(kinds.Substructure)
	if !ok {
		panic(kindMismatch(kinds.OperatorSubstructure, kind))
	}
	return &Substructure{kind: k, engine: engine}
}

func (s *Substructure) Kind() kinds.Operator {
	return s.kind
}

func (s *Substructure) Blank() SubstructureOutput {
	return SubstructureOutput{Results: []Match{}}
}

func (s *Substructure) PrepareData(ctx context.Context, ds kinds.Dataset, d kinds.Dividend, store datastore.Store) (SubstructureData, bool, error) {
	ids, smiles, ok := store.GetSlice(ds, d)
	if !ok {
		return SubstructureData{}, false, nil
	}

	data := SubstructureData{
		Dataset:   ds,
		IDs:       make([]string, 0, len(ids)),
		Molecules: make([]chem.Molecule, 0, len(ids)),
	}
	for i, id := range ids {
		mol, err := s.engine.ParseMolecule(ctx, smiles[i])
		if errors.Is(err, chem.ErrInvalidMolecule) {
			continue
		}
		if err != nil {
			return SubstructureData{}, false, err
		}
		data.IDs = append(data.IDs, id)
		data.Molecules = append(data.Molecules, mol)
	}
	return data, true, nil
}

func (s *Substructure) Compute(ctx context.Context, in SubstructureInput, data SubstructureData, _ kinds.Dividend) (SubstructureOutput, error) {
	pattern, err := s.engine.CompilePattern(ctx, in.SMARTS)
	if err != nil {
		return SubstructureOutput{}, fmt.Errorf("pattern %q: %w", in.SMARTS, err)
	}

	out := s.Blank()
	for i, mol := range data.Molecules {
		embeddings, err := pattern.Match(ctx, mol)
		if err != nil {
			return SubstructureOutput{}, fmt.Errorf("match %s: %w", data.IDs[i], err)
		}
		if len(embeddings) > 0 {
			out.Results = append(out.Results, Match{Embeddings: embeddings, ID: data.IDs[i]})
		}
	}
	return out, nil
}

func (s *Substructure) Report(jobID string, in SubstructureInput, data SubstructureData, out SubstructureOutput) *SubstructureReport {
	return &SubstructureReport{
		JobID:         jobID,
		ComputingUnit: kinds.NewComputingUnit(s.kind, data.Dataset),
		Input:         in,
		Output:        out,
	}
}

type SubstructureReport struct {
	JobID         string              `json:"job_id"`
	ComputingUnit kinds.ComputingUnit `json:"cuk"`
	Input         SubstructureInput   `json:"input"`
	Output        SubstructureOutput  `json:"output"`
}

func (r *SubstructureReport) Print(w io.Writer) {
	fmt.Fprintf(w, " Report of OpenBabel Substructure Search\n\n")
	fmt.Fprintf(w, " Input\n")
	fmt.Fprintf(w, "\t smarts: %s\n", r.Input.SMARTS)
	fmt.Fprintf(w, " Dataset\n")
	fmt.Fprintf(w, "\t kind: %s\n", r.ComputingUnit.Dataset)
	fmt.Fprintf(w, " Output\n")
	for _, m := range r.Output.Results {
		fmt.Fprintf(w, "\t %s\t %v\n", m.ID, m.Embeddings)
	}
	fmt.Fprintf(w, "\t Count: %d\n", r.Output.Len())
}
