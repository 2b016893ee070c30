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

type SimilarityInput struct {
	SMILES    string  `json:"smiles"`
	Threshold float64 `json:"threshold"`
}

// Hit is one retained entry: its coefficient against the query and its id.
// It is encoded as a [coeff, id] pair.
type Hit struct {
	Coeff float64
	ID    string
}

func (h Hit) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{h.Coeff, h.ID})
}

func (h *Hit) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("hit: want [coeff, id], got %d elements", len(pair))
	}
	if err := json.Unmarshal(pair[0], &h.Coeff); err != nil {
		return err
	}
	return json.Unmarshal(pair[1], &h.ID)
}

type SimilarityOutput struct {
	Results []Hit `json:"results"`
}

func (o *SimilarityOutput) Append(other SimilarityOutput) {
	o.Results = append(o.Results, other.Results...)
}

func (o SimilarityOutput) Len() int {
	return len(o.Results)
}

// SimilarityData holds the fingerprints of one dividend's entries.
type SimilarityData struct {
	Dataset      kinds.Dataset
	IDs          []string
	Fingerprints [][]uint32
}

// Similarity retains every entry whose Tanimoto coefficient against the
// query is strictly above the threshold.
type Similarity struct {
	kind   kinds.Similarity
	engine chem.Engine
}

// NewSimilarity panics unless kind is a similarity kind.
func NewSimilarity(kind kinds.Operator, engine chem.Engine) *Similarity {
	k, ok := kind.(kinds.Similarity)
	if !ok {
		panic(kindMismatch(kinds.OperatorSimilarity, kind))
	}
	return &Similarity{kind: k, engine: engine}
}

func (s *Similarity) Kind() kinds.Operator {
	return s.kind
}

func (s *Similarity) Blank() SimilarityOutput {
	return SimilarityOutput{Results: []Hit{}}
}

func (s *Similarity) PrepareData(ctx context.Context, ds kinds.Dataset, d kinds.Dividend, store datastore.Store) (SimilarityData, bool, error) {
	ids, smiles, ok := store.GetSlice(ds, d)
	if !ok {
		return SimilarityData{}, false, nil
	}

	data := SimilarityData{
		Dataset:      ds,
		IDs:          make([]string, 0, len(ids)),
		Fingerprints: make([][]uint32, 0, len(ids)),
	}
	for i, id := range ids {
		fp, err := s.fingerprint(ctx, smiles[i])
		if errors.Is(err, chem.ErrInvalidMolecule) {
			continue
		}
		if err != nil {
			return SimilarityData{}, false, err
		}
		data.IDs = append(data.IDs, id)
		data.Fingerprints = append(data.Fingerprints, fp)
	}
	return data, true, nil
}

func (s *Similarity) fingerprint(ctx context.Context, smiles string) ([]uint32, error) {
	mol, err := s.engine.ParseMolecule(ctx, smiles)
	if err != nil {
		return nil, err
	}
	return s.engine.Fingerprint(ctx, mol, s.kind.Fingerprint)
}

func (s *Similarity) Compute(ctx context.Context, in SimilarityInput, data SimilarityData, _ kinds.Dividend) (SimilarityOutput, error) {
	target, err := s.fingerprint(ctx, in.SMILES)
	if err != nil {
		return SimilarityOutput{}, fmt.Errorf("query %q: %w", in.SMILES, err)
	}

	out := s.Blank()
	for i, fp := range data.Fingerprints {
		coeff := chem.Tanimoto(fp, target)
		if coeff > in.Threshold {
			out.Results = append(out.Results, Hit{Coeff: coeff, ID: data.IDs[i]})
		}
	}
	return out, nil
}

func (s *Similarity) Report(jobID string, in SimilarityInput, data SimilarityData, out SimilarityOutput) *SimilarityReport {
	return &SimilarityReport{
		JobID:         jobID,
		ComputingUnit: kinds.NewComputingUnit(s.kind, data.Dataset),
		Input:         in,
		Output:        out,
	}
}

type SimilarityReport struct {
	JobID         string              `json:"job_id"`
	ComputingUnit kinds.ComputingUnit `json:"cuk"`
	Input         SimilarityInput     `json:"input"`
	Output        SimilarityOutput    `json:"output"`
}

func (r *SimilarityReport) Print(w io.Writer) {
	fmt.Fprintf(w, "Report of OpenBabel Similarity Search\n\n")
	fmt.Fprintf(w, " Input\n")
	fmt.Fprintf(w, "\t smiles: %s\n", r.Input.SMILES)
	fmt.Fprintf(w, "\t threshold: %.2f\n", r.Input.Threshold)
	fmt.Fprintf(w, " Operator\n")
	fmt.Fprintf(w, "\t fingerprint kind: %s\n", r.ComputingUnit.Operator)
	fmt.Fprintf(w, " Dataset\n")
	fmt.Fprintf(w, "\t kind: %s\n", r.ComputingUnit.Dataset)
	fmt.Fprintf(w, " Output\n")
	for _, h := range r.Output.Results {
		fmt.Fprintf(w, "\t %s\t %.3f\n", h.ID, h.Coeff)
	}
	fmt.Fprintf(w, "\t Count: %d\n", r.Output.Len())
}
