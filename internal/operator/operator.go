// Package operator implements the computations a job can run. Each
// operator kind has a typed implementation of Operator; the dispatcher
// drives them through the type-erased Unit.
package operator

import (
	"context"
	"errors"
	"fmt"

	"github.com/nemanja-m/divvy/internal/chem"
	"github.com/nemanja-m/divvy/internal/datastore"
	"github.com/nemanja-m/divvy/internal/runner"
	"github.com/nemanja-m/divvy/pkg/codec"
	"github.com/nemanja-m/divvy/pkg/kinds"
)

var ErrNotConfigured = errors.New("operator not configured")

// Operator is the typed contract of one operator kind. I is the input,
// D the per-dividend data, O the output and R the report.
type Operator[I, D, O, R any] interface {
	Kind() kinds.Operator
	// PrepareData fetches what Compute needs for one dividend. false means
	// the store has no data for it, which is not an error.
	PrepareData(ctx context.Context, ds kinds.Dataset, d kinds.Dividend, store datastore.Store) (D, bool, error)
	Compute(ctx context.Context, in I, data D, d kinds.Dividend) (O, error)
	Report(jobID string, in I, data D, out O) R
	// Blank is the output of a dividend without data.
	Blank() O
}

// Unit runs one dividend on encoded input and returns encoded output.
type Unit interface {
	Kind() kinds.Operator
	Run(ctx context.Context, jobID string, input string, ds kinds.Dataset, d kinds.Dividend) (string, error)
	Blank() string
}

type unit[I, D, O, R any] struct {
	op    Operator[I, D, O, R]
	store datastore.Store
}

// NewUnit erases the types of op.
func NewUnit[I, D, O, R any](op Operator[I, D, O, R], store datastore.Store) Unit {
	return &unit[I, D, O, R]{op: op, store: store}
}

func (u *unit[I, D, O, R]) Kind() kinds.Operator {
	return u.op.Kind()
}

func (u *unit[I, D, O, R]) Blank() string {
	return codec.MustEncode(u.op.Blank())
}

func (u *unit[I, D, O, R]) Run(ctx context.Context, jobID string, input string, ds kinds.Dataset, d kinds.Dividend) (string, error) {
	in, err := codec.Decode[I](input)
	if err != nil {
		return "", fmt.Errorf("job %s: malformed %s input: %w", jobID, kinds.OperatorName(u.op.Kind()), err)
	}
	data, ok, err := u.op.PrepareData(ctx, ds, d, u.store)
	if err != nil {
		return "", fmt.Errorf("job %s dividend %s: prepare data: %w", jobID, d, err)
	}
	if !ok {
		return u.Blank(), nil
	}
	out, err := u.op.Compute(ctx, in, data, d)
	if err != nil {
		return "", err
	}
	return codec.Encode(out)
}

// Deps are the collaborators operators are built from. Nil fields leave
// the operators that need them unavailable.
type Deps struct {
	Engine  chem.Engine
	Store   datastore.Store
	WorkDir string
	Gmx     runner.Runner
	ReCGen  runner.Runner
}

// New builds the Unit for kind. It is the only place that switches over
// every operator kind.
func New(kind kinds.Operator, deps Deps) (Unit, error) {
	engine := deps.Engine
	if engine == nil {
		engine = chem.Unavailable{}
	}

	switch k := kind.(type) {
	case kinds.Similarity:
		return NewUnit[SimilarityInput, SimilarityData, SimilarityOutput, *SimilarityReport](NewSimilarity(k, engine), deps.Store), nil
	case kinds.Substructure:
		return NewUnit[SubstructureInput, SubstructureData, SubstructureOutput, *SubstructureReport](NewSubstructure(k, engine), deps.Store), nil
	case kinds.GmxCommand:
		if deps.Gmx == nil {
			return nil, fmt.Errorf("%w: %s needs a gmx runner", ErrNotConfigured, k)
		}
		op := NewGmxCommand(k, GmxConfig{WorkDir: deps.WorkDir}, deps.Gmx)
		return NewUnit[GmxInput, struct{}, GmxOutput, *GmxReport](op, deps.Store), nil
	case kinds.ReCGenBuild:
		if deps.ReCGen == nil {
			return nil, fmt.Errorf("%w: %s needs a recgen runner", ErrNotConfigured, k)
		}
		op := NewReCGenBuild(k, ReCGenConfig{WorkDir: deps.WorkDir}, deps.ReCGen)
		return NewUnit[ReCGenInput, struct{}, ReCGenOutput, *ReCGenReport](op, deps.Store), nil
	}
	return nil, fmt.Errorf("%w: %v", kinds.ErrUnknownOperator, kind)
}

func kindMismatch(want string, got kinds.Operator) string {
	return fmt.Sprintf("operator kind mismatch: want %s, got %v", want, got)
}
