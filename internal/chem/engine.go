// Package chem is the contract divvy needs from a cheminformatics toolkit:
// parse structures, generate fingerprints, compile and match patterns.
package chem

import (
	"context"
	"errors"

	"github.com/nemanja-m/divvy/pkg/kinds"
)

var (
	ErrEngineUnavailable = errors.New("chem engine unavailable")
	ErrInvalidMolecule   = errors.New("invalid molecule")
	ErrInvalidPattern    = errors.New("invalid pattern")
)

// Molecule is a structure accepted by the engine that parsed it.
type Molecule struct {
	SMILES string
}

// MatchResult lists one atom-index embedding per match, in engine order.
type MatchResult [][]int

// Pattern is a compiled substructure query.
type Pattern interface {
	Match(ctx context.Context, mol Molecule) (MatchResult, error)
}

// Engine is implemented by toolkit adapters. All methods are pure functions
// of their arguments; ctx only bounds how long an adapter may take.
type Engine interface {
	ParseMolecule(ctx context.Context, smiles string) (Molecule, error)
	Fingerprint(ctx context.Context, mol Molecule, fp kinds.Fingerprint) ([]uint32, error)
	CompilePattern(ctx context.Context, smarts string) (Pattern, error)
}

// Unavailable fails every call. It stands in when no toolkit is configured.
type Unavailable struct{}

func (Unavailable) ParseMolecule(context.Context, string) (Molecule, error) {
	return Molecule{}, ErrEngineUnavailable
}

func (Unavailable) Fingerprint(context.Context, Molecule, kinds.Fingerprint) ([]uint32, error) {
	return nil, ErrEngineUnavailable
}

func (Unavailable) CompilePattern(context.Context, string) (Pattern, error) {
	return nil, ErrEngineUnavailable
}
