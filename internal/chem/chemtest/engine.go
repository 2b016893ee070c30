// Package chemtest provides a table-driven chem.Engine for tests.
package chemtest

import (
	"context"
	"fmt"

	"github.com/nemanja-m/divvy/internal/chem"
	"github.com/nemanja-m/divvy/pkg/kinds"
)

// Engine answers from fixed tables. Unknown structures parse successfully
// and have an all-zero fingerprint and no matches.
type Engine struct {
	// Fingerprints maps SMILES to the set bit positions of its fingerprint.
	Fingerprints map[string][]int
	// Matches maps SMARTS then SMILES to the embeddings the engine reports.
	Matches map[string]map[string]chem.MatchResult
	// Invalid SMILES fail to parse.
	Invalid map[string]bool
	// BadPatterns fail to compile.
	BadPatterns map[string]bool
}

func (e *Engine) ParseMolecule(_ context.Context, smiles string) (chem.Molecule, error) {
	if e.Invalid[smiles] {
		return chem.Molecule{}, fmt.Errorf("%w: %s", chem.ErrInvalidMolecule, smiles)
	}
	return chem.Molecule{SMILES: smiles}, nil
}

func (e *Engine) Fingerprint(_ context.Context, mol chem.Molecule, fp kinds.Fingerprint) ([]uint32, error) {
	return Bits(fp, e.Fingerprints[mol.SMILES]...), nil
}

func (e *Engine) CompilePattern(_ context.Context, smarts string) (chem.Pattern, error) {
	if e.BadPatterns[smarts] {
		return nil, fmt.Errorf("%w: %s", chem.ErrInvalidPattern, smarts)
	}
	return pattern(e.Matches[smarts]), nil
}

type pattern map[string]chem.MatchResult

func (p pattern) Match(_ context.Context, mol chem.Molecule) (chem.MatchResult, error) {
	return p[mol.SMILES], nil
}

// Bits packs the given bit positions into a fingerprint of kind fp.
func Bits(fp kinds.Fingerprint, positions ...int) []uint32 {
	words := make([]uint32, fp.Words())
	for _, p := range positions {
		words[p/32] |= 1 << (p % 32)
	}
	return words
}
