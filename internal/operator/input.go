package operator

import (
	"errors"
	"fmt"

	"github.com/nemanja-m/divvy/pkg/codec"
	"github.com/nemanja-m/divvy/pkg/kinds"
)

var ErrInvalidInput = errors.New("invalid operator input")

// CanonicalInput checks that raw decodes as the input of kind and returns
// its canonical encoding. Equal inputs always encode the same way, so the
// result can be used to recognise repeated requirements.
func CanonicalInput(kind kinds.Operator, raw string) (string, error) {
	switch kind.(type) {
	case kinds.Similarity:
		return canonical(raw, func(in SimilarityInput) error {
			if in.SMILES == "" {
				return errors.New("smiles is required")
			}
			if in.Threshold < 0 || in.Threshold > 1 {
				return fmt.Errorf("threshold %v outside [0, 1]", in.Threshold)
			}
			return nil
		})
	case kinds.Substructure:
		return canonical(raw, func(in SubstructureInput) error {
			if in.SMARTS == "" {
				return errors.New("smarts is required")
			}
			return nil
		})
	case kinds.GmxCommand:
		return canonical(raw, func(in GmxInput) error {
			if in.SimulationID == "" || in.SubCommand == "" {
				return errors.New("simulation_id and sub_command are required")
			}
			return nil
		})
	case kinds.ReCGenBuild:
		return canonical(raw, func(in ReCGenInput) error {
			if in.Mol == "" {
				return errors.New("mol is required")
			}
			return nil
		})
	}
	return "", fmt.Errorf("%w: %v", kinds.ErrUnknownOperator, kind)
}

func canonical[I any](raw string, validate func(I) error) (string, error) {
	in, err := codec.Decode[I](raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := validate(in); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return codec.Encode(in)
}
