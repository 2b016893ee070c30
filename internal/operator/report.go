package operator

import (
	"fmt"
	"io"

	"github.com/nemanja-m/divvy/pkg/codec"
	"github.com/nemanja-m/divvy/pkg/kinds"
)

// Report is the human readable summary of a finished job: the input it was
// given, the computing unit it ran on and the merged output of all its
// dividends.
type Report interface {
	Print(w io.Writer)
}

// mergeable is satisfied by pointers to outputs that can absorb another
// dividend's output.
type mergeable[O any] interface {
	*O
	Append(other O)
}

func merge[O any, P mergeable[O]](blank O, outputs []string) (O, error) {
	merged := blank
	for i, encoded := range outputs {
		part, err := codec.Decode[O](encoded)
		if err != nil {
			return merged, fmt.Errorf("output %d: %w", i, err)
		}
		P(&merged).Append(part)
	}
	return merged, nil
}

func assemble[I, O any, P mergeable[O]](input string, outputs []string, blank O, build func(I, O) Report) (Report, error) {
	in, err := codec.Decode[I](input)
	if err != nil {
		return nil, fmt.Errorf("report input: %w", err)
	}
	out, err := merge[O, P](blank, outputs)
	if err != nil {
		return nil, fmt.Errorf("report: %w", err)
	}
	return build(in, out), nil
}

// AssembleReport merges the ordered outputs of a job into the report of
// its operator kind.
func AssembleReport(jobID string, cu kinds.ComputingUnit, input string, outputs []string) (Report, error) {
	switch cu.Operator.(type) {
	case kinds.Similarity:
		return assemble[SimilarityInput](input, outputs, SimilarityOutput{Results: []Hit{}},
			func(in SimilarityInput, out SimilarityOutput) Report {
				return &SimilarityReport{JobID: jobID, ComputingUnit: cu, Input: in, Output: out}
			})
	case kinds.Substructure:
		return assemble[SubstructureInput](input, outputs, SubstructureOutput{Results: []Match{}},
			func(in SubstructureInput, out SubstructureOutput) Report {
				return &SubstructureReport{JobID: jobID, ComputingUnit: cu, Input: in, Output: out}
			})
	case kinds.GmxCommand:
		return assemble[GmxInput](input, outputs, GmxOutput{},
			func(in GmxInput, out GmxOutput) Report {
				return &GmxReport{JobID: jobID, ComputingUnit: cu, Input: in, Output: out}
			})
	case kinds.ReCGenBuild:
		return assemble[ReCGenInput](input, outputs, ReCGenOutput{Results: []string{}},
			func(in ReCGenInput, out ReCGenOutput) Report {
				return &ReCGenReport{JobID: jobID, ComputingUnit: cu, Input: in, Output: out}
			})
	}
	return nil, fmt.Errorf("%w: %v", kinds.ErrUnknownOperator, cu.Operator)
}

// DecodeReport parses a saved report of the given operator kind.
func DecodeReport(kind kinds.Operator, content string) (Report, error) {
	switch kind.(type) {
	case kinds.Similarity:
		return decodeReport[SimilarityReport](content)
	case kinds.Substructure:
		return decodeReport[SubstructureReport](content)
	case kinds.GmxCommand:
		return decodeReport[GmxReport](content)
	case kinds.ReCGenBuild:
		return decodeReport[ReCGenReport](content)
	}
	return nil, fmt.Errorf("%w: %v", kinds.ErrUnknownOperator, kind)
}

func decodeReport[T any, P interface {
	*T
	Report
}](content string) (Report, error) {
	r, err := codec.Decode[T](content)
	if err != nil {
		return nil, err
	}
	return P(&r), nil
}

// PrintReport renders a saved report of the given operator kind.
func PrintReport(kind kinds.Operator, content string, w io.Writer) error {
	r, err := DecodeReport(kind, content)
	if err != nil {
		return err
	}
	r.Print(w)
	return nil
}
