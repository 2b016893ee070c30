package kinds

import (
	"errors"
	"fmt"
	"strings"
)

// ComputationKind decides how a job built around an operator is split and
// how its progress is reported.
type ComputationKind int

const (
	// SingleMachine jobs run as one dividend and report percentage progress.
	SingleMachine ComputationKind = iota
	// MultiMachine jobs are split into blocks and report block counts.
	MultiMachine
)

func (c ComputationKind) String() string {
	switch c {
	case SingleMachine:
		return "single_machine"
	case MultiMachine:
		return "multi_machine"
	}
	return fmt.Sprintf("computation_kind(%d)", int(c))
}

const (
	OperatorSimilarity   = "ob_sim"
	OperatorSubstructure = "ob_ss"
	OperatorReCGenBuild  = "recgen_build"
	OperatorGmxCommand   = "gromacs_run_gmx_command"
)

var ErrUnknownOperator = errors.New("unknown operator kind")

// Operator names one computation. The set of implementations is closed:
// only the types in this file satisfy it. Every implementation is a
// comparable value, so operators can be used as map keys.
type Operator interface {
	String() string
	App() string
	Computation() ComputationKind

	isOperator()
}

// Similarity is fingerprint based similarity searching.
type Similarity struct {
	Fingerprint Fingerprint
}

// Substructure is SMARTS substructure matching.
type Substructure struct{}

// ReCGenBuild is ligand generation through the recgen executable.
type ReCGenBuild struct{}

// GmxCommand runs one GROMACS gmx sub-command.
type GmxCommand struct{}

func (k Similarity) String() string {
	return OperatorSimilarity + ":" + k.Fingerprint.String()
}
func (Similarity) App() string                  { return "openbabel" }
func (Similarity) Computation() ComputationKind { return MultiMachine }
func (Similarity) isOperator()                  {}

func (Substructure) String() string               { return OperatorSubstructure }
func (Substructure) App() string                  { return "openbabel" }
func (Substructure) Computation() ComputationKind { return MultiMachine }
func (Substructure) isOperator()                  {}

func (ReCGenBuild) String() string               { return OperatorReCGenBuild }
func (ReCGenBuild) App() string                  { return "recgen" }
func (ReCGenBuild) Computation() ComputationKind { return SingleMachine }
func (ReCGenBuild) isOperator()                  {}

func (GmxCommand) String() string               { return OperatorGmxCommand }
func (GmxCommand) App() string                  { return "gromacs" }
func (GmxCommand) Computation() ComputationKind { return SingleMachine }
func (GmxCommand) isOperator()                  {}

func DefaultSimilarity() Similarity {
	return Similarity{Fingerprint: DefaultFingerprint()}
}

// Operators returns one value for every operator kind.
func Operators() []Operator {
	return []Operator{DefaultSimilarity(), Substructure{}, ReCGenBuild{}, GmxCommand{}}
}

// ParseOperator inverts Operator.String. A bare "ob_sim" selects the
// default fingerprint.
func ParseOperator(s string) (Operator, error) {
	name, param, hasParam := strings.Cut(s, ":")
	switch name {
	case OperatorSimilarity:
		if !hasParam {
			return DefaultSimilarity(), nil
		}
		fp, err := ParseFingerprint(param)
		if err != nil {
			return nil, err
		}
		return Similarity{Fingerprint: fp}, nil
	case OperatorSubstructure:
		if hasParam {
			break
		}
		return Substructure{}, nil
	case OperatorReCGenBuild:
		if hasParam {
			break
		}
		return ReCGenBuild{}, nil
	case OperatorGmxCommand:
		if hasParam {
			break
		}
		return GmxCommand{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownOperator, s)
}

// OperatorName returns the kind name without parameters.
func OperatorName(op Operator) string {
	name, _, _ := strings.Cut(op.String(), ":")
	return name
}
