package core

import (
	"encoding/json"
	"errors"

	"github.com/nemanja-m/divvy/pkg/kinds"
)

// Requirement is what a job computes: an encoded input for an operator over
// a dataset. Equal requirements denote the same computation, so a
// Requirement can key a map.
type Requirement struct {
	Input    string
	Operator kinds.Operator
	Dataset  kinds.Dataset
}

func NewRequirement(input string, op kinds.Operator, ds kinds.Dataset) Requirement {
	return Requirement{Input: input, Operator: op, Dataset: ds}
}

func (r Requirement) ComputingUnit() kinds.ComputingUnit {
	return kinds.NewComputingUnit(r.Operator, r.Dataset)
}

type requirementJSON struct {
	Input    string        `json:"input"`
	Operator string        `json:"operator"`
	Dataset  kinds.Dataset `json:"dataset"`
}

func (r Requirement) MarshalJSON() ([]byte, error) {
	if r.Operator == nil {
		return nil, errors.New("requirement without operator")
	}
	return json.Marshal(requirementJSON{Input: r.Input, Operator: r.Operator.String(), Dataset: r.Dataset})
}

func (r *Requirement) UnmarshalJSON(data []byte) error {
	var raw requirementJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	op, err := kinds.ParseOperator(raw.Operator)
	if err != nil {
		return err
	}
	*r = Requirement{Input: raw.Input, Operator: op, Dataset: raw.Dataset}
	return nil
}
