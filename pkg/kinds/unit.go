package kinds

import (
	"encoding/json"
	"fmt"
)

// ComputingUnit identifies one reusable unit of computation: an operator
// applied to a dataset.
type ComputingUnit struct {
	Operator Operator
	Dataset  Dataset
}

func NewComputingUnit(op Operator, ds Dataset) ComputingUnit {
	return ComputingUnit{Operator: op, Dataset: ds}
}

func (cu ComputingUnit) String() string {
	return fmt.Sprintf("%s@%s", cu.Operator, cu.Dataset)
}

type computingUnitJSON struct {
	Operator string  `json:"operator"`
	Dataset  Dataset `json:"dataset"`
}

func (cu ComputingUnit) MarshalJSON() ([]byte, error) {
	if cu.Operator == nil {
		return nil, fmt.Errorf("computing unit without operator")
	}
	return json.Marshal(computingUnitJSON{Operator: cu.Operator.String(), Dataset: cu.Dataset})
}

func (cu *ComputingUnit) UnmarshalJSON(data []byte) error {
	var raw computingUnitJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	op, err := ParseOperator(raw.Operator)
	if err != nil {
		return err
	}
	cu.Operator = op
	cu.Dataset = raw.Dataset
	return nil
}

// Dividend identifies one of Count independent units of a job.
type Dividend struct {
	Index int `json:"index"`
	Count int `json:"count"`
}

func (d Dividend) Valid() bool {
	return d.Count > 0 && d.Index >= 0 && d.Index < d.Count
}

func (d Dividend) String() string {
	return fmt.Sprintf("%d/%d", d.Index, d.Count)
}

// Bounds returns the half-open range of entries this dividend covers in a
// corpus of n entries. Ranges of consecutive dividends are contiguous and
// their sizes differ by at most one.
func (d Dividend) Bounds(n int) (int, int) {
	if !d.Valid() || n <= 0 {
		return 0, 0
	}
	return d.Index * n / d.Count, (d.Index + 1) * n / d.Count
}

// Divisor decides how many dividends a job is split into.
func Divisor(op Operator, ds Dataset, blockSize, maxDividends int) int {
	if op.Computation() == SingleMachine || ds.Size() == 0 || blockSize <= 0 {
		return 1
	}
	n := (ds.Size() + blockSize - 1) / blockSize
	if maxDividends > 0 && n > maxDividends {
		n = maxDividends
	}
	return max(n, 1)
}
