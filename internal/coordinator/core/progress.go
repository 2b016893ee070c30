package core

import "github.com/nemanja-m/divvy/pkg/kinds"

type ProgressKind string

const (
	ProgressByPercentage ProgressKind = "percentage"
	ProgressByBlocks     ProgressKind = "blocks"
)

// Progress of a job. Block counts are tracked for every job and always
// sum to the divisor; Percentage is maintained for percentage jobs only.
type Progress struct {
	Kind       ProgressKind `json:"kind"`
	Percentage float64      `json:"percentage"`
	Waiting    int          `json:"waiting"`
	Processing int          `json:"processing"`
	Completed  int          `json:"completed"`
}

func NewProgress(ck kinds.ComputationKind, divisor int) Progress {
	kind := ProgressByBlocks
	if ck == kinds.SingleMachine {
		kind = ProgressByPercentage
	}
	return Progress{Kind: kind, Waiting: divisor}
}

func (p Progress) Total() int {
	return p.Waiting + p.Processing + p.Completed
}
