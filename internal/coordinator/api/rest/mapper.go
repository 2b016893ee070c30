package rest

import (
	"encoding/json"
	"fmt"

	"github.com/nemanja-m/divvy/internal/coordinator/core"
	"github.com/nemanja-m/divvy/internal/operator"
	"github.com/nemanja-m/divvy/pkg/kinds"
)

// ToRequirement validates the request and builds the requirement it asks for.
// The input is stored in its canonical encoding.
func (req *SubmitJobRequest) ToRequirement() (core.Requirement, core.Priority, error) {
	op, err := kinds.ParseOperator(req.Operator)
	if err != nil {
		return core.Requirement{}, 0, err
	}
	if req.Fingerprint != "" {
		if _, ok := op.(kinds.Similarity); !ok {
			return core.Requirement{}, 0, fmt.Errorf("fingerprint is only valid for %s", kinds.OperatorSimilarity)
		}
		fp, err := kinds.ParseFingerprint(req.Fingerprint)
		if err != nil {
			return core.Requirement{}, 0, err
		}
		op = kinds.Similarity{Fingerprint: fp}
	}

	ds := kinds.DatasetEmpty
	if req.Dataset != "" {
		if ds, err = kinds.ParseDataset(req.Dataset); err != nil {
			return core.Requirement{}, 0, err
		}
	}

	if len(req.Input) == 0 {
		return core.Requirement{}, 0, fmt.Errorf("input is required")
	}
	input, err := operator.CanonicalInput(op, string(req.Input))
	if err != nil {
		return core.Requirement{}, 0, err
	}

	priority, err := core.ParsePriority(req.Priority)
	if err != nil {
		return core.Requirement{}, 0, err
	}
	return core.NewRequirement(input, op, ds), priority, nil
}

func jobLinks(job *core.Job) Links {
	return Links{
		Self:   fmt.Sprintf("/api/jobs/%s", job.ID),
		Result: fmt.Sprintf("/api/jobs/%s/result", job.ID),
	}
}

func ToSubmitJobResponse(job *core.Job) SubmitJobResponse {
	return SubmitJobResponse{
		JobID:       job.ID.String(),
		Status:      job.Status.String(),
		SubmittedAt: job.SubmittedAt,
		Dividends:   job.Divisor(),
		Links:       jobLinks(job),
	}
}

func ToGetJobResponse(job *core.Job) GetJobResponse {
	return GetJobResponse{
		JobID:    job.ID.String(),
		Operator: job.Requirement.Operator.String(),
		Dataset:  job.Requirement.Dataset.String(),
		Input:    json.RawMessage(job.Requirement.Input),
		Status:   job.Status.String(),
		Priority: job.Priority.String(),
		Progress: ProgressInfo{
			Kind:       string(job.Progress.Kind),
			Percentage: job.Progress.Percentage,
			Total:      job.Progress.Total(),
			Waiting:    job.Progress.Waiting,
			Processing: job.Progress.Processing,
			Completed:  job.Progress.Completed,
		},
		Timestamps: TimestampsInfo{
			Submitted: job.SubmittedAt,
			Started:   job.StartedAt,
			Completed: job.CompletedAt,
		},
		Cost:            job.Cost,
		DurationSeconds: job.Duration().Seconds(),
		Error:           job.Error,
		Links:           jobLinks(job),
	}
}

func ToJobSummary(job *core.Job) JobSummary {
	return JobSummary{
		JobID:       job.ID.String(),
		Operator:    job.Requirement.Operator.String(),
		Dataset:     job.Requirement.Dataset.String(),
		Status:      job.Status.String(),
		SubmittedAt: job.SubmittedAt,
		CompletedAt: job.CompletedAt,
	}
}

func ToTaskInfo(tr *core.TaskResult) TaskInfo {
	info := TaskInfo{
		Index:    tr.Index,
		Status:   "SUCCEEDED",
		WorkerID: tr.WorkerID,
		Cost:     tr.Cost,
		Error:    tr.Error,
	}
	if !tr.Succeeded() {
		info.Status = "FAILED"
	}
	if !tr.StartedAt.IsZero() {
		start := tr.StartedAt
		info.StartTime = &start
	}
	if !tr.EndedAt.IsZero() {
		end := tr.EndedAt
		info.EndTime = &end
	}
	return info
}

func ToGetResultResponse(job *core.Job, result *core.JobResult) GetResultResponse {
	outputs := make([]json.RawMessage, len(result.Outputs))
	for i, o := range result.Outputs {
		outputs[i] = json.RawMessage(o)
	}
	return GetResultResponse{
		JobID:   job.ID.String(),
		Status:  job.Status.String(),
		Outputs: outputs,
		Error:   result.Error,
	}
}

func ToKindsResponse() KindsResponse {
	resp := KindsResponse{}
	for _, op := range kinds.Operators() {
		resp.Operators = append(resp.Operators, OperatorInfo{
			Name:        kinds.OperatorName(op),
			App:         op.App(),
			Computation: op.Computation().String(),
			Default:     op.String(),
		})
	}
	for _, ds := range kinds.Datasets() {
		resp.Datasets = append(resp.Datasets, DatasetInfo{
			Name:   ds.String(),
			Size:   ds.Size(),
			Source: ds.SourceURL(),
		})
	}
	for _, family := range kinds.FingerprintFamilies() {
		resp.Fingerprints = append(resp.Fingerprints, string(family))
	}
	return resp
}

func ToWorkerInfo(w *core.Worker) WorkerInfo {
	return WorkerInfo{
		WorkerID:        w.ID.String(),
		Name:            w.Name,
		Status:          string(w.Status),
		RegisteredAt:    w.RegisteredAt,
		LastHeartbeatAt: w.LastHeartbeatAt,
	}
}
