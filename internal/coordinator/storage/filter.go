package storage

import (
	"sort"

	"github.com/nemanja-m/divvy/internal/coordinator/core"
)

// applyFilter orders jobs by submission time and returns the requested page
// together with the number of jobs matching the filter.
func applyFilter(jobs []*core.Job, filter core.JobFilter) ([]*core.Job, int) {
	matched := make([]*core.Job, 0, len(jobs))
	for _, job := range jobs {
		if filter.Status != nil && job.Status != *filter.Status {
			continue
		}
		matched = append(matched, job)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		if !matched[i].SubmittedAt.Equal(matched[j].SubmittedAt) {
			return matched[i].SubmittedAt.Before(matched[j].SubmittedAt)
		}
		return matched[i].ID.String() < matched[j].ID.String()
	})

	total := len(matched)
	start := min(max(filter.Offset, 0), total)
	end := total
	if filter.Limit > 0 {
		end = min(start+filter.Limit, total)
	}
	return matched[start:end], total
}
