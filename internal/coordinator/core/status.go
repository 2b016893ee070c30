package core

import "fmt"

type JobStatus int

const (
	JobStatusUnknown JobStatus = iota
	JobStatusCreated
	JobStatusProcessing
	JobStatusCompletedSuccess
	JobStatusCompletedError
	JobStatusCancelled
)

var jobStatusNames = map[JobStatus]string{
	JobStatusUnknown:          "UNKNOWN",
	JobStatusCreated:          "CREATED",
	JobStatusProcessing:       "PROCESSING",
	JobStatusCompletedSuccess: "COMPLETED_SUCCESS",
	JobStatusCompletedError:   "COMPLETED_ERROR",
	JobStatusCancelled:        "CANCELLED",
}

func (s JobStatus) String() string {
	if name, ok := jobStatusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("JobStatus(%d)", int(s))
}

// IsTerminal reports whether no further transition is allowed.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompletedSuccess || s == JobStatusCompletedError || s == JobStatusCancelled
}

func ParseJobStatus(s string) (JobStatus, error) {
	for status, name := range jobStatusNames {
		if name == s {
			return status, nil
		}
	}
	return JobStatusUnknown, fmt.Errorf("invalid job status: %s", s)
}

func (s JobStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *JobStatus) UnmarshalText(text []byte) error {
	parsed, err := ParseJobStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
