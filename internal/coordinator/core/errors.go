package core

import "errors"

var (
	ErrJobNotFound              = errors.New("job not found")
	ErrJobTerminal              = errors.New("job is in a terminal state")
	ErrJobNotCompleted          = errors.New("job has not completed successfully")
	ErrInvalidDivisor           = errors.New("divisor must be at least 1")
	ErrDividendAlreadyCompleted = errors.New("dividend already completed")
	ErrDividendOutOfRange       = errors.New("dividend index out of range")
	ErrNoWaitingDividend        = errors.New("no waiting dividend")
	ErrNoProcessingDividend     = errors.New("no processing dividend")
	ErrDividendNotAssigned      = errors.New("dividend is not assigned to this worker")
)
