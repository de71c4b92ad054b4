package scheduler

import "errors"

var (
	ErrExecutionNotFound = errors.New("execution not found")
	ErrNotCancellable    = errors.New("only queued executions can be cancelled")
	ErrAlreadyTerminal   = errors.New("execution is already in a terminal state")
)
