package workflow

import "errors"

var (
	ErrStepNotFound      = errors.New("step not found")
	ErrNoValidTransition = errors.New("no valid transition")
	ErrDecisionTimeout   = errors.New("decision timed out")
	ErrDecisionPending   = errors.New("decision already pending")
)
