package probe

import (
	"errors"
	"fmt"
)

// ErrUnsupportedType is returned by New for a type with no registered factory.
var ErrUnsupportedType = errors.New("unsupported service type")

// Check stages shared by the probes. They become the "stage" label of the
// failure counter.
const (
	StageConnect = "connect"
	StageChannel = "channel"
	StageDeclare = "declare"
	StagePublish = "publish"
	StageConsume = "consume"
	StageSet     = "set"
	StageGet     = "get"
	StageIncr    = "incr"
	StageDelete  = "delete"
	StageExists  = "exists"
	StageQuery   = "query"
)

// CheckError reports which step of a check failed.
type CheckError struct {
	// Service is the configured service name
	Service string

	// Stage is the failing step, one of the Stage* constants
	Stage string

	// Err is the underlying error
	Err error
}

// Error implements the error interface.
func (e *CheckError) Error() string {
	return fmt.Sprintf("service %q: %s failed: %v", e.Service, e.Stage, e.Err)
}

// Unwrap returns the underlying error for error chain support.
func (e *CheckError) Unwrap() error {
	return e.Err
}

// Fail wraps err in a CheckError. It returns nil when err is nil.
func Fail(service, stage string, err error) error {
	if err == nil {
		return nil
	}
	return &CheckError{Service: service, Stage: stage, Err: err}
}

// StageOf returns the stage recorded in err, or "" when err carries none.
func StageOf(err error) string {
	var ce *CheckError
	if errors.As(err, &ce) {
		return ce.Stage
	}
	return ""
}
