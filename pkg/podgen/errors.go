package podgen

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration is returned when a caller supplies an incoherent request,
	// like both a legacy and a new style executor config for the same task.
	ErrConfiguration = errors.New("invalid pod generator configuration")

	// ErrTypeMismatch is returned when a list operation targets a field that is not a list.
	ErrTypeMismatch = errors.New("field is not a list")

	// ErrDeserialization is returned when a pod template exists but can't be decoded into a pod.
	ErrDeserialization = errors.New("cannot deserialize pod template")

	// ErrMissingTemplate is recovered by LoadTemplate, which falls back to an empty pod.
	ErrMissingTemplate = errors.New("pod template file does not exist")
)

// PodReconciliationError is the only error returned by ConstructPod when the override
// can't be read or merged. The underlying cause is only kept in the message.
type PodReconciliationError struct {
	Reason string
}

func newPodReconciliationError(format string, args ...any) *PodReconciliationError {
	return &PodReconciliationError{Reason: fmt.Sprintf(format, args...)}
}

func (e *PodReconciliationError) Error() string {
	return "pod reconciliation failed: " + e.Reason
}
