package entity

import "fmt"

// InconsistentStateChangeError is raised when a runtime transition targets
// a status the current status does not allow. It maps to a conflict at the
// API boundary, distinct from plain validation failures.
type InconsistentStateChangeError struct {
	Entity        string
	CurrentStatus string
	UpdatedStatus string
}

func (e *InconsistentStateChangeError) Error() string {
	return fmt.Sprintf("inconsistent state change error: '%s' from '%s' to '%s' status",
		e.Entity, e.CurrentStatus, e.UpdatedStatus)
}

// InvalidStatusMethodError is raised when a caller names a transition that
// is not block or complete.
type InvalidStatusMethodError struct {
	Method string
}

func (e *InvalidStatusMethodError) Error() string {
	return fmt.Sprintf("'status_method' value %q is invalid, it must be 'block' or 'complete'", e.Method)
}
