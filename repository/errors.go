package repository

import "fmt"

// ValidationError reports malformed or conflicting caller-supplied data on
// a named field. Controllers map it to a 400 with field-level detail.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("'%s' %s", e.Field, e.Message)
}

// NotFoundError reports a referenced resource identifier that does not
// exist.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s '%s' doesn't exist", e.Resource, e.ID)
}
