package binding

import "fmt"

// ValidationError indicates the application request referenced documents that
// do not exist, do not belong to the user, or do not belong to each other.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Msg)
}

// UpstreamServiceError indicates the AI collaborator failed. The application
// is never persisted when this is returned: a failed customization leaves no
// partial state behind.
type UpstreamServiceError struct {
	Op  string
	Err error
}

func (e *UpstreamServiceError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *UpstreamServiceError) Unwrap() error {
	return e.Err
}
