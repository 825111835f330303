package ordering

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrNotFound         = errors.New("item not found")
	ErrPermissionDenied = errors.New("permission denied")
)

// ValidationError carries per-field messages for malformed input
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError(field, message string) *ValidationError {
	return (&ValidationError{}).Add(field, message)
}

// Add records a message for field, keeping the first message seen for it
func (e *ValidationError) Add(field, message string) *ValidationError {
	if e.Fields == nil {
		e.Fields = map[string]string{}
	}
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = message
	}
	return e
}

func (e *ValidationError) Empty() bool {
	return e == nil || len(e.Fields) == 0
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+e.Fields[name])
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// StorageError hides the underlying database error from end users. The cause is
// still reachable through errors.Unwrap for logging.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return "storage error during " + e.Op
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// isDomainError reports errors that are returned to callers untouched
func isDomainError(err error) bool {
	var v *ValidationError
	var s *StorageError
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrPermissionDenied) ||
		errors.As(err, &v) ||
		errors.As(err, &s)
}
