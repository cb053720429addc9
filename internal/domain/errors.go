package domain

import (
	"errors"
	"fmt"
)

// Validation errors, raised before any I/O.
var (
	ErrEmptyGridRange   = errors.New("x and y grid index sets must not be empty")
	ErrNoSatellites     = errors.New("at least one satellite is required")
	ErrNoLevels         = errors.New("at least one dataset type is required")
	ErrInvalidInterval  = errors.New("acquisition range end must be after start")
	ErrUnknownSatellite = errors.New("unknown satellite")
	ErrUnknownLevel     = errors.New("unknown processing level")
	ErrDuplicateLevel   = errors.New("duplicate dataset type")
	ErrInvalidSort      = errors.New("sort direction must be asc or desc")
	ErrEmptyPolygon     = errors.New("polygon WKT must not be empty")
	ErrSameLevelPair    = errors.New("present and absent levels must differ")
)

// ConnectError reports a failure to reach the datacube database. It is
// raised before any query executes.
type ConnectError struct {
	Err error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("connect to datacube: %v", e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// QueryError reports a query execution failure. The in-flight operation is
// aborted; results already yielded remain valid but the sequence is
// incomplete.
type QueryError struct {
	Op  string
	Err error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// ExportError reports a failure during CSV export. BytesWritten counts what
// already reached the sink, so callers can tell a partially written export
// from one that never started.
type ExportError struct {
	Op           string
	BytesWritten int64
	Err          error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("%s: after %d bytes: %v", e.Op, e.BytesWritten, e.Err)
}

func (e *ExportError) Unwrap() error { return e.Err }
