package domain

import "time"

// MinInstant and MaxInstant bound the "all time" interval. Sentinels keep
// the SQL a single between-predicate instead of optional clauses.
var (
	MinInstant = time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)
	MaxInstant = time.Date(3999, 1, 1, 0, 0, 0, 0, time.UTC)
)

// Cell identifies a one-degree grid unit by its integer indices.
type Cell struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Tile is one imagery acquisition at a grid cell together with the file path
// of each requested dataset type. Acquisition-related fields are nil for
// terrain tiles, which have no temporal dimension. A requested dataset type
// with no matching row keeps its key with a nil path; consumers rely on the
// key set being stable.
type Tile struct {
	AcquisitionID *int64             `json:"acquisition_id"`
	Satellite     *Satellite         `json:"satellite"`
	Start         *time.Time         `json:"start_datetime"`
	End           *time.Time         `json:"end_datetime"`
	Year          *int               `json:"end_datetime_year"`
	Month         *int               `json:"end_datetime_month"`
	X             int                `json:"x"`
	Y             int                `json:"y"`
	Datasets      map[string]*string `json:"datasets"`
}

// TimeInterval is a half-open range [Start, End). The zero value of either
// bound is replaced by the corresponding sentinel instant, so the empty
// TimeInterval means "all time".
type TimeInterval struct {
	Start time.Time
	End   time.Time
}

// NewTimeInterval builds a TimeInterval, defaulting zero bounds to the
// sentinel instants and rejecting ranges where End is not after Start.
func NewTimeInterval(start, end time.Time) (TimeInterval, error) {
	if start.IsZero() {
		start = MinInstant
	}
	if end.IsZero() {
		end = MaxInstant
	}
	if !end.After(start) {
		return TimeInterval{}, ErrInvalidInterval
	}
	return TimeInterval{Start: start, End: end}, nil
}

// Contains reports whether the instant falls within the interval.
func (i TimeInterval) Contains(t time.Time) bool {
	return !t.Before(i.Start) && t.Before(i.End)
}
