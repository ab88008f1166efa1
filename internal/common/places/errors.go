package places

import (
	"errors"
	"fmt"
)

type Stage string

const (
	StageSearch Stage = "search"
	StageDetail Stage = "detail"
)

// ErrUpstreamStatus marks a 2xx response whose body carried an error status.
var ErrUpstreamStatus = errors.New("places: upstream error status")

// PlacesError identifies which stage of a lookup failed. StatusCode is the
// HTTP status when one was received, otherwise zero.
type PlacesError struct {
	Stage      Stage
	StatusCode int
	Status     string
	Err        error
}

func (e *PlacesError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Status != "":
		return fmt.Sprintf("places %s failed: http %d, status %s: %v", e.Stage, e.StatusCode, e.Status, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("places %s failed: http %d: %v", e.Stage, e.StatusCode, e.Err)
	default:
		return fmt.Sprintf("places %s failed: %v", e.Stage, e.Err)
	}
}

func (e *PlacesError) Unwrap() error {
	return e.Err
}

// StageOf returns the failed stage of err, or "" if err is not a PlacesError.
func StageOf(err error) Stage {
	var pe *PlacesError
	if errors.As(err, &pe) {
		return pe.Stage
	}
	return ""
}
