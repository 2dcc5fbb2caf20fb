package loader

import (
	"errors"
	"fmt"
	"time"
)

// Failure records one request that settled with an error.
type Failure struct {
	Name    string
	Locator string
	Err     error
}

func (f Failure) Error() string {
	return fmt.Sprintf("%s (%s): %v", f.Name, f.Locator, f.Err)
}

func (f Failure) Unwrap() error { return f.Err }

// Report summarizes a settled session.
type Report struct {
	SessionID  string
	Total      int
	Loaded     int
	Failures   []Failure
	StartedAt  time.Time
	FinishedAt time.Time
}

// Failed returns the number of requests that settled with an error.
func (r Report) Failed() int { return len(r.Failures) }

// Duration is the wall time between the first submission and the aggregate firing.
func (r Report) Duration() time.Duration {
	if r.StartedAt.IsZero() || r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Err joins every per-request failure, or returns nil when all loaded.
func (r Report) Err() error {
	if len(r.Failures) == 0 {
		return nil
	}
	errs := make([]error, len(r.Failures))
	for i, f := range r.Failures {
		errs[i] = f
	}
	return errors.Join(errs...)
}
