package loader

import "context"

// Future resolves once its session fires. It never rejects; per-request
// failures are carried in the Report.
type Future struct {
	session *Session
}

// Done is closed when the aggregate completes.
func (f *Future) Done() <-chan struct{} { return f.session.Done() }

// SessionID returns the ID of the session behind the future.
func (f *Future) SessionID() string { return f.session.ID() }

// Wait blocks until the aggregate completes or ctx is done. The only error is ctx.Err().
func (f *Future) Wait(ctx context.Context) (Report, error) {
	select {
	case <-f.session.Done():
		return f.session.Report(), nil
	case <-ctx.Done():
		return Report{}, ctx.Err()
	}
}
