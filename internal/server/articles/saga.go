package articles

import (
	"context"
	"errors"
	"fmt"

	"github.com/seichilog/seichilog/internal/server/metrics"
)

// saga records the side-effecting steps of an orchestration together with
// their compensating actions. The underlying stores offer no cross-service
// transaction, so a failure mid-sequence triggers the recorded compensations
// in reverse order. The step log is kept for observability and tests.
type saga struct {
	// Completed lists step names in execution order.
	Completed []string
	// Compensated lists the compensations that ran, in execution order.
	Compensated []string

	compensations []func(ctx context.Context) error
	names         []string
}

// record marks a completed step. compensate may be nil for steps that need
// no undo.
func (s *saga) record(name string, compensate func(ctx context.Context) error) {
	s.Completed = append(s.Completed, name)
	if compensate != nil {
		s.names = append(s.names, name)
		s.compensations = append(s.compensations, compensate)
	}
}

// rollback runs the recorded compensations in reverse order. Compensation is
// best-effort: every action is attempted, and any failures are joined into
// the returned error for the operator to see.
func (s *saga) rollback(ctx context.Context) error {
	var errs []error
	for i := len(s.compensations) - 1; i >= 0; i-- {
		if err := s.compensations[i](ctx); err != nil {
			metrics.CompensationsTotal.WithLabelValues("error").Inc()
			errs = append(errs, fmt.Errorf("compensate %q: %w", s.names[i], err))
			continue
		}
		metrics.CompensationsTotal.WithLabelValues("ok").Inc()
		s.Compensated = append(s.Compensated, s.names[i])
	}
	return errors.Join(errs...)
}
