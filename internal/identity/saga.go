package identity

import (
	"context"
	"errors"
	"log/slog"
)

// RollbackMessage prefixes the message of every RollbackError.
const RollbackMessage = "Error rolling back user creation."

// RollbackError is returned when a saga step failed and undoing the
// completed steps failed as well.
type RollbackError struct {
	Cause        error
	Compensation error
}

func (e *RollbackError) Error() string {
	return RollbackMessage + " " + e.Compensation.Error()
}

func (e *RollbackError) Unwrap() []error {
	return []error{e.Cause, e.Compensation}
}

// step is one action of a saga. undo may be nil when the step leaves
// nothing behind to remove.
type step struct {
	name string
	do   func(ctx context.Context) error
	undo func(ctx context.Context) error
}

// runSaga executes steps in order. When one fails, the completed steps are
// undone in reverse order. Every undo is attempted even if an earlier one
// failed. The original error is returned if all undos succeed.
func runSaga(ctx context.Context, logger *slog.Logger, steps []step) error {
	var done []step
	for _, s := range steps {
		if err := s.do(ctx); err != nil {
			logger.Error("Saga step failed", "step", s.name, "error", err)
			if compErr := compensate(ctx, logger, done); compErr != nil {
				return &RollbackError{Cause: err, Compensation: compErr}
			}
			return err
		}
		done = append(done, s)
	}
	return nil
}

func compensate(ctx context.Context, logger *slog.Logger, done []step) error {
	// Compensation must run even if the request was cancelled mid-saga.
	ctx = context.WithoutCancel(ctx)

	var errs []error
	for i := len(done) - 1; i >= 0; i-- {
		s := done[i]
		if s.undo == nil {
			continue
		}
		if err := s.undo(ctx); err != nil {
			logger.Error("Saga compensation failed", "step", s.name, "error", err)
			errs = append(errs, err)
			continue
		}
		logger.Info("Saga step compensated", "step", s.name)
	}
	return errors.Join(errs...)
}
