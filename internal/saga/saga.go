package saga

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Step represents a single step in a saga with execute and compensate actions.
type Step struct {
	Name       string
	Execute    func(ctx context.Context) error
	Compensate func(ctx context.Context) error
}

// CompensationError reports that one or more compensating actions failed after
// a step error. The store is now partially mutated and needs reconciliation;
// callers must not treat the failure as cleanly rolled back.
type CompensationError struct {
	Saga        string
	FailedStep  string
	StepErr     error
	Unrecovered []string
}

func (e *CompensationError) Error() string {
	return fmt.Sprintf("saga '%s' failed at step '%s' and compensation of [%s] also failed: %v",
		e.Saga, e.FailedStep, strings.Join(e.Unrecovered, ", "), e.StepErr)
}

// Unwrap exposes the original step error.
func (e *CompensationError) Unwrap() error { return e.StepErr }

// Saga orchestrates a sequence of steps with compensating transactions on failure.
type Saga struct {
	name   string
	steps  []Step
	logger *zap.Logger
}

// New creates a new saga orchestrator.
func New(name string, logger *zap.Logger) *Saga {
	return &Saga{
		name:   name,
		steps:  make([]Step, 0),
		logger: logger,
	}
}

// AddStep appends a step to the saga.
func (s *Saga) AddStep(step Step) {
	s.steps = append(s.steps, step)
}

// Execute runs all saga steps in order. On failure it compensates the already
// executed steps in reverse order and returns the step error wrapped; if any
// compensation itself fails the returned error is a *CompensationError.
func (s *Saga) Execute(ctx context.Context) error {
	s.logger.Debug("saga started", zap.String("saga", s.name))

	executed := make([]Step, 0, len(s.steps))

	for _, step := range s.steps {
		if err := step.Execute(ctx); err != nil {
			s.logger.Warn("saga step failed, starting compensation",
				zap.String("saga", s.name),
				zap.String("step", step.Name),
				zap.Error(err),
			)

			var unrecovered []string
			for i := len(executed) - 1; i >= 0; i-- {
				comp := executed[i]
				if comp.Compensate == nil {
					continue
				}
				if compErr := comp.Compensate(ctx); compErr != nil {
					s.logger.Error("compensation failed",
						zap.String("saga", s.name),
						zap.String("step", comp.Name),
						zap.Error(compErr),
					)
					unrecovered = append(unrecovered, comp.Name)
				}
			}

			if len(unrecovered) > 0 {
				return &CompensationError{
					Saga:        s.name,
					FailedStep:  step.Name,
					StepErr:     err,
					Unrecovered: unrecovered,
				}
			}
			return fmt.Errorf("saga '%s' failed at step '%s': %w", s.name, step.Name, err)
		}

		executed = append(executed, step)
	}

	s.logger.Debug("saga completed", zap.String("saga", s.name))
	return nil
}
