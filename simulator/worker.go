package simulator

import (
	"context"

	"github.com/RyanBlaney/diesel-sonar/logging"
)

// Run applies changes in arrival order and hands each result to results.
// It returns nil when changes is closed, ctx.Err() on cancellation, and the
// first recompute error otherwise; a missing parameter is a configuration
// defect and stops the worker. Run never closes results.
func (s *Simulator) Run(ctx context.Context, changes <-chan ParameterChange, results chan<- *RecomputeResult) error {
	logger := s.logger.WithContext(ctx).WithFields(logging.Fields{
		"function": "Run",
	})
	logger.Debug("Recompute worker started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case change, ok := <-changes:
			if !ok {
				logger.Debug("Change stream closed")
				return nil
			}

			result, err := s.OnParameterChanged(change.Channel, change.Name, change.RawPosition)
			if err != nil {
				return err
			}

			select {
			case results <- result:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}
