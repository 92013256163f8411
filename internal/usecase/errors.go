package usecase

import (
	"github.com/rs/zerolog"

	"github.com/AmtrakBF/FinancialTrackerApi/internal/domain"
)

// failure returns domain errors unchanged and hides anything else behind an
// OperationError, logging the cause.
func failure(logger zerolog.Logger, op string, err error) error {
	if err == nil {
		return nil
	}

	if domain.KindOf(err) != nil {
		return err
	}

	logger.Error().Err(err).Str("op", op).Msg("operation failed")

	return domain.NewOperationError(op, err)
}

// errorType is a metric label for err.
func errorType(err error) string {
	switch domain.KindOf(err) {
	case domain.ErrInvalidArgument:
		return "invalid_argument"
	case domain.ErrNotFound:
		return "not_found"
	case domain.ErrPreconditionFailed:
		return "precondition_failed"
	case domain.ErrUnauthorized:
		return "unauthorized"
	default:
		return "operation_failed"
	}
}
