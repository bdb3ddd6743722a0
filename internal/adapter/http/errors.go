package http

import (
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/neomorfeo/leaseiq/internal/domain"
)

// toHumaError translates domain errors to Huma HTTP errors.
func toHumaError(err error) error {
	if errors.Is(err, domain.ErrLeaseNotFound) {
		return huma.Error404NotFound("lease not found")
	}
	if errors.Is(err, domain.ErrSignerNotFound) {
		return huma.Error404NotFound("signer not found")
	}

	// Checked before GuardError: a concurrent change is reported as a
	// GuardError carrying the status_unchanged failure.
	if errors.Is(err, domain.ErrConcurrentModification) {
		return huma.Error409Conflict(err.Error())
	}

	var vErr *domain.ValidationError
	if errors.As(err, &vErr) {
		return huma.Error422UnprocessableEntity(vErr.Error(), &huma.ErrorDetail{
			Message:  vErr.Message,
			Location: "body." + vErr.Field,
		})
	}

	var guardErr *domain.GuardError
	if errors.As(err, &guardErr) {
		details := make([]error, len(guardErr.Failures))
		for i, f := range guardErr.Failures {
			details[i] = &huma.ErrorDetail{
				Message:  f.Reason,
				Location: "guards." + string(f.Guard),
				Value:    f.Severity,
			}
		}
		return huma.Error422UnprocessableEntity(guardErr.Error(), details...)
	}

	var trErr *domain.TransitionError
	if errors.As(err, &trErr) {
		return huma.Error422UnprocessableEntity(trErr.Error())
	}

	return huma.Error500InternalServerError("internal server error")
}
