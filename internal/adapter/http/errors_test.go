package http

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neomorfeo/leaseiq/internal/app"
	"github.com/neomorfeo/leaseiq/internal/domain"
)

func TestToHumaError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"lease not found", fmt.Errorf("get: %w", domain.ErrLeaseNotFound), http.StatusNotFound},
		{"signer not found", domain.ErrSignerNotFound, http.StatusNotFound},
		{"concurrent change", &domain.GuardError{
			Transition: domain.TransitionCancel,
			Current:    domain.StatusDraft,
			Failures:   []domain.GuardFailure{domain.ConcurrentChange()},
		}, http.StatusConflict},
		{"guard failed", &domain.GuardError{
			Transition: domain.TransitionActivate,
			Current:    domain.StatusFullySigned,
			Failures:   []domain.GuardFailure{{Guard: domain.GuardKeysHandedOver, Severity: domain.SeveritySoft, Reason: "keys not handed over"}},
		}, http.StatusUnprocessableEntity},
		{"validation", &domain.ValidationError{Field: "property_id", Message: "must not be empty"}, http.StatusUnprocessableEntity},
		{"undefined transition", &domain.TransitionError{Transition: domain.TransitionArchive, Current: domain.StatusDraft}, http.StatusUnprocessableEntity},
		{"store failure", errors.New("disk full"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var se huma.StatusError
			require.ErrorAs(t, toHumaError(tt.err), &se)
			assert.Equal(t, tt.want, se.GetStatus())
		})
	}
}

func TestToHumaError_GuardDetails(t *testing.T) {
	err := toHumaError(&domain.GuardError{
		Transition: domain.TransitionInitiateSignature,
		Current:    domain.StatusDraft,
		Failures: []domain.GuardFailure{
			{Guard: domain.GuardOwnerSignerPresent, Severity: domain.SeverityHard, Reason: "no owner signer"},
			{Guard: domain.GuardMinTwoSigners, Severity: domain.SeverityHard, Reason: "at least two signers required"},
		},
	})

	var model *huma.ErrorModel
	require.ErrorAs(t, err, &model)
	require.Len(t, model.Errors, 2)
	assert.Equal(t, "guards.owner_signer_present", model.Errors[0].Location)
	assert.Equal(t, "at least two signers required", model.Errors[1].Message)
}

func TestTransitionError_CarriesResult(t *testing.T) {
	result := app.TransitionResult{
		LeaseID:        "lease-1",
		Transition:     domain.TransitionCancel,
		PreviousStatus: domain.StatusDraft,
		NewStatus:      domain.StatusDraft,
		Code:           app.CodeConcurrentModification,
		Errors:         []domain.GuardFailure{domain.ConcurrentChange()},
	}

	err := transitionError(result, &domain.GuardError{
		Transition: domain.TransitionCancel,
		Current:    domain.StatusDraft,
		Failures:   result.Errors,
	})

	var failure *TransitionFailure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, http.StatusConflict, failure.GetStatus())
	assert.Equal(t, "draft", failure.PreviousStatus)
	assert.Equal(t, "concurrent_modification", failure.Code)
	require.Len(t, failure.Errors, 1)
	assert.Equal(t, "status_unchanged", failure.Errors[0].Guard)
}

func TestTransitionError_InternalFallsBack(t *testing.T) {
	err := transitionError(app.TransitionResult{Code: app.CodeInternal}, errors.New("disk full"))

	var model *huma.ErrorModel
	require.ErrorAs(t, err, &model)
	assert.Equal(t, http.StatusInternalServerError, model.Status)
}
