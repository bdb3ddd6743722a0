package http

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/neomorfeo/leaseiq/internal/app"
	"github.com/neomorfeo/leaseiq/internal/domain"
)

// GuardFailureResponse explains why a transition is blocked.
type GuardFailureResponse struct {
	Guard    string `json:"guard" doc:"Guard identifier"`
	Severity string `json:"severity" enum:"hard,soft" doc:"Soft guards may be overridden with force"`
	Reason   string `json:"reason" doc:"Human readable reason"`
}

func toGuardFailures(failures []domain.GuardFailure) []GuardFailureResponse {
	out := make([]GuardFailureResponse, len(failures))
	for i, f := range failures {
		out[i] = GuardFailureResponse{
			Guard:    string(f.Guard),
			Severity: string(f.Severity),
			Reason:   f.Reason,
		}
	}
	return out
}

// ContextResponse is the snapshot guards were evaluated against.
type ContextResponse struct {
	SignersCount           int  `json:"signers_count"`
	OwnerSignerExists      bool `json:"owner_signer_exists"`
	TenantSignerExists     bool `json:"tenant_signer_exists"`
	AllSignersSigned       bool `json:"all_signers_signed"`
	MoveInInspectionExists bool `json:"move_in_inspection_exists"`
	MoveInInspectionSigned bool `json:"move_in_inspection_signed"`
	KeysHandedOver         bool `json:"keys_handed_over"`
	InsuranceValid         bool `json:"insurance_valid"`
	StartDateReached       bool `json:"start_date_reached"`
	NoticeExists           bool `json:"notice_exists"`
}

// AvailabilityResponse reports one transition defined for the current state.
type AvailabilityResponse struct {
	Name        string                 `json:"name" doc:"Transition name"`
	To          string                 `json:"to" doc:"Resulting state"`
	Legal       bool                   `json:"legal" doc:"Whether the transition can execute now"`
	Overridable bool                   `json:"overridable" doc:"Blocked only by soft guards"`
	Failures    []GuardFailureResponse `json:"failures" doc:"Guards that do not hold"`
}

type TransitionReportResponse struct {
	LeaseID      string                 `json:"lease_id"`
	Status       string                 `json:"status"`
	ContractType string                 `json:"contract_type"`
	Context      ContextResponse        `json:"context"`
	Transitions  []AvailabilityResponse `json:"transitions"`
}

func toTransitionReport(r app.TransitionReport) TransitionReportResponse {
	tc := r.Context
	resp := TransitionReportResponse{
		LeaseID:      tc.LeaseID,
		Status:       string(tc.Status),
		ContractType: string(tc.ContractType),
		Context: ContextResponse{
			SignersCount:           tc.SignersCount,
			OwnerSignerExists:      tc.OwnerSignerExists,
			TenantSignerExists:     tc.TenantSignerExists,
			AllSignersSigned:       tc.AllSignersSigned,
			MoveInInspectionExists: tc.MoveInInspectionExists,
			MoveInInspectionSigned: tc.MoveInInspectionSigned,
			KeysHandedOver:         tc.KeysHandedOver,
			InsuranceValid:         tc.InsuranceValid,
			StartDateReached:       tc.StartDateReached,
			NoticeExists:           tc.NoticeExists,
		},
		Transitions: make([]AvailabilityResponse, len(r.Transitions)),
	}
	for i, a := range r.Transitions {
		resp.Transitions[i] = AvailabilityResponse{
			Name:        string(a.Name),
			To:          string(a.To),
			Legal:       a.Legal,
			Overridable: a.Overridable,
			Failures:    toGuardFailures(a.Failures),
		}
	}
	return resp
}

type TransitionReportOutput struct {
	Body TransitionReportResponse
}

// --- Execute Transition ---

type ExecuteTransitionInput struct {
	ID   string `path:"id" doc:"Lease ID"`
	Body struct {
		Transition string            `json:"transition" enum:"INITIATE_SIGNATURE,MARK_FULLY_SIGNED,ACTIVATE,GIVE_NOTICE,TERMINATE,ARCHIVE,CANCEL" doc:"Transition to execute"`
		ActorID    string            `json:"actor_id" minLength:"1" doc:"User performing the transition"`
		Force      bool              `json:"force,omitempty" doc:"Override soft guard failures"`
		Metadata   map[string]string `json:"metadata,omitempty" doc:"Free-form audit context"`
	}
}

// TransitionResultResponse is the outcome of an execution. On failure
// new_status equals previous_status and errors lists every reason.
type TransitionResultResponse struct {
	LeaseID        string                 `json:"lease_id"`
	Transition     string                 `json:"transition"`
	Success        bool                   `json:"success"`
	Code           string                 `json:"code,omitempty" enum:"not_found,invalid_transition,guard_failed,concurrent_modification,internal" doc:"Failure class"`
	PreviousStatus string                 `json:"previous_status"`
	NewStatus      string                 `json:"new_status"`
	Warnings       []GuardFailureResponse `json:"warnings" doc:"Soft guards overridden by force"`
	Errors         []GuardFailureResponse `json:"errors" doc:"Reasons the transition was rejected"`
}

func toTransitionResult(r app.TransitionResult) TransitionResultResponse {
	return TransitionResultResponse{
		LeaseID:        r.LeaseID,
		Transition:     string(r.Transition),
		Success:        r.Success,
		Code:           string(r.Code),
		PreviousStatus: string(r.PreviousStatus),
		NewStatus:      string(r.NewStatus),
		Warnings:       toGuardFailures(r.Warnings),
		Errors:         toGuardFailures(r.Errors),
	}
}

// TransitionFailure is the error body of a rejected execution: the usual
// problem fields plus the full transition result.
type TransitionFailure struct {
	Status int    `json:"status"`
	Title  string `json:"title"`
	Detail string `json:"detail"`
	TransitionResultResponse
}

func (f *TransitionFailure) Error() string  { return f.Detail }
func (f *TransitionFailure) GetStatus() int { return f.Status }

var failureStatus = map[app.FailureCode]int{
	app.CodeNotFound:               http.StatusNotFound,
	app.CodeInvalidTransition:      http.StatusUnprocessableEntity,
	app.CodeGuardFailed:            http.StatusUnprocessableEntity,
	app.CodeConcurrentModification: http.StatusConflict,
}

// transitionError reports business rejections with their result and leaves
// store failures to toHumaError.
func transitionError(result app.TransitionResult, err error) error {
	status, ok := failureStatus[result.Code]
	if !ok {
		return toHumaError(err)
	}
	return &TransitionFailure{
		Status:                   status,
		Title:                    http.StatusText(status),
		Detail:                   err.Error(),
		TransitionResultResponse: toTransitionResult(result),
	}
}

type ExecuteTransitionOutput struct {
	Body TransitionResultResponse
}

// --- Audit Trail ---

type AuditEntryResponse struct {
	ID               string            `json:"id"`
	ActorID          string            `json:"actor_id"`
	Transition       string            `json:"transition"`
	From             string            `json:"from"`
	To               string            `json:"to"`
	At               string            `json:"at" doc:"Timestamp (ISO 8601)"`
	OverriddenGuards []string          `json:"overridden_guards"`
	Metadata         map[string]string `json:"metadata,omitempty"`
}

type AuditTrailOutput struct {
	Body []AuditEntryResponse
}

func registerTransitions(api huma.API, svc *app.LeaseService) {
	huma.Register(api, huma.Operation{
		OperationID: "list-lease-transitions",
		Method:      http.MethodGet,
		Path:        "/api/v1/leases/{id}/transitions",
		Summary:     "Evaluate the transitions available from the current state",
		Tags:        []string{"Transitions"},
	}, func(ctx context.Context, input *LeaseIDInput) (*TransitionReportOutput, error) {
		report, err := svc.AvailableTransitions(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &TransitionReportOutput{Body: toTransitionReport(report)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "execute-lease-transition",
		Method:      http.MethodPost,
		Path:        "/api/v1/leases/{id}/transitions",
		Summary:     "Execute a lifecycle transition",
		Description: "Rejected executions return the transition result with previous_status, code and errors.",
		Tags:        []string{"Transitions"},
	}, func(ctx context.Context, input *ExecuteTransitionInput) (*ExecuteTransitionOutput, error) {
		result, err := svc.ExecuteTransition(ctx, app.ExecuteParams{
			LeaseID:    input.ID,
			Transition: domain.TransitionName(input.Body.Transition),
			ActorID:    input.Body.ActorID,
			Force:      input.Body.Force,
			Metadata:   input.Body.Metadata,
		})
		if err != nil {
			return nil, transitionError(result, err)
		}
		return &ExecuteTransitionOutput{Body: toTransitionResult(result)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-lease-audit",
		Method:      http.MethodGet,
		Path:        "/api/v1/leases/{id}/audit",
		Summary:     "List the transition audit trail",
		Tags:        []string{"Transitions"},
	}, func(ctx context.Context, input *LeaseIDInput) (*AuditTrailOutput, error) {
		entries, err := svc.AuditTrail(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}

		resp := make([]AuditEntryResponse, len(entries))
		for i, e := range entries {
			guards := make([]string, len(e.OverriddenGuards))
			for j, g := range e.OverriddenGuards {
				guards[j] = string(g)
			}
			resp[i] = AuditEntryResponse{
				ID:               e.ID,
				ActorID:          e.ActorID,
				Transition:       string(e.Transition),
				From:             string(e.From),
				To:               string(e.To),
				At:               e.At.Format(timeFormat),
				OverriddenGuards: guards,
				Metadata:         e.Metadata,
			}
		}
		return &AuditTrailOutput{Body: resp}, nil
	})
}
