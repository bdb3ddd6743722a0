package http

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/neomorfeo/leaseiq/internal/app"
	"github.com/neomorfeo/leaseiq/internal/domain"
)

// --- Signers ---

type SignerResponse struct {
	ID              string  `json:"id"`
	Role            string  `json:"role"`
	SignatureStatus string  `json:"signature_status"`
	ProfileID       *string `json:"profile_id,omitempty"`
}

type AddSignerInput struct {
	ID   string `path:"id" doc:"Lease ID"`
	Body struct {
		Role      string  `json:"role" enum:"owner,primary_tenant,co_tenant,guarantor" doc:"Capacity in which the party signs"`
		ProfileID *string `json:"profile_id,omitempty" doc:"Linked user profile"`
	}
}

type SignerOutput struct {
	Body SignerResponse
}

type SignatureInput struct {
	ID       string `path:"id" doc:"Lease ID"`
	SignerID string `path:"signerId" doc:"Signer ID"`
}

// --- Inspection ---

type MoveInInspectionInput struct {
	ID   string `path:"id" doc:"Lease ID"`
	Body struct {
		Signed bool `json:"signed" doc:"Whether every party signed the report"`
	}
}

type InspectionResponse struct {
	ID       string  `json:"id"`
	Type     string  `json:"type"`
	SignedAt *string `json:"signed_at,omitempty"`
}

type InspectionOutput struct {
	Body InspectionResponse
}

// --- Insurance ---

type InsuranceInput struct {
	ID   string `path:"id" doc:"Lease ID"`
	Body struct {
		Insurer      string `json:"insurer" minLength:"1"`
		PolicyNumber string `json:"policy_number" minLength:"1"`
		ValidUntil   string `json:"valid_until" format:"date" doc:"Last covered day (YYYY-MM-DD)"`
	}
}

type InsuranceResponse struct {
	ID           string `json:"id"`
	Insurer      string `json:"insurer"`
	PolicyNumber string `json:"policy_number"`
	ValidUntil   string `json:"valid_until"`
}

type InsuranceOutput struct {
	Body InsuranceResponse
}

// --- Notice ---

type NoticeInput struct {
	ID   string `path:"id" doc:"Lease ID"`
	Body struct {
		GivenBy       string `json:"given_by" enum:"owner,primary_tenant,co_tenant,guarantor"`
		EffectiveDate string `json:"effective_date" format:"date" doc:"Date the lease ends (YYYY-MM-DD)"`
	}
}

type NoticeResponse struct {
	ID            string `json:"id"`
	GivenBy       string `json:"given_by"`
	GivenAt       string `json:"given_at"`
	EffectiveDate string `json:"effective_date"`
}

type NoticeOutput struct {
	Body NoticeResponse
}

func registerFacts(api huma.API, svc *app.LeaseService) {
	huma.Register(api, huma.Operation{
		OperationID:   "add-lease-signer",
		Method:        http.MethodPost,
		Path:          "/api/v1/leases/{id}/signers",
		Summary:       "Add a signer",
		Tags:          []string{"Lease facts"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *AddSignerInput) (*SignerOutput, error) {
		s, err := svc.AddSigner(ctx, input.ID, domain.SignerRole(input.Body.Role), input.Body.ProfileID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &SignerOutput{Body: SignerResponse{
			ID:              s.ID,
			Role:            string(s.Role),
			SignatureStatus: string(s.SignatureStatus),
			ProfileID:       s.ProfileID,
		}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "record-lease-signature",
		Method:        http.MethodPost,
		Path:          "/api/v1/leases/{id}/signers/{signerId}/signature",
		Summary:       "Record that a signer signed",
		Tags:          []string{"Lease facts"},
		DefaultStatus: http.StatusNoContent,
	}, func(ctx context.Context, input *SignatureInput) (*struct{}, error) {
		if err := svc.RecordSignature(ctx, input.ID, input.SignerID); err != nil {
			return nil, toHumaError(err)
		}
		return nil, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "record-move-in-inspection",
		Method:      http.MethodPut,
		Path:        "/api/v1/leases/{id}/inspections/move-in",
		Summary:     "Record the move-in inspection (EDL d'entrée)",
		Tags:        []string{"Lease facts"},
	}, func(ctx context.Context, input *MoveInInspectionInput) (*InspectionOutput, error) {
		i, err := svc.RecordMoveInInspection(ctx, input.ID, input.Body.Signed)
		if err != nil {
			return nil, toHumaError(err)
		}
		resp := InspectionResponse{ID: i.ID, Type: string(i.Type)}
		if i.SignedAt != nil {
			at := i.SignedAt.Format(timeFormat)
			resp.SignedAt = &at
		}
		return &InspectionOutput{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "record-lease-insurance",
		Method:      http.MethodPut,
		Path:        "/api/v1/leases/{id}/insurance",
		Summary:     "Record the tenant's insurance certificate",
		Tags:        []string{"Lease facts"},
	}, func(ctx context.Context, input *InsuranceInput) (*InsuranceOutput, error) {
		validUntil, err := parseDate("body.valid_until", input.Body.ValidUntil)
		if err != nil {
			return nil, err
		}
		p, err := svc.RecordInsurance(ctx, input.ID, input.Body.Insurer, input.Body.PolicyNumber, validUntil)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &InsuranceOutput{Body: InsuranceResponse{
			ID:           p.ID,
			Insurer:      p.Insurer,
			PolicyNumber: p.PolicyNumber,
			ValidUntil:   p.ValidUntil.Format(dateFormat),
		}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "file-lease-notice",
		Method:        http.MethodPost,
		Path:          "/api/v1/leases/{id}/notice",
		Summary:       "File a notice (congé)",
		Description:   "Records the notice only. Execute GIVE_NOTICE to change the lease status.",
		Tags:          []string{"Lease facts"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *NoticeInput) (*NoticeOutput, error) {
		effective, err := parseDate("body.effective_date", input.Body.EffectiveDate)
		if err != nil {
			return nil, err
		}
		n, err := svc.RecordNotice(ctx, input.ID, domain.SignerRole(input.Body.GivenBy), effective)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &NoticeOutput{Body: NoticeResponse{
			ID:            n.ID,
			GivenBy:       string(n.GivenBy),
			GivenAt:       n.GivenAt.Format(timeFormat),
			EffectiveDate: n.EffectiveDate.Format(dateFormat),
		}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "record-key-handover",
		Method:        http.MethodPost,
		Path:          "/api/v1/leases/{id}/keys",
		Summary:       "Record that the keys were handed over",
		Tags:          []string{"Lease facts"},
		DefaultStatus: http.StatusNoContent,
	}, func(ctx context.Context, input *LeaseIDInput) (*struct{}, error) {
		if err := svc.RecordKeyHandover(ctx, input.ID); err != nil {
			return nil, toHumaError(err)
		}
		return nil, nil
	})
}
