package http

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/neomorfeo/leaseiq/internal/app"
	"github.com/neomorfeo/leaseiq/internal/domain"
)

const (
	timeFormat = "2006-01-02T15:04:05Z"
	dateFormat = "2006-01-02"
)

// LeaseResponse is the API representation of a lease.
type LeaseResponse struct {
	ID             string  `json:"id" doc:"Unique identifier"`
	PropertyID     string  `json:"property_id" doc:"Leased property"`
	ContractType   string  `json:"contract_type" doc:"Bail type"`
	Status         string  `json:"status" doc:"Lifecycle state"`
	StartDate      string  `json:"start_date" doc:"Lease start (YYYY-MM-DD)"`
	EndDate        *string `json:"end_date,omitempty" doc:"Lease end (YYYY-MM-DD)"`
	KeysHandedOver bool    `json:"keys_handed_over" doc:"Whether the tenant received the keys"`
	CreatedAt      string  `json:"created_at" doc:"Creation timestamp (ISO 8601)"`
	UpdatedAt      string  `json:"updated_at" doc:"Last update timestamp (ISO 8601)"`
}

func toLeaseResponse(l domain.Lease) LeaseResponse {
	resp := LeaseResponse{
		ID:             l.ID,
		PropertyID:     l.PropertyID,
		ContractType:   string(l.ContractType),
		Status:         string(l.Status),
		StartDate:      l.StartDate.Format(dateFormat),
		KeysHandedOver: l.KeysHandedOver,
		CreatedAt:      l.CreatedAt.Format(timeFormat),
		UpdatedAt:      l.UpdatedAt.Format(timeFormat),
	}
	if l.EndDate != nil {
		end := l.EndDate.Format(dateFormat)
		resp.EndDate = &end
	}
	return resp
}

// --- Create Lease ---

type CreateLeaseInput struct {
	Body struct {
		PropertyID   string  `json:"property_id" minLength:"1" maxLength:"255" doc:"Leased property"`
		ContractType string  `json:"contract_type" enum:"nu,meuble,colocation,mobilite,saisonnier,commercial,parking" doc:"Bail type"`
		StartDate    string  `json:"start_date" format:"date" doc:"Lease start (YYYY-MM-DD)"`
		EndDate      *string `json:"end_date,omitempty" format:"date" doc:"Lease end (YYYY-MM-DD)"`
	}
}

type LeaseOutput struct {
	Body LeaseResponse
}

// --- Get Lease ---

type LeaseIDInput struct {
	ID string `path:"id" doc:"Lease ID"`
}

// --- List Leases ---

type ListLeasesInput struct {
	Status     string `query:"status" required:"false" doc:"Filter by status"`
	PropertyID string `query:"property_id" required:"false" doc:"Filter by property"`
	Limit      int    `query:"limit" required:"false" default:"50" minimum:"1" maximum:"500" doc:"Max results"`
	Offset     int    `query:"offset" required:"false" default:"0" minimum:"0" doc:"Pagination offset"`
}

type ListLeasesOutput struct {
	Body []LeaseResponse
}

// Register adds all lease API routes to the Huma API.
func Register(api huma.API, svc *app.LeaseService) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-lease",
		Method:        http.MethodPost,
		Path:          "/api/v1/leases",
		Summary:       "Create a draft lease",
		Tags:          []string{"Leases"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *CreateLeaseInput) (*LeaseOutput, error) {
		start, err := parseDate("body.start_date", input.Body.StartDate)
		if err != nil {
			return nil, err
		}
		params := app.CreateLeaseParams{
			PropertyID:   input.Body.PropertyID,
			ContractType: domain.ContractType(input.Body.ContractType),
			StartDate:    start,
		}
		if input.Body.EndDate != nil {
			end, err := parseDate("body.end_date", *input.Body.EndDate)
			if err != nil {
				return nil, err
			}
			params.EndDate = &end
		}

		lease, err := svc.Create(ctx, params)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &LeaseOutput{Body: toLeaseResponse(lease)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-lease",
		Method:      http.MethodGet,
		Path:        "/api/v1/leases/{id}",
		Summary:     "Get a lease by ID",
		Tags:        []string{"Leases"},
	}, func(ctx context.Context, input *LeaseIDInput) (*LeaseOutput, error) {
		lease, err := svc.GetByID(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &LeaseOutput{Body: toLeaseResponse(lease)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-leases",
		Method:      http.MethodGet,
		Path:        "/api/v1/leases",
		Summary:     "List leases",
		Tags:        []string{"Leases"},
	}, func(ctx context.Context, input *ListLeasesInput) (*ListLeasesOutput, error) {
		filter := domain.ListFilter{
			PropertyID: input.PropertyID,
			Limit:      input.Limit,
			Offset:     input.Offset,
		}
		if input.Status != "" {
			s := domain.Status(input.Status)
			filter.Status = &s
		}

		leases, err := svc.List(ctx, filter)
		if err != nil {
			return nil, toHumaError(err)
		}

		resp := make([]LeaseResponse, len(leases))
		for i, l := range leases {
			resp[i] = toLeaseResponse(l)
		}
		return &ListLeasesOutput{Body: resp}, nil
	})

	registerTransitions(api, svc)
	registerFacts(api, svc)
}

func parseDate(location, value string) (time.Time, error) {
	t, err := time.Parse(dateFormat, value)
	if err != nil {
		return time.Time{}, huma.Error422UnprocessableEntity("invalid date", &huma.ErrorDetail{
			Message:  "expected YYYY-MM-DD",
			Location: location,
			Value:    value,
		})
	}
	return t, nil
}
