package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neomorfeo/leaseiq/internal/adapter/fsm"
	adapter "github.com/neomorfeo/leaseiq/internal/adapter/http"
	"github.com/neomorfeo/leaseiq/internal/adapter/sqlite"
	"github.com/neomorfeo/leaseiq/internal/app"
	"github.com/neomorfeo/leaseiq/internal/domain"
)

// newTestServer creates a full-stack httptest.Server with SQLite in-memory.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	return newTestServerWithCommitter(t, nil)
}

// newTestServerWithCommitter lets a test replace the repository's atomic
// commit, e.g. to simulate a lost race.
func newTestServerWithCommitter(t *testing.T, committer domain.TransitionCommitter) *httptest.Server {
	t.Helper()

	repo, err := sqlite.New(":memory:")
	require.NoError(t, err, "creating test repo")
	t.Cleanup(func() { repo.Close() })

	if committer == nil {
		committer = repo
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := app.NewLeaseService(repo, repo, repo, fsm.New(), committer, app.WithLogger(logger))

	router := chi.NewMux()
	api := humachi.New(router, huma.DefaultConfig("leaseiq", "0.1.0"))
	adapter.Register(api, svc)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return srv
}

// doRequest performs an HTTP request with context (avoids noctx linter).
func doRequest(t *testing.T, method, url, body string) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, url, reader)
	require.NoError(t, err, "creating request")

	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err, "%s %s", method, url)

	return resp
}

// mustDo performs a request, checks the status, and decodes the body into out.
func mustDo(t *testing.T, method, url, body string, want int, out any) {
	t.Helper()

	resp := doRequest(t, method, url, body)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, want, resp.StatusCode, "%s %s: %s", method, url, raw)

	if out != nil {
		require.NoError(t, json.Unmarshal(raw, out), "decoding %s", raw)
	}
}

// mustCreateLease creates a lease that started in the past via the API.
func mustCreateLease(t *testing.T, srv *httptest.Server, contractType string) adapter.LeaseResponse {
	t.Helper()

	body := fmt.Sprintf(`{"property_id":"prop-1","contract_type":%q,"start_date":"2024-01-01"}`, contractType)
	var lease adapter.LeaseResponse
	mustDo(t, http.MethodPost, srv.URL+"/api/v1/leases", body, http.StatusCreated, &lease)
	return lease
}

func mustAddSigner(t *testing.T, srv *httptest.Server, leaseID, role string) adapter.SignerResponse {
	t.Helper()

	var s adapter.SignerResponse
	mustDo(t, http.MethodPost, srv.URL+"/api/v1/leases/"+leaseID+"/signers", fmt.Sprintf(`{"role":%q}`, role), http.StatusCreated, &s)
	return s
}

func transitionBody(name string, force bool) string {
	return fmt.Sprintf(`{"transition":%q,"actor_id":"agent-1","force":%t}`, name, force)
}

func guardNames(failures []adapter.GuardFailureResponse) []string {
	names := make([]string, len(failures))
	for i, f := range failures {
		names[i] = f.Guard
	}
	return names
}

// --- Create ---

func TestCreate(t *testing.T) {
	srv := newTestServer(t)
	lease := mustCreateLease(t, srv, "meuble")

	assert.NotEmpty(t, lease.ID)
	assert.Equal(t, "draft", lease.Status)
	assert.Equal(t, "meuble", lease.ContractType)
	assert.Equal(t, "2024-01-01", lease.StartDate)
	assert.Nil(t, lease.EndDate)
}

func TestCreate_InvalidContractType(t *testing.T) {
	srv := newTestServer(t)

	mustDo(t, http.MethodPost, srv.URL+"/api/v1/leases",
		`{"property_id":"p","contract_type":"bail_99","start_date":"2024-01-01"}`,
		http.StatusUnprocessableEntity, nil)
}

func TestCreate_EndBeforeStart(t *testing.T) {
	srv := newTestServer(t)

	var model huma.ErrorModel
	mustDo(t, http.MethodPost, srv.URL+"/api/v1/leases",
		`{"property_id":"p","contract_type":"nu","start_date":"2024-06-01","end_date":"2024-01-01"}`,
		http.StatusUnprocessableEntity, &model)

	require.Len(t, model.Errors, 1)
	assert.Equal(t, "body.end_date", model.Errors[0].Location)
}

// --- Get / List ---

func TestGet_NotFound(t *testing.T) {
	srv := newTestServer(t)

	mustDo(t, http.MethodGet, srv.URL+"/api/v1/leases/nonexistent", "", http.StatusNotFound, nil)
}

func TestList_FilterByStatus(t *testing.T) {
	srv := newTestServer(t)
	cancelled := mustCreateLease(t, srv, "meuble")
	mustCreateLease(t, srv, "meuble")

	mustDo(t, http.MethodPost, srv.URL+"/api/v1/leases/"+cancelled.ID+"/transitions", transitionBody("CANCEL", false), http.StatusOK, nil)

	var leases []adapter.LeaseResponse
	mustDo(t, http.MethodGet, srv.URL+"/api/v1/leases?status=cancelled", "", http.StatusOK, &leases)

	require.Len(t, leases, 1)
	assert.Equal(t, cancelled.ID, leases[0].ID)
}

// --- Transitions ---

func TestAvailableTransitions_ReportsFailedGuards(t *testing.T) {
	srv := newTestServer(t)
	lease := mustCreateLease(t, srv, "nu")
	mustAddSigner(t, srv, lease.ID, "owner")

	var report adapter.TransitionReportResponse
	mustDo(t, http.MethodGet, srv.URL+"/api/v1/leases/"+lease.ID+"/transitions", "", http.StatusOK, &report)

	assert.Equal(t, "draft", report.Status)
	assert.True(t, report.Context.OwnerSignerExists)
	assert.Equal(t, 1, report.Context.SignersCount)
	require.Len(t, report.Transitions, 2)

	initiate := report.Transitions[0]
	assert.Equal(t, "INITIATE_SIGNATURE", initiate.Name)
	assert.False(t, initiate.Legal)
	assert.Equal(t, []string{"tenant_signer_present", "min_two_signers"}, guardNames(initiate.Failures))

	cancel := report.Transitions[1]
	assert.Equal(t, "CANCEL", cancel.Name)
	assert.True(t, cancel.Legal)
}

func TestExecuteTransition_GuardFailed(t *testing.T) {
	srv := newTestServer(t)
	lease := mustCreateLease(t, srv, "nu")
	mustAddSigner(t, srv, lease.ID, "owner")

	var failure adapter.TransitionFailure
	mustDo(t, http.MethodPost, srv.URL+"/api/v1/leases/"+lease.ID+"/transitions",
		transitionBody("INITIATE_SIGNATURE", true), http.StatusUnprocessableEntity, &failure)

	assert.Equal(t, http.StatusUnprocessableEntity, failure.Status)
	assert.False(t, failure.Success)
	assert.Equal(t, "guard_failed", failure.Code)
	assert.Equal(t, "draft", failure.PreviousStatus)
	assert.Equal(t, "draft", failure.NewStatus)
	assert.Equal(t, []string{"tenant_signer_present", "min_two_signers"}, guardNames(failure.Errors))
	assert.Equal(t, "no tenant signer", failure.Errors[0].Reason)
	assert.Equal(t, "hard", failure.Errors[0].Severity)
}

func TestExecuteTransition_InvalidFromState(t *testing.T) {
	srv := newTestServer(t)
	lease := mustCreateLease(t, srv, "nu")
	mustAddSigner(t, srv, lease.ID, "owner")

	var failure adapter.TransitionFailure
	mustDo(t, http.MethodPost, srv.URL+"/api/v1/leases/"+lease.ID+"/transitions",
		transitionBody("ARCHIVE", false), http.StatusUnprocessableEntity, &failure)

	assert.Equal(t, "invalid_transition", failure.Code)
	assert.Equal(t, "draft", failure.PreviousStatus)
	assert.Equal(t, "draft", failure.NewStatus)
	require.Len(t, failure.Errors, 1)
	assert.Equal(t, "transition_defined", failure.Errors[0].Guard)
	assert.NotEmpty(t, failure.Errors[0].Reason)
}

func TestExecuteTransition_UnknownName(t *testing.T) {
	srv := newTestServer(t)
	lease := mustCreateLease(t, srv, "nu")

	mustDo(t, http.MethodPost, srv.URL+"/api/v1/leases/"+lease.ID+"/transitions",
		transitionBody("RENEW", false), http.StatusUnprocessableEntity, nil)
}

func TestExecuteTransition_NotFound(t *testing.T) {
	srv := newTestServer(t)

	var failure adapter.TransitionFailure
	mustDo(t, http.MethodPost, srv.URL+"/api/v1/leases/nonexistent/transitions",
		transitionBody("CANCEL", false), http.StatusNotFound, &failure)

	assert.Equal(t, "not_found", failure.Code)
	assert.Equal(t, "nonexistent", failure.LeaseID)
	require.Len(t, failure.Errors, 1)
	assert.Equal(t, "lease_exists", failure.Errors[0].Guard)
}

// racedCommitter always finds the status already changed.
type racedCommitter struct{}

func (racedCommitter) CommitTransition(context.Context, domain.TransitionRecord) error {
	return domain.ErrStatusConflict
}

func TestExecuteTransition_ConcurrentModification(t *testing.T) {
	srv := newTestServerWithCommitter(t, racedCommitter{})
	lease := mustCreateLease(t, srv, "meuble")

	var failure adapter.TransitionFailure
	mustDo(t, http.MethodPost, srv.URL+"/api/v1/leases/"+lease.ID+"/transitions",
		transitionBody("CANCEL", false), http.StatusConflict, &failure)

	assert.Equal(t, http.StatusConflict, failure.Status)
	assert.Equal(t, "concurrent_modification", failure.Code)
	assert.Equal(t, "draft", failure.PreviousStatus)
	assert.Equal(t, "draft", failure.NewStatus)
	require.Len(t, failure.Errors, 1)
	assert.Equal(t, "status_unchanged", failure.Errors[0].Guard)

	var got adapter.LeaseResponse
	mustDo(t, http.MethodGet, srv.URL+"/api/v1/leases/"+lease.ID, "", http.StatusOK, &got)
	assert.Equal(t, "draft", got.Status)
}

func TestFullLifecycle(t *testing.T) {
	srv := newTestServer(t)
	lease := mustCreateLease(t, srv, "nu")
	base := srv.URL + "/api/v1/leases/" + lease.ID
	owner := mustAddSigner(t, srv, lease.ID, "owner")
	tenant := mustAddSigner(t, srv, lease.ID, "primary_tenant")

	execute := func(name string, force bool) adapter.TransitionResultResponse {
		t.Helper()
		var result adapter.TransitionResultResponse
		mustDo(t, http.MethodPost, base+"/transitions", transitionBody(name, force), http.StatusOK, &result)
		require.True(t, result.Success)
		assert.Empty(t, result.Errors)
		return result
	}

	assert.Equal(t, "pending_signature", execute("INITIATE_SIGNATURE", false).NewStatus)

	mustDo(t, http.MethodPost, base+"/signers/"+owner.ID+"/signature", "", http.StatusNoContent, nil)
	mustDo(t, http.MethodPost, base+"/signers/"+tenant.ID+"/signature", "", http.StatusNoContent, nil)
	mustDo(t, http.MethodPost, base+"/signers/unknown/signature", "", http.StatusNotFound, nil)

	assert.Equal(t, "fully_signed", execute("MARK_FULLY_SIGNED", false).NewStatus)

	mustDo(t, http.MethodPut, base+"/inspections/move-in", `{"signed":true}`, http.StatusOK, nil)
	mustDo(t, http.MethodPut, base+"/insurance", `{"insurer":"MAIF","policy_number":"P-1","valid_until":"2020-12-31"}`, http.StatusOK, nil)
	mustDo(t, http.MethodPost, base+"/keys", "", http.StatusNoContent, nil)

	// Expired insurance is a soft guard: blocked without force, allowed with it.
	var blocked adapter.TransitionFailure
	mustDo(t, http.MethodPost, base+"/transitions", transitionBody("ACTIVATE", false), http.StatusUnprocessableEntity, &blocked)
	assert.Equal(t, []string{"insurance_valid"}, guardNames(blocked.Errors))
	assert.Equal(t, "soft", blocked.Errors[0].Severity)

	activated := execute("ACTIVATE", true)
	assert.Equal(t, "fully_signed", activated.PreviousStatus)
	assert.Equal(t, "active", activated.NewStatus)
	assert.Equal(t, []string{"insurance_valid"}, guardNames(activated.Warnings))

	mustDo(t, http.MethodPost, base+"/notice", `{"given_by":"primary_tenant","effective_date":"2030-01-31"}`, http.StatusCreated, nil)
	execute("GIVE_NOTICE", false)
	execute("TERMINATE", false)
	assert.Equal(t, "archived", execute("ARCHIVE", false).NewStatus)

	var terminal adapter.TransitionFailure
	mustDo(t, http.MethodPost, base+"/transitions", transitionBody("CANCEL", true), http.StatusUnprocessableEntity, &terminal)
	assert.Equal(t, "archived", terminal.PreviousStatus)
	assert.Equal(t, "invalid_transition", terminal.Code)

	var audit []adapter.AuditEntryResponse
	mustDo(t, http.MethodGet, base+"/audit", "", http.StatusOK, &audit)
	require.Len(t, audit, 6)
	assert.Equal(t, "ACTIVATE", audit[2].Transition)
	assert.Equal(t, []string{"insurance_valid"}, audit[2].OverriddenGuards)

	var got adapter.LeaseResponse
	mustDo(t, http.MethodGet, base, "", http.StatusOK, &got)
	assert.Equal(t, "archived", got.Status)
	assert.True(t, got.KeysHandedOver)
}

func TestFacts_NotFound(t *testing.T) {
	srv := newTestServer(t)
	base := srv.URL + "/api/v1/leases/nonexistent"

	mustDo(t, http.MethodPost, base+"/signers", `{"role":"owner"}`, http.StatusNotFound, nil)
	mustDo(t, http.MethodPut, base+"/inspections/move-in", `{"signed":true}`, http.StatusNotFound, nil)
	mustDo(t, http.MethodPost, base+"/keys", "", http.StatusNotFound, nil)
	mustDo(t, http.MethodGet, base+"/audit", "", http.StatusNotFound, nil)
	mustDo(t, http.MethodGet, base+"/transitions", "", http.StatusNotFound, nil)
}
