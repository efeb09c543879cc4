package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanbk654123/QLCP-QLKH/internal/application/query"
	"github.com/tuanbk654123/QLCP-QLKH/internal/application/service"
	"github.com/tuanbk654123/QLCP-QLKH/internal/domain/entity"
	"github.com/tuanbk654123/QLCP-QLKH/internal/domain/workflow"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

type mockClaimService struct {
	listFunc    func(ctx context.Context, actor entity.Actor, q query.ClaimQuery) ([]*entity.Claim, int64, error)
	exportFunc  func(ctx context.Context, actor entity.Actor, q query.ClaimQuery, w io.Writer) error
	getFunc     func(ctx context.Context, actor entity.Actor, id int64) (*entity.Claim, error)
	createFunc  func(ctx context.Context, actor entity.Actor, d entity.ClaimDetails, recipients []int64) (*service.ClaimResult, error)
	updateFunc  func(ctx context.Context, actor entity.Actor, id int64, p entity.ClaimPatch) (*service.ClaimResult, error)
	approveFunc func(ctx context.Context, actor entity.Actor, id int64, extra []int64) (*service.ClaimResult, error)
	rejectFunc  func(ctx context.Context, actor entity.Actor, id int64, reason string) (*service.ClaimResult, error)
	deleteFunc  func(ctx context.Context, actor entity.Actor, id int64) error
}

func (m *mockClaimService) List(ctx context.Context, a entity.Actor, q query.ClaimQuery) ([]*entity.Claim, int64, error) {
	return m.listFunc(ctx, a, q)
}
func (m *mockClaimService) Export(ctx context.Context, a entity.Actor, q query.ClaimQuery, w io.Writer) error {
	return m.exportFunc(ctx, a, q, w)
}
func (m *mockClaimService) Get(ctx context.Context, a entity.Actor, id int64) (*entity.Claim, error) {
	return m.getFunc(ctx, a, id)
}
func (m *mockClaimService) Create(ctx context.Context, a entity.Actor, d entity.ClaimDetails, r []int64) (*service.ClaimResult, error) {
	return m.createFunc(ctx, a, d, r)
}
func (m *mockClaimService) Update(ctx context.Context, a entity.Actor, id int64, p entity.ClaimPatch) (*service.ClaimResult, error) {
	return m.updateFunc(ctx, a, id, p)
}
func (m *mockClaimService) Approve(ctx context.Context, a entity.Actor, id int64, extra []int64) (*service.ClaimResult, error) {
	return m.approveFunc(ctx, a, id, extra)
}
func (m *mockClaimService) Reject(ctx context.Context, a entity.Actor, id int64, reason string) (*service.ClaimResult, error) {
	return m.rejectFunc(ctx, a, id, reason)
}
func (m *mockClaimService) Delete(ctx context.Context, a entity.Actor, id int64) error {
	return m.deleteFunc(ctx, a, id)
}

type mockInbox struct {
	listFunc     func(ctx context.Context, actor entity.Actor, limit int) ([]*entity.Notification, error)
	markReadFunc func(ctx context.Context, actor entity.Actor, id string) error
}

func (m *mockInbox) List(ctx context.Context, a entity.Actor, limit int) ([]*entity.Notification, error) {
	return m.listFunc(ctx, a, limit)
}
func (m *mockInbox) MarkRead(ctx context.Context, a entity.Actor, id string) error {
	return m.markReadFunc(ctx, a, id)
}

type mockRealtime struct {
	userID int64
}

func (m *mockRealtime) Serve(w http.ResponseWriter, _ *http.Request, userID int64) error {
	m.userID = userID
	w.WriteHeader(http.StatusSwitchingProtocols)
	return nil
}

func newTestServer(claims service.ClaimService, inbox service.InboxService, rt RealtimeServer) *Server {
	gin.SetMode(gin.TestMode)
	cfg := DefaultServerConfig()
	cfg.PageSize = 10
	return NewServer(cfg, claims, inbox, rt, nopLogger{})
}

func do(s *Server, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

var manager = map[string]string{"X-User-ID": "20", "X-User-Role": "ip_manager", "X-User-Name": "Binh"}

func TestHealthCheck(t *testing.T) {
	s := newTestServer(&mockClaimService{}, &mockInbox{}, nil)
	w := do(s, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["success"])
}

func TestIdentityMiddleware(t *testing.T) {
	var got entity.Actor
	claims := &mockClaimService{
		getFunc: func(_ context.Context, a entity.Actor, _ int64) (*entity.Claim, error) {
			got = a
			return &entity.Claim{SequentialID: 1}, nil
		},
	}
	s := newTestServer(claims, &mockInbox{}, nil)

	do(s, http.MethodGet, "/api/claims/1", "", manager)
	assert.Equal(t, entity.Actor{UserID: 20, RoleCode: "ip_manager", Name: "Binh"}, got)

	do(s, http.MethodGet, "/api/claims/1", "", map[string]string{"X-User-ID": "abc"})
	assert.Equal(t, int64(0), got.UserID)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"unauthenticated", fmt.Errorf("wrap: %w", workflow.ErrUnauthenticated), http.StatusUnauthorized},
		{"forbidden", &workflow.ForbiddenError{Action: "approve", State: workflow.StatePaid, Reason: "no"}, http.StatusForbidden},
		{"not found", fmt.Errorf("%w: claim 9", workflow.ErrNotFound), http.StatusNotFound},
		{"invalid state", fmt.Errorf("%w: terminal", workflow.ErrInvalidState), http.StatusBadRequest},
		{"validation", fmt.Errorf("%w: status", workflow.ErrValidation), http.StatusBadRequest},
		{"internal", errors.New("disk full"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims := &mockClaimService{
				getFunc: func(context.Context, entity.Actor, int64) (*entity.Claim, error) { return nil, tt.err },
			}
			w := do(newTestServer(claims, &mockInbox{}, nil), http.MethodGet, "/api/claims/9", "", manager)
			assert.Equal(t, tt.want, w.Code)
			body := decode(t, w)
			assert.Equal(t, false, body["success"])
			if tt.want == http.StatusInternalServerError {
				assert.Equal(t, "internal server error", body["error"])
			}
		})
	}
}

func TestGetClaim_InvalidID(t *testing.T) {
	s := newTestServer(&mockClaimService{}, &mockInbox{}, nil)
	assert.Equal(t, http.StatusBadRequest, do(s, http.MethodGet, "/api/claims/abc", "", manager).Code)
	assert.Equal(t, http.StatusBadRequest, do(s, http.MethodGet, "/api/claims/0", "", manager).Code)
}

func TestGetClaim_ExposesSequentialIDOnly(t *testing.T) {
	claims := &mockClaimService{
		getFunc: func(context.Context, entity.Actor, int64) (*entity.Claim, error) {
			return &entity.Claim{OpaqueID: "secret", SequentialID: 5, Status: workflow.StatePending}, nil
		},
	}
	w := do(newTestServer(claims, &mockInbox{}, nil), http.MethodGet, "/api/claims/5", "", manager)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "secret")

	data := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, float64(5), data["id"])
	assert.Equal(t, "PENDING", data["paymentStatus"])
}

func TestListClaims(t *testing.T) {
	var got query.ClaimQuery
	claims := &mockClaimService{
		listFunc: func(_ context.Context, _ entity.Actor, q query.ClaimQuery) ([]*entity.Claim, int64, error) {
			got = q
			return []*entity.Claim{{SequentialID: 3}}, 21, nil
		},
	}
	s := newTestServer(claims, &mockInbox{}, nil)

	w := do(s, http.MethodGet, "/api/claims?search=taxi&page=3&sortField=totalAmount&sortOrder=asc&department=IT", "", manager)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, "taxi", got.Search)
	assert.Equal(t, 3, got.Page)
	assert.Equal(t, "totalAmount", got.Sort.Field.Key)
	assert.False(t, got.Sort.Descending)
	require.Len(t, got.Filters, 1)
	assert.Equal(t, "it", got.Filters[0].Text)

	data := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, float64(21), data["claimCount"])
	assert.Len(t, data["claims"], 1)
}

func TestListClaims_UnknownFilter(t *testing.T) {
	s := newTestServer(&mockClaimService{}, &mockInbox{}, nil)
	w := do(s, http.MethodGet, "/api/claims?colour=red", "", manager)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListClaims_UnknownStatusValue(t *testing.T) {
	listed := false
	claims := &mockClaimService{
		listFunc: func(context.Context, entity.Actor, query.ClaimQuery) ([]*entity.Claim, int64, error) {
			listed = true
			return nil, 0, nil
		},
	}
	w := do(newTestServer(claims, &mockInbox{}, nil), http.MethodGet, "/api/claims?paymentStatus=archived", "", manager)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, listed)
}

func TestListClaims_EmptyPageIsArray(t *testing.T) {
	claims := &mockClaimService{
		listFunc: func(context.Context, entity.Actor, query.ClaimQuery) ([]*entity.Claim, int64, error) {
			return nil, 0, nil
		},
	}
	w := do(newTestServer(claims, &mockInbox{}, nil), http.MethodGet, "/api/claims", "", manager)
	assert.Contains(t, w.Body.String(), `"claims":[]`)
}

func TestCreateClaim(t *testing.T) {
	var (
		gotDetails    entity.ClaimDetails
		gotRecipients []int64
	)
	claims := &mockClaimService{
		createFunc: func(_ context.Context, _ entity.Actor, d entity.ClaimDetails, r []int64) (*service.ClaimResult, error) {
			gotDetails, gotRecipients = d, r
			return &service.ClaimResult{Claim: &entity.Claim{SequentialID: 11, ClaimDetails: d}}, nil
		},
	}
	s := newTestServer(claims, &mockInbox{}, nil)

	body := `{"id": 999, "paymentStatus": "PAID", "content": "Taxi", "totalAmount": 120000, "notificationRecipients": [30, 31]}`
	w := do(s, http.MethodPost, "/api/claims", body, manager)
	require.Equal(t, http.StatusCreated, w.Code)

	assert.Equal(t, "Taxi", gotDetails.Content)
	assert.Equal(t, 120000.0, gotDetails.TotalAmount)
	assert.Equal(t, []int64{30, 31}, gotRecipients)
	assert.Equal(t, float64(11), decode(t, w)["data"].(map[string]interface{})["id"])
}

func TestCreateClaim_ReportsWarnings(t *testing.T) {
	claims := &mockClaimService{
		createFunc: func(context.Context, entity.Actor, entity.ClaimDetails, []int64) (*service.ClaimResult, error) {
			return &service.ClaimResult{
				Claim:  &entity.Claim{SequentialID: 1},
				Report: &service.DispatchReport{ResolveErr: errors.New("directory offline")},
			}, nil
		},
	}
	w := do(newTestServer(claims, &mockInbox{}, nil), http.MethodPost, "/api/claims", `{}`, manager)
	require.Equal(t, http.StatusCreated, w.Code)
	warnings := decode(t, w)["warnings"].([]interface{})
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "directory offline")
}

func TestCreateClaim_BadJSON(t *testing.T) {
	s := newTestServer(&mockClaimService{}, &mockInbox{}, nil)
	assert.Equal(t, http.StatusBadRequest, do(s, http.MethodPost, "/api/claims", `{"content":`, manager).Code)
}

func TestUpdateClaim(t *testing.T) {
	var got entity.ClaimPatch
	claims := &mockClaimService{
		updateFunc: func(_ context.Context, _ entity.Actor, id int64, p entity.ClaimPatch) (*service.ClaimResult, error) {
			got = p
			return &service.ClaimResult{Claim: &entity.Claim{SequentialID: id}}, nil
		},
	}
	s := newTestServer(claims, &mockInbox{}, nil)

	w := do(s, http.MethodPut, "/api/claims/4", `{"requester": "", "paymentStatus": "REJECTED", "rejectionReason": "dup"}`, manager)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, got.Requester)
	assert.Equal(t, "", *got.Requester)
	assert.Equal(t, "REJECTED", *got.Status)
	assert.Equal(t, "dup", *got.RejectionReason)
	assert.Nil(t, got.Department)
}

func TestApproveClaim(t *testing.T) {
	var gotExtra []int64
	claims := &mockClaimService{
		approveFunc: func(_ context.Context, _ entity.Actor, id int64, extra []int64) (*service.ClaimResult, error) {
			gotExtra = extra
			return &service.ClaimResult{Claim: &entity.Claim{SequentialID: id, Status: workflow.StateManagerApproved}}, nil
		},
	}
	s := newTestServer(claims, &mockInbox{}, nil)

	w := do(s, http.MethodPost, "/api/claims/2/approve", `{"notificationRecipients":[40]}`, manager)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []int64{40}, gotExtra)

	gotExtra = nil
	w = do(s, http.MethodPost, "/api/claims/2/approve", "", manager)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, gotExtra)
}

func TestApproveClaim_ForbiddenMessage(t *testing.T) {
	claims := &mockClaimService{
		approveFunc: func(context.Context, entity.Actor, int64, []int64) (*service.ClaimResult, error) {
			return nil, &workflow.ForbiddenError{Action: "approve", State: workflow.StatePending, Reason: "role employee may not approve"}
		},
	}
	w := do(newTestServer(claims, &mockInbox{}, nil), http.MethodPost, "/api/claims/2/approve", `{}`, manager)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, decode(t, w)["error"], "role employee may not approve")
}

func TestRejectClaim(t *testing.T) {
	var gotReason string
	claims := &mockClaimService{
		rejectFunc: func(_ context.Context, _ entity.Actor, id int64, reason string) (*service.ClaimResult, error) {
			gotReason = reason
			return &service.ClaimResult{Claim: &entity.Claim{SequentialID: id, Status: workflow.StateRejected}}, nil
		},
	}
	s := newTestServer(claims, &mockInbox{}, nil)

	w := do(s, http.MethodPost, "/api/claims/2/reject", `{"reason":"missing invoice"}`, manager)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "missing invoice", gotReason)
}

func TestDeleteClaim(t *testing.T) {
	var deleted int64
	claims := &mockClaimService{
		deleteFunc: func(_ context.Context, _ entity.Actor, id int64) error {
			deleted = id
			return nil
		},
	}
	w := do(newTestServer(claims, &mockInbox{}, nil), http.MethodDelete, "/api/claims/8", "", manager)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(8), deleted)
}

func TestExportClaims(t *testing.T) {
	var got query.ClaimQuery
	claims := &mockClaimService{
		exportFunc: func(_ context.Context, _ entity.Actor, q query.ClaimQuery, w io.Writer) error {
			got = q
			_, err := w.Write([]byte("PK-xlsx"))
			return err
		},
	}
	w := do(newTestServer(claims, &mockInbox{}, nil), http.MethodGet, "/api/claims/export?paymentStatus=PAID", "", manager)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".xlsx")
	assert.True(t, bytes.Equal([]byte("PK-xlsx"), w.Body.Bytes()))
	require.Len(t, got.Filters, 1)
	assert.Equal(t, workflow.StatePaid, got.Filters[0].Status)
}

func TestNotifications(t *testing.T) {
	var (
		gotLimit int
		gotID    string
	)
	inbox := &mockInbox{
		listFunc: func(_ context.Context, _ entity.Actor, limit int) ([]*entity.Notification, error) {
			gotLimit = limit
			return []*entity.Notification{{ID: "n1", Title: "t"}}, nil
		},
		markReadFunc: func(_ context.Context, _ entity.Actor, id string) error {
			gotID = id
			if id == "missing" {
				return fmt.Errorf("%w: notification", workflow.ErrNotFound)
			}
			return nil
		},
	}
	s := newTestServer(&mockClaimService{}, inbox, nil)

	w := do(s, http.MethodGet, "/api/notifications?limit=5", "", manager)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 5, gotLimit)
	assert.Len(t, decode(t, w)["data"], 1)

	assert.Equal(t, http.StatusOK, do(s, http.MethodPut, "/api/notifications/n1/read", "", manager).Code)
	assert.Equal(t, "n1", gotID)
	assert.Equal(t, http.StatusNotFound, do(s, http.MethodPut, "/api/notifications/missing/read", "", manager).Code)
}

func TestRealtime(t *testing.T) {
	rt := &mockRealtime{}
	s := newTestServer(&mockClaimService{}, &mockInbox{}, rt)

	do(s, http.MethodGet, "/ws", "", manager)
	assert.Equal(t, int64(20), rt.userID)

	do(s, http.MethodGet, "/ws?userId=33", "", nil)
	assert.Equal(t, int64(33), rt.userID)

	w := do(s, http.MethodGet, "/ws", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	do(s, http.MethodGet, "/ws?userId=20", "", manager)
	assert.Equal(t, int64(20), rt.userID)
}

func TestRealtime_QueryIdentityMustMatchHeader(t *testing.T) {
	rt := &mockRealtime{}
	s := newTestServer(&mockClaimService{}, &mockInbox{}, rt)

	w := do(s, http.MethodGet, "/ws?userId=33", "", manager)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Zero(t, rt.userID)

	w = do(s, http.MethodGet, "/ws?userId=abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, rt.userID)
}

func TestRealtime_Disabled(t *testing.T) {

	disabled := newTestServer(&mockClaimService{}, &mockInbox{}, nil)
	assert.Equal(t, http.StatusNotFound, do(disabled, http.MethodGet, "/ws", "", manager).Code)
}
