package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AmtrakBF/FinancialTrackerApi/internal/adapter/http/dto"
	"github.com/AmtrakBF/FinancialTrackerApi/internal/adapter/http/middleware"
	"github.com/AmtrakBF/FinancialTrackerApi/internal/domain"
	"github.com/AmtrakBF/FinancialTrackerApi/internal/infrastructure/auth"
	"github.com/AmtrakBF/FinancialTrackerApi/internal/usecase"
)

type accountServiceStub struct {
	getFn    func(ctx context.Context, accountID, callerUserID string) (*domain.Account, error)
	listFn   func(ctx context.Context, callerUserID string) ([]*domain.Account, error)
	openFn   func(ctx context.Context, input usecase.OpenAccountInput) (*domain.Account, error)
	closeFn  func(ctx context.Context, input usecase.CloseAccountInput) (*domain.Account, error)
	renameFn func(ctx context.Context, input usecase.ChangeAccountNameInput) (*domain.Account, error)
}

func (s *accountServiceStub) GetAccount(ctx context.Context, accountID, callerUserID string) (*domain.Account, error) {
	return s.getFn(ctx, accountID, callerUserID)
}

func (s *accountServiceStub) ListAccounts(ctx context.Context, callerUserID string) ([]*domain.Account, error) {
	return s.listFn(ctx, callerUserID)
}

func (s *accountServiceStub) OpenAccount(ctx context.Context, input usecase.OpenAccountInput) (*domain.Account, error) {
	return s.openFn(ctx, input)
}

func (s *accountServiceStub) CloseAccount(ctx context.Context, input usecase.CloseAccountInput) (*domain.Account, error) {
	return s.closeFn(ctx, input)
}

func (s *accountServiceStub) ChangeAccountName(ctx context.Context, input usecase.ChangeAccountNameInput) (*domain.Account, error) {
	return s.renameFn(ctx, input)
}

type reconcilerStub struct {
	reconcileFn func(ctx context.Context, accountID string) (*usecase.ReconciliationResult, error)
}

func (s *reconcilerStub) ReconcileAccount(ctx context.Context, accountID string) (*usecase.ReconciliationResult, error) {
	return s.reconcileFn(ctx, accountID)
}

// authedRequest builds a request authenticated as userID with the given chi URL params.
func authedRequest(method, target string, body []byte, userID string, params ...string) *http.Request {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, bytes.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}

	rctx := chi.NewRouteContext()
	for i := 0; i+1 < len(params); i += 2 {
		rctx.URLParams.Add(params[i], params[i+1])
	}
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)

	if userID != "" {
		ctx = middleware.WithClaims(ctx, &auth.Claims{UserID: userID})
	}

	return req.WithContext(ctx)
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func TestAccountHandler_Open_Success(t *testing.T) {
	var captured usecase.OpenAccountInput
	h := NewAccountHandler(&accountServiceStub{
		openFn: func(_ context.Context, input usecase.OpenAccountInput) (*domain.Account, error) {
			captured = input
			return &domain.Account{ID: "acc-1", OwnerID: input.OwnerID, Name: input.Name, Balance: input.InitialBalance}, nil
		},
	}, nil, zerolog.Nop())

	body := mustJSON(t, dto.OpenAccountRequest{Name: "Vacation", InitialBalance: "250.00"})
	rec := httptest.NewRecorder()
	h.Open(rec, authedRequest(http.MethodPost, "/accounts", body, "user-1"))

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "user-1", captured.OwnerID)
	assert.Equal(t, "Vacation", captured.Name)
	assert.True(t, captured.InitialBalance.Equal(domain.MustMoney("250")))

	var resp dto.AccountResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "acc-1", resp.ID)
	assert.Equal(t, "250.00", resp.Balance)
}

func TestAccountHandler_Open_Rejections(t *testing.T) {
	h := NewAccountHandler(&accountServiceStub{
		openFn: func(context.Context, usecase.OpenAccountInput) (*domain.Account, error) {
			return nil, domain.ErrNegativeInitialBalance
		},
	}, nil, zerolog.Nop())

	tests := []struct {
		name       string
		body       []byte
		userID     string
		wantStatus int
	}{
		{name: "unauthenticated", body: []byte(`{}`), wantStatus: http.StatusUnauthorized},
		{name: "invalid json", body: []byte(`{invalid`), userID: "user-1", wantStatus: http.StatusBadRequest},
		{name: "bad amount", body: []byte(`{"name":"x","initial_balance":"ten"}`), userID: "user-1", wantStatus: http.StatusBadRequest},
		{name: "negative balance from use case", body: []byte(`{"name":"x","initial_balance":"-1"}`), userID: "user-1", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Open(rec, authedRequest(http.MethodPost, "/accounts", tt.body, tt.userID))
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestAccountHandler_Get(t *testing.T) {
	h := NewAccountHandler(&accountServiceStub{
		getFn: func(_ context.Context, accountID, callerUserID string) (*domain.Account, error) {
			if accountID != "acc-1" || callerUserID != "user-1" {
				return nil, domain.ErrAccountNotFound
			}
			return &domain.Account{ID: "acc-1", Name: "test"}, nil
		},
	}, nil, zerolog.Nop())

	rec := httptest.NewRecorder()
	h.Get(rec, authedRequest(http.MethodGet, "/accounts/acc-1", nil, "user-1", "id", "acc-1"))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.Get(rec, authedRequest(http.MethodGet, "/accounts/acc-1", nil, "user-2", "id", "acc-1"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAccountHandler_List(t *testing.T) {
	h := NewAccountHandler(&accountServiceStub{
		listFn: func(_ context.Context, callerUserID string) ([]*domain.Account, error) {
			assert.Equal(t, "user-1", callerUserID)
			return []*domain.Account{{ID: "acc-1"}, {ID: "acc-2"}}, nil
		},
	}, nil, zerolog.Nop())

	rec := httptest.NewRecorder()
	h.List(rec, authedRequest(http.MethodGet, "/accounts", nil, "user-1"))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp dto.ListAccountsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Accounts, 2)
	assert.Equal(t, 2, resp.Total)
}

func TestAccountHandler_List_StorageFailure(t *testing.T) {
	h := NewAccountHandler(&accountServiceStub{
		listFn: func(context.Context, string) ([]*domain.Account, error) {
			return nil, domain.NewOperationError("list accounts", errors.New("timeout"))
		},
	}, nil, zerolog.Nop())

	rec := httptest.NewRecorder()
	h.List(rec, authedRequest(http.MethodGet, "/accounts", nil, "user-1"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "timeout")
}

func TestAccountHandler_Rename(t *testing.T) {
	h := NewAccountHandler(&accountServiceStub{
		renameFn: func(_ context.Context, input usecase.ChangeAccountNameInput) (*domain.Account, error) {
			assert.Equal(t, "acc-1", input.AccountID)
			assert.Equal(t, "user-1", input.CallerUserID)
			return &domain.Account{ID: input.AccountID, Name: input.Name}, nil
		},
	}, nil, zerolog.Nop())

	rec := httptest.NewRecorder()
	h.Rename(rec, authedRequest(http.MethodPatch, "/accounts/acc-1", []byte(`{"name":"Emergency"}`), "user-1", "id", "acc-1"))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp dto.AccountResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Emergency", resp.Name)
}

func TestAccountHandler_Close(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "closed", wantStatus: http.StatusOK},
		{name: "non-zero balance", err: domain.ErrNonZeroBalance, wantStatus: http.StatusConflict},
		{name: "wrong credentials", err: domain.ErrCredentialMismatch, wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewAccountHandler(&accountServiceStub{
				closeFn: func(_ context.Context, input usecase.CloseAccountInput) (*domain.Account, error) {
					assert.Equal(t, "me@example.com", input.Credentials.Email)
					if tt.err != nil {
						return nil, tt.err
					}
					return &domain.Account{ID: input.AccountID}, nil
				},
			}, nil, zerolog.Nop())

			body := mustJSON(t, dto.CredentialsRequest{Email: "me@example.com", Password: "Secret123"})
			rec := httptest.NewRecorder()
			h.Close(rec, authedRequest(http.MethodPost, "/accounts/acc-1/close", body, "user-1", "id", "acc-1"))

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestAccountHandler_Reconcile_ChecksOwnership(t *testing.T) {
	reconciled := false
	h := NewAccountHandler(
		&accountServiceStub{
			getFn: func(_ context.Context, _, callerUserID string) (*domain.Account, error) {
				if callerUserID != "user-1" {
					return nil, domain.ErrAccountNotFound
				}
				return &domain.Account{ID: "acc-1"}, nil
			},
		},
		&reconcilerStub{
			reconcileFn: func(_ context.Context, accountID string) (*usecase.ReconciliationResult, error) {
				reconciled = true
				return &usecase.ReconciliationResult{AccountID: accountID, IsReconciled: true}, nil
			},
		},
		zerolog.Nop(),
	)

	rec := httptest.NewRecorder()
	h.Reconcile(rec, authedRequest(http.MethodGet, "/accounts/acc-1/reconciliation", nil, "user-2", "id", "acc-1"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, reconciled)

	rec = httptest.NewRecorder()
	h.Reconcile(rec, authedRequest(http.MethodGet, "/accounts/acc-1/reconciliation", nil, "user-1", "id", "acc-1"))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp dto.ReconciliationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.IsReconciled)
	assert.Equal(t, "acc-1", resp.AccountID)
}
