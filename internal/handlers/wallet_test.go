package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"nftmarket/internal/auth"
	"nftmarket/internal/middleware"
	"nftmarket/internal/models"
	"nftmarket/internal/store"
)

type stubUserStore struct {
	getByIDFn func(ctx context.Context, userID string) (models.User, error)
}

func (s stubUserStore) Create(context.Context, store.Execer, string, string, string, string, models.Role) error {
	return nil
}

func (s stubUserStore) GetByEmail(context.Context, string) (models.User, error) {
	return models.User{}, nil
}

func (s stubUserStore) GetByID(ctx context.Context, userID string) (models.User, error) {
	if s.getByIDFn == nil {
		return models.User{ID: userID}, nil
	}
	return s.getByIDFn(ctx, userID)
}

func (s stubUserStore) GetRole(context.Context, string) (models.Role, error) {
	return models.RoleUser, nil
}

func (s stubUserStore) UpdateRole(context.Context, store.Execer, string, models.Role) (int64, error) {
	return 1, nil
}

func (s stubUserStore) SetEmailVerified(context.Context, string) error { return nil }

func (s stubUserStore) UpdatePassword(context.Context, string, string) error { return nil }

func (s stubUserStore) List(context.Context, int, int) ([]models.User, error) { return nil, nil }

func (s stubUserStore) Search(context.Context, string, int) ([]models.User, error) { return nil, nil }

type stubDepositStore struct {
	listByUserFn func(ctx context.Context, userID string, limit, offset int) ([]models.DepositRequest, error)
}

func (s stubDepositStore) ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.DepositRequest, error) {
	if s.listByUserFn == nil {
		return nil, nil
	}
	return s.listByUserFn(ctx, userID, limit, offset)
}

func (s stubDepositStore) ListByStatus(context.Context, models.RequestStatus, int, int) ([]models.DepositRequest, error) {
	return nil, nil
}

func authedRequest(t *testing.T, method, path string) *http.Request {
	t.Helper()
	token, err := auth.GenerateToken("secret", "user-1", string(models.RoleUser), time.Hour)
	if err != nil {
		t.Fatalf("unexpected token error: %v", err)
	}
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestGetWalletIncludesDepositAddress(t *testing.T) {
	h := &Handler{
		users: stubUserStore{
			getByIDFn: func(_ context.Context, userID string) (models.User, error) {
				return models.User{ID: userID, WalletBalance: 250000000}, nil
			},
		},
		deposits: stubDepositStore{
			listByUserFn: func(_ context.Context, _ string, limit, _ int) ([]models.DepositRequest, error) {
				if limit != 1 {
					t.Fatalf("expected only the latest deposit, got limit %d", limit)
				}
				return []models.DepositRequest{{DepositAddress: "tb1qassigned"}}, nil
			},
		},
	}

	rec := httptest.NewRecorder()
	handler := middleware.Auth("secret")(http.HandlerFunc(h.GetWallet))
	handler.ServeHTTP(rec, authedRequest(t, http.MethodGet, "/api/wallet"))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}

	var body struct {
		Success bool `json:"success"`
		Data    struct {
			Balance        string `json:"balance"`
			DepositAddress string `json:"deposit_address"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if !body.Success {
		t.Fatalf("expected success envelope")
	}
	if body.Data.Balance != "2.5" {
		t.Fatalf("unexpected balance %q", body.Data.Balance)
	}
	if body.Data.DepositAddress != "tb1qassigned" {
		t.Fatalf("expected assigned deposit address, got %q", body.Data.DepositAddress)
	}
}

func TestGetWalletWithoutDeposits(t *testing.T) {
	h := &Handler{users: stubUserStore{}, deposits: stubDepositStore{}}

	rec := httptest.NewRecorder()
	handler := middleware.Auth("secret")(http.HandlerFunc(h.GetWallet))
	handler.ServeHTTP(rec, authedRequest(t, http.MethodGet, "/api/wallet"))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}

	var body struct {
		Data struct {
			DepositAddress string `json:"deposit_address"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if body.Data.DepositAddress != "" {
		t.Fatalf("expected empty address before any deposit, got %q", body.Data.DepositAddress)
	}
}
