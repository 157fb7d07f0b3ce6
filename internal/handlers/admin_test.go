package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"nftmarket/internal/models"
	"nftmarket/internal/store"
)

type stubAuditStore struct {
	logs []models.AuditLog
}

func (s stubAuditStore) Log(context.Context, store.Execer, string, string, string, string, string) error {
	return nil
}

func (s stubAuditStore) List(context.Context, int, int) ([]models.AuditLog, error) {
	return s.logs, nil
}

func TestListAuditLogsReturnsTypedRows(t *testing.T) {
	actor := "admin-1"
	h := &Handler{audit: stubAuditStore{logs: []models.AuditLog{{
		ID:          "log-1",
		ActorUserID: &actor,
		Action:      "deposit_review",
		EntityType:  "deposit",
		EntityID:    "dep-1",
		Data:        `{"status":"approved"}`,
	}}}}

	rec := httptest.NewRecorder()
	h.ListAuditLogs(rec, httptest.NewRequest(http.MethodGet, "/api/admin/audit", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}

	var body struct {
		Success bool              `json:"success"`
		Data    []models.AuditLog `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if len(body.Data) != 1 {
		t.Fatalf("expected 1 audit row, got %d", len(body.Data))
	}
	row := body.Data[0]
	if row.Action != "deposit_review" || row.EntityID != "dep-1" {
		t.Fatalf("unexpected audit row: %#v", row)
	}
	if row.ActorUserID == nil || *row.ActorUserID != actor {
		t.Fatalf("expected actor %q, got %v", actor, row.ActorUserID)
	}
}
