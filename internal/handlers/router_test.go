package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRoutesExposeDocumentedPaths(t *testing.T) {
	h := &Handler{}
	router := h.Routes()
	for _, tc := range []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/marketplace/buy"},
		{http.MethodPost, "/api/marketplace/sessions"},
		{http.MethodGet, "/api/marketplace/sessions/s-1"},
		{http.MethodPost, "/api/marketplace/sessions/s-1/confirm"},
		{http.MethodPost, "/api/wallet/deposit"},
		{http.MethodPost, "/api/withdraw"},
	} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, nil))
		if rec.Code == http.StatusNotFound || rec.Code == http.StatusMethodNotAllowed {
			t.Fatalf("%s %s is not routed: got %d", tc.method, tc.path, rec.Code)
		}
	}
}
