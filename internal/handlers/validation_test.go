package handlers

import (
	"net/http/httptest"
	"testing"
)

func TestParseAmountMinor(t *testing.T) {
	amount, err := parseAmountMinor("2.5")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if amount != 250000000 {
		t.Fatalf("got %d, want 250000000", amount)
	}
	for _, raw := range []string{"", "0", "-1", "abc"} {
		if _, err := parseAmountMinor(raw); err != errInvalidAmount {
			t.Fatalf("parseAmountMinor(%q): expected errInvalidAmount, got %v", raw, err)
		}
	}
}

func TestParseOptionalAmountMinor(t *testing.T) {
	amount, err := parseOptionalAmountMinor("")
	if err != nil || amount != nil {
		t.Fatalf("empty input should yield nil, got %v, %v", amount, err)
	}
	amount, err = parseOptionalAmountMinor("1")
	if err != nil || amount == nil || *amount != 100000000 {
		t.Fatalf("unexpected result: %v, %v", amount, err)
	}
}

func TestPaginationParams(t *testing.T) {
	r := httptest.NewRequest("GET", "/?limit=10&offset=30", nil)
	limit, offset := paginationParams(r)
	if limit != 10 || offset != 30 {
		t.Fatalf("got %d/%d, want 10/30", limit, offset)
	}

	r = httptest.NewRequest("GET", "/?limit=9999&offset=-5", nil)
	limit, offset = paginationParams(r)
	if limit != 50 || offset != 0 {
		t.Fatalf("out-of-range params must fall back to defaults, got %d/%d", limit, offset)
	}
}
