package services

import (
	"context"
	"testing"
	"time"

	"nftmarket/internal/cache"
	"nftmarket/internal/config"
)

type stubCache struct {
	values  map[string]string
	deleted []string
}

func (s *stubCache) Get(_ context.Context, key string) (string, error) {
	value, ok := s.values[key]
	if !ok {
		return "", cache.ErrKeyNotFound
	}
	return value, nil
}

func (s *stubCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	if s.values == nil {
		s.values = map[string]string{}
	}
	s.values[key] = value.(string)
	return nil
}

func (s *stubCache) Del(_ context.Context, key string) error {
	delete(s.values, key)
	s.deleted = append(s.deleted, key)
	return nil
}

func (s *stubCache) Close() error { return nil }

func TestCheckVerificationCode(t *testing.T) {
	store := &stubCache{values: map[string]string{"verify:a@b.c": "123456"}}
	service := NewEmailService(config.EmailConfig{}, store)

	if err := service.CheckVerificationCode(context.Background(), "a@b.c", "000000"); err != ErrCodeMismatch {
		t.Fatalf("expected ErrCodeMismatch, got %v", err)
	}
	if err := service.CheckVerificationCode(context.Background(), "a@b.c", "123456"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.deleted) != 1 || store.deleted[0] != "verify:a@b.c" {
		t.Fatalf("expected code consumed, got %v", store.deleted)
	}
	// Consumed codes cannot be replayed.
	if err := service.CheckVerificationCode(context.Background(), "a@b.c", "123456"); err != ErrCodeExpired {
		t.Fatalf("expected ErrCodeExpired, got %v", err)
	}
}

func TestCheckPasswordResetCodeExpired(t *testing.T) {
	service := NewEmailService(config.EmailConfig{}, &stubCache{})
	if err := service.CheckPasswordResetCode(context.Background(), "a@b.c", "123456"); err != ErrCodeExpired {
		t.Fatalf("expected ErrCodeExpired, got %v", err)
	}
}

func TestGenerateCodeSixDigits(t *testing.T) {
	for i := 0; i < 50; i++ {
		code := generateCode()
		if len(code) != 6 {
			t.Fatalf("expected 6 digit code, got %q", code)
		}
	}
}

func TestGenerateCodeVaries(t *testing.T) {
	codes := map[string]bool{}
	for i := 0; i < 32; i++ {
		codes[generateCode()] = true
	}
	if len(codes) < 2 {
		t.Fatalf("expected varying codes, got %v", codes)
	}
}
