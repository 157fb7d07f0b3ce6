package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"net/smtp"
	"time"

	"nftmarket/internal/cache"
	"nftmarket/internal/config"
)

var (
	ErrCodeMismatch = errors.New("verification code mismatch")
	ErrCodeExpired  = errors.New("verification code expired")
)

const codeTTL = 15 * time.Minute

// EmailService sends transactional mail over SMTP and keeps short-lived
// verification codes in redis.
type EmailService struct {
	cfg   config.EmailConfig
	cache cache.Client
}

func NewEmailService(cfg config.EmailConfig, cache cache.Client) *EmailService {
	return &EmailService{cfg: cfg, cache: cache}
}

func (s *EmailService) SendVerificationCode(ctx context.Context, email string) error {
	code := generateCode()
	if err := s.cache.Set(ctx, "verify:"+email, code, codeTTL); err != nil {
		return err
	}
	body := fmt.Sprintf("Your verification code is %s. It expires in 15 minutes.", code)
	return s.send(email, "Verify your email", body)
}

func (s *EmailService) CheckVerificationCode(ctx context.Context, email, code string) error {
	return s.checkCode(ctx, "verify:"+email, code)
}

func (s *EmailService) SendPasswordResetCode(ctx context.Context, email string) error {
	code := generateCode()
	if err := s.cache.Set(ctx, "reset:"+email, code, codeTTL); err != nil {
		return err
	}
	body := fmt.Sprintf("Your password reset code is %s. It expires in 15 minutes.", code)
	return s.send(email, "Password reset", body)
}

func (s *EmailService) CheckPasswordResetCode(ctx context.Context, email, code string) error {
	return s.checkCode(ctx, "reset:"+email, code)
}

func (s *EmailService) SendWithdrawalRequested(to, amount string) error {
	body := fmt.Sprintf("Your withdrawal request for %s ETH was received and is pending review.", amount)
	return s.send(to, "Withdrawal request received", body)
}

func (s *EmailService) SendWithdrawalReviewed(to, amount string, completed bool) error {
	if completed {
		return s.send(to, "Withdrawal completed", fmt.Sprintf("Your withdrawal of %s ETH has been sent.", amount))
	}
	return s.send(to, "Withdrawal rejected", fmt.Sprintf("Your withdrawal request for %s ETH was rejected and the funds returned to your wallet.", amount))
}

func (s *EmailService) SendDepositReviewed(to, amount string, approved bool) error {
	if approved {
		return s.send(to, "Deposit credited", fmt.Sprintf("Your deposit of %s ETH has been credited to your wallet.", amount))
	}
	return s.send(to, "Deposit rejected", fmt.Sprintf("Your deposit request for %s ETH was rejected.", amount))
}

func (s *EmailService) checkCode(ctx context.Context, key, code string) error {
	stored, err := s.cache.Get(ctx, key)
	if err == cache.ErrKeyNotFound {
		return ErrCodeExpired
	}
	if err != nil {
		return err
	}
	if stored != code {
		return ErrCodeMismatch
	}
	return s.cache.Del(ctx, key)
}

func (s *EmailService) send(to, subject, body string) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.SMTPHost, s.cfg.SMTPPort)
	auth := smtp.PlainAuth("", s.cfg.SMTPUser, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	msg := []byte(fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n", s.cfg.FromEmail, to, subject, body))
	return smtp.SendMail(addr, auth, s.cfg.FromEmail, []string{to}, msg)
}

// generateCode draws a six-digit code from crypto/rand.
func generateCode() string {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		panic(err)
	}
	return fmt.Sprintf("%06d", n.Int64())
}
