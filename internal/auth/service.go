// Package auth はユーザー登録とログインのフローを提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hitoshi/accounts/internal/credential"
	"github.com/hitoshi/accounts/internal/metrics"
	"github.com/hitoshi/accounts/internal/model"
	"github.com/hitoshi/accounts/internal/repository"
	"github.com/hitoshi/accounts/internal/security"
)

// メトリクスの操作ラベル
const (
	operationRegister = "register"
	operationLogin    = "login"
)

// CredentialCodec はパスワードのハッシュ化・照合とトークン発行のインターフェース。
// credential.Codecが実装する。
type CredentialCodec interface {
	HashPassword(plain string) (string, error)
	VerifyPassword(plain, hash string) bool
	IssueToken(claims credential.Claims) (string, error)
}

// RegisterInput はユーザー登録の入力を表す。
// Attributes と Meta は解釈せずにそのまま保存する。
type RegisterInput struct {
	FirstName  string
	LastName   string
	Email      string
	Password   string
	Attributes map[string]any
	Meta       map[string]any
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	userRepo  repository.UserRepository
	codec     CredentialCodec
	sanitizer security.TextSanitizer
	metrics   metrics.MetricsCollector
}

// NewService はServiceを生成する。collectorがnilの場合はメトリクスを記録しない。
func NewService(
	userRepo repository.UserRepository,
	codec CredentialCodec,
	sanitizer security.TextSanitizer,
	collector metrics.MetricsCollector,
) *Service {
	if collector == nil {
		collector = metrics.Nop()
	}
	return &Service{
		userRepo:  userRepo,
		codec:     codec,
		sanitizer: sanitizer,
		metrics:   collector,
	}
}

// Register はユーザーを登録し、そのユーザーのトークンを返す。
// メールアドレスが登録済みの場合はEmailTakenエラーを返す。
// 事前チェックと挿入の間に競合した場合も、ユニークインデックス違反をEmailTakenとして扱う。
func (s *Service) Register(ctx context.Context, in RegisterInput) (string, error) {
	email, err := security.NormalizeEmail(in.Email)
	if err != nil {
		return "", model.NewBadRequestError("email must be an email")
	}
	firstName := s.sanitizer.Sanitize(in.FirstName)
	lastName := s.sanitizer.Sanitize(in.LastName)
	if firstName == "" || lastName == "" {
		return "", model.NewBadRequestError("firstName and lastName must not be empty")
	}

	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		s.metrics.RecordAuthAttempt(operationRegister, metrics.OutcomeError)
		return "", fmt.Errorf("failed to find user by email: %w", err)
	}
	if existing != nil {
		s.metrics.RecordAuthAttempt(operationRegister, metrics.OutcomeEmailTaken)
		return "", model.NewEmailTakenError()
	}

	hash, err := s.codec.HashPassword(in.Password)
	if err != nil {
		s.metrics.RecordAuthAttempt(operationRegister, metrics.OutcomeError)
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.userRepo.Insert(ctx, &model.NewUser{
		FirstName:    firstName,
		LastName:     lastName,
		Email:        email,
		PasswordHash: hash,
		Attributes:   in.Attributes,
		Meta:         in.Meta,
	})
	if errors.Is(err, repository.ErrDuplicateEmail) {
		s.metrics.RecordAuthAttempt(operationRegister, metrics.OutcomeEmailTaken)
		return "", model.NewEmailTakenError()
	}
	if err != nil {
		s.metrics.RecordAuthAttempt(operationRegister, metrics.OutcomeError)
		return "", fmt.Errorf("failed to insert user: %w", err)
	}

	token, err := s.codec.IssueToken(credential.Claims{UserID: user.ID, Email: user.Email})
	if err != nil {
		s.metrics.RecordAuthAttempt(operationRegister, metrics.OutcomeError)
		return "", fmt.Errorf("failed to issue token: %w", err)
	}

	s.metrics.RecordAuthAttempt(operationRegister, metrics.OutcomeSuccess)
	slog.Info("user registered", slog.String("user_id", user.ID))
	return token, nil
}

// Login はメールアドレスとパスワードを照合し、トークンを返す。
// 未登録のメールアドレスとパスワード不一致は区別せず、同一のInvalidCredentialsエラーを返す。
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	normalized, err := security.NormalizeEmail(email)
	if err != nil {
		s.metrics.RecordAuthAttempt(operationLogin, metrics.OutcomeInvalidCredentials)
		return "", model.NewInvalidCredentialsError()
	}

	user, err := s.userRepo.FindByEmail(ctx, normalized)
	if err != nil {
		s.metrics.RecordAuthAttempt(operationLogin, metrics.OutcomeError)
		return "", fmt.Errorf("failed to find user by email: %w", err)
	}
	if user == nil || !s.codec.VerifyPassword(password, user.PasswordHash) {
		s.metrics.RecordAuthAttempt(operationLogin, metrics.OutcomeInvalidCredentials)
		return "", model.NewInvalidCredentialsError()
	}

	token, err := s.codec.IssueToken(credential.Claims{UserID: user.ID, Email: user.Email})
	if err != nil {
		s.metrics.RecordAuthAttempt(operationLogin, metrics.OutcomeError)
		return "", fmt.Errorf("failed to issue token: %w", err)
	}

	s.metrics.RecordAuthAttempt(operationLogin, metrics.OutcomeSuccess)
	slog.Info("user logged in", slog.String("user_id", user.ID))
	return token, nil
}
