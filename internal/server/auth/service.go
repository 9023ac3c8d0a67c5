// Package auth implements registration and login on top of a credential store.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/loginauth/internal/crypto"
	"github.com/iudanet/loginauth/internal/metrics"
	"github.com/iudanet/loginauth/internal/models"
	"github.com/iudanet/loginauth/internal/server/storage"
	"github.com/iudanet/loginauth/internal/validation"
)

// ErrInvalidCredentials is returned for an unknown email and for a wrong
// password alike, so callers cannot tell which one happened.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Названия операций для метрик
const (
	operationRegister = "register"
	operationLogin    = "login"
)

// TokenIssuer signs an access token for an authenticated user.
type TokenIssuer interface {
	Issue(user *models.User, now time.Time) (token string, expiresAt time.Time, err error)
}

// RegisterInput содержит данные для регистрации
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// LoginResult содержит выданный токен
type LoginResult struct {
	ExpiresAt time.Time
	Token     string
}

// Option configures a Service
type Option func(*Service)

// WithClock подменяет источник времени для выдачи токенов
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithMetrics включает запись бизнес-метрик
func WithMetrics(m metrics.BusinessMetrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithDecoyHasher makes Login verify the password against a throwaway hash
// when the email is unknown, so both failure paths cost one hash comparison.
// The hasher should be the one the store hashes with.
func WithDecoyHasher(h crypto.Hasher) Option {
	return func(s *Service) {
		s.decoy = h
	}
}

// Service registers users and exchanges credentials for tokens.
// It holds no mutable state and is safe for concurrent use.
type Service struct {
	store     storage.CredentialStore
	issuer    TokenIssuer
	metrics   metrics.BusinessMetrics
	decoy     crypto.Hasher
	logger    *slog.Logger
	now       func() time.Time
	decoyHash string
}

// NewService creates a new auth service
func NewService(store storage.CredentialStore, issuer TokenIssuer, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		store:   store,
		issuer:  issuer,
		logger:  logger,
		metrics: metrics.NoOp{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.decoy != nil {
		// Пароль случайный, совпасть с ним нельзя
		hash, err := s.decoy.Hash(uuid.NewString())
		if err != nil {
			logger.Warn("failed to prepare decoy hash, unknown emails will answer faster", slog.Any("error", err))
		} else {
			s.decoyHash = hash
		}
	}

	return s
}

// Register creates a new user. It never issues a token.
// Client-correctable failures are returned as storage.ValidationErrors.
func (s *Service) Register(ctx context.Context, in RegisterInput) error {
	start := time.Now()

	if errs := storage.FromViolations(validation.CheckRequired(in.Email, in.Password)); errs != nil {
		s.metrics.RecordOperation(ctx, operationRegister, metrics.OutcomeRejected, time.Since(start))
		return errs
	}

	user := &models.User{
		ID:        uuid.New().String(),
		Email:     strings.TrimSpace(in.Email),
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
	}

	if err := s.store.CreateUser(ctx, user, in.Password); err != nil {
		var verrs storage.ValidationErrors
		if errors.As(err, &verrs) {
			s.logger.WarnContext(ctx, "registration rejected",
				slog.String("email", user.Email),
				slog.Any("codes", codes(verrs)))
			s.metrics.RecordOperation(ctx, operationRegister, metrics.OutcomeRejected, time.Since(start))
			return verrs
		}

		if errors.Is(err, storage.ErrPasswordHashing) {
			s.logger.ErrorContext(ctx, "failed to hash password", slog.Any("error", err))
			s.metrics.RecordOperation(ctx, operationRegister, metrics.OutcomeError, time.Since(start))
			return fmt.Errorf("create user: %w", err)
		}

		s.logger.ErrorContext(ctx, "failed to create user", slog.Any("error", err))
		s.metrics.RecordOperation(ctx, operationRegister, metrics.OutcomeUnavailable, time.Since(start))
		return storage.Unavailable(fmt.Errorf("create user: %w", err))
	}

	s.logger.InfoContext(ctx, "user registered successfully",
		slog.String("email", user.Email),
		slog.String("user_id", user.ID))
	s.metrics.RecordOperation(ctx, operationRegister, metrics.OutcomeSuccess, time.Since(start))

	return nil
}

// Login checks the credentials and issues a token valid from now.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	start := time.Now()

	user, err := s.store.LookupByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			s.verifyDecoy(password)
			s.logger.WarnContext(ctx, "login failed: invalid credentials", slog.String("email", email))
			s.metrics.RecordOperation(ctx, operationLogin, metrics.OutcomeInvalidCredentials, time.Since(start))
			return nil, ErrInvalidCredentials
		}
		s.logger.ErrorContext(ctx, "failed to get user", slog.Any("error", err))
		s.metrics.RecordOperation(ctx, operationLogin, metrics.OutcomeUnavailable, time.Since(start))
		return nil, storage.Unavailable(fmt.Errorf("lookup user: %w", err))
	}

	ok, err := s.store.VerifyPassword(ctx, user, password)
	if err != nil {
		// Поврежденный хеш это внутренняя ошибка, а не неверный пароль
		s.logger.ErrorContext(ctx, "failed to verify password",
			slog.String("user_id", user.ID),
			slog.Any("error", err))
		s.metrics.RecordOperation(ctx, operationLogin, metrics.OutcomeError, time.Since(start))
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		s.logger.WarnContext(ctx, "login failed: invalid credentials", slog.String("email", email))
		s.metrics.RecordOperation(ctx, operationLogin, metrics.OutcomeInvalidCredentials, time.Since(start))
		return nil, ErrInvalidCredentials
	}

	now := s.now()
	token, expiresAt, err := s.issuer.Issue(user, now)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to generate access token", slog.Any("error", err))
		s.metrics.RecordOperation(ctx, operationLogin, metrics.OutcomeError, time.Since(start))
		return nil, fmt.Errorf("issue token: %w", err)
	}

	// Обновляем время последнего входа, если хранилище это умеет
	if recorder, ok := s.store.(storage.LoginRecorder); ok {
		if err := recorder.UpdateLastLogin(ctx, user.ID, now); err != nil {
			s.logger.WarnContext(ctx, "failed to update last login", slog.Any("error", err))
		}
	}

	s.logger.InfoContext(ctx, "user logged in successfully",
		slog.String("email", user.Email),
		slog.String("user_id", user.ID))
	s.metrics.RecordOperation(ctx, operationLogin, metrics.OutcomeSuccess, time.Since(start))

	return &LoginResult{Token: token, ExpiresAt: expiresAt}, nil
}

// verifyDecoy тратит на неизвестный email столько же, сколько на неверный пароль
func (s *Service) verifyDecoy(password string) {
	if s.decoyHash == "" {
		return
	}
	_, _ = s.decoy.Verify(password, s.decoyHash)
}

func codes(errs storage.ValidationErrors) []string {
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Code)
	}
	return out
}
