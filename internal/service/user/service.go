package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"storefront/internal/contract"
	"storefront/internal/domain"
	"storefront/internal/logging"
	"storefront/internal/notify"
	tokenrepo "storefront/internal/repository/token"
	userrepo "storefront/internal/repository/user"
)

var (
	// ErrInvalidCredentials is returned when email/password do not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken indicates the provided token could not be validated.
	ErrInvalidToken = errors.New("invalid token")
	// ErrInvalidResetCode covers unknown, expired and already used codes.
	ErrInvalidResetCode = errors.New("invalid or expired reset code")
)

// Service handles registration, login, profile and password reset flows.
type Service struct {
	repo     userrepo.Repository
	tokens   *tokenManager
	notifier notify.Notifier
	logger   *zap.Logger

	accessTTL  time.Duration
	resetTTL   time.Duration
	bcryptCost int
}

// Option customizes a Service.
type Option func(*Service)

// WithClock replaces time.Now, for expiry tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.tokens.now = now }
}

// WithBcryptCost lowers hashing cost, for tests.
func WithBcryptCost(cost int) Option {
	return func(s *Service) { s.bcryptCost = cost }
}

// New creates a Service with sane defaults.
func New(repo userrepo.Repository, tokens tokenrepo.Repository, notifier notify.Notifier, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		repo:       repo,
		tokens:     newTokenManager(tokens, time.Now),
		notifier:   notifier,
		logger:     logging.OrNop(logger).Named("user-service"),
		accessTTL:  48 * time.Hour,
		resetTTL:   15 * time.Minute,
		bcryptCost: bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a user with a hashed password.
func (s *Service) Register(ctx context.Context, in contract.RegisterRequest) (*domain.User, error) {
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	in.Password = strings.TrimSpace(in.Password)
	if err := contract.Validate(in); err != nil {
		return nil, err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, err
	}
	u, err := s.repo.Create(ctx, domain.User{
		Name:         strings.TrimSpace(in.Name),
		Email:        in.Email,
		PasswordHash: string(hashed),
		Address:      in.Address,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("registered", zap.String("user_id", u.ID))
	return u, nil
}

// Login validates credentials and returns an access token.
func (s *Service) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	password = strings.TrimSpace(password)
	u, err := s.repo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}
	token, err := s.tokens.IssueAccess(ctx, u.ID, s.accessTTL)
	if err != nil {
		return "", nil, err
	}
	return token, u, nil
}

// LookupByToken returns the user bound to a valid access token.
func (s *Service) LookupByToken(ctx context.Context, token string) (*domain.User, error) {
	userID, ok := s.tokens.ValidateAccess(ctx, token)
	if !ok {
		return nil, ErrInvalidToken
	}
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	return u, nil
}

// UpdateProfile merges the supplied fields into the stored profile. An empty
// update returns the profile unchanged.
func (s *Service) UpdateProfile(ctx context.Context, userID string, upd contract.ProfileUpdate) (*domain.User, error) {
	if err := contract.Validate(upd); err != nil {
		return nil, err
	}
	current, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if upd.Empty() {
		return current, nil
	}
	next := upd.Apply(*current)
	next.Email = strings.ToLower(strings.TrimSpace(next.Email))
	if err := contract.Validate(next); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, next)
}

// RequestPasswordReset mails a six-digit code to the user. Unknown emails are
// accepted silently so the endpoint does not reveal who is registered.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	if err := contract.Validate(contract.ResetRequest{Email: email}); err != nil {
		return err
	}
	u, err := s.repo.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		s.logger.Info("password reset for unknown email")
		return nil
	}
	if err != nil {
		return err
	}
	code, err := s.tokens.IssueResetCode(ctx, u.ID, s.resetTTL)
	if err != nil {
		return err
	}
	return s.notifier.Notify(ctx, notify.Message{
		To:      u.Email,
		Subject: "Password reset code",
		Body:    fmt.Sprintf("Your password reset code is %s. It expires in %d minutes.", code, int(s.resetTTL.Minutes())),
	})
}

// ResetPassword replaces the password when the code is valid.
func (s *Service) ResetPassword(ctx context.Context, in contract.ResetConfirm) error {
	in.NewPassword = strings.TrimSpace(in.NewPassword)
	if err := contract.Validate(in); err != nil {
		return err
	}
	u, err := s.repo.GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return ErrInvalidResetCode
		}
		return err
	}
	ok, err := s.tokens.ConsumeResetCode(ctx, u.ID, in.ResetCode)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidResetCode
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), s.bcryptCost)
	if err != nil {
		return err
	}
	if err := s.repo.SetPasswordHash(ctx, u.ID, string(hashed)); err != nil {
		return err
	}
	s.logger.Info("password reset", zap.String("user_id", u.ID))
	return nil
}
