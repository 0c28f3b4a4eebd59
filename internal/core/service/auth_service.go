package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/studioperennis/auth-api/internal/api/metrics"
	"github.com/studioperennis/auth-api/internal/core/domain"
	"github.com/studioperennis/auth-api/internal/core/ports"
	"github.com/studioperennis/auth-api/internal/core/token"
)

// AuthService implements signup, signin, and the password-reset flows.
type AuthService struct {
	repo        ports.UserRepository
	hasher      ports.PasswordHasher
	tokens      *token.Provider
	mail        ports.MailEnqueuer
	frontendURL string
	log         zerolog.Logger
}

func NewAuthService(
	repo ports.UserRepository,
	hasher ports.PasswordHasher,
	tokens *token.Provider,
	mail ports.MailEnqueuer,
	frontendURL string,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		repo:        repo,
		hasher:      hasher,
		tokens:      tokens,
		mail:        mail,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		log:         log,
	}
}

// Signup creates a user and returns its id. A duplicate email yields
// domain.ErrEmailTaken whether it is caught by the pre-check or by the
// storage unique constraint, so concurrent signups for the same address
// resolve to exactly one winner.
func (s *AuthService) Signup(ctx context.Context, email, password, name string) (string, error) {
	email = domain.NormalizeEmail(email)

	_, err := s.repo.FindByEmail(ctx, email)
	if err == nil {
		metrics.SignupsTotal.WithLabelValues("conflict").Inc()
		return "", domain.ErrEmailTaken
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		metrics.SignupsTotal.WithLabelValues("error").Inc()
		return "", fmt.Errorf("lookup email: %w", err)
	}

	timer := prometheus.NewTimer(metrics.HashDuration)
	hash, err := s.hasher.Hash(password, SignupHashCost)
	timer.ObserveDuration()
	if err != nil {
		metrics.SignupsTotal.WithLabelValues("error").Inc()
		return "", err
	}

	now := time.Now().UTC()
	user := &domain.User{
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			metrics.SignupsTotal.WithLabelValues("conflict").Inc()
		} else {
			metrics.SignupsTotal.WithLabelValues("error").Inc()
		}
		return "", err
	}

	metrics.SignupsTotal.WithLabelValues("created").Inc()
	return created.ID, nil
}

// Signin verifies credentials and issues a session token. An unknown email
// and a wrong password collapse into the same domain.ErrInvalidCredentials
// so a caller cannot probe which addresses are registered.
func (s *AuthService) Signin(ctx context.Context, email, password string) (string, *domain.User, error) {
	email = domain.NormalizeEmail(email)

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			metrics.SigninsTotal.WithLabelValues("unauthorized").Inc()
			return "", nil, domain.ErrInvalidCredentials
		}
		metrics.SigninsTotal.WithLabelValues("error").Inc()
		return "", nil, fmt.Errorf("lookup email: %w", err)
	}

	if err := s.hasher.Verify(password, user.PasswordHash); err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			metrics.SigninsTotal.WithLabelValues("unauthorized").Inc()
			return "", nil, domain.ErrInvalidCredentials
		}
		metrics.SigninsTotal.WithLabelValues("error").Inc()
		return "", nil, err
	}

	tok, err := s.tokens.IssueSession(user)
	if err != nil {
		metrics.SigninsTotal.WithLabelValues("error").Inc()
		return "", nil, fmt.Errorf("issue session token: %w", err)
	}

	metrics.SigninsTotal.WithLabelValues("ok").Inc()
	return tok, user, nil
}

// ForgotPassword issues a reset token and queues the reset email. The error
// surface is identical whether or not the address is registered, and the
// email leaves the request path through the async dispatcher, so a send
// failure can never alter the client-visible response.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	email = domain.NormalizeEmail(email)

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.log.Debug().Str("email", email).Msg("forgot-password for unknown address")
			return nil
		}
		return fmt.Errorf("lookup email: %w", err)
	}

	tok, err := s.tokens.IssueReset(user.ID)
	if err != nil {
		return fmt.Errorf("issue reset token: %w", err)
	}

	link := fmt.Sprintf("%s/auth/reset-password?token=%s", s.frontendURL, tok)
	s.mail.Enqueue(user.Email, "Reset Your Password", resetEmailBody(link, s.tokens.ResetTTL()))

	return nil
}

// ResetPassword verifies a reset token and stores a new password hash.
// Outstanding session tokens and older reset tokens stay valid until their
// natural expiry; there is no revocation store.
func (s *AuthService) ResetPassword(ctx context.Context, tok, newPassword string) error {
	// Length check comes before any token work.
	if len(newPassword) < domain.MinPasswordLength {
		return domain.ErrPasswordTooShort
	}

	claims, err := s.tokens.VerifyReset(tok)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrTokenExpired):
			metrics.PasswordResetsTotal.WithLabelValues("expired").Inc()
		default:
			metrics.PasswordResetsTotal.WithLabelValues("invalid").Inc()
		}
		return err
	}

	user, err := s.repo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			metrics.PasswordResetsTotal.WithLabelValues("invalid").Inc()
			return domain.ErrUserNotFound
		}
		metrics.PasswordResetsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("lookup user: %w", err)
	}

	timer := prometheus.NewTimer(metrics.HashDuration)
	hash, err := s.hasher.Hash(newPassword, ResetHashCost)
	timer.ObserveDuration()
	if err != nil {
		metrics.PasswordResetsTotal.WithLabelValues("error").Inc()
		return err
	}

	if err := s.repo.UpdatePassword(ctx, user.ID, hash); err != nil {
		metrics.PasswordResetsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("update password: %w", err)
	}

	metrics.PasswordResetsTotal.WithLabelValues("ok").Inc()
	return nil
}

// CurrentUser resolves the user behind a verified session token.
func (s *AuthService) CurrentUser(ctx context.Context, userID string) (*domain.User, error) {
	return s.repo.FindByID(ctx, userID)
}

func resetEmailBody(link string, ttl time.Duration) string {
	return fmt.Sprintf(
		`<p>Click <a href="%s">here</a> to reset your password.</p><p>This link expires in %s.</p>`,
		link, ttlText(ttl),
	)
}

func ttlText(ttl time.Duration) string {
	if ttl < time.Hour {
		return fmt.Sprintf("%d minutes", int(ttl.Minutes()))
	}
	if ttl == time.Hour {
		return "1 hour"
	}
	return fmt.Sprintf("%d hours", int(ttl.Hours()))
}
