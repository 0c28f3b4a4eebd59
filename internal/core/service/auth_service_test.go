package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/studioperennis/auth-api/internal/core/domain"
	"github.com/studioperennis/auth-api/internal/core/token"
)

type stubUserRepo struct {
	users   map[string]*domain.User // keyed by id
	inserts int
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	if u, ok := r.users[id]; ok {
		return cloneUser(u), nil
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == user.Email {
			return nil, domain.ErrEmailTaken
		}
	}
	copy := cloneUser(user)
	copy.ID = fmt.Sprintf("user_%d", len(r.users)+1)
	r.users[copy.ID] = cloneUser(copy)
	r.inserts++
	return cloneUser(copy), nil
}

func (r *stubUserRepo) UpdatePassword(_ context.Context, id, passwordHash string) error {
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.PasswordHash = passwordHash
	u.UpdatedAt = time.Now().UTC()
	return nil
}

type stubMailQueue struct {
	sent []struct{ to, subject, html string }
}

func (m *stubMailQueue) Enqueue(to, subject, html string) {
	m.sent = append(m.sent, struct{ to, subject, html string }{to, subject, html})
}

func newTestService(repo *stubUserRepo, mail *stubMailQueue) (*AuthService, *token.Provider) {
	tokens := token.NewProvider("session-secret", "reset-secret", time.Hour, 15*time.Minute)
	svc := NewAuthService(repo, NewBcryptHasher(), tokens, mail, "http://localhost:3000/", zerolog.Nop())
	return svc, tokens
}

func TestAuthService_SignupThenSignin(t *testing.T) {
	repo := newStubUserRepo()
	svc, tokens := newTestService(repo, &stubMailQueue{})

	userID, err := svc.Signup(context.Background(), "  Alice@Example.COM ", "pass-word-1", "Alice")
	if err != nil {
		t.Fatalf("Signup: %v", err)
	}
	if userID == "" {
		t.Fatalf("expected user id")
	}

	tok, user, err := svc.Signin(context.Background(), "alice@example.com", "pass-word-1")
	if err != nil {
		t.Fatalf("Signin: %v", err)
	}
	if user.ID != userID {
		t.Fatalf("unexpected user: %+v", user)
	}
	if user.Email != "alice@example.com" {
		t.Fatalf("email not normalized: %s", user.Email)
	}

	claims, err := tokens.VerifySession(tok)
	if err != nil {
		t.Fatalf("VerifySession: %v", err)
	}
	if claims.UserID != userID || claims.Email != "alice@example.com" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestAuthService_SignupDuplicateEmail(t *testing.T) {
	repo := newStubUserRepo()
	svc, _ := newTestService(repo, &stubMailQueue{})

	if _, err := svc.Signup(context.Background(), "bob@example.com", "pass-word-1", ""); err != nil {
		t.Fatalf("first signup: %v", err)
	}

	// Same address, different case: still a conflict.
	if _, err := svc.Signup(context.Background(), "BOB@example.com", "pass-word-2", ""); err != domain.ErrEmailTaken {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
	if repo.inserts != 1 {
		t.Fatalf("expected exactly one insert, got %d", repo.inserts)
	}
}

func TestAuthService_SigninFailuresIndistinguishable(t *testing.T) {
	repo := newStubUserRepo()
	svc, _ := newTestService(repo, &stubMailQueue{})

	if _, err := svc.Signup(context.Background(), "carol@example.com", "right-password", ""); err != nil {
		t.Fatalf("signup: %v", err)
	}

	_, _, errWrongPassword := svc.Signin(context.Background(), "carol@example.com", "wrong-password")
	_, _, errUnknownEmail := svc.Signin(context.Background(), "nobody@example.com", "whatever-pass")

	if errWrongPassword != domain.ErrInvalidCredentials {
		t.Fatalf("wrong password: expected ErrInvalidCredentials, got %v", errWrongPassword)
	}
	if errUnknownEmail != domain.ErrInvalidCredentials {
		t.Fatalf("unknown email: expected ErrInvalidCredentials, got %v", errUnknownEmail)
	}
}

func TestAuthService_ForgotPassword_AntiEnumeration(t *testing.T) {
	repo := newStubUserRepo()
	mail := &stubMailQueue{}
	svc, _ := newTestService(repo, mail)

	if _, err := svc.Signup(context.Background(), "dave@example.com", "pass-word-1", ""); err != nil {
		t.Fatalf("signup: %v", err)
	}

	if err := svc.ForgotPassword(context.Background(), "dave@example.com"); err != nil {
		t.Fatalf("forgot for registered: %v", err)
	}
	if err := svc.ForgotPassword(context.Background(), "ghost@example.com"); err != nil {
		t.Fatalf("forgot for unregistered: %v", err)
	}

	if len(mail.sent) != 1 {
		t.Fatalf("expected exactly one email, got %d", len(mail.sent))
	}
	if mail.sent[0].to != "dave@example.com" {
		t.Fatalf("unexpected recipient: %s", mail.sent[0].to)
	}
}

func TestAuthService_ForgotPassword_EmailContainsResetLink(t *testing.T) {
	repo := newStubUserRepo()
	mail := &stubMailQueue{}
	svc, tokens := newTestService(repo, mail)

	userID, err := svc.Signup(context.Background(), "erin@example.com", "pass-word-1", "")
	if err != nil {
		t.Fatalf("signup: %v", err)
	}

	if err := svc.ForgotPassword(context.Background(), "Erin@Example.com"); err != nil {
		t.Fatalf("forgot: %v", err)
	}
	if len(mail.sent) != 1 {
		t.Fatalf("expected one email, got %d", len(mail.sent))
	}

	const prefix = `href="http://localhost:3000/auth/reset-password?token=`
	html := mail.sent[0].html
	start := strings.Index(html, prefix)
	if start < 0 {
		t.Fatalf("reset link missing in email: %s", html)
	}
	rest := html[start+len(prefix):]
	end := strings.Index(rest, `"`)
	if end < 0 {
		t.Fatalf("malformed link in email: %s", html)
	}

	claims, err := tokens.VerifyReset(rest[:end])
	if err != nil {
		t.Fatalf("token in email does not verify: %v", err)
	}
	if claims.UserID != userID {
		t.Fatalf("token is for wrong user: %s", claims.UserID)
	}
}

func TestAuthService_ResetPassword_RoundTrip(t *testing.T) {
	repo := newStubUserRepo()
	svc, tokens := newTestService(repo, &stubMailQueue{})

	userID, err := svc.Signup(context.Background(), "frank@example.com", "old-password", "")
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	otherID, err := svc.Signup(context.Background(), "grace@example.com", "grace-password", "")
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	otherHash := repo.users[otherID].PasswordHash

	tok, err := tokens.IssueReset(userID)
	if err != nil {
		t.Fatalf("IssueReset: %v", err)
	}

	if err := svc.ResetPassword(context.Background(), tok, "new-password"); err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}

	// Only the token's user changed.
	if repo.users[otherID].PasswordHash != otherHash {
		t.Fatalf("reset touched another user's hash")
	}

	if _, _, err := svc.Signin(context.Background(), "frank@example.com", "old-password"); err != domain.ErrInvalidCredentials {
		t.Fatalf("old password still accepted: %v", err)
	}
	if _, _, err := svc.Signin(context.Background(), "frank@example.com", "new-password"); err != nil {
		t.Fatalf("new password rejected: %v", err)
	}
}

func TestAuthService_ResetPassword_TokenFailures(t *testing.T) {
	repo := newStubUserRepo()
	svc, _ := newTestService(repo, &stubMailQueue{})

	if err := svc.ResetPassword(context.Background(), "garbage", "long-enough-pw"); err != domain.ErrTokenInvalid {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}

	expiredTokens := token.NewProvider("session-secret", "reset-secret", time.Hour, time.Nanosecond)
	tok, err := expiredTokens.IssueReset("user_1")
	if err != nil {
		t.Fatalf("IssueReset: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	if err := svc.ResetPassword(context.Background(), tok, "long-enough-pw"); err != domain.ErrTokenExpired {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestAuthService_ResetPassword_ShortPasswordBeforeVerification(t *testing.T) {
	repo := newStubUserRepo()
	svc, _ := newTestService(repo, &stubMailQueue{})

	// The length check fires before the token is even looked at.
	if err := svc.ResetPassword(context.Background(), "not-even-a-token", "short"); err != domain.ErrPasswordTooShort {
		t.Fatalf("expected ErrPasswordTooShort, got %v", err)
	}
}

func TestAuthService_ResetPassword_UnknownUser(t *testing.T) {
	repo := newStubUserRepo()
	svc, tokens := newTestService(repo, &stubMailQueue{})

	tok, err := tokens.IssueReset("user_404")
	if err != nil {
		t.Fatalf("IssueReset: %v", err)
	}

	if err := svc.ResetPassword(context.Background(), tok, "long-enough-pw"); err != domain.ErrUserNotFound {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
