// Package local is a self-hosted identity provider backed by SQLite. It
// issues HS256 ID tokens and keeps argon2id password hashes.
package local

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nfrund/gatehouse/internal/domain"
)

// minPasswordLength is the provider-enforced floor, independent of the
// stricter form policy.
const minPasswordLength = 6

// Config configures a Provider.
type Config struct {
	DSN         string
	TokenSecret string
	TokenTTL    time.Duration
	ResetTTL    time.Duration
	// BaseURL is the public URL reset links point at.
	BaseURL string
	Hash    HashParams
}

// Provider implements identity.Provider and identity.TokenVerifier.
type Provider struct {
	store    *store
	tokens   tokenSigner
	emailer  domain.EmailSender
	baseURL  string
	resetTTL time.Duration
	hash     HashParams
	now      func() time.Time
	logger   *slog.Logger
}

// New opens the provider database and returns a ready Provider.
func New(ctx context.Context, cfg Config, emailer domain.EmailSender) (*Provider, error) {
	if cfg.TokenSecret == "" {
		return nil, errors.New("local provider: token secret is required")
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = time.Hour
	}
	if cfg.ResetTTL <= 0 {
		cfg.ResetTTL = time.Hour
	}
	if cfg.Hash == (HashParams{}) {
		cfg.Hash = DefaultHashParams
	}

	st, err := openStore(ctx, cfg.DSN)
	if err != nil {
		return nil, err
	}

	return &Provider{
		store:    st,
		tokens:   tokenSigner{secret: []byte(cfg.TokenSecret), ttl: cfg.TokenTTL},
		emailer:  emailer,
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		resetTTL: cfg.ResetTTL,
		hash:     cfg.Hash,
		now:      time.Now,
		logger:   slog.Default().With("component", "local_provider"),
	}, nil
}

// CreateAccount implements identity.Provider.
func (p *Provider) CreateAccount(ctx context.Context, email, password string) (*domain.Identity, error) {
	email = normalizeEmail(email)
	if len(password) < minPasswordLength {
		return nil, domain.ErrWeakPassword
	}

	if _, err := p.store.accountByEmail(ctx, email); err == nil {
		return nil, domain.ErrEmailInUse
	} else if !errors.Is(err, errNotFound) {
		return nil, networkError(err)
	}

	hash, err := hashPassword(p.hash, password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	a := account{UID: uuid.NewString(), Email: email, PasswordHash: hash}
	if err := p.store.insertAccount(ctx, a, p.now()); err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, domain.ErrEmailInUse
		}
		return nil, networkError(err)
	}

	p.logger.InfoContext(ctx, "Account created", "uid", a.UID, "email", email)
	return p.issue(a)
}

// SignIn implements identity.Provider.
func (p *Provider) SignIn(ctx context.Context, email, password string) (*domain.Identity, error) {
	a, err := p.store.accountByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, errNotFound) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, networkError(err)
	}

	ok, err := verifyPassword(password, a.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("stored password hash for %s: %w", a.UID, err)
	}
	if !ok {
		return nil, domain.ErrInvalidCredentials
	}
	return p.issue(*a)
}

// SendPasswordReset implements identity.Provider. The emailed link carries
// a one-time code; only its SHA-256 is stored.
func (p *Provider) SendPasswordReset(ctx context.Context, email string) error {
	a, err := p.store.accountByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, errNotFound) {
		return domain.ErrUserNotFound
	}
	if err != nil {
		return networkError(err)
	}

	code, err := generateCode()
	if err != nil {
		return err
	}
	if err := p.store.insertResetCode(ctx, hashCode(code), a.UID, p.now().Add(p.resetTTL)); err != nil {
		return networkError(err)
	}

	link := p.baseURL + "/reset-password?code=" + url.QueryEscape(code)
	body := fmt.Sprintf(`<p>Click the link below to reset your password:</p><a href="%s">Reset Password</a>`, link)
	if err := p.emailer.Send(ctx, a.Email, "Reset Your Password", body); err != nil {
		return domain.NewProviderError("", domain.CodeNetwork, "Could not send the password reset email.", err)
	}
	return nil
}

// ConfirmPasswordReset implements identity.Provider.
func (p *Provider) ConfirmPasswordReset(ctx context.Context, code, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return domain.ErrWeakPassword
	}
	hash, err := hashPassword(p.hash, newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	err = p.store.resetPassword(ctx, hashCode(code), hash, p.now())
	if errors.Is(err, errNotFound) {
		return domain.ErrInvalidResetCode
	}
	if err != nil {
		return networkError(err)
	}
	return nil
}

// SignOut implements identity.Provider by revoking the token. Tokens that
// are already expired or not ours need no revocation.
func (p *Provider) SignOut(ctx context.Context, token string) error {
	claims, err := p.tokens.parse(token, p.now())
	if errors.Is(err, errTokenExpired) {
		return nil
	}
	if err != nil {
		p.logger.DebugContext(ctx, "Ignoring sign-out of unparseable token", "error", err)
		return nil
	}
	if err := p.store.revokeToken(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return networkError(err)
	}
	return nil
}

// VerifyToken returns the identity behind a valid, unrevoked token.
func (p *Provider) VerifyToken(ctx context.Context, token string) (*domain.Identity, error) {
	claims, err := p.tokens.parse(token, p.now())
	if err != nil {
		return nil, domain.ErrInvalidCredentials.WithOp("", err)
	}
	revoked, err := p.store.tokenRevoked(ctx, claims.ID)
	if err != nil {
		return nil, networkError(err)
	}
	if revoked {
		return nil, domain.ErrInvalidCredentials
	}
	return &domain.Identity{
		UID:       claims.Subject,
		Email:     claims.Email,
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Purge deletes expired reset codes and token revocations.
func (p *Provider) Purge(ctx context.Context) error {
	return p.store.purge(ctx, p.now())
}

// Close closes the provider database.
func (p *Provider) Close() error {
	return p.store.close()
}

func (p *Provider) issue(a account) (*domain.Identity, error) {
	token, expiresAt, err := p.tokens.issue(a.UID, a.Email, p.now())
	if err != nil {
		return nil, err
	}
	return &domain.Identity{UID: a.UID, Email: a.Email, Token: token, ExpiresAt: expiresAt}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func networkError(err error) error {
	return domain.NewProviderError("", domain.CodeNetwork, "The identity service is unavailable. Please try again.", err)
}

func generateCode() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate reset code: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func hashCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}
