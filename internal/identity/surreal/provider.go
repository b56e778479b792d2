// Package surreal is an identity provider backed by SurrealDB record access.
// Accounts live in the user table; sign-up and sign-in are delegated to the
// database's "account" access method.
package surreal

import (
	"context"
	"crypto/rand"
	_ "embed"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/nfrund/gatehouse/internal/config"
	"github.com/nfrund/gatehouse/internal/domain"
	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

//go:embed schema.surql
var schema string

const (
	accessMethod      = "account"
	minPasswordLength = 6
	resetTTL          = 24 * time.Hour
)

// user is the slice of a user record the provider reads back.
type user struct {
	ID    *surrealmodels.RecordID `json:"id,omitempty"`
	Email string                  `json:"email"`
}

// Provider implements identity.Provider on SurrealDB.
type Provider struct {
	url     string
	ns      string
	db      string
	root    *surrealdb.DB
	emailer domain.EmailSender
	baseURL string
	logger  *slog.Logger
}

// New connects a root session used for reset bookkeeping and applies the
// schema.
func New(ctx context.Context, cfg config.Provider, emailer domain.EmailSender) (*Provider, error) {
	root, err := surrealdb.FromEndpointURLString(ctx, cfg.GetSurrealURL())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database at %s: %w", redactURL(cfg.GetSurrealURL()), err)
	}

	authData := &surrealdb.Auth{
		Username: cfg.GetSurrealUser(),
		Password: cfg.GetSurrealPass(),
	}
	if _, err := root.SignIn(ctx, authData); err != nil {
		root.Close(ctx)
		return nil, fmt.Errorf("failed to sign in: %w", err)
	}
	if err := root.Use(ctx, cfg.GetSurrealNs(), cfg.GetSurrealDb()); err != nil {
		root.Close(ctx)
		return nil, fmt.Errorf("failed to use namespace/db: %w", err)
	}
	if _, err := surrealdb.Query[any](ctx, root, schema, nil); err != nil {
		root.Close(ctx)
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Provider{
		url:     cfg.GetSurrealURL(),
		ns:      cfg.GetSurrealNs(),
		db:      cfg.GetSurrealDb(),
		root:    root,
		emailer: emailer,
		baseURL: strings.TrimRight(cfg.GetAppBaseURL(), "/"),
		logger:  slog.Default().With("component", "surreal_provider"),
	}, nil
}

// CreateAccount implements identity.Provider.
func (p *Provider) CreateAccount(ctx context.Context, email, password string) (*domain.Identity, error) {
	if len(password) < minPasswordLength {
		return nil, domain.ErrWeakPassword
	}
	email = normalizeEmail(email)

	var token string
	err := p.withRecordSession(ctx, func(db *surrealdb.DB) error {
		var err error
		token, err = db.SignUp(ctx, p.accessData(email, password))
		return err
	})
	if err != nil {
		return nil, mapSignUpError(err)
	}
	return identityFromToken(email, token)
}

// SignIn implements identity.Provider. Record access does not reveal
// whether the account exists, so every rejection is ErrInvalidCredentials.
func (p *Provider) SignIn(ctx context.Context, email, password string) (*domain.Identity, error) {
	email = normalizeEmail(email)

	var token string
	err := p.withRecordSession(ctx, func(db *surrealdb.DB) error {
		var err error
		token, err = db.SignIn(ctx, p.accessData(email, password))
		return err
	})
	if err != nil {
		return nil, mapSignInError(err)
	}
	return identityFromToken(email, token)
}

// SendPasswordReset stores a reset token on the user record and emails a
// link carrying it.
func (p *Provider) SendPasswordReset(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	token, err := generateSecureToken(32)
	if err != nil {
		return err
	}

	expires := time.Now().UTC().Add(resetTTL).Format(time.RFC3339)
	query := `UPDATE user SET resetToken = $reset_token, resetTokenExpires = $expires WHERE email = $email RETURN AFTER`
	params := map[string]any{
		"email":       email,
		"reset_token": token,
		"expires":     expires,
	}
	updated, err := queryOne[user](ctx, p.root, query, params)
	if err != nil {
		return networkError(err)
	}
	if updated == nil {
		return domain.ErrUserNotFound
	}

	link := p.baseURL + "/reset-password?code=" + url.QueryEscape(token)
	body := fmt.Sprintf(`<p>Click the link below to reset your password:</p><a href="%s">Reset Password</a>`, link)
	if err := p.emailer.Send(ctx, email, "Reset Your Password", body); err != nil {
		return domain.NewProviderError("", domain.CodeNetwork, "Could not send the password reset email.", err)
	}
	return nil
}

// ConfirmPasswordReset atomically sets the new password and clears the
// reset token.
func (p *Provider) ConfirmPasswordReset(ctx context.Context, code, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return domain.ErrWeakPassword
	}
	query := `
		UPDATE user SET
			password = crypto::argon2::generate($password),
			resetToken = NONE,
			resetTokenExpires = NONE
		WHERE resetToken = $target_token AND type::datetime(resetTokenExpires) > time::now()
		RETURN AFTER
	`
	params := map[string]any{
		"target_token": code,
		"password":     newPassword,
	}
	updated, err := queryOne[user](ctx, p.root, query, params)
	if err != nil {
		return networkError(err)
	}
	if updated == nil {
		return domain.ErrInvalidResetCode
	}
	return nil
}

// SignOut is a no-op: record access tokens are stateless and expire on
// their own.
func (p *Provider) SignOut(ctx context.Context, token string) error {
	p.logger.DebugContext(ctx, "Sign-out needs no provider call")
	return nil
}

// Close closes the root session.
func (p *Provider) Close() error {
	return p.root.Close(context.Background())
}

// withRecordSession runs fn on a fresh connection so record-level sign-ins
// never replace the root session's authentication.
func (p *Provider) withRecordSession(ctx context.Context, fn func(db *surrealdb.DB) error) error {
	db, err := surrealdb.FromEndpointURLString(ctx, p.url)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close(ctx)

	if err := db.Use(ctx, p.ns, p.db); err != nil {
		return fmt.Errorf("failed to use namespace/db: %w", err)
	}
	return fn(db)
}

func (p *Provider) accessData(email, password string) map[string]any {
	return map[string]any{
		"ns":       p.ns,
		"db":       p.db,
		"ac":       accessMethod,
		"email":    email,
		"password": password,
	}
}

// identityFromToken reads the record id and expiry out of a token the
// database just issued. The signature is the database's concern.
func identityFromToken(email, token string) (*domain.Identity, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("failed to parse access token: %w", err)
	}

	id, _ := claims["ID"].(string)
	if id == "" {
		return nil, errors.New("access token has no record id")
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, errors.New("access token has no expiry")
	}
	return &domain.Identity{UID: id, Email: email, Token: token, ExpiresAt: exp.Time}, nil
}

func mapSignUpError(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "already exists"), strings.Contains(msg, "already contains"),
		strings.Contains(msg, "signup query failed"):
		return domain.ErrEmailInUse.WithOp("", err)
	case isConnectionError(err):
		return networkError(err)
	default:
		return fmt.Errorf("sign up failed: %w", err)
	}
}

func mapSignInError(err error) error {
	if isConnectionError(err) {
		return networkError(err)
	}
	return domain.ErrInvalidCredentials.WithOp("", err)
}

func isConnectionError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, s := range []string{"failed to connect", "connection refused", "unexpected eof", "broken pipe", "connection reset"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

func queryOne[T any](ctx context.Context, db *surrealdb.DB, query string, params map[string]any) (*T, error) {
	results, err := surrealdb.Query[[]T](ctx, db, query, params)
	if err != nil {
		return nil, fmt.Errorf("query execution failed: %w", err)
	}
	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, nil
	}
	return &(*results)[0].Result[0], nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func networkError(err error) error {
	return domain.NewProviderError("", domain.CodeNetwork, "The identity service is unavailable. Please try again.", err)
}

func generateSecureToken(length int) (string, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate secure token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "invalid-url"
	}
	if u.User != nil {
		u.User = url.User("redacted")
	}
	return u.String()
}
