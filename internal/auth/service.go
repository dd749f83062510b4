package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrBootstrapDenied    = errors.New("bootstrap denied")
	ErrInvalidInput       = errors.New("invalid input")
)

type Service struct {
	db             *sql.DB
	sessionTTL     time.Duration
	bcryptCost     int
	bootstrapToken string
}

type ServiceConfig struct {
	SessionTTL     time.Duration
	BcryptCost     int
	BootstrapToken string
}

type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	FullName  string    `json:"full_name"`
	CreatedAt time.Time `json:"created_at"`
}

func NewService(db *sql.DB, cfg ServiceConfig) *Service {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 72 * time.Hour
	}
	if cfg.BcryptCost <= 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		db:             db,
		sessionTTL:     cfg.SessionTTL,
		bcryptCost:     cfg.BcryptCost,
		bootstrapToken: cfg.BootstrapToken,
	}
}

// Bootstrap creates the first operator account. It is gated by the
// deployment's bootstrap token and refuses to run once any user exists.
func (s *Service) Bootstrap(ctx context.Context, token, username, password, fullName string) (*User, error) {
	if s.bootstrapToken == "" || token != s.bootstrapToken {
		return nil, ErrBootstrapDenied
	}
	username = strings.TrimSpace(strings.ToLower(username))
	if username == "" || len(password) < 8 {
		return nil, fmt.Errorf("%w: username and a password of at least 8 characters are required", ErrInvalidInput)
	}

	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	if count > 0 {
		return nil, ErrBootstrapDenied
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now()
	var id int64
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO users (username, password_hash, full_name, is_active, created_at)
		VALUES ($1, $2, $3, TRUE, $4)
		RETURNING id`,
		username, string(hash), strings.TrimSpace(fullName), now.Unix(),
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}

	return &User{ID: id, Username: username, FullName: strings.TrimSpace(fullName), CreatedAt: now}, nil
}

func (s *Service) AuthenticatePassword(ctx context.Context, username, password string) (*User, error) {
	username = strings.TrimSpace(strings.ToLower(username))
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	var (
		u         User
		hash      string
		isActive  bool
		createdAt int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, username, password_hash, full_name, is_active, created_at
		FROM users
		WHERE username = $1`,
		username,
	).Scan(&u.ID, &u.Username, &hash, &u.FullName, &isActive, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	if !isActive {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	u.CreatedAt = time.Unix(createdAt, 0)
	return &u, nil
}

// CreateSession issues an opaque token; only its SHA-256 is stored.
func (s *Service) CreateSession(ctx context.Context, userID int64) (string, time.Time, error) {
	token, err := randomToken()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("generate session token: %w", err)
	}
	expiresAt := time.Now().Add(s.sessionTTL)

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO auth_sessions (token_hash, user_id, expires_at, created_at)
		VALUES ($1, $2, $3, $4)`,
		hashToken(token), userID, expiresAt.Unix(), time.Now().Unix(),
	)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("insert session: %w", err)
	}
	return token, expiresAt, nil
}

func (s *Service) GetSessionUser(ctx context.Context, token string) (*User, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrUnauthorized
	}

	var (
		u         User
		isActive  bool
		createdAt int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT u.id, u.username, u.full_name, u.is_active, u.created_at
		FROM auth_sessions s
		JOIN users u ON u.id = s.user_id
		WHERE s.token_hash = $1
		  AND s.revoked_at IS NULL
		  AND s.expires_at > $2`,
		hashToken(token), time.Now().Unix(),
	).Scan(&u.ID, &u.Username, &u.FullName, &isActive, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, fmt.Errorf("query session user: %w", err)
	}
	if !isActive {
		return nil, ErrUnauthorized
	}

	u.CreatedAt = time.Unix(createdAt, 0)
	return &u, nil
}

func (s *Service) RevokeSession(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `
		UPDATE auth_sessions
		SET revoked_at = $1
		WHERE token_hash = $2 AND revoked_at IS NULL`,
		time.Now().Unix(), hashToken(token),
	)
	if err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func hashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}
