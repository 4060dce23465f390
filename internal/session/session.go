// Package session holds the authenticated identity for the lifetime of a
// login. Credentials are accepted unconditionally when non-empty; the
// role is bound from the caller's choice, never derived from the email.
package session

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"leadgps/internal/domain"
	"leadgps/internal/repo"
)

// AuthError is a recoverable login rejection. It is deliberately generic:
// the caller learns only that the credentials were not accepted.
type AuthError struct {
	Reason string
}

func (e AuthError) Error() string {
	if e.Reason == "" {
		return "invalid credentials"
	}
	return e.Reason
}

// Store issues and validates sessions backed by the sessions table.
type Store struct {
	DB        *sql.DB
	Repo      repo.Repo
	JWTSecret string
	TTL       time.Duration
	Now       func() time.Time
}

func New(db *sql.DB, secret string, ttl time.Duration) Store {
	return Store{
		DB:        db,
		Repo:      repo.Repo{DB: db},
		JWTSecret: secret,
		TTL:       ttl,
		Now:       time.Now,
	}
}

func (s Store) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

type identityClaims struct {
	jwt.RegisteredClaims
	Email      string      `json:"email"`
	Name       string      `json:"name"`
	Role       domain.Role `json:"role"`
	Department string      `json:"department"`
}

// Login creates a session for any non-empty email and password. The role
// comes from the caller. A seeded user with a matching email lends its
// display identity; unknown emails get one derived from the address.
func (s Store) Login(ctx context.Context, email, password string, role domain.Role) (domain.Identity, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || strings.TrimSpace(password) == "" {
		return domain.Identity{}, "", AuthError{Reason: "email and password are required"}
	}
	if !role.Valid() {
		return domain.Identity{}, "", AuthError{Reason: "unknown role"}
	}
	ident := domain.Identity{
		ID:         uuid.New().String(),
		Email:      email,
		Name:       displayName(email),
		Role:       role,
		Department: "General",
	}
	if u, err := s.Repo.GetUserByEmail(ctx, email); err == nil {
		ident.ID = u.ID
		ident.Name = u.Name
		ident.Department = u.Department
	} else if !errors.Is(err, repo.ErrNotFound) {
		return domain.Identity{}, "", err
	}

	sessionID := uuid.New().String()
	now := s.now().UTC()
	if _, err := s.DB.ExecContext(ctx, `INSERT INTO sessions(id,user_id,email,name,role,department,created_at) VALUES (?,?,?,?,?,?,?)`,
		sessionID, ident.ID, ident.Email, ident.Name, ident.Role, ident.Department, now.Format(time.RFC3339)); err != nil {
		return domain.Identity{}, "", err
	}

	claims := identityClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,
			Subject:   ident.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.TTL)),
		},
		Email:      ident.Email,
		Name:       ident.Name,
		Role:       ident.Role,
		Department: ident.Department,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.JWTSecret))
	if err != nil {
		return domain.Identity{}, "", err
	}
	return ident, token, nil
}

// Logout removes the session. Logging out twice is fine.
func (s Store) Logout(ctx context.Context, sessionID string) error {
	_, err := s.DB.ExecContext(ctx, `DELETE FROM sessions WHERE id=?`, sessionID)
	return err
}

// Validate parses a token and checks the session is still live, so a
// logout invalidates outstanding tokens immediately.
func (s Store) Validate(ctx context.Context, token string) (domain.Identity, string, error) {
	if strings.TrimSpace(s.JWTSecret) == "" {
		return domain.Identity{}, "", errors.New("jwt secret not configured")
	}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	claims := &identityClaims{}
	parsed, err := parser.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return []byte(s.JWTSecret), nil
	})
	if err != nil {
		return domain.Identity{}, "", err
	}
	if !parsed.Valid || claims.ID == "" {
		return domain.Identity{}, "", errors.New("invalid token")
	}
	var one int
	err = s.DB.QueryRowContext(ctx, `SELECT 1 FROM sessions WHERE id=?`, claims.ID).Scan(&one)
	if err == sql.ErrNoRows {
		return domain.Identity{}, "", errors.New("session ended")
	}
	if err != nil {
		return domain.Identity{}, "", err
	}
	return domain.Identity{
		ID:         claims.Subject,
		Email:      claims.Email,
		Name:       claims.Name,
		Role:       claims.Role,
		Department: claims.Department,
	}, claims.ID, nil
}

// displayName turns a@b.com into "A" and jane.doe@b.com into "Jane Doe".
func displayName(email string) string {
	local := email
	if at := strings.Index(email, "@"); at > 0 {
		local = email[:at]
	}
	parts := strings.FieldsFunc(local, func(r rune) bool {
		return r == '.' || r == '_' || r == '-'
	})
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}
