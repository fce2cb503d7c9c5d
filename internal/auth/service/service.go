// Package service implements staff login, logout, and token validation.
// Tokens are HS256 JWTs backed by server-side sessions so that logout takes
// effect immediately.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"rehabdocs/internal/auth/models"
	"rehabdocs/internal/jwttoken"
	"rehabdocs/internal/platform/middleware"
	id "rehabdocs/pkg/domain"
	dErrors "rehabdocs/pkg/domain-errors"
	"rehabdocs/pkg/platform/sentinel"
)

type UserStore interface {
	Save(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, userID id.UserID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Count(ctx context.Context) (int, error)
}

type SessionStore interface {
	Create(ctx context.Context, sess *models.Session) error
	FindByID(ctx context.Context, sessionID id.SessionID) (*models.Session, error)
	Delete(ctx context.Context, sessionID id.SessionID) error
	DeleteByUser(ctx context.Context, userID id.UserID) error
}

// Service owns the login lifecycle for staff accounts.
type Service struct {
	users    UserStore
	sessions SessionStore
	jwt      *jwttoken.JWTService
	tokenTTL time.Duration
	logger   *slog.Logger
}

func New(users UserStore, sessions SessionStore, jwt *jwttoken.JWTService, tokenTTL time.Duration, logger *slog.Logger) *Service {
	return &Service{
		users:    users,
		sessions: sessions,
		jwt:      jwt,
		tokenTTL: tokenTTL,
		logger:   logger,
	}
}

// LoginResult carries the signed token and the account it belongs to.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *models.User
}

// Login verifies credentials and opens a session recording the caller's
// device. Invalid email and invalid password return the same error so the
// endpoint does not leak which accounts exist.
func (s *Service) Login(ctx context.Context, email, password, userAgent string) (*LoginResult, error) {
	if email == "" || password == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "email and password are required")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeUnauthenticated, "invalid credentials")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "look up user")
	}
	if !user.IsActive {
		return nil, dErrors.New(dErrors.CodeUnauthenticated, "invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, dErrors.New(dErrors.CodeUnauthenticated, "invalid credentials")
	}

	now := time.Now()
	sess := &models.Session{
		ID:        id.NewSessionID(),
		UserID:    user.ID,
		Role:      user.Role,
		Device:    deviceFrom(userAgent),
		CreatedAt: now,
		ExpiresAt: now.Add(s.tokenTTL),
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "create session")
	}

	token, err := s.jwt.GenerateAccessToken(uuid.UUID(user.ID), uuid.UUID(sess.ID), user.Role, s.tokenTTL)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "sign token")
	}

	return &LoginResult{Token: token, ExpiresAt: sess.ExpiresAt, User: user}, nil
}

// Logout deletes the session behind a token. Missing sessions are treated as
// already logged out.
func (s *Service) Logout(ctx context.Context, sessionID id.SessionID) error {
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "delete session")
	}
	return nil
}

// Me returns the account behind an authenticated request.
func (s *Service) Me(ctx context.Context, userID id.UserID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "look up user")
	}
	return user, nil
}

// Validate implements middleware.TokenValidator. A token is accepted only if
// its signature checks out and its session still exists.
func (s *Service) Validate(ctx context.Context, token string) (*middleware.TokenClaims, error) {
	claims, err := s.jwt.ValidateToken(token)
	if err != nil {
		return nil, err
	}

	sessionID, err := id.ParseSessionID(claims.SessionID)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeUnauthenticated, "invalid token claims")
	}
	userID, err := id.ParseUserID(claims.UserID)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeUnauthenticated, "invalid token claims")
	}

	sess, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) || errors.Is(err, sentinel.ErrExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthenticated, "session is no longer active")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "look up session")
	}
	if sess.UserID != userID {
		return nil, dErrors.New(dErrors.CodeUnauthenticated, "invalid token claims")
	}

	return &middleware.TokenClaims{
		UserID:    userID,
		SessionID: sessionID,
		Role:      sess.Role,
	}, nil
}

// EnsureAdmin creates the bootstrap admin account when the user table is
// empty. Called once at startup; a no-op otherwise.
func (s *Service) EnsureAdmin(ctx context.Context, email, password string) error {
	if password == "" {
		return nil
	}
	n, err := s.users.Count(ctx)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "count users")
	}
	if n > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "hash password")
	}
	now := time.Now()
	admin := &models.User{
		ID:           id.NewUserID(),
		Email:        email,
		PasswordHash: string(hash),
		Name:         "Administrator",
		Role:         models.RoleAdmin,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Save(ctx, admin); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "save admin user")
	}
	s.logger.InfoContext(ctx, "bootstrap admin account created", "email", email)
	return nil
}
