package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bookmark-notes/backend/internal/db"
	"github.com/bookmark-notes/backend/internal/model"
	"github.com/bookmark-notes/backend/internal/token"
	"go.opentelemetry.io/otel/attribute"
)

// Credentials is the slice of the user store the auth flow needs.
type Credentials interface {
	CreateUser(ctx context.Context, email, passwordHash string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	UpdateRefreshTokenHash(ctx context.Context, id int64, hash string) error
	ClearRefreshTokenHash(ctx context.Context, id int64) error
}

type Hasher interface {
	Hash(plaintext string) (string, error)
	Verify(encoded, plaintext string) bool
}

type TokenIssuer interface {
	IssuePair(ctx context.Context, userID int64, email string) (token.Pair, error)
}

type AuthOptions struct {
	// SerializeSessions makes signin, refresh and logout for the same user
	// run one at a time inside this process.
	SerializeSessions bool
	Logger            *slog.Logger
}

type AuthService struct {
	repo   Credentials
	hasher Hasher
	tokens TokenIssuer
	locks  *userLocks
	logger *slog.Logger

	// dummyHash is verified against when the email is unknown so both
	// signin failures cost one argon2 derivation.
	dummyHash string
}

func NewAuthService(repo Credentials, hasher Hasher, tokens TokenIssuer, opts AuthOptions) (*AuthService, error) {
	dummy, err := hasher.Hash("not-a-real-password")
	if err != nil {
		return nil, fmt.Errorf("prepare dummy hash: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &AuthService{
		repo:      repo,
		hasher:    hasher,
		tokens:    tokens,
		logger:    logger.With("component", "auth"),
		dummyHash: dummy,
	}
	if opts.SerializeSessions {
		s.locks = newUserLocks()
	}
	return s, nil
}

func (s *AuthService) lockUser(id int64) func() {
	if s.locks == nil {
		return func() {}
	}
	return s.locks.lock(id)
}

func (s *AuthService) Signup(ctx context.Context, email, password string) (pair token.Pair, err error) {
	ctx, span := startSpan(ctx, "auth.signup")
	defer func() { endSpan(span, err, ErrDuplicateEmail) }()

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return token.Pair{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.repo.CreateUser(ctx, email, hash)
	if err != nil {
		if db.IsUniqueViolation(err) {
			s.logger.InfoContext(ctx, "signup rejected: email taken")
			return token.Pair{}, ErrDuplicateEmail
		}
		return token.Pair{}, err
	}
	span.SetAttributes(attribute.Int64("user.id", user.ID))

	pair, err = s.issueAndPersist(ctx, user)
	if err != nil {
		return token.Pair{}, err
	}
	s.logger.InfoContext(ctx, "user signed up", "user_id", user.ID)
	return pair, nil
}

func (s *AuthService) Signin(ctx context.Context, email, password string) (pair token.Pair, err error) {
	ctx, span := startSpan(ctx, "auth.signin")
	defer func() { endSpan(span, err, ErrInvalidCredentials) }()

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if db.IsNoRows(err) {
			s.hasher.Verify(s.dummyHash, password)
			s.logger.WarnContext(ctx, "signin failed")
			return token.Pair{}, ErrInvalidCredentials
		}
		return token.Pair{}, err
	}
	if !s.hasher.Verify(user.PasswordHash, password) {
		s.logger.WarnContext(ctx, "signin failed", "user_id", user.ID)
		return token.Pair{}, ErrInvalidCredentials
	}
	span.SetAttributes(attribute.Int64("user.id", user.ID))

	unlock := s.lockUser(user.ID)
	defer unlock()

	pair, err = s.issueAndPersist(ctx, user)
	if err != nil {
		return token.Pair{}, err
	}
	s.logger.InfoContext(ctx, "user signed in", "user_id", user.ID)
	return pair, nil
}

// Logout clears the stored refresh hash. It succeeds when there is no
// session or no such user.
func (s *AuthService) Logout(ctx context.Context, userID int64) (err error) {
	ctx, span := startSpan(ctx, "auth.logout")
	span.SetAttributes(attribute.Int64("user.id", userID))
	defer func() { endSpan(span, err) }()

	unlock := s.lockUser(userID)
	defer unlock()

	if err := s.repo.ClearRefreshTokenHash(ctx, userID); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "user logged out", "user_id", userID)
	return nil
}

// Refresh rotates the session: the presented token must match the stored
// hash, and on success it is replaced so it cannot be used again.
func (s *AuthService) Refresh(ctx context.Context, userID int64, refreshToken string) (pair token.Pair, err error) {
	ctx, span := startSpan(ctx, "auth.refresh")
	span.SetAttributes(attribute.Int64("user.id", userID))
	defer func() { endSpan(span, err, ErrAccessDenied) }()

	unlock := s.lockUser(userID)
	defer unlock()

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if db.IsNoRows(err) {
			s.logger.WarnContext(ctx, "refresh denied: unknown user", "user_id", userID)
			return token.Pair{}, ErrAccessDenied
		}
		return token.Pair{}, err
	}
	if !user.HasSession() {
		s.logger.WarnContext(ctx, "refresh denied: no session", "user_id", userID)
		return token.Pair{}, ErrAccessDenied
	}
	if !s.hasher.Verify(*user.HashedRefreshToken, refreshToken) {
		s.logger.WarnContext(ctx, "refresh denied: token mismatch", "user_id", userID)
		return token.Pair{}, ErrAccessDenied
	}

	pair, err = s.issueAndPersist(ctx, user)
	if err != nil {
		return token.Pair{}, err
	}
	s.logger.InfoContext(ctx, "session refreshed", "user_id", userID)
	return pair, nil
}

func (s *AuthService) issueAndPersist(ctx context.Context, user *model.User) (token.Pair, error) {
	pair, err := s.tokens.IssuePair(ctx, user.ID, user.Email)
	if err != nil {
		return token.Pair{}, err
	}

	hash, err := s.hasher.Hash(pair.RefreshToken)
	if err != nil {
		return token.Pair{}, fmt.Errorf("hash refresh token: %w", err)
	}

	if err := s.repo.UpdateRefreshTokenHash(ctx, user.ID, hash); err != nil {
		return token.Pair{}, fmt.Errorf("persist refresh token: %w", err)
	}
	return pair, nil
}
