package token

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrExpired       = errors.New("token expired")
	ErrMisconfigured = errors.New("token config invalid")
)

type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

func (c *Claims) UserID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidToken
	}
	return id, nil
}

// Signer issues and verifies HS256 tokens for a single secret and lifetime.
type Signer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewSigner(secret string, ttl time.Duration, now func() time.Time) *Signer {
	if now == nil {
		now = time.Now
	}
	return &Signer{secret: []byte(secret), ttl: ttl, now: now}
}

func (s *Signer) TTL() time.Duration {
	return s.ttl
}

func (s *Signer) Sign(userID int64, email string) (string, error) {
	now := s.now()
	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify returns ErrExpired for an otherwise valid token past its exp claim
// and ErrInvalidToken for every other failure.
func (s *Signer) Verify(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, ErrInvalidToken
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	if _, err := claims.UserID(); err != nil {
		return nil, err
	}
	return claims, nil
}

type Pair struct {
	AccessToken  string
	RefreshToken string
}

// Issuer owns the access and refresh signers. Their secrets are disjoint, so
// a token from one never verifies against the other.
type Issuer struct {
	access  *Signer
	refresh *Signer
}

type Config struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Now           func() time.Time
}

func NewIssuer(cfg Config) (*Issuer, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, fmt.Errorf("%w: access and refresh secrets are required", ErrMisconfigured)
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, fmt.Errorf("%w: access and refresh secrets must differ", ErrMisconfigured)
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, fmt.Errorf("%w: token TTLs must be positive", ErrMisconfigured)
	}
	return &Issuer{
		access:  NewSigner(cfg.AccessSecret, cfg.AccessTTL, cfg.Now),
		refresh: NewSigner(cfg.RefreshSecret, cfg.RefreshTTL, cfg.Now),
	}, nil
}

// IssuePair signs both tokens concurrently.
func (i *Issuer) IssuePair(ctx context.Context, userID int64, email string) (Pair, error) {
	var pair Pair
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		signed, err := i.access.Sign(userID, email)
		pair.AccessToken = signed
		return err
	})
	g.Go(func() error {
		signed, err := i.refresh.Sign(userID, email)
		pair.RefreshToken = signed
		return err
	})
	if err := g.Wait(); err != nil {
		return Pair{}, fmt.Errorf("sign token pair: %w", err)
	}
	return pair, nil
}

func (i *Issuer) VerifyAccess(tokenStr string) (*Claims, error) {
	return i.access.Verify(tokenStr)
}

func (i *Issuer) VerifyRefresh(tokenStr string) (*Claims, error) {
	return i.refresh.Verify(tokenStr)
}
