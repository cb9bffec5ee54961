package token

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"authd/internal/models"
)

// RevocationStore keeps the whitelist of still-valid refresh token ids.
type RevocationStore interface {
	// Record inserts a whitelist entry for a freshly issued refresh token.
	Record(ctx context.Context, jti string, userID uint, expiresAt time.Time) error

	// IsValid reports whether a non-expired entry for jti exists.
	IsValid(ctx context.Context, jti string) (bool, error)

	// Consume atomically deletes the non-expired entry for jti and reports
	// whether this call removed it. Of two concurrent consumers exactly one
	// sees true.
	Consume(ctx context.Context, jti string) (bool, error)

	// Revoke deletes the entry for jti, no-op when absent.
	Revoke(ctx context.Context, jti string) error

	// RevokeAll deletes every entry belonging to userID.
	RevokeAll(ctx context.Context, userID uint) error
}

// UserDirectory resolves token subjects to user records.
// FindByID returns (nil, nil) when no such user exists.
type UserDirectory interface {
	FindByID(ctx context.Context, id uint) (*models.User, error)
}

// IssuedToken is one encoded token together with its expiry.
type IssuedToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Pair is the access + refresh token pair handed out on login and refresh.
type Pair struct {
	Access  IssuedToken `json:"access_token"`
	Refresh IssuedToken `json:"refresh_token"`
}

type ServiceConfig struct {
	// AccessTTL is the access token lifetime, 5 minutes if zero.
	AccessTTL time.Duration
	// RefreshTTL is the refresh token lifetime, 24 hours if zero.
	RefreshTTL time.Duration
}

func (c *ServiceConfig) applyDefaults() {
	if c.AccessTTL <= 0 {
		c.AccessTTL = 5 * time.Minute
	}
	if c.RefreshTTL <= 0 {
		c.RefreshTTL = 24 * time.Hour
	}
}

// Service orchestrates the refresh token lifecycle: issued -> consumed on
// rotation, revoked on logout/password change, or expired by TTL. Access
// tokens are stateless and only die by expiry.
type Service struct {
	codec *Codec
	store RevocationStore
	users UserDirectory
	clock clockwork.Clock

	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewService(codec *Codec, store RevocationStore, users UserDirectory, clock clockwork.Clock, cfg ServiceConfig) *Service {
	cfg.applyDefaults()

	return &Service{
		codec:      codec,
		store:      store,
		users:      users,
		clock:      clock,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
	}
}

// IssuePair builds and signs an access + refresh token pair for user and
// records the refresh token's jti in the whitelist.
func (s *Service) IssuePair(ctx context.Context, user *models.User) (*Pair, error) {
	// JWT timestamps have second resolution.
	now := s.clock.Now().Truncate(time.Second)

	access := &Payload{
		Subject:   user.Subject(),
		Type:      TypeAccess,
		JTI:       uuid.New().String(),
		IssuedAt:  now,
		ExpiresAt: now.Add(s.accessTTL),
	}
	refresh := &Payload{
		Subject:   user.Subject(),
		Type:      TypeRefresh,
		JTI:       uuid.New().String(),
		IssuedAt:  now,
		ExpiresAt: now.Add(s.refreshTTL),
	}

	accessToken, err := s.codec.Encode(access)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.codec.Encode(refresh)
	if err != nil {
		return nil, err
	}

	if err := s.store.Record(ctx, refresh.JTI, user.ID, refresh.ExpiresAt); err != nil {
		return nil, fmt.Errorf("failed to whitelist refresh token: %w", err)
	}

	return &Pair{
		Access:  IssuedToken{Token: accessToken, ExpiresAt: access.ExpiresAt},
		Refresh: IssuedToken{Token: refreshToken, ExpiresAt: refresh.ExpiresAt},
	}, nil
}

// DecodeAndValidate decodes raw and checks it is usable as a want token.
// Refresh tokens are additionally checked against the whitelist; an entry
// that is gone means ErrTokenRevoked, distinct from ErrInvalidToken.
func (s *Service) DecodeAndValidate(ctx context.Context, raw string, want Type) (*Payload, error) {
	p, err := s.codec.Decode(raw)
	if err != nil {
		return nil, err
	}

	if p.Type != want {
		return nil, fmt.Errorf("%w: got %q, want %q", ErrWrongTokenType, p.Type, want)
	}

	if want == TypeRefresh {
		ok, err := s.store.IsValid(ctx, p.JTI)
		if err != nil {
			// Store trouble is an I/O failure, not a revocation verdict.
			return nil, fmt.Errorf("whitelist lookup failed: %w", err)
		}
		if !ok {
			return nil, ErrTokenRevoked
		}
	}

	return p, nil
}

// Refresh rotates a refresh token: validate, consume the old jti, then
// issue a fresh pair for the same user. A refresh token is single-use; when
// two calls race on the same token only the one that consumes the jti gets
// a new pair, the other observes ErrTokenRevoked. Nothing is mutated on any
// failure before the consume.
func (s *Service) Refresh(ctx context.Context, raw string) (*models.User, *Pair, error) {
	p, err := s.DecodeAndValidate(ctx, raw, TypeRefresh)
	if err != nil {
		return nil, nil, err
	}

	id, err := p.SubjectID()
	if err != nil {
		return nil, nil, err
	}

	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("user lookup failed: %w", err)
	}
	if user == nil {
		return nil, nil, ErrUserNotFound
	}

	consumed, err := s.store.Consume(ctx, p.JTI)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to consume refresh token: %w", err)
	}
	if !consumed {
		// Lost a race against a concurrent refresh or an explicit revoke.
		return nil, nil, ErrTokenRevoked
	}

	pair, err := s.IssuePair(ctx, user)
	if err != nil {
		// The old token is already consumed; the caller has to log in
		// again. Failing closed is the safe direction here.
		return nil, nil, err
	}

	return user, pair, nil
}

// ResolveAccess validates raw as an access token and resolves its subject.
// Used by the request middleware.
func (s *Service) ResolveAccess(ctx context.Context, raw string) (*models.User, error) {
	p, err := s.DecodeAndValidate(ctx, raw, TypeAccess)
	if err != nil {
		return nil, err
	}

	id, err := p.SubjectID()
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("user lookup failed: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	return user, nil
}

// RevokePresented revokes the whitelist entry of a structurally valid
// refresh token. Revoking an already absent entry is a no-op, so logout is
// idempotent.
func (s *Service) RevokePresented(ctx context.Context, raw string) error {
	p, err := s.codec.Decode(raw)
	if err != nil {
		return err
	}

	if p.Type != TypeRefresh {
		return fmt.Errorf("%w: got %q, want %q", ErrWrongTokenType, p.Type, TypeRefresh)
	}

	return s.Revoke(ctx, p.JTI)
}

func (s *Service) Revoke(ctx context.Context, jti string) error {
	return s.store.Revoke(ctx, jti)
}

// RevokeAll drops every outstanding refresh token of a user. Used on
// logout-everywhere and password change. Already issued access tokens stay
// valid until their own expiry.
func (s *Service) RevokeAll(ctx context.Context, userID uint) error {
	return s.store.RevokeAll(ctx, userID)
}
