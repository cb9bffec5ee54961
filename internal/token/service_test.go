package token

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormlog "gorm.io/gorm/logger"

	"authd/internal/gormw"
	"authd/internal/models"
	"authd/internal/storage"
)

type serviceFixture struct {
	service   *Service
	whitelist *storage.WhitelistStore
	users     *storage.UserStore
	clock     *clockwork.FakeClock
	db        *gormw.DB
	user      *models.User
}

func setupService(t *testing.T) *serviceFixture {
	t.Helper()

	db, err := gormw.Open(&gormw.Config{
		LogLevel: gormlog.Silent,
		// Serialize access so the in-memory sqlite DB is shared.
		MaxOpenConns: 1,
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate())

	clock := clockwork.NewFakeClockAt(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))

	codec, err := NewCodec(testSecret, "HS256", clock)
	require.NoError(t, err)

	whitelist := storage.NewWhitelistStore(db, clock)
	users := storage.NewUserStore(db)

	service := NewService(codec, whitelist, users, clock, ServiceConfig{})

	user := &models.User{
		Username:       "alice",
		HashedPassword: "irrelevant-here",
		Role:           models.RoleGuest,
	}
	require.NoError(t, users.Create(context.Background(), user))

	return &serviceFixture{
		service:   service,
		whitelist: whitelist,
		users:     users,
		clock:     clock,
		db:        db,
		user:      user,
	}
}

func TestIssuePairAndValidateAccess(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	pair, err := f.service.IssuePair(ctx, f.user)
	require.NoError(t, err)

	now := f.clock.Now().Truncate(time.Second)
	assert.True(t, pair.Access.ExpiresAt.Equal(now.Add(5*time.Minute)), "access token lives 5 minutes")
	assert.True(t, pair.Refresh.ExpiresAt.Equal(now.Add(24*time.Hour)), "refresh token lives 1 day")

	payload, err := f.service.DecodeAndValidate(ctx, pair.Access.Token, TypeAccess)
	require.NoError(t, err)
	assert.Equal(t, f.user.Subject(), payload.Subject)
	assert.Equal(t, TypeAccess, payload.Type)

	// Both tokens of a pair carry distinct jtis.
	refreshPayload, err := f.service.DecodeAndValidate(ctx, pair.Refresh.Token, TypeRefresh)
	require.NoError(t, err)
	assert.NotEqual(t, payload.JTI, refreshPayload.JTI)
}

func TestRefreshWhitelistLifecycle(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	pair, err := f.service.IssuePair(ctx, f.user)
	require.NoError(t, err)

	payload, err := f.service.codec.Decode(pair.Refresh.Token)
	require.NoError(t, err)

	ok, err := f.whitelist.IsValid(ctx, payload.JTI)
	require.NoError(t, err)
	assert.True(t, ok, "refresh token is whitelisted right after issuance")

	require.NoError(t, f.service.Revoke(ctx, payload.JTI))

	ok, err = f.whitelist.IsValid(ctx, payload.JTI)
	require.NoError(t, err)
	assert.False(t, ok, "refresh token is gone right after revoke")

	_, err = f.service.DecodeAndValidate(ctx, pair.Refresh.Token, TypeRefresh)
	assert.ErrorIs(t, err, ErrTokenRevoked)
}

func TestRevokeIsIdempotent(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	pair, err := f.service.IssuePair(ctx, f.user)
	require.NoError(t, err)

	payload, err := f.service.codec.Decode(pair.Refresh.Token)
	require.NoError(t, err)

	require.NoError(t, f.service.Revoke(ctx, payload.JTI))
	// Second revoke of the same jti is a no-op, not an error.
	require.NoError(t, f.service.Revoke(ctx, payload.JTI))
}

func TestRefreshRotation(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	pair, err := f.service.IssuePair(ctx, f.user)
	require.NoError(t, err)

	user, newPair, err := f.service.Refresh(ctx, pair.Refresh.Token)
	require.NoError(t, err)
	assert.Equal(t, f.user.ID, user.ID)
	assert.NotEqual(t, pair.Refresh.Token, newPair.Refresh.Token)

	// The consumed token cannot be replayed.
	_, _, err = f.service.Refresh(ctx, pair.Refresh.Token)
	assert.ErrorIs(t, err, ErrTokenRevoked)

	// The successor works.
	_, _, err = f.service.Refresh(ctx, newPair.Refresh.Token)
	assert.NoError(t, err)
}

func TestRefreshWrongTokenType(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	pair, err := f.service.IssuePair(ctx, f.user)
	require.NoError(t, err)

	// Access token where refresh is required.
	_, _, err = f.service.Refresh(ctx, pair.Access.Token)
	assert.ErrorIs(t, err, ErrWrongTokenType)

	// Refresh token where access is required.
	_, err = f.service.DecodeAndValidate(ctx, pair.Refresh.Token, TypeAccess)
	assert.ErrorIs(t, err, ErrWrongTokenType)
}

func TestRefreshDeletedUser(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	pair, err := f.service.IssuePair(ctx, f.user)
	require.NoError(t, err)

	require.NoError(t, f.db.Delete(&models.User{}, f.user.ID).Error)

	_, _, err = f.service.Refresh(ctx, pair.Refresh.Token)
	assert.ErrorIs(t, err, ErrUserNotFound)

	// The whitelist entry must not have been consumed by the failed call.
	payload, err := f.service.codec.Decode(pair.Refresh.Token)
	require.NoError(t, err)
	ok, err := f.whitelist.IsValid(ctx, payload.JTI)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRefreshExpiredToken(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	pair, err := f.service.IssuePair(ctx, f.user)
	require.NoError(t, err)

	f.clock.Advance(24*time.Hour + time.Second)

	_, _, err = f.service.Refresh(ctx, pair.Refresh.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRevokeAll(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	pair1, err := f.service.IssuePair(ctx, f.user)
	require.NoError(t, err)
	pair2, err := f.service.IssuePair(ctx, f.user)
	require.NoError(t, err)

	// Another user's session must survive the revoke-all below.
	bob := &models.User{Username: "bob", Role: models.RoleGuest}
	require.NoError(t, f.users.Create(ctx, bob))
	bobPair, err := f.service.IssuePair(ctx, bob)
	require.NoError(t, err)

	require.NoError(t, f.service.RevokeAll(ctx, f.user.ID))

	_, _, err = f.service.Refresh(ctx, pair1.Refresh.Token)
	assert.ErrorIs(t, err, ErrTokenRevoked)
	_, _, err = f.service.Refresh(ctx, pair2.Refresh.Token)
	assert.ErrorIs(t, err, ErrTokenRevoked)

	_, _, err = f.service.Refresh(ctx, bobPair.Refresh.Token)
	assert.NoError(t, err)

	// Access tokens have no kill switch, they run out on their own.
	_, err = f.service.ResolveAccess(ctx, pair1.Access.Token)
	assert.NoError(t, err)
}

func TestRevokePresented(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	pair, err := f.service.IssuePair(ctx, f.user)
	require.NoError(t, err)

	require.NoError(t, f.service.RevokePresented(ctx, pair.Refresh.Token))
	// Logging out twice with the same token is fine.
	require.NoError(t, f.service.RevokePresented(ctx, pair.Refresh.Token))

	_, _, err = f.service.Refresh(ctx, pair.Refresh.Token)
	assert.ErrorIs(t, err, ErrTokenRevoked)

	// An access token is not a logout credential.
	err = f.service.RevokePresented(ctx, pair.Access.Token)
	assert.ErrorIs(t, err, ErrWrongTokenType)
}

func TestConcurrentRefreshSingleWinner(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	pair, err := f.service.IssuePair(ctx, f.user)
	require.NoError(t, err)

	const racers = 2
	errs := make([]error, racers)

	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, errs[i] = f.service.Refresh(ctx, pair.Refresh.Token)
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		} else {
			assert.ErrorIs(t, err, ErrTokenRevoked)
		}
	}
	assert.Equal(t, 1, winners, "exactly one concurrent refresh may succeed")
}
