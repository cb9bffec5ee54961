package storage

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"authd/internal/gormw"
	"authd/internal/models"
)

var (
	logger = log.With().Str("component", "storage").Logger()
)

// WhitelistStore persists the jtis of still-valid refresh tokens. Entries
// whose expiry has elapsed count as absent immediately; the sweeper only
// reclaims their rows.
type WhitelistStore struct {
	db    *gormw.DB
	clock clockwork.Clock
}

func NewWhitelistStore(db *gormw.DB, clock clockwork.Clock) *WhitelistStore {
	return &WhitelistStore{db: db, clock: clock}
}

func (s *WhitelistStore) Record(ctx context.Context, jti string, userID uint, expiresAt time.Time) error {
	return s.db.WithContext(ctx).Create(&models.WhitelistToken{
		JTI:       jti,
		UserID:    userID,
		ExpiresAt: expiresAt,
	}).Error
}

func (s *WhitelistStore) IsValid(ctx context.Context, jti string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.WhitelistToken{}).
		Where("jti = ? AND expires_at > ?", jti, s.clock.Now()).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Consume deletes the non-expired entry for jti and reports whether this
// call removed it. A single conditional DELETE, so two racing consumers
// cannot both see true.
func (s *WhitelistStore) Consume(ctx context.Context, jti string) (bool, error) {
	result := s.db.WithContext(ctx).
		Where("jti = ? AND expires_at > ?", jti, s.clock.Now()).
		Delete(&models.WhitelistToken{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (s *WhitelistStore) Revoke(ctx context.Context, jti string) error {
	return s.db.WithContext(ctx).
		Where("jti = ?", jti).
		Delete(&models.WhitelistToken{}).Error
}

func (s *WhitelistStore) RevokeAll(ctx context.Context, userID uint) error {
	return s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.WhitelistToken{}).Error
}

// PurgeExpired deletes entries whose expiry has elapsed and returns how
// many rows went away.
func (s *WhitelistStore) PurgeExpired(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("expires_at <= ?", s.clock.Now()).
		Delete(&models.WhitelistToken{})
	return result.RowsAffected, result.Error
}

// Expired whitelist rows would pile up forever without a sweeper.
func RegisterWhitelistSweeper(scheduler gocron.Scheduler, store *WhitelistStore) {
	_, _ = scheduler.NewJob(
		gocron.DurationJob(time.Minute),
		gocron.NewTask(
			func() {
				n, err := store.PurgeExpired(context.Background())
				if err != nil {
					logger.Error().Err(err).Msg("Failed to purge expired whitelist tokens")
					return
				}
				if n > 0 {
					logger.Info().Int64("purged", n).Msg("Cleaned up expired whitelist tokens")
				}
			},
		),
	)
}
