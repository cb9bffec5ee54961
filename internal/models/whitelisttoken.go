package models

import "time"

// WhitelistToken is the server-side record of a still-valid refresh token.
// Presence is what makes a refresh token usable: a refresh token whose jti
// has no row here is treated as revoked even if its signature is fine.
type WhitelistToken struct {
	JTI       string `gorm:"primarykey;column:jti"`
	UserID    uint   `gorm:"index"` // with index, easy to revoke all tokens of a user
	CreatedAt time.Time
	ExpiresAt time.Time `gorm:"index"`
}
