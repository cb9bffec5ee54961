package token

import "errors"

var (
	// ErrInvalidToken means the token is malformed, carries a bad signature,
	// or is past its expiry. Purely a cryptographic/structural verdict.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenRevoked means signature and expiry are fine but the refresh
	// token has no whitelist entry anymore.
	ErrTokenRevoked = errors.New("token revoked")
	// ErrWrongTokenType means an access token was presented where a refresh
	// token is required, or the other way around.
	ErrWrongTokenType = errors.New("wrong token type")
	// ErrUserNotFound means the subject of an otherwise valid token no
	// longer exists.
	ErrUserNotFound = errors.New("user not found")
)
