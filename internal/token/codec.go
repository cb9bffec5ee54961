// Package token implements the token lifecycle: encoding and decoding of
// signed access/refresh tokens, and the service orchestrating issuance,
// validation, rotation and revocation against the whitelist store.
package token

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/hashicorp/go-set/v3"
	"github.com/jonboulle/clockwork"
	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"
)

// Type tells access and refresh tokens apart via the "type" claim.
type Type string

const (
	TypeAccess  Type = "access"
	TypeRefresh Type = "refresh"
)

const typeClaim = "type"

var signingAlgorithms = map[string]jwa.SignatureAlgorithm{
	"HS256": jwa.HS256(),
	"HS384": jwa.HS384(),
	"HS512": jwa.HS512(),
}

// SupportedAlgorithms returns the names of the signing algorithms a Codec
// can be configured with.
func SupportedAlgorithms() *set.Set[string] {
	s := set.New[string](len(signingAlgorithms))
	for name := range signingAlgorithms {
		s.Insert(name)
	}
	return s
}

// Payload is the claim set carried by a signed token.
type Payload struct {
	Subject   string
	Type      Type
	JTI       string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// SubjectID parses the subject claim as a user id.
func (p *Payload) SubjectID() (uint, error) {
	id, err := strconv.ParseUint(p.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad subject %q", ErrInvalidToken, p.Subject)
	}
	return uint(id), nil
}

// Codec signs and verifies compact token strings with a shared symmetric
// secret. It never consults revocation state; that is the Service's job.
type Codec struct {
	alg   jwa.SignatureAlgorithm
	key   jwk.Key
	clock clockwork.Clock
}

func NewCodec(secret, algorithm string, clock clockwork.Clock) (*Codec, error) {
	if secret == "" {
		return nil, errors.New("signing secret is required")
	}

	alg, ok := signingAlgorithms[algorithm]
	if !ok {
		return nil, fmt.Errorf("unsupported signing algorithm %q", algorithm)
	}

	key, err := jwk.Import([]byte(secret))
	if err != nil {
		return nil, fmt.Errorf("failed to import signing secret: %w", err)
	}

	return &Codec{
		alg:   alg,
		key:   key,
		clock: clock,
	}, nil
}

func (c *Codec) Encode(p *Payload) (string, error) {
	tok, err := jwt.NewBuilder().
		Subject(p.Subject).
		JwtID(p.JTI).
		IssuedAt(p.IssuedAt).
		Expiration(p.ExpiresAt).
		Claim(typeClaim, string(p.Type)).
		Build()
	if err != nil {
		return "", fmt.Errorf("failed to build token claims: %v", err)
	}

	signed, err := jwt.Sign(tok, jwt.WithKey(c.alg, c.key))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %v", err)
	}

	return string(signed), nil
}

// Decode verifies the signature and expiry of a compact token string.
// Expiry is checked against the injected clock; a token with exp == now is
// already expired. All failures come back wrapping ErrInvalidToken.
func (c *Codec) Decode(raw string) (*Payload, error) {
	// Claim validation is done by hand below so that expiry uses our clock.
	tok, err := jwt.Parse([]byte(raw), jwt.WithKey(c.alg, c.key), jwt.WithValidate(false))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	sub, ok := tok.Subject()
	if !ok || sub == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	jti, ok := tok.JwtID()
	if !ok || jti == "" {
		return nil, fmt.Errorf("%w: missing jti", ErrInvalidToken)
	}

	iat, ok := tok.IssuedAt()
	if !ok {
		return nil, fmt.Errorf("%w: missing iat", ErrInvalidToken)
	}

	exp, ok := tok.Expiration()
	if !ok {
		return nil, fmt.Errorf("%w: missing expiration", ErrInvalidToken)
	}

	var typ string
	if err := tok.Get(typeClaim, &typ); err != nil {
		return nil, fmt.Errorf("%w: missing type claim", ErrInvalidToken)
	}
	if typ != string(TypeAccess) && typ != string(TypeRefresh) {
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidToken, typ)
	}

	if !exp.After(c.clock.Now()) {
		return nil, fmt.Errorf("%w: expired", ErrInvalidToken)
	}

	return &Payload{
		Subject:   sub,
		Type:      Type(typ),
		JTI:       jti,
		IssuedAt:  iat,
		ExpiresAt: exp,
	}, nil
}
