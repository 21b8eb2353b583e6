package authcore

import (
	"time"

	"github.com/MrEthical07/authcore/jwt"
)

// TokenIssuer mints access and refresh tokens. It performs no storage writes.
type TokenIssuer struct {
	codec      *jwt.Manager
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenIssuer returns an issuer using codec with the given default lifetimes.
func NewTokenIssuer(codec *jwt.Manager, accessTTL, refreshTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{
		codec:      codec,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// IssueAccess mints an access token valid for the configured access TTL.
func (i *TokenIssuer) IssueAccess(user TokenUser) (string, error) {
	token, _, err := i.codec.Encode(user.jwtUser(), i.accessTTL, false)
	return token, err
}

// IssueRefresh mints a refresh token. ttl <= 0 selects the configured
// refresh TTL.
func (i *TokenIssuer) IssueRefresh(user TokenUser, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = i.refreshTTL
	}
	token, _, err := i.codec.Encode(user.jwtUser(), ttl, true)
	return token, err
}

func (i *TokenIssuer) AccessTTL() time.Duration {
	return i.accessTTL
}

func (i *TokenIssuer) RefreshTTL() time.Duration {
	return i.refreshTTL
}
