// Package purpose signs short-lived, single-purpose tokens used in emailed
// links (email verification, password reset).
//
// A token is three URL-safe base64 segments joined by dots: the JSON payload,
// the issue time in Unix seconds, and an HMAC-SHA256 signature. The signing key
// is derived from the secret and the purpose with HKDF, and the purpose is also
// part of the signed input, so tokens for one purpose never validate under
// another even when the same secret is reused.
package purpose

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/hkdf"
)

const (
	// EmailVerification is the purpose used for account verification links.
	EmailVerification = "email-verification"
	// PasswordReset is the purpose used for password reset links.
	PasswordReset = "password-reset"

	minSecretLength = 16
	derivedKeySize  = 32
	maxClockSkew    = 30 * time.Second
)

var (
	// ErrInvalid is returned for malformed or tampered tokens.
	ErrInvalid = errors.New("purpose token invalid")
	// ErrExpired is returned when a well-signed token is older than maxAge.
	ErrExpired = errors.New("purpose token expired")
)

var encoding = base64.RawURLEncoding

// Payload is the small claim map carried by a token, e.g. {"email": "..."}.
type Payload map[string]string

// Service creates and decodes tokens for a single purpose.
type Service struct {
	purpose string
	key     []byte
	method  *jwt.SigningMethodHMAC
	now     func() time.Time
}

// New derives a purpose-bound key from secret.
func New(secret []byte, purpose string) (*Service, error) {
	if len(secret) < minSecretLength {
		return nil, errors.New("purpose secret too short")
	}
	purpose = strings.TrimSpace(purpose)
	if purpose == "" {
		return nil, errors.New("purpose must not be empty")
	}

	key := make([]byte, derivedKeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, nil, []byte("authcore/purpose/"+purpose)), key); err != nil {
		return nil, err
	}

	return &Service{
		purpose: purpose,
		key:     key,
		method:  jwt.SigningMethodHS256,
		now:     time.Now,
	}, nil
}

// Create signs payload with the current time.
func (s *Service) Create(payload Payload) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	head := encoding.EncodeToString(body) + "." +
		encoding.EncodeToString([]byte(strconv.FormatInt(s.now().Unix(), 10)))

	sig, err := s.method.Sign(s.signingInput(head), s.key)
	if err != nil {
		return "", err
	}
	return head + "." + encoding.EncodeToString(sig), nil
}

// Decode verifies token and returns its payload when it is no older than maxAge.
func (s *Service) Decode(token string, maxAge time.Duration) (Payload, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, ErrInvalid
	}

	sig, err := encoding.DecodeString(parts[2])
	if err != nil {
		return nil, ErrInvalid
	}
	if err := s.method.Verify(s.signingInput(parts[0]+"."+parts[1]), sig, s.key); err != nil {
		return nil, ErrInvalid
	}

	rawTS, err := encoding.DecodeString(parts[1])
	if err != nil {
		return nil, ErrInvalid
	}
	issuedUnix, err := strconv.ParseInt(string(rawTS), 10, 64)
	if err != nil {
		return nil, ErrInvalid
	}

	now := s.now()
	issuedAt := time.Unix(issuedUnix, 0)
	if issuedAt.After(now.Add(maxClockSkew)) {
		return nil, ErrInvalid
	}
	if maxAge > 0 && now.Sub(issuedAt) > maxAge {
		return nil, ErrExpired
	}

	body, err := encoding.DecodeString(parts[0])
	if err != nil {
		return nil, ErrInvalid
	}
	var payload Payload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, ErrInvalid
	}
	return payload, nil
}

// signingInput binds the purpose into every signature.
func (s *Service) signingInput(head string) string {
	return s.purpose + "." + head
}
