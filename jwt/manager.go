package jwt

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Algorithm names a supported HMAC signing algorithm.
type Algorithm string

const (
	// HS256 is the default algorithm.
	HS256 Algorithm = "HS256"
	HS384 Algorithm = "HS384"
	HS512 Algorithm = "HS512"
)

const minSecretLength = 32

var (
	// ErrMissingClaims is returned when a well-signed token lacks user.id,
	// user.email, refresh, jti or exp.
	ErrMissingClaims = errors.New("token is missing required claims")
	// ErrFutureIssuedAt is returned when iat is further ahead than MaxFutureIAT.
	ErrFutureIssuedAt = errors.New("token iat too far in the future")
)

// Kind distinguishes access from refresh tokens.
type Kind uint8

const (
	KindAccess Kind = iota
	KindRefresh
)

func (k Kind) String() string {
	if k == KindRefresh {
		return "refresh"
	}
	return "access"
}

// User is the identity projection embedded in every token. Role is advisory.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
}

// Claims is the typed payload of an encoded token.
type Claims struct {
	User    User `json:"user"`
	Refresh bool `json:"refresh"`
	jwt.RegisteredClaims
}

// decodedClaims mirrors Claims with refresh as a pointer, so an absent key
// is distinguishable from false.
type decodedClaims struct {
	User    User  `json:"user"`
	Refresh *bool `json:"refresh"`
	jwt.RegisteredClaims
}

// Kind reports whether the claims belong to an access or refresh token.
func (c *Claims) Kind() Kind {
	if c.Refresh {
		return KindRefresh
	}
	return KindAccess
}

// JTI returns the token identifier.
func (c *Claims) JTI() string {
	return c.ID
}

// Expiry returns the exp claim, or the zero time when absent.
func (c *Claims) Expiry() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// Config configures a Manager.
type Config struct {
	Secret       []byte
	Algorithm    Algorithm
	Issuer       string
	Leeway       time.Duration
	MaxFutureIAT time.Duration
}

// Manager encodes and decodes signed tokens. It holds no mutable state and is
// safe for concurrent use.
type Manager struct {
	config Config
	method jwt.SigningMethod
	now    func() time.Time
}

// NewManager validates cfg and returns a Manager.
func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.Secret) < minSecretLength {
		return nil, fmt.Errorf("jwt secret must be at least %d bytes", minSecretLength)
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	if cfg.MaxFutureIAT == 0 {
		cfg.MaxFutureIAT = 10 * time.Minute
	}
	if cfg.MaxFutureIAT < 0 || cfg.MaxFutureIAT > 24*time.Hour {
		return nil, errors.New("invalid MaxFutureIAT configuration")
	}

	method, err := signingMethod(cfg.Algorithm)
	if err != nil {
		return nil, err
	}
	cfg.Issuer = strings.TrimSpace(cfg.Issuer)
	cfg.Secret = append([]byte(nil), cfg.Secret...)

	return &Manager{config: cfg, method: method, now: time.Now}, nil
}

// Encode signs a new token for user that expires after ttl. Every call mints a
// fresh jti.
func (m *Manager) Encode(user User, ttl time.Duration, refresh bool) (string, *Claims, error) {
	if ttl <= 0 {
		return "", nil, errors.New("token ttl must be positive")
	}
	if user.ID == "" || user.Email == "" {
		return "", nil, ErrMissingClaims
	}

	now := m.now()
	claims := &Claims{
		User:    user,
		Refresh: refresh,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    m.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(m.method, claims).SignedString(m.config.Secret)
	if err != nil {
		return "", nil, err
	}
	return signed, claims, nil
}

// Decode verifies tokenStr and returns its claims.
func (m *Manager) Decode(tokenStr string) (*Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{m.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	}
	if m.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(m.config.Leeway))
	}
	if m.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(m.config.Issuer))
	}

	token, err := jwt.NewParser(options...).ParseWithClaims(tokenStr, &decodedClaims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != m.method.Alg() {
			return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
		}
		return m.config.Secret, nil
	})
	if err != nil {
		return nil, err
	}

	decoded, ok := token.Claims.(*decodedClaims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if decoded.User.ID == "" || decoded.User.Email == "" || decoded.ID == "" || decoded.Refresh == nil {
		return nil, ErrMissingClaims
	}
	if decoded.IssuedAt != nil && decoded.IssuedAt.Time.After(m.now().Add(m.config.MaxFutureIAT)) {
		return nil, ErrFutureIssuedAt
	}

	return &Claims{
		User:             decoded.User,
		Refresh:          *decoded.Refresh,
		RegisteredClaims: decoded.RegisteredClaims,
	}, nil
}

func signingMethod(alg Algorithm) (jwt.SigningMethod, error) {
	switch Algorithm(strings.ToUpper(string(alg))) {
	case "", HS256:
		return jwt.SigningMethodHS256, nil
	case HS384:
		return jwt.SigningMethodHS384, nil
	case HS512:
		return jwt.SigningMethodHS512, nil
	default:
		return nil, fmt.Errorf("unsupported signing algorithm %q", alg)
	}
}
