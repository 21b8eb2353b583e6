package authcore

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MrEthical07/authcore/notify"
	"github.com/MrEthical07/authcore/password"
	"github.com/MrEthical07/authcore/permission"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap/zaptest"
)

type fakeUserProvider struct {
	mu      sync.Mutex
	byEmail map[string]Identity
	n       atomic.Int64

	lookupErr error
}

func newFakeUserProvider() *fakeUserProvider {
	return &fakeUserProvider{byEmail: map[string]Identity{}}
}

func (p *fakeUserProvider) GetUserByEmail(_ context.Context, email string) (Identity, error) {
	p.n.Add(1)
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.lookupErr != nil {
		return Identity{}, p.lookupErr
	}
	id, ok := p.byEmail[email]
	if !ok {
		return Identity{}, ErrUserNotFound
	}
	return id, nil
}

func (p *fakeUserProvider) CreateUser(_ context.Context, in CreateIdentityInput) (Identity, error) {
	p.n.Add(1)
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.byEmail[in.Email]; ok {
		return Identity{}, ErrUserAlreadyExists
	}
	now := time.Now().UTC()
	id := Identity{
		ID:           uuid.NewString(),
		Email:        in.Email,
		Username:     in.Username,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Role:         in.Role,
		PasswordHash: in.PasswordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	p.byEmail[in.Email] = id
	return id, nil
}

func (p *fakeUserProvider) UpdateUser(_ context.Context, userID string, upd IdentityUpdate) error {
	p.n.Add(1)
	p.mu.Lock()
	defer p.mu.Unlock()
	for email, id := range p.byEmail {
		if id.ID != userID {
			continue
		}
		if upd.Verified != nil {
			id.Verified = *upd.Verified
		}
		if upd.PasswordHash != nil {
			id.PasswordHash = *upd.PasswordHash
		}
		id.UpdatedAt = time.Now().UTC()
		p.byEmail[email] = id
		return nil
	}
	return ErrUserNotFound
}

// add stores an account directly, bypassing the call counter.
func (p *fakeUserProvider) add(t testing.TB, engine *Engine, email, plain, role string, verified bool) Identity {
	t.Helper()
	hash, err := engine.Passwords().Hash(plain)
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	return p.put(Identity{
		ID:           uuid.NewString(),
		Email:        email,
		Username:     strings.SplitN(email, "@", 2)[0],
		Role:         permission.Role(role),
		Verified:     verified,
		PasswordHash: hash,
	})
}

func (p *fakeUserProvider) put(id Identity) Identity {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.byEmail[id.Email] = id
	return id
}

func (p *fakeUserProvider) get(email string) (Identity, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	id, ok := p.byEmail[email]
	return id, ok
}

func (p *fakeUserProvider) setRole(email string, role permission.Role) {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.byEmail[email]
	id.Role = role
	p.byEmail[email] = id
}

func (p *fakeUserProvider) remove(email string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.byEmail, email)
}

func (p *fakeUserProvider) calls() int64 {
	return p.n.Load()
}

type recordingSender struct {
	mu   sync.Mutex
	msgs []notify.Message
}

func (s *recordingSender) Send(_ context.Context, msg notify.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, msg)
	return nil
}

func (s *recordingSender) messages() []notify.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]notify.Message, len(s.msgs))
	copy(out, s.msgs)
	return out
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

// newTestEngine builds an engine over miniredis with synchronous mail
// delivery into a recordingSender. mutate may adjust the config.
func newTestEngine(t *testing.T, mutate func(*Config)) (*Engine, *fakeUserProvider, *miniredis.Miniredis) {
	t.Helper()

	cfg := validTestConfig()
	cfg.Notifications.Async = false
	if mutate != nil {
		mutate(&cfg)
	}

	mr, rdb := newTestRedis(t)
	users := newFakeUserProvider()

	engine, err := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithUserProvider(users).
		WithNotifier(&recordingSender{}).
		WithLogger(zaptest.NewLogger(t)).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	return engine, users, mr
}

func sentMessages(t *testing.T, engine *Engine) []notify.Message {
	t.Helper()
	s, ok := engine.notifier.(*recordingSender)
	if !ok {
		t.Fatalf("unexpected notifier %T", engine.notifier)
	}
	return s.messages()
}

// linkToken extracts the token following route in a mail body.
func linkToken(t *testing.T, body, route string) string {
	t.Helper()
	i := strings.Index(body, route)
	if i < 0 {
		t.Fatalf("route %q not found in %q", route, body)
	}
	rest := body[i+len(route):]
	end := strings.IndexByte(rest, '"')
	if end < 0 {
		t.Fatalf("unterminated link in %q", body)
	}
	return rest[:end]
}

func TestBuildRequiresCollaborators(t *testing.T) {
	_, rdb := newTestRedis(t)
	cfg := validTestConfig()

	if _, err := New().WithConfig(cfg).WithUserProvider(newFakeUserProvider()).Build(); err == nil {
		t.Fatal("expected error without redis")
	}
	if _, err := New().WithConfig(cfg).WithRedis(rdb).Build(); err == nil {
		t.Fatal("expected error without user provider")
	}
	if _, err := New().WithRedis(rdb).WithUserProvider(newFakeUserProvider()).Build(); err == nil {
		t.Fatal("expected error for default config without secrets")
	}

	b := New().WithConfig(cfg).WithRedis(rdb).WithUserProvider(newFakeUserProvider())
	engine, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer engine.Close()
	if _, err := b.Build(); err == nil {
		t.Fatal("expected builder reuse to fail")
	}
}

func TestLoginIssuesDistinctTokenPair(t *testing.T) {
	engine, users, _ := newTestEngine(t, nil)
	alice := users.add(t, engine, "alice@example.com", "correct-password", "user", false)

	res, err := engine.Login(context.Background(), "alice@example.com", "correct-password")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if res.AccessToken == res.RefreshToken {
		t.Fatal("access and refresh tokens must differ")
	}
	if res.User.ID != alice.ID || res.User.Email != alice.Email {
		t.Fatalf("unexpected user projection %+v", res.User)
	}

	access, err := engine.tokens.Decode(res.AccessToken)
	if err != nil {
		t.Fatalf("decode access: %v", err)
	}
	refresh, err := engine.tokens.Decode(res.RefreshToken)
	if err != nil {
		t.Fatalf("decode refresh: %v", err)
	}
	if access.Refresh || !refresh.Refresh {
		t.Fatalf("unexpected refresh flags: access=%v refresh=%v", access.Refresh, refresh.Refresh)
	}
	if access.User.ID != alice.ID || refresh.User.ID != alice.ID {
		t.Fatal("token user ids must match the account")
	}
	if access.User.Role != "user" {
		t.Fatalf("expected role claim in access token, got %q", access.User.Role)
	}
	if refresh.User.Role != "" {
		t.Fatalf("refresh token must not carry a role, got %q", refresh.User.Role)
	}
	if access.JTI() == refresh.JTI() {
		t.Fatal("jti must be unique per token")
	}
	if got := refresh.Expiry().Sub(access.Expiry()); got < 46*time.Hour {
		t.Fatalf("refresh token should outlive access token by ~47h, got %v", got)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	engine, users, _ := newTestEngine(t, nil)
	users.add(t, engine, "alice@example.com", "correct-password", "user", true)

	cases := []struct {
		email, password string
	}{
		{"alice@example.com", "wrong-password"},
		{"nobody@example.com", "correct-password"},
		{"", ""},
	}
	for _, tc := range cases {
		if _, err := engine.Login(context.Background(), tc.email, tc.password); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("login(%q): expected ErrInvalidCredentials, got %v", tc.email, err)
		}
	}
}

func TestLoginProviderFailureIsInternal(t *testing.T) {
	engine, users, _ := newTestEngine(t, nil)
	users.lookupErr = errors.New("connection refused")

	if _, err := engine.Login(context.Background(), "alice@example.com", "whatever"); !errors.Is(err, ErrInternal) {
		t.Fatalf("expected ErrInternal, got %v", err)
	}
}

func TestLoginRequireVerified(t *testing.T) {
	engine, users, _ := newTestEngine(t, func(c *Config) {
		c.Account.RequireVerifiedLogin = true
	})
	users.add(t, engine, "new@example.com", "correct-password", "user", false)

	if _, err := engine.Login(context.Background(), "new@example.com", "correct-password"); !errors.Is(err, ErrAccountUnverified) {
		t.Fatalf("expected ErrAccountUnverified, got %v", err)
	}
}

func TestLoginUpgradesLegacyBcryptHash(t *testing.T) {
	engine, users, _ := newTestEngine(t, func(c *Config) {
		c.Metrics.Enabled = true
	})

	legacy, err := password.New(password.Config{Scheme: password.SchemeBcrypt, BcryptCost: 10})
	if err != nil {
		t.Fatalf("bcrypt manager: %v", err)
	}
	hash, err := legacy.Hash("correct-password")
	if err != nil {
		t.Fatalf("bcrypt hash: %v", err)
	}
	users.put(Identity{ID: "u-legacy", Email: "old@example.com", Role: permission.RoleUser, PasswordHash: hash})

	if _, err := engine.Login(context.Background(), "old@example.com", "correct-password"); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	stored, _ := users.get("old@example.com")
	if !strings.HasPrefix(stored.PasswordHash, "$argon2id$") {
		t.Fatalf("expected argon2id hash after login, got %q", stored.PasswordHash)
	}
	if engine.MetricsSnapshot().Counters[MetricPasswordHashUpgraded] != 1 {
		t.Fatal("expected upgrade metric")
	}
	if _, err := engine.Login(context.Background(), "old@example.com", "correct-password"); err != nil {
		t.Fatalf("login with upgraded hash failed: %v", err)
	}
}

func TestAuthenticateEnforcesIntent(t *testing.T) {
	engine, users, _ := newTestEngine(t, nil)
	users.add(t, engine, "alice@example.com", "correct-password", "user", true)
	res, err := engine.Login(context.Background(), "alice@example.com", "correct-password")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	ctx := context.Background()

	cases := []struct {
		name   string
		token  string
		intent Intent
		want   error
	}{
		{"missing access", "", RequireAccess, ErrAccessTokenRequired},
		{"missing refresh", "", RequireRefresh, ErrRefreshTokenRequired},
		{"garbage", "not-a-token", RequireAccess, ErrInvalidToken},
		{"refresh at access guard", res.RefreshToken, RequireAccess, ErrAccessTokenRequired},
		{"access at refresh guard", res.AccessToken, RequireRefresh, ErrRefreshTokenRequired},
		{"tampered", res.AccessToken + "x", RequireAccess, ErrInvalidToken},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := engine.Authenticate(ctx, tc.token, tc.intent); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}

	p, err := engine.Authenticate(ctx, res.AccessToken, RequireAccess)
	if err != nil {
		t.Fatalf("access token rejected: %v", err)
	}
	if p.User.Email != "alice@example.com" || p.JTI == "" || p.ExpiresAt.IsZero() {
		t.Fatalf("unexpected principal %+v", p)
	}
	if _, err := engine.Authenticate(ctx, res.RefreshToken, RequireRefresh); err != nil {
		t.Fatalf("refresh token rejected: %v", err)
	}
}

func TestLogoutRevokesAccessToken(t *testing.T) {
	engine, users, mr := newTestEngine(t, nil)
	users.add(t, engine, "alice@example.com", "correct-password", "user", true)
	ctx := context.Background()

	res, err := engine.Login(ctx, "alice@example.com", "correct-password")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	p, err := engine.Authenticate(ctx, res.AccessToken, RequireAccess)
	if err != nil {
		t.Fatalf("authenticate failed: %v", err)
	}

	if err := engine.Logout(ctx, res.AccessToken); err != nil {
		t.Fatalf("logout failed: %v", err)
	}

	if _, err := engine.Authenticate(ctx, res.AccessToken, RequireAccess); !errors.Is(err, ErrRevokedToken) {
		t.Fatalf("expected ErrRevokedToken, got %v", err)
	}
	if err := engine.Logout(ctx, res.AccessToken); !errors.Is(err, ErrRevokedToken) {
		t.Fatalf("expected second logout to fail with ErrRevokedToken, got %v", err)
	}

	key := engine.config.Revocation.KeyPrefix + p.JTI
	if v, err := mr.Get(key); err != nil || v != "blocked" {
		t.Fatalf("expected blocklist entry, got %q %v", v, err)
	}
	if ttl := mr.TTL(key); ttl <= 0 || ttl > engine.config.JWT.AccessTTL {
		t.Fatalf("blocklist ttl out of range: %v", ttl)
	}

	// Refresh tokens are not revoked by logout.
	if _, err := engine.Refresh(ctx, res.RefreshToken); err != nil {
		t.Fatalf("refresh after logout should still succeed, got %v", err)
	}
}

func TestLogoutHoldsRevocationThroughLeeway(t *testing.T) {
	engine, users, mr := newTestEngine(t, func(cfg *Config) {
		cfg.JWT.AccessTTL = time.Second
		cfg.JWT.Leeway = 30 * time.Second
	})
	users.add(t, engine, "alice@example.com", "correct-password", "user", true)
	ctx := context.Background()

	res, err := engine.Login(ctx, "alice@example.com", "correct-password")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	p, err := engine.Authenticate(ctx, res.AccessToken, RequireAccess)
	if err != nil {
		t.Fatalf("authenticate failed: %v", err)
	}
	if err := engine.Logout(ctx, res.AccessToken); err != nil {
		t.Fatalf("logout failed: %v", err)
	}

	key := engine.config.Revocation.KeyPrefix + p.JTI
	if ttl := mr.TTL(key); ttl <= engine.config.JWT.AccessTTL {
		t.Fatalf("blocklist ttl %v does not cover the leeway", ttl)
	}

	// Past exp, still inside the leeway the codec accepts.
	time.Sleep(2500 * time.Millisecond)
	mr.FastForward(2500 * time.Millisecond)

	if _, err := engine.Authenticate(ctx, res.AccessToken, RequireAccess); !errors.Is(err, ErrRevokedToken) {
		t.Fatalf("expected ErrRevokedToken inside leeway, got %v", err)
	}
}

func TestRevocationVisibleToConcurrentVerifiers(t *testing.T) {
	engine, users, _ := newTestEngine(t, nil)
	users.add(t, engine, "alice@example.com", "correct-password", "user", true)
	ctx := context.Background()

	res, err := engine.Login(ctx, "alice@example.com", "correct-password")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if err := engine.Logout(ctx, res.AccessToken); err != nil {
		t.Fatalf("logout failed: %v", err)
	}

	const workers = 16
	var wg sync.WaitGroup
	var accepted atomic.Int64
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if _, err := engine.Authenticate(ctx, res.AccessToken, RequireAccess); err == nil {
				accepted.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	if accepted.Load() != 0 {
		t.Fatalf("%d verifications accepted a revoked token", accepted.Load())
	}
}

func TestAuthenticateFailsClosedWhenBlocklistDown(t *testing.T) {
	engine, users, mr := newTestEngine(t, func(c *Config) {
		c.Metrics.Enabled = true
	})
	users.add(t, engine, "alice@example.com", "correct-password", "user", true)

	res, err := engine.Login(context.Background(), "alice@example.com", "correct-password")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	mr.Close()

	if _, err := engine.Authenticate(context.Background(), res.AccessToken, RequireAccess); !errors.Is(err, ErrInternal) {
		t.Fatalf("expected ErrInternal, got %v", err)
	}
	if err := engine.Logout(context.Background(), res.AccessToken); !errors.Is(err, ErrInternal) {
		t.Fatalf("expected logout to fail closed, got %v", err)
	}
	if engine.MetricsSnapshot().Counters[MetricRevocationStoreError] == 0 {
		t.Fatal("expected revocation store error metric")
	}
}

func TestRefreshUsesCurrentAccount(t *testing.T) {
	engine, users, _ := newTestEngine(t, nil)
	users.add(t, engine, "alice@example.com", "correct-password", "user", true)
	ctx := context.Background()

	res, err := engine.Login(ctx, "alice@example.com", "correct-password")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	users.setRole("alice@example.com", permission.RoleAdmin)
	access, err := engine.Refresh(ctx, res.RefreshToken)
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	claims, err := engine.tokens.Decode(access)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if claims.Refresh || claims.User.Role != "admin" {
		t.Fatalf("expected fresh admin access token, got refresh=%v role=%q", claims.Refresh, claims.User.Role)
	}

	if _, err := engine.Refresh(ctx, res.AccessToken); !errors.Is(err, ErrRefreshTokenRequired) {
		t.Fatalf("expected ErrRefreshTokenRequired for access token, got %v", err)
	}

	users.remove("alice@example.com")
	if _, err := engine.Refresh(ctx, res.RefreshToken); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound after delete, got %v", err)
	}
}

func TestAuthorizeUsesFreshRole(t *testing.T) {
	engine, users, _ := newTestEngine(t, nil)
	users.add(t, engine, "alice@example.com", "correct-password", "user", true)
	ctx := context.Background()

	adminOnly, err := NewRoleChecker(permission.RoleAdmin)
	if err != nil {
		t.Fatalf("checker: %v", err)
	}
	res, err := engine.Login(ctx, "alice@example.com", "correct-password")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	p, err := engine.Authenticate(ctx, res.AccessToken, RequireAccess)
	if err != nil {
		t.Fatalf("authenticate failed: %v", err)
	}

	if _, err := engine.Authorize(ctx, p, adminOnly); !errors.Is(err, ErrInsufficientPermission) {
		t.Fatalf("expected ErrInsufficientPermission, got %v", err)
	}

	// The token still says "user"; the account now says admin.
	users.setRole("alice@example.com", permission.RoleAdmin)
	id, err := engine.Authorize(ctx, p, adminOnly)
	if err != nil {
		t.Fatalf("expected admin to be allowed, got %v", err)
	}
	if id.Role != permission.RoleAdmin {
		t.Fatalf("unexpected identity %+v", id)
	}

	users.remove("alice@example.com")
	if _, err := engine.Authorize(ctx, p, adminOnly); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if _, err := NewRoleChecker(); err == nil {
		t.Fatal("expected empty checker to be rejected")
	}
}

func TestSignupAndVerifyEmail(t *testing.T) {
	engine, users, _ := newTestEngine(t, nil)
	ctx := context.Background()

	id, err := engine.Signup(ctx, SignupRequest{
		Email:     "bob@example.com",
		Username:  "bob",
		FirstName: "Bob",
		LastName:  "Builder",
		Password:  "hunter22",
	})
	if err != nil {
		t.Fatalf("signup failed: %v", err)
	}
	if id.ID == "" || id.Verified || id.Role != permission.RoleUser {
		t.Fatalf("unexpected identity %+v", id)
	}
	if id.PasswordHash == "hunter22" || !engine.Passwords().Verify("hunter22", id.PasswordHash) {
		t.Fatal("password must be stored hashed")
	}

	msgs := sentMessages(t, engine)
	if len(msgs) != 1 || msgs[0].To[0] != "bob@example.com" || msgs[0].Subject != "Verify your email" {
		t.Fatalf("unexpected messages %+v", msgs)
	}
	route := "http://localhost:8000/api/v1/auth/verify/"
	token := linkToken(t, msgs[0].HTMLBody, route)

	for i := 0; i < 2; i++ {
		verified, err := engine.VerifyEmail(ctx, token)
		if err != nil {
			t.Fatalf("verify %d failed: %v", i, err)
		}
		if !verified.Verified || verified.Email != "bob@example.com" {
			t.Fatalf("unexpected identity %+v", verified)
		}
	}
	stored, _ := users.get("bob@example.com")
	if !stored.Verified {
		t.Fatal("expected stored account to be verified")
	}

	if _, err := engine.VerifyEmail(ctx, token+"x"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for tampered token, got %v", err)
	}
}

func TestSignupRejections(t *testing.T) {
	engine, users, _ := newTestEngine(t, nil)
	users.add(t, engine, "taken@example.com", "correct-password", "user", true)
	ctx := context.Background()

	if _, err := engine.Signup(ctx, SignupRequest{Email: "taken@example.com", Username: "t", Password: "hunter22"}); !errors.Is(err, ErrUserAlreadyExists) {
		t.Fatalf("expected ErrUserAlreadyExists, got %v", err)
	}
	if _, err := engine.Signup(ctx, SignupRequest{Email: "short@example.com", Username: "s", Password: "abc"}); !errors.Is(err, ErrPasswordPolicy) {
		t.Fatalf("expected ErrPasswordPolicy, got %v", err)
	}
	if _, err := engine.Signup(ctx, SignupRequest{Password: "hunter22"}); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestPurposeTokensDoNotCrossValidate(t *testing.T) {
	shared := []byte("one-secret-for-both")
	engine, users, _ := newTestEngine(t, func(c *Config) {
		c.EmailVerification.Secret = shared
		c.PasswordReset.Secret = shared
	})
	users.add(t, engine, "alice@example.com", "correct-password", "user", false)
	ctx := context.Background()

	if err := engine.RequestPasswordReset(ctx, "alice@example.com"); err != nil {
		t.Fatalf("reset request failed: %v", err)
	}
	msgs := sentMessages(t, engine)
	if len(msgs) != 1 {
		t.Fatalf("expected one reset mail, got %d", len(msgs))
	}
	resetToken := linkToken(t, msgs[0].HTMLBody, "/password-reset-confirm/")

	if _, err := engine.VerifyEmail(ctx, resetToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("reset token accepted for email verification: %v", err)
	}
}

func TestPasswordResetFlow(t *testing.T) {
	engine, users, _ := newTestEngine(t, nil)
	users.add(t, engine, "alice@example.com", "old-password", "user", true)
	ctx := context.Background()

	if err := engine.RequestPasswordReset(ctx, "ghost@example.com"); err != nil {
		t.Fatalf("unknown email must not error, got %v", err)
	}
	if n := len(sentMessages(t, engine)); n != 0 {
		t.Fatalf("expected no mail for unknown email, got %d", n)
	}

	if err := engine.RequestPasswordReset(ctx, "alice@example.com"); err != nil {
		t.Fatalf("reset request failed: %v", err)
	}
	msgs := sentMessages(t, engine)
	if len(msgs) != 1 || msgs[0].Subject != "Reset Your Password" {
		t.Fatalf("unexpected messages %+v", msgs)
	}
	token := linkToken(t, msgs[0].HTMLBody, "http://localhost:8000/api/v1/auth/password-reset-confirm/")

	err := engine.ConfirmPasswordReset(ctx, token, PasswordResetConfirmation{NewPassword: "new-password", ConfirmPassword: "other-password"})
	if !errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("expected ErrPasswordMismatch, got %v", err)
	}
	err = engine.ConfirmPasswordReset(ctx, "bogus", PasswordResetConfirmation{NewPassword: "new-password", ConfirmPassword: "new-password"})
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
	if err := engine.ConfirmPasswordReset(ctx, token, PasswordResetConfirmation{NewPassword: "new-password", ConfirmPassword: "new-password"}); err != nil {
		t.Fatalf("confirm failed: %v", err)
	}

	if _, err := engine.Login(ctx, "alice@example.com", "old-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("old password still accepted: %v", err)
	}
	if _, err := engine.Login(ctx, "alice@example.com", "new-password"); err != nil {
		t.Fatalf("new password rejected: %v", err)
	}
}

func TestRequestEmailVerificationSkipsVerifiedAccounts(t *testing.T) {
	engine, users, _ := newTestEngine(t, nil)
	users.add(t, engine, "done@example.com", "correct-password", "user", true)
	users.add(t, engine, "todo@example.com", "correct-password", "user", false)
	ctx := context.Background()

	for _, email := range []string{"done@example.com", "ghost@example.com", "todo@example.com"} {
		if err := engine.RequestEmailVerification(ctx, email); err != nil {
			t.Fatalf("request for %s failed: %v", email, err)
		}
	}
	msgs := sentMessages(t, engine)
	if len(msgs) != 1 || msgs[0].To[0] != "todo@example.com" {
		t.Fatalf("expected a single mail to the unverified account, got %+v", msgs)
	}
}

type failingSender struct{}

func (failingSender) Send(context.Context, notify.Message) error {
	return errors.New("smtp: connection refused")
}

func TestRequestEmailVerificationHidesDeliveryFailure(t *testing.T) {
	engine, users, _ := newTestEngine(t, nil)
	users.add(t, engine, "todo@example.com", "correct-password", "user", false)
	engine.notifier = failingSender{}
	ctx := context.Background()

	for _, email := range []string{"todo@example.com", "nobody@example.com"} {
		if err := engine.RequestEmailVerification(ctx, email); err != nil {
			t.Fatalf("request for %s should succeed regardless of delivery, got %v", email, err)
		}
	}
	if err := engine.RequestPasswordReset(ctx, "todo@example.com"); err != nil {
		t.Fatalf("reset request should succeed regardless of delivery, got %v", err)
	}
}

func TestAsyncNotificationsAreDelivered(t *testing.T) {
	_, rdb := newTestRedis(t)
	cfg := validTestConfig()
	sender := &recordingSender{}

	engine, err := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithUserProvider(newFakeUserProvider()).
		WithNotifier(sender).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if _, err := engine.Signup(context.Background(), SignupRequest{Email: "q@example.com", Username: "q", Password: "hunter22"}); err != nil {
		t.Fatalf("signup failed: %v", err)
	}
	engine.Close()

	if n := len(sender.messages()); n != 1 {
		t.Fatalf("expected queued mail to be delivered on Close, got %d", n)
	}
	if engine.NotificationsDropped() != 0 {
		t.Fatal("unexpected dropped notifications")
	}
}

func TestSecurityReportListsResidualRisks(t *testing.T) {
	engine, _, _ := newTestEngine(t, nil)
	report := engine.SecurityReport()

	if !report.RevocationFailsClosed {
		t.Fatal("revocation must fail closed")
	}
	if report.AccessTTL != time.Hour || report.SigningAlgorithm != "HS256" || report.Password.Scheme != "argon2id" {
		t.Fatalf("unexpected report %+v", report)
	}
	found := false
	for _, r := range report.ResidualRisks {
		if strings.Contains(r, "refresh token stays valid") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected refresh-after-logout risk, got %v", report.ResidualRisks)
	}
	if !report.InsecureLinks {
		t.Fatal("default http links should be flagged")
	}
}
