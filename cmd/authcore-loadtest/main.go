// Command authcore-loadtest measures bearer verification and logout
// throughput against Redis.
//
// It seeds access tokens, then runs a verify phase (every request consults
// the blocklist) and a revoke phase (logout followed by a check that the
// token is now rejected).
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/authcore"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	var (
		tokens      = flag.Int("tokens", 20000, "number of access tokens to seed")
		concurrency = flag.Int("concurrency", 256, "number of concurrent workers")
		ops         = flag.Int("ops", 200000, "operations in the verify phase")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
	)
	flag.Parse()

	if *tokens <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "tokens, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	client, cleanup, err := connect(*redisAddr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer cleanup()

	engine, err := buildEngine(client)
	if err != nil {
		fmt.Fprintf(os.Stderr, "build engine: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	fmt.Printf("seeding %d tokens...\n", *tokens)
	startSeed := time.Now()
	seeded := make([]string, *tokens)
	for i := range seeded {
		id := strconv.Itoa(i)
		tok, err := engine.Issuer().IssueAccess(authcore.TokenUser{ID: "u" + id, Email: "user" + id + "@example.com", Role: "user"})
		if err != nil {
			fmt.Fprintf(os.Stderr, "issue failed: %v\n", err)
			os.Exit(1)
		}
		seeded[i] = tok
	}
	fmt.Printf("seeded in %s\n", time.Since(startSeed).Round(time.Millisecond))

	ctx := context.Background()
	verifyStats := runVerifyPhase(ctx, engine, seeded, *ops, *concurrency)
	revokeStats := runRevokePhase(ctx, engine, seeded, *concurrency)

	fmt.Println("---- results ----")
	printStats("verify", verifyStats)
	printStats("revoke", revokeStats)
}

func connect(addr string) (redis.UniversalClient, func(), error) {
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			return nil, nil, fmt.Errorf("start miniredis: %w", err)
		}
		client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{mr.Addr()}})
		fmt.Printf("using miniredis at %s\n", mr.Addr())
		return client, func() { _ = client.Close(); mr.Close() }, nil
	}

	client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
	fmt.Printf("using redis at %s\n", addr)
	return client, func() { _ = client.Close() }, nil
}

// buildEngine wires an engine that never reaches its user provider: the
// phases below only verify and revoke.
func buildEngine(client redis.UniversalClient) (*authcore.Engine, error) {
	cfg := authcore.DefaultConfig()
	cfg.JWT.Secret = []byte("loadtest-secret-loadtest-secret-00")
	cfg.EmailVerification.Secret = []byte("loadtest-email-secret")
	cfg.PasswordReset.Secret = []byte("loadtest-reset-secret")
	cfg.Notifications.Enabled = false
	cfg.Metrics.Enabled = true
	cfg.Revocation.KeyPrefix = "authcore:loadtest:revoked:"

	return authcore.New().
		WithConfig(cfg).
		WithRedis(client).
		WithUserProvider(noAccounts{}).
		WithLogger(zap.NewNop()).
		Build()
}

type noAccounts struct{}

func (noAccounts) GetUserByEmail(context.Context, string) (authcore.Identity, error) {
	return authcore.Identity{}, authcore.ErrUserNotFound
}

func (noAccounts) CreateUser(context.Context, authcore.CreateIdentityInput) (authcore.Identity, error) {
	return authcore.Identity{}, errors.New("read-only provider")
}

func (noAccounts) UpdateUser(context.Context, string, authcore.IdentityUpdate) error {
	return errors.New("read-only provider")
}

type recorder struct {
	mu        sync.Mutex
	latencies []time.Duration
	failures  int64
}

func (r *recorder) add(d time.Duration, ok bool) {
	if !ok {
		atomic.AddInt64(&r.failures, 1)
	}
	r.mu.Lock()
	r.latencies = append(r.latencies, d)
	r.mu.Unlock()
}

func runVerifyPhase(ctx context.Context, engine *authcore.Engine, seeded []string, ops, concurrency int) phaseStats {
	var (
		wg     sync.WaitGroup
		cursor int64
		rec    = &recorder{latencies: make([]time.Duration, 0, ops)}
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for {
				if int(atomic.AddInt64(&cursor, 1)) > ops {
					return
				}
				tok := seeded[r.Intn(len(seeded))]
				t0 := time.Now()
				_, err := engine.Authenticate(ctx, tok, authcore.RequireAccess)
				rec.add(time.Since(t0), err == nil)
			}
		}(w)
	}
	wg.Wait()
	return computeStats(time.Since(start), rec.latencies, rec.failures)
}

// runRevokePhase logs out every seeded token once and counts a failure when
// the token still verifies afterwards.
func runRevokePhase(ctx context.Context, engine *authcore.Engine, seeded []string, concurrency int) phaseStats {
	var (
		wg     sync.WaitGroup
		cursor int64
		rec    = &recorder{latencies: make([]time.Duration, 0, len(seeded))}
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= len(seeded) {
					return
				}
				t0 := time.Now()
				err := engine.Logout(ctx, seeded[i])
				d := time.Since(t0)
				ok := err == nil
				if ok {
					_, verr := engine.Authenticate(ctx, seeded[i], authcore.RequireAccess)
					ok = errors.Is(verr, authcore.ErrRevokedToken)
				}
				rec.add(d, ok)
			}
		}()
	}
	wg.Wait()
	return computeStats(time.Since(start), rec.latencies, rec.failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	return samples[(len(samples)-1)*p/100]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
