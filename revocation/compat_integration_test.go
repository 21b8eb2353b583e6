//go:build integration

package revocation

import (
	"context"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// backend is one Redis deployment the blocklist is exercised against.
type backend struct {
	name  string
	setup func(t *testing.T) redis.UniversalClient
}

// backends always includes miniredis. REDIS_ADDR, REDIS_CLUSTER_ADDRS and
// REDIS_SENTINEL_ADDRS (with REDIS_SENTINEL_MASTER) add real deployments.
func backends(t *testing.T) []backend {
	t.Helper()
	out := []backend{{
		name: "miniredis",
		setup: func(t *testing.T) redis.UniversalClient {
			mr := miniredis.RunT(t)
			rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
			t.Cleanup(func() { _ = rdb.Close() })
			return rdb
		},
	}}

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		out = append(out, backend{
			name: "standalone",
			setup: func(t *testing.T) redis.UniversalClient {
				return reachable(t, redis.NewClient(&redis.Options{Addr: addr}))
			},
		})
	}
	if addrs := os.Getenv("REDIS_CLUSTER_ADDRS"); addrs != "" {
		out = append(out, backend{
			name: "cluster",
			setup: func(t *testing.T) redis.UniversalClient {
				return reachable(t, redis.NewClusterClient(&redis.ClusterOptions{Addrs: splitAddrs(addrs)}))
			},
		})
	}
	if addrs := os.Getenv("REDIS_SENTINEL_ADDRS"); addrs != "" {
		master := os.Getenv("REDIS_SENTINEL_MASTER")
		if master == "" {
			master = "mymaster"
		}
		out = append(out, backend{
			name: "sentinel",
			setup: func(t *testing.T) redis.UniversalClient {
				return reachable(t, redis.NewFailoverClient(&redis.FailoverOptions{
					MasterName:    master,
					SentinelAddrs: splitAddrs(addrs),
				}))
			},
		})
	}
	return out
}

func reachable(t *testing.T, rdb redis.UniversalClient) redis.UniversalClient {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		t.Skipf("redis not reachable: %v", err)
	}
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func splitAddrs(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// uniquePrefix keeps runs against shared servers apart.
func uniquePrefix(t *testing.T) string {
	return "authcore:it:" + strings.ReplaceAll(t.Name(), "/", ":") + ":" + time.Now().Format("150405.000000") + ":"
}

func TestCompatRevokeAndCheck(t *testing.T) {
	for _, b := range backends(t) {
		t.Run(b.name, func(t *testing.T) {
			client, prefix := b.setup(t), uniquePrefix(t)
			store := NewStore(client, prefix)
			ctx := context.Background()

			if revoked, err := store.IsRevoked(ctx, "jti-1"); err != nil || revoked {
				t.Fatalf("fresh jti should not be revoked: %v %v", revoked, err)
			}
			if err := store.Revoke(ctx, "jti-1", 30*time.Second); err != nil {
				t.Fatalf("revoke: %v", err)
			}
			if revoked, err := store.IsRevoked(ctx, "jti-1"); err != nil || !revoked {
				t.Fatalf("jti should be revoked: %v %v", revoked, err)
			}
			ttl, err := client.TTL(ctx, prefix+"jti-1").Result()
			if err != nil || ttl <= 0 || ttl > 30*time.Second {
				t.Fatalf("unexpected ttl %v (%v)", ttl, err)
			}
		})
	}
}

func TestCompatRevokeIsIdempotent(t *testing.T) {
	for _, b := range backends(t) {
		t.Run(b.name, func(t *testing.T) {
			store := NewStore(b.setup(t), uniquePrefix(t))
			ctx := context.Background()

			for i := 0; i < 2; i++ {
				if err := store.Revoke(ctx, "jti-2", time.Minute); err != nil {
					t.Fatalf("revoke %d: %v", i, err)
				}
			}
			if revoked, _ := store.IsRevoked(ctx, "jti-2"); !revoked {
				t.Fatal("expected jti to stay revoked")
			}
		})
	}
}

func TestCompatConcurrentVisibility(t *testing.T) {
	for _, b := range backends(t) {
		t.Run(b.name, func(t *testing.T) {
			rdb := b.setup(t)
			prefix := uniquePrefix(t)
			writer := NewStore(rdb, prefix)
			ctx := context.Background()

			if err := writer.Revoke(ctx, "jti-3", time.Minute); err != nil {
				t.Fatalf("revoke: %v", err)
			}

			var wg sync.WaitGroup
			errs := make(chan string, 16)
			for i := 0; i < 16; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					reader := NewStore(rdb, prefix)
					if revoked, err := reader.IsRevoked(ctx, "jti-3"); err != nil || !revoked {
						errs <- "reader saw an unrevoked token"
					}
				}()
			}
			wg.Wait()
			close(errs)
			for msg := range errs {
				t.Fatal(msg)
			}
		})
	}
}
