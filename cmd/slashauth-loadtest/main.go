// Command slashauth-loadtest drives concurrent requestToken and authz calls
// through the real client against an in-process server and reports latency
// percentiles per phase.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http/httptest"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	slashAuth "github.com/MrEthical07/slashAuth"
	"github.com/MrEthical07/slashAuth/server"
	"github.com/MrEthical07/slashAuth/signer"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

func main() {
	var (
		clients     = flag.Int("clients", 64, "number of distinct client identities")
		concurrency = flag.Int("concurrency", 64, "number of concurrent workers")
		ops         = flag.Int("ops", 5000, "operations per phase (requestToken + authz)")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		prefix      = flag.String("prefix", "salt", "redis key prefix")
	)
	flag.Parse()

	if *clients <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "clients, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		rdb     redis.UniversalClient
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		rdb = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{mr.Addr()}})
		cleanup = func() {
			_ = rdb.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", mr.Addr())
	} else {
		rdb = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		cleanup = func() { _ = rdb.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	serverKeys, err := signer.CreateKeyPair(nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "server key: %v\n", err)
		os.Exit(1)
	}
	cfg := server.DefaultConfig()
	cfg.KeyPair = serverKeys
	cfg.KeyPrefix = *prefix

	quiet := logrus.New()
	quiet.SetLevel(logrus.ErrorLevel)
	srv, err := server.New(cfg, rdb, server.WithLogger(quiet))
	if err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
	httpSrv := httptest.NewServer(srv)
	defer httpSrv.Close()

	pool := make([]*slashAuth.Client, *clients)
	for i := range pool {
		kp, err := slashAuth.CreateKeyPair(nil)
		if err != nil {
			fmt.Fprintf(os.Stderr, "client key: %v\n", err)
			os.Exit(1)
		}
		c, err := slashAuth.New().
			WithKeyPair(kp).
			WithServerPublicKey(serverKeys.PublicKey).
			WithLatencyHistograms(true).
			Build()
		if err != nil {
			fmt.Fprintf(os.Stderr, "client: %v\n", err)
			os.Exit(1)
		}
		defer c.Close()
		pool[i] = c
	}

	fmt.Printf("issuing %d authz tokens...\n", *ops)
	urls := make([]string, *ops)
	for i := range urls {
		token, err := srv.IssueToken(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "issue failed: %v\n", err)
			os.Exit(1)
		}
		urls[i], _ = server.AuthzURL(httpSrv.URL, token, "")
	}

	tokenStats := runPhase(*ops, *concurrency, func(i int) error {
		_, err := pool[i%len(pool)].RequestToken(ctx, httpSrv.URL)
		return err
	})
	authzStats := runPhase(*ops, *concurrency, func(i int) error {
		_, err := pool[i%len(pool)].Authz(ctx, urls[i])
		return err
	})

	fmt.Println("---- results ----")
	printStats("requestToken", tokenStats)
	printStats("authz", authzStats)
}

// runPhase runs op for indexes [0, ops) across concurrency workers.
func runPhase(ops, concurrency int, op func(i int) error) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				t0 := time.Now()
				err := op(i)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	return computeStats(time.Since(start), latencies, failures)
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
	if len(samples) == 0 {
		return 0
	}
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
