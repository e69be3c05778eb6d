package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/authclient"
	"github.com/MrEthical07/authclient/backendtest"
	"github.com/MrEthical07/authclient/credstore"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func main() {
	var (
		calls       = flag.Int("calls", 2000, "calls per expiry cycle")
		cycles      = flag.Int("cycles", 10, "number of expiry cycles")
		concurrency = flag.Int("concurrency", 128, "number of concurrent workers")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		prefix      = flag.String("prefix", "lt", "credential key prefix")
	)
	flag.Parse()

	if *calls <= 0 || *cycles <= 0 || *concurrency <= 0 {
		fmt.Fprintln(os.Stderr, "calls, cycles, and concurrency must be > 0")
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
		addr = mr.Addr()
		rdb = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() {
			_ = rdb.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		rdb = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() { _ = rdb.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	store := credstore.NewRedis(rdb, *prefix, 0)
	rtt, err := store.Ping(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "credential store unreachable: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("redis round-trip %s\n", rtt)

	backend, err := backendtest.NewServer(backendtest.Options{
		Users: []backendtest.User{{Username: "load", Password: "load-password", Name: "Load"}},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start backend: %v\n", err)
		os.Exit(1)
	}
	defer backend.Close()

	cfg := authclient.DefaultConfig()
	cfg.Backend.BaseURL = backend.URL()
	cfg.Metrics.Enabled = true
	cfg.Metrics.EnableLatencyHistograms = true

	var expired atomic.Int64
	client, err := authclient.New().
		WithConfig(cfg).
		WithStore(store).
		WithLogOutput(io.Discard).
		WithNavigator(authclient.NavigatorFunc(func(context.Context, error) {
			expired.Add(1)
		})).
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build client: %v\n", err)
		os.Exit(1)
	}
	defer client.Close()

	if _, err := client.Login(ctx, "load", "load-password"); err != nil {
		fmt.Fprintf(os.Stderr, "login failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("running %d cycles of %d calls...\n", *cycles, *calls)
	all := make([]time.Duration, 0, *calls**cycles)
	var failures int64
	start := time.Now()

	for c := 0; c < *cycles; c++ {
		before := backend.RefreshCalls()
		backend.ExpireAccessTokens()

		res := runCycle(ctx, client, *calls, *concurrency)
		refreshes := backend.RefreshCalls() - before
		failures += res.failures
		all = append(all, res.latencies...)

		fmt.Printf("cycle %d: refreshes=%d failures=%d p99=%s\n",
			c+1, refreshes, res.failures, percentile(sorted(res.latencies), 99).Round(time.Microsecond))
	}

	stats := computeStats(time.Since(start), all, failures)
	snap := client.MetricsSnapshot()

	fmt.Println("---- results ----")
	printStats("calls", stats)
	fmt.Printf("refresh cycles=%d joined=%d replays=%d session_expired=%d\n",
		snap.Counters[authclient.MetricRefreshStarted],
		snap.Counters[authclient.MetricRefreshJoined],
		snap.Counters[authclient.MetricReplay],
		expired.Load(),
	)
}

type cycleResult struct {
	latencies []time.Duration
	failures  int64
}

func runCycle(ctx context.Context, client *authclient.Client, calls, concurrency int) cycleResult {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, calls)
		mu        sync.Mutex
	)

	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= calls {
					return
				}
				t0 := time.Now()
				err := client.Get(ctx, fmt.Sprintf("/api/items/%d", i), nil)
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
	return cycleResult{latencies: latencies, failures: failures}
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

func sorted(samples []time.Duration) []time.Duration {
	out := append([]time.Duration(nil), samples...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total, failures: failures}
	}
	samples = sorted(samples)
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
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
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
