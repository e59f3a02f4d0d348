// Command loadtest fires concurrent solve requests at a running jumbled
// instance and reports throughput, latency percentiles and cache hit rate.
//
// Usage:
//
//	go run ./cmd/loadtest -url http://localhost:8080 -words data/word_list.txt
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"os"
	"slices"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/Adithya-Monish-Kumar-K/jumble-solver/internal/indexer/wordlist"
)

var fallbackQueries = []string{
	"dog", "listen", "jumble", "solver", "anagram", "stressed",
	"triangle", "parsley", "question", "education", "algorithms",
}

type Config struct {
	BaseURL     string
	Concurrency int
	Duration    time.Duration
	Queries     []string
}

type Stats struct {
	total     atomic.Int64
	success   atomic.Int64
	errors    atomic.Int64
	cacheHits atomic.Int64

	mu        sync.Mutex
	latencies []time.Duration
	codes     map[int]int64
}

func NewStats() *Stats {
	return &Stats{
		latencies: make([]time.Duration, 0, 100000),
		codes:     make(map[int]int64),
	}
}

func (s *Stats) Record(d time.Duration, status int, cacheHit bool, err error) {
	s.total.Add(1)
	if err != nil {
		s.errors.Add(1)
		return
	}
	if status >= 200 && status < 300 {
		s.success.Add(1)
	} else {
		s.errors.Add(1)
	}
	if cacheHit {
		s.cacheHits.Add(1)
	}
	s.mu.Lock()
	s.latencies = append(s.latencies, d)
	s.codes[status]++
	s.mu.Unlock()
}

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "base URL of the solver service")
	concurrency := flag.Int("concurrency", 10, "number of concurrent workers")
	duration := flag.Duration("duration", 30*time.Second, "test duration")
	words := flag.String("words", "", "word list to draw queries from (defaults to a built-in set)")
	maxLen := flag.Int("max-length", 10, "longest query to send")
	sample := flag.Int("sample", 500, "number of distinct queries to use")
	flag.Parse()

	queries := fallbackQueries
	if *words != "" {
		var err error
		queries, err = loadQueries(context.Background(), wordlist.File{Path: *words}, *maxLen, *sample)
		if err != nil {
			fmt.Fprintf(os.Stderr, "loading queries: %v\n", err)
			os.Exit(1)
		}
	}

	cfg := Config{
		BaseURL:     *baseURL,
		Concurrency: *concurrency,
		Duration:    *duration,
		Queries:     queries,
	}
	fmt.Println("=== Jumble Solver Load Test ===")
	fmt.Printf("Target:      %s\n", cfg.BaseURL)
	fmt.Printf("Concurrency: %d\n", cfg.Concurrency)
	fmt.Printf("Duration:    %s\n", cfg.Duration)
	fmt.Printf("Queries:     %d unique\n\n", len(cfg.Queries))

	stats := runLoadTest(cfg)
	if !printReport(os.Stdout, stats, cfg.Duration) {
		os.Exit(1)
	}
}

// loadQueries takes up to sample words of at most maxLen letters from src.
func loadQueries(ctx context.Context, src wordlist.Source, maxLen, sample int) ([]string, error) {
	var out []string
	errEnough := errors.New("enough queries")
	err := src.Each(ctx, func(word string) error {
		if utf8.RuneCountInString(word) > maxLen {
			return nil
		}
		out = append(out, word)
		if len(out) >= sample {
			return errEnough
		}
		return nil
	})
	if err != nil && !errors.Is(err, errEnough) {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no words of at most %d letters in %s", maxLen, src.Name())
	}
	return out, nil
}

func runLoadTest(cfg Config) *Stats {
	stats := NewStats()
	client := &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        cfg.Concurrency * 2,
			MaxIdleConnsPerHost: cfg.Concurrency * 2,
			IdleConnTimeout:     90 * time.Second,
		},
	}
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Duration)
	defer cancel()

	var wg sync.WaitGroup
	for w := range cfg.Concurrency {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := w; ctx.Err() == nil; i++ {
				query := cfg.Queries[i%len(cfg.Queries)]
				solveOnce(ctx, client, cfg.BaseURL, query, stats)
			}
		}()
	}
	wg.Wait()
	return stats
}

func solveOnce(ctx context.Context, client *http.Client, baseURL, query string, stats *Stats) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		baseURL+"/api/v1/solve?word="+url.QueryEscape(query), nil)
	if err != nil {
		stats.Record(0, 0, false, err)
		return
	}
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() == nil {
			stats.Record(time.Since(start), 0, false, err)
		}
		return
	}
	defer resp.Body.Close()
	var body struct {
		CacheHit bool `json:"cache_hit"`
	}
	if resp.StatusCode == http.StatusOK {
		_ = json.NewDecoder(resp.Body).Decode(&body)
	}
	io.Copy(io.Discard, resp.Body)
	stats.Record(time.Since(start), resp.StatusCode, body.CacheHit, nil)
}

// printReport writes the summary to w and reports whether any request
// completed.
func printReport(w io.Writer, stats *Stats, duration time.Duration) bool {
	total := stats.total.Load()
	fmt.Fprintln(w, "=== Results ===")
	fmt.Fprintf(w, "Total Requests:  %d\n", total)
	fmt.Fprintf(w, "Successful:      %d\n", stats.success.Load())
	fmt.Fprintf(w, "Errors:          %d\n", stats.errors.Load())
	if total == 0 {
		fmt.Fprintln(w, "\nWARNING: No requests completed. Is the service running?")
		return false
	}
	fmt.Fprintf(w, "Error Rate:      %.2f%%\n", float64(stats.errors.Load())/float64(total)*100)
	fmt.Fprintf(w, "Cache Hit Rate:  %.2f%%\n", float64(stats.cacheHits.Load())/float64(total)*100)
	fmt.Fprintf(w, "Requests/sec:    %.2f\n", float64(total)/duration.Seconds())

	stats.mu.Lock()
	latencies := slices.Clone(stats.latencies)
	codes := make([]int, 0, len(stats.codes))
	for code := range stats.codes {
		codes = append(codes, code)
	}
	slices.Sort(codes)
	counts := make([]int64, len(codes))
	for i, code := range codes {
		counts[i] = stats.codes[code]
	}
	stats.mu.Unlock()

	if len(latencies) > 0 {
		slices.Sort(latencies)
		var sum time.Duration
		for _, l := range latencies {
			sum += l
		}
		fmt.Fprintln(w, "\n=== Latency ===")
		fmt.Fprintf(w, "Min:    %s\n", latencies[0])
		fmt.Fprintf(w, "Avg:    %s\n", sum/time.Duration(len(latencies)))
		fmt.Fprintf(w, "P50:    %s\n", percentile(latencies, 50))
		fmt.Fprintf(w, "P90:    %s\n", percentile(latencies, 90))
		fmt.Fprintf(w, "P99:    %s\n", percentile(latencies, 99))
		fmt.Fprintf(w, "Max:    %s\n", latencies[len(latencies)-1])
	}

	fmt.Fprintln(w, "\n=== Status Codes ===")
	for i, code := range codes {
		fmt.Fprintf(w, "  %d: %d\n", code, counts[i])
	}
	return true
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Ceil(p/100*float64(len(sorted)))) - 1
	idx = max(0, min(idx, len(sorted)-1))
	return sorted[idx]
}
