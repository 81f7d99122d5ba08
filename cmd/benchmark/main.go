package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// Config holds the benchmark settings
var (
	targetURL   string
	endpoint    string
	concurrency int
	duration    time.Duration
	signature   string
	requestID   string
)

// Metrics
var (
	totalRequests uint64
	authorized200 uint64 // Served (payment accepted or replayed idempotently)
	challenge402  uint64 // Payment challenges issued
	replay403     uint64 // Signature reuse rejections
	failOther     uint64
)

func init() {
	flag.StringVar(&targetURL, "url", "http://localhost:8080", "API Base URL")
	flag.StringVar(&endpoint, "endpoint", "/api/v1/network/stats", "Gated endpoint to hit")
	flag.IntVar(&concurrency, "workers", 10, "Number of concurrent workers")
	flag.DurationVar(&duration, "duration", 30*time.Second, "Test duration")
	flag.StringVar(&signature, "signature", "", "Payment signature to replay (empty: challenge workload)")
	flag.StringVar(&requestID, "request-id", "", "Request id paired with -signature")
}

func main() {
	flag.Parse()

	workload := "challenge"
	if signature != "" {
		// Contended workload: every worker presents the same signature, so
		// exactly one authorization should perform accounting and the rest
		// replay idempotently.
		workload = "contended-signature"
	}
	log.Printf("Starting Benchmark: %s | Workers: %d | Duration: %s", workload, concurrency, duration)

	start := time.Now()
	var wg sync.WaitGroup
	wg.Add(concurrency)

	for i := 0; i < concurrency; i++ {
		go worker(&wg, start)
	}

	wg.Wait()
	printResults(workload, time.Since(start))
}

func worker(wg *sync.WaitGroup, start time.Time) {
	defer wg.Done()
	client := &http.Client{Timeout: 5 * time.Second}

	for time.Since(start) < duration {
		req, _ := http.NewRequest("GET", targetURL+endpoint, nil)
		if signature != "" {
			req.Header.Set("x-payment-signature", signature)
			req.Header.Set("x-request-id", requestID)
		}

		resp, err := client.Do(req)
		if err != nil {
			atomic.AddUint64(&failOther, 1)
			continue
		}

		atomic.AddUint64(&totalRequests, 1)
		switch resp.StatusCode {
		case 200:
			atomic.AddUint64(&authorized200, 1)
		case 402:
			atomic.AddUint64(&challenge402, 1)
		case 403:
			atomic.AddUint64(&replay403, 1)
		default:
			atomic.AddUint64(&failOther, 1)
		}
		resp.Body.Close()
	}
}

func printResults(workload string, d time.Duration) {
	total := atomic.LoadUint64(&totalRequests)
	ok := atomic.LoadUint64(&authorized200)
	challenged := atomic.LoadUint64(&challenge402)
	replayed := atomic.LoadUint64(&replay403)
	fErr := atomic.LoadUint64(&failOther)

	tps := float64(total) / d.Seconds()

	results := map[string]interface{}{
		"workload":           workload,
		"endpoint":           endpoint,
		"duration_sec":       d.Seconds(),
		"total_requests":     total,
		"throughput_tps":     tps,
		"authorized":         ok,
		"challenges_issued":  challenged,
		"replays_rejected":   replayed,
		"errors":             fErr,
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(results)

	// Also save to file
	filename := fmt.Sprintf("results_%s.json", workload)
	file, _ := os.Create(filename)
	defer file.Close()
	json.NewEncoder(file).Encode(results)
}
