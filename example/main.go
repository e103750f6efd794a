package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jpalmerr/formpost"
	"github.com/jpalmerr/formpost/internal/batch"
)

func main() {
	// start mock server (see mock_server.go)
	go StartMockFormServer(":9999")
	time.Sleep(100 * time.Millisecond)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	// a small per-route limit makes the pool visible: 40 posts, 4 at a time
	p, err := formpost.New(
		formpost.WithMaxPerRoute(4),
		formpost.WithAcquireTimeout(5*time.Second),
		formpost.WithHeader("User-Agent", "formpost-demo"),
		formpost.WithLogger(logger),
	)
	if err != nil {
		slog.Error("failed to create poster", "error", err)
		os.Exit(1)
	}
	defer p.Close()

	jobs := make([]batch.Job, 0, 40)
	for i := range 40 {
		jobs = append(jobs, batch.Job{
			Name: fmt.Sprintf("event-%02d", i),
			URL:  "http://localhost:9999/check",
			Params: map[string]string{
				"appName":    "mobile",
				"eventId":    fmt.Sprintf("mobile_%d", i),
				"invokeType": "10",
			},
			Timeout: 2 * time.Second,
		})
	}

	// set up context with signal handling so Ctrl+C stops the batch
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	results := batch.NewRunner(p, 16, logger).Run(ctx, jobs)

	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
			fmt.Printf("%-9s FAIL %6s %v\n", res.Name, res.Latency.Round(time.Millisecond), res.Err)
			continue
		}
		fmt.Printf("%-9s ok   %6s %s", res.Name, res.Latency.Round(time.Millisecond), res.Body)
	}

	fmt.Println()
	fmt.Printf("%d posts, %d failed, %s total (max %d per route)\n",
		len(results), failed, time.Since(start).Round(time.Millisecond), p.Stats().MaxPerRoute)
}
