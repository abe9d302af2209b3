// cmd/results-watch/main.go
//
// Polls an assessment's results endpoint until it settles and prints each
// reconciliation decision as a JSON line.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"career-readiness/internal/common/logger"
	"career-readiness/internal/reconcile"
)

func main() {
	baseURL := flag.String("base-url", "http://localhost:3000", "assessment API base URL")
	assessmentType := flag.String("type", "", "assessment type, e.g. ccrl")
	id := flag.String("id", "", "assessment ID")
	token := flag.String("token", os.Getenv("ASSESSMENT_TOKEN"), "bearer token (defaults to ASSESSMENT_TOKEN)")
	maxAttempts := flag.Int("max-attempts", reconcile.DefaultMaxAttempts, "fetches before giving up")
	retries := flag.Int("retries", 3, "automatic retries after a failed fetch")
	retryDelay := flag.Duration("retry-delay", 5*time.Second, "wait before retrying a failed fetch")
	flag.Parse()

	log := logger.NewStructured("info", "console", "stderr")

	if *assessmentType == "" || *id == "" {
		fmt.Fprintln(os.Stderr, "usage: results-watch -type <type> -id <assessment-id> [-base-url URL] [-token TOKEN]")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	enc := json.NewEncoder(os.Stdout)
	p := &reconcile.Poller{
		Fetcher: &reconcile.HTTPFetcher{
			BaseURL:        *baseURL,
			AssessmentType: *assessmentType,
			AssessmentID:   *id,
			Token:          *token,
		},
		MaxAttempts: *maxAttempts,
		Navigate: func(path string) {
			log.Info("results moved", map[string]interface{}{"redirectTo": path})
		},
	}

	remaining := *retries
	p.OnDecision = func(d reconcile.Decision) {
		_ = enc.Encode(d)
		if d.State != reconcile.StateError || !d.Retryable {
			return
		}
		if remaining == 0 {
			log.Error("fetch failed, no retries left", map[string]interface{}{"error": d.Err})
			stop()
			return
		}
		remaining--
		log.Warn("fetch failed, retrying", map[string]interface{}{"error": d.Err, "in": retryDelay.String()})
		go func() {
			select {
			case <-time.After(*retryDelay):
				p.Retry()
			case <-ctx.Done():
			}
		}()
	}

	final, err := p.Run(ctx)
	switch {
	case err == nil:
		log.Info("results settled", map[string]interface{}{"state": string(final.State), "attempts": final.Attempt})
	case errors.Is(err, reconcile.ErrAttemptsExhausted):
		log.Warn("results still processing", map[string]interface{}{"state": string(final.State), "attempts": final.Attempt})
		os.Exit(3)
	default:
		log.Error("watch stopped", map[string]interface{}{"error": err, "state": string(final.State)})
		os.Exit(1)
	}
	if final.State == reconcile.StateNotFound {
		os.Exit(4)
	}
}
