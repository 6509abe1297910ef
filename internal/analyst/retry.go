package analyst

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

// RetryConfig holds retry and circuit-breaker settings for model calls.
type RetryConfig struct {
	MaxRetries        int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
	Timeout           time.Duration // per-attempt timeout

	FailureThreshold int           // failures before the circuit opens
	SuccessThreshold int           // half-open successes before it closes
	OpenTimeout      time.Duration // how long the circuit stays open
}

// DefaultRetryConfig returns conservative production settings. Timeouts stay
// short: a reflex-speed system would rather skip an enrichment than wait.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:        2,
		InitialBackoff:    500 * time.Millisecond,
		MaxBackoff:        5 * time.Second,
		BackoffMultiplier: 2.0,
		Timeout:           10 * time.Second,
		FailureThreshold:  5,
		SuccessThreshold:  2,
		OpenTimeout:       30 * time.Second,
	}
}

// ErrCircuitOpen is returned when the breaker is rejecting calls.
var ErrCircuitOpen = errors.New("analyst circuit breaker is open")

type circuitState int

const (
	circuitClosed circuitState = iota
	circuitOpen
	circuitHalfOpen
)

func (s circuitState) String() string {
	switch s {
	case circuitClosed:
		return "CLOSED"
	case circuitOpen:
		return "OPEN"
	case circuitHalfOpen:
		return "HALF_OPEN"
	}
	return "UNKNOWN"
}

// breaker fails fast when the model endpoint is struggling, so a model outage
// cannot stall the decision loops.
type breaker struct {
	mu sync.Mutex

	state            circuitState
	failures         int
	successes        int
	lastFailure      time.Time
	failureThreshold int
	successThreshold int
	openTimeout      time.Duration
}

func newBreaker(cfg RetryConfig) *breaker {
	return &breaker{
		state:            circuitClosed,
		failureThreshold: cfg.FailureThreshold,
		successThreshold: cfg.SuccessThreshold,
		openTimeout:      cfg.OpenTimeout,
	}
}

func (b *breaker) allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.state {
	case circuitClosed, circuitHalfOpen:
		return nil
	case circuitOpen:
		if time.Since(b.lastFailure) > b.openTimeout {
			b.setState(circuitHalfOpen)
			return nil
		}
		return ErrCircuitOpen
	}
	return ErrCircuitOpen
}

func (b *breaker) recordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.state {
	case circuitClosed:
		b.failures = 0
	case circuitHalfOpen:
		b.successes++
		if b.successes >= b.successThreshold {
			b.setState(circuitClosed)
			b.failures = 0
		}
	}
}

func (b *breaker) recordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lastFailure = time.Now()
	switch b.state {
	case circuitClosed:
		b.failures++
		if b.failures >= b.failureThreshold {
			b.setState(circuitOpen)
		}
	case circuitHalfOpen:
		b.setState(circuitOpen)
	}
}

func (b *breaker) setState(s circuitState) {
	fmt.Printf("[analyst] circuit %s -> %s\n", b.state, s)
	b.state = s
	b.successes = 0
}

// retryWithBackoff runs fn with per-attempt timeouts, exponential backoff,
// and the circuit breaker.
func retryWithBackoff(ctx context.Context, cfg RetryConfig, br *breaker, operation string, fn func(context.Context) error) error {
	var lastErr error
	backoff := cfg.InitialBackoff

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if err := br.allow(); err != nil {
			return fmt.Errorf("%s blocked: %w", operation, err)
		}

		attemptCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
		err := fn(attemptCtx)
		cancel()

		if err == nil {
			br.recordSuccess()
			return nil
		}
		lastErr = err

		if isRetriable(err) {
			br.recordFailure()
		} else {
			fmt.Fprintf(os.Stderr, "[analyst] %s failed permanently: %v\n", operation, err)
			return err
		}
		if attempt == cfg.MaxRetries {
			break
		}
		if ctx.Err() != nil {
			return fmt.Errorf("%s canceled: %w", operation, ctx.Err())
		}

		select {
		case <-time.After(backoff):
			backoff = time.Duration(float64(backoff) * cfg.BackoffMultiplier)
			if backoff > cfg.MaxBackoff {
				backoff = cfg.MaxBackoff
			}
		case <-ctx.Done():
			return fmt.Errorf("%s canceled during backoff: %w", operation, ctx.Err())
		}
	}
	return fmt.Errorf("%s failed after %d attempts: %w", operation, cfg.MaxRetries+1, lastErr)
}

// isRetriable reports whether an error looks transient. Rate limits, server
// errors, and network failures retry; client errors do not.
func isRetriable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	msg := err.Error()
	for _, marker := range []string{
		"429", "rate limit", "500", "502", "503", "504", "overloaded",
		"connection refused", "connection reset", "timeout", "network",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
