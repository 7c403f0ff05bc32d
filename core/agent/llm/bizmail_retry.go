package llm

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net"
	"strings"
	"syscall"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"bizmail_server/pkg/apperr"
	"bizmail_server/pkg/logger"
)

const (
	DefaultMaxAttempts = 3
	DefaultRetryDelay  = 2 * time.Second
)

// transientMarkers classify opaque errors that expose nothing but text.
var transientMarkers = []string{
	"ssl",
	"tls",
	"eof",
	"connection reset",
	"connection refused",
	"timeout",
	"protocol",
}

// IsTransient reports whether a failed call is worth retrying.
// Classified errors (*apperr.AppError) and breaker rejections never are.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var appErr *apperr.AppError
	if errors.As(err, &appErr) {
		return false
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var recordErr tls.RecordHeaderError
	if errors.As(err, &recordErr) {
		return true
	}
	var alertErr tls.AlertError
	if errors.As(err, &alertErr) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range transientMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "timeout")
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// retrier runs provider calls through a circuit breaker, an optional rate
// limit and a sequential exponential backoff.
type retrier struct {
	name     string
	attempts int
	delay    time.Duration
	breaker  *gobreaker.CircuitBreaker
	limiter  *rate.Limiter
	sleep    func(ctx context.Context, d time.Duration) error
}

func newRetrier(name string, attempts int, delay time.Duration, rps float64) *retrier {
	if attempts <= 0 {
		attempts = DefaultMaxAttempts
	}
	if delay <= 0 {
		delay = DefaultRetryDelay
	}

	r := &retrier{
		name:     name,
		attempts: attempts,
		delay:    delay,
		sleep:    sleepContext,
	}
	if rps > 0 {
		r.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}

	r.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.ConsecutiveFailures > 5 ||
				(counts.Requests >= 10 && failureRatio >= 0.6)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.WithFields(map[string]any{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("circuit breaker state changed")
		},
	})
	return r
}

// do calls fn until it succeeds, fails permanently or the attempt budget is
// spent. Exhausted transient failures surface as gateway timeout or
// unavailable errors.
func (r *retrier) do(ctx context.Context, fn func(ctx context.Context) (string, error)) (string, error) {
	delay := r.delay
	var lastErr error
	attempt := 0

	for attempt < r.attempts {
		attempt++

		if r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				return "", apperr.GatewayUnavailable(attempt, err)
			}
		}

		start := time.Now()
		res, err := r.breaker.Execute(func() (interface{}, error) {
			return fn(ctx)
		})
		if err == nil {
			logger.WithFields(map[string]any{
				"gateway": r.name,
				"attempt": attempt,
			}).WithDuration(time.Since(start)).Debug("completion received")
			return res.(string), nil
		}
		lastErr = err

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", apperr.GatewayUnavailable(attempt, err)
		}
		if !IsTransient(err) {
			return "", classifyPermanent(err)
		}
		if attempt == r.attempts || ctx.Err() != nil {
			break
		}

		logger.WithFields(map[string]any{
			"gateway": r.name,
			"attempt": attempt,
			"delay":   delay.String(),
		}).WithError(err).Warn("completion attempt failed, retrying")

		if err := r.sleep(ctx, delay); err != nil {
			break
		}
		delay *= 2
	}

	logger.WithFields(map[string]any{
		"gateway":  r.name,
		"attempts": attempt,
	}).WithError(lastErr).Error("completion failed")

	if isTimeout(lastErr) {
		return "", apperr.GatewayTimeout(attempt, lastErr)
	}
	return "", apperr.GatewayUnavailable(attempt, lastErr)
}

func classifyPermanent(err error) error {
	var appErr *apperr.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return apperr.GatewayUnavailable(1, err)
}
