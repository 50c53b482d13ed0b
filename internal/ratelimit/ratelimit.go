// Package ratelimit tracks attempt counts per client fingerprint within a
// fixed time window. It backs both the brute-force protection on the auth
// endpoints and the general API request limit.
package ratelimit

import (
	"context"
	"hash/fnv"
	"net"
	"net/http"
	"strconv"
	"time"
)

// Store persists attempt counts. Implementations must treat a record whose
// reset time has passed as absent (lazy expiry).
type Store interface {
	// Get returns the active count and window reset time for key.
	// ok is false when no unexpired record exists.
	Get(ctx context.Context, key string) (count int, reset time.Time, ok bool, err error)
	// Incr records an attempt, starting a fresh window of the given length
	// when no unexpired record exists.
	Incr(ctx context.Context, key string, window time.Duration) (count int, reset time.Time, err error)
	// Delete removes the record for key.
	Delete(ctx context.Context, key string) error
}

// Status reports the limiter state for a client, for client-facing messaging.
type Status struct {
	Limited   bool      `json:"limited"`
	Remaining int       `json:"remaining"`
	ResetTime time.Time `json:"resetTime"`
}

// Limiter enforces a maximum number of attempts per window. Separate
// instances with independent bounds guard each sensitive endpoint.
type Limiter struct {
	store  Store
	max    int
	window time.Duration
}

func New(store Store, max int, window time.Duration) *Limiter {
	return &Limiter{store: store, max: max, window: window}
}

// IsLimited reports whether the client has exhausted its attempts for the
// current window.
func (l *Limiter) IsLimited(ctx context.Context, id string) (bool, error) {
	count, _, ok, err := l.store.Get(ctx, id)
	if err != nil || !ok {
		return false, err
	}
	return count >= l.max, nil
}

// RecordAttempt increments the count for an active window, or starts a
// fresh window when none exists or the prior one expired.
func (l *Limiter) RecordAttempt(ctx context.Context, id string) error {
	_, _, err := l.store.Incr(ctx, id, l.window)
	return err
}

// Reset forgives all recorded attempts for the client. Called after a
// successful authentication.
func (l *Limiter) Reset(ctx context.Context, id string) error {
	return l.store.Delete(ctx, id)
}

// Status returns the remaining attempts and window reset time.
func (l *Limiter) Status(ctx context.Context, id string) (Status, error) {
	count, reset, ok, err := l.store.Get(ctx, id)
	if err != nil {
		return Status{}, err
	}
	if !ok {
		return Status{Remaining: l.max}, nil
	}

	remaining := l.max - count
	if remaining < 0 {
		remaining = 0
	}

	return Status{
		Limited:   count >= l.max,
		Remaining: remaining,
		ResetTime: reset,
	}, nil
}

// Max returns the configured attempt bound.
func (l *Limiter) Max() int {
	return l.max
}

// Fingerprint derives the rate-limit key for a request: the client IP plus
// a short digest of the User-Agent header.
func Fingerprint(r *http.Request) string {
	ip := r.RemoteAddr
	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}

	h := fnv.New32a()
	h.Write([]byte(r.UserAgent()))

	return ip + "-" + strconv.FormatUint(uint64(h.Sum32()), 36)
}
