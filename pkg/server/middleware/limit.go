/* Copyright 2025 Trailsync Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/trailsync/trailsync/pkg/server/log"
	"golang.org/x/time/rate"
)

const (
	// DefaultRateLimitPerSecond is the max requests per second the server accepts per IP
	DefaultRateLimitPerSecond = 50
	// DefaultRateLimitBurst is the burst capacity for rate limiting
	DefaultRateLimitBurst = 100

	visitorTTL = 3 * time.Minute
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter holds the per IP rate limiting state
type RateLimiter struct {
	perSecond float64
	burst     int
	visitors  map[string]*visitor
	mtx       sync.Mutex
}

// NewRateLimiter creates a rate limiter. Non-positive values select the defaults.
func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	if perSecond <= 0 {
		perSecond = DefaultRateLimitPerSecond
	}
	if burst <= 0 {
		burst = DefaultRateLimitBurst
	}

	return &RateLimiter{
		perSecond: perSecond,
		burst:     burst,
		visitors:  map[string]*visitor{},
	}
}

// getVisitor returns the limiter of a visitor, adding the visitor if not
// seen before
func (rl *RateLimiter) getVisitor(identifier string) *rate.Limiter {
	rl.mtx.Lock()
	defer rl.mtx.Unlock()

	v, ok := rl.visitors[identifier]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rate.Limit(rl.perSecond), rl.burst)}
		rl.visitors[identifier] = v
	}
	v.lastSeen = time.Now()

	return v.limiter
}

// Cleanup forgets the visitors that have not been seen in a while
func (rl *RateLimiter) Cleanup() int {
	rl.mtx.Lock()
	defer rl.mtx.Unlock()

	var n int
	for identifier, v := range rl.visitors {
		if time.Since(v.lastSeen) > visitorTTL {
			delete(rl.visitors, identifier)
			n++
		}
	}

	return n
}

// RunCleanup calls Cleanup every minute until done is closed
func (rl *RateLimiter) RunCleanup(done <-chan struct{}) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			rl.Cleanup()
		}
	}
}

// lookupIP returns the request's IP without the port
func lookupIP(r *http.Request) string {
	if forwardedFor := r.Header.Get("X-Forwarded-For"); forwardedFor != "" {
		first, _, _ := strings.Cut(forwardedFor, ",")
		return strings.TrimSpace(first)
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return strings.TrimSpace(realIP)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return host
}

// Limit is a middleware to rate limit the handler
func (rl *RateLimiter) Limit(next http.Handler) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identifier := lookupIP(r)
		limiter := rl.getVisitor(identifier)

		if !limiter.Allow() {
			http.Error(w, "Too many requests", http.StatusTooManyRequests)
			log.WithFields(log.Fields{
				"ip": identifier,
			}).Warn("Too many requests")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// ApplyLimit applies the rate limiter to the handler when both are enabled
func ApplyLimit(h http.HandlerFunc, rateLimit bool, rl *RateLimiter) http.Handler {
	if rateLimit && rl != nil {
		return rl.Limit(h)
	}

	return h
}
