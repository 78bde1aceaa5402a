package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "fintrack/internal/errors"
)

// attemptLog keeps recent attempt timestamps per client IP.
type attemptLog struct {
	mu     sync.Mutex
	window time.Duration
	max    int
	byIP   map[string][]time.Time
}

// prune drops timestamps older than the window. Callers hold mu.
func (l *attemptLog) prune(ip string, now time.Time) []time.Time {
	cutoff := now.Add(-l.window)
	kept := l.byIP[ip][:0]
	for _, t := range l.byIP[ip] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	if len(kept) == 0 {
		delete(l.byIP, ip)
		return nil
	}
	l.byIP[ip] = kept
	return kept
}

// allow records an attempt from ip unless the window is already full.
func (l *attemptLog) allow(ip string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.prune(ip, now)) >= l.max {
		return false
	}
	l.byIP[ip] = append(l.byIP[ip], now)
	return true
}

func (l *attemptLog) sweep(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for ip := range l.byIP {
		l.prune(ip, now)
	}
}

// LoginRateLimit allows at most maxAttempts login attempts per client IP
// within window and answers 429 beyond that.
func LoginRateLimit(maxAttempts int, window time.Duration) gin.HandlerFunc {
	log := &attemptLog{
		window: window,
		max:    maxAttempts,
		byIP:   make(map[string][]time.Time),
	}

	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for now := range ticker.C {
			log.sweep(now)
		}
	}()

	return func(c *gin.Context) {
		if !log.allow(c.ClientIP(), time.Now()) {
			AbortWithError(c, apperrors.ErrTooManyRequests)
			return
		}
		c.Next()
	}
}
