// Package ratelimit throttles MCP tool calls per tool name.
package ratelimit

import (
	"fmt"
	"sync"
	"time"
)

// Limiter admits at most burst calls at once and refills at rate calls per
// second. It tracks, per key, the time at which the bucket would be full
// again, so no background refill is needed. Safe for concurrent use.
type Limiter struct {
	mu       sync.Mutex
	interval time.Duration // time to earn one call
	window   time.Duration // interval * burst
	full     map[string]time.Time
	now      func() time.Time
}

// NewLimiter returns a limiter for rate calls per second with the given burst.
func NewLimiter(rate float64, burst int) *Limiter {
	if burst < 1 {
		burst = 1
	}
	interval := time.Duration(float64(time.Second) / rate)
	return &Limiter{
		interval: interval,
		window:   interval * time.Duration(burst),
		full:     make(map[string]time.Time),
		now:      time.Now,
	}
}

// Allow reports whether one more call for key is admitted now.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	full := l.full[key]
	if full.Before(now) {
		full = now
	}
	next := full.Add(l.interval)
	if next.Sub(now) > l.window {
		return false
	}
	l.full[key] = next
	return true
}

// ToolLimiters maps tool names to limiters.
type ToolLimiters map[string]*Limiter

// NewToolLimiters returns the limits for the tsimport tools. Imports do
// real file and database work, so they get the tightest budget.
func NewToolLimiters() ToolLimiters {
	return ToolLimiters{
		"tsimport_import":     NewLimiter(20.0/60.0, 3), // 20/minute, burst 3
		"tsimport_list":       NewLimiter(1.0, 10),
		"tsimport_show":       NewLimiter(1.0, 10),
		"tsimport_topologies": NewLimiter(1.0, 10),
	}
}

// CheckLimit returns an error when toolName is over its limit.
// Tools without a limiter are always allowed.
func CheckLimit(limiters ToolLimiters, toolName string) error {
	l, ok := limiters[toolName]
	if !ok {
		return nil
	}
	if !l.Allow(toolName) {
		return fmt.Errorf("rate limit exceeded for %s, please try again shortly", toolName)
	}
	return nil
}
