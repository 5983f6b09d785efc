package httpx

import (
	"os"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitConfig defines a client-side request budget.
type RateLimitConfig struct {
	// RequestsPerWindow is the number of requests allowed in the time window.
	// Zero disables limiting.
	RequestsPerWindow int
	// Window is the time window for rate limiting
	Window time.Duration
	// Burst allows for temporary bursts above the rate limit
	Burst int
}

// APILimit keeps bulk CLI jobs (exports, scripted inquiries) under the
// marketplace backend's public limit of 100 requests per minute.
// Override with: RATELIMIT_API_REQUESTS, RATELIMIT_API_WINDOW_SEC, RATELIMIT_API_BURST
var APILimit = RateLimitConfig{
	RequestsPerWindow: 100,
	Window:            time.Minute,
	Burst:             10,
}

// ParseRateLimitFromEnv reads rate limit configuration from environment variables.
// Environment variables follow the pattern: RATELIMIT_{prefix}_{field}
// For example: RATELIMIT_API_REQUESTS, RATELIMIT_API_WINDOW_SEC, RATELIMIT_API_BURST
func ParseRateLimitFromEnv(prefix string, defaultConfig RateLimitConfig) RateLimitConfig {
	config := defaultConfig

	// Parse requests per window, 0 turns the limiter off
	if val := os.Getenv("RATELIMIT_" + prefix + "_REQUESTS"); val != "" {
		if requests, err := strconv.Atoi(val); err == nil && requests >= 0 {
			config.RequestsPerWindow = requests
		}
	}

	// Parse window duration in seconds
	if val := os.Getenv("RATELIMIT_" + prefix + "_WINDOW_SEC"); val != "" {
		if windowSec, err := strconv.Atoi(val); err == nil && windowSec > 0 {
			config.Window = time.Duration(windowSec) * time.Second
		}
	}

	// Parse burst size
	if val := os.Getenv("RATELIMIT_" + prefix + "_BURST"); val != "" {
		if burst, err := strconv.Atoi(val); err == nil && burst > 0 {
			config.Burst = burst
		}
	}

	return config
}

// Limiter builds a token bucket for the config, or nil when limiting is
// disabled.
func (c RateLimitConfig) Limiter() *rate.Limiter {
	if c.RequestsPerWindow <= 0 || c.Window <= 0 {
		return nil
	}

	burst := c.Burst
	if burst <= 0 {
		burst = 1
	}

	ratePerSecond := float64(c.RequestsPerWindow) / c.Window.Seconds()
	return rate.NewLimiter(rate.Limit(ratePerSecond), burst)
}
