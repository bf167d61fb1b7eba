package http

import (
	"fmt"
	"time"

	"docsearch/backend/go/internal/config"
	"docsearch/backend/go/pkg/circuitbreaker"
	"docsearch/backend/go/pkg/ratelimiter"
)

// NewClientRateLimiter builds a per-client limiter from the configuration.
// It returns nil when rate limiting is disabled.
func NewClientRateLimiter(cfg config.RateLimiterConfig, opts ...ratelimiter.Option) (*ratelimiter.Keyed, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	factory, err := limiterFactory(cfg, opts)
	if err != nil {
		return nil, err
	}
	maxClients := cfg.MaxClients
	if maxClients <= 0 {
		maxClients = 10000
	}
	return ratelimiter.NewKeyed(factory, maxClients, config.Duration(cfg.ClientTTL, 10*time.Minute), opts...)
}

// limiterFactory returns a constructor for the configured algorithm.
func limiterFactory(cfg config.RateLimiterConfig, opts []ratelimiter.Option) (func() ratelimiter.RateLimiter, error) {
	algorithm := cfg.Algorithm
	if algorithm == "" {
		algorithm = "slidingLog"
	}

	switch algorithm {
	case "slidingLog":
		conf := cfg.SlidingLog
		window, err := parseWindow("slidingLog", conf.Window, conf.Limit)
		if err != nil {
			return nil, err
		}
		return func() ratelimiter.RateLimiter {
			return ratelimiter.NewSlidingWindowLog(conf.Limit, window, opts...)
		}, nil
	case "fixedWindow":
		conf := cfg.FixedWindow
		window, err := parseWindow("fixedWindow", conf.Window, conf.Limit)
		if err != nil {
			return nil, err
		}
		return func() ratelimiter.RateLimiter {
			return ratelimiter.NewFixedWindowCounter(conf.Limit, window, opts...)
		}, nil
	case "tokenBucket":
		conf := cfg.TokenBucket
		if conf.Rate <= 0 || conf.Capacity <= 0 {
			return nil, fmt.Errorf("tokenBucket needs positive rate and capacity")
		}
		return func() ratelimiter.RateLimiter {
			return ratelimiter.NewTokenBucket(conf.Rate, conf.Capacity, opts...)
		}, nil
	default:
		return nil, fmt.Errorf("unknown rate limiter algorithm: %s", cfg.Algorithm)
	}
}

func parseWindow(algorithm, window string, limit int) (time.Duration, error) {
	if limit <= 0 {
		return 0, fmt.Errorf("%s limit must be positive", algorithm)
	}
	d, err := time.ParseDuration(window)
	if err != nil {
		return 0, fmt.Errorf("invalid %s duration: %w", algorithm, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s duration: %s", algorithm, window)
	}
	return d, nil
}

// NewCircuitBreaker initializes a circuit breaker based on the configuration.
// A disabled breaker never opens.
func NewCircuitBreaker(cfg config.CircuitBreakerConfig) (circuitbreaker.CircuitBreaker, error) {
	if !cfg.Enabled {
		return circuitbreaker.Noop(), nil
	}
	timeout, err := time.ParseDuration(cfg.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid circuit breaker timeout duration: %w", err)
	}
	return circuitbreaker.New(cfg.FailureThreshold, cfg.SuccessThreshold, timeout), nil
}
