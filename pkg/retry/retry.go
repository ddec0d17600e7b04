package retry

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"
)

var (
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")
	ErrContextCanceled    = errors.New("context canceled during retry")
)

// Config contains retry configuration
type Config struct {
	// MaxRetries is the number of retries after the first attempt
	MaxRetries int
	// InitialInterval is the wait before the first retry (default: 100ms)
	InitialInterval time.Duration
	// MaxInterval caps the wait between retries (default: 2s)
	MaxInterval time.Duration
	// Multiplier grows the interval after each retry (default: 2.0)
	Multiplier float64
	// JitterFactor adds ±factor random jitter to each interval
	JitterFactor float64
}

// DefaultConfig returns default retry configuration: 100ms, 200ms, 400ms
func DefaultConfig() *Config {
	return &Config{
		MaxRetries:      3,
		InitialInterval: 100 * time.Millisecond,
		MaxInterval:     2 * time.Second,
		Multiplier:      2.0,
		JitterFactor:    0.1,
	}
}

// ConnectConfig builds the config used when dialing infrastructure at startup
func ConnectConfig(maxRetries int, interval time.Duration) *Config {
	return &Config{
		MaxRetries:      maxRetries,
		InitialInterval: interval,
		MaxInterval:     interval,
		Multiplier:      1,
	}
}

// Operation is the function to be retried
type Operation func(ctx context.Context) error

// PermanentError stops retrying immediately
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string {
	return e.Err.Error()
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

// Permanent marks an error as not retryable
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// Result describes how a retried operation ended
type Result struct {
	// Err is nil on success, the unwrapped permanent error, or one of the package sentinels
	Err error
	// Attempts counts every call including the first
	Attempts int
	// TotalDuration includes the time spent waiting
	TotalDuration time.Duration
	// LastError is the error returned by the last attempt
	LastError error
}

// Cause returns the most specific error: the last attempt's error when there was one
func (r *Result) Cause() error {
	if r.LastError != nil {
		return r.LastError
	}
	return r.Err
}

// Retrier runs operations with exponential backoff
type Retrier struct {
	config *Config
}

// New creates a Retrier, filling zero values with defaults
func New(config *Config) *Retrier {
	if config == nil {
		config = DefaultConfig()
	}

	c := *config
	if c.InitialInterval <= 0 {
		c.InitialInterval = 100 * time.Millisecond
	}
	if c.MaxInterval <= 0 {
		c.MaxInterval = 2 * time.Second
	}
	if c.Multiplier <= 0 {
		c.Multiplier = 2.0
	}
	c.JitterFactor = math.Max(0, math.Min(1, c.JitterFactor))

	return &Retrier{config: &c}
}

// RetryCallback is called before each wait
type RetryCallback func(attempt int, err error, nextInterval time.Duration)

// Do executes the operation with retry logic
func (r *Retrier) Do(ctx context.Context, op Operation) *Result {
	return r.DoWithCallback(ctx, op, nil)
}

// DoWithCallback executes the operation, invoking callback before every retry
func (r *Retrier) DoWithCallback(ctx context.Context, op Operation, callback RetryCallback) *Result {
	start := time.Now()
	result := &Result{}
	finish := func(err error) *Result {
		result.Err = err
		result.TotalDuration = time.Since(start)
		return result
	}

	for attempt := 0; ; attempt++ {
		if ctx.Err() != nil {
			return finish(ErrContextCanceled)
		}

		result.Attempts = attempt + 1
		err := op(ctx)
		if err == nil {
			result.LastError = nil
			return finish(nil)
		}
		result.LastError = err

		var permErr *PermanentError
		if errors.As(err, &permErr) {
			result.LastError = permErr.Err
			return finish(permErr.Err)
		}

		if attempt >= r.config.MaxRetries {
			return finish(ErrMaxRetriesExceeded)
		}

		interval := r.calculateInterval(attempt)
		if callback != nil {
			callback(attempt+1, err, interval)
		}

		select {
		case <-ctx.Done():
			return finish(ErrContextCanceled)
		case <-time.After(interval):
		}
	}
}

// calculateInterval returns initial * multiplier^attempt with jitter, capped at MaxInterval
func (r *Retrier) calculateInterval(attempt int) time.Duration {
	interval := float64(r.config.InitialInterval) * math.Pow(r.config.Multiplier, float64(attempt))

	if r.config.JitterFactor > 0 {
		jitter := interval * r.config.JitterFactor
		interval += (rand.Float64()*2 - 1) * jitter
	}

	if interval > float64(r.config.MaxInterval) {
		interval = float64(r.config.MaxInterval)
	}
	if interval < 0 {
		interval = float64(r.config.InitialInterval)
	}

	return time.Duration(interval)
}
