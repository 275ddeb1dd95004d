package shared

import (
	"sync"
	"time"
)

// RequestRateLimiter enforces a minimum delay between outbound
// requests. The calendar and logo jobs share one limiter per upstream
// host so bursts never hit third parties.
type RequestRateLimiter struct {
	minimumDelay    time.Duration
	lastRequestTime time.Time
	mutex           sync.Mutex
	requestCount    int64
}

// NewRequestRateLimiter creates a limiter with the given minimum delay.
func NewRequestRateLimiter(minimumDelay time.Duration) *RequestRateLimiter {
	return &RequestRateLimiter{
		minimumDelay:    minimumDelay,
		lastRequestTime: time.Now(),
	}
}

// Wait blocks until the minimum delay since the previous request has
// elapsed, then records the new request.
func (l *RequestRateLimiter) Wait() {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if elapsed := time.Since(l.lastRequestTime); elapsed < l.minimumDelay {
		time.Sleep(l.minimumDelay - elapsed)
	}

	l.lastRequestTime = time.Now()
	l.requestCount++
}

// RequestCount returns how many requests have passed through.
func (l *RequestRateLimiter) RequestCount() int64 {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return l.requestCount
}
