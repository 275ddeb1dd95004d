package shared

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// HTTPClientFactory hands out pooled HTTP clients keyed by timeout so
// the calendar refresh and logo jobs share transports instead of
// opening fresh connections per request.
type HTTPClientFactory struct {
	defaultTimeout time.Duration
	mutex          sync.RWMutex
	clients        map[time.Duration]*http.Client
}

// NewHTTPClientFactory creates a factory with the given default timeout.
func NewHTTPClientFactory(defaultTimeout time.Duration) *HTTPClientFactory {
	return &HTTPClientFactory{
		defaultTimeout: defaultTimeout,
		clients:        make(map[time.Duration]*http.Client),
	}
}

// Client returns a pooled client for the given timeout, creating and
// caching it on first use.
func (f *HTTPClientFactory) Client(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = f.defaultTimeout
	}

	f.mutex.RLock()
	if client, ok := f.clients[timeout]; ok {
		f.mutex.RUnlock()
		return client
	}
	f.mutex.RUnlock()

	client := &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   10,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: 10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}

	f.mutex.Lock()
	f.clients[timeout] = client
	f.mutex.Unlock()

	return client
}

// SetBrowserLikeHeaders configures request headers to look like a
// regular browser. Nasdaq's calendar endpoint rejects bare clients.
func SetBrowserLikeHeaders(request *http.Request, acceptHeader string) {
	request.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36")
	request.Header.Set("Accept", acceptHeader)
	request.Header.Set("Accept-Language", "en-US,en;q=0.9")
	request.Header.Set("Connection", "keep-alive")
}

// ExecuteHTTPRequestWithRetry runs the request with exponential backoff
// between attempts. Only the background jobs use this; request-path
// fetches are never retried.
func ExecuteHTTPRequestWithRetry(client *http.Client, request *http.Request, maxRetryAttempts int) (*http.Response, error) {
	logger := logrus.WithFields(logrus.Fields{
		"component": "HTTPClientFactory",
		"url":       request.URL.String(),
	})

	var response *http.Response
	var lastErr error

	for attempt := 0; attempt <= maxRetryAttempts; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt-1)) * time.Second
			logger.WithFields(logrus.Fields{
				"attempt": attempt + 1,
				"backoff": backoff,
			}).Debug("Retrying HTTP request after backoff")
			time.Sleep(backoff)
		}

		response, lastErr = client.Do(request)
		if lastErr == nil && response.StatusCode == http.StatusOK {
			return response, nil
		}

		if lastErr != nil {
			lastErr = fmt.Errorf("attempt %d failed: %w", attempt+1, lastErr)
		} else {
			lastErr = fmt.Errorf("attempt %d failed with HTTP %d", attempt+1, response.StatusCode)
			response.Body.Close()
		}
	}

	logger.WithError(lastErr).Error("HTTP request failed after all retry attempts")
	return nil, fmt.Errorf("request failed after %d attempts: %w", maxRetryAttempts+1, lastErr)
}
