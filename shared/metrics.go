package shared

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// ServiceMetrics keeps lightweight per-service operation counters.
// There is no external metrics backend in this deployment; the numbers
// surface through periodic log summaries.
type ServiceMetrics struct {
	serviceName string
	mutex       sync.Mutex

	operationCounts   map[string]int64
	operationFailures map[string]int64
	totalDuration     map[string]time.Duration
}

// NewServiceMetrics creates a metrics recorder for the named service.
func NewServiceMetrics(serviceName string) *ServiceMetrics {
	return &ServiceMetrics{
		serviceName:       serviceName,
		operationCounts:   make(map[string]int64),
		operationFailures: make(map[string]int64),
		totalDuration:     make(map[string]time.Duration),
	}
}

// RecordOperation tracks one completed operation.
func (m *ServiceMetrics) RecordOperation(operation string, duration time.Duration, success bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.operationCounts[operation]++
	m.totalDuration[operation] += duration
	if !success {
		m.operationFailures[operation]++
	}
}

// Snapshot returns a copy of the counters keyed by operation name,
// suitable for JSON serialization.
func (m *ServiceMetrics) Snapshot() map[string]map[string]any {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	out := make(map[string]map[string]any, len(m.operationCounts))
	for op, count := range m.operationCounts {
		avg := time.Duration(0)
		if count > 0 {
			avg = m.totalDuration[op] / time.Duration(count)
		}
		out[op] = map[string]any{
			"count":    count,
			"failures": m.operationFailures[op],
			"avg_ms":   avg.Milliseconds(),
		}
	}
	return out
}

// LogSummary emits the current counters as one structured log line.
func (m *ServiceMetrics) LogSummary() {
	logrus.WithFields(logrus.Fields{
		"service_name": m.serviceName,
		"operations":   m.Snapshot(),
	}).Info("Service metrics summary")
}
