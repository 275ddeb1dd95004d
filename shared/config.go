package shared

import "time"

// DatabaseConfig holds connection pool settings applied to the shared
// *sql.DB handle.
type DatabaseConfig struct {
	MaxOpenConns    int           `json:"max_open_conns"`
	MaxIdleConns    int           `json:"max_idle_conns"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `json:"conn_max_idle_time"`
	PingTimeout     time.Duration `json:"ping_timeout"`
}

// SnapshotConfig describes the public KV snapshot: where it lives, how
// long it stays valid, and how many rows it may carry.
type SnapshotConfig struct {
	Key     string        `json:"key"`
	TTL     time.Duration `json:"ttl"`
	MaxRows int           `json:"max_rows"`
}

// HTTPConfig holds the outbound HTTP client policy shared by the
// background jobs (calendar refresh, logo discovery).
type HTTPConfig struct {
	RequestTimeout   time.Duration `json:"request_timeout"`
	RequestRateLimit time.Duration `json:"request_rate_limit"`
	MaxRetryAttempts int           `json:"max_retry_attempts"`
}

// NewDefaultDatabaseConfig returns the production pool settings.
func NewDefaultDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
		ConnMaxIdleTime: 5 * time.Minute,
		PingTimeout:     5 * time.Second,
	}
}

// NewDefaultSnapshotConfig returns the snapshot policy used by the edge
// data path: a single "ipo_table" key capped at 100 upcoming rows.
func NewDefaultSnapshotConfig() SnapshotConfig {
	return SnapshotConfig{
		Key:     "ipo_table",
		TTL:     24 * time.Hour,
		MaxRows: 100,
	}
}

// NewDefaultHTTPConfig returns a polite outbound HTTP policy.
func NewDefaultHTTPConfig() HTTPConfig {
	return HTTPConfig{
		RequestTimeout:   30 * time.Second,
		RequestRateLimit: 1 * time.Second,
		MaxRetryAttempts: 3,
	}
}
