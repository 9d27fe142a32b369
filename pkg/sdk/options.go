package propsales

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	driver   string // valkey, redis or memory
	addrs    []string
	password string

	keyPrefix   string
	sourceURL   string
	workDir     string
	batchSize   int
	pageSize    int
	fetchPerSec float64

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithValkey stores sales in a Valkey instance.
func WithValkey(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "valkey"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithRedis stores sales in a Redis 8+ instance.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "redis"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithMemory keeps sales in process memory. Nothing survives Close.
func WithMemory() Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "memory"
		c.addrs = nil
	})
}

// WithKeyPrefix namespaces every stored key. Default: "propsales:".
func WithKeyPrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.keyPrefix = prefix
	})
}

// WithSourceURL sets the extract URL template. It must contain {date}
// (YYYY-MM) or both {year} and {month}. Required for Ingest.
func WithSourceURL(template string) Option {
	return optionFunc(func(c *clientConfig) {
		c.sourceURL = template
	})
}

// WithWorkDir sets the parent directory for downloads and snapshots.
// Default: the OS temp dir.
func WithWorkDir(dir string) Option {
	return optionFunc(func(c *clientConfig) {
		c.workDir = dir
	})
}

// WithBatchSize sets the number of records per store write. Default: 1000.
func WithBatchSize(size int) Option {
	return optionFunc(func(c *clientConfig) {
		c.batchSize = size
	})
}

// WithPageSize sets the search page size. Default: 20.
func WithPageSize(size int) Option {
	return optionFunc(func(c *clientConfig) {
		c.pageSize = size
	})
}

// WithFetchRate caps extract downloads per second. Default: unlimited.
func WithFetchRate(perSec float64) Option {
	return optionFunc(func(c *clientConfig) {
		c.fetchPerSec = perSec
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
