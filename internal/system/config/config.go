/*
 * Copyright (c) 2025, WSO2 LLC. (http://www.wso2.com).
 *
 * WSO2 LLC. licenses this file to you under the Apache License,
 * Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
 * KIND, either express or implied.  See the License for the
 * specific language governing permissions and limitations
 * under the License.
 */

package config

import "time"

type AddrConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

type LogConfig struct {
	LogLevel string `yaml:"log_level"`
	// Format is "text" or "json".
	Format string `yaml:"format"`
}

type AuthConfig struct {
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
	// Audience expected in the token `aud` claim. Empty disables the check.
	Audience string `yaml:"audience"`
	// JWTSecret is the HMAC key used to verify bearer tokens. When empty, tokens are
	// parsed without signature verification and must be verified upstream.
	JWTSecret      string              `yaml:"jwt_secret"`
	RequiredScopes map[string][]string `yaml:"required_scopes"`
	// Disabled turns off authentication and authorization entirely.
	Disabled bool `yaml:"disabled"`
}

type DataSourceConfig struct {
	Hostname        string `yaml:"hostname"`
	Port            int    `yaml:"port"`
	Name            string `yaml:"name"`
	Username        string `yaml:"username"`
	Password        string `yaml:"password"`
	SSLMode         string `yaml:"sslmode"`
	MaxOpenConns    int    `yaml:"max_open_conns"`
	MaxIdleConns    int    `yaml:"max_idle_conns"`
	MigrateOnStart  bool   `yaml:"migrate_on_start"`
	MigrationsTable string `yaml:"migrations_table"`
}

type DedupeConfig struct {
	// CheckWindow bounds how many existing records a real-time check compares against.
	CheckWindow   int           `yaml:"check_window"`
	ScanWorkers   int           `yaml:"scan_workers"`
	ScanLimit     int           `yaml:"scan_limit"`
	ScanInterval  time.Duration `yaml:"scan_interval"`
	ScanQueueSize int           `yaml:"scan_queue_size"`
	// ScanJobs is how many queued scans run at the same time.
	ScanJobs     int           `yaml:"scan_jobs"`
	RuleCacheTTL time.Duration `yaml:"rule_cache_ttl"`
}

type KafkaConfig struct {
	Brokers      []string      `yaml:"brokers"`
	Topic        string        `yaml:"topic"`
	BatchTimeout time.Duration `yaml:"batch_timeout"`
	RequiredAcks int           `yaml:"required_acks"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type Config struct {
	Addr       AddrConfig       `yaml:"addr"`
	Log        LogConfig        `yaml:"log"`
	Auth       AuthConfig       `yaml:"auth"`
	DataSource DataSourceConfig `yaml:"datasource"`
	Dedupe     DedupeConfig     `yaml:"dedupe"`
	Kafka      KafkaConfig      `yaml:"kafka"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

const (
	DefaultCheckWindow   = 10000
	DefaultScanWorkers   = 4
	DefaultScanQueueSize = 100
	DefaultScanJobs      = 2
	DefaultRuleCacheTTL  = 30 * time.Second
	DefaultMetricsPath   = "/metrics"
	DefaultKafkaTopic    = "record-deduplication-events"
)

// ApplyDefaults fills unset values with their defaults.
func (c *Config) ApplyDefaults() {

	if c.Log.LogLevel == "" {
		c.Log.LogLevel = "INFO"
	}
	if c.DataSource.SSLMode == "" {
		c.DataSource.SSLMode = "disable"
	}
	if c.Dedupe.CheckWindow <= 0 {
		c.Dedupe.CheckWindow = DefaultCheckWindow
	}
	if c.Dedupe.ScanWorkers <= 0 {
		c.Dedupe.ScanWorkers = DefaultScanWorkers
	}
	if c.Dedupe.ScanQueueSize <= 0 {
		c.Dedupe.ScanQueueSize = DefaultScanQueueSize
	}
	if c.Dedupe.ScanJobs <= 0 {
		c.Dedupe.ScanJobs = DefaultScanJobs
	}
	if c.Dedupe.RuleCacheTTL <= 0 {
		c.Dedupe.RuleCacheTTL = DefaultRuleCacheTTL
	}
	if c.Kafka.Topic == "" {
		c.Kafka.Topic = DefaultKafkaTopic
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
}
