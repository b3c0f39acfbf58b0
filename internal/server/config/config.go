// Package config handles configuration for the server component,
// including defaults, JSON overlay, and command-line flags.
package config

import "time"

// Config holds runtime settings for the Data Cleaner server.
//
// Fields:
//   - EndpointAddrHTTP: bind address for the public HTTP API.
//   - DatabaseDSN: database DSN; postgres:// selects pgx, sqlite:// a local file.
//   - SecretKey: HMAC secret for signing session tokens (HS256). Do not use test defaults in prod.
//   - SessionValidityDuration: lifetime of issued session tokens.
//   - LockoutThreshold / LockoutDuration: failed-login lockout policy.
//   - TOTPIssuer: issuer name rendered into otpauth:// enrollment URLs.
//   - MFAEncryptionKey: hex-encoded AES key for TOTP secrets at rest (16/24/32 bytes).
//   - CleanEngineURL / CleanEngineTimeout: cleaning engine endpoint settings.
//   - ExportDir: local spool directory for exports when S3 is not configured.
//   - CORSAllowedOrigins: origins allowed on the HTTP API.
//   - S3RootUser / S3RootPassword: credentials for the S3-compatible backend.
//   - S3Bucket / S3Region / S3BaseEndpoint: object storage settings. An empty
//     S3BaseEndpoint disables object storage and keeps exports in ExportDir.
type Config struct {
	EndpointAddrHTTP        string
	DatabaseDSN             string
	SecretKey               string
	SessionValidityDuration time.Duration
	LockoutThreshold        int64
	LockoutDuration         time.Duration
	TOTPIssuer              string
	MFAEncryptionKey        string
	CleanEngineURL          string
	CleanEngineTimeout      time.Duration
	ExportDir               string
	CORSAllowedOrigins      []string
	S3RootUser              string
	S3RootPassword          string
	S3Bucket                string
	S3Region                string
	S3BaseEndpoint          string
}

// LoadDefaults populates Config with sensible development defaults.
// NOTE: These values are insecure for production and should be overridden.
func (c *Config) LoadDefaults() {
	c.EndpointAddrHTTP = ":8080"
	c.DatabaseDSN = "sqlite://datacleaner.db"
	c.SecretKey = "secretKey"
	c.SessionValidityDuration = 24 * time.Hour
	c.LockoutThreshold = 5
	c.LockoutDuration = 30 * time.Minute
	c.TOTPIssuer = "Data Cleaner"
	c.MFAEncryptionKey = "64617461636c65616e65722d6465762d6d66612d6b65792d3332627974657321"
	c.CleanEngineURL = "http://127.0.0.1:5002/"
	c.CleanEngineTimeout = 60 * time.Second
	c.ExportDir = "exports"
	c.CORSAllowedOrigins = []string{"*"}
	c.S3RootUser = "admin"
	c.S3RootPassword = "secretpassword"
	c.S3Bucket = "exports"
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = ""
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
