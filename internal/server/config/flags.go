package config

import (
	"flag"
	"os"
	"strings"
	"time"

	"github.com/dmitrijs2005/datacleaner/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   database DSN (postgres:// or sqlite://)
//	-s string   JWT HMAC secret key
//	-t int      session token validity, minutes
//	-n int      failed logins before lockout
//	-l int      lockout duration, minutes
//	-i string   TOTP issuer name
//	-k string   hex-encoded AES key for TOTP secrets at rest
//	-m string   cleaning engine base URL
//	-w int      cleaning engine timeout, seconds
//	-x string   local export spool directory
//	-o string   comma-separated CORS allowed origins
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//
// Notes:
//   - The function first filters os.Args to only the flags it recognizes using
//     flagx.FilterArgs, avoiding collisions with other components.
//   - Duration flags are accepted as integers (minutes or seconds) and then
//     converted to time.Duration values.
func parseFlags(config *Config) {
	// Filter args to include only the flags handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-s", "-t", "-n", "-l", "-i", "-k", "-m", "-w", "-x", "-o", "-u", "-p", "-b", "-g", "-e"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	sessionValidityDuration := fs.Int("t", int(config.SessionValidityDuration.Minutes()), "session_validity_duration (in minutes)")

	fs.Int64Var(&config.LockoutThreshold, "n", config.LockoutThreshold, "failed logins before lockout")
	lockoutDuration := fs.Int("l", int(config.LockoutDuration.Minutes()), "lockout_duration (in minutes)")

	fs.StringVar(&config.TOTPIssuer, "i", config.TOTPIssuer, "TOTP issuer name")
	fs.StringVar(&config.MFAEncryptionKey, "k", config.MFAEncryptionKey, "hex AES key for TOTP secrets at rest")

	fs.StringVar(&config.CleanEngineURL, "m", config.CleanEngineURL, "cleaning engine base URL")
	engineTimeout := fs.Int("w", int(config.CleanEngineTimeout.Seconds()), "clean_engine_timeout (in seconds)")

	fs.StringVar(&config.ExportDir, "x", config.ExportDir, "local export spool directory")

	corsOrigins := fs.String("o", strings.Join(config.CORSAllowedOrigins, ","), "comma-separated CORS allowed origins")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 root bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 root region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.SessionValidityDuration = time.Duration(*sessionValidityDuration) * time.Minute
	config.LockoutDuration = time.Duration(*lockoutDuration) * time.Minute
	config.CleanEngineTimeout = time.Duration(*engineTimeout) * time.Second
	config.CORSAllowedOrigins = splitOrigins(*corsOrigins)
}

func splitOrigins(s string) []string {
	parts := strings.Split(s, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
