package config

import (
	"flag"
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {

	// Test cases
	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{name: "Test1 OK", args: []string{"cmd",
			"-a", "127.0.0.1:9090", "-d", "sqlite://test.db", "-s", "secret",
			"-t", "1440", "-n", "5", "-l", "30", "-i", "Data Cleaner", "-k", "00112233445566778899aabbccddeeff",
			"-m", "http://engine:5002/", "-w", "60", "-x", "exports", "-o", "https://app.example.com,https://admin.example.com",
			"-u", "user", "-p", "password", "-b", "bucket", "-g", "us-west-1", "-e", "http://endpoint",
		}, expectPanic: false,
			expected: &Config{
				EndpointAddrHTTP:        "127.0.0.1:9090",
				DatabaseDSN:             "sqlite://test.db",
				SecretKey:               "secret",
				SessionValidityDuration: 1440 * time.Minute,
				LockoutThreshold:        5,
				LockoutDuration:         30 * time.Minute,
				TOTPIssuer:              "Data Cleaner",
				MFAEncryptionKey:        "00112233445566778899aabbccddeeff",
				CleanEngineURL:          "http://engine:5002/",
				CleanEngineTimeout:      60 * time.Second,
				ExportDir:               "exports",
				CORSAllowedOrigins:      []string{"https://app.example.com", "https://admin.example.com"},
				S3RootUser:              "user",
				S3RootPassword:          "password",
				S3Bucket:                "bucket",
				S3Region:                "us-west-1",
				S3BaseEndpoint:          "http://endpoint",
			}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.PanicOnError)

			os.Args = tt.args

			config := &Config{}

			if !tt.expectPanic {

				require.NotPanics(t, func() { parseFlags(config) })
				assert.Empty(t, cmp.Diff(config, tt.expected))
			} else {
				require.Panics(t, func() { parseFlags(config) })
			}
		})
	}
}

func TestSplitOrigins(t *testing.T) {
	assert.Equal(t, []string{"*"}, splitOrigins("*"))
	assert.Equal(t, []string{"https://a", "https://b"}, splitOrigins("https://a, https://b"))
	assert.Empty(t, splitOrigins(""))
}
