// Package testutils holds helpers shared by tests across packages.
package testutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/joho/godotenv"
	"github.com/nfrund/gatehouse/internal/config"
)

// testDefaults satisfy config validation when .env.test does not set them.
var testDefaults = map[string]string{
	"SESSION_SECRET": "a-very-secret-key-for-testing-!",
	"TOKEN_SECRET":   "test-token-secret",
	"LOCAL_DB_DSN":   ":memory:",
	"EMAIL_PROVIDER": "log",
}

// ConfigForTests loads .env.test from the project root when it exists and
// returns the parsed configuration. Variables are set with t.Setenv, so
// they are restored when the test ends.
func ConfigForTests(t *testing.T) *config.Config {
	t.Helper()

	// Find the project root by looking for go.mod.
	path, _ := os.Getwd()
	for {
		if _, err := os.Stat(filepath.Join(path, "go.mod")); err == nil {
			break
		}
		if path == filepath.Dir(path) {
			t.Fatalf("could not find project root with go.mod")
		}
		path = filepath.Dir(path)
	}

	env, err := godotenv.Read(filepath.Join(path, ".env.test"))
	if err != nil && !os.IsNotExist(err) {
		t.Fatalf("failed to load .env.test file: %v", err)
	}
	for key, value := range testDefaults {
		if _, ok := env[key]; !ok && os.Getenv(key) == "" {
			t.Setenv(key, value)
		}
	}
	for key, value := range env {
		t.Setenv(key, value)
	}

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("invalid test configuration: %v", err)
	}
	return cfg
}
