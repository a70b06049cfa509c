package utils

import (
	"os"
	"testing"
)

func TestMain(m *testing.M) {
	// Config is loaded lazily and refuses to start without a secret.
	if os.Getenv("JWT_SECRET") == "" {
		os.Setenv("JWT_SECRET", "test-secret")
	}
	os.Exit(m.Run())
}
