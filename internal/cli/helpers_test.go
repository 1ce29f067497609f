package cli

import (
	"testing"
	"time"

	"github.com/mrz1836/vcsync/internal/config"
)

// testConfig returns a minimal resolved configuration for unit tests.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Timeout: 15 * time.Second,
		Jobs:    4,
		Tools:   map[string]string{},
	}
}
