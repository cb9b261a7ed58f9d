// Package testing switches the process into test mode when imported by a
// test binary: no simulated login latency and in-memory storage.
package testing

import (
	"os"
	"sync"
	stdtesting "testing"
)

var once sync.Once

func ensureTestMode() {
	once.Do(func() {
		_ = os.Setenv("HOSTELHUB_TEST_MODE", "1")
		for key, value := range map[string]string{
			"AUTH_LATENCY":   "0s",
			"STORAGE_DRIVER": "memory",
		} {
			if os.Getenv(key) == "" {
				_ = os.Setenv(key, value)
			}
		}
	})
}

func init() {
	ensureTestMode()
}

func TestMain(m *stdtesting.M) {
	ensureTestMode()
	os.Exit(m.Run())
}
