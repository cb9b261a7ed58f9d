// Package guard marks the process as running under test. Import it for side
// effects from packages that must never reach real infrastructure.
package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("HOSTELHUB_TEST_MODE") == "" {
			_ = os.Setenv("HOSTELHUB_TEST_MODE", "1")
		}
	})
}
