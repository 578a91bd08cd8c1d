// Package testing puts binaries into test mode when imported by a test.
package testing

import (
	"os"
	"sync"
	stdtesting "testing"
)

var once sync.Once

func ensureTestMode() {
	once.Do(func() {
		_ = os.Setenv("FRUITLINE_TEST_MODE", "1")
		defaults := map[string]string{
			"GOTENBERG_URL":     "http://127.0.0.1:0",
			"UPSTREAM_BASE_URL": "http://127.0.0.1:0/api",
		}
		for key, value := range defaults {
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
