// Package testing forces test mode for every package that blank-imports it,
// so no test ever touches the real store or broker.
package testing

import (
	"os"
	"sync"
	stdtesting "testing"
)

// testEnv is applied before any test runs. Values already present in the
// environment win.
var testEnv = [][2]string{
	{"BUKUBESAR_TEST_MODE", "1"},
	{"ADMIN_SECRET", "test-secret"},
	{"STORE_DRIVER", "none"},
	{"LOG_LEVEL", "error"},
}

var once sync.Once

func ensureTestMode() {
	once.Do(func() {
		for _, kv := range testEnv {
			if kv[0] == "BUKUBESAR_TEST_MODE" || os.Getenv(kv[0]) == "" {
				_ = os.Setenv(kv[0], kv[1])
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
