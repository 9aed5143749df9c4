package app

import (
	"os"
	"strconv"
	"sync"
)

// TestModeEnv marks a process started by the test suite.
const TestModeEnv = "BUKUBESAR_TEST_MODE"

var testMode = sync.OnceValue(readTestMode)

func readTestMode() bool {
	on, err := strconv.ParseBool(os.Getenv(TestModeEnv))
	return err == nil && on
}

// InTestMode reports whether binaries should return before opening stores,
// listeners or queues. The flag is read once per process.
func InTestMode() bool {
	return testMode()
}
