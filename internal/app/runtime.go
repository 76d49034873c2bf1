package app

import (
	"os"
	"sync"
)

// TestModeEnv is set to "1" by the testing package. Binaries started under
// tests wire their dependencies and exit instead of serving.
const TestModeEnv = "CATALOG_TEST_MODE"

var testMode = sync.OnceValue(func() bool {
	return os.Getenv(TestModeEnv) == "1"
})

// InTestMode reports whether the process should skip runtime side effects.
func InTestMode() bool {
	return testMode()
}
