package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("HAULPOINT_TEST_MODE") == "" {
			_ = os.Setenv("HAULPOINT_TEST_MODE", "1")
		}
	})
}
