package coordinator

import (
	"os"
	"time"
)

const (
	testTimeout = 2 * time.Second
	testTick    = 10 * time.Millisecond
)

func writeFile(path string) error {
	return os.WriteFile(path, []byte("audio"), 0o644)
}
