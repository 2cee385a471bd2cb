package debug

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"
)

var (
	file    *os.File
	mu      sync.Mutex
	enabled bool

	// shared by every component; output is swapped by Enable/Disable
	logger = log.NewWithOptions(io.Discard, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.000",
		Level:           log.InfoLevel,
	})
)

// DefaultPath is ~/.config/go-keytrack/debug.log
func DefaultPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".config", "go-keytrack", "debug.log")
}

// Logger returns the process logger. It discards everything until Enable is called.
func Logger() *log.Logger {
	return logger
}

// Enable starts logging to path at the given level. A path of "-" logs to stderr.
func Enable(path string, level log.Level) error {
	mu.Lock()
	defer mu.Unlock()

	if enabled {
		logger.SetLevel(level)
		return nil
	}

	var w io.Writer = os.Stderr
	if path != "-" {
		// Ensure directory exists
		os.MkdirAll(filepath.Dir(path), 0755)

		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
		if err != nil {
			return fmt.Errorf("open debug log: %w", err)
		}
		file = f
		w = f
	}

	logger.SetOutput(w)
	logger.SetLevel(level)
	enabled = true

	logger.Debug("=== Debug logging started ===", "path", path)
	return nil
}

// Disable stops logging and closes the log file
func Disable() {
	mu.Lock()
	defer mu.Unlock()

	logger.SetOutput(io.Discard)
	if file != nil {
		file.Close()
		file = nil
	}
	enabled = false
}

// Log writes a debug message tagged with a category
func Log(category, format string, args ...any) {
	logger.Debug(fmt.Sprintf(format, args...), "category", category)
}

// LogEvery logs only every N calls (use for high-frequency events)
var counters = make(map[string]int)

func LogEvery(n int, category, format string, args ...any) {
	mu.Lock()
	key := category + format
	counters[key]++
	count := counters[key]
	mu.Unlock()

	if count%n == 0 {
		Log(category, format+" (every %d, count=%d)", append(args, n, count)...)
	}
}
