package logger

import (
	"encoding/json"
	"errors"
	"os"
	"testing"
)

func TestLogger_Log(t *testing.T) {
	tmpFile, err := os.CreateTemp("", "log-test-*")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(tmpFile.Name()) // nolint:errcheck
	defer tmpFile.Close()           // nolint:errcheck

	logger := New(LevelInfo, tmpFile)

	tests := []struct {
		name    string
		level   Level
		message string
		fields  Fields
		err     error
		want    bool // should log
	}{
		{
			name:    "info message",
			level:   LevelInfo,
			message: "test message",
			fields:  Fields{"key": "value"},
			want:    true,
		},
		{
			name:    "debug below threshold",
			level:   LevelDebug,
			message: "debug message",
			want:    false, // won't log (below INFO)
		},
		{
			name:    "error with err",
			level:   LevelError,
			message: "error occurred",
			err:     errors.New("test error"),
			want:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before, _ := tmpFile.Seek(0, 2) // Get current position

			logger.log(tt.level, tt.message, tt.fields, tt.err)

			after, _ := tmpFile.Seek(0, 2) // Get new position
			logged := after > before

			if logged != tt.want {
				t.Errorf("log() logged = %v, want %v", logged, tt.want)
			}
		})
	}
}

func TestLogEntry_JSON(t *testing.T) {
	entry := LogEntry{
		Timestamp: "2026-01-01T00:00:00Z",
		Level:     "INFO",
		Message:   "test message",
		Fields: Fields{
			"hall":  "D2 at Dietrick Hall",
			"items": 42,
		},
	}

	data, err := json.Marshal(entry)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var decoded LogEntry
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if decoded.Message != entry.Message {
		t.Errorf("Message = %v, want %v", decoded.Message, entry.Message)
	}
}

func TestCounters(t *testing.T) {
	c := NewCounters()

	c.IncrCounter("scraper.marker_missed")
	c.IncrCounter("scraper.marker_missed")
	c.IncrCounter("scraper.marker_missed")

	if got := c.Get("scraper.marker_missed"); got != 3 {
		t.Errorf("counter = %v, want 3", got)
	}
	if got := c.Get("never_incremented"); got != 0 {
		t.Errorf("unset counter = %v, want 0", got)
	}

	snapshot := c.Snapshot()
	if snapshot["scraper.marker_missed"] != 3 {
		t.Errorf("snapshot counter = %v, want 3", snapshot["scraper.marker_missed"])
	}

	// Snapshot is a copy, not a view.
	snapshot["scraper.marker_missed"] = 99
	if got := c.Get("scraper.marker_missed"); got != 3 {
		t.Errorf("counter after snapshot mutation = %v, want 3", got)
	}
}

func TestPackageLevelFunctions(t *testing.T) {
	// Test that package-level functions don't panic
	Info("test info", Fields{"key": "value"})
	Warn("test warning", nil)
	Error("test error", Fields{"component": "test"}, errors.New("test"))

	IncrCounter("test")

	if GetCounter("test") < 1 {
		t.Error("package-level counter not incremented")
	}
	if CountersSnapshot() == nil {
		t.Error("CountersSnapshot() returned nil")
	}
}

func TestLogger_Levels(t *testing.T) {
	tmpFile, _ := os.CreateTemp("", "log-test-*")
	defer os.Remove(tmpFile.Name()) // nolint:errcheck
	defer tmpFile.Close()           // nolint:errcheck

	tests := []struct {
		name      string
		minLevel  Level
		logLevel  Level
		shouldLog bool
	}{
		{"debug logs at debug", LevelDebug, LevelDebug, true},
		{"info logs at debug", LevelDebug, LevelInfo, true},
		{"debug doesn't log at info", LevelInfo, LevelDebug, false},
		{"error always logs", LevelDebug, LevelError, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := New(tt.minLevel, tmpFile)
			before, _ := tmpFile.Seek(0, 2)

			logger.log(tt.logLevel, "test", nil, nil)

			after, _ := tmpFile.Seek(0, 2)
			logged := after > before

			if logged != tt.shouldLog {
				t.Errorf("shouldLog = %v, want %v", logged, tt.shouldLog)
			}
		})
	}
}
