package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// EventType represents the type of event
type EventType string

const (
	EventPlan     EventType = "plan"
	EventConflict EventType = "conflict"
	EventApply    EventType = "apply"
	EventSkip     EventType = "skip"
	EventUndo     EventType = "undo"
	EventBackup   EventType = "backup"
	EventError    EventType = "error"
)

// EventLevel represents the severity level
type EventLevel string

const (
	LevelDebug   EventLevel = "debug"
	LevelInfo    EventLevel = "info"
	LevelWarning EventLevel = "warning"
	LevelError   EventLevel = "error"
)

// levelPriority maps event levels to numeric priorities for comparison
var levelPriority = map[EventLevel]int{
	LevelDebug:   0,
	LevelInfo:    1,
	LevelWarning: 2,
	LevelError:   3,
}

// Event represents a single event in a plan/apply/undo run
type Event struct {
	Timestamp    time.Time         `json:"ts"`
	Level        EventLevel        `json:"level"`
	Event        EventType         `json:"event"`
	OriginalPath string            `json:"original_path,omitempty"`
	TargetPath   string            `json:"target_path,omitempty"`
	Source       string            `json:"source,omitempty"`
	Reason       string            `json:"reason,omitempty"`
	Error        string            `json:"error,omitempty"`
	Extra        map[string]string `json:"extra,omitempty"`
}

// EventLogger writes events to a JSONL file
type EventLogger struct {
	file     *os.File
	encoder  *json.Encoder
	mu       sync.Mutex
	path     string
	minLevel EventLevel
}

// NewEventLogger creates a new event logger with a minimum log level.
// minLevel determines which events are written (e.g., LevelInfo skips
// LevelDebug).
func NewEventLogger(outputDir string, minLevel EventLevel) (*EventLogger, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	timestamp := time.Now().Format("20060102-150405")
	path := filepath.Join(outputDir, fmt.Sprintf("events-%s.jsonl", timestamp))

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create event log: %w", err)
	}

	return &EventLogger{
		file:     file,
		encoder:  json.NewEncoder(file),
		path:     path,
		minLevel: minLevel,
	}, nil
}

// Log writes an event to the JSONL file
func (l *EventLogger) Log(event *Event) error {
	if l == nil || l.file == nil {
		return nil // Silently ignore if logger not initialized
	}

	if levelPriority[event.Level] < levelPriority[l.minLevel] {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	if err := l.encoder.Encode(event); err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	return nil
}

// LogPlan logs a planned rename row
func (l *EventLogger) LogPlan(originalPath, targetPath, source string, changed bool) error {
	level := LevelDebug
	if changed {
		level = LevelInfo
	}

	return l.Log(&Event{
		Level:        level,
		Event:        EventPlan,
		OriginalPath: originalPath,
		TargetPath:   targetPath,
		Source:       source,
		Extra: map[string]string{
			"changed": fmt.Sprintf("%t", changed),
		},
	})
}

// LogConflict logs a target name conflict detected during planning
func (l *EventLogger) LogConflict(originalPath, targetPath, reason string) error {
	return l.Log(&Event{
		Level:        LevelWarning,
		Event:        EventConflict,
		OriginalPath: originalPath,
		TargetPath:   targetPath,
		Reason:       reason,
	})
}

// LogApply logs the outcome of one rename
func (l *EventLogger) LogApply(originalPath, targetPath string, err error) error {
	level := LevelInfo
	errMsg := ""
	if err != nil {
		level = LevelError
		errMsg = err.Error()
	}

	return l.Log(&Event{
		Level:        level,
		Event:        EventApply,
		OriginalPath: originalPath,
		TargetPath:   targetPath,
		Error:        errMsg,
	})
}

// LogSkip logs a row skipped at apply time
func (l *EventLogger) LogSkip(originalPath, targetPath, reason string) error {
	return l.Log(&Event{
		Level:        LevelWarning,
		Event:        EventSkip,
		OriginalPath: originalPath,
		TargetPath:   targetPath,
		Reason:       reason,
	})
}

// LogBackup logs a backup copy made before a rename
func (l *EventLogger) LogBackup(originalPath, backupPath string) error {
	return l.Log(&Event{
		Level:        LevelDebug,
		Event:        EventBackup,
		OriginalPath: originalPath,
		TargetPath:   backupPath,
	})
}

// LogUndo logs the reversal of one rename
func (l *EventLogger) LogUndo(currentPath, originalPath, reason string) error {
	level := LevelInfo
	if reason != "" {
		level = LevelWarning
	}

	return l.Log(&Event{
		Level:        level,
		Event:        EventUndo,
		OriginalPath: originalPath,
		TargetPath:   currentPath,
		Reason:       reason,
	})
}

// LogError logs an error event
func (l *EventLogger) LogError(event EventType, originalPath string, err error) error {
	return l.Log(&Event{
		Level:        LevelError,
		Event:        event,
		OriginalPath: originalPath,
		Error:        err.Error(),
	})
}

// Close closes the event log file
func (l *EventLogger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	return l.file.Close()
}

// Path returns the path to the event log file
func (l *EventLogger) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// NullLogger returns a no-op event logger
func NullLogger() *EventLogger {
	return nil
}
