// Package report is PhotoCopy's structured event log: a JSONL file, one
// line per pipeline event (scan/validate/observe/freeze/render/collision/
// dispatch/related/error), filterable by level. The filename is stamped
// with a run id (github.com/google/uuid) instead of a bare timestamp,
// since two preview runs in the same test process can start within the
// same second.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/adsamcik/photocopy/internal/model"
)

// EventType identifies which pipeline stage an Event describes.
type EventType string

const (
	EventScan      EventType = "scan"
	EventValidate  EventType = "validate"
	EventObserve   EventType = "observe"
	EventFreeze    EventType = "freeze"
	EventRender    EventType = "render"
	EventCollision EventType = "collision"
	EventDispatch  EventType = "dispatch"
	EventRelated   EventType = "related"
	EventError     EventType = "error"
)

// Level is the event severity, a four-level debug/info/warning/error scheme.
type Level string

const (
	LevelDebug   Level = "debug"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

var levelPriority = map[Level]int{
	LevelDebug: 0, LevelInfo: 1, LevelWarning: 2, LevelError: 3,
}

// Event is a single JSONL record.
type Event struct {
	Timestamp    time.Time         `json:"ts"`
	Level        Level             `json:"level"`
	Event        EventType         `json:"event"`
	SrcPath      string            `json:"src_path,omitempty"`
	DestPath     string            `json:"dest_path,omitempty"`
	Disposition  string            `json:"disposition,omitempty"`
	Operation    string            `json:"operation,omitempty"`
	BytesWritten int64             `json:"bytes_written,omitempty"`
	DurationMS   int64             `json:"duration_ms,omitempty"`
	Error        string            `json:"error,omitempty"`
	Extra        map[string]string `json:"extra,omitempty"`
}

// EventLogger writes Events to a JSONL file. A nil *EventLogger is valid
// and makes every method a no-op, so callers never need a separate
// null-logger type.
type EventLogger struct {
	file     *os.File
	encoder  *json.Encoder
	mu       sync.Mutex
	path     string
	minLevel Level
}

// New creates an EventLogger writing to outputDir/events-<run-id>.jsonl.
func New(outputDir string, minLevel Level) (*EventLogger, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("report: create output dir: %w", err)
	}
	filename := fmt.Sprintf("events-%s.jsonl", uuid.NewString())
	path := filepath.Join(outputDir, filename)

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("report: create event log: %w", err)
	}
	return &EventLogger{file: f, encoder: json.NewEncoder(f), path: path, minLevel: minLevel}, nil
}

// Null returns a no-op logger.
func Null() *EventLogger { return nil }

func (l *EventLogger) Log(e *Event) {
	if l == nil || l.file == nil {
		return
	}
	if levelPriority[e.Level] < levelPriority[l.minLevel] {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	l.encoder.Encode(e)
}

// LogScan records one file surfaced by enumeration.
func (l *EventLogger) LogScan(path string, size int64) {
	l.Log(&Event{Level: LevelDebug, Event: EventScan, SrcPath: path, Extra: map[string]string{"size_bytes": fmt.Sprintf("%d", size)}})
}

// LogValidate records a Validator Chain decision.
func (l *EventLogger) LogValidate(path string, accepted bool, reason string) {
	level := LevelDebug
	if !accepted {
		level = LevelInfo
	}
	l.Log(&Event{Level: level, Event: EventValidate, SrcPath: path, Extra: map[string]string{
		"accepted": fmt.Sprintf("%t", accepted), "reason": reason,
	}})
}

// LogObserve records a scan-pass raw-value observation.
func (l *EventLogger) LogObserve(path, variable, value string) {
	l.Log(&Event{Level: LevelDebug, Event: EventObserve, SrcPath: path, Extra: map[string]string{
		"variable": variable, "value": value,
	}})
}

// LogFreeze records the scan/apply boundary.
func (l *EventLogger) LogFreeze(fileCount int) {
	l.Log(&Event{Level: LevelInfo, Event: EventFreeze, Extra: map[string]string{
		"file_count": fmt.Sprintf("%d", fileCount),
	}})
}

// LogRender records a template render producing a proposed destination.
func (l *EventLogger) LogRender(srcPath, destPath string) {
	l.Log(&Event{Level: LevelDebug, Event: EventRender, SrcPath: srcPath, DestPath: destPath})
}

// LogCollision records a Collision Resolver decision.
func (l *EventLogger) LogCollision(plan *model.Plan, err error) {
	level := LevelInfo
	errMsg := ""
	if err != nil {
		level = LevelWarning
		errMsg = err.Error()
	}
	e := &Event{Level: level, Event: EventCollision, Error: errMsg}
	if plan != nil {
		e.SrcPath = plan.Source.AbsPath
		e.DestPath = plan.DestPath
		e.Disposition = string(plan.Disposition)
	}
	l.Log(e)
}

// LogDispatch records the Operation Dispatcher's outcome for one Plan.
func (l *EventLogger) LogDispatch(plan *model.Plan, bytesWritten int64, duration time.Duration, err error) {
	level := LevelInfo
	errMsg := ""
	if err != nil {
		level = LevelError
		errMsg = err.Error()
	}
	l.Log(&Event{
		Level: level, Event: EventDispatch,
		SrcPath: plan.Source.AbsPath, DestPath: plan.DestPath,
		Disposition: string(plan.Disposition), Operation: string(plan.Operation),
		BytesWritten: bytesWritten, DurationMS: duration.Milliseconds(), Error: errMsg,
	})
}

// LogRelated records a sidecar file carried alongside its primary file's
// Plan.
func (l *EventLogger) LogRelated(srcPath, destPath string, err error) {
	level := LevelDebug
	errMsg := ""
	if err != nil {
		level = LevelWarning
		errMsg = err.Error()
	}
	l.Log(&Event{Level: level, Event: EventRelated, SrcPath: srcPath, DestPath: destPath, Error: errMsg})
}

// LogError records a standalone error not tied to a Plan (e.g. metadata or
// access errors surfaced during scan).
func (l *EventLogger) LogError(path string, err error) {
	l.Log(&Event{Level: LevelError, Event: EventError, SrcPath: path, Error: err.Error()})
}

func (l *EventLogger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}

// Path returns the event log's file path, or "" for a nil logger.
func (l *EventLogger) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}
