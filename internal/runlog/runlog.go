// Package runlog writes the append-only event log of a run. Each record is
// one JSON line: {"timestamp": RFC3339 UTC, "event_type": ..., "payload": {...}}.
package runlog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// FileName is the log file written inside a run directory.
const FileName = "run_log.jsonl"

// Event types recorded by the pipeline.
const (
	RunStarted         = "run_started"
	DriftChecked       = "drift_checked"
	DeckIRLoaded       = "deckir_loaded"
	PreflightCompleted = "preflight_completed"
	RenderCompleted    = "render_completed"
	ArtifactsPublished = "artifacts_published"
	RunFailed          = "run_failed"
)

// Payload is the free-form body of an event.
type Payload map[string]any

// Event is a decoded log record.
type Event struct {
	Timestamp string         `json:"timestamp"`
	EventType string         `json:"event_type"`
	Payload   map[string]any `json:"payload"`
}

// Log appends events to a JSONL file.
type Log struct {
	path   string
	file   *os.File
	logger *zap.Logger
}

// Option customises a Log.
type Option func(*options)

type options struct {
	clock zapcore.Clock
}

// WithClock overrides the time source used for timestamps.
func WithClock(clock zapcore.Clock) Option {
	return func(o *options) {
		if clock != nil {
			o.clock = clock
		}
	}
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:    "timestamp",
		MessageKey: "event_type",
		LineEnding: zapcore.DefaultLineEnding,
		EncodeTime: func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendString(t.UTC().Format(time.RFC3339))
		},
		EncodeDuration: zapcore.StringDurationEncoder,
	}
}

// Open opens (or creates) the log at path in append mode.
func Open(path string, opts ...Option) (*Log, error) {
	o := options{clock: zapcore.DefaultClock}
	for _, opt := range opts {
		opt(&o)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("runlog: create dir: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("runlog: open %s: %w", path, err)
	}

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig()), zapcore.AddSync(file), zapcore.DebugLevel)
	return &Log{
		path:   path,
		file:   file,
		logger: zap.New(core, zap.WithClock(o.clock)),
	}, nil
}

// Path returns the log file location.
func (l *Log) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Record appends one event. A nil payload is written as an empty object.
func (l *Log) Record(eventType string, payload Payload) {
	if l == nil {
		return
	}
	if payload == nil {
		payload = Payload{}
	}
	l.logger.Info(eventType, zap.Any("payload", map[string]any(payload)))
}

// Close flushes and closes the file.
func (l *Log) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	_ = l.logger.Sync()
	err := l.file.Close()
	l.file = nil
	return err
}

// ReadEvents decodes every record of the log at path.
func ReadEvents(path string) ([]Event, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("runlog: open %s: %w", path, err)
	}
	defer file.Close()

	var events []Event
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for line := 1; scanner.Scan(); line++ {
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var event Event
		if err := json.Unmarshal(scanner.Bytes(), &event); err != nil {
			return nil, fmt.Errorf("runlog: %s line %d: %w", path, line, err)
		}
		events = append(events, event)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("runlog: read %s: %w", path, err)
	}
	return events, nil
}
