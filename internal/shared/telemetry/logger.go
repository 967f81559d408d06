package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Level orders log severities.
type Level int

const (
	LevelInfo Level = iota
	LevelWarn
	LevelError
)

var levelNames = map[Level]string{LevelInfo: "info", LevelWarn: "warn", LevelError: "error"}

var (
	mu       sync.Mutex
	out      io.Writer
	minLevel = levelFromEnv(os.Getenv("LOG_LEVEL"))
)

// SetOutput redirects log lines to w and returns a func restoring the
// previous writer. A nil writer means stdout.
func SetOutput(w io.Writer) (restore func()) {
	mu.Lock()
	prev := out
	out = w
	mu.Unlock()
	return func() {
		mu.Lock()
		out = prev
		mu.Unlock()
	}
}

// SetLevel drops lines below l.
func SetLevel(l Level) {
	mu.Lock()
	minLevel = l
	mu.Unlock()
}

func Info(msg string, fields map[string]any)  { write(LevelInfo, msg, fields) }
func Warn(msg string, fields map[string]any)  { write(LevelWarn, msg, fields) }
func Error(msg string, fields map[string]any) { write(LevelError, msg, fields) }

// WithContext copies fields and adds the request ID carried by ctx, so
// worker and service lines can be joined with the originating API call.
func WithContext(ctx context.Context, fields map[string]any) map[string]any {
	merged := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		merged[k] = v
	}
	if id := RequestID(ctx); id != "" {
		if _, ok := merged["request_id"]; !ok {
			merged["request_id"] = id
		}
	}
	return merged
}

func write(level Level, msg string, fields map[string]any) {
	now := time.Now().UTC()
	entry := make(map[string]any, len(fields)+3)
	for k, v := range fields {
		switch k {
		case "ts", "level", "msg":
			k = "field_" + k
		}
		if err, ok := v.(error); ok && err != nil {
			v = err.Error()
		}
		entry[k] = v
	}
	entry["ts"] = now.Format(time.RFC3339Nano)
	entry["level"] = levelNames[level]
	entry["msg"] = msg

	line, err := json.Marshal(entry)
	if err != nil {
		line = []byte(fmt.Sprintf(`{"ts":%q,"level":"error","msg":"log encode failed","error":%q,"dropped_msg":%q}`,
			now.Format(time.RFC3339Nano), err.Error(), msg))
	}

	mu.Lock()
	defer mu.Unlock()
	if level < minLevel {
		return
	}
	w := out
	if w == nil {
		w = os.Stdout
	}
	_, _ = w.Write(append(line, '\n'))
}

func levelFromEnv(v string) Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}
