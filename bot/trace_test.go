package bot

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"go.opencensus.io/trace"
)

func TestFormatAttributes(t *testing.T) {
	tests := []struct {
		name  string
		attrs map[string]interface{}
		want  string
	}{
		{"nil", nil, ""},
		{"empty", map[string]interface{}{}, ""},
		{"single", map[string]interface{}{"command": "/hello"}, " command=/hello"},
		{
			"sorted keys",
			map[string]interface{}{"user": "U1", "command": "/review", "rows": int64(3), "ok": true},
			" command=/review ok=true rows=3 user=U1",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if actual := formatAttributes(tt.attrs); actual != tt.want {
				t.Errorf("expected: %q\nactual:%q", tt.want, actual)
			}
		})
	}
}

func TestSpanLoggerExportSpan(t *testing.T) {
	var got string
	e := spanLogger{logf: func(message string, args ...interface{}) {
		got = fmt.Sprintf(message, args...)
	}}

	start := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	e.ExportSpan(&trace.SpanData{
		Name:       "b.Dispatch",
		StartTime:  start,
		EndTime:    start.Add(1500 * time.Millisecond),
		Status:     trace.Status{Code: trace.StatusCodeInternal},
		Attributes: map[string]interface{}{"user": "U1", "command": "/hello"},
	})

	expected := "span b.Dispatch took 1.5s status=13 command=/hello user=U1\n"
	if got != expected {
		t.Errorf("expected: %q\nactual:%q", expected, got)
	}
}

func TestEnableSpanLogging(t *testing.T) {
	var (
		mu    sync.Mutex
		lines []string
	)
	EnableSpanLogging(func(message string, args ...interface{}) {
		mu.Lock()
		defer mu.Unlock()
		lines = append(lines, fmt.Sprintf(message, args...))
	})

	_, span := trace.StartSpan(context.Background(), "span.logging.test")
	span.AddAttributes(trace.StringAttribute("command", "/help"))
	span.End()

	mu.Lock()
	defer mu.Unlock()
	for _, l := range lines {
		if strings.HasPrefix(l, "span span.logging.test took ") && strings.HasSuffix(l, " command=/help\n") {
			return
		}
	}
	t.Errorf("span was not logged, got %q", lines)
}
