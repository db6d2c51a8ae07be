package bot

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.opencensus.io/trace"
)

var spanLoggingOnce sync.Once

// EnableSpanLogging samples every span and writes finished spans to logf.
// Only the first call has an effect.
func EnableSpanLogging(logf Logger) {
	spanLoggingOnce.Do(func() {
		trace.RegisterExporter(spanLogger{logf: logf})
		trace.ApplyConfig(trace.Config{DefaultSampler: trace.AlwaysSample()})
	})
}

type spanLogger struct {
	logf Logger
}

func (e spanLogger) ExportSpan(s *trace.SpanData) {
	e.logf("span %s took %s status=%d%s\n", s.Name, s.EndTime.Sub(s.StartTime), s.Status.Code, formatAttributes(s.Attributes))
}

func formatAttributes(attrs map[string]interface{}) string {
	if len(attrs) == 0 {
		return ""
	}
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, k := range keys {
		sb.WriteString(" ")
		sb.WriteString(k)
		sb.WriteString("=")
		sb.WriteString(fmt.Sprint(attrs[k]))
	}
	return sb.String()
}
