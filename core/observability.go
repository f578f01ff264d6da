package core

import (
	"context"
	"maps"
	"slices"
	"strings"
	"time"
)

const metricPrefix = "storeauth."

type logLevel int

const (
	levelDebug logLevel = iota
	levelWarn
	levelError
)

// observeOperation emits one counter, one latency histogram and one log entry
// per service call. Metric tags carry only operation and status; store
// identifiers are unbounded and stay in the log fields.
func (s *Service) observeOperation(
	ctx context.Context,
	startedAt time.Time,
	operation string,
	err error,
	fields map[string]any,
) {
	if s == nil {
		return
	}
	operation = normalizeOperation(operation)
	status := "success"
	if err != nil {
		status = "failure"
	}
	elapsed := time.Since(startedAt)
	tags := map[string]string{"operation": operation, "status": status}

	if s.metricsRecorder != nil {
		s.metricsRecorder.IncCounter(ctx, metricPrefix+operation+".total", 1, cloneTags(tags))
		s.metricsRecorder.ObserveHistogram(ctx, metricPrefix+operation+".duration_ms",
			float64(elapsed.Milliseconds()), cloneTags(tags))
	}

	entry := cloneFields(fields)
	entry["event_type"] = operation
	entry["status"] = status
	entry["duration_ms"] = elapsed.Milliseconds()
	if err != nil {
		entry["error"] = err.Error()
		s.log(ctx, levelError, operation+" failed", entry)
		return
	}
	s.log(ctx, levelDebug, operation+" succeeded", entry)
}

func (s *Service) logWarn(ctx context.Context, message string, fields map[string]any) {
	s.log(ctx, levelWarn, message, fields)
}

func (s *Service) log(ctx context.Context, level logLevel, message string, fields map[string]any) {
	if s == nil || s.logger == nil {
		return
	}
	fields = RedactSensitiveMap(fields)
	logger := s.logger
	if ctx != nil {
		logger = logger.WithContext(ctx)
	}
	var args []any
	if fieldsLogger, ok := logger.(FieldsLogger); ok {
		logger = fieldsLogger.WithFields(cloneFields(fields))
	} else {
		args = make([]any, 0, len(fields)*2)
		for _, key := range slices.Sorted(maps.Keys(fields)) {
			args = append(args, key, fields[key])
		}
	}
	switch level {
	case levelError:
		logger.Error(message, args...)
	case levelWarn:
		logger.Warn(message, args...)
	default:
		logger.Debug(message, args...)
	}
}

func normalizeOperation(operation string) string {
	operation = strings.NewReplacer(" ", "_", "-", "_").Replace(strings.ToLower(strings.TrimSpace(operation)))
	if operation == "" {
		return "unknown"
	}
	return operation
}

func cloneFields(fields map[string]any) map[string]any {
	if fields == nil {
		return map[string]any{}
	}
	return maps.Clone(fields)
}

func cloneTags(tags map[string]string) map[string]string {
	if tags == nil {
		return map[string]string{}
	}
	return maps.Clone(tags)
}
