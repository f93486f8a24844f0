/*
 * Copyright (c) 2025, WSO2 LLC. (http://www.wso2.com).
 *
 * WSO2 LLC. licenses this file to you under the Apache License,
 * Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
 * KIND, either express or implied.  See the License for the
 * specific language governing permissions and limitations
 * under the License.
 */

package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

const serviceName = "record-deduplication-service"

// Output formats accepted by InitWithFormat.
const (
	FormatText = "text"
	FormatJSON = "json"
)

var logger atomic.Pointer[Logger]

// Logger wraps a slog logger with the service's field helpers.
type Logger struct {
	internal *slog.Logger
}

// GetLogger returns the process logger. An INFO text logger is installed when Init was never
// called.
func GetLogger() *Logger {
	if l := logger.Load(); l != nil {
		return l
	}
	logger.CompareAndSwap(nil, newLogger(os.Stdout, slog.LevelInfo, FormatText))
	return logger.Load()
}

// Init installs a text logger writing to stdout at the given level.
func Init(logLevel string) error {
	return InitWithFormat(logLevel, FormatText)
}

// InitWithFormat installs a logger writing to stdout at the given level and format.
func InitWithFormat(logLevel, format string) error {
	return Configure(os.Stdout, logLevel, format)
}

// Configure installs a logger writing to w. An empty format means text.
func Configure(w io.Writer, logLevel, format string) error {
	level, err := parseLogLevel(logLevel)
	if err != nil {
		return fmt.Errorf("error parsing log level: %w", err)
	}
	format = strings.ToLower(strings.TrimSpace(format))
	switch format {
	case "", FormatText, FormatJSON:
	default:
		return fmt.Errorf("unsupported log format '%s'", format)
	}
	logger.Store(newLogger(w, level, format))
	return nil
}

func newLogger(w io.Writer, level slog.Level, format string) *Logger {
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler = slog.NewTextHandler(w, opts)
	if format == FormatJSON {
		handler = slog.NewJSONHandler(w, opts)
	}
	return &Logger{internal: slog.New(handler).With(slog.String("service", serviceName))}
}

// DebugEnabled reports whether debug output is emitted. Callers use it to skip building
// expensive debug payloads.
func (l *Logger) DebugEnabled() bool {
	return l.internal.Enabled(context.Background(), slog.LevelDebug)
}

// With returns a logger that adds fields to every entry.
func (l *Logger) With(fields ...Field) *Logger {
	return &Logger{
		internal: l.internal.With(convertFields(fields)...),
	}
}

func (l *Logger) Info(msg string, fields ...Field) {
	l.internal.Info(msg, convertFields(fields)...)
}

func (l *Logger) Debug(msg string, fields ...Field) {
	l.internal.Debug(msg, convertFields(fields)...)
}

func (l *Logger) Warn(msg string, fields ...Field) {
	l.internal.Warn(msg, convertFields(fields)...)
}

func (l *Logger) Error(msg string, fields ...Field) {
	l.internal.Error(msg, convertFields(fields)...)
}

// parseLogLevel accepts the slog level names in any case. An empty level means INFO.
func parseLogLevel(logLevel string) (slog.Level, error) {
	var level slog.Level
	if strings.TrimSpace(logLevel) == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(strings.TrimSpace(logLevel))); err != nil {
		return slog.LevelError, err
	}
	return level, nil
}

func convertFields(fields []Field) []any {
	attrs := make([]any, len(fields))
	for i, field := range fields {
		attrs[i] = slog.Any(field.Key, field.Value)
	}
	return attrs
}
