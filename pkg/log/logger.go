package log

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"

	cperrors "github.com/YuminosukeSato/carprice/pkg/errors"
)

var (
	providerMu     sync.RWMutex
	globalProvider LoggerProvider
)

// ZerologProvider creates zerolog-backed loggers that share one minimum level.
type ZerologProvider struct {
	base  zerolog.Logger
	level *atomic.Int32
}

// NewZerologProvider returns a provider writing JSON records to stderr.
func NewZerologProvider(level Level) *ZerologProvider {
	return NewZerologProviderWithWriter(os.Stderr, level)
}

// NewZerologProviderWithWriter returns a provider writing JSON records to w.
func NewZerologProviderWithWriter(w io.Writer, level Level) *ZerologProvider {
	lv := &atomic.Int32{}
	lv.Store(int32(level))
	return &ZerologProvider{
		base:  zerolog.New(w).With().Timestamp().Logger(),
		level: lv,
	}
}

// GetLogger implements LoggerProvider.
func (p *ZerologProvider) GetLogger() Logger {
	return &ZerologLogger{zl: p.base, level: p.level}
}

// GetLoggerWithName implements LoggerProvider.
func (p *ZerologProvider) GetLoggerWithName(name string) Logger {
	return &ZerologLogger{zl: p.base.With().Str(ComponentKey, name).Logger(), level: p.level}
}

// SetLevel implements LoggerProvider. It applies to loggers already handed out.
func (p *ZerologProvider) SetLevel(level Level) {
	p.level.Store(int32(level))
}

// ZerologLogger adapts zerolog to the Logger interface.
type ZerologLogger struct {
	zl    zerolog.Logger
	level *atomic.Int32
}

func (l *ZerologLogger) Debug(msg string, fields ...any) {
	if l.Enabled(context.Background(), LevelDebug) {
		addFields(l.zl.Debug(), fields).Msg(msg)
	}
}

func (l *ZerologLogger) Info(msg string, fields ...any) {
	if l.Enabled(context.Background(), LevelInfo) {
		addFields(l.zl.Info(), fields).Msg(msg)
	}
}

func (l *ZerologLogger) Warn(msg string, fields ...any) {
	if l.Enabled(context.Background(), LevelWarn) {
		addFields(l.zl.Warn(), fields).Msg(msg)
	}
}

func (l *ZerologLogger) Error(msg string, fields ...any) {
	if !l.Enabled(context.Background(), LevelError) {
		return
	}
	ev := l.zl.Error()
	if len(fields) > 0 {
		if err, ok := fields[0].(error); ok {
			ev = ev.Err(err)
			if st := extractStacktrace(err); st != "" {
				ev = ev.Str(StacktraceKey, st)
			}
			if m, ok := errorObject(err); ok {
				ev = ev.EmbedObject(m)
			}
			fields = fields[1:]
		}
	}
	addFields(ev, fields).Msg(msg)
}

func (l *ZerologLogger) With(fields ...any) Logger {
	ctx := l.zl.With()
	for i := 0; i+1 < len(fields); i += 2 {
		key := fmt.Sprint(fields[i])
		if err, ok := fields[i+1].(error); ok {
			ctx = ctx.Str(key, err.Error())
			continue
		}
		ctx = ctx.Interface(key, fields[i+1])
	}
	return &ZerologLogger{zl: ctx.Logger(), level: l.level}
}

func (l *ZerologLogger) Enabled(_ context.Context, level Level) bool {
	return level >= Level(l.level.Load())
}

func addFields(ev *zerolog.Event, fields []any) *zerolog.Event {
	for i := 0; i+1 < len(fields); i += 2 {
		key := fmt.Sprint(fields[i])
		switch v := fields[i+1].(type) {
		case error:
			ev = ev.AnErr(key, v)
		case zerolog.LogObjectMarshaler:
			ev = ev.Object(key, v)
		default:
			ev = ev.Interface(key, v)
		}
	}
	return ev
}

// errorObject finds the first error in the chain that knows how to describe
// itself to zerolog (the typed errors in pkg/errors).
func errorObject(err error) (zerolog.LogObjectMarshaler, bool) {
	for e := err; e != nil; e = errors.UnwrapOnce(e) {
		if m, ok := e.(zerolog.LogObjectMarshaler); ok {
			return m, true
		}
	}
	return nil, false
}

func extractStacktrace(err error) string {
	safeDetails := errors.GetSafeDetails(err).SafeDetails
	if len(safeDetails) > 0 {
		return safeDetails[0]
	}
	return ""
}

// SetProvider replaces the process-wide provider.
func SetProvider(p LoggerProvider) {
	providerMu.Lock()
	defer providerMu.Unlock()
	globalProvider = p
}

func provider() LoggerProvider {
	providerMu.RLock()
	p := globalProvider
	providerMu.RUnlock()
	if p != nil {
		return p
	}

	providerMu.Lock()
	defer providerMu.Unlock()
	if globalProvider == nil {
		globalProvider = NewZerologProvider(LevelInfo)
	}
	return globalProvider
}

// GetLogger returns the default logger of the process-wide provider.
func GetLogger() Logger {
	return provider().GetLogger()
}

// GetLoggerWithName returns a component logger of the process-wide provider.
func GetLoggerWithName(name string) Logger {
	return provider().GetLoggerWithName(name)
}

// SetupLogger installs a zerolog provider writing to w at the given level and
// routes library warnings (pkg/errors.Warn) through it.
func SetupLogger(w io.Writer, loglevel string) error {
	level, err := ToLogLevel(loglevel)
	if err != nil {
		return err
	}
	p := NewZerologProviderWithWriter(w, level)
	SetProvider(p)

	warnLogger := p.GetLoggerWithName("warnings")
	cperrors.SetZerologWarnFunc(func(warning error) {
		fields := []any{ErrorTypeKey, fmt.Sprintf("%T", warning)}
		if m, ok := warning.(zerolog.LogObjectMarshaler); ok {
			fields = append(fields, "warning", m)
		}
		warnLogger.Warn(warning.Error(), fields...)
	})
	return nil
}

// ToLogLevel parses "debug", "info", "warn" or "error".
func ToLogLevel(level string) (Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, cperrors.NewValidationError("log_level", "must be one of debug, info, warn, error", level)
	}
}
