package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Sink is the structured diagnostic sink handed to generation components.
// Debug records are dropped unless the owning component was built with debug
// enabled, independent of the underlying zap level.
type Sink struct {
	z     *zap.Logger
	debug bool
}

// NewSink wraps z for a named component. A nil z yields a no-op sink.
func NewSink(z *zap.Logger, component string, debug bool) *Sink {
	if z == nil {
		z = zap.NewNop()
	}
	if component != "" {
		z = z.With(zap.String("component", component))
	}
	return &Sink{z: z, debug: debug}
}

// Nop returns a sink that discards everything.
func Nop() *Sink {
	return &Sink{z: zap.NewNop()}
}

// Log emits a single record at level.
func (s *Sink) Log(level zapcore.Level, msg string, fields ...zap.Field) {
	if ce := s.z.Check(level, msg); ce != nil {
		ce.Write(fields...)
	}
}

func (s *Sink) Info(msg string, fields ...zap.Field)  { s.Log(zapcore.InfoLevel, msg, fields...) }
func (s *Sink) Warn(msg string, fields ...zap.Field)  { s.Log(zapcore.WarnLevel, msg, fields...) }
func (s *Sink) Error(msg string, fields ...zap.Field) { s.Log(zapcore.ErrorLevel, msg, fields...) }

// Debug is a no-op unless the sink was constructed in debug mode.
func (s *Sink) Debug(msg string, fields ...zap.Field) {
	if !s.debug {
		return
	}
	s.Log(zapcore.DebugLevel, msg, fields...)
}

// DebugEnabled reports whether Debug records are emitted.
func (s *Sink) DebugEnabled() bool { return s.debug }

// Named derives a child sink tagged with a subcomponent, keeping the debug
// mode. The parent's component field is left as is.
func (s *Sink) Named(subcomponent string) *Sink {
	return &Sink{z: s.z.With(zap.String("subcomponent", subcomponent)), debug: s.debug}
}

// With derives a child sink carrying extra fields.
func (s *Sink) With(fields ...zap.Field) *Sink {
	return &Sink{z: s.z.With(fields...), debug: s.debug}
}

// Zap exposes the underlying logger for libraries that want one.
func (s *Sink) Zap() *zap.Logger { return s.z }
