// Package logging builds the bot's loggers and archives per-run logs.
package logging

import (
	"bytes"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/drewdunne/updatesbot/internal/config"
)

// Sink collects one run's log in memory so it can be attached to reports
// and archived at the end of the run.
type Sink struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

// NewSink returns an empty sink.
func NewSink() *Sink {
	return &Sink{}
}

// Write implements zapcore.WriteSyncer.
func (s *Sink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

// Sync implements zapcore.WriteSyncer.
func (s *Sink) Sync() error { return nil }

// String returns everything logged so far.
func (s *Sink) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

// Bytes returns a copy of everything logged so far.
func (s *Sink) Bytes() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.buf.Bytes()...)
}

// New builds a logger writing to stderr at the configured level and format.
// When sink is non-nil, every entry at debug level and above is also
// written to it as plain console text.
func New(cfg config.LoggingConfig, sink *Sink) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parsing log level: %w", err)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var stderrEnc zapcore.Encoder
	switch cfg.Format {
	case "json":
		stderrEnc = zapcore.NewJSONEncoder(encCfg)
	case "console", "":
		consoleCfg := encCfg
		consoleCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		stderrEnc = zapcore.NewConsoleEncoder(consoleCfg)
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	cores := []zapcore.Core{
		zapcore.NewCore(stderrEnc, zapcore.Lock(os.Stderr), level),
	}
	if sink != nil {
		sinkCfg := encCfg
		sinkCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(sinkCfg), sink, zapcore.DebugLevel))
	}

	return zap.New(zapcore.NewTee(cores...)), nil
}

// NewSinkLogger returns a logger that writes only to sink. Used in tests
// and for dry runs without stderr noise.
func NewSinkLogger(sink *Sink) *zap.Logger {
	encCfg := zap.NewDevelopmentEncoderConfig()
	return zap.New(zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), sink, zapcore.DebugLevel))
}
