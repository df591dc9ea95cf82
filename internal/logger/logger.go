// internal/logger/logger.go
//
// Structured JSON logger (Zap + Lumberjack).
//
// Context
// -------
// The web binary writes lifecycle, access, and error events to one JSON log
// per day under `<root>/logs/YYYY-MM-DD.log`.  When running in an
// interactive TTY the same events are tee'd, colourised, to stdout.
// Rotation, compression, and retention are handled by Lumberjack.
//
// The diagnostics CLI has no log directory of its own, so it uses Console,
// which writes human-readable lines to stderr only.
//
// Usage
// -----
//
//	log, err := logger.New(cfg.Paths.Root, runningInTTY())
//	if err != nil { … }
//	log.Infow("backend online", "url", cfg.Backend.URL)
//
// Notes
// -----
// • ISO-8601 timestamps and lowercase levels.
// • Errors are written to the same sink via `ErrorOutput`.
package logger

import (
	"os"
	"path/filepath"
	"time"

	"github.com/natefinch/lumberjack"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var encCfg = zapcore.EncoderConfig{
	TimeKey:      "ts",
	LevelKey:     "level",
	MessageKey:   "msg",
	CallerKey:    "caller",
	EncodeTime:   zapcore.ISO8601TimeEncoder,
	EncodeLevel:  zapcore.LowercaseLevelEncoder,
	EncodeCaller: zapcore.ShortCallerEncoder,
}

// New returns a *zap.SugaredLogger that writes JSON to logs/YYYY-MM-DD.log.
// When tee == true a coloured console core is attached too.  The logger is
// installed as the process-wide default via zap.ReplaceGlobals.
func New(rootDir string, tee bool) (*zap.SugaredLogger, error) {
	logDir := filepath.Join(rootDir, "logs")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, err
	}

	fileSink := &lumberjack.Logger{
		Filename:   filepath.Join(logDir, time.Now().Format("2006-01-02")+".log"),
		MaxSize:    50, // MB
		MaxBackups: 7,
		MaxAge:     14, // days
		Compress:   true,
	}

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(fileSink), zap.InfoLevel),
	}
	if tee {
		consoleCfg := encCfg
		consoleCfg.EncodeLevel = zapcore.LowercaseColorLevelEncoder
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(consoleCfg),
			zapcore.AddSync(os.Stdout),
			zap.InfoLevel,
		))
	}

	z := zap.New(
		zapcore.NewTee(cores...),
		zap.AddCaller(),
		zap.ErrorOutput(zapcore.AddSync(fileSink)),
	).Sugar()

	zap.ReplaceGlobals(z.Desugar())
	z.Infow("logger online", "tee", tee, "dir", logDir)
	return z, nil
}

// Console returns a stderr-only console logger at the given level and makes
// it the global default.  Used by command-line tools.
func Console(level zapcore.Level) *zap.SugaredLogger {
	z := zap.New(zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.Lock(os.Stderr),
		level,
	)).Sugar()
	zap.ReplaceGlobals(z.Desugar())
	return z
}
