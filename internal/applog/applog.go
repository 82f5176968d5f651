// Package applog builds the process-wide structured logger. It mirrors
// the teacher's rotating-file log manager (cmd/server/main.go) but
// writes through github.com/Laisky/zap instead of the stdlib log
// package, matching the structured-logging convention used for
// comparable services elsewhere in the stack (e.g.
// library/search/manager.go's named zap loggers).
package applog

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Laisky/zap"
	"github.com/Laisky/zap/zapcore"
)

// Config controls log level, destination, and rotation.
type Config struct {
	Level      string // debug, info, warn, error
	FilePath   string // empty disables file logging
	MaxSizeMB  int
	MaxAgeDays int
	MaxBackups int
	Console    bool // also write to stderr
}

// DefaultConfig returns sane defaults for local/dev use.
func DefaultConfig() Config {
	return Config{
		Level:      "info",
		MaxSizeMB:  50,
		MaxAgeDays: 7,
		MaxBackups: 5,
		Console:    true,
	}
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// New builds a root *zap.Logger from cfg. The returned cleanup function
// flushes buffered log entries and stops the rotation goroutine; callers
// should defer it.
func New(cfg Config) (*zap.Logger, func(), error) {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewJSONEncoder(encoderCfg)

	var syncers []zapcore.WriteSyncer
	var rotator *rotatingWriter
	if cfg.FilePath != "" {
		r, err := newRotatingWriter(cfg.FilePath, cfg.MaxSizeMB, cfg.MaxAgeDays, cfg.MaxBackups)
		if err != nil {
			return nil, func() {}, err
		}
		rotator = r
		syncers = append(syncers, zapcore.AddSync(r))
	}
	if cfg.Console || len(syncers) == 0 {
		syncers = append(syncers, zapcore.AddSync(os.Stderr))
	}

	core := zapcore.NewCore(encoder, zapcore.NewMultiWriteSyncer(syncers...), parseLevel(cfg.Level))
	logger := zap.New(core, zap.AddCaller())

	cleanup := func() {
		if rotator != nil {
			rotator.Close()
		}
		_ = logger.Sync()
	}
	return logger, cleanup, nil
}

// rotatingWriter rotates its underlying file by approximate size and
// prunes files beyond MaxAgeDays/MaxBackups, following the same rename-
// and-reopen approach as the teacher's log manager, but behind a mutex
// so concurrent zap cores can share one writer safely.
type rotatingWriter struct {
	mu         sync.Mutex
	path       string
	maxSize    int64
	maxAge     time.Duration
	maxBackups int
	file       *os.File
	size       int64
	stop       chan struct{}
	done       chan struct{}
}

func newRotatingWriter(path string, maxSizeMB, maxAgeDays, maxBackups int) (*rotatingWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	w := &rotatingWriter{
		path:       path,
		maxSize:    int64(maxSizeMB) * 1024 * 1024,
		maxAge:     time.Duration(maxAgeDays) * 24 * time.Hour,
		maxBackups: maxBackups,
		file:       f,
		size:       info.Size(),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
	go w.cleanupLoop()
	return w, nil
}

func (w *rotatingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.maxSize > 0 && w.size+int64(len(p)) > w.maxSize {
		if err := w.rotateLocked(); err != nil {
			return 0, err
		}
	}
	n, err := w.file.Write(p)
	w.size += int64(n)
	return n, err
}

func (w *rotatingWriter) rotateLocked() error {
	w.file.Close()
	backup := w.path + "." + time.Now().UTC().Format("20060102T150405.000000000")
	if err := os.Rename(w.path, backup); err != nil && !os.IsNotExist(err) {
		return err
	}
	f, err := os.OpenFile(w.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	w.file = f
	w.size = 0
	w.pruneBackupsLocked()
	return nil
}

func (w *rotatingWriter) pruneBackupsLocked() {
	dir := filepath.Dir(w.path)
	base := filepath.Base(w.path)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	var backups []os.DirEntry
	for _, e := range entries {
		if !e.IsDir() && len(e.Name()) > len(base)+1 && e.Name()[:len(base)+1] == base+"." {
			backups = append(backups, e)
		}
	}
	now := time.Now()
	var kept []os.DirEntry
	for _, e := range backups {
		info, err := e.Info()
		if err != nil {
			continue
		}
		if w.maxAge > 0 && now.Sub(info.ModTime()) > w.maxAge {
			os.Remove(filepath.Join(dir, e.Name()))
			continue
		}
		kept = append(kept, e)
	}
	if w.maxBackups > 0 && len(kept) > w.maxBackups {
		excess := len(kept) - w.maxBackups
		for i := 0; i < excess; i++ {
			os.Remove(filepath.Join(dir, kept[i].Name()))
		}
	}
}

// cleanupLoop periodically prunes aged/excess backups even when no
// writes are occurring, mirroring the teacher's hourly ticker that
// stays responsive to context cancellation.
func (w *rotatingWriter) cleanupLoop() {
	defer close(w.done)
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			w.mu.Lock()
			w.pruneBackupsLocked()
			w.mu.Unlock()
		case <-w.stop:
			return
		}
	}
}

func (w *rotatingWriter) Close() {
	close(w.stop)
	<-w.done
	w.mu.Lock()
	defer w.mu.Unlock()
	w.file.Close()
}
