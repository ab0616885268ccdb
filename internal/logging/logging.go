package logging

import (
	"io"
	"log"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"

	"skillscape-chat/internal/config"
)

// Setup routes the standard logger to stdout and, when a log directory is
// configured, also to a size-rotated file.
func Setup(cfg config.LoggerConfig) {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	if cfg.Directory == "" {
		return
	}

	rotated := &lumberjack.Logger{
		Filename:   filepath.Join(cfg.Directory, "skillscape-chat.log"),
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}
	log.SetOutput(io.MultiWriter(os.Stdout, rotated))
}
