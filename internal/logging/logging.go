// Package logging builds the zap loggers used across wastewatch.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options controls logger construction.
type Options struct {
	Debug bool
	// File, when set, sends log output to a size-rotated file instead of stderr.
	File string
}

// New returns a sugared logger. Debug selects zap's development config
// (console encoder, debug level); otherwise the production JSON config is used.
func New(opts Options) (*zap.SugaredLogger, error) {
	var cfg zap.Config
	if opts.Debug {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}

	if opts.File == "" {
		logger, err := cfg.Build()
		if err != nil {
			return nil, fmt.Errorf("can't initialize zap logger: %w", err)
		}
		return logger.Sugar(), nil
	}

	sink := zapcore.AddSync(&lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
	})

	var encoder zapcore.Encoder
	if opts.Debug {
		encoder = zapcore.NewConsoleEncoder(cfg.EncoderConfig)
	} else {
		encoder = zapcore.NewJSONEncoder(cfg.EncoderConfig)
	}

	core := zapcore.NewCore(encoder, sink, cfg.Level)
	return zap.New(core, zap.AddCaller()).Sugar(), nil
}

// Nop returns a logger that discards everything. Components default to it
// when no logger is supplied.
func Nop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
