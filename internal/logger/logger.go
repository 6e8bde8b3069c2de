// Package logger создает zap-логгер приложения.
// В dev-окружении используется цветной консольный вывод, в остальных - JSON.
// Если указан файл, логи дополнительно пишутся в него с ротацией.
package logger

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Zap оборачивает *zap.Logger, чтобы пакеты приложения не зависели от способа его сборки.
type Zap struct {
	*zap.Logger
}

// Options описывает необязательный файловый вывод.
type Options struct {
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// New создает логгер для окружения env с уровнем level.
func New(env, level string, opts ...Options) (*Zap, error) {
	lvl := zap.NewAtomicLevel()
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("неизвестный уровень логирования %q: %w", level, err)
	}

	cores := []zapcore.Core{
		zapcore.NewCore(encoder(env), zapcore.Lock(os.Stderr), lvl),
	}

	for _, o := range opts {
		if o.File == "" {
			continue
		}
		if o.MaxSizeMB == 0 {
			o.MaxSizeMB = 50
		}
		if o.MaxBackups == 0 {
			o.MaxBackups = 3
		}
		if o.MaxAgeDays == 0 {
			o.MaxAgeDays = 14
		}
		writer := zapcore.AddSync(&lumberjack.Logger{
			Filename:   o.File,
			MaxSize:    o.MaxSizeMB,
			MaxBackups: o.MaxBackups,
			MaxAge:     o.MaxAgeDays,
			Compress:   true,
		})
		cores = append(cores, zapcore.NewCore(encoder("prod"), writer, lvl))
	}

	options := []zap.Option{zap.AddStacktrace(zap.ErrorLevel)}
	if env == "dev" {
		options = append(options, zap.AddCaller())
	}

	return &Zap{Logger: zap.New(zapcore.NewTee(cores...), options...)}, nil
}

// Wrap оборачивает готовый логгер, например zaptest.NewLogger в тестах.
func Wrap(l *zap.Logger) *Zap {
	return &Zap{Logger: l}
}

// Nop возвращает логгер, который ничего не пишет.
func Nop() *Zap {
	return &Zap{Logger: zap.NewNop()}
}

func encoder(env string) zapcore.Encoder {
	if env == "dev" {
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		cfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
		return zapcore.NewConsoleEncoder(cfg)
	}
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	return zapcore.NewJSONEncoder(cfg)
}
