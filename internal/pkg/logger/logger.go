package logger

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/TheBreeze12/lifehub-backend-sub000/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger 默认是空实现, InitLogger 之前的调用不会崩溃
var Logger = zap.NewNop()

// InitLogger builds the process logger from config.GlobalConfig.Log: a
// rotated JSON file in every mode, plus a console mirror in debug mode.
func InitLogger() error {
	logConfig := config.GlobalConfig.Log

	if err := os.MkdirAll(filepath.Dir(logConfig.Filename), 0o755); err != nil {
		return fmt.Errorf("创建日志目录失败: %w", err)
	}

	level, err := zapcore.ParseLevel(logConfig.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	fileCore := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(&lumberjack.Logger{
			Filename:   logConfig.Filename,
			MaxSize:    logConfig.MaxSize,
			MaxAge:     logConfig.MaxAge,
			MaxBackups: logConfig.MaxBackups,
			LocalTime:  true,
			Compress:   true,
		}),
		level,
	)

	core := fileCore
	if config.GlobalConfig.App.Mode == "debug" {
		consoleCore := zapcore.NewCore(
			zapcore.NewConsoleEncoder(encoderConfig),
			zapcore.AddSync(os.Stdout),
			level,
		)
		core = zapcore.NewTee(fileCore, consoleCore)
	}

	Logger = zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
	zap.ReplaceGlobals(Logger)

	Logger.Info("日志系统初始化完成",
		zap.String("level", level.String()),
		zap.String("filename", logConfig.Filename),
	)
	return nil
}

// 封装常用日志函数
func Debug(msg string, fields ...zap.Field) {
	Logger.Debug(msg, fields...)
}

func Info(msg string, fields ...zap.Field) {
	Logger.Info(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	Logger.Warn(msg, fields...)
}

func Error(msg string, fields ...zap.Field) {
	Logger.Error(msg, fields...)
}

func Fatal(msg string, fields ...zap.Field) {
	Logger.Fatal(msg, fields...)
}
