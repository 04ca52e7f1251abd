package logger

import (
	"io"
	"os"
	"path/filepath"

	"saasadmin/pkg/config"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// RequestIDKey 请求ID在日志字段与 gin 上下文中的键名
const RequestIDKey = "request_id"

var Logger *logrus.Logger

// Initialize 按配置创建全局日志：等级、格式，配置了文件路径时按大小轮转并同时输出到控制台
func Initialize(cfg config.LogConfig) error {
	l, err := New(cfg, os.Stdout)
	if err != nil {
		return err
	}
	Logger = l
	return nil
}

// New 创建日志实例，console 为控制台输出
func New(cfg config.LogConfig, console io.Writer) (*logrus.Logger, error) {
	l := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	if cfg.Format == "json" {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	l.SetOutput(console)
	if cfg.FilePath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0755); err != nil {
			return nil, err
		}
		rotate := &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}
		l.SetOutput(io.MultiWriter(console, rotate))
	}
	return l, nil
}

// GetLogger 获取日志实例，未初始化时返回logrus默认实例
func GetLogger() *logrus.Logger {
	if Logger == nil {
		return logrus.StandardLogger()
	}
	return Logger
}

// WithRequestID 带请求ID的日志条目
func WithRequestID(requestID string) *logrus.Entry {
	return GetLogger().WithField(RequestIDKey, requestID)
}
