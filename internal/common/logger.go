package common

import (
	"os"
	"path/filepath"

	"github.com/go-faster/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	logFile      = "comment_followings_log.txt"
	errorLogFile = "comment_followings_log_error.txt"
)

// NewLogger собирает журнал из трёх приёмников: консоль, общий файл и файл только с ошибками.
// Возвращаемая функция закрывает файлы.
func NewLogger(logsDir, level string) (*zap.Logger, func(), error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "parse log level %q", level)
	}
	if err := os.MkdirAll(logsDir, 0o755); err != nil {
		return nil, nil, errors.Wrap(err, "create logs dir")
	}

	mainFile, err := os.OpenFile(filepath.Join(logsDir, logFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, errors.Wrap(err, "open log file")
	}
	errs, err := os.OpenFile(filepath.Join(logsDir, errorLogFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		mainFile.Close()
		return nil, nil, errors.Wrap(err, "open error log file")
	}

	fileCfg := zap.NewProductionEncoderConfig()
	fileCfg.TimeKey = "time"
	fileCfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")
	consoleCfg := zap.NewDevelopmentEncoderConfig()
	consoleCfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")

	core := zapcore.NewTee(
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleCfg), zapcore.Lock(os.Stdout), lvl),
		zapcore.NewCore(zapcore.NewConsoleEncoder(fileCfg), zapcore.AddSync(mainFile), lvl),
		zapcore.NewCore(zapcore.NewConsoleEncoder(fileCfg), zapcore.AddSync(errs), zapcore.ErrorLevel),
	)
	logger := zap.New(core)
	closeFn := func() {
		_ = logger.Sync()
		mainFile.Close()
		errs.Close()
	}
	return logger, closeFn, nil
}
