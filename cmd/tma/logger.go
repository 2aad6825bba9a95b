package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"ThreadmarkArchiver/internal/config"

	"github.com/charmbracelet/log"
)

// setupLogger はログ出力先を設定します。
// config.EnableLogFile が true の場合、標準エラーに加えてファイルにも出力します。
// 返される関数でログファイルを閉じます。
func setupLogger(cfg *config.Config, verbose bool) (*log.Logger, func()) {
	var out io.Writer = os.Stderr
	var logFile *os.File

	if cfg.EnableLogFile {
		path := cfg.LogFilePath
		if path == "" {
			// デフォルトは日付形式
			path = fmt.Sprintf("tma_%s.log", time.Now().Format("2006-01-02"))
		}
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ログファイルを開けませんでした: %v\n", err)
		} else {
			logFile = f
			out = io.MultiWriter(os.Stderr, f)
		}
	}

	logger := log.NewWithOptions(out, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
		Level:           resolveLevel(cfg.LogLevel, verbose),
	})
	if logFile != nil {
		logger.Infof("ログ出力をファイル '%s' に開始しました", logFile.Name())
	}

	return logger, func() {
		if logFile != nil {
			logFile.Close()
		}
	}
}

func resolveLevel(name string, verbose bool) log.Level {
	if verbose {
		return log.DebugLevel
	}
	if name == "" {
		return log.InfoLevel
	}
	level, err := log.ParseLevel(name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "不明なログレベル '%s' です。info を使います。\n", name)
		return log.InfoLevel
	}
	return level
}
