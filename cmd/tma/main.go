package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"ThreadmarkArchiver/internal/config"
	"ThreadmarkArchiver/internal/core"
	"ThreadmarkArchiver/internal/progress"
	"ThreadmarkArchiver/internal/store"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

// コマンドラインフラグ
var (
	configFile string
	outputDir  string
	intervalMs int
	verbose    bool
)

// main関数はTMAアプリケーションのエントリーポイントです。
func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tma",
		Short: "XenForo のスレッドマーク連載をプレーンテキストとして保存します",
		Long: `tma は、ランディングページから作品名に一致するスレッドを探し、
各スレッドの threadmarks 目次に並ぶ投稿を一つずつ取得して
<保存先>/<スレッド名>/<エントリ名>.txt に書き出します。
既に存在するファイルは取得しないため、何度実行しても未保存のエントリだけが追加されます。`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCrawl()
		},
	}

	cmd.PersistentFlags().StringVarP(&configFile, "config", "c", "config.json", "設定ファイルのパス (.json / .yaml)")
	cmd.PersistentFlags().StringVarP(&outputDir, "output", "o", "", "保存先ディレクトリ (全タスクの save_root_directory を上書き)")
	cmd.PersistentFlags().IntVar(&intervalMs, "interval", 0, "リクエスト間の固定待機時間(ミリ秒)。0 の場合は設定に従います")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "デバッグログを出力します")

	cmd.AddCommand(newVerifyCmd())
	return cmd
}

// prepare は、設定の読み込み・ロガー・シグナル・索引を準備します。
// 返される cleanup は必ず呼び出してください。
func prepare() (context.Context, *config.Config, *log.Logger, *store.Index, func(), error) {
	cfg, found, err := config.LoadOrDefault(configFile)
	if err != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("設定ファイルの読み込みに失敗しました: %w", err)
	}
	applyFlagOverrides(cfg)

	logger, closeLog := setupLogger(cfg, verbose)
	if !found {
		logger.Warnf("設定ファイル '%s' が見つからないため、既定の設定で実行します。", configFile)
	}

	ctx, cancel := context.WithCancel(context.Background())
	// シグナルハンドリング
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		logger.Info("終了シグナルを受信しました。シャットダウンを開始します...")
		cancel()
	}()

	idx, err := store.Open(cfg.IndexPath)
	if err != nil {
		cancel()
		closeLog()
		return nil, nil, nil, nil, nil, err
	}

	cleanup := func() {
		if err := idx.Close(); err != nil {
			logger.Warnf("WARNING: 索引のクローズに失敗しました: %v", err)
		}
		cancel()
		closeLog()
	}
	return ctx, cfg, logger, idx, cleanup, nil
}

// applyFlagOverrides は、コマンドラインで指定された値を全タスクに反映します。
func applyFlagOverrides(cfg *config.Config) {
	for i := range cfg.Tasks {
		if outputDir != "" {
			cfg.Tasks[i].SaveRootDirectory = outputDir
		}
		if intervalMs > 0 {
			cfg.Tasks[i].RequestIntervalMillis = intervalMs
		}
	}
}

// runCrawl は、有効なタスクを順番に一回ずつ実行します。
// 個々のタスクやスレッドの失敗はログに残し、実行全体は正常終了します。
func runCrawl() error {
	ctx, cfg, logger, idx, cleanup, err := prepare()
	if err != nil {
		return err
	}
	defer cleanup()

	reporter := progress.NewTerminalReporter(os.Stderr)
	ran := 0
	for _, task := range cfg.Tasks {
		if ctx.Err() != nil {
			logger.Info("コンテキストがキャンセルされたため、新規タスクの開始を中断します。")
			break
		}
		if !task.IsEnabled() {
			logger.Debugf("タスク '%s' は無効化されています。", task.TaskName)
			continue
		}
		ran++
		if _, err := core.ExecuteTask(ctx, task, cfg.Network, idx, reporter, logger); err != nil {
			logger.Errorf("ERROR: タスク '%s' の実行に失敗しました: %v", task.TaskName, err)
		}
	}

	if ran == 0 {
		logger.Info("有効なタスクがありません。終了します。")
		return nil
	}
	logger.Info("全てのタスクが完了しました。")
	return nil
}
