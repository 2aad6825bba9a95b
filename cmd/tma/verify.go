package main

import (
	"errors"
	"fmt"

	"ThreadmarkArchiver/internal/core"

	"github.com/spf13/cobra"
)

func newVerifyCmd() *cobra.Command {
	var repair bool

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "索引に登録されたエントリのファイルが存在するかを検証します",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerification(repair)
		},
	}
	cmd.Flags().BoolVar(&repair, "repair", false, "欠損したエントリを再取得して修復します")
	return cmd
}

// runVerification は、索引の全エントリを一度だけ検証します。
// 修復時の通信設定は最初の有効なタスクのものを使います。
func runVerification(repair bool) error {
	ctx, cfg, logger, idx, cleanup, err := prepare()
	if err != nil {
		return err
	}
	defer cleanup()

	logger.Info("検証モードで起動します。")

	if len(cfg.Tasks) == 0 {
		return errors.New("タスクが定義されていないため検証できません")
	}
	task := cfg.Tasks[0]
	for _, t := range cfg.Tasks {
		if t.IsEnabled() {
			task = t
			break
		}
	}

	archiver, err := core.NewTaskArchiver(task, cfg.Network, idx, nil, logger)
	if err != nil {
		return err
	}

	result, err := core.RunVerification(ctx, archiver, repair)
	if err != nil {
		logger.Errorf("検証中にエラーが発生しました: %v", err)
		return err
	}

	logger.Infof("検証完了: 確認 %d / 欠損 %d / 修復 %d / 修復失敗 %d",
		result.TotalChecked, result.TotalMissing, result.TotalRepaired, result.TotalFailed)
	for _, d := range result.MissingDetails {
		logger.Info(d)
	}
	if result.TotalMissing > result.TotalRepaired {
		return fmt.Errorf("%d件のエントリが欠損したままです", result.TotalMissing-result.TotalRepaired)
	}
	return nil
}
