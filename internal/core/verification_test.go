package core

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ThreadmarkArchiver/internal/store"
)

func TestRunVerification_DetectsAndRepairsMissingEntries(t *testing.T) {
	// Arrange: 一度アーカイブしてから1ファイルを消す
	forum := newFakeForum(t)
	setupLastAngel(forum)
	outputRoot := t.TempDir()
	idx, err := store.Open(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatalf("索引を開けませんでした: %v", err)
	}
	defer idx.Close()
	archiver, _ := newTestArchiver(t, outputRoot, idx)
	ctx := context.Background()

	if _, err := archiver.Run(ctx, forum.URL("/index/"), "The Last Angel"); err != nil {
		t.Fatalf("Runが失敗しました: %v", err)
	}
	missing := filepath.Join(outputRoot, "the_last_angel", "Chapter One.txt")
	if err := os.Remove(missing); err != nil {
		t.Fatalf("ファイルの削除に失敗しました: %v", err)
	}

	// Act: 検証のみ
	result, err := RunVerification(ctx, archiver, false)

	// Assert
	if err != nil {
		t.Fatalf("RunVerificationが失敗しました: %v", err)
	}
	if result.TotalChecked != 2 || result.TotalMissing != 1 || result.TotalRepaired != 0 {
		t.Errorf("検証結果が期待値と異なります: %+v", result)
	}
	if len(result.MissingDetails) != 1 || !strings.Contains(result.MissingDetails[0], "Chapter One") {
		t.Errorf("欠損の詳細が不正です: %v", result.MissingDetails)
	}
	if _, err := os.Stat(missing); !os.IsNotExist(err) {
		t.Error("修復なしの検証でファイルが作成されるべきではありません。")
	}

	// Act: 修復
	forum.resetHits()
	result, err = RunVerification(ctx, archiver, true)

	// Assert
	if err != nil {
		t.Fatalf("修復付きのRunVerificationが失敗しました: %v", err)
	}
	if result.TotalMissing != 1 || result.TotalRepaired != 1 || result.TotalFailed != 0 {
		t.Errorf("修復結果が期待値と異なります: %+v", result)
	}
	if got := readFile(t, missing); !strings.Contains(got, "Chapter one text.") {
		t.Errorf("修復されたファイルの内容が不正です: %q", got)
	}
	if got := forum.hitCount("/story/page-1"); got != 1 {
		t.Errorf("欠損したエントリだけを取得するべきです: %d 回", got)
	}
}

func TestRunVerification_RepairFailure(t *testing.T) {
	forum := newFakeForum(t)
	setupLastAngel(forum)
	outputRoot := t.TempDir()
	idx, err := store.Open(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatalf("索引を開けませんでした: %v", err)
	}
	defer idx.Close()
	archiver, _ := newTestArchiver(t, outputRoot, idx)
	ctx := context.Background()

	if _, err := archiver.Run(ctx, forum.URL("/index/"), "The Last Angel"); err != nil {
		t.Fatalf("Runが失敗しました: %v", err)
	}
	if err := os.RemoveAll(filepath.Join(outputRoot, "the_last_angel")); err != nil {
		t.Fatalf("ディレクトリの削除に失敗しました: %v", err)
	}
	forum.fail("/story/page-1", 404)

	result, err := RunVerification(ctx, archiver, true)

	if err != nil {
		t.Fatalf("個々の修復失敗で検証全体が失敗するべきではありません: %v", err)
	}
	if result.TotalMissing != 2 || result.TotalFailed != 2 || result.TotalRepaired != 0 {
		t.Errorf("修復失敗の集計が期待値と異なります: %+v", result)
	}
}

func TestRunVerification_NoIndex(t *testing.T) {
	archiver, _ := newTestArchiver(t, t.TempDir(), nil)

	if _, err := RunVerification(context.Background(), archiver, false); err == nil {
		t.Error("索引なしの検証はエラーを返すべきです。")
	}
}
