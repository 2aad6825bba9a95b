package core

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"ThreadmarkArchiver/internal/model"
	"ThreadmarkArchiver/internal/store"
)

// VerificationResult は検証結果を表します。
type VerificationResult struct {
	TotalChecked   int
	TotalMissing   int
	TotalRepaired  int
	TotalFailed    int
	MissingDetails []string
}

// RunVerification は、索引に登録されたエントリのファイルが存在するかを検証します。
// repair が true の場合、欠損したエントリを再取得して書き戻します。
func RunVerification(ctx context.Context, a *Archiver, repair bool) (VerificationResult, error) {
	result := VerificationResult{}
	if a.Index == nil {
		return result, errors.New("索引が設定されていないため検証できません")
	}

	records, err := a.Index.All(ctx)
	if err != nil {
		return result, fmt.Errorf("索引の読み込みに失敗しました (path=%s): %w", a.Index.Path(), err)
	}

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.TotalChecked++

		if a.FS.Exists(rec.Path) {
			continue
		}

		result.TotalMissing++
		detail := fmt.Sprintf("[%s] %s (post=%d) 消失: %s", rec.ThreadTitle, rec.Title, rec.Post, rec.Path)
		a.Logger.Warnf("WARNING: %s", detail)

		if !repair {
			result.MissingDetails = append(result.MissingDetails, detail)
			continue
		}

		if err := a.repairEntry(ctx, rec); err != nil {
			a.Logger.Errorf("ERROR: 修復に失敗しました (path=%s): %v", rec.Path, err)
			result.TotalFailed++
			result.MissingDetails = append(result.MissingDetails, detail+" / 修復失敗")
			continue
		}
		result.TotalRepaired++
		result.MissingDetails = append(result.MissingDetails, detail+" / 修復済み")
	}

	return result, nil
}

func (a *Archiver) repairEntry(ctx context.Context, rec store.Record) error {
	text, err := a.Content.Fetch(ctx, rec.ThreadURL, model.Locator{Page: rec.Page, Post: rec.Post})
	if err != nil {
		return err
	}
	if err := a.FS.MkdirAll(filepath.Dir(rec.Path)); err != nil {
		return fmt.Errorf("ディレクトリの作成に失敗しました (path=%s): %w", filepath.Dir(rec.Path), err)
	}
	data := []byte(text)
	if err := a.FS.WriteFile(rec.Path, data); err != nil {
		return fmt.Errorf("ファイルの書き込みに失敗しました (path=%s): %w", rec.Path, err)
	}
	rec.Size = int64(len(data))
	rec.ArchivedAt = time.Time{}
	return a.Index.Put(ctx, rec)
}
