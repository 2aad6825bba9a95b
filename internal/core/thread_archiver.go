package core

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"ThreadmarkArchiver/internal/adapter"
	"ThreadmarkArchiver/internal/model"
	"ThreadmarkArchiver/internal/store"

	"github.com/charmbracelet/log"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Archiver は、スレッドの目次を抽出し、未保存のエントリを一つずつ取得して保存します。
// スレッドもエントリも逐次処理します。
type Archiver struct {
	Client     Fetcher
	Adapter    adapter.SiteAdapter
	Content    *ContentFetcher
	FS         FileSystem
	Index      *store.Index // nil の場合は索引を使いません
	Progress   ProgressReporter
	Logger     *log.Logger
	OutputRoot string
}

// ExtractToc は、スレッドの目次ページを取得し、ページ上の順序でエントリを返します。
func (a *Archiver) ExtractToc(ctx context.Context, baseURL string) ([]model.TocEntry, error) {
	tocURL, err := a.Adapter.BuildThreadmarksURL(baseURL)
	if err != nil {
		return nil, fmt.Errorf("目次URLの構築に失敗しました (base=%s): %w", baseURL, err)
	}
	body, err := a.Client.Get(ctx, tocURL)
	if err != nil {
		return nil, fmt.Errorf("目次ページの取得に失敗しました (url=%s): %w", tocURL, err)
	}
	entries, err := a.Adapter.ParseThreadmarks(body)
	if err != nil {
		return nil, fmt.Errorf("目次ページの解析に失敗しました (url=%s, size=%d bytes): %w", tocURL, len(body), err)
	}
	return entries, nil
}

// ArchiveThread は、単一のスレッドを目次抽出からエントリ保存まで処理します。
// エントリ単位の失敗はログに残して次へ進み、スレッドは Done になります。
// 目次の取得・解析に失敗した場合だけスレッドは Failed になります。
func (a *Archiver) ArchiveThread(ctx context.Context, thread model.ThreadDescriptor) ThreadResult {
	result := ThreadResult{Thread: thread, State: ThreadExtractToc}
	a.Logger.Infof("Processing thread: %s (%s)", thread.Title, thread.BaseURL)

	entries, err := a.ExtractToc(ctx, thread.BaseURL)
	if err != nil {
		result.State = ThreadFailed
		result.Err = err
		return result
	}
	thread.Entries = entries
	result.Thread = thread
	result.State = ThreadArchiving

	threadDir := filepath.Join(a.OutputRoot, ThreadDirName(thread.Title))
	if err := a.FS.MkdirAll(threadDir); err != nil {
		result.State = ThreadFailed
		result.Err = fmt.Errorf("スレッドディレクトリの作成に失敗しました (path=%s): %w", threadDir, err)
		return result
	}

	total := len(entries)
	for i, entry := range entries {
		if err := ctx.Err(); err != nil {
			result.State = ThreadFailed
			result.Err = fmt.Errorf("スレッドの処理が中断されました (%d/%d): %w", i, total, err)
			return result
		}

		entryPath := filepath.Join(threadDir, EntryFileName(entry))
		switch written, err := a.archiveEntry(ctx, thread, entry, entryPath); {
		case err != nil:
			a.Logger.Warnf("WARNING: エントリの保存に失敗しました。スキップします (title=%s, page=%d, post=%d): %v",
				entry.Title, entry.Locator.Page, entry.Locator.Post, err)
			result.Failed++
		case written < 0:
			result.Skipped++
		default:
			result.Archived++
			result.BytesWritten += int64(written)
		}

		a.Progress.Report(i+1, total, thread.Title)
	}

	result.State = ThreadDone
	a.Logger.Infof("Thread %s: archived=%d skipped=%d failed=%d", thread.Title, result.Archived, result.Skipped, result.Failed)
	return result
}

// archiveEntry は、ファイルが既に存在すればネットワークに触れずに -1 を返し、
// そうでなければ本文を取得して書き込み、書き込んだバイト数を返します。
func (a *Archiver) archiveEntry(ctx context.Context, thread model.ThreadDescriptor, entry model.TocEntry, entryPath string) (int, error) {
	if a.FS.Exists(entryPath) {
		a.warnOnCollision(ctx, thread, entry, entryPath)
		return -1, nil
	}

	text, err := a.Content.Fetch(ctx, thread.BaseURL, entry.Locator)
	if err != nil {
		return 0, err
	}

	data := []byte(text)
	if err := a.FS.WriteFile(entryPath, data); err != nil {
		return 0, fmt.Errorf("ファイルの書き込みに失敗しました (path=%s, size=%d bytes): %w", entryPath, len(data), err)
	}

	if a.Index != nil {
		rec := store.Record{
			ThreadURL:   thread.BaseURL,
			ThreadTitle: thread.Title,
			Page:        entry.Locator.Page,
			Post:        entry.Locator.Post,
			Title:       entry.Title,
			Path:        entryPath,
			Size:        int64(len(data)),
		}
		if err := a.Index.Put(ctx, rec); err != nil {
			a.Logger.Warnf("WARNING: 索引の更新に失敗しました: %v", err)
		}
	}

	a.Logger.Debugf("SUCCESS: 保存しました: %s", entryPath)
	return len(data), nil
}

// warnOnCollision は、既存ファイルが別の投稿によって書かれたものであれば警告します。
// 同じタイトルのエントリは同じファイル名になるため、後のエントリは保存されません。
func (a *Archiver) warnOnCollision(ctx context.Context, thread model.ThreadDescriptor, entry model.TocEntry, entryPath string) {
	if a.Index == nil {
		return
	}
	owners, err := a.Index.FindByPath(ctx, entryPath)
	if err != nil {
		a.Logger.Warnf("WARNING: 索引の検索に失敗しました: %v", err)
		return
	}
	for _, owner := range owners {
		if owner.ThreadURL == thread.BaseURL && owner.Post == entry.Locator.Post {
			return
		}
	}
	if len(owners) > 0 {
		a.Logger.Warnf("WARNING: タイトルが衝突しています。post=%d は post=%d のファイルと同名のため保存されません (path=%s)",
			entry.Locator.Post, owners[0].Post, entryPath)
	}
}

// ThreadDirName は、スレッドタイトルから保存ディレクトリ名を生成します。
// 小文字化し、空白を '_' に、':' を '-' に置き換えます。
func ThreadDirName(title string) string {
	slug := cases.Lower(language.Und).String(strings.TrimSpace(title))
	slug = strings.ReplaceAll(slug, " ", "_")
	slug = strings.ReplaceAll(slug, ":", "-")
	if slug == "" {
		slug = "untitled"
	}
	return SanitizeFilename(slug)
}

// EntryFileName は、エントリのタイトルから保存ファイル名を生成します。
// タイトルが空の場合は投稿IDを使います。
func EntryFileName(entry model.TocEntry) string {
	name := strings.TrimSpace(entry.Title)
	if name == "" {
		name = adapter.PostAnchor(entry.Locator.Post)
	}
	return SanitizeFilename(name) + ".txt"
}

// SanitizeFilename は、ファイル名に使えない文字を全角の類似文字に置き換えます。
func SanitizeFilename(name string) string {
	r := strings.NewReplacer(
		"/", "／",
		"\\", "＼",
		":", "：",
		"*", "＊",
		"?", "？",
		"\"", "”",
		"<", "＜",
		">", "＞",
		"|", "｜",
	)
	return r.Replace(name)
}
