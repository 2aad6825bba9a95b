// Package store は、アーカイブ済みエントリの索引を SQLite で管理します。
// 索引は (スレッドURL, 投稿ID) をキーとし、どの投稿がどのファイルに書かれたかを記録します。
// スキップ判定そのものはファイルの存在で行い、索引は衝突検知と検証に使います。
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// Record は、一つのアーカイブ済みエントリを表します。
type Record struct {
	ThreadURL   string
	ThreadTitle string
	Page        int
	Post        int64
	Title       string
	Path        string
	Size        int64
	ArchivedAt  time.Time
}

// Index は、SQLiteベースのアーカイブ索引です。
type Index struct {
	db   *sql.DB
	path string
}

// Open は、指定パスの索引を開きます。存在しない場合はディレクトリごと作成します。
func Open(path string) (*Index, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("索引ディレクトリの作成に失敗しました (path=%s): %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path+"?mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("索引データベースを開けませんでした (path=%s): %w", path, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	idx := &Index{db: db, path: path}
	if err := idx.createTables(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("索引テーブルの作成に失敗しました (path=%s): %w", path, err)
	}
	return idx, nil
}

// Close は、データベース接続を閉じます。
func (x *Index) Close() error {
	return x.db.Close()
}

// Path は、索引ファイルのパスを返します。
func (x *Index) Path() string {
	return x.path
}

func (x *Index) createTables(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS entries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		thread_url TEXT NOT NULL,
		thread_title TEXT NOT NULL,
		page INTEGER NOT NULL,
		post INTEGER NOT NULL,
		title TEXT NOT NULL,
		path TEXT NOT NULL,
		size INTEGER NOT NULL DEFAULT 0,
		archived_at TEXT NOT NULL,
		UNIQUE(thread_url, post)
	);

	CREATE INDEX IF NOT EXISTS idx_entries_path ON entries(path);
	`
	_, err := x.db.ExecContext(ctx, schema)
	return err
}

// Put は、エントリを登録または更新します。
func (x *Index) Put(ctx context.Context, rec Record) error {
	if rec.ArchivedAt.IsZero() {
		rec.ArchivedAt = time.Now()
	}
	query := `
	INSERT INTO entries (thread_url, thread_title, page, post, title, path, size, archived_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(thread_url, post) DO UPDATE SET
		thread_title = excluded.thread_title,
		page = excluded.page,
		title = excluded.title,
		path = excluded.path,
		size = excluded.size,
		archived_at = excluded.archived_at
	`
	_, err := x.db.ExecContext(ctx, query,
		rec.ThreadURL,
		rec.ThreadTitle,
		rec.Page,
		rec.Post,
		rec.Title,
		rec.Path,
		rec.Size,
		rec.ArchivedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("索引への登録に失敗しました (thread=%s, post=%d): %w", rec.ThreadURL, rec.Post, err)
	}
	return nil
}

// Lookup は、(スレッドURL, 投稿ID) のエントリを返します。見つからない場合 ok は false です。
func (x *Index) Lookup(ctx context.Context, threadURL string, post int64) (Record, bool, error) {
	rows, err := x.query(ctx, `WHERE thread_url = ? AND post = ?`, threadURL, post)
	if err != nil {
		return Record{}, false, err
	}
	if len(rows) == 0 {
		return Record{}, false, nil
	}
	return rows[0], true, nil
}

// FindByPath は、指定ファイルパスに書き込んだエントリを返します。
func (x *Index) FindByPath(ctx context.Context, path string) ([]Record, error) {
	return x.query(ctx, `WHERE path = ?`, path)
}

// All は、登録順に全エントリを返します。
func (x *Index) All(ctx context.Context) ([]Record, error) {
	return x.query(ctx, "")
}

func (x *Index) query(ctx context.Context, where string, args ...any) ([]Record, error) {
	q := `SELECT thread_url, thread_title, page, post, title, path, size, archived_at FROM entries ` + where + ` ORDER BY id`
	rows, err := x.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("索引の検索に失敗しました: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var archivedAt string
		if err := rows.Scan(&rec.ThreadURL, &rec.ThreadTitle, &rec.Page, &rec.Post, &rec.Title, &rec.Path, &rec.Size, &archivedAt); err != nil {
			return nil, fmt.Errorf("索引の読み取りに失敗しました: %w", err)
		}
		rec.ArchivedAt, err = time.Parse(time.RFC3339Nano, archivedAt)
		if err != nil {
			return nil, errors.Join(fmt.Errorf("archived_at の形式が不正です (%s)", archivedAt), err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
