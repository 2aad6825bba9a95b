// Package core は、スレッドの発見から目次抽出、本文のアーカイブまでの中核ロジックを実装します。
package core

import (
	"fmt"
	"time"

	"ThreadmarkArchiver/internal/model"
)

// ThreadState は一つのスレッドの処理状態を表すenumです。
type ThreadState int

const (
	ThreadPending     ThreadState = iota // 未処理
	ThreadExtractToc                     // 目次抽出中
	ThreadArchiving                      // エントリ処理中
	ThreadDone                           // 完了
	ThreadFailed                         // 失敗
)

// String は ThreadState を人間可読な文字列に変換します。
func (s ThreadState) String() string {
	switch s {
	case ThreadPending:
		return "Pending"
	case ThreadExtractToc:
		return "ExtractToc"
	case ThreadArchiving:
		return "Archiving"
	case ThreadDone:
		return "Done"
	case ThreadFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// ThreadResult は一つのスレッドの処理結果です。
type ThreadResult struct {
	Thread       model.ThreadDescriptor
	State        ThreadState
	Archived     int
	Skipped      int
	Failed       int
	BytesWritten int64
	Err          error // State が ThreadFailed の場合の原因
}

// SessionStats は一回の実行の統計情報を管理します。
type SessionStats struct {
	StartTime         time.Time
	ThreadsDone       int
	ThreadsFailed     int
	EntriesArchived   int
	EntriesSkipped    int
	EntriesFailed     int
	TotalBytesWritten int64
	Results           []ThreadResult
}

// Add はスレッドの結果を統計に加えます。
func (s *SessionStats) Add(r ThreadResult) {
	switch r.State {
	case ThreadDone:
		s.ThreadsDone++
	case ThreadFailed:
		s.ThreadsFailed++
	}
	s.EntriesArchived += r.Archived
	s.EntriesSkipped += r.Skipped
	s.EntriesFailed += r.Failed
	s.TotalBytesWritten += r.BytesWritten
	s.Results = append(s.Results, r)
}

// FormatSessionInfo はセッション統計情報を文字列にフォーマットします。
func (s *SessionStats) FormatSessionInfo() string {
	elapsed := time.Since(s.StartTime).Round(time.Second)
	sizeKB := float64(s.TotalBytesWritten) / 1024

	return fmt.Sprintf("経過: %v | スレッド: 完了 %d / 失敗 %d | エントリ: 保存 %d / スキップ %d / 失敗 %d | %.1fKB",
		elapsed, s.ThreadsDone, s.ThreadsFailed, s.EntriesArchived, s.EntriesSkipped, s.EntriesFailed, sizeKB)
}
