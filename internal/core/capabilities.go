package core

import (
	"context"
	"os"
)

// Fetcher は、URLの文書を取得します。*network.Client が実装します。
type Fetcher interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// FileSystem は、アーカイブの保存先に対する操作です。
type FileSystem interface {
	Exists(path string) bool
	MkdirAll(path string) error
	WriteFile(path string, data []byte) error
}

// ProgressReporter は、エントリごとの進捗を受け取ります。表示専用です。
type ProgressReporter interface {
	Report(current, total int, label string)
}

// OSFileSystem は、ローカルディスクに対する FileSystem です。
type OSFileSystem struct{}

func (OSFileSystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (OSFileSystem) MkdirAll(path string) error {
	return os.MkdirAll(path, 0755)
}

func (OSFileSystem) WriteFile(path string, data []byte) error {
	return os.WriteFile(path, data, 0644)
}

// NopReporter は進捗を表示しません。
type NopReporter struct{}

func (NopReporter) Report(int, int, string) {}
