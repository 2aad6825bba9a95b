// Package adapter は、サイト固有の処理を抽象化するインターフェースと、
// その具体的な実装を提供します。URLのアドレス体系（ページ番号と投稿アンカー）の
// 変換もこのパッケージが担います。
package adapter

import (
	"bytes"

	"ThreadmarkArchiver/internal/model"

	"github.com/PuerkitoBio/goquery"
)

// SiteAdapter は、サイト固有の処理を抽象化するインターフェースです。
type SiteAdapter interface {
	// ParseLanding は、ランディングページから作品名に一致するスレッドを抽出します。
	// 返される ThreadDescriptor の Entries は空です。
	ParseLanding(htmlBody []byte, landingURL string, storyName string) ([]model.ThreadDescriptor, error)
	// BuildThreadmarksURL は、スレッドのベースURLから目次ページのURLを構築します。
	BuildThreadmarksURL(baseURL string) (string, error)
	// ParseThreadmarks は、目次ページを解析し、ページ上の順序で項目を返します。
	ParseThreadmarks(htmlBody []byte) ([]model.TocEntry, error)
	// BuildPostURL は、ロケータを取得用の完全なURLに変換します。
	BuildPostURL(baseURL string, loc model.Locator) (string, error)
	// ExtractPostHTML は、投稿ページから本文ラッパー要素のHTMLを取り出します。
	ExtractPostHTML(htmlBody []byte, postURL string) (string, error)
}

// NewDocumentFromBytes は、[]byteからgoquery.Documentを生成するヘルパー関数です。
func NewDocumentFromBytes(htmlBody []byte) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(bytes.NewReader(htmlBody))
}
