package model

// Locator は、スレッド内の単一の投稿を指すページ番号と投稿IDの組です。
// Page は 1 以上、Post は 0 以上です。
type Locator struct {
	Page int
	Post int64
}

// TocEntry は、スレッドマーク一覧（目次）の一行を表します。
// スライス内の順序がそのまま章の順序です。
type TocEntry struct {
	Locator Locator
	Title   string
}

// ThreadDescriptor は、ランディングページから発見された一つの連載スレッドです。
// BaseURL はフラグメントを除去したスレッドのルートURLです。
type ThreadDescriptor struct {
	BaseURL string
	Title   string
	Entries []TocEntry
}
