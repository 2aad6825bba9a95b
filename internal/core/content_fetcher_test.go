package core

import (
	"context"
	"errors"
	"strings"
	"testing"

	"ThreadmarkArchiver/internal/adapter"
	"ThreadmarkArchiver/internal/model"
)

// stubConverter は、入力に関係なく固定のテキストを返します。
type stubConverter struct {
	text string
	got  string
}

func (c *stubConverter) Convert(html string) (string, error) {
	c.got = html
	return c.text, nil
}

func TestContentFetcher_Fetch(t *testing.T) {
	// Arrange
	forum := newFakeForum(t)
	forum.set("/story/page-3", postsPage(map[int64]string{
		300: "<p>other</p>",
		301: "<p><b>alpha</b> <b>beta</b></p>",
	}))
	archiver, _ := newTestArchiver(t, t.TempDir(), nil)
	conv := &stubConverter{text: "**alpha** **beta**"}
	fetcher := NewContentFetcher(archiver.Client, archiver.Adapter, conv)

	// Act
	text, err := fetcher.Fetch(context.Background(), forum.URL("/story/"), model.Locator{Page: 3, Post: 301})

	// Assert
	if err != nil {
		t.Fatalf("Fetchが予期せぬエラーを返しました: %v", err)
	}
	if text != "**alphabeta**" {
		t.Errorf("強調の正規化結果が期待値と異なります: %q", text)
	}
	if conv.got == "" || !containsAll(conv.got, "bbWrapper", "alpha") || containsAll(conv.got, "other") {
		t.Errorf("変換器に渡された本文が不正です: %q", conv.got)
	}
	if got := forum.hitCount("/story/page-3"); got != 1 {
		t.Errorf("投稿ページの取得回数が期待値と異なります: %d", got)
	}
}

func TestContentFetcher_Fetch_PostNotFound(t *testing.T) {
	forum := newFakeForum(t)
	forum.set("/story/page-1", postsPage(map[int64]string{100: "<p>x</p>"}))
	archiver, _ := newTestArchiver(t, t.TempDir(), nil)

	_, err := archiver.Content.Fetch(context.Background(), forum.URL("/story/"), model.Locator{Page: 1, Post: 555})

	var notFound *adapter.PostNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("PostNotFoundErrorが返されるべきです: %v", err)
	}
}

func containsAll(s string, subs ...string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}
