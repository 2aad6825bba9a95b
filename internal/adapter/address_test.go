package adapter

import (
	"errors"
	"testing"

	"ThreadmarkArchiver/internal/model"
)

func TestDecodeLocator(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want model.Locator
	}{
		{"ページ番号あり", "https://forums.site.test/threads/tla.244209/page-7#post-5481209", model.Locator{Page: 7, Post: 5481209}},
		{"ページ番号なし", "https://forums.site.test/threads/tla.244209/#post-100", model.Locator{Page: 1, Post: 100}},
		{"相対URL", "/threads/tla.244209/page-3#post-42", model.Locator{Page: 3, Post: 42}},
		{"末尾スラッシュ付きページ", "https://site.test/story/page-2/#post-9", model.Locator{Page: 2, Post: 9}},
		{"投稿ID 0", "https://site.test/story/#post-0", model.Locator{Page: 1, Post: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeLocator(tt.url)
			if err != nil {
				t.Fatalf("DecodeLocatorで予期せぬエラーが発生しました: %v", err)
			}
			if got != tt.want {
				t.Errorf("ロケータが期待値と異なります。期待値: %+v, 実際値: %+v", tt.want, got)
			}
		})
	}
}

func TestDecodeLocator_Errors(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{"フラグメントなし", "https://site.test/story/page-2"},
		{"投稿IDが数字でない", "https://site.test/story/#post-abc"},
		{"別のフラグメント", "https://site.test/story/#top"},
		{"ページ0", "https://site.test/story/page-0#post-1"},
		{"不正なURL", "http://[::1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeLocator(tt.url)
			var addrErr *AddressFormatError
			if !errors.As(err, &addrErr) {
				t.Fatalf("AddressFormatErrorが返されるべきです: %v", err)
			}
			if addrErr.URL != tt.url {
				t.Errorf("エラーのURLが期待値と異なります: %s", addrErr.URL)
			}
		})
	}
}

func TestEncodeLocator(t *testing.T) {
	got, err := EncodeLocator("https://site.test/story/", 1, 100)
	if err != nil {
		t.Fatalf("EncodeLocatorで予期せぬエラーが発生しました: %v", err)
	}
	if want := "https://site.test/story/page-1#post-100"; got != want {
		t.Errorf("URLが期待値と異なります。期待値: %s, 実際値: %s", want, got)
	}

	// ベースURLのフラグメントは引き継がない
	got, err = EncodeLocator("https://site.test/threads/tla.1#post-5", 4, 6)
	if err != nil {
		t.Fatalf("EncodeLocatorで予期せぬエラーが発生しました: %v", err)
	}
	if want := "https://site.test/threads/tla.1/page-4#post-6"; got != want {
		t.Errorf("URLが期待値と異なります。期待値: %s, 実際値: %s", want, got)
	}

	if _, err := EncodeLocator("https://site.test/", 0, 1); err == nil {
		t.Error("ページ0はエラーになるべきです。")
	}
}

func TestLocatorRoundTrip(t *testing.T) {
	bases := []string{
		"https://site.test/story/",
		"https://site.test/story",
		"https://forums.site.test/threads/the-last-angel.244209/",
		"https://site.test",
	}
	pages := []int{1, 2, 17, 999}
	posts := []int64{0, 1, 100, 5481209, 1 << 40}

	for _, base := range bases {
		for _, p := range pages {
			for _, q := range posts {
				encoded, err := EncodeLocator(base, p, q)
				if err != nil {
					t.Fatalf("EncodeLocator(%s, %d, %d) が失敗しました: %v", base, p, q, err)
				}
				got, err := DecodeLocator(encoded)
				if err != nil {
					t.Fatalf("DecodeLocator(%s) が失敗しました: %v", encoded, err)
				}
				if got.Page != p || got.Post != q {
					t.Errorf("往復変換が一致しません (base=%s): 期待値 {%d %d}, 実際値 %+v", base, p, q, got)
				}
			}
		}
	}
}
