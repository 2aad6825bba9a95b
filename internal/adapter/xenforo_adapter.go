package adapter

import (
	"fmt"
	"net/url"
	"strings"

	"ThreadmarkArchiver/internal/model"

	"github.com/PuerkitoBio/goquery"
)

const (
	threadmarkSelector  = ".structItem--threadmark"
	postContentSelector = "div.bbWrapper"
)

// XenForoAdapter は、XenForo 系フォーラム（スレッドマーク機能付き）の解析ロジックを実装します。
type XenForoAdapter struct{}

// NewXenForoAdapter は、XenForoAdapterの新しいインスタンスを返します。
func NewXenForoAdapter() SiteAdapter {
	return &XenForoAdapter{}
}

// ParseLanding は、リンクテキストに作品名を含む（大文字小文字を区別しない）リンクを
// スレッドとして抽出します。フラグメントを除去したURLが同じリンクは最初の一つだけを採用します。
func (a *XenForoAdapter) ParseLanding(htmlBody []byte, landingURL string, storyName string) ([]model.ThreadDescriptor, error) {
	doc, err := NewDocumentFromBytes(htmlBody)
	if err != nil {
		return nil, fmt.Errorf("ランディングページのHTML解析に失敗しました: %w", err)
	}
	base, err := url.Parse(landingURL)
	if err != nil {
		return nil, fmt.Errorf("ランディングページURLの解析に失敗しました (url=%s): %w", landingURL, err)
	}

	needle := strings.ToLower(strings.TrimSpace(storyName))
	var threads []model.ThreadDescriptor
	seen := make(map[string]bool)

	doc.Find("a").Each(func(_ int, s *goquery.Selection) {
		title := strings.TrimSpace(s.Text())
		if !strings.Contains(strings.ToLower(title), needle) {
			return
		}
		href, ok := s.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return
		}
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return
		}
		abs := base.ResolveReference(ref)
		abs.Fragment = ""
		abs.RawFragment = ""
		threadURL := abs.String()

		if seen[threadURL] {
			return
		}
		seen[threadURL] = true

		threads = append(threads, model.ThreadDescriptor{
			BaseURL: threadURL,
			Title:   title,
		})
	})

	return threads, nil
}

// BuildThreadmarksURL は、ベースURLに threadmarks 区間を付加します。
func (a *XenForoAdapter) BuildThreadmarksURL(baseURL string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("ベースURLの解析に失敗しました (url=%s): %w", baseURL, err)
	}
	u.Fragment = ""
	u.RawFragment = ""
	return u.JoinPath("threadmarks").String(), nil
}

// ParseThreadmarks は、各スレッドマーク要素の最初のリンク（二つ目は日付）から
// ロケータとタイトルを取り出します。順序はページ上の出現順のままです。
func (a *XenForoAdapter) ParseThreadmarks(htmlBody []byte) ([]model.TocEntry, error) {
	doc, err := NewDocumentFromBytes(htmlBody)
	if err != nil {
		return nil, fmt.Errorf("目次ページのHTML解析に失敗しました: %w", err)
	}

	markers := doc.Find(threadmarkSelector)
	entries := make([]model.TocEntry, 0, markers.Length())
	var parseErr error

	markers.EachWithBreak(func(i int, marker *goquery.Selection) bool {
		link := marker.Find("a").First()
		if link.Length() == 0 {
			parseErr = &TocFormatError{Index: i, Err: fmt.Errorf("リンクがありません")}
			return false
		}
		href, _ := link.Attr("href")
		loc, err := DecodeLocator(href)
		if err != nil {
			parseErr = &TocFormatError{Index: i, Err: err}
			return false
		}
		entries = append(entries, model.TocEntry{
			Locator: loc,
			Title:   strings.TrimSpace(link.Text()),
		})
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}

	return entries, nil
}

// BuildPostURL は、ロケータを EncodeLocator で完全なURLに変換します。
func (a *XenForoAdapter) BuildPostURL(baseURL string, loc model.Locator) (string, error) {
	return EncodeLocator(baseURL, loc.Page, loc.Post)
}

// ExtractPostHTML は、data-lb-id がURLのフラグメントと一致する投稿要素を探し、
// その内側の本文ラッパー (div.bbWrapper) のHTMLを返します。
func (a *XenForoAdapter) ExtractPostHTML(htmlBody []byte, postURL string) (string, error) {
	u, err := url.Parse(postURL)
	if err != nil {
		return "", fmt.Errorf("投稿URLの解析に失敗しました (url=%s): %w", postURL, err)
	}
	anchor := u.Fragment
	if anchor == "" {
		return "", &AddressFormatError{URL: postURL, Reason: "フラグメントがありません"}
	}

	doc, err := NewDocumentFromBytes(htmlBody)
	if err != nil {
		return "", fmt.Errorf("投稿ページのHTML解析に失敗しました (url=%s): %w", postURL, err)
	}

	postSelector := fmt.Sprintf(`[data-lb-id=%q]`, anchor)
	post := doc.Find(postSelector).First()
	if post.Length() == 0 {
		return "", &PostNotFoundError{URL: postURL, Selector: postSelector}
	}
	wrapper := post.Find(postContentSelector).First()
	if wrapper.Length() == 0 {
		return "", &PostNotFoundError{URL: postURL, Selector: postSelector + " " + postContentSelector}
	}

	html, err := goquery.OuterHtml(wrapper)
	if err != nil {
		return "", fmt.Errorf("本文HTMLのシリアライズに失敗しました (url=%s): %w", postURL, err)
	}
	return html, nil
}
