package core

import (
	"context"
	"fmt"

	"ThreadmarkArchiver/internal/adapter"
	"ThreadmarkArchiver/internal/model"
	"ThreadmarkArchiver/internal/textconv"
)

// ContentFetcher は、ロケータが指す投稿を取得し、本文をテキストとして返します。
type ContentFetcher struct {
	client    Fetcher
	adapter   adapter.SiteAdapter
	converter textconv.Converter
}

// NewContentFetcher は、ContentFetcherを生成します。
func NewContentFetcher(client Fetcher, siteAdapter adapter.SiteAdapter, converter textconv.Converter) *ContentFetcher {
	return &ContentFetcher{client: client, adapter: siteAdapter, converter: converter}
}

// Fetch は、baseURL 上の loc の投稿本文を取得して変換・正規化したテキストを返します。
// 失敗はこのエントリに限った致命的エラーです。
func (f *ContentFetcher) Fetch(ctx context.Context, baseURL string, loc model.Locator) (string, error) {
	postURL, err := f.adapter.BuildPostURL(baseURL, loc)
	if err != nil {
		return "", fmt.Errorf("投稿URLの構築に失敗しました (base=%s, page=%d, post=%d): %w", baseURL, loc.Page, loc.Post, err)
	}

	body, err := f.client.Get(ctx, postURL)
	if err != nil {
		return "", fmt.Errorf("投稿ページの取得に失敗しました (url=%s): %w", postURL, err)
	}

	postHTML, err := f.adapter.ExtractPostHTML(body, postURL)
	if err != nil {
		return "", err
	}

	text, err := f.converter.Convert(postHTML)
	if err != nil {
		return "", fmt.Errorf("投稿本文の変換に失敗しました (url=%s): %w", postURL, err)
	}
	return textconv.NormalizeEmphasis(text), nil
}
