package adapter

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"

	"ThreadmarkArchiver/internal/model"
)

var (
	// ページ番号はパス末尾の page-<数字>（末尾スラッシュ可）
	pageSegmentPattern = regexp.MustCompile(`page-(\d+)/?$`)
	// 投稿IDはフラグメント末尾の post-<数字>
	postFragmentPattern = regexp.MustCompile(`post-(\d+)$`)
)

// DecodeLocator は、フォーラム形式のURLを Locator に変換します。
// ページ番号が無い場合は 1 とみなし、投稿IDが無い場合は AddressFormatError を返します。
func DecodeLocator(rawURL string) (model.Locator, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return model.Locator{}, &AddressFormatError{URL: rawURL, Reason: "URLの構文が不正です", Err: err}
	}

	loc := model.Locator{Page: 1}
	if m := pageSegmentPattern.FindStringSubmatch(u.Path); m != nil {
		page, err := strconv.Atoi(m[1])
		if err != nil {
			return model.Locator{}, &AddressFormatError{URL: rawURL, Reason: "ページ番号が不正です", Err: err}
		}
		if page < 1 {
			return model.Locator{}, &AddressFormatError{URL: rawURL, Reason: fmt.Sprintf("ページ番号 %d は 1 未満です", page)}
		}
		loc.Page = page
	}

	m := postFragmentPattern.FindStringSubmatch(u.Fragment)
	if m == nil {
		return model.Locator{}, &AddressFormatError{URL: rawURL, Reason: "フラグメントに post-<id> がありません"}
	}
	post, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return model.Locator{}, &AddressFormatError{URL: rawURL, Reason: "投稿IDが不正です", Err: err}
	}
	loc.Post = post

	return loc, nil
}

// EncodeLocator は、スレッドのベースURLにページ区間 page-<page> と
// フラグメント post-<post> を付加したURLを返します。DecodeLocator の逆変換です。
func EncodeLocator(baseURL string, page int, post int64) (string, error) {
	if page < 1 || post < 0 {
		return "", fmt.Errorf("不正なロケータです (page=%d, post=%d)", page, post)
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("ベースURLの解析に失敗しました (url=%s): %w", baseURL, err)
	}
	base.Fragment = ""
	base.RawFragment = ""

	u := base.JoinPath(fmt.Sprintf("page-%d", page))
	u.Fragment = fmt.Sprintf("post-%d", post)
	return u.String(), nil
}

// PostAnchor は、投稿IDに対応するアンカー値 (post-<id>) を返します。
func PostAnchor(post int64) string {
	return "post-" + strconv.FormatInt(post, 10)
}
