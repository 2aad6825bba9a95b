package adapter

import "fmt"

// AddressFormatError は、URLから Locator を復元できないことを表します。
type AddressFormatError struct {
	URL    string
	Reason string
	Err    error
}

func (e *AddressFormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("URLからロケータを解析できません (url=%s): %s: %v", e.URL, e.Reason, e.Err)
	}
	return fmt.Sprintf("URLからロケータを解析できません (url=%s): %s", e.URL, e.Reason)
}

func (e *AddressFormatError) Unwrap() error { return e.Err }

// TocFormatError は、目次の項目を解釈できないことを表します。
// Index は 0 始まりのスレッドマーク位置です。
type TocFormatError struct {
	Index int
	Err   error
}

func (e *TocFormatError) Error() string {
	return fmt.Sprintf("スレッドマーク #%d を解析できません: %v", e.Index+1, e.Err)
}

func (e *TocFormatError) Unwrap() error { return e.Err }

// PostNotFoundError は、取得したページに期待する投稿要素が無いことを表します。
type PostNotFoundError struct {
	URL      string
	Selector string
}

func (e *PostNotFoundError) Error() string {
	return fmt.Sprintf("投稿要素が見つかりません (url=%s, selector=%s)", e.URL, e.Selector)
}
