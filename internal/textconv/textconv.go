// Package textconv は、投稿本文のHTMLをプレーンテキスト（軽量マークアップ）へ変換します。
package textconv

import (
	"fmt"
	"regexp"

	md "github.com/JohannesKaufmann/html-to-markdown"
)

// Converter は、HTML断片をプレーンテキストへ変換します。
type Converter interface {
	Convert(html string) (string, error)
}

// MarkdownConverter は html-to-markdown を使って変換します。
// 太字は ** 、斜体は _ で表現されます。
type MarkdownConverter struct {
	conv *md.Converter
}

// NewMarkdownConverter は、MarkdownConverterを生成します。
// domain は相対リンクを絶対URLに直す際の基準で、空でも構いません。
func NewMarkdownConverter(domain string) *MarkdownConverter {
	return &MarkdownConverter{
		conv: md.NewConverter(domain, true, &md.Options{
			StrongDelimiter: "**",
			EmDelimiter:     "_",
			EscapeMode:      "disabled",
		}),
	}
}

func (c *MarkdownConverter) Convert(html string) (string, error) {
	text, err := c.conv.ConvertString(html)
	if err != nil {
		return "", fmt.Errorf("HTMLからテキストへの変換に失敗しました (size=%d bytes): %w", len(html), err)
	}
	return text, nil
}

// 空白だけを挟んで隣接する強調記号の組
var adjacentEmphasisPattern = regexp.MustCompile(`\*\*\s+\*\*`)

// NormalizeEmphasis は、空白だけで区切られた隣接する強調記号を取り除き、
// 二つの強調区間を一つにまとめます。
// 例: "**alpha** **beta**" -> "**alphabeta**"
func NormalizeEmphasis(text string) string {
	return adjacentEmphasisPattern.ReplaceAllString(text, "")
}
