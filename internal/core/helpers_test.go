package core

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"ThreadmarkArchiver/internal/adapter"
	"ThreadmarkArchiver/internal/config"
	"ThreadmarkArchiver/internal/network"
	"ThreadmarkArchiver/internal/store"
	"ThreadmarkArchiver/internal/textconv"

	"github.com/charmbracelet/log"
)

// fakeForum は、ランディング・目次・投稿ページを返すテスト用のフォーラムです。
type fakeForum struct {
	mu     sync.Mutex
	pages  map[string]string
	status map[string]int
	hits   map[string]int
	server *httptest.Server
}

func newFakeForum(t *testing.T) *fakeForum {
	t.Helper()
	f := &fakeForum{
		pages:  make(map[string]string),
		status: make(map[string]int),
		hits:   make(map[string]int),
	}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.hits[r.URL.Path]++
		if code, ok := f.status[r.URL.Path]; ok {
			http.Error(w, http.StatusText(code), code)
			return
		}
		body, ok := f.pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		io.WriteString(w, body)
	}))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeForum) URL(path string) string {
	return f.server.URL + path
}

func (f *fakeForum) set(path, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pages[path] = body
}

func (f *fakeForum) fail(path string, code int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status[path] = code
}

func (f *fakeForum) hitCount(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[path]
}

func (f *fakeForum) resetHits() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hits = make(map[string]int)
}

type link struct {
	href string
	text string
}

func landingPage(links ...link) string {
	var b strings.Builder
	b.WriteString("<html><body><ul>")
	for _, l := range links {
		fmt.Fprintf(&b, `<li><a href="%s">%s</a></li>`, l.href, l.text)
	}
	b.WriteString("</ul></body></html>")
	return b.String()
}

func threadmarksPage(links ...link) string {
	var b strings.Builder
	b.WriteString(`<html><body><div class="structItemContainer">`)
	for _, l := range links {
		fmt.Fprintf(&b, `<div class="structItem structItem--threadmark"><div><a href="%s">%s</a></div><div><a href="%s"><time>date</time></a></div></div>`,
			l.href, l.text, l.href)
	}
	b.WriteString("</div></body></html>")
	return b.String()
}

// postsPage は、投稿IDと本文HTMLの組からスレッドのページを生成します。
func postsPage(posts map[int64]string) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	for id, body := range posts {
		fmt.Fprintf(&b, `<article data-lb-id="post-%d"><div class="message-content"><div class="bbWrapper">%s</div></div></article>`, id, body)
	}
	b.WriteString("</body></html>")
	return b.String()
}

// recordingReporter は Report の呼び出しを記録します。
type recordingReporter struct {
	calls []string
}

func (r *recordingReporter) Report(current, total int, label string) {
	r.calls = append(r.calls, fmt.Sprintf("%d/%d %s", current, total, label))
}

func newTestArchiver(t *testing.T, outputRoot string, idx *store.Index) (*Archiver, *recordingReporter) {
	t.Helper()
	client, err := network.NewClient(config.NetworkSettings{}, network.NoDelay{})
	if err != nil {
		t.Fatalf("NewClientの作成に失敗しました: %v", err)
	}
	siteAdapter := adapter.NewXenForoAdapter()
	reporter := &recordingReporter{}
	return &Archiver{
		Client:     client,
		Adapter:    siteAdapter,
		Content:    NewContentFetcher(client, siteAdapter, textconv.NewMarkdownConverter("")),
		FS:         OSFileSystem{},
		Index:      idx,
		Progress:   reporter,
		Logger:     log.New(io.Discard),
		OutputRoot: outputRoot,
	}, reporter
}
