// Package network は、HTTP通信に関する機能を提供します。
// Cookie Jarによるセッション管理、リクエスト前の礼儀待機、ホストごとの
// レート制限をカプセル化した、より高レベルなHTTPクライアントを実装しています。
package network

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
	"time"

	"ThreadmarkArchiver/internal/config"

	"golang.org/x/net/html/charset"
	"golang.org/x/time/rate"
)

// TransportError は、HTTPリクエストの失敗（非2xxステータスまたは通信エラー）を表します。
// 通信エラーの場合 StatusCode は 0 です。
type TransportError struct {
	StatusCode int
	URL        string
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("通信エラー (URL: %s): %v", e.URL, e.Err)
	}
	return fmt.Sprintf("HTTP %d: %s (URL: %s)", e.StatusCode, http.StatusText(e.StatusCode), e.URL)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Client は、Cookie Jarを内包し、HTTPセッションを管理するクライアントです。
// Get はリクエストごとに Delayer で待機してから送信します。
type Client struct {
	httpClient        *http.Client
	userAgent         string
	defaultHeaders    map[string]string
	delay             Delayer
	rateLimiters      map[string]*rate.Limiter // ホスト名ごとのレートリミッター
	rateLimitersMutex sync.Mutex
}

// NewClient は NetworkSettings に基づいて HTTP クライアントを初期化します。
// delay が nil の場合は待機しません。
func NewClient(settings config.NetworkSettings, delay Delayer) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("cookie jarの作成に失敗しました: %w", err)
	}

	timeout := time.Duration(settings.RequestTimeoutMillis) * time.Millisecond
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	// per_domain_interval_ms に設定されたホストだけを制限する
	rateLimiters := make(map[string]*rate.Limiter)
	for domain, intervalMillis := range settings.PerDomainIntervalMillis {
		if intervalMillis <= 0 {
			continue
		}
		rateLimiters[domain] = rate.NewLimiter(rate.Every(time.Duration(intervalMillis)*time.Millisecond), 1)
	}

	userAgent := settings.UserAgent
	if userAgent == "" {
		userAgent = config.DefaultUserAgent
	}
	if delay == nil {
		delay = NoDelay{}
	}

	return &Client{
		httpClient: &http.Client{
			Jar:     jar,
			Timeout: timeout,
		},
		userAgent:      userAgent,
		defaultHeaders: settings.DefaultHeaders,
		delay:          delay,
		rateLimiters:   rateLimiters,
	}, nil
}

// Get は、礼儀待機の後に指定されたURLへGETリクエストを送信し、
// UTF-8に変換したレスポンスボディを返します。
func (c *Client) Get(ctx context.Context, reqURL string) ([]byte, error) {
	parsedURL, err := url.Parse(reqURL)
	if err != nil {
		return nil, fmt.Errorf("リクエストURLの解析に失敗しました (%s): %w", reqURL, err)
	}

	if err := c.delay.Wait(ctx); err != nil {
		return nil, fmt.Errorf("リクエスト前の待機が中断されました (%s): %w", reqURL, err)
	}
	if limiter := c.limiterForHost(parsedURL.Hostname()); limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("レートリミッター待機中にエラーが発生しました: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("GETリクエストの作成に失敗しました (%s): %w", reqURL, err)
	}
	for key, value := range c.defaultHeaders {
		req.Header.Set(key, value)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{URL: reqURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TransportError{
			StatusCode: resp.StatusCode,
			URL:        reqURL,
			Err:        fmt.Errorf("unexpected status %q", resp.Status),
		}
	}

	reader, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("文字コードの判定に失敗しました (%s): %w", reqURL, err)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, &TransportError{StatusCode: resp.StatusCode, URL: reqURL, Err: err}
	}
	return body, nil
}

// limiterForHost は、ホストに設定されたレートリミッターを返します。未設定なら nil です。
func (c *Client) limiterForHost(host string) *rate.Limiter {
	c.rateLimitersMutex.Lock()
	defer c.rateLimitersMutex.Unlock()
	return c.rateLimiters[host]
}
