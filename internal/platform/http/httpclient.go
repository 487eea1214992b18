// Package http は外部のIDプロバイダ（OIDCディスカバリ、トークンエンドポイント、JWKS）呼び出し用のHTTPクライアントを提供します。
package http

import (
	"net"
	"net/http"
	"time"
)

// NewHTTPClient はOIDCプロバイダ呼び出し用のHTTPクライアントを作成します。
// 呼び出しはログイン時のディスカバリ・コード交換・鍵取得に限られるため、接続プールは小さく保ちます。
// timeout はリクエスト全体の上限です（http.DefaultClientには上限がありません）。
func NewHTTPClient(timeout time.Duration) *http.Client {
	t := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   4,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ResponseHeaderTimeout: timeout,
	}
	return &http.Client{Timeout: timeout, Transport: t}
}
