package generator

import (
	"fmt"
	"net/url"
	"strings"
)

// normalizeBaseURL は末尾のスラッシュを取り除き、http/https の絶対URLであることを確認します。
func normalizeBaseURL(raw string) (string, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(raw), "/")
	if trimmed == "" {
		return "", fmt.Errorf("baseURL is required")
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("URLパース失敗: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("不許可スキーム: %s", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("ホストがありません: %s", raw)
	}
	return trimmed, nil
}

// joinEndpoint はエンドポイントが必ずスラッシュで始まるように連結します。
func joinEndpoint(base, endpoint string) string {
	if !strings.HasPrefix(endpoint, "/") {
		endpoint = "/" + endpoint
	}
	return base + endpoint
}
