package session

import (
	"strings"

	"github.com/shouni/gemini-icon-kit/pkg/domain"
)

// StaticProvider は設定から渡された API キーをそのまま返す CredentialProvider です。
type StaticProvider struct {
	apiKey string
}

// NewStaticProvider は API キーを保持する StaticProvider を生成します。
func NewStaticProvider(apiKey string) *StaticProvider {
	return &StaticProvider{apiKey: strings.TrimSpace(apiKey)}
}

func (p *StaticProvider) Credentials() (domain.Credentials, bool) {
	if p.apiKey == "" {
		return domain.Credentials{}, false
	}
	return domain.Credentials{APIKey: p.apiKey}, true
}

// OnSessionExpired は何もしません。API キーは期限切れを持ちません。
func (p *StaticProvider) OnSessionExpired() {}
