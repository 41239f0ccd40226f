package source

import "context"

const (
	// MaxSourceBytes を超えるソース画像はJPEGに再圧縮します。
	MaxSourceBytes          = 4 << 20
	ImageCompressionQuality = 75
)

// HTTPClient はリモート画像の取得に使う依存関係です。httpkit.Client が満たします。
type HTTPClient interface {
	FetchBytes(ctx context.Context, url string) ([]byte, error)
	IsSafeURL(url string) (bool, error)
}
