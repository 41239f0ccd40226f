package source

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/shouni/gemini-icon-kit/pkg/domain"
	"github.com/shouni/gemini-icon-kit/pkg/imgutil"
	"github.com/shouni/go-remote-io/pkg/remoteio"
)

// Loader はローカルファイル、gs:// / s3:// オブジェクト、または http(s) URL から
// ソース画像を読み込み、モデルが受け付ける形式に揃えます。
type Loader struct {
	httpClient HTTPClient
	reader     remoteio.InputReader
	maxBytes   int
}

// Option は Loader の設定を変更します。
type Option func(*Loader)

// WithInputReader はファイル・クラウドストレージの読み込み元を差し替えます。
// 既定はクラウドクライアントを持たない UniversalInputReader で、ローカルファイルのみ読めます。
func WithInputReader(reader remoteio.InputReader) Option {
	return func(l *Loader) {
		if reader != nil {
			l.reader = reader
		}
	}
}

// WithMaxBytes は再圧縮を行うサイズの閾値を変更します。
func WithMaxBytes(n int) Option {
	return func(l *Loader) {
		if n > 0 {
			l.maxBytes = n
		}
	}
}

// NewLoader は依存関係を注入して Loader を初期化します。
func NewLoader(httpClient HTTPClient, opts ...Option) (*Loader, error) {
	if httpClient == nil {
		return nil, fmt.Errorf("httpClient is required")
	}
	l := &Loader{
		httpClient: httpClient,
		reader:     remoteio.NewUniversalInputReader(nil, nil),
		maxBytes:   MaxSourceBytes,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Load は ref (ファイルパスまたはURL) から SourceImage を作ります。
// 画像でないデータは ValidationError です。
func (l *Loader) Load(ctx context.Context, ref string) (*domain.SourceImage, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, domain.NewValidationError("source image is required")
	}

	data, err := l.read(ctx, ref)
	if err != nil {
		return nil, err
	}
	return l.normalize(ctx, data)
}

func (l *Loader) read(ctx context.Context, ref string) ([]byte, error) {
	if !isHTTPURL(ref) {
		return l.readStorage(ctx, ref)
	}

	// FetchBytes も同じ検証を行うが、通信前に ValidationError として弾く
	if safe, err := l.httpClient.IsSafeURL(ref); err != nil || !safe {
		return nil, domain.NewError(domain.KindValidation, "安全ではないURLが指定されました", err)
	}
	data, err := l.httpClient.FetchBytes(ctx, ref)
	if err != nil {
		return nil, domain.NewError(domain.KindTransport, "source image could not be fetched", err)
	}
	return data, nil
}

// readStorage はローカルパスまたは gs:// / s3:// URI を読み込みます。
// ローカルの失敗は ValidationError、クラウドの失敗は TransportFailure です。
func (l *Loader) readStorage(ctx context.Context, ref string) ([]byte, error) {
	kind := domain.KindValidation
	if remoteio.IsRemoteURI(ref) {
		kind = domain.KindTransport
	}

	rc, err := l.reader.Open(ctx, ref)
	if err != nil {
		return nil, domain.NewError(kind, "source image could not be read", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, domain.NewError(kind, "source image could not be read", err)
	}
	return data, nil
}

// normalize は GIF/BMP を PNG に変換し、閾値を超える画像を JPEG に圧縮します。
func (l *Loader) normalize(ctx context.Context, data []byte) (*domain.SourceImage, error) {
	mimeType := http.DetectContentType(data)
	if !strings.HasPrefix(mimeType, "image/") {
		return nil, domain.NewValidationError(fmt.Sprintf("source is not an image (%s)", mimeType))
	}

	switch mimeType {
	case "image/gif", "image/bmp":
		converted, err := imgutil.ReencodeToPNG(data)
		if err != nil {
			return nil, domain.NewError(domain.KindValidation, "source image could not be decoded", err)
		}
		data, mimeType = converted, "image/png"
	}

	if len(data) > l.maxBytes {
		compressed, err := imgutil.CompressToJPEG(data, ImageCompressionQuality)
		if err != nil {
			// 圧縮できなくても元データで続行する
			slog.WarnContext(ctx, "ソース画像の圧縮に失敗しました", "size", len(data), "error", err)
		} else {
			slog.InfoContext(ctx, "ソース画像を圧縮しました", "before", len(data), "after", len(compressed))
			data, mimeType = compressed, "image/jpeg"
		}
	}

	return &domain.SourceImage{Data: data, MimeType: mimeType}, nil
}

// isHTTPURL は参照が http(s) URL かどうかを返します。
func isHTTPURL(ref string) bool {
	lower := strings.ToLower(ref)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
