package generator

import (
	"context"

	"github.com/shouni/gemini-icon-kit/pkg/domain"
	"google.golang.org/genai"
)

// GenerationClient は組み立て済みのリクエストを1回だけ送信し、最初の画像を取り出します。
// リトライは行いません。失敗は domain.GenerationError に分類して返します。
type GenerationClient interface {
	Send(ctx context.Context, call Call) (*domain.ImageResponse, error)
}

// Call は1回の送信に必要な情報です。
// 直接呼び出しは Payload を、バックエンド経由は Request をそれぞれ使います。
type Call struct {
	Payload     *domain.ModelPayload
	Request     *domain.GenerationRequest
	Model       string
	Credentials domain.Credentials
}

// ContentGenerator は genai の Models が満たす最小限のインターフェースです。
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// ClientFactory は送信ごとに API キーから ContentGenerator を生成します。
type ClientFactory func(ctx context.Context, apiKey string) (ContentGenerator, error)

// ModeSupporter は生成モードの一部しか扱えないクライアントが実装します。
// 実装しないクライアントはすべてのモードを扱えるものとみなします。
type ModeSupporter interface {
	SupportsMode(mode domain.GenerationMode) bool
}
