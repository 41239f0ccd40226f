package generator

import (
	"context"
	"fmt"
	"net/http"

	"google.golang.org/genai"
)

// GeminiClient は Gemini API を直接呼び出す GenerationClient です。
// API キーは送信時に Call から受け取り、クライアントはその都度生成します。
type GeminiClient struct {
	newClient   ClientFactory
	aspectRatio string
}

// NewGeminiClient は依存関係を注入して GeminiClient を初期化します。
func NewGeminiClient(factory ClientFactory) (*GeminiClient, error) {
	if factory == nil {
		return nil, fmt.Errorf("factory is required")
	}
	return &GeminiClient{
		newClient:   factory,
		aspectRatio: SquareAspectRatio,
	}, nil
}

// NewGenaiClientFactory は genai SDK を使う ClientFactory を返します。
// httpClient が nil の場合は SDK の既定クライアントを使います。
func NewGenaiClientFactory(httpClient *http.Client) ClientFactory {
	return func(ctx context.Context, apiKey string) (ContentGenerator, error) {
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:     apiKey,
			Backend:    genai.BackendGeminiAPI,
			HTTPClient: httpClient,
		})
		if err != nil {
			return nil, err
		}
		return client.Models, nil
	}
}
