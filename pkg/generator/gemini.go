package generator

import (
	"context"
	"log/slog"

	"github.com/shouni/gemini-icon-kit/pkg/domain"
	"google.golang.org/genai"
)

// Send はパーツを Gemini に送信し、最初の候補から最初の画像を取り出します。
func (c *GeminiClient) Send(ctx context.Context, call Call) (*domain.ImageResponse, error) {
	if call.Credentials.APIKey == "" {
		return nil, domain.NewError(domain.KindMissingCredentials, "Gemini API key is not configured", nil)
	}
	if call.Payload == nil || len(call.Payload.Parts) == 0 {
		return nil, domain.NewValidationError("payload has no parts")
	}
	if call.Model == "" {
		return nil, domain.NewValidationError("model is required")
	}

	models, err := c.newClient(ctx, call.Credentials.APIKey)
	if err != nil {
		return nil, domain.NewError(domain.KindTransport, "failed to create Gemini client", err)
	}

	contents := []*genai.Content{{Role: "user", Parts: toParts(call.Payload)}}
	config := &genai.GenerateContentConfig{
		ImageConfig: &genai.ImageConfig{AspectRatio: c.aspectRatio},
	}

	slog.InfoContext(ctx, "Geminiに画像生成をリクエストします", "model", call.Model, "parts", len(contents[0].Parts))
	resp, err := models.GenerateContent(ctx, call.Model, contents, config)
	if err != nil {
		slog.WarnContext(ctx, "Gemini呼び出しに失敗しました", "model", call.Model, "error", err)
		return nil, classifyGenaiError(err)
	}

	return parseToResponse(resp)
}
