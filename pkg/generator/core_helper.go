package generator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/shouni/gemini-icon-kit/pkg/domain"
	"google.golang.org/genai"
)

// toParts はドメインのパーツを送信順のまま genai.Part に変換します。
func toParts(payload *domain.ModelPayload) []*genai.Part {
	parts := make([]*genai.Part, 0, len(payload.Parts))
	for _, p := range payload.Parts {
		if p.InlineData != nil {
			parts = append(parts, &genai.Part{InlineData: &genai.Blob{
				MIMEType: p.InlineData.MIMEType,
				Data:     p.InlineData.Data,
			}})
			continue
		}
		parts = append(parts, &genai.Part{Text: p.Text})
	}
	return parts
}

// parseToResponse は最初の候補 (Candidate) のパーツを宣言順に調べ、最初の画像を返します。
// 2番目以降の候補は参照しません。
func parseToResponse(resp *genai.GenerateContentResponse) (*domain.ImageResponse, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return nil, domain.NewError(domain.KindNoImage, "model returned no candidates", nil)
	}
	candidate := resp.Candidates[0]

	var texts []string
	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return &domain.ImageResponse{
					Data:     part.InlineData.Data,
					MimeType: part.InlineData.MIMEType,
				}, nil
			}
			if t := strings.TrimSpace(part.Text); t != "" {
				texts = append(texts, t)
			}
		}
	}

	// 安全フィルター等によるブロックの確認
	switch candidate.FinishReason {
	case "", genai.FinishReasonUnspecified, genai.FinishReasonStop:
	default:
		return nil, domain.NewError(domain.KindNoImage,
			fmt.Sprintf("image generation stopped (FinishReason: %s)", candidate.FinishReason), nil)
	}

	if len(texts) > 0 {
		return nil, domain.NewError(domain.KindNoImage, "model returned text instead of an image: "+strings.Join(texts, " "), nil)
	}
	return nil, domain.NewError(domain.KindNoImage, "model returned no image data", nil)
}

// classifyGenaiError は SDK のエラーを TransportFailure に分類します。
func classifyGenaiError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return domain.NewError(domain.KindTransport, "request was cancelled or timed out", err)
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		msg := apiErr.Message
		if msg == "" {
			msg = http.StatusText(apiErr.Code)
		}
		if apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden {
			msg = "API key was rejected: " + msg
		}
		return domain.NewError(domain.KindTransport, fmt.Sprintf("Gemini API error %d: %s", apiErr.Code, msg), err)
	}

	return domain.NewError(domain.KindTransport, err.Error(), err)
}
