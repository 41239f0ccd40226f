package generator

import (
	"context"

	"google.golang.org/genai"
)

// --- Mocks ---

// mockModels は ContentGenerator のテスト用モックなのだ。
type mockModels struct {
	generateFunc func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	calls        int
	lastModel    string
	lastContents []*genai.Content
	lastConfig   *genai.GenerateContentConfig
}

func (m *mockModels) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	m.calls++
	m.lastModel = model
	m.lastContents = contents
	m.lastConfig = config
	if m.generateFunc != nil {
		return m.generateFunc(ctx, model, contents, config)
	}
	return imageResponse("image/png", []byte("fake")), nil
}

// factoryFor は常に同じモックを返す ClientFactory を作るのだ。
func factoryFor(m *mockModels, gotKey *string) ClientFactory {
	return func(ctx context.Context, apiKey string) (ContentGenerator, error) {
		if gotKey != nil {
			*gotKey = apiKey
		}
		return m, nil
	}
}

func imageResponse(mimeType string, data []byte) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{
				Parts: []*genai.Part{{InlineData: &genai.Blob{MIMEType: mimeType, Data: data}}},
			},
		}},
	}
}
