package pipeline

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/shouni/gemini-icon-kit/pkg/domain"
	"github.com/shouni/gemini-icon-kit/pkg/generator"
	"google.golang.org/genai"
)

// --- Mocks ---

type mockClient struct {
	sendFunc func(ctx context.Context, call generator.Call) (*domain.ImageResponse, error)
	calls    int
	lastCall generator.Call
}

func (m *mockClient) Send(ctx context.Context, call generator.Call) (*domain.ImageResponse, error) {
	m.calls++
	m.lastCall = call
	if m.sendFunc != nil {
		return m.sendFunc(ctx, call)
	}
	return nil, nil
}

type mockCredentials struct {
	creds   domain.Credentials
	ok      bool
	expired int
}

func (m *mockCredentials) Credentials() (domain.Credentials, bool) { return m.creds, m.ok }
func (m *mockCredentials) OnSessionExpired()                       { m.expired++ }

func apiKey() *mockCredentials {
	return &mockCredentials{creds: domain.Credentials{APIKey: "key"}, ok: true}
}

// mockModels は genai の Models の代わりに固定画像を返すのだ。
type mockModels struct {
	data []byte
}

func (m *mockModels) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		Content: &genai.Content{Parts: []*genai.Part{
			{Text: "here you go"},
			{InlineData: &genai.Blob{MIMEType: "image/png", Data: m.data}},
		}},
	}}}, nil
}

// whiteBackgroundPNG は白背景の中央に黒い画素が1つある 3x3 の PNG なのだ。
func whiteBackgroundPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 3, 3))
	for y := 0; y < 3; y++ {
		for x := 0; x < 3; x++ {
			img.Set(x, y, color.White)
		}
	}
	img.Set(1, 1, color.Black)
	buf := new(bytes.Buffer)
	if err := png.Encode(buf, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	return buf.Bytes()
}
