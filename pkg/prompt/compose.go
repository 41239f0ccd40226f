package prompt

import (
	"fmt"
	"strings"

	"github.com/shouni/gemini-icon-kit/pkg/domain"
)

const (
	iconInstruction    = "Create a clean, hand-drawn inventory icon."
	woodcutInstruction = "Create a rough, carved woodcut style illustration."

	// DefaultTransformPrompt はプロンプト未入力の transform で使う指示です。
	DefaultTransformPrompt = "Convert this image into a stylized icon."
)

// ComposeRequest はモードに応じたモデル送信用のパーツを組み立てます。
// 入力は変更せず、送信も行いません。
func ComposeRequest(req *domain.GenerationRequest, directive string) (*domain.ModelPayload, error) {
	if req == nil {
		return nil, domain.NewValidationError("request is required")
	}

	switch req.Mode {
	case domain.ModeGenerate:
		return composeGenerate(req, directive)
	case domain.ModeTransform:
		return composeTransform(req, directive)
	}
	return nil, domain.NewValidationError("unknown generation mode: " + string(req.Mode))
}

func composeGenerate(req *domain.GenerationRequest, directive string) (*domain.ModelPayload, error) {
	subject := strings.TrimSpace(req.Prompt)
	if subject == "" {
		return nil, domain.NewValidationError("prompt is required in generate mode")
	}

	instruction := iconInstruction
	if req.EffectiveStyle() == domain.StyleWoodcut {
		instruction = woodcutInstruction
	}

	text := fmt.Sprintf("%s %s Subject: %s. Ensure NO TEXT is present.", directive, instruction, subject)
	return &domain.ModelPayload{Parts: []domain.Part{{Text: text}}}, nil
}

func composeTransform(req *domain.GenerationRequest, directive string) (*domain.ModelPayload, error) {
	if req.Source.IsEmpty() {
		return nil, domain.NewValidationError("source image is required in transform mode")
	}

	extra := strings.TrimSpace(req.Prompt)
	if extra == "" {
		extra = DefaultTransformPrompt
	}

	focus := "Convert to a black and white woodcut/lithograph."
	if req.ColorMode == domain.ColorModeColor {
		focus = "Convert to a vintage color illustration."
	}

	text := fmt.Sprintf(`%s
Task: Redraw the provided image into this style.
Focus: %s
Strictly remove any background from the original image and place the subject on pure white.
Ensure NO TEXT is added.
Additional context: %s`, directive, focus, extra)

	// 元画像 → 指示の順で送ります。
	return &domain.ModelPayload{Parts: []domain.Part{
		{InlineData: &domain.Blob{MIMEType: req.Source.MimeType, Data: req.Source.Data}},
		{Text: text},
	}}, nil
}
