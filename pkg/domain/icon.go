package domain

import "strings"

// ColorMode はスタイル指示の配色バリエーションです。値はバックエンドの colorMode と一致します。
type ColorMode string

const (
	ColorModeMonochrome ColorMode = "bw"
	ColorModeColor      ColorMode = "color"
)

// OutputKind は出力物の種類です。解像度のヒント（100x100 / 500x500）だけを決めます。
type OutputKind string

const (
	OutputKindIcon         OutputKind = "icon"
	OutputKindIllustration OutputKind = "illustration"
)

// GenerationMode はテキストからの生成か、元画像の変換かを表します。
type GenerationMode string

const (
	ModeGenerate  GenerationMode = "generate"
	ModeTransform GenerationMode = "transform"
)

// IconStyle は generate モードの描画指示と、バックエンドへのレガシー style パラメータを決めます。
type IconStyle string

const (
	StyleInventory IconStyle = "inventory"
	StyleWoodcut   IconStyle = "woodcut"
	StyleSketch    IconStyle = "sketch"
)

// ParseColorMode は文字列を ColorMode に変換します。"monochrome" も bw として受け付けます。
func ParseColorMode(s string) (ColorMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "bw", "monochrome", "mono":
		return ColorModeMonochrome, nil
	case "color", "colour":
		return ColorModeColor, nil
	}
	return "", NewValidationError("unknown color mode: " + s)
}

// ParseOutputKind は文字列を OutputKind に変換します。空文字は icon です。
func ParseOutputKind(s string) (OutputKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "icon":
		return OutputKindIcon, nil
	case "illustration":
		return OutputKindIllustration, nil
	}
	return "", NewValidationError("unknown output kind: " + s)
}

// ParseIconStyle は文字列を IconStyle に変換します。空文字はモード依存の既定値に任せるため空のまま返します。
func ParseIconStyle(s string) (IconStyle, error) {
	switch st := IconStyle(strings.ToLower(strings.TrimSpace(s))); st {
	case "", StyleInventory, StyleWoodcut, StyleSketch:
		return st, nil
	}
	return "", NewValidationError("unknown icon style: " + s)
}

// SourceImage は transform モードで送る元画像です。リクエストの完了後は保持しません。
type SourceImage struct {
	Data     []byte
	MimeType string
}

// IsEmpty は画像データが存在しない場合に true を返します。
func (s *SourceImage) IsEmpty() bool {
	return s == nil || len(s.Data) == 0
}

// GenerationRequest は1回の送信ごとに新しく組み立てる生成要求です。
// 資格情報は送信時に CredentialProvider から解決します。
type GenerationRequest struct {
	Mode       GenerationMode
	Prompt     string
	ColorMode  ColorMode
	OutputKind OutputKind
	Style      IconStyle
	Source     *SourceImage
	Model      string // 空の場合はオーケストレーターの既定モデル
}

// Validate はモードごとの必須入力を検証します。
func (r *GenerationRequest) Validate() error {
	switch r.Mode {
	case ModeGenerate:
		if strings.TrimSpace(r.Prompt) == "" {
			return NewValidationError("prompt is required in generate mode")
		}
		if r.Source != nil {
			return NewValidationError("source image is only accepted in transform mode")
		}
	case ModeTransform:
		if r.Source.IsEmpty() {
			return NewValidationError("source image is required in transform mode")
		}
	default:
		return NewValidationError("unknown generation mode: " + string(r.Mode))
	}
	return nil
}

// EffectiveStyle は Style が未指定のときにモードから既定値を決めます。
func (r *GenerationRequest) EffectiveStyle() IconStyle {
	if r.Style != "" {
		return r.Style
	}
	if r.Mode == ModeTransform {
		return StyleWoodcut
	}
	return StyleInventory
}

// EffectiveOutputKind は未指定の OutputKind を icon として扱います。
func (r *GenerationRequest) EffectiveOutputKind() OutputKind {
	if r.OutputKind == "" {
		return OutputKindIcon
	}
	return r.OutputKind
}

// ImageResponse はモデル応答から取り出した生の画像データです。
type ImageResponse struct {
	Data     []byte
	MimeType string
}
