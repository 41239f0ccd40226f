package prompt

import (
	"fmt"

	"github.com/shouni/gemini-icon-kit/pkg/domain"
)

// 透過処理を成立させるための必須制約です。配色に関係なく常にスタイル指示へ含めます。
const (
	NoTextConstraint          = "NO TEXT. Do not generate labels, words, letters, signatures, or numbers."
	IsolatedSubjectConstraint = "ISOLATED SUBJECT. The object must be isolated on a pure white background (#FFFFFF)."
)

const (
	monochromeStyle = `Style definition: 19th-century frontier inventory icon.
Characteristics: High contrast, black ink on pure white background, lithograph or woodcut aesthetic, hand-inked journal style.`

	colorStyle = `Style definition: 19th-century frontier catalog item illustration.
Characteristics: Vintage watercolor, colored pencil or ink wash aesthetic. Realistic but hand-drawn. Muted, period-appropriate colors (earth tones, faded dyes).`

	monochromeDetail = "Keep details bold and simple. No colors (monochrome black/dark grey on white)."
	colorDetail      = "Bold details."
)

// resolutionHint は出力種別ごとの解像度ヒントです。リサイズは行いません。
func resolutionHint(kind domain.OutputKind) string {
	if kind == domain.OutputKindIllustration {
		return "500x500 pixel aesthetic."
	}
	return "100x100 pixel aesthetic."
}

// BuildStyleDirective は配色と出力種別からスタイル指示を組み立てます。純粋関数です。
func BuildStyleDirective(colorMode domain.ColorMode, kind domain.OutputKind) string {
	style, detail := monochromeStyle, monochromeDetail
	if colorMode == domain.ColorModeColor {
		style, detail = colorStyle, colorDetail
	}

	return fmt.Sprintf(`%s
Crucial Requirements:
1. %s
2. %s
3. %s %s
`, style, NoTextConstraint, IsolatedSubjectConstraint, resolutionHint(kind), detail)
}
