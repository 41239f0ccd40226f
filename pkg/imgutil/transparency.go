package imgutil

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"log/slog"

	"github.com/shouni/gemini-icon-kit/pkg/domain"
)

// WhiteThreshold を RGB すべてが厳密に超えた画素を透明にします。
// 境界のアンチエイリアスは行いません（239 の画素は不透明のまま残ります）。
const WhiteThreshold = 240

// RecoverTransparency は白に近い背景を完全な透明に変換し、PNG の data URL を返します。
// デコードできない場合は元画像をそのまま data URL にして返し、DecodeFailure を併せて返します。
// 戻り値の data URL は err の有無にかかわらず常に利用可能です。
func RecoverTransparency(data []byte, mimeType string) (string, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		slog.Warn("画像をデコードできないため透過処理をスキップします", "mime_type", mimeType, "bytes", len(data), "error", err)
		return EncodeDataURL(mimeType, data), domain.NewError(domain.KindDecode, "image could not be decoded", err)
	}

	buf := ToNRGBA(img)
	cleared := ApplyWhiteKey(buf)

	out := new(bytes.Buffer)
	if err := png.Encode(out, buf); err != nil {
		slog.Warn("PNGの再エンコードに失敗したため元画像を返します", "error", err)
		return EncodeDataURL(mimeType, data), domain.NewError(domain.KindDecode, "image could not be re-encoded", err)
	}

	slog.Debug("透過処理が完了しました",
		"width", buf.Rect.Dx(), "height", buf.Rect.Dy(), "cleared_pixels", cleared)
	return EncodeDataURL("image/png", out.Bytes()), nil
}

// ApplyWhiteKey は R,G,B がすべて WhiteThreshold を超える画素のアルファを 0 にします。
// それ以外の画素は4チャンネルとも変更しません。透明にした画素数を返します。
func ApplyWhiteKey(img *image.NRGBA) int {
	cleared := 0
	b := img.Rect
	for y := 0; y < b.Dy(); y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+b.Dx()*4]
		for i := 0; i < len(row); i += 4 {
			if row[i] > WhiteThreshold && row[i+1] > WhiteThreshold && row[i+2] > WhiteThreshold {
				row[i+3] = 0
				cleared++
			}
		}
	}
	return cleared
}

// ToNRGBA は画像を非乗算アルファの新しいバッファにコピーします。
// 透明画素の RGB を保持するため、NRGBA 入力は画素をそのまま複製します。
func ToNRGBA(img image.Image) *image.NRGBA {
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))

	if src, ok := img.(*image.NRGBA); ok {
		for y := 0; y < b.Dy(); y++ {
			si := src.PixOffset(b.Min.X, b.Min.Y+y)
			copy(dst.Pix[y*dst.Stride:y*dst.Stride+b.Dx()*4], src.Pix[si:si+b.Dx()*4])
		}
		return dst
	}

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			dst.SetNRGBA(x-b.Min.X, y-b.Min.Y, c)
		}
	}
	return dst
}
