package imgutil

import (
	"encoding/base64"
	"fmt"
	"strings"
)

const dataURLPrefix = "data:"

// EncodeDataURL は data:<mime>;base64,<...> 形式の文字列を生成します。
func EncodeDataURL(mimeType string, data []byte) string {
	if mimeType == "" {
		mimeType = "image/png"
	}
	return dataURLPrefix + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DecodeDataURL は base64 形式の data URL をメディアタイプとバイト列に分解します。
func DecodeDataURL(s string) (string, []byte, error) {
	if !strings.HasPrefix(s, dataURLPrefix) {
		return "", nil, fmt.Errorf("data URL ではありません")
	}
	meta, payload, ok := strings.Cut(strings.TrimPrefix(s, dataURLPrefix), ",")
	if !ok {
		return "", nil, fmt.Errorf("data URL にデータ部がありません")
	}

	mimeType, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 {
		return "", nil, fmt.Errorf("base64 以外の data URL には対応していません")
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("base64 デコード失敗: %w", err)
	}
	return mimeType, data, nil
}
