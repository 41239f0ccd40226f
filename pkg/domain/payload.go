package domain

// Blob はインラインで送受信するバイナリとメディアタイプです。
type Blob struct {
	MIMEType string
	Data     []byte
}

// Part はモデルへ送るコンテンツの1要素です。Text か InlineData のどちらか一方を持ちます。
type Part struct {
	Text       string
	InlineData *Blob
}

// ModelPayload は送信順に並んだパーツの集合です。トランスポートには依存しません。
type ModelPayload struct {
	Parts []Part
}

// TextParts はテキストパーツだけを順に返します。
func (p *ModelPayload) TextParts() []string {
	if p == nil {
		return nil
	}
	var out []string
	for _, part := range p.Parts {
		if part.InlineData == nil {
			out = append(out, part.Text)
		}
	}
	return out
}
