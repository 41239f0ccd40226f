package domain

import "time"

// Artifact は最終的な画像の成果物です。
type Artifact struct {
	DataURL     string
	MimeType    string
	Prompt      string
	Mode        GenerationMode
	CreatedAt   time.Time
	Transparent bool // 透過処理に失敗して元画像を返した場合は false
}

// Failure は分類済みの失敗です。
type Failure struct {
	Kind    ErrorKind
	Message string
}

// GenerationResult は Artifact か Failure のどちらか一方だけを持つ結果です。
type GenerationResult struct {
	artifact *Artifact
	failure  *Failure
}

// NewArtifactResult は成功結果を生成します。
func NewArtifactResult(a Artifact) GenerationResult {
	return GenerationResult{artifact: &a}
}

// NewFailureResult は err を分類して失敗結果を生成します。
func NewFailureResult(err error) GenerationResult {
	ge := Classify(err)
	msg := ge.Message
	if msg == "" {
		msg = ge.Error()
	}
	return GenerationResult{failure: &Failure{Kind: ge.Kind, Message: msg}}
}

// Succeeded は Artifact を持つ場合に true を返します。
func (r GenerationResult) Succeeded() bool {
	return r.artifact != nil
}

// Artifact は成功時の成果物を返します。失敗時は ok が false です。
func (r GenerationResult) Artifact() (Artifact, bool) {
	if r.artifact == nil {
		return Artifact{}, false
	}
	return *r.artifact, true
}

// Failure は失敗内容を返します。成功時は ok が false です。
func (r GenerationResult) Failure() (Failure, bool) {
	if r.failure == nil {
		return Failure{}, false
	}
	return *r.failure, true
}
