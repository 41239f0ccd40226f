package generator

const (
	// SquareAspectRatio はアイコン用に常に要求する正方形のアスペクト比です。
	SquareAspectRatio = "1:1"

	// DefaultModel は設定がない場合に使う画像生成モデルです。
	DefaultModel = "gemini-2.5-flash-image"

	endpointGenerate = "/api/generate"
	endpointLogin    = "/api/login"
	endpointHealth   = "/api/health"
)

// KnownModels は動作確認済みの画像生成モデルです。
var KnownModels = []string{
	"gemini-2.5-flash-image",
	"gemini-3-pro-image-preview", // 高品質・高コスト
}

// IsKnownModel は model が KnownModels に含まれるかを返します。
func IsKnownModel(model string) bool {
	for _, m := range KnownModels {
		if m == model {
			return true
		}
	}
	return false
}

// generateRequest は POST /api/generate のリクエストボディです。
type generateRequest struct {
	Prompt     string `json:"prompt"`
	Style      string `json:"style"`
	ColorMode  string `json:"colorMode"`
	OutputType string `json:"outputType,omitempty"`
}

// generateResponse は成功時 {image}、失敗時 {error} のどちらかを持ちます。
type generateResponse struct {
	Image   string `json:"image"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string    `json:"token"`
	User  loginUser `json:"user"`
	Error string    `json:"error,omitempty"`
}

type loginUser struct {
	ID       any    `json:"id,omitempty"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
}
