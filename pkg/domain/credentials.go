package domain

// Credentials は送信時に解決する資格情報です。
// 直接呼び出しでは APIKey、バックエンド経由では Token を使います。
type Credentials struct {
	APIKey string
	Token  string
}

// User は認証サービスが返すユーザー情報です。
type User struct {
	ID       string `json:"id,omitempty"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
}

// Session はログインで得たトークンとユーザーの組です。
type Session struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// CredentialProvider はセッションの保存場所を隠蔽する能力インターフェースです。
type CredentialProvider interface {
	// Credentials は設定済みの資格情報を返します。未設定なら ok は false です。
	Credentials() (Credentials, bool)
	// OnSessionExpired は 401 応答を受けたときに呼ばれ、保存済みのセッションを破棄します。
	OnSessionExpired()
}
