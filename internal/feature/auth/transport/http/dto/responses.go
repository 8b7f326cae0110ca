package dto

// RegisterRes は登録成功時のレスポンスです。
type RegisterRes struct {
	Message  string `json:"message"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// LoginRes はログイン成功時のレスポンスです。
type LoginRes struct {
	Access   string `json:"access"`
	Refresh  string `json:"refresh"`
	Username string `json:"username"`
	Role     string `json:"role"`
	Email    string `json:"email"`
}

// AccessRes はトークン更新時のレスポンスです。
type AccessRes struct {
	Access string `json:"access"`
}
