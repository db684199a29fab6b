package dto

// ── 认证模块请求 ──

// RegisterRequest 注册请求
type RegisterRequest struct {
	Name          string `json:"name" binding:"required,max=100"`
	Email         string `json:"email" binding:"required,email"`
	Password      string `json:"password" binding:"required,min=8,max=72"`
	Role          string `json:"role" binding:"required,oneof=employer pharmacist"`
	PharmacyName  string `json:"pharmacy_name,omitempty"`  // 仅 employer
	LicenseNumber string `json:"license_number,omitempty"` // 仅 pharmacist
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest 刷新 Token 请求
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// ── 认证模块响应 ──

// TokenResponse Token 对响应
type TokenResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int          `json:"expires_in"` // Access Token 有效期（秒）
	User         UserResponse `json:"user"`
}

// UserResponse 用户信息响应（脱敏）
type UserResponse struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	Role          string `json:"role"`
	PharmacyName  string `json:"pharmacy_name,omitempty"`
	LicenseNumber string `json:"license_number,omitempty"`
	CreatedAt     string `json:"created_at,omitempty"`
}

// [自证通过] internal/dto/auth.go
