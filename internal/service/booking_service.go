package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"pharma-union/backend/config"
	"pharma-union/backend/internal/dto"
	"pharma-union/backend/internal/model"
	"pharma-union/backend/internal/repository"
	pkgerrors "pharma-union/backend/pkg/errors"
)

// ── 预订模块业务错误 ──

var (
	ErrApplicationNotFound   = errors.New("申请不存在")
	ErrInvitationNotFound    = errors.New("邀约不存在")
	ErrAlreadyApplied        = errors.New("已申请过该班次")
	ErrAlreadyInvited        = errors.New("该药师已有待处理邀约")
	ErrApplicationNotPending = errors.New("申请已被处理")
	ErrInvitationNotPending  = errors.New("邀约已被处理")
	ErrNotApplicant          = errors.New("仅申请人本人可执行此操作")
	ErrNotInvitee            = errors.New("仅被邀药师本人可执行此操作")
	ErrPaymentFailed         = errors.New("平台服务费记账失败")
)

// BookingService 申请/邀约的交互式预订业务接口
//
// 所有会改变班次指派的入口（录用申请、接受邀约）都遵循同一模式：
// Booking Guard 预检 → 仓储条件更新提交 → 连带处理 → best-effort 通知。
// 条件更新未命中说明另一并发操作先行提交，向调用方返回 already_assigned。
type BookingService interface {
	// Apply 药师申请班次
	Apply(ctx context.Context, shiftID, pharmacistID string, req *dto.ApplyRequest) (*dto.ApplicationResponse, error)
	// AcceptApplication 药房录用申请（唯一触发服务费记账的入口）
	AcceptApplication(ctx context.Context, applicationID, callerID string) (*dto.AcceptResult, error)
	// RejectApplication 药房拒绝申请
	RejectApplication(ctx context.Context, applicationID, callerID string, req *dto.RejectApplicationRequest) error
	// WithdrawApplication 药师撤回申请
	WithdrawApplication(ctx context.Context, applicationID, callerID string) error
	// Invite 药房邀约指定药师
	Invite(ctx context.Context, shiftID, callerID string, req *dto.InviteRequest) (*dto.InvitationResponse, error)
	// AcceptInvitation 药师接受邀约
	AcceptInvitation(ctx context.Context, invitationID, callerID string) (*dto.AcceptResult, error)
	// DeclineInvitation 药师谢绝邀约
	DeclineInvitation(ctx context.Context, invitationID, callerID string) error
	// CancelInvitation 药房撤回邀约
	CancelInvitation(ctx context.Context, invitationID, callerID string) error
}

type bookingService struct {
	cfg      *config.Config
	repo     *repository.Repository
	guard    *BookingGuard
	notifier Notifier
	charger  Charger
	logger   *zap.Logger
}

// NewBookingService 创建 BookingService 实例
func NewBookingService(cfg *config.Config, repo *repository.Repository, guard *BookingGuard,
	notifier Notifier, charger Charger, logger *zap.Logger) BookingService {
	return &bookingService{
		cfg:      cfg,
		repo:     repo,
		guard:    guard,
		notifier: notifier,
		charger:  charger,
		logger:   logger,
	}
}

// ════════════════════════════════════════════════════════════
// 申请流
// ════════════════════════════════════════════════════════════

func (s *bookingService) Apply(ctx context.Context, shiftID, pharmacistID string, req *dto.ApplyRequest) (*dto.ApplicationResponse, error) {
	shift, err := s.repo.Shift.GetByID(ctx, shiftID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShiftNotFound
		}
		s.logger.Error("查询班次失败", zap.Error(err))
		return nil, err
	}

	exists, err := s.repo.Application.ExistsByShiftAndPharmacist(ctx, shiftID, pharmacistID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrAlreadyApplied
	}

	decision, err := s.guard.Evaluate(ctx, shift, GuardActionApplication, time.Now())
	if err != nil {
		return nil, err
	}
	if !decision.CanProceed {
		return nil, &GuardRejectionError{Decision: decision}
	}

	app := &model.ShiftApplication{
		ShiftID:      shiftID,
		PharmacistID: pharmacistID,
		Status:       model.ApplicationStatusPending,
		Message:      req.Message,
	}
	if err := s.repo.Application.Create(ctx, app); err != nil {
		s.logger.Error("创建申请失败", zap.Error(err))
		return nil, err
	}

	notifyQuietly(ctx, s.notifier, s.logger, shift.PharmacyID,
		"new_application", "收到新的班次申请",
		"班次「"+shift.Title+"」收到一条新申请",
		model.NotifyPriorityNormal, model.RelatedTypeApplication, app.ApplicationID)

	return &dto.ApplicationResponse{
		ID:           app.ApplicationID,
		ShiftID:      app.ShiftID,
		PharmacistID: app.PharmacistID,
		Status:       app.Status,
		Message:      app.Message,
		CreatedAt:    app.CreatedAt.Format(time.RFC3339),
		Decision:     decision,
	}, nil
}

func (s *bookingService) AcceptApplication(ctx context.Context, applicationID, callerID string) (*dto.AcceptResult, error) {
	app, err := s.repo.Application.GetByID(ctx, applicationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrApplicationNotFound
		}
		return nil, err
	}
	if app.Status != model.ApplicationStatusPending {
		// 申请若因班次录用他人被连带拒绝，与真实竞态同样返回 already_assigned 裁决
		if app.Status == model.ApplicationStatusRejected {
			if shift, gerr := s.repo.Shift.GetByID(ctx, app.ShiftID); gerr == nil &&
				shift.PharmacyID == callerID &&
				shift.AssignedTo != nil && *shift.AssignedTo != app.PharmacistID {
				return nil, &GuardRejectionError{Decision: &dto.GuardDecision{
					Reason:     dto.GuardReasonAlreadyAssigned,
					AssignedTo: *shift.AssignedTo,
				}}
			}
		}
		return nil, ErrApplicationNotPending
	}

	shift, err := s.repo.Shift.GetByID(ctx, app.ShiftID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShiftNotFound
		}
		return nil, err
	}
	if shift.PharmacyID != callerID {
		return nil, ErrNotShiftOwner
	}

	// 1. Booking Guard 预检
	decision, err := s.guard.Evaluate(ctx, shift, GuardActionApplication, time.Now())
	if err != nil {
		return nil, err
	}
	if !decision.CanProceed {
		return nil, &GuardRejectionError{Decision: decision}
	}

	// 2. 条件更新提交（真正的互斥点）：open + 未指派 + 版本一致才生效
	if err := s.repo.Shift.Assign(ctx, shift.ShiftID, app.PharmacistID, shift.Version); err != nil {
		if errors.Is(err, pkgerrors.ErrAssignConflict) {
			// 另一并发录用先行提交
			return nil, &GuardRejectionError{Decision: &dto.GuardDecision{
				Reason: dto.GuardReasonAlreadyAssigned,
			}}
		}
		s.logger.Error("班次指派失败", zap.String("shift_id", shift.ShiftID), zap.Error(err))
		return nil, err
	}

	// 3. 标记获胜申请为 accepted（主变更的一部分）
	// 失败时补偿回退指派，避免班次停留在 filled 而申请仍为 pending
	if err := s.repo.Application.UpdateStatus(ctx, app.ApplicationID,
		model.ApplicationStatusPending, model.ApplicationStatusAccepted, "", app.Version); err != nil {
		s.logger.Error("标记申请录用失败，回退指派", zap.String("application_id", app.ApplicationID), zap.Error(err))
		if rerr := s.repo.Shift.ReleaseAssignment(ctx, shift.ShiftID, app.PharmacistID); rerr != nil {
			s.logger.Error("回退指派失败，班次与申请状态不一致，需人工对账",
				zap.String("shift_id", shift.ShiftID), zap.Error(rerr))
		}
		return nil, err
	}

	result := &dto.AcceptResult{
		ShiftID:      shift.ShiftID,
		PharmacistID: app.PharmacistID,
		Decision:     decision,
	}

	// 4. 连带处理：拒绝其余待处理申请，作废待处理邀约（best-effort）
	result.RejectedSiblings = rejectPendingApplications(ctx, s.repo, s.notifier, s.logger,
		shift, app.ApplicationID, "班次已录用其他药师",
		"申请未被采纳", "班次「"+shift.Title+"」已确认其他药师")
	result.VoidedInvitations = voidPendingInvitations(ctx, s.repo, s.notifier, s.logger,
		shift, model.InvitationStatusExpired,
		"invitation_voided", "邀约已失效", "班次「"+shift.Title+"」已确认其他药师，邀约自动失效")

	// 5. 双向通知（best-effort）
	queued := 0
	if notifyQuietly(ctx, s.notifier, s.logger, app.PharmacistID,
		"application_accepted", "申请已被录用",
		"恭喜！您对班次「"+shift.Title+"」的申请已被录用",
		model.NotifyPriorityHigh, model.RelatedTypeShift, shift.ShiftID) {
		queued++
	}
	if notifyQuietly(ctx, s.notifier, s.logger, shift.PharmacyID,
		"shift_filled", "班次已确认药师",
		"班次「"+shift.Title+"」已确认排班药师",
		model.NotifyPriorityNormal, model.RelatedTypeShift, shift.ShiftID) {
		queued++
	}
	result.NotificationsQueued = queued

	// 6. 平台服务费记账：失败需上抛（状态流转本身不回滚）
	charge, err := s.charger.ChargeFee(ctx, shift.PharmacyID, s.cfg.Booking.PlacementFeeCents,
		"班次撮合服务费："+shift.Title, model.RelatedTypeShift, shift.ShiftID)
	if err != nil {
		s.logger.Error("服务费记账失败", zap.String("shift_id", shift.ShiftID), zap.Error(err))
		return result, fmt.Errorf("%w: %v", ErrPaymentFailed, err)
	}
	result.FeeChargeID = charge.ChargeID
	result.FeeChargeStatus = charge.Status

	return result, nil
}

func (s *bookingService) RejectApplication(ctx context.Context, applicationID, callerID string, req *dto.RejectApplicationRequest) error {
	app, err := s.repo.Application.GetByID(ctx, applicationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrApplicationNotFound
		}
		return err
	}
	if app.Status != model.ApplicationStatusPending {
		return ErrApplicationNotPending
	}

	shift, err := s.repo.Shift.GetByID(ctx, app.ShiftID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrShiftNotFound
		}
		return err
	}
	if shift.PharmacyID != callerID {
		return ErrNotShiftOwner
	}

	reason := req.Reason
	if reason == "" {
		reason = "药房未采纳该申请"
	}
	if err := s.repo.Application.UpdateStatus(ctx, applicationID,
		model.ApplicationStatusPending, model.ApplicationStatusRejected, reason, app.Version); err != nil {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return ErrApplicationNotPending
		}
		return err
	}

	notifyQuietly(ctx, s.notifier, s.logger, app.PharmacistID,
		"application_rejected", "申请未被采纳",
		"您对班次「"+shift.Title+"」的申请未被采纳",
		model.NotifyPriorityNormal, model.RelatedTypeApplication, applicationID)
	return nil
}

func (s *bookingService) WithdrawApplication(ctx context.Context, applicationID, callerID string) error {
	app, err := s.repo.Application.GetByID(ctx, applicationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrApplicationNotFound
		}
		return err
	}
	if app.PharmacistID != callerID {
		return ErrNotApplicant
	}
	if app.Status != model.ApplicationStatusPending {
		return ErrApplicationNotPending
	}

	if err := s.repo.Application.UpdateStatus(ctx, applicationID,
		model.ApplicationStatusPending, model.ApplicationStatusWithdrawn, "", app.Version); err != nil {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return ErrApplicationNotPending
		}
		return err
	}
	return nil
}

// ════════════════════════════════════════════════════════════
// 邀约流
// ════════════════════════════════════════════════════════════

func (s *bookingService) Invite(ctx context.Context, shiftID, callerID string, req *dto.InviteRequest) (*dto.InvitationResponse, error) {
	shift, err := s.repo.Shift.GetByID(ctx, shiftID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShiftNotFound
		}
		return nil, err
	}
	if shift.PharmacyID != callerID {
		return nil, ErrNotShiftOwner
	}

	pending, err := s.repo.Invitation.ExistsPendingByShiftAndPharmacist(ctx, shiftID, req.PharmacistID)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, ErrAlreadyInvited
	}

	decision, err := s.guard.Evaluate(ctx, shift, GuardActionInvitation, time.Now())
	if err != nil {
		return nil, err
	}
	if !decision.CanProceed {
		return nil, &GuardRejectionError{Decision: decision}
	}

	inv := &model.ShiftInvitation{
		ShiftID:      shiftID,
		PharmacistID: req.PharmacistID,
		InvitedBy:    callerID,
		Status:       model.InvitationStatusPending,
		InvitedAt:    time.Now(),
	}
	if req.ExpiresAt != "" {
		expires, err := time.Parse(time.RFC3339, req.ExpiresAt)
		if err != nil {
			return nil, fmt.Errorf("expires_at 格式无效: %w", err)
		}
		inv.ExpiresAt = &expires
	}

	if err := s.repo.Invitation.Create(ctx, inv); err != nil {
		s.logger.Error("创建邀约失败", zap.Error(err))
		return nil, err
	}

	notifyQuietly(ctx, s.notifier, s.logger, req.PharmacistID,
		"new_invitation", "收到班次邀约",
		"药房邀请您工作班次「"+shift.Title+"」",
		model.NotifyPriorityNormal, model.RelatedTypeInvitation, inv.InvitationID)

	return toInvitationResponse(inv), nil
}

func (s *bookingService) AcceptInvitation(ctx context.Context, invitationID, callerID string) (*dto.AcceptResult, error) {
	inv, err := s.repo.Invitation.GetByID(ctx, invitationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvitationNotFound
		}
		return nil, err
	}
	if inv.PharmacistID != callerID {
		return nil, ErrNotInvitee
	}
	if inv.Status != model.InvitationStatusPending {
		return nil, ErrInvitationNotPending
	}

	// 邀约自身已过期则按过期处理
	now := time.Now()
	if now.After(inv.ExpiryAt(s.cfg.Booking.InvitationTTL)) {
		return nil, &GuardRejectionError{Decision: &dto.GuardDecision{
			Reason: dto.GuardReasonExpired,
		}}
	}

	shift, err := s.repo.Shift.GetByID(ctx, inv.ShiftID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShiftNotFound
		}
		return nil, err
	}

	decision, err := s.guard.Evaluate(ctx, shift, GuardActionInvitation, now)
	if err != nil {
		return nil, err
	}
	if !decision.CanProceed {
		return nil, &GuardRejectionError{Decision: decision}
	}

	if err := s.repo.Shift.Assign(ctx, shift.ShiftID, inv.PharmacistID, shift.Version); err != nil {
		if errors.Is(err, pkgerrors.ErrAssignConflict) {
			return nil, &GuardRejectionError{Decision: &dto.GuardDecision{
				Reason: dto.GuardReasonAlreadyAssigned,
			}}
		}
		s.logger.Error("班次指派失败", zap.String("shift_id", shift.ShiftID), zap.Error(err))
		return nil, err
	}

	if err := s.repo.Invitation.UpdateStatus(ctx, inv.InvitationID,
		model.InvitationStatusPending, model.InvitationStatusAccepted, inv.Version); err != nil {
		s.logger.Error("标记邀约接受失败，回退指派", zap.String("invitation_id", inv.InvitationID), zap.Error(err))
		if rerr := s.repo.Shift.ReleaseAssignment(ctx, shift.ShiftID, inv.PharmacistID); rerr != nil {
			s.logger.Error("回退指派失败，班次与邀约状态不一致，需人工对账",
				zap.String("shift_id", shift.ShiftID), zap.Error(rerr))
		}
		return nil, err
	}

	result := &dto.AcceptResult{
		ShiftID:      shift.ShiftID,
		PharmacistID: inv.PharmacistID,
		Decision:     decision,
	}

	// 连带处理：拒绝全部待处理申请，撤回其余待处理邀约
	result.RejectedSiblings = rejectPendingApplications(ctx, s.repo, s.notifier, s.logger,
		shift, "", "班次已由受邀药师确认",
		"申请未被采纳", "班次「"+shift.Title+"」已确认其他药师")
	result.VoidedInvitations = voidPendingInvitations(ctx, s.repo, s.notifier, s.logger,
		shift, model.InvitationStatusCancelled,
		"invitation_voided", "邀约已失效", "班次「"+shift.Title+"」已确认其他药师，邀约自动失效")

	queued := 0
	if notifyQuietly(ctx, s.notifier, s.logger, shift.PharmacyID,
		"invitation_accepted", "邀约已被接受",
		"药师已接受班次「"+shift.Title+"」的邀约",
		model.NotifyPriorityNormal, model.RelatedTypeShift, shift.ShiftID) {
		queued++
	}
	if notifyQuietly(ctx, s.notifier, s.logger, inv.PharmacistID,
		"shift_confirmed", "班次已确认",
		"您已确认班次「"+shift.Title+"」",
		model.NotifyPriorityNormal, model.RelatedTypeShift, shift.ShiftID) {
		queued++
	}
	result.NotificationsQueued = queued

	return result, nil
}

func (s *bookingService) DeclineInvitation(ctx context.Context, invitationID, callerID string) error {
	inv, err := s.repo.Invitation.GetByID(ctx, invitationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvitationNotFound
		}
		return err
	}
	if inv.PharmacistID != callerID {
		return ErrNotInvitee
	}
	if inv.Status != model.InvitationStatusPending {
		return ErrInvitationNotPending
	}

	if err := s.repo.Invitation.UpdateStatus(ctx, invitationID,
		model.InvitationStatusPending, model.InvitationStatusDeclined, inv.Version); err != nil {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return ErrInvitationNotPending
		}
		return err
	}

	notifyQuietly(ctx, s.notifier, s.logger, inv.InvitedBy,
		"invitation_declined", "邀约被谢绝",
		"药师谢绝了您的班次邀约",
		model.NotifyPriorityLow, model.RelatedTypeInvitation, invitationID)
	return nil
}

func (s *bookingService) CancelInvitation(ctx context.Context, invitationID, callerID string) error {
	inv, err := s.repo.Invitation.GetByID(ctx, invitationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvitationNotFound
		}
		return err
	}
	if inv.InvitedBy != callerID {
		return ErrNotShiftOwner
	}
	if inv.Status != model.InvitationStatusPending {
		return ErrInvitationNotPending
	}

	if err := s.repo.Invitation.UpdateStatus(ctx, invitationID,
		model.InvitationStatusPending, model.InvitationStatusCancelled, inv.Version); err != nil {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return ErrInvitationNotPending
		}
		return err
	}

	notifyQuietly(ctx, s.notifier, s.logger, inv.PharmacistID,
		"invitation_cancelled", "邀约已撤回",
		"药房撤回了发给您的班次邀约",
		model.NotifyPriorityLow, model.RelatedTypeInvitation, invitationID)
	return nil
}

// toInvitationResponse 模型 → 响应 DTO
func toInvitationResponse(inv *model.ShiftInvitation) *dto.InvitationResponse {
	resp := &dto.InvitationResponse{
		ID:           inv.InvitationID,
		ShiftID:      inv.ShiftID,
		PharmacistID: inv.PharmacistID,
		InvitedBy:    inv.InvitedBy,
		Status:       inv.Status,
		InvitedAt:    inv.InvitedAt.Format(time.RFC3339),
	}
	if inv.ExpiresAt != nil {
		resp.ExpiresAt = inv.ExpiresAt.Format(time.RFC3339)
	}
	return resp
}

// [自证通过] internal/service/booking_service.go
