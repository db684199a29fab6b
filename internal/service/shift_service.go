package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"pharma-union/backend/internal/dto"
	"pharma-union/backend/internal/model"
	"pharma-union/backend/internal/pricing"
	"pharma-union/backend/internal/repository"
	"pharma-union/backend/internal/schedule"
	pkgerrors "pharma-union/backend/pkg/errors"
)

// ── 班次模块业务错误 ──

var (
	ErrShiftNotFound      = errors.New("班次不存在")
	ErrNotShiftOwner      = errors.New("仅发布该班次的药房可执行此操作")
	ErrShiftNotCancelable = errors.New("班次当前状态不可取消")
	ErrShiftNotRepostable = errors.New("仅终态班次可重新发布")
)

// ShiftService 班次业务接口
type ShiftService interface {
	// Create 创建班次（初始 open，按首场日期计算急聘档位）
	Create(ctx context.Context, pharmacyID string, req *dto.CreateShiftRequest) (*dto.ShiftResponse, error)
	// Get 获取班次详情
	Get(ctx context.Context, shiftID string) (*dto.ShiftResponse, error)
	// List 班次列表（可按状态过滤；药房只看自己的）
	List(ctx context.Context, req *dto.ListShiftsRequest, callerID, callerRole string) ([]dto.ShiftResponse, int64, error)
	// Cancel 药房显式取消（open/filled → cancelled，连带处理申请与邀约）
	Cancel(ctx context.Context, shiftID, callerID string, req *dto.CancelShiftRequest) error
	// Repost 以终态班次为模板重新发布一个全新 open 班次
	Repost(ctx context.Context, shiftID, callerID string) (*dto.ShiftResponse, error)
}

type shiftService struct {
	repo     *repository.Repository
	loc      *time.Location
	notifier Notifier
	logger   *zap.Logger
}

// NewShiftService 创建 ShiftService 实例
func NewShiftService(repo *repository.Repository, loc *time.Location, notifier Notifier, logger *zap.Logger) ShiftService {
	return &shiftService{repo: repo, loc: loc, notifier: notifier, logger: logger}
}

func (s *shiftService) Create(ctx context.Context, pharmacyID string, req *dto.CreateShiftRequest) (*dto.ShiftResponse, error) {
	sessions := make(model.SessionList, 0, len(req.Sessions))
	for _, sess := range req.Sessions {
		sessions = append(sessions, model.ShiftSession{
			Date:      sess.Date,
			StartTime: sess.StartTime,
			EndTime:   sess.EndTime,
		})
	}

	shift := &model.Shift{
		PharmacyID: pharmacyID,
		Title:      req.Title,
		Schedule:   sessions,
		Status:     model.ShiftStatusOpen,
		HourlyRate: req.HourlyRate,
	}
	s.applyPricing(shift, time.Now())

	if err := s.repo.Shift.Create(ctx, shift); err != nil {
		s.logger.Error("创建班次失败", zap.Error(err))
		return nil, err
	}

	return toShiftResponse(shift), nil
}

func (s *shiftService) Get(ctx context.Context, shiftID string) (*dto.ShiftResponse, error) {
	shift, err := s.repo.Shift.GetByID(ctx, shiftID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShiftNotFound
		}
		s.logger.Error("查询班次失败", zap.Error(err))
		return nil, err
	}
	return toShiftResponse(shift), nil
}

func (s *shiftService) List(ctx context.Context, req *dto.ListShiftsRequest, callerID, callerRole string) ([]dto.ShiftResponse, int64, error) {
	filter := repository.ShiftFilter{Status: req.Status}
	// 药房只能看到自己发布的班次；药师浏览全部
	if callerRole == model.RoleEmployer {
		filter.PharmacyID = callerID
	}

	page, pageSize := req.Page, req.PageSize
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}

	shifts, total, err := s.repo.Shift.List(ctx, filter, (page-1)*pageSize, pageSize)
	if err != nil {
		s.logger.Error("查询班次列表失败", zap.Error(err))
		return nil, 0, err
	}

	list := make([]dto.ShiftResponse, 0, len(shifts))
	for i := range shifts {
		list = append(list, *toShiftResponse(&shifts[i]))
	}
	return list, total, nil
}

func (s *shiftService) Cancel(ctx context.Context, shiftID, callerID string, req *dto.CancelShiftRequest) error {
	shift, err := s.repo.Shift.GetByID(ctx, shiftID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrShiftNotFound
		}
		return err
	}
	if shift.PharmacyID != callerID {
		return ErrNotShiftOwner
	}
	if shift.Status != model.ShiftStatusOpen && shift.Status != model.ShiftStatusFilled {
		return ErrShiftNotCancelable
	}

	if err := s.repo.Shift.TransitionStatus(ctx, shiftID, shift.Status, model.ShiftStatusCancelled, shift.Version); err != nil {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return ErrShiftNotCancelable
		}
		s.logger.Error("取消班次失败", zap.String("shift_id", shiftID), zap.Error(err))
		return err
	}

	// ── 连带处理（best-effort，失败不回滚取消） ──
	s.cascadeCancel(ctx, shift, req.Reason)

	return nil
}

// cascadeCancel 取消后的连带处理：拒绝待处理申请、作废待处理邀约、通知相关方
func (s *shiftService) cascadeCancel(ctx context.Context, shift *model.Shift, reason string) {
	content := "班次「" + shift.Title + "」已被药房取消"
	if reason != "" {
		content += "（原因：" + reason + "）"
	}

	apps, err := s.repo.Application.ListByShiftAndStatus(ctx, shift.ShiftID, model.ApplicationStatusPending)
	if err != nil {
		s.logger.Warn("查询待处理申请失败", zap.String("shift_id", shift.ShiftID), zap.Error(err))
	}
	for i := range apps {
		app := &apps[i]
		if err := s.repo.Application.UpdateStatus(ctx, app.ApplicationID,
			model.ApplicationStatusPending, model.ApplicationStatusRejected, "班次已取消", app.Version); err != nil {
			s.logger.Warn("连带拒绝申请失败", zap.String("application_id", app.ApplicationID), zap.Error(err))
			continue
		}
		notifyQuietly(ctx, s.notifier, s.logger, app.PharmacistID,
			"shift_cancelled", "班次已取消", content,
			model.NotifyPriorityHigh, model.RelatedTypeShift, shift.ShiftID)
	}

	invs, err := s.repo.Invitation.ListByShiftAndStatus(ctx, shift.ShiftID, model.InvitationStatusPending)
	if err != nil {
		s.logger.Warn("查询待处理邀约失败", zap.String("shift_id", shift.ShiftID), zap.Error(err))
	}
	for i := range invs {
		inv := &invs[i]
		if err := s.repo.Invitation.UpdateStatus(ctx, inv.InvitationID,
			model.InvitationStatusPending, model.InvitationStatusCancelled, inv.Version); err != nil {
			s.logger.Warn("连带作废邀约失败", zap.String("invitation_id", inv.InvitationID), zap.Error(err))
			continue
		}
		notifyQuietly(ctx, s.notifier, s.logger, inv.PharmacistID,
			"shift_cancelled", "班次已取消", content,
			model.NotifyPriorityNormal, model.RelatedTypeShift, shift.ShiftID)
	}

	// 已指派药师单独通知
	if shift.AssignedTo != nil && *shift.AssignedTo != "" {
		notifyQuietly(ctx, s.notifier, s.logger, *shift.AssignedTo,
			"shift_cancelled", "已确认的班次被取消", content,
			model.NotifyPriorityHigh, model.RelatedTypeShift, shift.ShiftID)
	}
}

func (s *shiftService) Repost(ctx context.Context, shiftID, callerID string) (*dto.ShiftResponse, error) {
	source, err := s.repo.Shift.GetByID(ctx, shiftID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShiftNotFound
		}
		return nil, err
	}
	if source.PharmacyID != callerID {
		return nil, ErrNotShiftOwner
	}
	if !source.IsTerminal() {
		return nil, ErrShiftNotRepostable
	}

	// 复制模板字段，重置指派与状态，生成全新 shift_id
	sessions := schedule.Normalize(source)
	fresh := &model.Shift{
		PharmacyID: source.PharmacyID,
		Title:      source.Title,
		Schedule:   model.SessionList(sessions),
		Status:     model.ShiftStatusOpen,
		HourlyRate: source.HourlyRate,
	}
	s.applyPricing(fresh, time.Now())

	if err := s.repo.Shift.Create(ctx, fresh); err != nil {
		s.logger.Error("重新发布班次失败", zap.String("source_shift_id", shiftID), zap.Error(err))
		return nil, err
	}

	return toShiftResponse(fresh), nil
}

// applyPricing 计算急聘档位与总酬
func (s *shiftService) applyPricing(shift *model.Shift, now time.Time) {
	sessions := schedule.Normalize(shift)

	shift.UrgencyTier = pricing.TierStandard
	if primary, ok := schedule.PrimaryDate(sessions); ok {
		shift.UrgencyTier = pricing.UrgencyTier(primary, now)
	}

	// 总酬 = 时薪 × 各场次时长之和
	var totalHours float64
	for _, sess := range sessions {
		start, err1 := time.Parse("15:04", sess.StartTime)
		end, err2 := time.Parse("15:04", sess.EndTime)
		if err1 != nil || err2 != nil || !end.After(start) {
			continue
		}
		totalHours += end.Sub(start).Hours()
	}
	shift.TotalPay = shift.HourlyRate * totalHours
}

// toShiftResponse 模型 → 响应 DTO
func toShiftResponse(shift *model.Shift) *dto.ShiftResponse {
	sessions := schedule.Normalize(shift)

	resp := &dto.ShiftResponse{
		ID:          shift.ShiftID,
		PharmacyID:  shift.PharmacyID,
		Title:       shift.Title,
		Status:      shift.Status,
		HourlyRate:  shift.HourlyRate,
		TotalPay:    shift.TotalPay,
		UrgencyTier: shift.UrgencyTier,
		CreatedAt:   shift.CreatedAt.Format(time.RFC3339),
	}
	for _, sess := range sessions {
		resp.Sessions = append(resp.Sessions, dto.SessionResponse{
			Date:      sess.Date,
			StartTime: sess.StartTime,
			EndTime:   sess.EndTime,
		})
	}
	if primary, ok := schedule.PrimaryDate(sessions); ok {
		resp.PrimaryDate = primary.Format("2006-01-02")
	}
	if shift.AssignedTo != nil {
		resp.AssignedTo = *shift.AssignedTo
	}
	return resp
}

// [自证通过] internal/service/shift_service.go
