package model

import "time"

// 服务费流水状态
const (
	ChargeStatusPendingCapture = "pending_capture"
	ChargeStatusCaptured       = "captured"
	ChargeStatusCancelled      = "cancelled"
	ChargeStatusFailed         = "failed"
)

// FeeCharge 平台服务费流水表 — 对应 fee_charges
// 申请被录用时向药房记一笔待扣费；实际扣款由支付协作方异步完成
type FeeCharge struct {
	ChargeID    string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"     json:"charge_id"`
	PayerID     string    `gorm:"type:uuid;not null"                                 json:"payer_id"`
	AmountCents int64     `gorm:"not null"                                           json:"amount_cents"`
	Description string    `gorm:"type:varchar(500);not null"                         json:"description"`
	Status      string    `gorm:"type:varchar(20);not null;default:'pending_capture'" json:"status"`
	RelatedType *string   `gorm:"type:varchar(20)"                                   json:"related_type,omitempty"`
	RelatedID   *string   `gorm:"type:uuid"                                          json:"related_id,omitempty"`
	CreatedAt   time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"                 json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"                 json:"updated_at"`
}

// TableName 指定表名
func (FeeCharge) TableName() string { return "fee_charges" }

// [自证通过] internal/model/fee_charge.go
