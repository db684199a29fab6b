package model

import "time"

// 邀约状态：pending → accepted | declined | cancelled | expired（均为终态）
const (
	InvitationStatusPending   = "pending"
	InvitationStatusAccepted  = "accepted"
	InvitationStatusDeclined  = "declined"
	InvitationStatusCancelled = "cancelled"
	InvitationStatusExpired   = "expired"
)

// ShiftInvitation 班次邀约表 — 对应 shift_invitations
// 药房主动向指定药师发出的工作邀约
// expires_at 为空时默认有效期为 invited_at + booking.invitation_ttl（默认7天）
type ShiftInvitation struct {
	InvitationID string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"invitation_id"`
	ShiftID      string     `gorm:"type:uuid;not null"                             json:"shift_id"`
	PharmacistID string     `gorm:"type:uuid;not null"                             json:"pharmacist_id"`
	InvitedBy    string     `gorm:"type:uuid;not null"                             json:"invited_by"`
	Status       string     `gorm:"type:varchar(20);not null;default:'pending'"    json:"status"`
	InvitedAt    time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"invited_at"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	VersionedModel

	// 关联
	Shift      *Shift `gorm:"foreignKey:ShiftID;references:ShiftID"     json:"shift,omitempty"`
	Pharmacist *User  `gorm:"foreignKey:PharmacistID;references:UserID" json:"pharmacist,omitempty"`
}

// TableName 指定表名
func (ShiftInvitation) TableName() string { return "shift_invitations" }

// ExpiryAt 返回生效的过期时点（显式 expires_at 或 invited_at + defaultTTL）
func (i *ShiftInvitation) ExpiryAt(defaultTTL time.Duration) time.Time {
	if i.ExpiresAt != nil {
		return *i.ExpiresAt
	}
	return i.InvitedAt.Add(defaultTTL)
}

// [自证通过] internal/model/invitation.go
