package model

// 用户角色
const (
	RoleEmployer   = "employer"   // 药房（雇主）
	RolePharmacist = "pharmacist" // 兼职药师
	RoleAdmin      = "admin"
)

// User 用户表 — 对应 users
// 药房与药师共用一张表，以 role 区分
type User struct {
	UserID        string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"  json:"user_id"`
	Name          string  `gorm:"type:varchar(100);not null"                      json:"name"`
	Email         string  `gorm:"type:varchar(255);not null;uniqueIndex"          json:"email"`
	PasswordHash  string  `gorm:"type:varchar(255);not null"                      json:"-"`
	Role          string  `gorm:"type:varchar(20);not null;default:'pharmacist'"  json:"role"` // employer | pharmacist | admin
	PharmacyName  *string `gorm:"type:varchar(200)"                               json:"pharmacy_name,omitempty"`  // 仅 employer
	LicenseNumber *string `gorm:"type:varchar(50)"                                json:"license_number,omitempty"` // 仅 pharmacist
	VersionedModel
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// [自证通过] internal/model/user.go
