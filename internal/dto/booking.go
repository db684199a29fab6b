package dto

// ── Booking Guard 裁决 ──

// 裁决拒绝原因（结构化，供前端精确提示）
const (
	GuardReasonShiftNotOpen            = "shift_not_open"
	GuardReasonAlreadyAssigned         = "already_assigned"
	GuardReasonConflictingApplications = "conflicting_applications"
	GuardReasonExpired                 = "expired"
)

// GuardDecision Booking Guard 输出（不落库的值对象）
type GuardDecision struct {
	CanProceed bool     `json:"can_proceed"`
	Reason     string   `json:"reason,omitempty"`
	AssignedTo string   `json:"assigned_to,omitempty"` // reason=already_assigned 时携带
	Warnings   []string `json:"warnings,omitempty"`
	Conflicts  int      `json:"conflicts"`
}

// ── 申请模块 ──

// ApplyRequest 药师申请班次请求
type ApplyRequest struct {
	Message string `json:"message" binding:"max=500"`
}

// RejectApplicationRequest 药房拒绝申请请求
type RejectApplicationRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// ApplicationResponse 申请响应
type ApplicationResponse struct {
	ID           string         `json:"id"`
	ShiftID      string         `json:"shift_id"`
	PharmacistID string         `json:"pharmacist_id"`
	Status       string         `json:"status"`
	Message      string         `json:"message,omitempty"`
	RejectReason string         `json:"reject_reason,omitempty"`
	CreatedAt    string         `json:"created_at"`
	Decision     *GuardDecision `json:"decision,omitempty"` // 创建/录用时携带裁决详情
}

// AcceptResult 录用结果（申请或邀约录用共用）
type AcceptResult struct {
	ShiftID             string         `json:"shift_id"`
	PharmacistID        string         `json:"pharmacist_id"`
	Decision            *GuardDecision `json:"decision"`
	RejectedSiblings    int            `json:"rejected_siblings"`    // 连带拒绝的其他申请数
	VoidedInvitations   int            `json:"voided_invitations"`   // 连带作废的邀约数
	FeeChargeID         string         `json:"fee_charge_id,omitempty"`
	FeeChargeStatus     string         `json:"fee_charge_status,omitempty"`
	NotificationsQueued int            `json:"notifications_queued"`
}

// ── 邀约模块 ──

// InviteRequest 药房邀约药师请求
type InviteRequest struct {
	PharmacistID string `json:"pharmacist_id" binding:"required,uuid"`
	ExpiresAt    string `json:"expires_at,omitempty" binding:"omitempty"` // RFC3339；缺省按默认有效期
}

// InvitationResponse 邀约响应
type InvitationResponse struct {
	ID           string `json:"id"`
	ShiftID      string `json:"shift_id"`
	PharmacistID string `json:"pharmacist_id"`
	InvitedBy    string `json:"invited_by"`
	Status       string `json:"status"`
	InvitedAt    string `json:"invited_at"`
	ExpiresAt    string `json:"expires_at,omitempty"`
}

// [自证通过] internal/dto/booking.go
