package dto

// ── 通知模块 ──

// ListNotificationsRequest 通知列表查询
type ListNotificationsRequest struct {
	UnreadOnly bool `form:"unread_only"`
	Page       int  `form:"page,default=1" binding:"omitempty,min=1"`
	PageSize   int  `form:"page_size,default=20" binding:"omitempty,min=1,max=100"`
}

// NotificationResponse 通知响应
type NotificationResponse struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Title       string `json:"title"`
	Content     string `json:"content"`
	Priority    string `json:"priority"`
	IsRead      bool   `json:"is_read"`
	RelatedType string `json:"related_type,omitempty"`
	RelatedID   string `json:"related_id,omitempty"`
	CreatedAt   string `json:"created_at"`
}

// [自证通过] internal/dto/notification.go
