package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"pharma-union/backend/internal/dto"
	"pharma-union/backend/internal/service"
	"pharma-union/backend/pkg/response"
)

// ShiftHandler 班次模块 HTTP 处理器
type ShiftHandler struct {
	shiftSvc service.ShiftService
}

// NewShiftHandler 创建 ShiftHandler
func NewShiftHandler(shiftSvc service.ShiftService) *ShiftHandler {
	return &ShiftHandler{shiftSvc: shiftSvc}
}

// Create 发布班次
// POST /api/v1/shifts  （employer）
func (h *ShiftHandler) Create(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.CreateShiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.shiftSvc.Create(c.Request.Context(), userID, &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.Created(c, result)
}

// Get 班次详情
// GET /api/v1/shifts/:id
func (h *ShiftHandler) Get(c *gin.Context) {
	result, err := h.shiftSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrShiftNotFound) {
			response.NotFound(c, 12001, "班次不存在")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, result)
}

// List 班次列表
// GET /api/v1/shifts
func (h *ShiftHandler) List(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	role, ok := MustGetRole(c)
	if !ok {
		return
	}

	var req dto.ListShiftsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, total, err := h.shiftSvc.List(c.Request.Context(), &req, userID, role)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, list, total, req.Page, req.PageSize)
}

// Cancel 取消班次
// POST /api/v1/shifts/:id/cancel  （employer）
func (h *ShiftHandler) Cancel(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.CancelShiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	err := h.shiftSvc.Cancel(c.Request.Context(), c.Param("id"), userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrShiftNotFound):
			response.NotFound(c, 12001, "班次不存在")
		case errors.Is(err, service.ErrNotShiftOwner):
			response.Forbidden(c, 12002, "仅发布该班次的药房可取消")
		case errors.Is(err, service.ErrShiftNotCancelable):
			response.Conflict(c, 12003, "班次当前状态不可取消", nil)
		default:
			response.InternalError(c)
		}
		return
	}

	response.OK(c, nil)
}

// Repost 重新发布（以终态班次为模板）
// POST /api/v1/shifts/:id/repost  （employer）
func (h *ShiftHandler) Repost(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.shiftSvc.Repost(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrShiftNotFound):
			response.NotFound(c, 12001, "班次不存在")
		case errors.Is(err, service.ErrNotShiftOwner):
			response.Forbidden(c, 12002, "仅发布该班次的药房可重新发布")
		case errors.Is(err, service.ErrShiftNotRepostable):
			response.Conflict(c, 12004, "仅终态班次可重新发布", nil)
		default:
			response.InternalError(c)
		}
		return
	}

	response.Created(c, result)
}

// [自证通过] internal/api/handler/shift_handler.go
