package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/cvpilot/resume_go_server/internal/api/middleware"
	"github.com/cvpilot/resume_go_server/internal/model/dto"
	"github.com/cvpilot/resume_go_server/internal/pkg/response"
	"github.com/cvpilot/resume_go_server/internal/service"
)

type MembershipHandler struct {
	membershipService *service.MembershipService
	orderService      *service.OrderService
}

func NewMembershipHandler(membershipService *service.MembershipService, orderService *service.OrderService) *MembershipHandler {
	return &MembershipHandler{
		membershipService: membershipService,
		orderService:      orderService,
	}
}

// GetStatus 当前会员状态
// GET /api/v1/membership/status
func (h *MembershipHandler) GetStatus(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	status, err := h.membershipService.GetStatus(userID)
	if err != nil {
		if errors.Is(err, service.ErrTierNotFound) {
			response.ServerError(c, "会员档位未配置")
			return
		}
		response.ServerError(c, "")
		return
	}

	response.Success(c, status)
}

// ListTiers 会员档位列表
// GET /api/v1/membership/tiers
func (h *MembershipHandler) ListTiers(c *gin.Context) {
	tiers, err := h.membershipService.ListTiers()
	if err != nil {
		response.ServerError(c, "")
		return
	}
	response.Success(c, tiers)
}

// CheckQuota AI 配额检查（只查不扣）
// POST /api/v1/membership/check-quota
func (h *MembershipHandler) CheckQuota(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	var req dto.CheckQuotaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	result, err := h.membershipService.ValidateAIQuota(userID)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.Success(c, result)
}

// ListHistory 会员历史记录
// GET /api/v1/membership/history
func (h *MembershipHandler) ListHistory(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	history, err := h.membershipService.ListHistory(userID)
	if err != nil {
		response.ServerError(c, "")
		return
	}
	response.Success(c, history)
}

// CreateOrder 创建会员订单
// POST /api/v1/membership/orders
func (h *MembershipHandler) CreateOrder(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	var req dto.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	order, err := h.orderService.CreateOrder(userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTierNotFound):
			response.NotFoundError(c, err.Error())
		case errors.Is(err, service.ErrTierDisabled):
			response.ParamError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.SuccessWithMessage(c, "订单创建成功", order)
}

// ListOrders 用户订单列表
// GET /api/v1/membership/orders
func (h *MembershipHandler) ListOrders(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	page, pageSize := parsePagination(c)
	orders, total, err := h.orderService.ListOrders(userID, page, pageSize)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.SuccessPage(c, total, page, pageSize, orders)
}

// GetOrder 查询订单
// GET /api/v1/membership/orders/:id
func (h *MembershipHandler) GetOrder(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "无效的订单 ID")
		return
	}

	order, err := h.orderService.GetOrder(orderID, userID)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			response.NotFoundError(c, err.Error())
			return
		}
		response.ServerError(c, "")
		return
	}

	response.Success(c, order)
}

// ActivateOrder 订单支付确认并开通会员，幂等
// POST /api/v1/membership/orders/:id/activate
func (h *MembershipHandler) ActivateOrder(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "无效的订单 ID")
		return
	}

	var req dto.ActivateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	order, err := h.orderService.ActivateOrder(orderID, userID, req.PaymentTransactionID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			response.NotFoundError(c, err.Error())
		case errors.Is(err, service.ErrOrderAlreadyActivated):
			response.DuplicateError(c, err.Error())
		case errors.Is(err, service.ErrOrderNotPayable):
			response.ParamError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.SuccessWithMessage(c, "会员开通成功", order)
}
