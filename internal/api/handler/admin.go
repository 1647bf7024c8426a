package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/cvpilot/resume_go_server/internal/model/dto"
	"github.com/cvpilot/resume_go_server/internal/pkg/response"
	"github.com/cvpilot/resume_go_server/internal/service"
)

type AdminHandler struct {
	adminService      *service.AdminService
	planService       *service.PlanService
	membershipService *service.MembershipService
	orderService      *service.OrderService
}

func NewAdminHandler(adminService *service.AdminService, planService *service.PlanService, membershipService *service.MembershipService, orderService *service.OrderService) *AdminHandler {
	return &AdminHandler{
		adminService:      adminService,
		planService:       planService,
		membershipService: membershipService,
		orderService:      orderService,
	}
}

// GetDashboard 统计面板
// GET /api/v1/admin/dashboard
func (h *AdminHandler) GetDashboard(c *gin.Context) {
	response.Success(c, h.adminService.GetDashboardStats())
}

// ListUsers 用户列表
// GET /api/v1/admin/users
func (h *AdminHandler) ListUsers(c *gin.Context) {
	page, pageSize := parsePagination(c)
	users, total, err := h.adminService.ListUsers(page, pageSize)
	if err != nil {
		response.ServerError(c, "")
		return
	}
	response.SuccessPage(c, total, page, pageSize, users)
}

// AssignQuota 分配套餐或充值永久配额
// POST /api/v1/admin/quota/assign
func (h *AdminHandler) AssignQuota(c *gin.Context) {
	var req dto.AssignQuotaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	if err := h.adminService.AssignQuota(&req); err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			response.NotFoundError(c, err.Error())
		case errors.Is(err, service.ErrPlanNotFound):
			response.NotFoundError(c, err.Error())
		case errors.Is(err, service.ErrInvalidAssignRequest), errors.Is(err, service.ErrInvalidTopUpAmount):
			response.ParamError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.SuccessWithMessage(c, "分配成功", nil)
}

// GrantMembership 手工开通会员
// POST /api/v1/admin/membership/grant
func (h *AdminHandler) GrantMembership(c *gin.Context) {
	var req dto.GrantMembershipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	m, err := h.membershipService.GrantMembership(&req)
	if err != nil {
		if errors.Is(err, service.ErrTierNotFound) {
			response.NotFoundError(c, err.Error())
			return
		}
		response.ServerError(c, "")
		return
	}

	response.SuccessWithMessage(c, "开通成功", m)
}

// ListOrders 全部订单
// GET /api/v1/admin/orders?status=paid
func (h *AdminHandler) ListOrders(c *gin.Context) {
	page, pageSize := parsePagination(c)
	orders, total, err := h.orderService.ListAllOrders(c.Query("status"), page, pageSize)
	if err != nil {
		response.ServerError(c, "")
		return
	}
	response.SuccessPage(c, total, page, pageSize, orders)
}

// ActivateOrder 管理后台手工激活订单（跳过归属校验）
// POST /api/v1/admin/orders/:id/activate
func (h *AdminHandler) ActivateOrder(c *gin.Context) {
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

	order, err := h.orderService.ActivateOrder(orderID, 0, req.PaymentTransactionID)
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

	response.SuccessWithMessage(c, "订单已激活", order)
}

// ListPlans 套餐列表
// GET /api/v1/admin/plans
func (h *AdminHandler) ListPlans(c *gin.Context) {
	plans, err := h.planService.ListPlans()
	if err != nil {
		response.ServerError(c, "")
		return
	}
	response.Success(c, plans)
}

// CreatePlan 创建套餐
// POST /api/v1/admin/plans
func (h *AdminHandler) CreatePlan(c *gin.Context) {
	var req dto.SavePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	plan, err := h.planService.CreatePlan(&req)
	if err != nil {
		response.ParamError(c, err.Error())
		return
	}
	response.SuccessWithMessage(c, "创建成功", plan)
}

// UpdatePlan 更新套餐
// PUT /api/v1/admin/plans/:id
func (h *AdminHandler) UpdatePlan(c *gin.Context) {
	planID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "无效的套餐 ID")
		return
	}

	var req dto.SavePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	plan, err := h.planService.UpdatePlan(planID, &req)
	if err != nil {
		if errors.Is(err, service.ErrPlanNotFound) {
			response.NotFoundError(c, err.Error())
			return
		}
		response.ParamError(c, err.Error())
		return
	}
	response.SuccessWithMessage(c, "更新成功", plan)
}

// DeletePlan 删除套餐
// DELETE /api/v1/admin/plans/:id
func (h *AdminHandler) DeletePlan(c *gin.Context) {
	planID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "无效的套餐 ID")
		return
	}

	if err := h.planService.DeletePlan(planID); err != nil {
		switch {
		case errors.Is(err, service.ErrPlanNotFound):
			response.NotFoundError(c, err.Error())
		case errors.Is(err, service.ErrPlanInUse), errors.Is(err, service.ErrPlanIsDefault):
			response.ParamError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}
	response.SuccessWithMessage(c, "删除成功", nil)
}

// ListTiers 会员档位列表（含下架）
// GET /api/v1/admin/tiers
func (h *AdminHandler) ListTiers(c *gin.Context) {
	tiers, err := h.adminService.ListAllTiers()
	if err != nil {
		response.ServerError(c, "")
		return
	}
	response.Success(c, tiers)
}

// CreateTier 创建会员档位
// POST /api/v1/admin/tiers
func (h *AdminHandler) CreateTier(c *gin.Context) {
	var req dto.SaveTierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	tier, err := h.adminService.SaveTier(0, &req)
	if err != nil {
		response.ServerError(c, "")
		return
	}
	response.SuccessWithMessage(c, "创建成功", tier)
}

// UpdateTier 更新会员档位
// PUT /api/v1/admin/tiers/:id
func (h *AdminHandler) UpdateTier(c *gin.Context) {
	tierID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "无效的档位 ID")
		return
	}

	var req dto.SaveTierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	tier, err := h.adminService.SaveTier(tierID, &req)
	if err != nil {
		if errors.Is(err, service.ErrTierNotFound) {
			response.NotFoundError(c, err.Error())
			return
		}
		response.ServerError(c, "")
		return
	}
	response.SuccessWithMessage(c, "更新成功", tier)
}
