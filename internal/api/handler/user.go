package handler

import (
	"errors"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cvpilot/resume_go_server/internal/api/middleware"
	"github.com/cvpilot/resume_go_server/internal/model/dto"
	"github.com/cvpilot/resume_go_server/internal/pkg/response"
	"github.com/cvpilot/resume_go_server/internal/service"
)

type UserHandler struct {
	userService  *service.UserService
	quotaService *service.QuotaService
}

func NewUserHandler(userService *service.UserService, quotaService *service.QuotaService) *UserHandler {
	return &UserHandler{
		userService:  userService,
		quotaService: quotaService,
	}
}

// GetProfile 获取当前用户信息
// GET /api/v1/user/profile
func (h *UserHandler) GetProfile(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	profile, err := h.userService.GetProfile(userID)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.Success(c, profile)
}

// UpdateProfile 更新用户信息
// PUT /api/v1/user/profile
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	var req dto.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	profile, err := h.userService.UpdateProfile(userID, &req)
	if err != nil {
		if errors.Is(err, service.ErrUsernameExists) {
			response.ParamError(c, err.Error())
			return
		}
		response.ServerError(c, "")
		return
	}

	response.SuccessWithMessage(c, "更新成功", profile)
}

// UploadAvatar 上传头像
// POST /api/v1/user/avatar
func (h *UserHandler) UploadAvatar(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		response.ParamError(c, "请选择文件")
		return
	}

	src, err := file.Open()
	if err != nil {
		response.ServerError(c, "")
		return
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	url, err := h.userService.UploadAvatar(userID, data, ext)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidImageType), errors.Is(err, service.ErrImageTooLarge):
			response.ParamError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.SuccessWithMessage(c, "上传成功", gin.H{"avatar_url": url})
}

// GetPlanDetails 当前套餐与配额账本
// GET /api/v1/user/plan
func (h *UserHandler) GetPlanDetails(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	details, err := h.quotaService.GetUserPlanDetails(userID)
	if err != nil {
		if errors.Is(err, service.ErrNoDefaultPlan) {
			response.ServerError(c, err.Error())
			return
		}
		response.ServerError(c, "")
		return
	}

	response.Success(c, details)
}

// GetQuotaUsage 配额消耗记录
// GET /api/v1/user/quota-usage
func (h *UserHandler) GetQuotaUsage(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	page, pageSize := parsePagination(c)
	logs, total, err := h.userService.GetQuotaUsage(userID, page, pageSize)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.SuccessPage(c, total, page, pageSize, logs)
}

// parsePagination 解析分页参数，默认第 1 页每页 20 条
func parsePagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}
