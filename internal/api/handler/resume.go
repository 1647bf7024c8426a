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

type ResumeHandler struct {
	resumeService *service.ResumeService
}

func NewResumeHandler(resumeService *service.ResumeService) *ResumeHandler {
	return &ResumeHandler{
		resumeService: resumeService,
	}
}

func parseResumeID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "无效的简历 ID")
		return 0, false
	}
	return id, true
}

// Create 创建简历
// POST /api/v1/resumes
func (h *ResumeHandler) Create(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	var req dto.CreateResumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	resume, err := h.resumeService.CreateResume(userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTemplateNotFound):
			response.NotFoundError(c, err.Error())
		case errors.Is(err, service.ErrTemplateLocked):
			response.PermissionError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.SuccessWithMessage(c, "创建成功", resume)
}

// List 简历列表
// GET /api/v1/resumes
func (h *ResumeHandler) List(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	page, pageSize := parsePagination(c)
	resumes, total, err := h.resumeService.ListResumes(userID, page, pageSize)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.SuccessPage(c, total, page, pageSize, resumes)
}

// Get 简历详情
// GET /api/v1/resumes/:id
func (h *ResumeHandler) Get(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}
	resumeID, ok := parseResumeID(c)
	if !ok {
		return
	}

	resume, err := h.resumeService.GetResume(resumeID, userID)
	if err != nil {
		if errors.Is(err, service.ErrResumeNotFound) {
			response.NotFoundError(c, err.Error())
			return
		}
		response.ServerError(c, "")
		return
	}

	response.Success(c, resume)
}

// Update 更新简历
// PUT /api/v1/resumes/:id
func (h *ResumeHandler) Update(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}
	resumeID, ok := parseResumeID(c)
	if !ok {
		return
	}

	var req dto.UpdateResumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	resume, err := h.resumeService.UpdateResume(resumeID, userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrResumeNotFound):
			response.NotFoundError(c, err.Error())
		case errors.Is(err, service.ErrTemplateNotFound):
			response.NotFoundError(c, err.Error())
		case errors.Is(err, service.ErrTemplateLocked):
			response.PermissionError(c, err.Error())
		case errors.Is(err, service.ErrResumeGenerating):
			response.DuplicateError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.SuccessWithMessage(c, "更新成功", resume)
}

// Delete 删除简历
// DELETE /api/v1/resumes/:id
func (h *ResumeHandler) Delete(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}
	resumeID, ok := parseResumeID(c)
	if !ok {
		return
	}

	if err := h.resumeService.DeleteResume(resumeID, userID); err != nil {
		if errors.Is(err, service.ErrResumeNotFound) {
			response.NotFoundError(c, err.Error())
			return
		}
		response.ServerError(c, "")
		return
	}

	response.SuccessWithMessage(c, "删除成功", nil)
}

// Generate 发起 AI 生成/优化
// POST /api/v1/resumes/:id/generate
func (h *ResumeHandler) Generate(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}
	resumeID, ok := parseResumeID(c)
	if !ok {
		return
	}

	var req dto.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	resp, err := h.resumeService.Generate(c.Request.Context(), userID, resumeID, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrResumeNotFound):
			response.NotFoundError(c, err.Error())
		case errors.Is(err, service.ErrResumeGenerating):
			response.DuplicateError(c, err.Error())
		case errors.Is(err, service.ErrQuotaExhausted):
			response.QuotaError(c, err.Error())
		case errors.Is(err, service.ErrMembershipExpired):
			response.MembershipExpiredError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.SuccessWithMessage(c, "任务已提交", resp)
}

// GetJobStatus 查询生成任务状态
// GET /api/v1/resumes/:id/job-status
func (h *ResumeHandler) GetJobStatus(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}
	resumeID, ok := parseResumeID(c)
	if !ok {
		return
	}

	status, err := h.resumeService.GetJobStatus(resumeID, userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrResumeNotFound), errors.Is(err, service.ErrJobNotFound):
			response.NotFoundError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.Success(c, status)
}

// Export 导出简历
// POST /api/v1/resumes/:id/export
func (h *ResumeHandler) Export(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}
	resumeID, ok := parseResumeID(c)
	if !ok {
		return
	}

	url, err := h.resumeService.Export(resumeID, userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrResumeNotFound):
			response.NotFoundError(c, err.Error())
		case errors.Is(err, service.ErrEmptyResume):
			response.ParamError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.SuccessWithMessage(c, "导出成功", gin.H{"url": url})
}

// ListTemplates 模板列表
// GET /api/v1/templates
func (h *ResumeHandler) ListTemplates(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	templates, err := h.resumeService.ListTemplates(userID)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.Success(c, templates)
}
