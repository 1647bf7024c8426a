package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/cvpilot/resume_go_server/internal/model"
	"github.com/cvpilot/resume_go_server/internal/model/dto"
	"github.com/cvpilot/resume_go_server/internal/pkg/oss"
	"github.com/cvpilot/resume_go_server/internal/pkg/queue"
	"github.com/cvpilot/resume_go_server/internal/repository"
)

var (
	ErrResumeNotFound   = errors.New("简历不存在")
	ErrTemplateNotFound = errors.New("模板不存在")
	ErrTemplateLocked   = errors.New("当前会员等级无法使用该模板")
	ErrResumeGenerating = errors.New("简历正在生成中，请稍候")
	ErrEmptyResume      = errors.New("简历内容为空，无法导出")
	ErrJobNotFound      = errors.New("生成任务不存在")
)

// ResumeService 简历 CRUD、模板门禁与 AI 生成入口。
// 生成走异步队列：扣配额、落任务、入队，进度由 worker 推送
type ResumeService struct {
	resumeRepo        *repository.ResumeRepository
	templateRepo      *repository.TemplateRepository
	jobRepo           *repository.JobRepository
	membershipService *MembershipService
	genQueue          *queue.Queue
	ossClient         *oss.Client
}

func NewResumeService(resumeRepo *repository.ResumeRepository, templateRepo *repository.TemplateRepository, jobRepo *repository.JobRepository, membershipService *MembershipService, genQueue *queue.Queue, ossClient *oss.Client) *ResumeService {
	return &ResumeService{
		resumeRepo:        resumeRepo,
		templateRepo:      templateRepo,
		jobRepo:           jobRepo,
		membershipService: membershipService,
		genQueue:          genQueue,
		ossClient:         ossClient,
	}
}

// getOwned 读取简历并校验归属，越权一律按不存在处理
func (s *ResumeService) getOwned(resumeID, userID int64) (*model.Resume, error) {
	resume, err := s.resumeRepo.GetByID(resumeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrResumeNotFound
		}
		return nil, err
	}
	if resume.UserID != userID {
		return nil, ErrResumeNotFound
	}
	return resume, nil
}

// checkTemplateAccess 模板门禁：premium 模板要求会员档位的
// template_access_level 为 premium 或 all
func (s *ResumeService) checkTemplateAccess(userID, templateID int64) error {
	tpl, err := s.templateRepo.GetByID(templateID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTemplateNotFound
		}
		return err
	}
	if !tpl.IsActive {
		return ErrTemplateNotFound
	}
	if tpl.AccessLevel == model.TemplateAccessBasic {
		return nil
	}

	_, tier, err := s.membershipService.GetCurrentMembership(userID)
	if err != nil {
		return err
	}
	switch tier.TemplateAccessLevel {
	case model.TemplateAccessPremium, model.TemplateAccessAll:
		return nil
	default:
		return ErrTemplateLocked
	}
}

// CreateResume 创建简历
func (s *ResumeService) CreateResume(userID int64, req *dto.CreateResumeRequest) (*model.Resume, error) {
	if req.TemplateID != nil {
		if err := s.checkTemplateAccess(userID, *req.TemplateID); err != nil {
			return nil, err
		}
	}

	resume := &model.Resume{
		UserID:     userID,
		Title:      req.Title,
		TemplateID: req.TemplateID,
		Content:    req.Content,
		Status:     "draft",
	}
	if err := s.resumeRepo.Create(resume); err != nil {
		return nil, err
	}
	return resume, nil
}

// GetResume 查询简历
func (s *ResumeService) GetResume(resumeID, userID int64) (*model.Resume, error) {
	return s.getOwned(resumeID, userID)
}

// UpdateResume 更新简历
func (s *ResumeService) UpdateResume(resumeID, userID int64, req *dto.UpdateResumeRequest) (*model.Resume, error) {
	resume, err := s.getOwned(resumeID, userID)
	if err != nil {
		return nil, err
	}
	if resume.Status == "generating" {
		return nil, ErrResumeGenerating
	}

	if req.TemplateID != nil {
		if err := s.checkTemplateAccess(userID, *req.TemplateID); err != nil {
			return nil, err
		}
		resume.TemplateID = req.TemplateID
	}
	if req.Title != nil {
		resume.Title = *req.Title
	}
	if req.Content != nil {
		resume.Content = req.Content
	}

	if err := s.resumeRepo.Update(resume); err != nil {
		return nil, err
	}
	return resume, nil
}

// DeleteResume 删除简历
func (s *ResumeService) DeleteResume(resumeID, userID int64) error {
	resume, err := s.getOwned(resumeID, userID)
	if err != nil {
		return err
	}
	return s.resumeRepo.Delete(resume.ID)
}

// ListResumes 用户简历列表
func (s *ResumeService) ListResumes(userID int64, page, pageSize int) ([]*model.Resume, int64, error) {
	return s.resumeRepo.ListByUserID(userID, page, pageSize)
}

// ListTemplates 模板列表，按当前会员等级标记锁定状态
func (s *ResumeService) ListTemplates(userID int64) ([]*dto.TemplateInfo, error) {
	tpls, err := s.templateRepo.ListActive()
	if err != nil {
		return nil, err
	}

	premiumOK := false
	if userID > 0 {
		_, tier, err := s.membershipService.GetCurrentMembership(userID)
		if err != nil {
			return nil, err
		}
		premiumOK = tier.TemplateAccessLevel == model.TemplateAccessPremium ||
			tier.TemplateAccessLevel == model.TemplateAccessAll
	}

	infos := make([]*dto.TemplateInfo, 0, len(tpls))
	for _, t := range tpls {
		infos = append(infos, &dto.TemplateInfo{
			ID:          t.ID,
			Name:        t.Name,
			Description: t.Description,
			PreviewURL:  t.PreviewURL,
			AccessLevel: t.AccessLevel,
			Locked:      t.AccessLevel != model.TemplateAccessBasic && !premiumOK,
		})
	}
	return infos, nil
}

// Generate 发起 AI 生成/优化。先扣配额再入队，
// 配额扣成功但入队失败时任务直接标记失败
func (s *ResumeService) Generate(ctx context.Context, userID, resumeID int64, req *dto.GenerateRequest) (*dto.GenerateResponse, error) {
	resume, err := s.getOwned(resumeID, userID)
	if err != nil {
		return nil, err
	}
	if resume.Status == "generating" {
		return nil, ErrResumeGenerating
	}

	feature := "resume_" + req.Action
	if _, err := s.membershipService.ConsumeAIQuota(userID, feature); err != nil {
		return nil, err
	}

	job := &model.GenerationJob{
		ResumeID: resume.ID,
		UserID:   userID,
		Action:   req.Action,
		Prompt:   req.Prompt,
		Status:   model.JobStatusQueued,
	}
	if err := s.jobRepo.Create(job); err != nil {
		return nil, err
	}

	if err := s.resumeRepo.UpdateStatus(resume.ID, "generating"); err != nil {
		return nil, err
	}

	if err := s.genQueue.Push(ctx, &queue.GenerationMessage{
		JobID:    job.ID,
		ResumeID: resume.ID,
		UserID:   userID,
		Action:   req.Action,
		Prompt:   req.Prompt,
	}); err != nil {
		job.Status = model.JobStatusFailed
		job.ErrorMessage = "failed to enqueue job"
		_ = s.jobRepo.Update(job)
		_ = s.resumeRepo.UpdateStatus(resume.ID, "draft")
		return nil, err
	}

	return &dto.GenerateResponse{
		JobID:    job.ID,
		ResumeID: resume.ID,
		Status:   job.Status,
	}, nil
}

// GetJobStatus 查询简历最近一次生成任务状态
func (s *ResumeService) GetJobStatus(resumeID, userID int64) (*dto.JobStatusResponse, error) {
	if _, err := s.getOwned(resumeID, userID); err != nil {
		return nil, err
	}

	job, err := s.jobRepo.GetLatestByResumeID(resumeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}

	return &dto.JobStatusResponse{
		JobID:          job.ID,
		Status:         job.Status,
		ErrorMessage:   job.ErrorMessage,
		ElapsedSeconds: job.ElapsedSeconds,
	}, nil
}

// Export 导出简历内容到对象存储，返回下载地址
func (s *ResumeService) Export(resumeID, userID int64) (string, error) {
	if s.ossClient == nil {
		return "", ErrOSSNotConfigured
	}

	resume, err := s.getOwned(resumeID, userID)
	if err != nil {
		return "", err
	}
	if len(resume.Content) == 0 {
		return "", ErrEmptyResume
	}

	data, err := json.MarshalIndent(map[string]interface{}{
		"title":       resume.Title,
		"content":     resume.Content,
		"exported_at": time.Now().Format(time.RFC3339),
	}, "", "  ")
	if err != nil {
		return "", err
	}

	url, err := s.ossClient.UploadExport(resume.ID, data, ".json")
	if err != nil {
		return "", err
	}

	if err := s.resumeRepo.UpdateFields(resume.ID, map[string]interface{}{
		"export_oss_url": url,
	}); err != nil {
		return "", err
	}
	return url, nil
}
