package dto

// CreateResumeRequest 创建简历请求
type CreateResumeRequest struct {
	Title      string                 `json:"title" binding:"required,max=200"`
	TemplateID *int64                 `json:"template_id,omitempty" binding:"omitempty,gt=0"`
	Content    map[string]interface{} `json:"content,omitempty"`
}

// UpdateResumeRequest 更新简历请求
type UpdateResumeRequest struct {
	Title      *string                `json:"title,omitempty" binding:"omitempty,max=200"`
	TemplateID *int64                 `json:"template_id,omitempty" binding:"omitempty,gt=0"`
	Content    map[string]interface{} `json:"content,omitempty"`
}

// TemplateInfo 模板列表项，Locked 表示当前会员等级不可用
type TemplateInfo struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	PreviewURL  string `json:"preview_url"`
	AccessLevel string `json:"access_level"`
	Locked      bool   `json:"locked"`
}

// GenerateRequest AI 生成/优化请求
type GenerateRequest struct {
	Action string `json:"action" binding:"required,oneof=generate optimize"`
	Prompt string `json:"prompt,omitempty" binding:"omitempty,max=2000"`
}

// GenerateResponse AI 生成响应
type GenerateResponse struct {
	JobID    int64  `json:"job_id"`
	ResumeID int64  `json:"resume_id"`
	Status   string `json:"status"`
}

// JobStatusResponse 生成任务状态
type JobStatusResponse struct {
	JobID          int64  `json:"job_id"`
	Status         string `json:"status"`
	ErrorMessage   string `json:"error_message,omitempty"`
	ElapsedSeconds int    `json:"elapsed_seconds,omitempty"`
}
