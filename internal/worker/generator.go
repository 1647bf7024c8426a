package worker

import (
	"context"
	"fmt"
	"strings"

	"github.com/cvpilot/resume_go_server/internal/model"
)

// Generator 简历内容生成器。生产环境接大模型，测试用内置实现
type Generator interface {
	Generate(ctx context.Context, resume *model.Resume, action, prompt string) (model.JSONMap, error)
}

// TemplateGenerator 基于规则的兜底生成器：
// generate 时补全缺失的标准段落，optimize 时对已有文本做措辞润色
type TemplateGenerator struct{}

func NewTemplateGenerator() *TemplateGenerator {
	return &TemplateGenerator{}
}

var defaultSections = map[string]interface{}{
	"summary":    "具备扎实专业基础与良好沟通能力，期待在新的岗位上持续成长。",
	"experience": []interface{}{},
	"education":  []interface{}{},
	"skills":     []interface{}{},
}

func (g *TemplateGenerator) Generate(ctx context.Context, resume *model.Resume, action, prompt string) (model.JSONMap, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	content := model.JSONMap{}
	for k, v := range resume.Content {
		content[k] = v
	}

	switch action {
	case "generate":
		for key, def := range defaultSections {
			if _, ok := content[key]; !ok {
				content[key] = def
			}
		}
		if prompt != "" {
			content["summary"] = fmt.Sprintf("%s。%s", strings.TrimSuffix(prompt, "。"), defaultSections["summary"])
		}
	case "optimize":
		if summary, ok := content["summary"].(string); ok && summary != "" {
			content["summary"] = polish(summary)
		}
	default:
		return nil, fmt.Errorf("unknown action: %s", action)
	}

	return content, nil
}

// polish 简单润色：去冗余空白、补句号
func polish(text string) string {
	text = strings.TrimSpace(text)
	text = strings.Join(strings.Fields(text), " ")
	if text != "" && !strings.HasSuffix(text, "。") && !strings.HasSuffix(text, ".") {
		text += "。"
	}
	return text
}
