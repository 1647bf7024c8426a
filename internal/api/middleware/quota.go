package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/cvpilot/resume_go_server/internal/pkg/response"
	"github.com/cvpilot/resume_go_server/internal/service"
)

// AIQuotaCheck AI 配额预检中间件，只查不扣。
// 真正的扣减在生成入口的事务里完成
func AIQuotaCheck(membershipService *service.MembershipService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := GetUserID(c)
		if !ok {
			response.AuthError(c, "")
			c.Abort()
			return
		}

		result, err := membershipService.ValidateAIQuota(userID)
		if err != nil {
			response.ServerError(c, "配额检查失败")
			c.Abort()
			return
		}

		if !result.HasQuota {
			response.QuotaError(c, "AI 配额已用完")
			c.Abort()
			return
		}

		c.Next()
	}
}
