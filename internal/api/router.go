package api

import (
	"github.com/gin-gonic/gin"

	"github.com/cvpilot/resume_go_server/config"
	"github.com/cvpilot/resume_go_server/internal/api/handler"
	"github.com/cvpilot/resume_go_server/internal/api/middleware"
	"github.com/cvpilot/resume_go_server/internal/service"
)

type Router struct {
	authHandler       *handler.AuthHandler
	userHandler       *handler.UserHandler
	membershipHandler *handler.MembershipHandler
	resumeHandler     *handler.ResumeHandler
	adminHandler      *handler.AdminHandler
	websocketHandler  *handler.WebSocketHandler
	authService       *service.AuthService
	membershipService *service.MembershipService
	cfg               *config.Config
}

func NewRouter(
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	membershipHandler *handler.MembershipHandler,
	resumeHandler *handler.ResumeHandler,
	adminHandler *handler.AdminHandler,
	websocketHandler *handler.WebSocketHandler,
	authService *service.AuthService,
	membershipService *service.MembershipService,
	cfg *config.Config,
) *Router {
	return &Router{
		authHandler:       authHandler,
		userHandler:       userHandler,
		membershipHandler: membershipHandler,
		resumeHandler:     resumeHandler,
		adminHandler:      adminHandler,
		websocketHandler:  websocketHandler,
		authService:       authService,
		membershipService: membershipService,
		cfg:               cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	if r.cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.CORS(r.cfg.CORS))

	api := engine.Group("/api/v1")
	{
		// WebSocket
		api.GET("/ws", r.websocketHandler.Handle)

		// 公开接口 - 认证
		auth := api.Group("/auth")
		{
			auth.POST("/register", r.authHandler.Register)
			auth.POST("/login", r.authHandler.Login)
			auth.POST("/verify-email", r.authHandler.VerifyEmail)
			auth.GET("/github", r.authHandler.GithubAuth)
			auth.GET("/github/callback", r.authHandler.GithubCallback)
		}

		// 公开接口 - 会员档位
		api.GET("/membership/tiers", r.membershipHandler.ListTiers)

		// 公开接口 - 模板（可选认证，登录后标记锁定状态）
		templates := api.Group("/templates")
		templates.Use(middleware.OptionalAuth(r.cfg.JWT.Secret))
		{
			templates.GET("", r.resumeHandler.ListTemplates)
		}

		// 需要认证的接口
		authenticated := api.Group("")
		authenticated.Use(middleware.Auth(r.cfg.JWT.Secret))
		{
			// 用户
			user := authenticated.Group("/user")
			{
				user.GET("/profile", r.userHandler.GetProfile)
				user.PUT("/profile", r.userHandler.UpdateProfile)
				user.POST("/avatar", r.userHandler.UploadAvatar)
				user.GET("/plan", r.userHandler.GetPlanDetails)
				user.GET("/quota-usage", r.userHandler.GetQuotaUsage)
			}

			// 会员
			membership := authenticated.Group("/membership")
			{
				membership.GET("/status", r.membershipHandler.GetStatus)
				membership.GET("/history", r.membershipHandler.ListHistory)
				membership.POST("/check-quota", r.membershipHandler.CheckQuota)
				membership.POST("/orders", r.membershipHandler.CreateOrder)
				membership.GET("/orders", r.membershipHandler.ListOrders)
				membership.GET("/orders/:id", r.membershipHandler.GetOrder)
				membership.POST("/orders/:id/activate", r.membershipHandler.ActivateOrder)
			}

			// 简历
			resumes := authenticated.Group("/resumes")
			{
				resumes.POST("", r.resumeHandler.Create)
				resumes.GET("", r.resumeHandler.List)
				resumes.GET("/:id", r.resumeHandler.Get)
				resumes.PUT("/:id", r.resumeHandler.Update)
				resumes.DELETE("/:id", r.resumeHandler.Delete)
				resumes.POST("/:id/generate", middleware.AIQuotaCheck(r.membershipService), r.resumeHandler.Generate)
				resumes.GET("/:id/job-status", r.resumeHandler.GetJobStatus)
				resumes.POST("/:id/export", r.resumeHandler.Export)
			}
		}

		// 管理后台
		admin := api.Group("/admin")
		admin.Use(middleware.Auth(r.cfg.JWT.Secret))
		admin.Use(middleware.AdminOnly(r.authService))
		{
			admin.GET("/dashboard", r.adminHandler.GetDashboard)
			admin.GET("/users", r.adminHandler.ListUsers)
			admin.POST("/quota/assign", r.adminHandler.AssignQuota)
			admin.POST("/membership/grant", r.adminHandler.GrantMembership)
			admin.GET("/orders", r.adminHandler.ListOrders)
			admin.POST("/orders/:id/activate", r.adminHandler.ActivateOrder)
			admin.GET("/plans", r.adminHandler.ListPlans)
			admin.POST("/plans", r.adminHandler.CreatePlan)
			admin.PUT("/plans/:id", r.adminHandler.UpdatePlan)
			admin.DELETE("/plans/:id", r.adminHandler.DeletePlan)
			admin.GET("/tiers", r.adminHandler.ListTiers)
			admin.POST("/tiers", r.adminHandler.CreateTier)
			admin.PUT("/tiers/:id", r.adminHandler.UpdateTier)
		}
	}

	return engine
}
