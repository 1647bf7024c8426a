package main

import (
	"context"
	"fmt"
	"log"

	"github.com/cvpilot/resume_go_server/config"
	"github.com/cvpilot/resume_go_server/internal/api"
	"github.com/cvpilot/resume_go_server/internal/api/handler"
	"github.com/cvpilot/resume_go_server/internal/database"
	"github.com/cvpilot/resume_go_server/internal/pkg/email"
	"github.com/cvpilot/resume_go_server/internal/pkg/oauth"
	"github.com/cvpilot/resume_go_server/internal/pkg/oss"
	"github.com/cvpilot/resume_go_server/internal/pkg/pubsub"
	"github.com/cvpilot/resume_go_server/internal/pkg/queue"
	"github.com/cvpilot/resume_go_server/internal/pkg/ws"
	"github.com/cvpilot/resume_go_server/internal/repository"
	"github.com/cvpilot/resume_go_server/internal/service"
)

func main() {
	// 加载配置
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化数据库
	db, err := database.NewMySQL(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect database: %v", err)
	}
	log.Println("Database connected")

	// 初始化 Redis
	rdb, err := database.NewRedis(&cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect redis: %v", err)
	}
	log.Println("Redis connected")

	// 初始化 OSS（可选）
	var ossClient *oss.Client
	if cfg.OSS.Endpoint != "" && cfg.OSS.AccessKeyID != "" {
		ossClient, err = oss.NewClient(&cfg.OSS)
		if err != nil {
			log.Printf("Warning: Failed to init OSS client: %v", err)
		} else {
			log.Println("OSS client initialized")
		}
	}

	// 初始化邮件服务（可选）
	var emailService *email.Service
	if cfg.Email.SMTPHost != "" {
		emailService = email.NewService(&cfg.Email)
	}

	// 初始化生成队列与 WebSocket Hub
	genQueue := queue.NewQueue(rdb, cfg.Queue.GenerationQueue)
	wsHub := ws.NewHub()

	// 订阅 worker 的进度消息并转发到 WebSocket
	subscriber := pubsub.NewSubscriber(rdb)
	go func() {
		err := subscriber.Subscribe(context.Background(), func(msg *pubsub.ProgressMessage) {
			if err := wsHub.SendToUser(msg.UserID, &ws.Message{Type: msg.Type, Data: msg}); err != nil {
				log.Printf("Failed to forward progress to user %d: %v", msg.UserID, err)
			}
		})
		if err != nil {
			log.Printf("Progress subscriber stopped: %v", err)
		}
	}()

	// 初始化 Repository
	userRepo := repository.NewUserRepository(db)
	planRepo := repository.NewPlanRepository(db)
	quotaRepo := repository.NewQuotaRepository(db)
	tierRepo := repository.NewTierRepository(db)
	membershipRepo := repository.NewMembershipRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	resumeRepo := repository.NewResumeRepository(db)
	templateRepo := repository.NewTemplateRepository(db)
	jobRepo := repository.NewJobRepository(db)
	logRepo := repository.NewLogRepository(db)
	statsRepo := repository.NewStatsRepository(db)

	// 初始化 Service
	quotaService := service.NewQuotaService(db, quotaRepo, planRepo, logRepo)
	membershipService := service.NewMembershipService(db, membershipRepo, tierRepo, quotaRepo, logRepo, cfg)
	orderService := service.NewOrderService(db, orderRepo, tierRepo, userRepo, logRepo, membershipService, emailService)
	planService := service.NewPlanService(db, planRepo)
	authService := service.NewAuthService(userRepo, logRepo, quotaService, membershipService, emailService, cfg)
	userService := service.NewUserService(userRepo, logRepo, ossClient)
	resumeService := service.NewResumeService(resumeRepo, templateRepo, jobRepo, membershipService, genQueue, ossClient)
	adminService := service.NewAdminService(statsRepo, userRepo, tierRepo, quotaService)

	// 初始化 Handler
	stateStore := oauth.NewStateStore(rdb)
	authHandler := handler.NewAuthHandler(authService, stateStore)
	userHandler := handler.NewUserHandler(userService, quotaService)
	membershipHandler := handler.NewMembershipHandler(membershipService, orderService)
	resumeHandler := handler.NewResumeHandler(resumeService)
	adminHandler := handler.NewAdminHandler(adminService, planService, membershipService, orderService)
	websocketHandler := handler.NewWebSocketHandler(wsHub, cfg.JWT.Secret)

	// 初始化 Router
	router := api.NewRouter(
		authHandler,
		userHandler,
		membershipHandler,
		resumeHandler,
		adminHandler,
		websocketHandler,
		authService,
		membershipService,
		cfg,
	)
	engine := router.Setup()

	// 启动服务器
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("Server starting on %s", addr)
	if err := engine.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
