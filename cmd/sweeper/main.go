package main

import (
	"flag"
	"log"
	"os"
	"time"

	"github.com/cvpilot/resume_go_server/config"
	"github.com/cvpilot/resume_go_server/internal/database"
	"github.com/cvpilot/resume_go_server/internal/repository"
	"github.com/cvpilot/resume_go_server/internal/service"
)

// 定时任务由外部调度（cron/K8s CronJob）触发，进程内不做调度
var (
	dryRun       = flag.Bool("dry-run", true, "Dry run mode, report without writing")
	expireSweep  = flag.Bool("expire-memberships", true, "Flip past-due active memberships to expired")
	quotaReset   = flag.Bool("reset-quotas", true, "Reset monthly AI quotas that are due")
	failStale    = flag.Bool("fail-stale-jobs", true, "Mark long-running generation jobs as failed")
	staleMinutes = flag.Int("stale-minutes", 30, "Minutes before a processing job counts as stale")
)

func main() {
	flag.Parse()

	log.Println("Starting membership sweeper...")
	log.Printf("Mode: dry-run=%v", *dryRun)

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.NewMySQL(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect database: %v", err)
	}

	membershipRepo := repository.NewMembershipRepository(db)
	tierRepo := repository.NewTierRepository(db)
	quotaRepo := repository.NewQuotaRepository(db)
	logRepo := repository.NewLogRepository(db)
	jobRepo := repository.NewJobRepository(db)
	membershipService := service.NewMembershipService(db, membershipRepo, tierRepo, quotaRepo, logRepo, cfg)

	now := time.Now()

	// 1. 过期会员翻转，幂等，可重复执行
	if *expireSweep {
		if *dryRun {
			due, err := membershipRepo.ListResetDue(now)
			if err != nil {
				log.Printf("Failed to inspect memberships: %v", err)
			}
			log.Printf("Would sweep expired memberships (reset-due active rows: %d)", len(due))
		} else {
			count, err := membershipService.CheckAndUpdateExpired()
			if err != nil {
				log.Fatalf("Failed to expire memberships: %v", err)
			}
			log.Printf("Expired %d past-due memberships", count)
		}
	}

	// 2. 月度额度重置（惰性重置的补偿，保证不活跃用户也被重置）
	if *quotaReset {
		if *dryRun {
			due, err := membershipRepo.ListResetDue(now)
			if err != nil {
				log.Fatalf("Failed to list reset-due memberships: %v", err)
			}
			log.Printf("Would reset monthly quota for %d memberships", len(due))
		} else {
			count, err := membershipService.ResetDueMonthlyQuotas()
			if err != nil {
				log.Fatalf("Failed to reset monthly quotas: %v", err)
			}
			log.Printf("Reset monthly quota for %d memberships", count)
		}
	}

	// 3. 卡死的生成任务标记失败
	if *failStale {
		before := now.Add(-time.Duration(*staleMinutes) * time.Minute)
		if *dryRun {
			log.Printf("Would fail generation jobs processing since before %s", before.Format(time.RFC3339))
		} else {
			count, err := jobRepo.FailStale(before)
			if err != nil {
				log.Fatalf("Failed to fail stale jobs: %v", err)
			}
			log.Printf("Marked %d stale generation jobs as failed", count)
		}
	}

	if *dryRun {
		log.Println("DRY RUN MODE - no rows were written. Run with -dry-run=false to apply")
	} else {
		log.Println("Sweep completed")
	}
}
