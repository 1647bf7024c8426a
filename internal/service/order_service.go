package service

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/cvpilot/resume_go_server/internal/model"
	"github.com/cvpilot/resume_go_server/internal/model/dto"
	"github.com/cvpilot/resume_go_server/internal/pkg/email"
	"github.com/cvpilot/resume_go_server/internal/repository"
)

var (
	ErrOrderNotFound         = errors.New("订单不存在")
	ErrOrderAlreadyActivated = errors.New("订单已激活，请勿重复操作")
	ErrOrderNotPayable       = errors.New("订单状态不可支付")
	ErrTierDisabled          = errors.New("会员档位已下架")
)

// OrderService 会员订单：创建 pending 订单，激活时翻转为 paid 并开通会员。
// 激活是幂等操作，重复激活返回 ErrOrderAlreadyActivated 且不产生第二条会员记录
type OrderService struct {
	db                *gorm.DB
	orderRepo         *repository.OrderRepository
	tierRepo          *repository.TierRepository
	userRepo          *repository.UserRepository
	logRepo           *repository.LogRepository
	membershipService *MembershipService
	emailService      *email.Service
}

func NewOrderService(db *gorm.DB, orderRepo *repository.OrderRepository, tierRepo *repository.TierRepository, userRepo *repository.UserRepository, logRepo *repository.LogRepository, membershipService *MembershipService, emailService *email.Service) *OrderService {
	return &OrderService{
		db:                db,
		orderRepo:         orderRepo,
		tierRepo:          tierRepo,
		userRepo:          userRepo,
		logRepo:           logRepo,
		membershipService: membershipService,
		emailService:      emailService,
	}
}

// generateOrderNumber 订单号：时间戳 + 随机后缀
func generateOrderNumber() (string, error) {
	bytes := make([]byte, 4)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return fmt.Sprintf("M%s%s", time.Now().Format("20060102150405"), hex.EncodeToString(bytes)), nil
}

// CreateOrder 创建 pending 订单，金额快照自档位当前价格
func (s *OrderService) CreateOrder(userID int64, req *dto.CreateOrderRequest) (*model.MembershipOrder, error) {
	tier, err := s.tierRepo.GetByID(req.MembershipTierID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTierNotFound
		}
		return nil, err
	}
	if !tier.IsActive {
		return nil, ErrTierDisabled
	}

	orderNumber, err := generateOrderNumber()
	if err != nil {
		return nil, err
	}

	final := tier.EffectivePrice()
	order := &model.MembershipOrder{
		OrderNumber:      orderNumber,
		UserID:           userID,
		MembershipTierID: tier.ID,
		OriginalAmount:   tier.OriginalPrice,
		DiscountAmount:   tier.OriginalPrice - final,
		FinalAmount:      final,
		Status:           model.OrderStatusPending,
		PaymentMethod:    req.PaymentMethod,
	}

	if err := s.orderRepo.Create(order); err != nil {
		return nil, err
	}
	return order, nil
}

// ActivateOrder 支付回调/确认入口。pending 订单翻转为 paid 并开通会员，
// 全程一个事务；已 paid 的订单直接拒绝。
// userID 为 0 时跳过归属校验（管理后台调用）
func (s *OrderService) ActivateOrder(orderID, userID int64, transactionID string) (*model.MembershipOrder, error) {
	var order *model.MembershipOrder
	err := s.db.Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)

		found, err := orderRepo.GetByIDForUpdate(orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return err
		}
		if userID > 0 && found.UserID != userID {
			return ErrOrderNotFound
		}

		switch found.Status {
		case model.OrderStatusPending:
		case model.OrderStatusPaid:
			return ErrOrderAlreadyActivated
		default:
			return ErrOrderNotPayable
		}

		tier, err := s.tierRepo.WithTx(tx).GetByID(found.MembershipTierID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTierNotFound
			}
			return err
		}

		now := time.Now()
		found.Status = model.OrderStatusPaid
		found.PaidAt = &now
		found.PaymentTransactionID = transactionID
		if err := orderRepo.Update(found); err != nil {
			return err
		}

		if _, err := s.membershipService.activateTx(tx, found.UserID, tier, activateOptions{
			PaymentStatus: model.OrderStatusPaid,
			PaidAmount:    found.FinalAmount,
			PaymentMethod: found.PaymentMethod,
		}, now); err != nil {
			return err
		}

		if err := s.logRepo.WithTx(tx).CreateUserAction(&model.UserActionLog{
			UserID: found.UserID,
			Action: "order_activate",
			Detail: model.JSONMap{
				"order_id":     found.ID,
				"order_number": found.OrderNumber,
				"tier_id":      tier.ID,
			},
		}); err != nil {
			return err
		}

		order = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifyActivated(order)
	return order, nil
}

// notifyActivated 开通通知邮件，失败只记日志不影响主流程
func (s *OrderService) notifyActivated(order *model.MembershipOrder) {
	if s.emailService == nil {
		return
	}
	user, err := s.userRepo.GetByID(order.UserID)
	if err != nil || user.Email == nil {
		return
	}
	tier, err := s.tierRepo.GetByID(order.MembershipTierID)
	if err != nil {
		return
	}
	if err := s.emailService.SendMembershipActivated(*user.Email, tier.Name); err != nil {
		log.Printf("Failed to send membership activated email to user %d: %v", order.UserID, err)
	}
}

// GetOrder 查询订单，校验归属
func (s *OrderService) GetOrder(orderID, userID int64) (*model.MembershipOrder, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if userID > 0 && order.UserID != userID {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// ListOrders 用户订单列表
func (s *OrderService) ListOrders(userID int64, page, pageSize int) ([]*model.MembershipOrder, int64, error) {
	return s.orderRepo.ListByUserID(userID, page, pageSize)
}

// ListAllOrders 全部订单（管理后台）
func (s *OrderService) ListAllOrders(status string, page, pageSize int) ([]*model.MembershipOrder, int64, error) {
	return s.orderRepo.List(status, page, pageSize)
}
