package repository

import (
	"gorm.io/gorm"

	"github.com/cvpilot/resume_go_server/internal/model"
)

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// WithTx 返回绑定到事务的副本
func (r *OrderRepository) WithTx(tx *gorm.DB) *OrderRepository {
	return &OrderRepository{db: tx}
}

func (r *OrderRepository) Create(order *model.MembershipOrder) error {
	return r.db.Create(order).Error
}

func (r *OrderRepository) GetByID(id int64) (*model.MembershipOrder, error) {
	var order model.MembershipOrder
	err := r.db.Where("id = ?", id).First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetByIDForUpdate 事务内加行锁读取订单，激活用
func (r *OrderRepository) GetByIDForUpdate(id int64) (*model.MembershipOrder, error) {
	var order model.MembershipOrder
	err := lockForUpdate(r.db).Where("id = ?", id).First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *OrderRepository) GetByOrderNumber(orderNumber string) (*model.MembershipOrder, error) {
	var order model.MembershipOrder
	err := r.db.Where("order_number = ?", orderNumber).First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *OrderRepository) Update(order *model.MembershipOrder) error {
	return r.db.Save(order).Error
}

// ListByUserID 用户订单列表，最新在前
func (r *OrderRepository) ListByUserID(userID int64, page, pageSize int) ([]*model.MembershipOrder, int64, error) {
	var orders []*model.MembershipOrder
	var total int64

	query := r.db.Model(&model.MembershipOrder{}).Where("user_id = ?", userID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&orders).Error
	return orders, total, err
}

// List 全部订单分页（管理后台）
func (r *OrderRepository) List(status string, page, pageSize int) ([]*model.MembershipOrder, int64, error) {
	var orders []*model.MembershipOrder
	var total int64

	query := r.db.Model(&model.MembershipOrder{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&orders).Error
	return orders, total, err
}
