package repository

import (
	"gorm.io/gorm"

	"github.com/cvpilot/resume_go_server/internal/model"
)

type TierRepository struct {
	db *gorm.DB
}

func NewTierRepository(db *gorm.DB) *TierRepository {
	return &TierRepository{db: db}
}

// WithTx 返回绑定到事务的副本
func (r *TierRepository) WithTx(tx *gorm.DB) *TierRepository {
	return &TierRepository{db: tx}
}

func (r *TierRepository) Create(tier *model.MembershipTier) error {
	return r.db.Create(tier).Error
}

func (r *TierRepository) GetByID(id int64) (*model.MembershipTier, error) {
	var tier model.MembershipTier
	err := r.db.Where("id = ?", id).First(&tier).Error
	if err != nil {
		return nil, err
	}
	return &tier, nil
}

func (r *TierRepository) GetByName(name string) (*model.MembershipTier, error) {
	var tier model.MembershipTier
	err := r.db.Where("name = ?", name).First(&tier).Error
	if err != nil {
		return nil, err
	}
	return &tier, nil
}

func (r *TierRepository) Update(tier *model.MembershipTier) error {
	return r.db.Save(tier).Error
}

func (r *TierRepository) Delete(id int64) error {
	return r.db.Delete(&model.MembershipTier{}, id).Error
}

func (r *TierRepository) List() ([]*model.MembershipTier, error) {
	var tiers []*model.MembershipTier
	err := r.db.Order("sort_order ASC, id ASC").Find(&tiers).Error
	return tiers, err
}

func (r *TierRepository) ListActive() ([]*model.MembershipTier, error) {
	var tiers []*model.MembershipTier
	err := r.db.Where("is_active = ?", true).
		Order("sort_order ASC, id ASC").
		Find(&tiers).Error
	return tiers, err
}
