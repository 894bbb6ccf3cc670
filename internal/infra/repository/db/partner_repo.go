package db

import (
	"context"
	"fmt"

	"github.com/RoyceAzure/lab/orderadmin/internal/domain/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PartnerRepo struct {
	db *DbDao
}

func NewPartnerRepo(db *DbDao) *PartnerRepo {
	return &PartnerRepo{db: db}
}

func (s *PartnerRepo) CreateDeliveryPartner(ctx context.Context, partner *model.DeliveryPartner) error {
	if partner.ID == "" {
		partner.ID = uuid.New().String()
	}
	return s.db.WithContext(ctx).Create(partner).Error
}

// Read - 所有物流商，依名稱排序
func (s *PartnerRepo) ListDeliveryPartners(ctx context.Context) ([]model.DeliveryPartner, error) {
	var partners []model.DeliveryPartner
	err := s.db.WithContext(ctx).Order("name ASC").Find(&partners).Error
	return partners, err
}

func (s *PartnerRepo) GetDeliveryPartnerByID(ctx context.Context, id string) (*model.DeliveryPartner, error) {
	var partner model.DeliveryPartner
	err := s.db.WithContext(ctx).First(&partner, "id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: %s", ErrPartnerNotFound, id)
		}
		return nil, err
	}
	return &partner, nil
}
