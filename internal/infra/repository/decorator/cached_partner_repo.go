package decorator

import (
	"context"
	"errors"

	"github.com/RoyceAzure/lab/orderadmin/internal/domain/model"
	"github.com/RoyceAzure/lab/orderadmin/internal/infra/repository/db"
	"github.com/RoyceAzure/lab/orderadmin/internal/infra/repository/redis_repo"
	"github.com/rs/zerolog/log"
)

/*
物流商清單走 cache aside
redis 出錯時直接回 db 的結果，快取只是加速
*/
type CacheAsidePartnerRepo struct {
	db.IDeliveryPartnerRepository
	cache redis_repo.IPartnerCache
}

func NewCacheAsidePartnerRepo(repo db.IDeliveryPartnerRepository, cache redis_repo.IPartnerCache) db.IDeliveryPartnerRepository {
	return &CacheAsidePartnerRepo{IDeliveryPartnerRepository: repo, cache: cache}
}

func (p *CacheAsidePartnerRepo) ListDeliveryPartners(ctx context.Context) ([]model.DeliveryPartner, error) {
	partners, err := p.cache.GetPartners(ctx)
	if err == nil {
		return partners, nil
	}
	if !errors.Is(err, redis_repo.ErrCacheMiss) {
		log.Warn().Err(err).Msg("partner cache read failed")
	}

	partners, err = p.IDeliveryPartnerRepository.ListDeliveryPartners(ctx)
	if err != nil {
		return nil, err
	}
	if err := p.cache.SetPartners(ctx, partners); err != nil {
		log.Warn().Err(err).Msg("partner cache write failed")
	}
	return partners, nil
}

func (p *CacheAsidePartnerRepo) GetDeliveryPartnerByID(ctx context.Context, id string) (*model.DeliveryPartner, error) {
	partners, err := p.ListDeliveryPartners(ctx)
	if err != nil {
		return nil, err
	}
	for i := range partners {
		if partners[i].ID == id {
			return &partners[i], nil
		}
	}
	return p.IDeliveryPartnerRepository.GetDeliveryPartnerByID(ctx, id)
}

func (p *CacheAsidePartnerRepo) CreateDeliveryPartner(ctx context.Context, partner *model.DeliveryPartner) error {
	if err := p.IDeliveryPartnerRepository.CreateDeliveryPartner(ctx, partner); err != nil {
		return err
	}
	if err := p.cache.InvalidatePartners(ctx); err != nil {
		log.Warn().Err(err).Msg("partner cache invalidate failed")
	}
	return nil
}
