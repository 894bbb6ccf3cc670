package redis_repo

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/RoyceAzure/lab/orderadmin/internal/domain/model"
	"github.com/redis/go-redis/v9"
)

// IPartnerCache 物流商清單快取
type IPartnerCache interface {
	// GetPartners 快取不存在時回傳 ErrCacheMiss
	GetPartners(ctx context.Context) ([]model.DeliveryPartner, error)
	SetPartners(ctx context.Context, partners []model.DeliveryPartner) error
	InvalidatePartners(ctx context.Context) error
}

var (
	ErrCacheMiss = errors.New("cache miss")
)

/*	物流商清單很少變動，整份清單以 JSON 存一個 key
	結構:
	delivery_partners:all -> [{"id": "...", "name": "..."}]
*/

const partnerListKey = "delivery_partners:all"

type PartnerRedisRepo struct {
	cache *redis.Client
	ttl   time.Duration
}

func NewPartnerRedisRepo(cache *redis.Client, ttl time.Duration) *PartnerRedisRepo {
	return &PartnerRedisRepo{cache: cache, ttl: ttl}
}

func (s *PartnerRedisRepo) GetPartners(ctx context.Context) ([]model.DeliveryPartner, error) {
	raw, err := s.cache.Get(ctx, partnerListKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, err
	}

	var partners []model.DeliveryPartner
	if err := json.Unmarshal(raw, &partners); err != nil {
		return nil, err
	}
	return partners, nil
}

func (s *PartnerRedisRepo) SetPartners(ctx context.Context, partners []model.DeliveryPartner) error {
	raw, err := json.Marshal(partners)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, partnerListKey, raw, s.ttl).Err()
}

func (s *PartnerRedisRepo) InvalidatePartners(ctx context.Context) error {
	return s.cache.Del(ctx, partnerListKey).Err()
}
