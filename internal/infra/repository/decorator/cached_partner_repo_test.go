package decorator

import (
	"context"
	"errors"
	"testing"

	"github.com/RoyceAzure/lab/orderadmin/internal/domain/model"
	"github.com/RoyceAzure/lab/orderadmin/internal/infra/repository/memdb"
	"github.com/RoyceAzure/lab/orderadmin/internal/infra/repository/redis_repo"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockPartnerCache struct {
	mock.Mock
}

func (m *mockPartnerCache) GetPartners(ctx context.Context) ([]model.DeliveryPartner, error) {
	args := m.Called(ctx)
	partners, _ := args.Get(0).([]model.DeliveryPartner)
	return partners, args.Error(1)
}

func (m *mockPartnerCache) SetPartners(ctx context.Context, partners []model.DeliveryPartner) error {
	return m.Called(ctx, partners).Error(0)
}

func (m *mockPartnerCache) InvalidatePartners(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func seededPartners(t *testing.T) *memdb.Store {
	t.Helper()
	store := memdb.New()
	require.NoError(t, store.CreateDeliveryPartner(context.Background(), &model.DeliveryPartner{ID: "p1", Name: "Alpha"}))
	return store
}

func TestCacheAsidePartnerRepo_MissLoadsAndFills(t *testing.T) {
	cache := new(mockPartnerCache)
	cache.On("GetPartners", mock.Anything).Return(nil, redis_repo.ErrCacheMiss)
	cache.On("SetPartners", mock.Anything, mock.MatchedBy(func(p []model.DeliveryPartner) bool {
		return len(p) == 1 && p[0].Name == "Alpha"
	})).Return(nil)

	repo := NewCacheAsidePartnerRepo(seededPartners(t), cache)
	partners, err := repo.ListDeliveryPartners(context.Background())
	require.NoError(t, err)
	require.Len(t, partners, 1)
	cache.AssertExpectations(t)
}

func TestCacheAsidePartnerRepo_HitSkipsStore(t *testing.T) {
	cache := new(mockPartnerCache)
	cache.On("GetPartners", mock.Anything).Return([]model.DeliveryPartner{{ID: "cached", Name: "Cached"}}, nil)

	repo := NewCacheAsidePartnerRepo(seededPartners(t), cache)
	partners, err := repo.ListDeliveryPartners(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Cached", partners[0].Name)

	p, err := repo.GetDeliveryPartnerByID(context.Background(), "cached")
	require.NoError(t, err)
	require.Equal(t, "Cached", p.Name)
	cache.AssertNotCalled(t, "SetPartners", mock.Anything, mock.Anything)
}

func TestCacheAsidePartnerRepo_CacheErrorFallsBack(t *testing.T) {
	cache := new(mockPartnerCache)
	cache.On("GetPartners", mock.Anything).Return(nil, errors.New("connection refused"))
	cache.On("SetPartners", mock.Anything, mock.Anything).Return(errors.New("connection refused"))

	repo := NewCacheAsidePartnerRepo(seededPartners(t), cache)
	partners, err := repo.ListDeliveryPartners(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Alpha", partners[0].Name)
}

func TestCacheAsidePartnerRepo_CreateInvalidates(t *testing.T) {
	cache := new(mockPartnerCache)
	cache.On("InvalidatePartners", mock.Anything).Return(nil).Once()

	repo := NewCacheAsidePartnerRepo(seededPartners(t), cache)
	require.NoError(t, repo.CreateDeliveryPartner(context.Background(), &model.DeliveryPartner{Name: "Beta"}))
	cache.AssertExpectations(t)
}
