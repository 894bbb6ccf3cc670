package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/RoyceAzure/lab/orderadmin/internal/domain/model"
	"github.com/RoyceAzure/lab/orderadmin/internal/infra/repository/db"
	"github.com/RoyceAzure/lab/orderadmin/internal/metrics"
	"github.com/RoyceAzure/lab/orderadmin/internal/tracing"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
)

type IOrderQueryService interface {
	Query(ctx context.Context, filter model.OrderFilter) ([]model.OrderView, error)
}

type OrderQueryService struct {
	repo    db.IOrderRepository
	logger  *zerolog.Logger
	metrics *metrics.Metrics
}

func NewOrderQueryService(repo db.IOrderRepository, logger *zerolog.Logger, m *metrics.Metrics) *OrderQueryService {
	if repo == nil {
		panic("order query service dependency repo is nil")
	}
	return &OrderQueryService{repo: repo, logger: nopIfNil(logger), metrics: m}
}

// Query 狀態與日期交給資料庫篩選，文字搜尋在本地做
// 失敗時回傳空清單與錯誤，不會回傳舊資料
func (s *OrderQueryService) Query(ctx context.Context, filter model.OrderFilter) ([]model.OrderView, error) {
	ctx, span := tracing.Tracer().Start(ctx, "OrderQueryService.Query")
	defer span.End()
	span.SetAttributes(
		attribute.String("filter.status", filter.Status.String()),
		attribute.Bool("filter.search", filter.Search != ""),
	)

	start := time.Now()
	orders, err := s.repo.QueryOrders(ctx, filter.StoreQuery())
	s.metrics.ObserveQuery(start, err)
	if err != nil {
		span.RecordError(err)
		s.logger.Error().Err(err).Str("status", filter.Status.String()).Msg("query orders failed")
		return []model.OrderView{}, fmt.Errorf("%w: %w", ErrStoreQuery, err)
	}

	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})

	search := strings.ToLower(strings.TrimSpace(filter.Search))
	views := make([]model.OrderView, 0, len(orders))
	for _, o := range orders {
		v := ToView(o)
		if search != "" && !matchesSearch(v, search) {
			continue
		}
		views = append(views, v)
	}
	span.SetAttributes(attribute.Int("result.count", len(views)))
	return views, nil
}

// ToView 帶出收件人、物流商名稱與風險資訊
func ToView(o model.Order) model.OrderView {
	v := model.OrderView{
		Order: o,
		Risk: model.RiskAnnotation{
			Score:   o.FraudScore,
			Flagged: o.IsFlagged,
		},
	}
	if o.Address != nil {
		v.CustomerName = o.Address.FullName
		v.CustomerPhone = o.Address.Phone
	}
	if o.DeliveryPartner != nil {
		v.DeliveryPartnerName = o.DeliveryPartner.Name
	}
	return v
}

// search 已經轉小寫
func matchesSearch(v model.OrderView, search string) bool {
	return strings.Contains(strings.ToLower(v.OrderNumber), search) ||
		strings.Contains(strings.ToLower(v.CustomerName), search) ||
		strings.Contains(strings.ToLower(v.CustomerPhone), search)
}
