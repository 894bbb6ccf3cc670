package service

import (
	"context"
	"strings"
	"time"

	"github.com/RoyceAzure/lab/orderadmin/internal/domain/model"
	"github.com/RoyceAzure/lab/orderadmin/internal/infra/repository/db"
	"github.com/RoyceAzure/lab/orderadmin/internal/metrics"
	"github.com/RoyceAzure/lab/orderadmin/internal/tracing"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
)

type IOrderService interface {
	GetOrder(ctx context.Context, orderID string) (*model.Order, error)
	SetStatus(ctx context.Context, orderID string, status model.OrderStatus) (Transition, error)
	SetDeliveryPartner(ctx context.Context, orderID string, partnerID *string) error
	SetTrackingNumber(ctx context.Context, orderID string, value string) error
	SetNotes(ctx context.Context, orderID string, notes string) error
	ListDeliveryPartners(ctx context.Context) ([]model.DeliveryPartner, error)
}

// Transition SetStatus 實際寫入的內容，呼叫端用來更新本地畫面
type Transition struct {
	OrderID     string
	To          model.OrderStatus
	ShippedAt   *time.Time
	DeliveredAt *time.Time
}

type OrderService struct {
	orderRepo   db.IOrderRepository
	partnerRepo db.IDeliveryPartnerRepository
	policy      TransitionPolicy
	now         func() time.Time
	logger      *zerolog.Logger
	metrics     *metrics.Metrics
}

type OrderServiceOption func(*OrderService)

func WithClock(now func() time.Time) OrderServiceOption {
	return func(s *OrderService) { s.now = now }
}

func WithTransitionPolicy(p TransitionPolicy) OrderServiceOption {
	return func(s *OrderService) { s.policy = p }
}

func WithOrderMetrics(m *metrics.Metrics) OrderServiceOption {
	return func(s *OrderService) { s.metrics = m }
}

func NewOrderService(orderRepo db.IOrderRepository, partnerRepo db.IDeliveryPartnerRepository, logger *zerolog.Logger, opts ...OrderServiceOption) *OrderService {
	if orderRepo == nil {
		panic("order service dependency orderRepo is nil")
	}
	s := &OrderService{
		orderRepo:   orderRepo,
		partnerRepo: partnerRepo,
		policy:      PermissiveTransitions{},
		now:         time.Now,
		logger:      nopIfNil(logger),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *OrderService) GetOrder(ctx context.Context, orderID string) (*model.Order, error) {
	return s.orderRepo.GetOrderByID(ctx, orderID)
}

// SetStatus 單次部分更新：status，出貨時 shipped_at，送達時 delivered_at
// 其他欄位不會被改動，重複設定會重新蓋時間戳
func (s *OrderService) SetStatus(ctx context.Context, orderID string, status model.OrderStatus) (Transition, error) {
	ctx, span := tracing.Tracer().Start(ctx, "OrderService.SetStatus")
	defer span.End()
	span.SetAttributes(attribute.String("order.id", orderID), attribute.String("order.status", string(status)))

	t, err := s.setStatus(ctx, orderID, status)
	s.metrics.ObserveTransition(string(status), err)
	if err != nil {
		span.RecordError(err)
		s.logger.Error().Err(err).Str("order_id", orderID).Str("status", string(status)).Msg("set order status failed")
		return Transition{}, err
	}
	s.logger.Info().Str("order_id", orderID).Str("status", string(status)).Msg("order status changed")
	return t, nil
}

func (s *OrderService) setStatus(ctx context.Context, orderID string, status model.OrderStatus) (Transition, error) {
	var from model.OrderStatus
	if s.policy.NeedsCurrent() {
		current, err := s.orderRepo.GetOrderByID(ctx, orderID)
		if err != nil {
			return Transition{}, err
		}
		from = current.Status
	}
	if err := s.policy.Check(from, status); err != nil {
		return Transition{}, err
	}

	now := s.now()
	if err := s.orderRepo.UpdateOrderFields(ctx, orderID, transitionFields(status, now)); err != nil {
		return Transition{}, err
	}

	t := Transition{OrderID: orderID, To: status}
	switch status {
	case model.OrderStatusShipped:
		t.ShippedAt = &now
	case model.OrderStatusDelivered:
		t.DeliveredAt = &now
	}
	return t, nil
}

// SetDeliveryPartner nil 代表取消指派
func (s *OrderService) SetDeliveryPartner(ctx context.Context, orderID string, partnerID *string) error {
	var value any
	if partnerID != nil && *partnerID != "" {
		value = *partnerID
	}
	return s.updateField(ctx, "OrderService.SetDeliveryPartner", orderID, model.ColDeliveryPartnerID, value)
}

// SetTrackingNumber 空白字串會清除追蹤碼
func (s *OrderService) SetTrackingNumber(ctx context.Context, orderID string, value string) error {
	return s.updateField(ctx, "OrderService.SetTrackingNumber", orderID, model.ColTrackingNumber, optionalText(value))
}

func (s *OrderService) SetNotes(ctx context.Context, orderID string, notes string) error {
	return s.updateField(ctx, "OrderService.SetNotes", orderID, model.ColNotes, optionalText(notes))
}

func (s *OrderService) ListDeliveryPartners(ctx context.Context) ([]model.DeliveryPartner, error) {
	if s.partnerRepo == nil {
		return []model.DeliveryPartner{}, nil
	}
	return s.partnerRepo.ListDeliveryPartners(ctx)
}

func (s *OrderService) updateField(ctx context.Context, spanName, orderID, column string, value any) error {
	ctx, span := tracing.Tracer().Start(ctx, spanName)
	defer span.End()
	span.SetAttributes(attribute.String("order.id", orderID))

	if err := s.orderRepo.UpdateOrderFields(ctx, orderID, map[string]any{column: value}); err != nil {
		span.RecordError(err)
		s.logger.Error().Err(err).Str("order_id", orderID).Str("column", column).Msg("update order failed")
		return err
	}
	return nil
}

func optionalText(v string) any {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return v
}
