package memdb

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/RoyceAzure/lab/orderadmin/internal/domain/model"
	"github.com/RoyceAzure/lab/orderadmin/internal/infra/repository/db"
	"github.com/google/uuid"
)

var (
	_ db.IOrderRepository           = (*Store)(nil)
	_ db.IDeliveryPartnerRepository = (*Store)(nil)
)

// Store 程序內的訂單儲存，語意與 postgres 版本一致 (含明細外鍵限制)
type Store struct {
	mu       sync.RWMutex
	orders   map[string]model.Order
	items    map[string][]model.OrderItem
	partners map[string]model.DeliveryPartner
	now      func() time.Time
}

func New() *Store {
	return &Store{
		orders:   make(map[string]model.Order),
		items:    make(map[string][]model.OrderItem),
		partners: make(map[string]model.DeliveryPartner),
		now:      time.Now,
	}
}

func (s *Store) CreateOrder(ctx context.Context, order *model.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	if _, ok := s.orders[order.ID]; ok {
		return fmt.Errorf("order %s already exists", order.ID)
	}
	for _, o := range s.orders {
		if o.OrderNumber == order.OrderNumber {
			return fmt.Errorf("order number %s already exists", order.OrderNumber)
		}
	}
	now := s.now()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = now
	if order.Status == "" {
		order.Status = model.OrderStatusPending
	}
	if order.Address != nil {
		if order.Address.ID == "" {
			order.Address.ID = uuid.New().String()
		}
		order.Address.OrderID = order.ID
	}
	for i := range order.Items {
		if order.Items[i].ID == "" {
			order.Items[i].ID = uuid.New().String()
		}
		order.Items[i].OrderID = order.ID
	}

	stored := order.Clone()
	s.items[order.ID] = stored.Items
	stored.Items = nil
	stored.DeliveryPartner = nil
	s.orders[order.ID] = stored
	return nil
}

func (s *Store) GetOrderByID(ctx context.Context, id string) (*model.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", db.ErrOrderNotFound, id)
	}
	result := s.hydrate(o)
	result.Items = append([]model.OrderItem(nil), s.items[id]...)
	return &result, nil
}

func (s *Store) QueryOrders(ctx context.Context, q model.StoreQuery) ([]model.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]model.Order, 0, len(s.orders))
	for _, o := range s.orders {
		if q.Status != nil && o.Status != *q.Status {
			continue
		}
		if q.CreatedFrom != nil && o.CreatedAt.Before(*q.CreatedFrom) {
			continue
		}
		if q.CreatedTo != nil && o.CreatedAt.After(*q.CreatedTo) {
			continue
		}
		result = append(result, s.hydrate(o))
	}
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].OrderNumber > result[j].OrderNumber
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (s *Store) UpdateOrderFields(ctx context.Context, id string, fields map[string]any) error {
	if err := db.ValidateColumns(fields); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return fmt.Errorf("%w: %s", db.ErrOrderNotFound, id)
	}
	for col, v := range fields {
		if err := apply(&o, col, v); err != nil {
			return err
		}
	}
	o.UpdatedAt = s.now()
	s.orders[id] = o
	return nil
}

func (s *Store) DeleteOrderItemsByOrderIDs(ctx context.Context, orderIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range orderIDs {
		delete(s.items, id)
	}
	return nil
}

// DeleteOrdersByIDs 任一訂單仍有明細時整批失敗，與外鍵限制相同
func (s *Store) DeleteOrdersByIDs(ctx context.Context, ids []string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range ids {
		if len(s.items[id]) > 0 {
			return nil, fmt.Errorf("order %s still has line items", id)
		}
	}
	deleted := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := s.orders[id]; !ok {
			continue
		}
		delete(s.orders, id)
		delete(s.items, id)
		deleted = append(deleted, id)
	}
	return deleted, nil
}

// ItemCount 測試與統計用
func (s *Store) ItemCount(orderID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items[orderID])
}

func (s *Store) CreateDeliveryPartner(ctx context.Context, partner *model.DeliveryPartner) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if partner.ID == "" {
		partner.ID = uuid.New().String()
	}
	if partner.CreatedAt.IsZero() {
		partner.CreatedAt = s.now()
	}
	s.partners[partner.ID] = *partner
	return nil
}

func (s *Store) ListDeliveryPartners(ctx context.Context) ([]model.DeliveryPartner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]model.DeliveryPartner, 0, len(s.partners))
	for _, p := range s.partners {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (s *Store) GetDeliveryPartnerByID(ctx context.Context, id string) (*model.DeliveryPartner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.partners[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", db.ErrPartnerNotFound, id)
	}
	return &p, nil
}

// hydrate 帶出收件資訊與物流商，呼叫端需持有鎖
func (s *Store) hydrate(o model.Order) model.Order {
	c := o.Clone()
	if c.DeliveryPartnerID != nil {
		if p, ok := s.partners[*c.DeliveryPartnerID]; ok {
			c.DeliveryPartner = &p
		}
	}
	return c
}

func apply(o *model.Order, col string, v any) error {
	switch col {
	case model.ColStatus:
		switch s := v.(type) {
		case model.OrderStatus:
			o.Status = s
		case string:
			o.Status = model.OrderStatus(s)
		default:
			return fmt.Errorf("column %s: unexpected %T", col, v)
		}
	case model.ColShippedAt:
		t, err := timeValue(col, v)
		if err != nil {
			return err
		}
		o.ShippedAt = t
	case model.ColDeliveredAt:
		t, err := timeValue(col, v)
		if err != nil {
			return err
		}
		o.DeliveredAt = t
	case model.ColDeliveryPartnerID:
		p, err := stringValue(col, v)
		if err != nil {
			return err
		}
		o.DeliveryPartnerID = p
	case model.ColTrackingNumber:
		p, err := stringValue(col, v)
		if err != nil {
			return err
		}
		o.TrackingNumber = p
	case model.ColNotes:
		p, err := stringValue(col, v)
		if err != nil {
			return err
		}
		o.Notes = p
	}
	return nil
}

func timeValue(col string, v any) (*time.Time, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case time.Time:
		return &t, nil
	case *time.Time:
		if t == nil {
			return nil, nil
		}
		c := *t
		return &c, nil
	default:
		return nil, fmt.Errorf("column %s: unexpected %T", col, v)
	}
}

func stringValue(col string, v any) (*string, error) {
	switch s := v.(type) {
	case nil:
		return nil, nil
	case string:
		return &s, nil
	case *string:
		if s == nil {
			return nil, nil
		}
		c := *s
		return &c, nil
	default:
		return nil, fmt.Errorf("column %s: unexpected %T", col, v)
	}
}
