package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/RoyceAzure/lab/orderadmin/internal/domain/model"
	"github.com/RoyceAzure/lab/orderadmin/internal/infra/repository/db"
	"github.com/RoyceAzure/lab/orderadmin/internal/infra/repository/memdb"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

// seedOrder 建立一筆含收件資訊與明細的訂單
func seedOrder(t *testing.T, store *memdb.Store, number string, status model.OrderStatus, createdAt time.Time) *model.Order {
	t.Helper()
	o := &model.Order{
		OrderNumber:   number,
		Status:        status,
		Subtotal:      decimal.NewFromInt(100),
		ShippingCost:  decimal.NewFromInt(10),
		Total:         decimal.NewFromInt(110),
		PaymentMethod: "card",
		FraudScore:    decimal.NewFromInt(5),
		Address:       &model.Address{FullName: "Customer " + number, Phone: "0900-" + number},
		Items:         []model.OrderItem{{ProductName: "item", Price: decimal.NewFromInt(100), Quantity: 1}},
		BaseModel:     model.BaseModel{CreatedAt: createdAt},
	}
	require.NoError(t, store.CreateOrder(context.Background(), o))
	return o
}

func seedOrders(t *testing.T, store *memdb.Store, n int) []string {
	t.Helper()
	base := time.Now()
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		o := seedOrder(t, store, fmt.Sprintf("ORD-%03d", i), model.OrderStatusPending, base.Add(-time.Duration(i)*time.Minute))
		ids = append(ids, o.ID)
	}
	return ids
}

// mockOrderRepo 需要精準控制回傳值時使用
type mockOrderRepo struct {
	mock.Mock
}

func (m *mockOrderRepo) QueryOrders(ctx context.Context, q model.StoreQuery) ([]model.Order, error) {
	args := m.Called(ctx, q)
	orders, _ := args.Get(0).([]model.Order)
	return orders, args.Error(1)
}

func (m *mockOrderRepo) GetOrderByID(ctx context.Context, id string) (*model.Order, error) {
	args := m.Called(ctx, id)
	o, _ := args.Get(0).(*model.Order)
	return o, args.Error(1)
}

func (m *mockOrderRepo) CreateOrder(ctx context.Context, order *model.Order) error {
	return m.Called(ctx, order).Error(0)
}

func (m *mockOrderRepo) UpdateOrderFields(ctx context.Context, id string, fields map[string]any) error {
	return m.Called(ctx, id, fields).Error(0)
}

func (m *mockOrderRepo) DeleteOrderItemsByOrderIDs(ctx context.Context, orderIDs []string) error {
	return m.Called(ctx, orderIDs).Error(0)
}

func (m *mockOrderRepo) DeleteOrdersByIDs(ctx context.Context, ids []string) ([]string, error) {
	args := m.Called(ctx, ids)
	deleted, _ := args.Get(0).([]string)
	return deleted, args.Error(1)
}

var _ db.IOrderRepository = (*mockOrderRepo)(nil)

// failingUpdates 指定的訂單更新一律失敗，其他交給 memdb
type failingUpdates struct {
	db.IOrderRepository
	fail map[string]error
}

func (f *failingUpdates) UpdateOrderFields(ctx context.Context, id string, fields map[string]any) error {
	if err, ok := f.fail[id]; ok {
		return err
	}
	return f.IOrderRepository.UpdateOrderFields(ctx, id, fields)
}

type fakeRenderer struct {
	mu    sync.Mutex
	html  map[string]string
	errs  map[string]error
	calls []string
}

func (r *fakeRenderer) Render(ctx context.Context, kind model.DocumentKind, orderID string) (model.Document, error) {
	r.mu.Lock()
	r.calls = append(r.calls, orderID)
	r.mu.Unlock()
	if err, ok := r.errs[orderID]; ok {
		return model.Document{}, err
	}
	return model.Document{OrderID: orderID, Kind: kind, HTML: r.html[orderID], RenderedAt: time.Now()}, nil
}

type recordingSink struct {
	mu   sync.Mutex
	docs []model.Document
}

func (s *recordingSink) Deliver(ctx context.Context, doc model.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = append(s.docs, doc)
	return nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
