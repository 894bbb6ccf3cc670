package memdb

import (
	"context"
	"testing"
	"time"

	"github.com/RoyceAzure/lab/orderadmin/internal/domain/model"
	"github.com/RoyceAzure/lab/orderadmin/internal/infra/repository/db"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func newOrder(number string, status model.OrderStatus, createdAt time.Time) *model.Order {
	return &model.Order{
		OrderNumber: number,
		Status:      status,
		Total:       decimal.NewFromInt(100),
		Address:     &model.Address{FullName: "Name " + number, Phone: "555"},
		Items:       []model.OrderItem{{ProductName: "p", Price: decimal.NewFromInt(100), Quantity: 1}},
		BaseModel:   model.BaseModel{CreatedAt: createdAt},
	}
}

func TestStore_QueryOrders(t *testing.T) {
	ctx := context.Background()
	s := New()
	base := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.CreateOrder(ctx, newOrder("A", model.OrderStatusPending, base.AddDate(0, 0, -2))))
	require.NoError(t, s.CreateOrder(ctx, newOrder("B", model.OrderStatusShipped, base.AddDate(0, 0, -1))))
	require.NoError(t, s.CreateOrder(ctx, newOrder("C", model.OrderStatusPending, base)))

	all, err := s.QueryOrders(ctx, model.StoreQuery{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, "C", all[0].OrderNumber)
	require.Equal(t, "A", all[2].OrderNumber)
	require.Nil(t, all[0].Items)

	pending := model.OrderStatusPending
	got, err := s.QueryOrders(ctx, model.StoreQuery{Status: &pending})
	require.NoError(t, err)
	require.Len(t, got, 2)

	from := model.StartOfDay(base.AddDate(0, 0, -1))
	to := model.EndOfDay(base.AddDate(0, 0, -1))
	got, err = s.QueryOrders(ctx, model.StoreQuery{CreatedFrom: &from, CreatedTo: &to})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "B", got[0].OrderNumber)
}

func TestStore_UpdateOrderFields(t *testing.T) {
	ctx := context.Background()
	s := New()
	o := newOrder("A", model.OrderStatusPending, time.Now())
	require.NoError(t, s.CreateOrder(ctx, o))

	ts := time.Now()
	err := s.UpdateOrderFields(ctx, o.ID, map[string]any{
		model.ColStatus:    model.OrderStatusShipped,
		model.ColShippedAt: ts,
	})
	require.NoError(t, err)

	got, err := s.GetOrderByID(ctx, o.ID)
	require.NoError(t, err)
	require.Equal(t, model.OrderStatusShipped, got.Status)
	require.NotNil(t, got.ShippedAt)
	require.True(t, got.ShippedAt.Equal(ts))
	require.Nil(t, got.DeliveredAt)

	err = s.UpdateOrderFields(ctx, "missing", map[string]any{model.ColStatus: model.OrderStatusShipped})
	require.ErrorIs(t, err, db.ErrOrderNotFound)

	err = s.UpdateOrderFields(ctx, o.ID, map[string]any{"total": 1})
	require.ErrorIs(t, err, db.ErrUnknownColumn)
}

func TestStore_DeleteRequiresItemsFirst(t *testing.T) {
	ctx := context.Background()
	s := New()
	o := newOrder("A", model.OrderStatusPending, time.Now())
	require.NoError(t, s.CreateOrder(ctx, o))

	_, err := s.DeleteOrdersByIDs(ctx, []string{o.ID})
	require.Error(t, err)

	require.NoError(t, s.DeleteOrderItemsByOrderIDs(ctx, []string{o.ID}))
	require.Equal(t, 0, s.ItemCount(o.ID))

	deleted, err := s.DeleteOrdersByIDs(ctx, []string{o.ID, "missing"})
	require.NoError(t, err)
	require.Equal(t, []string{o.ID}, deleted)
}

func TestStore_Seed(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.Seed(ctx, 12))

	orders, err := s.QueryOrders(ctx, model.StoreQuery{})
	require.NoError(t, err)
	require.Len(t, orders, 12)

	partners, err := s.ListDeliveryPartners(ctx)
	require.NoError(t, err)
	require.Len(t, partners, len(demoPartners))

	for _, o := range orders {
		if o.DeliveryPartnerID != nil {
			require.NotNil(t, o.DeliveryPartner)
		}
	}
}
