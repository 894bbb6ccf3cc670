package memdb

import (
	"context"
	"fmt"
	"time"

	"github.com/RoyceAzure/lab/orderadmin/internal/domain/model"
	"github.com/shopspring/decimal"
)

var demoPartners = []string{"Blue Dart", "Delhivery", "Ecom Express"}

// Seed 寫入示範資料，ORDER_STORE=memory 時啟動用
func (s *Store) Seed(ctx context.Context, count int) error {
	partnerIDs := make([]string, 0, len(demoPartners))
	for _, name := range demoPartners {
		p := &model.DeliveryPartner{Name: name}
		if err := s.CreateDeliveryPartner(ctx, p); err != nil {
			return err
		}
		partnerIDs = append(partnerIDs, p.ID)
	}

	now := s.now()
	for i := 0; i < count; i++ {
		status := model.AllOrderStatuses[i%len(model.AllOrderStatuses)]
		price := decimal.NewFromInt(int64(100 + i*10))
		shipping := decimal.NewFromInt(40)
		order := &model.Order{
			OrderNumber:   fmt.Sprintf("ORD-%05d", i+1),
			Status:        status,
			Subtotal:      price,
			ShippingCost:  shipping,
			Total:         price.Add(shipping),
			PaymentMethod: "cod",
			FraudScore:    decimal.NewFromInt(int64((i * 17) % 100)),
			IsFlagged:     (i*17)%100 >= 80,
			Address: &model.Address{
				FullName: fmt.Sprintf("Customer %d", i+1),
				Phone:    fmt.Sprintf("98765%05d", i+1),
				Line1:    fmt.Sprintf("%d Market Street", i+1),
				City:     "Mumbai",
			},
			Items: []model.OrderItem{
				{ProductName: "Sample Product", Price: price, Quantity: 1},
			},
			BaseModel: model.BaseModel{CreatedAt: now.Add(-time.Duration(i) * time.Hour)},
		}
		if status == model.OrderStatusShipped || status == model.OrderStatusDelivered {
			pid := partnerIDs[i%len(partnerIDs)]
			order.DeliveryPartnerID = &pid
		}
		if err := s.CreateOrder(ctx, order); err != nil {
			return err
		}
	}
	return nil
}
