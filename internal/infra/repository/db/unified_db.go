package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/RoyceAzure/lab/orderadmin/internal/domain/model"
)

var (
	ErrOrderNotFound   = errors.New("order not found")
	ErrPartnerNotFound = errors.New("delivery partner not found")
	ErrUnknownColumn   = errors.New("unknown order column")
)

// IOrderRepository Order 相關操作介面
type IOrderRepository interface {
	// QueryOrders 依狀態與建立時間篩選，依 created_at 由新到舊排序，帶出收件人與物流商
	QueryOrders(ctx context.Context, q model.StoreQuery) ([]model.Order, error)
	GetOrderByID(ctx context.Context, id string) (*model.Order, error)
	CreateOrder(ctx context.Context, order *model.Order) error
	// UpdateOrderFields 單次部分更新，沒有任何一筆被更新時回傳 ErrOrderNotFound
	UpdateOrderFields(ctx context.Context, id string, fields map[string]any) error
	// DeleteOrderItemsByOrderIDs 刪除這些訂單的所有明細 (IN 語意)
	DeleteOrderItemsByOrderIDs(ctx context.Context, orderIDs []string) error
	// DeleteOrdersByIDs 刪除訂單，回傳實際被刪除的 id
	DeleteOrdersByIDs(ctx context.Context, ids []string) ([]string, error)
}

// IDeliveryPartnerRepository DeliveryPartner 相關操作介面
type IDeliveryPartnerRepository interface {
	ListDeliveryPartners(ctx context.Context) ([]model.DeliveryPartner, error)
	GetDeliveryPartnerByID(ctx context.Context, id string) (*model.DeliveryPartner, error)
	CreateDeliveryPartner(ctx context.Context, partner *model.DeliveryPartner) error
}

// UpdatableColumns 後台允許部分更新的欄位
var UpdatableColumns = map[string]struct{}{
	model.ColStatus:            {},
	model.ColShippedAt:         {},
	model.ColDeliveredAt:       {},
	model.ColDeliveryPartnerID: {},
	model.ColTrackingNumber:    {},
	model.ColNotes:             {},
}

func ValidateColumns(fields map[string]any) error {
	for k := range fields {
		if _, ok := UpdatableColumns[k]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownColumn, k)
		}
	}
	return nil
}
