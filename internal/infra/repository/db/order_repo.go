package db

import (
	"context"
	"fmt"

	"github.com/RoyceAzure/lab/orderadmin/internal/domain/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// 訂單由外部結帳流程寫入，後台只做查詢、部分更新與刪除
type OrderRepo struct {
	db *DbDao
}

func NewOrderRepo(db *DbDao) *OrderRepo {
	return &OrderRepo{db: db}
}

// Create - 建立訂單，連同收件資訊與明細
func (s *OrderRepo) CreateOrder(ctx context.Context, order *model.Order) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	if order.Address != nil && order.Address.ID == "" {
		order.Address.ID = uuid.New().String()
	}
	for i := range order.Items {
		if order.Items[i].ID == "" {
			order.Items[i].ID = uuid.New().String()
		}
	}
	return s.db.WithContext(ctx).Create(order).Error
}

// Read - 根據ID查詢訂單
func (s *OrderRepo) GetOrderByID(ctx context.Context, id string) (*model.Order, error) {
	var order model.Order
	err := s.db.WithContext(ctx).
		Preload("Address").
		Preload("DeliveryPartner").
		Preload("Items").
		First(&order, "id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, id)
		}
		return nil, err
	}
	return &order, nil
}

// Read - 依狀態與建立日期範圍查詢，新到舊
func (s *OrderRepo) QueryOrders(ctx context.Context, q model.StoreQuery) ([]model.Order, error) {
	var orders []model.Order
	query := s.db.WithContext(ctx).
		Model(&model.Order{}).
		Preload("Address").
		Preload("DeliveryPartner")

	if q.Status != nil {
		query = query.Where("status = ?", *q.Status)
	}
	if q.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *q.CreatedFrom)
	}
	if q.CreatedTo != nil {
		query = query.Where("created_at <= ?", *q.CreatedTo)
	}

	err := query.Order("created_at DESC").Find(&orders).Error
	return orders, err
}

// Update - 單次部分更新，只寫入傳入的欄位
func (s *OrderRepo) UpdateOrderFields(ctx context.Context, id string, fields map[string]any) error {
	if err := ValidateColumns(fields); err != nil {
		return err
	}
	result := s.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("id = ?", id).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrOrderNotFound, id)
	}
	return nil
}

// Delete - 刪除指定訂單的所有明細，一次 IN 查詢
func (s *OrderRepo) DeleteOrderItemsByOrderIDs(ctx context.Context, orderIDs []string) error {
	if len(orderIDs) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).
		Where("order_id IN ?", orderIDs).
		Delete(&model.OrderItem{}).Error
}

// Delete - 刪除訂單，收件資訊一起刪除，回傳實際刪除的訂單ID
// 明細必須先刪除，否則外鍵會擋下
func (s *OrderRepo) DeleteOrdersByIDs(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var deleted []model.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id IN ?", ids).Delete(&model.Address{}).Error; err != nil {
			return err
		}
		return tx.Clauses(clause.Returning{Columns: []clause.Column{{Name: "id"}}}).
			Where("id IN ?", ids).
			Delete(&deleted).Error
	})
	if err != nil {
		return nil, err
	}

	result := make([]string, 0, len(deleted))
	for _, o := range deleted {
		result = append(result, o.ID)
	}
	return result, nil
}
