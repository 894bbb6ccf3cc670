package db

import (
	"fmt"

	"github.com/RoyceAzure/lab/orderadmin/internal/domain/model"
	"gorm.io/gorm"
)

// DbDao 包一層 *gorm.DB，repo 都從這裡取得連線
type DbDao struct {
	*gorm.DB
}

func NewDbDao(conn *gorm.DB) *DbDao {
	return &DbDao{
		DB: conn,
	}
}

/*
schemaTables 依外鍵相依順序排列，被參照的表在前
orders.delivery_partner_id -> delivery_partners
addresses.order_id, order_items.order_id -> orders
刪訂單前必須先刪 order_items，批次刪除的兩階段就是依這個順序
*/
func schemaTables() []any {
	return []any{
		&model.DeliveryPartner{},
		&model.Order{},
		&model.Address{},
		&model.OrderItem{},
	}
}

// InitMigrate 依外鍵順序建立或更新資料表，可重複執行
func (d *DbDao) InitMigrate() error {
	return d.AutoMigrate(schemaTables()...)
}

// ClearAll 依外鍵反向順序清空資料，整合測試每次開始前使用
func (d *DbDao) ClearAll() error {
	tables := schemaTables()
	for i := len(tables) - 1; i >= 0; i-- {
		if err := d.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(tables[i]).Error; err != nil {
			return fmt.Errorf("clear %T: %w", tables[i], err)
		}
	}
	return nil
}
