package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 欄位名稱，部分更新時使用
const (
	ColStatus            = "status"
	ColShippedAt         = "shipped_at"
	ColDeliveredAt       = "delivered_at"
	ColDeliveryPartnerID = "delivery_partner_id"
	ColTrackingNumber    = "tracking_number"
	ColNotes             = "notes"
)

// Order 由外部結帳流程建立，後台只修改狀態、物流與備註
type Order struct {
	ID                string           `gorm:"primaryKey;type:uuid" json:"id"`
	OrderNumber       string           `gorm:"uniqueIndex;not null;type:varchar(64)" json:"order_number"`
	Status            OrderStatus      `gorm:"not null;type:varchar(20);default:pending;index" json:"status"`
	Subtotal          decimal.Decimal  `gorm:"not null;type:decimal(12,2)" json:"subtotal"`
	ShippingCost      decimal.Decimal  `gorm:"not null;type:decimal(12,2)" json:"shipping_cost"`
	Total             decimal.Decimal  `gorm:"not null;type:decimal(12,2)" json:"total"`
	PaymentMethod     string           `gorm:"not null;type:varchar(50)" json:"payment_method"`
	TransactionID     *string          `gorm:"type:varchar(255)" json:"transaction_id,omitempty"`
	DeliveryPartnerID *string          `gorm:"type:uuid;index" json:"delivery_partner_id,omitempty"`
	TrackingNumber    *string          `gorm:"type:varchar(255)" json:"tracking_number,omitempty"`
	Notes             *string          `gorm:"type:text" json:"notes,omitempty"`
	FraudScore        decimal.Decimal  `gorm:"not null;type:decimal(6,2);default:0" json:"fraud_score"`
	IsFlagged         bool             `gorm:"not null;default:false" json:"is_flagged"`
	ShippedAt         *time.Time       `json:"shipped_at,omitempty"`
	DeliveredAt       *time.Time       `json:"delivered_at,omitempty"`
	// 一對一，建立訂單時的快照
	Address           *Address         `gorm:"foreignKey:OrderID" json:"address,omitempty"`
	// 一對多，不做級聯刪除，刪除訂單前必須先刪除明細
	Items             []OrderItem      `gorm:"foreignKey:OrderID" json:"items,omitempty"`
	// 外鍵，關聯到 DeliveryPartner
	DeliveryPartner   *DeliveryPartner `gorm:"foreignKey:DeliveryPartnerID" json:"delivery_partner,omitempty"`
	BaseModel
}

// OrderItem 商品名稱、價格、數量的快照，建立後不再變動
type OrderItem struct {
	ID          string          `gorm:"primaryKey;type:uuid" json:"id"`
	OrderID     string          `gorm:"not null;type:uuid;index" json:"order_id"` // 外鍵，關聯到 Order
	ProductName string          `gorm:"not null;type:varchar(255)" json:"product_name"`
	Price       decimal.Decimal `gorm:"not null;type:decimal(12,2)" json:"price"`
	Quantity    int             `gorm:"not null" json:"quantity"`
	BaseModel
}

// Address 收件資訊快照，不由後台維護
type Address struct {
	ID         string `gorm:"primaryKey;type:uuid" json:"id"`
	OrderID    string `gorm:"not null;type:uuid;uniqueIndex" json:"order_id"`
	FullName   string `gorm:"not null;type:varchar(255)" json:"full_name"`
	Phone      string `gorm:"not null;type:varchar(50)" json:"phone"`
	Line1      string `gorm:"type:varchar(255)" json:"line1"`
	Line2      string `gorm:"type:varchar(255)" json:"line2,omitempty"`
	City       string `gorm:"type:varchar(100)" json:"city"`
	PostalCode string `gorm:"type:varchar(20)" json:"postal_code"`
	BaseModel
}

type DeliveryPartner struct {
	ID   string `gorm:"primaryKey;type:uuid" json:"id"`
	Name string `gorm:"not null;type:varchar(255)" json:"name"`
	BaseModel
}

// Clone 複製一份可獨立修改的訂單，關聯資料只做淺層複製
func (o Order) Clone() Order {
	c := o
	if o.Address != nil {
		a := *o.Address
		c.Address = &a
	}
	if o.DeliveryPartner != nil {
		p := *o.DeliveryPartner
		c.DeliveryPartner = &p
	}
	if o.Items != nil {
		c.Items = append([]OrderItem(nil), o.Items...)
	}
	return c
}

// StoreQuery 推送到資料庫的條件，文字搜尋不在這裡
type StoreQuery struct {
	Status      *OrderStatus
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}
