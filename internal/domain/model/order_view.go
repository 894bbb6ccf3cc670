package model

import (
	"github.com/shopspring/decimal"
)

// RiskAnnotation 上游計算的風險資訊，僅供顯示
type RiskAnnotation struct {
	Score   decimal.Decimal `json:"score"`
	Flagged bool            `json:"flagged"`
}

// OrderView 列表上的一筆訂單，已 join 收件人與物流商名稱
type OrderView struct {
	Order
	CustomerName        string         `json:"customer_name"`
	CustomerPhone       string         `json:"customer_phone"`
	DeliveryPartnerName string         `json:"delivery_partner_name,omitempty"`
	Risk                RiskAnnotation `json:"risk"`
}

func (v OrderView) Clone() OrderView {
	c := v
	c.Order = v.Order.Clone()
	return c
}
