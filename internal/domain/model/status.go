package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidStatus = errors.New("invalid order status")
)

// OrderStatus 訂單狀態，封閉列舉
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"    // 待處理
	OrderStatusConfirmed  OrderStatus = "confirmed"  // 已確認
	OrderStatusProcessing OrderStatus = "processing" // 處理中
	OrderStatusShipped    OrderStatus = "shipped"    // 已出貨
	OrderStatusDelivered  OrderStatus = "delivered"  // 已送達
	OrderStatusCancelled  OrderStatus = "cancelled"  // 已取消
)

// AllOrderStatuses is the closed set in display order.
var AllOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusProcessing,
		OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	default:
		return false
	}
}

func (s OrderStatus) String() string {
	return string(s)
}

func ParseOrderStatus(v string) (OrderStatus, error) {
	s := OrderStatus(strings.ToLower(strings.TrimSpace(v)))
	if !s.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, v)
	}
	return s, nil
}

// StatusFilterAll 查詢全部狀態，不是一個合法的訂單狀態
const StatusFilterAll = "all"

// StatusFilter is either a concrete status or "all".
type StatusFilter struct {
	status *OrderStatus
}

func AllStatuses() StatusFilter {
	return StatusFilter{}
}

func OnlyStatus(s OrderStatus) StatusFilter {
	return StatusFilter{status: &s}
}

// ParseStatusFilter accepts "all", "" or one of the six statuses.
func ParseStatusFilter(v string) (StatusFilter, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" || v == StatusFilterAll {
		return AllStatuses(), nil
	}
	s, err := ParseOrderStatus(v)
	if err != nil {
		return StatusFilter{}, err
	}
	return OnlyStatus(s), nil
}

func (f StatusFilter) IsAll() bool {
	return f.status == nil
}

// Status returns the concrete status and false when the filter is "all".
func (f StatusFilter) Status() (OrderStatus, bool) {
	if f.status == nil {
		return "", false
	}
	return *f.status, true
}

func (f StatusFilter) Equal(o StatusFilter) bool {
	if f.status == nil || o.status == nil {
		return f.status == nil && o.status == nil
	}
	return *f.status == *o.status
}

func (f StatusFilter) String() string {
	if f.status == nil {
		return StatusFilterAll
	}
	return string(*f.status)
}
