package model

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrUnknownChangeEvent = errors.New("unknown change event")
)

type ChangeType string

const (
	ChangeInsert ChangeType = "insert"
	ChangeUpdate ChangeType = "update"
	ChangeDelete ChangeType = "delete"
)

type Table string

const (
	TableOrders     Table = "orders"
	TableOrderItems Table = "order_items"
)

// ChangeEvent 資料變動通知，不帶欄位差異，收到後一律重新查詢
type ChangeEvent struct {
	Event    ChangeType `json:"event"`
	Table    Table      `json:"table"`
	RecordID string     `json:"record_id,omitempty"`
	At       time.Time  `json:"at"`
}

func (e ChangeEvent) Validate() error {
	switch e.Event {
	case ChangeInsert, ChangeUpdate, ChangeDelete:
	default:
		return fmt.Errorf("%w: event %q", ErrUnknownChangeEvent, e.Event)
	}
	switch e.Table {
	case TableOrders, TableOrderItems:
	default:
		return fmt.Errorf("%w: table %q", ErrUnknownChangeEvent, e.Table)
	}
	return nil
}
