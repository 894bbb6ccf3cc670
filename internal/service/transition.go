package service

import (
	"fmt"
	"time"

	"github.com/RoyceAzure/lab/orderadmin/internal/domain/model"
)

// TransitionPolicy 決定狀態能否從 from 變成 to
type TransitionPolicy interface {
	// NeedsCurrent false 時 from 一律傳空字串，SetStatus 不會先讀取訂單
	NeedsCurrent() bool
	Check(from, to model.OrderStatus) error
}

// PermissiveTransitions 任何狀態都能變成任何狀態
type PermissiveTransitions struct{}

func (PermissiveTransitions) NeedsCurrent() bool { return false }

func (PermissiveTransitions) Check(from, to model.OrderStatus) error {
	if !to.IsValid() {
		return fmt.Errorf("%w: %q", model.ErrInvalidStatus, to)
	}
	return nil
}

// TransitionTable 只允許表內的轉換，相同狀態重複設定一律允許
type TransitionTable map[model.OrderStatus][]model.OrderStatus

// DefaultTransitionTable 出貨流程的正向轉換，出貨後不可取消
func DefaultTransitionTable() TransitionTable {
	return TransitionTable{
		model.OrderStatusPending:    {model.OrderStatusConfirmed, model.OrderStatusCancelled},
		model.OrderStatusConfirmed:  {model.OrderStatusProcessing, model.OrderStatusCancelled},
		model.OrderStatusProcessing: {model.OrderStatusShipped, model.OrderStatusCancelled},
		model.OrderStatusShipped:    {model.OrderStatusDelivered},
		model.OrderStatusDelivered:  {},
		model.OrderStatusCancelled:  {},
	}
}

func (t TransitionTable) NeedsCurrent() bool { return true }

func (t TransitionTable) Check(from, to model.OrderStatus) error {
	if !to.IsValid() {
		return fmt.Errorf("%w: %q", model.ErrInvalidStatus, to)
	}
	if from == to {
		return nil
	}
	for _, next := range t[from] {
		if next == to {
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, from, to)
}

// transitionFields 一次寫入的欄位，出貨與送達會重新蓋時間戳
func transitionFields(to model.OrderStatus, now time.Time) map[string]any {
	fields := map[string]any{model.ColStatus: string(to)}
	switch to {
	case model.OrderStatusShipped:
		fields[model.ColShippedAt] = now
	case model.OrderStatusDelivered:
		fields[model.ColDeliveredAt] = now
	}
	return fields
}
