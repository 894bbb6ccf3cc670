package decorator

import (
	"context"
	"time"

	"github.com/RoyceAzure/lab/orderadmin/internal/domain/model"
	"github.com/RoyceAzure/lab/orderadmin/internal/infra/changefeed"
	"github.com/RoyceAzure/lab/orderadmin/internal/infra/repository/db"
	"github.com/rs/zerolog/log"
)

/*
寫入成功後發布變動事件，其他後台實例 (以及本機的 reconciler) 會重新查詢
發布失敗只記 log，資料已經寫入，不影響呼叫端結果
*/
type NotifyingOrderRepo struct {
	db.IOrderRepository
	publisher changefeed.ChangePublisher
	now       func() time.Time
}

func NewNotifyingOrderRepo(repo db.IOrderRepository, publisher changefeed.ChangePublisher) *NotifyingOrderRepo {
	return &NotifyingOrderRepo{IOrderRepository: repo, publisher: publisher, now: time.Now}
}

func (r *NotifyingOrderRepo) CreateOrder(ctx context.Context, order *model.Order) error {
	if err := r.IOrderRepository.CreateOrder(ctx, order); err != nil {
		return err
	}
	events := []model.ChangeEvent{r.event(model.ChangeInsert, model.TableOrders, order.ID)}
	if len(order.Items) > 0 {
		events = append(events, r.event(model.ChangeInsert, model.TableOrderItems, order.ID))
	}
	r.publish(ctx, events...)
	return nil
}

func (r *NotifyingOrderRepo) UpdateOrderFields(ctx context.Context, id string, fields map[string]any) error {
	if err := r.IOrderRepository.UpdateOrderFields(ctx, id, fields); err != nil {
		return err
	}
	r.publish(ctx, r.event(model.ChangeUpdate, model.TableOrders, id))
	return nil
}

func (r *NotifyingOrderRepo) DeleteOrderItemsByOrderIDs(ctx context.Context, orderIDs []string) error {
	if err := r.IOrderRepository.DeleteOrderItemsByOrderIDs(ctx, orderIDs); err != nil {
		return err
	}
	events := make([]model.ChangeEvent, 0, len(orderIDs))
	for _, id := range orderIDs {
		events = append(events, r.event(model.ChangeDelete, model.TableOrderItems, id))
	}
	r.publish(ctx, events...)
	return nil
}

func (r *NotifyingOrderRepo) DeleteOrdersByIDs(ctx context.Context, ids []string) ([]string, error) {
	deleted, err := r.IOrderRepository.DeleteOrdersByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	events := make([]model.ChangeEvent, 0, len(deleted))
	for _, id := range deleted {
		events = append(events, r.event(model.ChangeDelete, model.TableOrders, id))
	}
	r.publish(ctx, events...)
	return deleted, nil
}

func (r *NotifyingOrderRepo) event(t model.ChangeType, table model.Table, id string) model.ChangeEvent {
	return model.ChangeEvent{Event: t, Table: table, RecordID: id, At: r.now()}
}

func (r *NotifyingOrderRepo) publish(ctx context.Context, events ...model.ChangeEvent) {
	if len(events) == 0 {
		return
	}
	if err := r.publisher.Publish(ctx, events...); err != nil {
		log.Error().Err(err).Int("events", len(events)).Msg("publish order change events failed")
	}
}
