package view

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/RoyceAzure/lab/orderadmin/internal/domain/model"
	"github.com/RoyceAzure/lab/orderadmin/internal/service"
	"github.com/rs/zerolog"
)

var ErrEmptySelection = errors.New("no orders selected")

// BulkApplier 批次操作
type BulkApplier interface {
	Apply(ctx context.Context, ids []string, op model.Operation) service.BulkResult
}

// Watcher 變動通知的訂閱，篩選條件改變時重新訂閱
type Watcher interface {
	Resubscribe(ctx context.Context) error
	Stale() bool
}

// Snapshot 某個時間點的畫面狀態
type Snapshot struct {
	Filter      model.OrderFilter
	Orders      []model.OrderView
	Selected    []string
	Stale       bool
	LastError   error
	RefreshedAt time.Time
}

/*
AdminView 後台訂單列表的畫面狀態：篩選條件、目前的訂單清單、選取集合
訂單清單是查詢結果的快取，每次重新查詢整份替換
單筆狀態與物流商變更會先改本地資料，失敗時不還原，等下一次查詢修正
*/
type AdminView struct {
	query    service.IOrderQueryService
	orders   service.IOrderService
	bulk     BulkApplier
	notifier Notifier
	logger   *zerolog.Logger

	// refreshMu 同一時間只跑一個查詢
	refreshMu sync.Mutex

	mu          sync.Mutex
	filter      model.OrderFilter
	generation  uint64
	list        []model.OrderView
	selection   *SelectionSet
	lastErr     error
	refreshedAt time.Time
	watcher     Watcher
}

func NewAdminView(query service.IOrderQueryService, orders service.IOrderService, bulk BulkApplier, notifier Notifier, logger *zerolog.Logger) *AdminView {
	if query == nil || orders == nil || bulk == nil || notifier == nil {
		panic("admin view dependency is nil")
	}
	if logger == nil {
		l := zerolog.Nop()
		logger = &l
	}
	return &AdminView{
		query:     query,
		orders:    orders,
		bulk:      bulk,
		notifier:  notifier,
		logger:    logger,
		filter:    model.DefaultOrderFilter(),
		list:      []model.OrderView{},
		selection: NewSelectionSet(),
	}
}

// AttachWatcher reconciler 建立後再掛上
func (v *AdminView) AttachWatcher(w Watcher) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.watcher = w
}

// Refresh 用目前的篩選條件重新查詢，reconciler 也呼叫這裡
func (v *AdminView) Refresh(ctx context.Context) error {
	v.refreshMu.Lock()
	defer v.refreshMu.Unlock()

	v.mu.Lock()
	filter, gen := v.filter, v.generation
	v.mu.Unlock()

	views, err := v.query.Query(ctx, filter)

	v.mu.Lock()
	defer v.mu.Unlock()
	if gen != v.generation {
		// 查詢期間篩選條件已經改變，結果作廢
		return nil
	}
	v.list = views
	v.lastErr = err
	v.refreshedAt = time.Now()
	if err != nil {
		v.notifier.Notify(model.NoticeError, "Failed to load orders", err.Error())
		return err
	}
	return nil
}

// ManualRefresh 操作人員按下重新整理，feed 中斷時先重新訂閱
func (v *AdminView) ManualRefresh(ctx context.Context) error {
	w := v.currentWatcher()
	if w != nil && w.Stale() {
		if err := w.Resubscribe(ctx); err != nil {
			v.logger.Warn().Err(err).Msg("resubscribe change feed failed")
			v.notifier.Notify(model.NoticeWarning, "Live updates unavailable", err.Error())
		}
	}
	return v.Refresh(ctx)
}

// SetFilter 狀態或日期改變時重新訂閱，只有搜尋文字改變時沿用訂閱
// 兩種情況都會重新查詢
func (v *AdminView) SetFilter(ctx context.Context, f model.OrderFilter) error {
	v.mu.Lock()
	scopeChanged := !v.filter.SameStoreScope(f)
	v.filter = f
	v.generation++
	w := v.watcher
	v.mu.Unlock()

	if scopeChanged && w != nil {
		if err := w.Resubscribe(ctx); err != nil {
			v.logger.Warn().Err(err).Msg("resubscribe change feed failed")
			v.notifier.Notify(model.NoticeWarning, "Live updates unavailable", err.Error())
		}
	}
	return v.Refresh(ctx)
}

func (v *AdminView) Filter() model.OrderFilter {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.filter
}

// Orders 回傳複本，呼叫端修改不影響畫面狀態
func (v *AdminView) Orders() []model.OrderView {
	v.mu.Lock()
	defer v.mu.Unlock()
	return cloneViews(v.list)
}

func (v *AdminView) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	s := Snapshot{
		Filter:      v.filter,
		Orders:      cloneViews(v.list),
		Selected:    v.selection.IDs(),
		LastError:   v.lastErr,
		RefreshedAt: v.refreshedAt,
	}
	if v.watcher != nil {
		s.Stale = v.watcher.Stale()
	}
	return s
}

func (v *AdminView) Stats() service.OrderStats {
	v.mu.Lock()
	defer v.mu.Unlock()
	return service.ComputeStats(v.list)
}

func (v *AdminView) Select(ids ...string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.selection.Add(ids...)
}

func (v *AdminView) Deselect(ids ...string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.selection.Remove(ids...)
}

// SelectAllVisible 選取目前清單上的所有訂單
func (v *AdminView) SelectAllVisible() {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, o := range v.list {
		v.selection.Add(o.ID)
	}
}

func (v *AdminView) ClearSelection() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.selection.Clear()
}

func (v *AdminView) Selected() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.selection.IDs()
}

// SetStatus 先更新本地清單再寫入，寫入失敗不還原
func (v *AdminView) SetStatus(ctx context.Context, orderID string, status model.OrderStatus) error {
	if !status.IsValid() {
		err := fmt.Errorf("%w: %q", model.ErrInvalidStatus, status)
		v.notifier.Notify(model.NoticeError, "Status update failed", err.Error())
		return err
	}
	v.patch(orderID, func(o *model.OrderView) { o.Status = status })

	t, err := v.orders.SetStatus(ctx, orderID, status)
	if err != nil {
		v.notifier.Notify(model.NoticeError, "Status update failed", fmt.Sprintf("order %s: %v", orderID, err))
		return err
	}
	v.patch(orderID, func(o *model.OrderView) {
		if t.ShippedAt != nil {
			o.ShippedAt = t.ShippedAt
		}
		if t.DeliveredAt != nil {
			o.DeliveredAt = t.DeliveredAt
		}
	})
	v.notifier.Notify(model.NoticeSuccess, "Status updated", fmt.Sprintf("order %s is now %s", orderID, status))
	return nil
}

// SetDeliveryPartner 先更新本地清單再寫入，寫入失敗不還原
// 物流商名稱由物流商清單查出，查不到時留空等下一次查詢補上
func (v *AdminView) SetDeliveryPartner(ctx context.Context, orderID string, partnerID *string) error {
	var partner *model.DeliveryPartner
	if partnerID != nil && *partnerID != "" {
		partner = v.lookupPartner(ctx, *partnerID)
	}
	v.patch(orderID, func(o *model.OrderView) {
		o.DeliveryPartnerID = partnerID
		o.DeliveryPartner = partner
		o.DeliveryPartnerName = ""
		if partner != nil {
			o.DeliveryPartnerName = partner.Name
		}
	})

	if err := v.orders.SetDeliveryPartner(ctx, orderID, partnerID); err != nil {
		v.notifier.Notify(model.NoticeError, "Delivery partner update failed", fmt.Sprintf("order %s: %v", orderID, err))
		return err
	}
	v.notifier.Notify(model.NoticeSuccess, "Delivery partner updated", fmt.Sprintf("order %s", orderID))
	return nil
}

func (v *AdminView) SetTrackingNumber(ctx context.Context, orderID string, value string) error {
	if err := v.orders.SetTrackingNumber(ctx, orderID, value); err != nil {
		v.notifier.Notify(model.NoticeError, "Tracking number update failed", fmt.Sprintf("order %s: %v", orderID, err))
		return err
	}
	v.notifier.Notify(model.NoticeSuccess, "Tracking number updated", fmt.Sprintf("order %s", orderID))
	return nil
}

func (v *AdminView) SetNotes(ctx context.Context, orderID string, notes string) error {
	if err := v.orders.SetNotes(ctx, orderID, notes); err != nil {
		v.notifier.Notify(model.NoticeError, "Notes update failed", fmt.Sprintf("order %s: %v", orderID, err))
		return err
	}
	v.notifier.Notify(model.NoticeSuccess, "Notes updated", fmt.Sprintf("order %s", orderID))
	return nil
}

// RunBulk 對目前選取的訂單執行批次操作
// 不論結果選取都會清空，至少一筆成功時重新查詢
func (v *AdminView) RunBulk(ctx context.Context, op model.Operation) (service.BulkResult, error) {
	ids := v.Selected()
	if len(ids) == 0 {
		v.notifier.Notify(model.NoticeWarning, "Nothing selected", "select at least one order")
		return service.BulkResult{}, ErrEmptySelection
	}

	result := v.bulk.Apply(ctx, ids, op)
	v.ClearSelection()

	if result.Succeeded > 0 {
		if err := v.Refresh(ctx); err != nil {
			v.logger.Warn().Err(err).Msg("refresh after bulk operation failed")
		}
	}

	switch {
	case result.BatchErr != nil:
		v.notifier.Notify(model.NoticeError, "Bulk operation failed", result.Summary())
	case len(result.Failed) > 0 && result.Succeeded > 0:
		v.notifier.Notify(model.NoticeWarning, "Bulk operation partially failed", result.Summary())
	case len(result.Failed) > 0:
		v.notifier.Notify(model.NoticeError, "Bulk operation failed", result.Summary())
	default:
		v.notifier.Notify(model.NoticeSuccess, "Bulk operation completed", result.Summary())
	}
	return result, nil
}

func (v *AdminView) lookupPartner(ctx context.Context, partnerID string) *model.DeliveryPartner {
	partners, err := v.orders.ListDeliveryPartners(ctx)
	if err != nil {
		v.logger.Warn().Err(err).Str("partner_id", partnerID).Msg("load delivery partners failed")
		return nil
	}
	for _, p := range partners {
		if p.ID == partnerID {
			p := p
			return &p
		}
	}
	return nil
}

func (v *AdminView) patch(orderID string, fn func(o *model.OrderView)) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for i := range v.list {
		if v.list[i].ID == orderID {
			fn(&v.list[i])
			return
		}
	}
}

func (v *AdminView) currentWatcher() Watcher {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.watcher
}

func cloneViews(views []model.OrderView) []model.OrderView {
	out := make([]model.OrderView, 0, len(views))
	for _, o := range views {
		out = append(out, o.Clone())
	}
	return out
}
