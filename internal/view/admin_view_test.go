package view

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/RoyceAzure/lab/orderadmin/internal/domain/model"
	"github.com/RoyceAzure/lab/orderadmin/internal/infra/changefeed"
	"github.com/RoyceAzure/lab/orderadmin/internal/infra/repository/db"
	"github.com/RoyceAzure/lab/orderadmin/internal/infra/repository/decorator"
	"github.com/RoyceAzure/lab/orderadmin/internal/infra/repository/memdb"
	"github.com/RoyceAzure/lab/orderadmin/internal/service"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

var errBoom = errors.New("boom")

type flakyRepo struct {
	db.IOrderRepository
	queryErr  error
	updateErr error
}

func (r *flakyRepo) QueryOrders(ctx context.Context, q model.StoreQuery) ([]model.Order, error) {
	if r.queryErr != nil {
		return nil, r.queryErr
	}
	return r.IOrderRepository.QueryOrders(ctx, q)
}

func (r *flakyRepo) UpdateOrderFields(ctx context.Context, id string, fields map[string]any) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	return r.IOrderRepository.UpdateOrderFields(ctx, id, fields)
}

type fakeWatcher struct {
	resubscribes int
	stale        bool
}

func (w *fakeWatcher) Resubscribe(ctx context.Context) error {
	w.resubscribes++
	w.stale = false
	return nil
}

func (w *fakeWatcher) Stale() bool { return w.stale }

type AdminViewTestSuite struct {
	suite.Suite
	store   *memdb.Store
	repo    *flakyRepo
	board   *NoticeBoard
	prints  *PrintQueue
	view    *AdminView
	watcher *fakeWatcher
	ids     []string
}

func (suite *AdminViewTestSuite) SetupTest() {
	suite.store = memdb.New()
	suite.repo = &flakyRepo{IOrderRepository: suite.store}
	suite.board = NewNoticeBoard(0)
	suite.prints = NewPrintQueue(0)

	orders := service.NewOrderService(suite.repo, suite.store, nil)
	bulk := service.NewBulkCoordinator(orders, suite.repo, nil, suite.prints, 1, nil, nil)
	suite.view = NewAdminView(service.NewOrderQueryService(suite.repo, nil, nil), orders, bulk, suite.board, nil)
	suite.watcher = &fakeWatcher{}
	suite.view.AttachWatcher(suite.watcher)

	base := time.Now()
	suite.ids = nil
	for i, s := range []model.OrderStatus{model.OrderStatusPending, model.OrderStatusPending, model.OrderStatusShipped} {
		o := &model.Order{
			OrderNumber: "ORD-" + string(rune('A'+i)),
			Status:      s,
			Total:       decimal.NewFromInt(100),
			Address:     &model.Address{FullName: "Customer " + string(rune('A'+i)), Phone: "0900"},
			Items:       []model.OrderItem{{ProductName: "p", Price: decimal.NewFromInt(100), Quantity: 1}},
			BaseModel:   model.BaseModel{CreatedAt: base.Add(-time.Duration(i) * time.Minute)},
		}
		suite.Require().NoError(suite.store.CreateOrder(context.Background(), o))
		suite.ids = append(suite.ids, o.ID)
	}
	suite.Require().NoError(suite.view.Refresh(context.Background()))
}

func TestAdminViewTestSuite(t *testing.T) {
	suite.Run(t, new(AdminViewTestSuite))
}

func (suite *AdminViewTestSuite) TestRefreshLoadsNewestFirst() {
	orders := suite.view.Orders()
	suite.Require().Len(orders, 3)
	suite.Equal(suite.ids[0], orders[0].ID)
	suite.Equal(3, suite.view.Stats().Total)
	suite.Equal(2, suite.view.Stats().ByStatus[model.OrderStatusPending])
}

func (suite *AdminViewTestSuite) TestRefreshFailureShowsEmptyAndNotifies() {
	suite.repo.queryErr = errBoom
	err := suite.view.Refresh(context.Background())
	suite.ErrorIs(err, service.ErrStoreQuery)

	snap := suite.view.Snapshot()
	suite.Empty(snap.Orders)
	suite.ErrorIs(snap.LastError, errBoom)
	suite.Equal(model.NoticeError, suite.board.List()[0].Level)

	// 恢復後可以手動重新整理
	suite.repo.queryErr = nil
	suite.NoError(suite.view.ManualRefresh(context.Background()))
	suite.Len(suite.view.Orders(), 3)
	suite.Nil(suite.view.Snapshot().LastError)
}

func (suite *AdminViewTestSuite) TestSetFilterResubscribesOnlyOnScopeChange() {
	ctx := context.Background()
	f := model.OrderFilter{Status: model.OnlyStatus(model.OrderStatusPending)}
	suite.Require().NoError(suite.view.SetFilter(ctx, f))
	suite.Equal(1, suite.watcher.resubscribes)
	suite.Len(suite.view.Orders(), 2)

	f.Search = "customer b"
	suite.Require().NoError(suite.view.SetFilter(ctx, f))
	suite.Equal(1, suite.watcher.resubscribes)
	suite.Require().Len(suite.view.Orders(), 1)
	suite.Equal(suite.ids[1], suite.view.Orders()[0].ID)

	from := time.Now().AddDate(0, 0, -1)
	f.From = &from
	suite.Require().NoError(suite.view.SetFilter(ctx, f))
	suite.Equal(2, suite.watcher.resubscribes)
	suite.Equal("customer b", suite.view.Filter().Search)
}

func (suite *AdminViewTestSuite) TestManualRefreshResubscribesWhenStale() {
	suite.watcher.stale = true
	suite.Require().NoError(suite.view.ManualRefresh(context.Background()))
	suite.Equal(1, suite.watcher.resubscribes)
	suite.False(suite.view.Snapshot().Stale)
}

func (suite *AdminViewTestSuite) TestSelection() {
	suite.view.Select(suite.ids[2], suite.ids[0], suite.ids[2])
	suite.Equal([]string{suite.ids[2], suite.ids[0]}, suite.view.Selected())

	suite.view.Deselect(suite.ids[2])
	suite.Equal([]string{suite.ids[0]}, suite.view.Selected())

	suite.view.SelectAllVisible()
	suite.Equal([]string{suite.ids[0], suite.ids[1], suite.ids[2]}, suite.view.Selected())

	suite.view.ClearSelection()
	suite.Empty(suite.view.Selected())
}

func (suite *AdminViewTestSuite) TestSetStatusOptimisticPatch() {
	ctx := context.Background()
	suite.Require().NoError(suite.view.SetStatus(ctx, suite.ids[0], model.OrderStatusShipped))
	o := suite.view.Orders()[0]
	suite.Equal(model.OrderStatusShipped, o.Status)
	suite.NotNil(o.ShippedAt)
	suite.Equal(model.NoticeSuccess, suite.board.List()[0].Level)
}

func (suite *AdminViewTestSuite) TestSetStatusFailureKeepsPatchAndReports() {
	suite.repo.updateErr = errBoom
	err := suite.view.SetStatus(context.Background(), suite.ids[0], model.OrderStatusCancelled)
	suite.ErrorIs(err, errBoom)

	// 本地資料不還原，等下一次查詢修正
	suite.Equal(model.OrderStatusCancelled, suite.view.Orders()[0].Status)
	suite.Equal(model.NoticeError, suite.board.List()[0].Level)

	suite.repo.updateErr = nil
	suite.Require().NoError(suite.view.Refresh(context.Background()))
	suite.Equal(model.OrderStatusPending, suite.view.Orders()[0].Status)
}

func (suite *AdminViewTestSuite) TestSetDeliveryPartnerTrackingAndNotes() {
	ctx := context.Background()
	partner := &model.DeliveryPartner{Name: "Ecom Express"}
	suite.Require().NoError(suite.store.CreateDeliveryPartner(ctx, partner))

	suite.Require().NoError(suite.view.SetDeliveryPartner(ctx, suite.ids[1], &partner.ID))
	suite.Equal(partner.ID, *suite.view.Orders()[1].DeliveryPartnerID)
	suite.Require().NoError(suite.view.SetTrackingNumber(ctx, suite.ids[1], "TRK-9"))
	suite.Require().NoError(suite.view.SetNotes(ctx, suite.ids[1], "call first"))

	suite.Require().NoError(suite.view.Refresh(ctx))
	o := suite.view.Orders()[1]
	suite.Equal("Ecom Express", o.DeliveryPartnerName)
	suite.Equal("TRK-9", *o.TrackingNumber)
	suite.Equal("call first", *o.Notes)
}

func (suite *AdminViewTestSuite) TestSetDeliveryPartnerPatchShowsName() {
	ctx := context.Background()
	partner := &model.DeliveryPartner{Name: "Blue Dart"}
	suite.Require().NoError(suite.store.CreateDeliveryPartner(ctx, partner))

	// 寫入失敗時本地資料仍顯示新物流商名稱
	suite.repo.updateErr = errBoom
	suite.ErrorIs(suite.view.SetDeliveryPartner(ctx, suite.ids[0], &partner.ID), errBoom)
	o := suite.view.Orders()[0]
	suite.Equal(partner.ID, *o.DeliveryPartnerID)
	suite.Equal("Blue Dart", o.DeliveryPartnerName)
	suite.Require().NotNil(o.DeliveryPartner)
	suite.Equal("Blue Dart", o.DeliveryPartner.Name)

	suite.repo.updateErr = nil
	suite.Require().NoError(suite.view.SetDeliveryPartner(ctx, suite.ids[0], nil))
	o = suite.view.Orders()[0]
	suite.Nil(o.DeliveryPartnerID)
	suite.Empty(o.DeliveryPartnerName)

	unknown := "no-such-partner"
	suite.repo.updateErr = errBoom
	suite.Error(suite.view.SetDeliveryPartner(ctx, suite.ids[0], &unknown))
	suite.Empty(suite.view.Orders()[0].DeliveryPartnerName)
}

func (suite *AdminViewTestSuite) TestRunBulkClearsSelectionAndRefreshes() {
	ctx := context.Background()
	suite.view.Select(suite.ids[0], suite.ids[1], "missing")

	result, err := suite.view.RunBulk(ctx, model.StatusChange{Status: model.OrderStatusConfirmed})
	suite.Require().NoError(err)
	suite.Equal(2, result.Succeeded)
	suite.Require().Len(result.Failed, 1)
	suite.Equal("missing", result.Failed[0].ID)
	suite.Empty(suite.view.Selected())

	suite.Equal(2, suite.view.Stats().ByStatus[model.OrderStatusConfirmed])
	suite.Equal(model.NoticeWarning, suite.board.List()[0].Level)
}

func (suite *AdminViewTestSuite) TestRunBulkDelete() {
	ctx := context.Background()
	suite.view.Select(suite.ids[2])
	result, err := suite.view.RunBulk(ctx, model.Delete{})
	suite.Require().NoError(err)
	suite.Equal(1, result.Succeeded)
	suite.Len(suite.view.Orders(), 2)
	suite.Equal(model.NoticeSuccess, suite.board.List()[0].Level)
}

func (suite *AdminViewTestSuite) TestRunBulkWithoutSelection() {
	_, err := suite.view.RunBulk(context.Background(), model.Delete{})
	suite.ErrorIs(err, ErrEmptySelection)
	suite.Equal(model.NoticeWarning, suite.board.List()[0].Level)
}

func (suite *AdminViewTestSuite) TestRunBulkAllFailedSkipsRefresh() {
	suite.view.Select(suite.ids[0])
	suite.repo.updateErr = errBoom
	result, err := suite.view.RunBulk(context.Background(), model.StatusChange{Status: model.OrderStatusCancelled})
	suite.Require().NoError(err)
	suite.Zero(result.Succeeded)
	suite.Empty(suite.view.Selected())
	suite.Equal(model.NoticeError, suite.board.List()[0].Level)
}

// 外部寫入的新訂單不需要手動重新整理就會出現在畫面上
func TestAdminView_ReconcilesExternalInsert(t *testing.T) {
	store := memdb.New()
	bus := changefeed.NewLocalBus()
	defer bus.Close()
	// 另一個程序透過同一個 feed 寫入
	external := decorator.NewNotifyingOrderRepo(store, bus)

	orders := service.NewOrderService(store, store, nil)
	board := NewNoticeBoard(0)
	v := NewAdminView(
		service.NewOrderQueryService(store, nil, nil),
		orders,
		service.NewBulkCoordinator(orders, store, nil, nil, 1, nil, nil),
		board,
		nil,
	)
	r := service.NewReconciler(bus, v, nil, nil)
	v.AttachWatcher(r)
	require.NoError(t, r.Start())
	defer r.Stop(time.Second)
	require.NoError(t, v.Refresh(context.Background()))
	require.Empty(t, v.Orders())

	o := &model.Order{OrderNumber: "NEW-1", Address: &model.Address{FullName: "Late Buyer"}}
	require.NoError(t, external.CreateOrder(context.Background(), o))

	require.Eventually(t, func() bool {
		list := v.Orders()
		return len(list) == 1 && list[0].ID == o.ID
	}, 2*time.Second, 10*time.Millisecond)
}
