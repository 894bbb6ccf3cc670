package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/RoyceAzure/lab/orderadmin/internal/domain/model"
	"github.com/RoyceAzure/lab/orderadmin/internal/infra/changefeed"
	"github.com/RoyceAzure/lab/orderadmin/internal/metrics"
	"github.com/rs/zerolog"
)

type BackGroundService interface {
	Start() error
	Stop(timeout time.Duration) error
}

// Refresher 重新執行目前的查詢
type Refresher interface {
	Refresh(ctx context.Context) error
}

var watchedTables = []model.Table{model.TableOrders, model.TableOrderItems}

// Reconciler 收到 orders / order_items 的變動就重新查詢
// 查詢進行中收到的事件會合併成一次後續查詢
type Reconciler struct {
	feed    changefeed.ChangeFeed
	target  Refresher
	logger  *zerolog.Logger
	metrics *metrics.Metrics

	// subMu 關閉舊訂閱到建立新訂閱整段互斥，同一時間只會有一個訂閱
	subMu sync.Mutex

	mu      sync.Mutex
	sub     changefeed.Subscription
	subDone chan struct{}
	// closing 設定後，該訂閱的 channel 關閉不算異常
	closing *atomic.Bool

	running  atomic.Bool
	stale    atomic.Bool
	pending  chan struct{}
	loopCtx  context.Context
	cancel   context.CancelFunc
	loopDone chan struct{}
}

func NewReconciler(feed changefeed.ChangeFeed, target Refresher, logger *zerolog.Logger, m *metrics.Metrics) *Reconciler {
	if feed == nil || target == nil {
		panic("reconciler dependency is nil")
	}
	return &Reconciler{
		feed:    feed,
		target:  target,
		logger:  nopIfNil(logger),
		metrics: m,
	}
}

func (r *Reconciler) Start() error {
	if !r.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(context.Background())
	r.mu.Lock()
	r.loopCtx = ctx
	r.cancel = cancel
	r.pending = make(chan struct{}, 1)
	r.loopDone = make(chan struct{})
	r.mu.Unlock()

	r.subMu.Lock()
	err := r.subscribe(ctx)
	r.subMu.Unlock()
	if err != nil {
		cancel()
		r.running.Store(false)
		return err
	}

	go r.loop(ctx, r.pending, r.loopDone)
	r.logger.Info().Msg("reconciler started")
	return nil
}

// Stop 關閉訂閱並等待進行中的查詢結束
func (r *Reconciler) Stop(timeout time.Duration) error {
	if !r.running.CompareAndSwap(true, false) {
		return ErrNotRunning
	}

	r.subMu.Lock()
	r.mu.Lock()
	r.closeSubLocked()
	cancel, done := r.cancel, r.loopDone
	r.mu.Unlock()
	r.subMu.Unlock()

	cancel()
	select {
	case <-done:
	case <-time.After(timeout):
		r.logger.Warn().Dur("timeout", timeout).Msg("reconciler stop timed out")
		return context.DeadlineExceeded
	}
	r.logger.Info().Msg("reconciler stopped")
	return nil
}

// Resubscribe 關閉舊訂閱並建立新的，篩選條件改變或 feed 中斷後呼叫
func (r *Reconciler) Resubscribe(ctx context.Context) error {
	r.subMu.Lock()
	defer r.subMu.Unlock()

	if !r.running.Load() {
		return ErrNotRunning
	}
	r.mu.Lock()
	r.closeSubLocked()
	loopCtx := r.loopCtx
	r.mu.Unlock()

	return r.subscribe(loopCtx)
}

// Stale 訂閱中斷後為 true，直到重新訂閱成功
func (r *Reconciler) Stale() bool {
	return r.stale.Load()
}

func (r *Reconciler) Running() bool {
	return r.running.Load()
}

// subscribe 呼叫端需持有 r.subMu
// 訂閱期間 Stop 已經把 running 設為 false 時，新訂閱直接關閉
func (r *Reconciler) subscribe(ctx context.Context) error {
	sub, err := r.feed.Subscribe(ctx, watchedTables...)
	if err != nil {
		r.markStale(true)
		r.logger.Error().Err(err).Msg("change feed subscribe failed")
		return err
	}
	if !r.running.Load() {
		if err := sub.Close(); err != nil {
			r.logger.Warn().Err(err).Msg("close change feed subscription failed")
		}
		return ErrNotRunning
	}

	closing := &atomic.Bool{}
	done := make(chan struct{})
	r.mu.Lock()
	r.sub, r.subDone, r.closing = sub, done, closing
	r.mu.Unlock()
	r.markStale(false)

	go r.forward(sub, closing, done)
	return nil
}

// closeSubLocked 呼叫端需持有 r.mu
func (r *Reconciler) closeSubLocked() {
	if r.sub == nil {
		return
	}
	r.closing.Store(true)
	if err := r.sub.Close(); err != nil {
		r.logger.Warn().Err(err).Msg("close change feed subscription failed")
	}
	<-r.subDone
	r.sub, r.subDone, r.closing = nil, nil, nil
}

// forward 把事件轉成重新查詢的訊號
func (r *Reconciler) forward(sub changefeed.Subscription, closing *atomic.Bool, done chan struct{}) {
	defer close(done)
	for range sub.Events() {
		r.signal()
	}
	if closing.Load() || !r.running.Load() {
		return
	}
	r.markStale(true)
	r.logger.Error().Msg("change feed closed unexpectedly, order list may be stale until refresh")
}

func (r *Reconciler) signal() {
	select {
	case r.pending <- struct{}{}:
	default:
	}
}

func (r *Reconciler) loop(ctx context.Context, pending <-chan struct{}, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		case <-pending:
			err := r.target.Refresh(ctx)
			r.metrics.ObserveReconcile(err)
			if err != nil && ctx.Err() == nil {
				r.logger.Error().Err(err).Msg("reconcile re-query failed")
			}
		}
	}
}

func (r *Reconciler) markStale(stale bool) {
	r.stale.Store(stale)
	r.metrics.SetFeedStale(stale)
}
