package changefeed

import (
	"context"
	"sync"

	"github.com/RoyceAzure/lab/orderadmin/internal/domain/model"
	"github.com/rs/zerolog/log"
)

const localBufferSize = 64

// LocalBus 單機部署用的程序內變動通知
// 訂閱者處理不及時會丟棄事件，事件只是重新查詢的觸發，不帶資料
type LocalBus struct {
	mu     sync.RWMutex
	subs   map[*localSubscription]struct{}
	closed bool
}

func NewLocalBus() *LocalBus {
	return &LocalBus{subs: make(map[*localSubscription]struct{})}
}

type localSubscription struct {
	bus    *LocalBus
	tables map[model.Table]struct{}
	ch     chan model.ChangeEvent
	done   chan struct{}
	once   sync.Once
}

func (s *localSubscription) Events() <-chan model.ChangeEvent {
	return s.ch
}

func (s *localSubscription) Close() error {
	s.bus.remove(s)
	return nil
}

func (b *LocalBus) Subscribe(ctx context.Context, tables ...model.Table) (Subscription, error) {
	if len(tables) == 0 {
		return nil, ErrNoTables
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrFeedClosed
	}

	sub := &localSubscription{
		bus:    b,
		tables: tableSet(tables),
		ch:     make(chan model.ChangeEvent, localBufferSize),
		done:   make(chan struct{}),
	}
	b.subs[sub] = struct{}{}

	go func() {
		select {
		case <-ctx.Done():
			b.remove(sub)
		case <-sub.done:
		}
	}()
	return sub, nil
}

func (b *LocalBus) Publish(ctx context.Context, events ...model.ChangeEvent) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrFeedClosed
	}

	for _, evt := range events {
		for sub := range b.subs {
			if _, ok := sub.tables[evt.Table]; !ok {
				continue
			}
			select {
			case sub.ch <- evt:
			default:
				log.Warn().Str("table", string(evt.Table)).Msg("local change feed subscriber is full, event dropped")
			}
		}
	}
	return nil
}

// Close 關閉所有訂閱
func (b *LocalBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for sub := range b.subs {
		delete(b.subs, sub)
		sub.end()
	}
	return nil
}

func (b *LocalBus) remove(sub *localSubscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[sub]; !ok {
		return
	}
	delete(b.subs, sub)
	sub.end()
}

func (s *localSubscription) end() {
	s.once.Do(func() {
		close(s.ch)
		close(s.done)
	})
}
