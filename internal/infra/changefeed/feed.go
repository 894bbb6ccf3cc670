package changefeed

import (
	"context"
	"errors"
	"fmt"

	"github.com/RoyceAzure/lab/orderadmin/internal/domain/model"
)

var (
	ErrFeedClosed = errors.New("change feed is closed")
	ErrNoTables   = errors.New("subscribe requires at least one table")
)

// ChangeFeed 訂閱資料表變動
type ChangeFeed interface {
	// Subscribe 只會收到指定資料表的事件，ctx 結束時訂閱自動關閉
	Subscribe(ctx context.Context, tables ...model.Table) (Subscription, error)
}

// Subscription Events 在訂閱結束或傳輸錯誤時關閉
type Subscription interface {
	Events() <-chan model.ChangeEvent
	Close() error
}

// ChangePublisher 資料變動後發布事件
type ChangePublisher interface {
	Publish(ctx context.Context, events ...model.ChangeEvent) error
}

// FeedError 傳輸層錯誤
type FeedError struct {
	Operation string
	Topic     string
	Err       error
}

func (e *FeedError) Error() string {
	return fmt.Sprintf("change feed %s on topic %s failed: %v", e.Operation, e.Topic, e.Err)
}

func (e *FeedError) Unwrap() error {
	return e.Err
}

func tableSet(tables []model.Table) map[model.Table]struct{} {
	set := make(map[model.Table]struct{}, len(tables))
	for _, t := range tables {
		set[t] = struct{}{}
	}
	return set
}
