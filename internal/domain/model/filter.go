package model

import (
	"time"
)

// OrderFilter 後台訂單列表的查詢條件
// From/To 以日為單位，To 包含當天 23:59:59
type OrderFilter struct {
	Status StatusFilter
	From   *time.Time
	To     *time.Time
	Search string
}

func DefaultOrderFilter() OrderFilter {
	return OrderFilter{Status: AllStatuses()}
}

// StoreQuery 轉換成推送到資料庫的條件
func (f OrderFilter) StoreQuery() StoreQuery {
	var q StoreQuery
	if s, ok := f.Status.Status(); ok {
		q.Status = &s
	}
	if f.From != nil {
		start := StartOfDay(*f.From)
		q.CreatedFrom = &start
	}
	if f.To != nil {
		end := EndOfDay(*f.To)
		q.CreatedTo = &end
	}
	return q
}

// SameStoreScope reports whether both filters produce the same store query,
// i.e. only the local free-text search differs.
func (f OrderFilter) SameStoreScope(o OrderFilter) bool {
	return f.Status.Equal(o.Status) && sameDay(f.From, o.From) && sameDay(f.To, o.To)
}

func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

func sameDay(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return StartOfDay(*a).Equal(StartOfDay(*b))
}
