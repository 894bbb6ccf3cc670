package view

import (
	"sync"
	"time"

	"github.com/RoyceAzure/lab/orderadmin/internal/domain/model"
)

const defaultNoticeCapacity = 50

// Notifier 把結果告訴操作人員
type Notifier interface {
	Notify(level model.NoticeLevel, title, message string)
}

// NoticeBoard 保留最近的通知，新的在前
type NoticeBoard struct {
	mu       sync.Mutex
	notices  []model.Notice
	capacity int
	now      func() time.Time
}

func NewNoticeBoard(capacity int) *NoticeBoard {
	if capacity <= 0 {
		capacity = defaultNoticeCapacity
	}
	return &NoticeBoard{capacity: capacity, now: time.Now}
}

func (b *NoticeBoard) Notify(level model.NoticeLevel, title, message string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := model.Notice{Level: level, Title: title, Message: message, At: b.now()}
	b.notices = append([]model.Notice{n}, b.notices...)
	if len(b.notices) > b.capacity {
		b.notices = b.notices[:b.capacity]
	}
}

func (b *NoticeBoard) List() []model.Notice {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]model.Notice{}, b.notices...)
}

func (b *NoticeBoard) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.notices = nil
}
