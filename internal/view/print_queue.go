package view

import (
	"context"
	"errors"
	"sync"

	"github.com/RoyceAzure/lab/orderadmin/internal/domain/model"
	"github.com/google/uuid"
)

const defaultPrintQueueCapacity = 200

var ErrPrintJobNotFound = errors.New("print job not found")

// PrintJob 一份待列印的文件
type PrintJob struct {
	ID       string         `json:"id"`
	Document model.Document `json:"document"`
}

// PrintQueue 接收渲染好的文件，HTML 原封不動保存，超過容量丟棄最舊的
type PrintQueue struct {
	mu       sync.Mutex
	jobs     []PrintJob
	capacity int
}

func NewPrintQueue(capacity int) *PrintQueue {
	if capacity <= 0 {
		capacity = defaultPrintQueueCapacity
	}
	return &PrintQueue{capacity: capacity}
}

func (q *PrintQueue) Deliver(ctx context.Context, doc model.Document) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, PrintJob{ID: uuid.New().String(), Document: doc})
	if over := len(q.jobs) - q.capacity; over > 0 {
		q.jobs = append([]PrintJob(nil), q.jobs[over:]...)
	}
	return nil
}

// List 依加入順序
func (q *PrintQueue) List() []PrintJob {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]PrintJob{}, q.jobs...)
}

func (q *PrintQueue) Get(id string) (PrintJob, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, j := range q.jobs {
		if j.ID == id {
			return j, nil
		}
	}
	return PrintJob{}, ErrPrintJobNotFound
}

// Remove 列印完成後移除
func (q *PrintQueue) Remove(id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, j := range q.jobs {
		if j.ID == id {
			q.jobs = append(q.jobs[:i], q.jobs[i+1:]...)
			return nil
		}
	}
	return ErrPrintJobNotFound
}
