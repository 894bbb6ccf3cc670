package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/RoyceAzure/lab/orderadmin/internal/domain/model"
	"github.com/RoyceAzure/lab/orderadmin/internal/infra/repository/db"
	"github.com/RoyceAzure/lab/orderadmin/internal/metrics"
	"github.com/RoyceAzure/lab/orderadmin/internal/tracing"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// DocumentRenderer 文件渲染服務
type DocumentRenderer interface {
	Render(ctx context.Context, kind model.DocumentKind, orderID string) (model.Document, error)
}

// DocumentSink 接收渲染好的文件 (列印佇列)
type DocumentSink interface {
	Deliver(ctx context.Context, doc model.Document) error
}

// StatusSetter 單筆狀態轉換，批次狀態變更逐筆呼叫
type StatusSetter interface {
	SetStatus(ctx context.Context, orderID string, status model.OrderStatus) (Transition, error)
}

type ItemFailure struct {
	ID  string
	Err error
}

// BulkResult 批次操作結果
// BatchErr 不為 nil 時代表整批失敗 (刪除明細失敗)，Failed 為空
type BulkResult struct {
	Operation    model.OperationType
	Total        int
	Succeeded    int
	SucceededIDs []string
	Failed       []ItemFailure
	BatchErr     error
}

func (r BulkResult) HasFailures() bool {
	return r.BatchErr != nil || len(r.Failed) > 0
}

func (r BulkResult) Summary() string {
	if r.BatchErr != nil {
		return fmt.Sprintf("%s failed for all %d orders: %v", r.Operation, r.Total, r.BatchErr)
	}
	if len(r.Failed) == 0 {
		return fmt.Sprintf("%s succeeded for %d of %d orders", r.Operation, r.Succeeded, r.Total)
	}
	ids := make([]string, 0, len(r.Failed))
	for _, f := range r.Failed {
		ids = append(ids, f.ID)
	}
	return fmt.Sprintf("%s succeeded for %d of %d orders, failed: %s", r.Operation, r.Succeeded, r.Total, strings.Join(ids, ", "))
}

type BulkCoordinator struct {
	orders   StatusSetter
	repo     db.IOrderRepository
	renderer DocumentRenderer
	sink     DocumentSink
	workers  int
	logger   *zerolog.Logger
	metrics  *metrics.Metrics
}

func NewBulkCoordinator(orders StatusSetter, repo db.IOrderRepository, renderer DocumentRenderer, sink DocumentSink, workers int, logger *zerolog.Logger, m *metrics.Metrics) *BulkCoordinator {
	if orders == nil || repo == nil {
		panic("bulk coordinator dependency is nil")
	}
	if workers < 1 {
		workers = 1
	}
	return &BulkCoordinator{
		orders:   orders,
		repo:     repo,
		renderer: renderer,
		sink:     sink,
		workers:  workers,
		logger:   nopIfNil(logger),
		metrics:  m,
	}
}

// Apply 對選取的訂單執行批次操作，重複的 id 只處理一次
// 狀態變更與產生文件逐筆執行，單筆失敗不影響其他筆
func (c *BulkCoordinator) Apply(ctx context.Context, ids []string, op model.Operation) BulkResult {
	ctx, span := tracing.Tracer().Start(ctx, "BulkCoordinator.Apply")
	defer span.End()

	ids = dedupe(ids)
	result := BulkResult{Total: len(ids)}
	if op == nil {
		result.BatchErr = model.ErrUnknownOperation
		return result
	}
	result.Operation = op.Type()
	span.SetAttributes(attribute.String("bulk.operation", string(op.Type())), attribute.Int("bulk.total", len(ids)))

	if len(ids) == 0 {
		return result
	}

	switch o := op.(type) {
	case model.StatusChange:
		c.collect(&result, ids, c.fanOut(ctx, ids, func(ctx context.Context, id string) error {
			_, err := c.orders.SetStatus(ctx, id, o.Status)
			return err
		}))
	case model.Delete:
		c.delete(ctx, &result, ids)
	case model.GenerateDocument:
		c.collect(&result, ids, c.fanOut(ctx, ids, func(ctx context.Context, id string) error {
			return c.generate(ctx, o.Kind, id)
		}))
	default:
		result.BatchErr = fmt.Errorf("%w: %T", model.ErrUnknownOperation, op)
	}

	if result.BatchErr != nil {
		span.RecordError(result.BatchErr)
	}
	c.metrics.ObserveBulk(string(result.Operation), result.Succeeded, len(result.Failed), result.BatchErr)
	c.logger.Info().
		Str("operation", string(result.Operation)).
		Int("total", result.Total).
		Int("succeeded", result.Succeeded).
		Int("failed", len(result.Failed)).
		AnErr("batch_err", result.BatchErr).
		Msg("bulk operation finished")
	return result
}

// fanOut 最多 workers 個同時執行，errs 依選取順序對應
// 不使用 errgroup.WithContext，單筆失敗不取消其他筆
func (c *BulkCoordinator) fanOut(ctx context.Context, ids []string, fn func(ctx context.Context, id string) error) []error {
	errs := make([]error, len(ids))
	var g errgroup.Group
	g.SetLimit(c.workers)
	for i, id := range ids {
		g.Go(func() error {
			errs[i] = fn(ctx, id)
			return nil
		})
	}
	g.Wait()
	return errs
}

func (c *BulkCoordinator) collect(result *BulkResult, ids []string, errs []error) {
	for i, id := range ids {
		if errs[i] != nil {
			result.Failed = append(result.Failed, ItemFailure{ID: id, Err: errs[i]})
			continue
		}
		result.Succeeded++
		result.SucceededIDs = append(result.SucceededIDs, id)
	}
}

// delete 先刪明細再刪訂單，明細刪除失敗時不會刪除任何訂單
func (c *BulkCoordinator) delete(ctx context.Context, result *BulkResult, ids []string) {
	if err := c.repo.DeleteOrderItemsByOrderIDs(ctx, ids); err != nil {
		result.BatchErr = fmt.Errorf("%w: %w", ErrLineItemDelete, err)
		return
	}

	deleted, err := c.repo.DeleteOrdersByIDs(ctx, ids)
	if err != nil {
		result.BatchErr = fmt.Errorf("%w: %w", ErrOrderDelete, err)
		return
	}

	gone := make(map[string]struct{}, len(deleted))
	for _, id := range deleted {
		gone[id] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := gone[id]; ok {
			result.Succeeded++
			result.SucceededIDs = append(result.SucceededIDs, id)
			continue
		}
		result.Failed = append(result.Failed, ItemFailure{ID: id, Err: fmt.Errorf("%w: %s", ErrOrderNotFound, id)})
	}
}

func (c *BulkCoordinator) generate(ctx context.Context, kind model.DocumentKind, id string) error {
	if c.renderer == nil {
		return fmt.Errorf("%w: no renderer configured", ErrRender)
	}
	doc, err := c.renderer.Render(ctx, kind, id)
	if err != nil {
		return err
	}
	if doc.HTML == "" {
		return fmt.Errorf("%w: order %s", ErrEmptyDocument, id)
	}
	if c.sink == nil {
		return nil
	}
	return c.sink.Deliver(ctx, doc)
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
