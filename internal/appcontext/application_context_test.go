package appcontext

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/RoyceAzure/lab/orderadmin/internal/config"
	"github.com/RoyceAzure/lab/orderadmin/internal/domain/model"
	"github.com/stretchr/testify/require"
)

func memoryConfig() *config.Config {
	return &config.Config{
		ServiceName:      "order-admin-test",
		ServerPort:       "0",
		OrderStore:       config.OrderStoreMemory,
		MemorySeedOrders: 5,
		PartnerCache:     config.PartnerCacheNone,
		ChangeFeed:       config.ChangeFeedLocal,
		BulkWorkers:      2,
		LogLevel:         "error",
	}
}

func TestNewApplicationContext_Memory(t *testing.T) {
	app, err := NewApplicationContext(memoryConfig())
	require.NoError(t, err)
	defer func() {
		require.NoError(t, app.Shutdown(context.Background()))
	}()

	require.Len(t, app.AdminView.Orders(), 5)
	require.True(t, app.Reconciler.Running())
	require.False(t, app.Reconciler.Stale())
}

// 透過另一條寫入路徑新增訂單，reconciler 應重新查詢
func TestNewApplicationContext_ReconcilesWrites(t *testing.T) {
	app, err := NewApplicationContext(memoryConfig())
	require.NoError(t, err)
	defer app.Shutdown(context.Background())

	order := &model.Order{
		OrderNumber:   "EXT-1",
		Status:        model.OrderStatusPending,
		PaymentMethod: "cod",
		Address:       &model.Address{FullName: "External", Phone: "1"},
	}
	require.NoError(t, app.OrderRepo.CreateOrder(context.Background(), order))

	require.Eventually(t, func() bool {
		return len(app.AdminView.Orders()) == 6
	}, 2*time.Second, 10*time.Millisecond)
}

func TestApplicationContext_MetricsHandler(t *testing.T) {
	app, err := NewApplicationContext(memoryConfig())
	require.NoError(t, err)
	defer app.Shutdown(context.Background())

	rec := httptest.NewRecorder()
	app.MetricsHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "order_admin_order_queries_total")
}
