package appcontext

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/RoyceAzure/lab/orderadmin/internal/config"
	"github.com/RoyceAzure/lab/orderadmin/internal/infra/changefeed"
	"github.com/RoyceAzure/lab/orderadmin/internal/infra/renderer"
	"github.com/RoyceAzure/lab/orderadmin/internal/infra/repository/db"
	"github.com/RoyceAzure/lab/orderadmin/internal/infra/repository/decorator"
	"github.com/RoyceAzure/lab/orderadmin/internal/infra/repository/memdb"
	"github.com/RoyceAzure/lab/orderadmin/internal/infra/repository/redis_repo"
	"github.com/RoyceAzure/lab/orderadmin/internal/logger"
	"github.com/RoyceAzure/lab/orderadmin/internal/metrics"
	"github.com/RoyceAzure/lab/orderadmin/internal/service"
	"github.com/RoyceAzure/lab/orderadmin/internal/tracing"
	"github.com/RoyceAzure/lab/orderadmin/internal/view"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

const reconcilerStopTimeout = 10 * time.Second

type ApplicationContext struct {
	Cf             *config.Config
	Logger         *zerolog.Logger
	Registry       *prometheus.Registry
	Metrics        *metrics.Metrics
	DbConn         *gorm.DB
	RedisClient    *redis.Client
	MemStore       *memdb.Store
	OrderRepo      db.IOrderRepository
	PartnerRepo    db.IDeliveryPartnerRepository
	Feed           changefeed.ChangeFeed
	Publisher      changefeed.ChangePublisher
	Renderer       service.DocumentRenderer
	QueryService   service.IOrderQueryService
	OrderService   service.IOrderService
	BulkService    *service.BulkCoordinator
	PrintQueue     *view.PrintQueue
	NoticeBoard    *view.NoticeBoard
	AdminView      *view.AdminView
	Reconciler     *service.Reconciler
	shutdownTracer func(context.Context) error
	closers        []func() error
}

func NewApplicationContext(cf *config.Config) (*ApplicationContext, error) {
	app := ApplicationContext{
		Cf: cf,
	}
	if err := app.Init(); err != nil {
		// 已建立的連線要釋放
		if shutdownErr := app.Shutdown(context.Background()); shutdownErr != nil {
			app.Logger.Warn().Err(shutdownErr).Msg("release resources after failed init")
		}
		return nil, err
	}
	return &app, nil
}

func (app *ApplicationContext) Init() error {
	app.setUpLogger()

	steps := []struct {
		name string
		fn   func() error
	}{
		{"tracer", app.setUpTracer},
		{"metrics", app.setUpMetrics},
		{"order store", app.setUpStore},
		{"partner cache", app.setUpPartnerCache},
		{"change feed", app.setUpChangeFeed},
		{"renderer", app.setUpRenderer},
		{"services", app.setUpServices},
		{"admin view", app.setUpAdminView},
		{"reconciler", app.setUpReconciler},
	}
	for _, step := range steps {
		app.Logger.Info().Msgf("Start setup %s", step.name)
		if err := step.fn(); err != nil {
			return fmt.Errorf("setup %s: %w", step.name, err)
		}
		app.Logger.Info().Msgf("Finish setup %s", step.name)
	}

	// 啟動時先載入一次列表，失敗不阻擋啟動，操作人員可以手動重新整理
	if err := app.AdminView.Refresh(context.Background()); err != nil {
		app.Logger.Warn().Err(err).Msg("initial order list load failed")
	}
	return nil
}

func (app *ApplicationContext) setUpLogger() {
	app.Logger = logger.New(app.Cf.LogLevel, app.Cf.LogPretty)
}

func (app *ApplicationContext) setUpTracer() error {
	shutdown, err := tracing.InitTracer(context.Background(), tracing.Config{
		ServiceName: app.Cf.ServiceName,
		ExporterURL: app.Cf.OtelExporterURL,
		SampleRate:  app.Cf.OtelSampleRate,
	})
	if err != nil {
		return err
	}
	app.shutdownTracer = shutdown
	return nil
}

func (app *ApplicationContext) setUpMetrics() error {
	app.Registry = prometheus.NewRegistry()
	app.Registry.MustRegister(
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	app.Metrics = metrics.New(app.Registry)
	return nil
}

func (app *ApplicationContext) setUpStore() error {
	switch app.Cf.OrderStore {
	case config.OrderStoreMemory:
		store := memdb.New()
		if app.Cf.MemorySeedOrders > 0 {
			if err := store.Seed(context.Background(), app.Cf.MemorySeedOrders); err != nil {
				return err
			}
		}
		app.MemStore = store
		app.OrderRepo = store
		app.PartnerRepo = store
		return nil
	default:
		conn, err := db.GetDbConn(app.Cf.DbName, app.Cf.DbHost, app.Cf.DbPort, app.Cf.DbUser, app.Cf.DbPas)
		if err != nil {
			return err
		}
		app.DbConn = conn
		app.closers = append(app.closers, func() error { return db.CloseDbConn(conn) })

		dao := db.NewDbDao(conn)
		if err := dao.InitMigrate(); err != nil {
			return err
		}
		app.OrderRepo = db.NewOrderRepo(dao)
		app.PartnerRepo = db.NewPartnerRepo(dao)
		return nil
	}
}

func (app *ApplicationContext) setUpPartnerCache() error {
	if app.Cf.PartnerCache != config.PartnerCacheRedis {
		return nil
	}
	client, err := redis_repo.NewRedisClient(context.Background(), app.Cf.RedisAddr, app.Cf.RedisPassword, app.Cf.RedisDB)
	if err != nil {
		return err
	}
	app.RedisClient = client
	app.closers = append(app.closers, client.Close)
	app.PartnerRepo = decorator.NewCacheAsidePartnerRepo(app.PartnerRepo, redis_repo.NewPartnerRedisRepo(client, app.Cf.PartnerCacheTTL))
	return nil
}

// setUpChangeFeed 寫入一律經過 NotifyingOrderRepo 發布事件
func (app *ApplicationContext) setUpChangeFeed() error {
	switch app.Cf.ChangeFeed {
	case config.ChangeFeedKafka:
		app.Feed = changefeed.NewKafkaFeed(changefeed.KafkaConfig{
			Brokers:     app.Cf.KafkaBrokers,
			Topic:       app.Cf.KafkaChangeTopic,
			GroupPrefix: app.Cf.KafkaConsumerGroup,
		})
		publisher := changefeed.NewKafkaPublisher(app.Cf.KafkaBrokers, app.Cf.KafkaChangeTopic)
		app.Publisher = publisher
		app.closers = append(app.closers, publisher.Close)
	default:
		bus := changefeed.NewLocalBus()
		app.Feed = bus
		app.Publisher = bus
		app.closers = append(app.closers, bus.Close)
	}
	app.OrderRepo = decorator.NewNotifyingOrderRepo(app.OrderRepo, app.Publisher)
	return nil
}

func (app *ApplicationContext) setUpRenderer() error {
	if app.Cf.RendererURL == "" {
		app.Logger.Warn().Msg("RENDERER_URL is empty, document generation will fail per order")
		return nil
	}
	app.Renderer = renderer.NewClient(app.Cf.RendererURL, app.Cf.RendererTimeout)
	return nil
}

func (app *ApplicationContext) setUpServices() error {
	app.QueryService = service.NewOrderQueryService(app.OrderRepo, app.Logger, app.Metrics)

	opts := []service.OrderServiceOption{service.WithOrderMetrics(app.Metrics)}
	if app.Cf.StrictTransitions {
		opts = append(opts, service.WithTransitionPolicy(service.DefaultTransitionTable()))
	}
	orderService := service.NewOrderService(app.OrderRepo, app.PartnerRepo, app.Logger, opts...)
	app.OrderService = orderService

	app.PrintQueue = view.NewPrintQueue(0)
	app.BulkService = service.NewBulkCoordinator(orderService, app.OrderRepo, app.Renderer, app.PrintQueue, app.Cf.BulkWorkers, app.Logger, app.Metrics)
	return nil
}

func (app *ApplicationContext) setUpAdminView() error {
	app.NoticeBoard = view.NewNoticeBoard(0)
	app.AdminView = view.NewAdminView(app.QueryService, app.OrderService, app.BulkService, app.NoticeBoard, app.Logger)
	return nil
}

func (app *ApplicationContext) setUpReconciler() error {
	app.Reconciler = service.NewReconciler(app.Feed, app.AdminView, app.Logger, app.Metrics)
	if err := app.Reconciler.Start(); err != nil {
		return err
	}
	app.AdminView.AttachWatcher(app.Reconciler)
	return nil
}

// MetricsHandler /metrics 使用自己的 registry
func (app *ApplicationContext) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(app.Registry, promhttp.HandlerOpts{})
}

// Shutdown 依建立的相反順序釋放資源
func (app *ApplicationContext) Shutdown(ctx context.Context) error {
	var errs []error
	if app.Reconciler != nil && app.Reconciler.Running() {
		if err := app.Reconciler.Stop(reconcilerStopTimeout); err != nil {
			errs = append(errs, fmt.Errorf("stop reconciler: %w", err))
		}
	}
	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	app.closers = nil
	if app.shutdownTracer != nil {
		if err := app.shutdownTracer(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown tracer: %w", err))
		}
	}
	return errors.Join(errs...)
}
