package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/RoyceAzure/lab/orderadmin/internal/api"
	"github.com/RoyceAzure/lab/orderadmin/internal/api/handler"
	"github.com/RoyceAzure/lab/orderadmin/internal/api/middleware"
	"github.com/RoyceAzure/lab/orderadmin/internal/api/router"
	"github.com/RoyceAzure/lab/orderadmin/internal/appcontext"
	"github.com/RoyceAzure/lab/orderadmin/internal/config"
	"github.com/RoyceAzure/lab/orderadmin/internal/tracing"
	"github.com/rs/zerolog/log"
)

func main() {
	app, err := appcontext.NewApplicationContext(config.GetConfig())
	if err != nil {
		log.Fatal().Err(err).Msg("init application failed")
		return
	}

	// 初始化 handler
	orderHandler := handler.NewOrderHandler(app.AdminView, app.OrderService, app.PrintQueue, app.NoticeBoard)

	server := api.NewServer(orderHandler)

	var bulkLimiter *middleware.TokenBucket
	if app.Cf.BulkRatePS > 0 {
		bulkLimiter = middleware.NewTokenBucket(app.Cf.BulkRatePS, app.Cf.BulkRateBurst)
	}

	// 設置路由
	r := router.SetupRouter(server, app.MetricsHandler(), bulkLimiter, app.Logger)

	// 設定服務器參數
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", app.Cf.ServerPort),
		Handler:           tracing.WrapHTTPHandler(r),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 設置訊號監聽
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	shutDownCompleted := make(chan struct{}, 1)
	// 監聽退出訊號
	go func() {
		<-sigChan
		app.Logger.Info().Msg("Received shutdown signal")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.Logger.Error().Err(err).Msg("server shutdown error")
		}

		if err := app.Shutdown(shutdownCtx); err != nil {
			app.Logger.Error().Err(err).Msg("application shutdown error")
		}

		shutDownCompleted <- struct{}{}
	}()

	// 啟動服務
	app.Logger.Info().Str("addr", srv.Addr).Msg("Server starting")
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		app.Logger.Fatal().Err(err).Msg("server stopped unexpectedly")
	}
	<-shutDownCompleted
	app.Logger.Info().Msg("closed completed")
}
