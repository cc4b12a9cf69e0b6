package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"blackboxbe/internal/api"
	"blackboxbe/internal/infrastructure/broker"
	"blackboxbe/internal/infrastructure/logger"
	"blackboxbe/internal/infrastructure/memstore"
	"blackboxbe/internal/infrastructure/postgres"
	"blackboxbe/internal/service/backoffice"
	"blackboxbe/pkg/config"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 1. Конфигурация и логгер
	cfg, err := config.LoadServer(".env")
	panicOnErr("load config", err)

	l, err := logger.NewZapLogger(cfg.Logger.Level)
	panicOnErr("create logger", err)
	defer l.Sync()

	// 2. Хранилище бэк-офиса: PostgreSQL или память
	var store backoffice.Store
	if cfg.Postgres.DSN != "" {
		pool, err := postgres.Connect(ctx, cfg.Postgres.DSN, cfg.Postgres.MaxConn)
		panicOnErr("connect to postgres", err)
		defer pool.Close()

		err = postgres.UpMigrations(cfg.Postgres.DSN)
		panicOnErr("up migrations", err)

		store = postgres.New(pool)
	} else {
		l.Warn("POSTGRES_DSN is empty, back office data is kept in memory")
		store = memstore.New()
	}

	// 3. Публикация зарегистрированных заказов
	var events backoffice.Publisher
	if len(cfg.Kafka.Brokers) > 0 {
		producer := broker.NewProducer(l, cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer producer.Close()
		events = producer
	}

	// 4. Сервис и HTTP-интерфейс
	s := backoffice.NewService(store, events, l)

	handler := api.NewHandler(s, l)
	mw := api.NewMiddleware(l)
	router := api.NewRouter(handler, mw)

	server := &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:     router,
		ReadTimeout: cfg.HTTP.ReadTimeout,
	}

	var wg sync.WaitGroup

	wg.Add(1)

	go func() {
		defer wg.Done()

		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Panicf("listen and serve: %s", err)
		}
	}()

	l.Info("service started", "port", cfg.HTTP.Port)

	wg.Add(1)

	go func() {
		defer wg.Done()

		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
		sig := <-ch

		l.Info("got OS signal", "signal", sig.String())

		shutdownCtx, stop := context.WithTimeout(ctx, cfg.HTTP.ShutdownTimeout)
		defer stop()

		if err := server.Shutdown(shutdownCtx); err != nil {
			l.Error("server shutdown", "error", err)
		}
	}()

	wg.Wait()
}

func panicOnErr(msg string, err error) {
	if err != nil {
		log.Panicf("%s: %s", msg, err)
	}
}
