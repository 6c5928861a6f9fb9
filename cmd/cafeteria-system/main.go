package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"cafeteria-system/internal/app/api"
	"cafeteria-system/internal/common/httpx"
	"cafeteria-system/internal/common/logger"
	"cafeteria-system/internal/config"
	"cafeteria-system/internal/connections/database"
	"cafeteria-system/internal/connections/rabbitmq"
	"cafeteria-system/internal/notify"
	"cafeteria-system/internal/order"
	"cafeteria-system/internal/repository"
	"cafeteria-system/internal/seed"
)

func main() {
	cfgPath := flag.String("config", "", "path to YAML config (default: probe config.yaml, deploy/config.example.yaml)")
	port := flag.Int("port", 0, "http port (overrides config)")
	seedDB := flag.Bool("seed", false, "seed the demo catalog when the database is empty")
	flag.Parse()

	lg := logger.New("bootstrap")
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	path := *cfgPath
	if path == "" {
		var err error
		if path, err = config.FindConfig(); err != nil {
			lg.Error("no config file found")
			os.Exit(2)
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		lg.WithError(err).Error("config load failed")
		os.Exit(2)
	}
	if *port != 0 {
		cfg.HTTP.Port = *port
	}

	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		lg.WithError(err).Error("database connect failed")
		os.Exit(1)
	}
	defer pool.Close()
	if err := database.Migrate(ctx, pool); err != nil {
		lg.WithError(err).Error("schema migration failed")
		os.Exit(1)
	}
	if *seedDB {
		if err := seed.Run(ctx, pool, logger.New("seed")); err != nil {
			lg.WithError(err).Error("seed failed")
			os.Exit(1)
		}
	}

	pubClient, err := rabbitmq.Dial(cfg.Rabbit)
	if err != nil {
		lg.WithError(err).Error("rabbitmq connect failed")
		os.Exit(1)
	}
	defer pubClient.Close()
	if err := pubClient.DeclareTopology(); err != nil {
		lg.WithError(err).Error("rabbitmq declare failed")
		os.Exit(1)
	}

	// Consuming and confirm-publishing share badly on one channel, so
	// the subscriber gets its own connection.
	subClient, err := rabbitmq.Dial(cfg.Rabbit)
	if err != nil {
		lg.WithError(err).Error("rabbitmq connect failed")
		os.Exit(1)
	}
	defer subClient.Close()

	hub := notify.NewHub()
	subscriber := notify.NewSubscriber(subClient, hub, logger.New("notify-subscriber"))
	go func() {
		if err := subscriber.Run(ctx, rabbitmq.EventsQueue); err != nil {
			lg.WithError(err).Error("event subscriber stopped")
		}
	}()

	bus := notify.NewPublisher(pubClient, logger.New("notify-publisher"))
	store := repository.NewStore(pool)
	orders := order.NewService(store, bus, logger.New("order-service"))
	handler := api.NewHandler(orders, store, hub, bus, pubClient.Ping, logger.New("http"))
	router := api.NewRouter(handler)

	srv := httpx.New(":"+strconv.Itoa(cfg.HTTP.Port), router)
	lg.WithField("port", cfg.HTTP.Port).Info("service started")
	if err := srv.Run(ctx); err != nil {
		lg.WithError(err).Error("server failed")
		os.Exit(1)
	}
	lg.Info("shutdown complete")
}
