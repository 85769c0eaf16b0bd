package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"order-service/handlers"
	"order-service/internal/auth"
	"order-service/internal/consul"
	"order-service/internal/orders"
	"order-service/internal/partners"
	"order-service/internal/payment"
	"order-service/internal/products"
	"order-service/internal/stores/kafka"
	"order-service/internal/stores/postgres"
	"order-service/internal/users"
	"order-service/pkg/logkey"

	"github.com/joho/godotenv"
)

func main() {
	if err := run(); err != nil {
		slog.Error("startup failed", slog.String(logkey.ERROR, err.Error()))
		os.Exit(1)
	}
}

func run() error {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, relying on environment")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	db, err := postgres.OpenDB()
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	if err := postgres.RunMigrations(db, "migrations"); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	privatePEM, err := os.ReadFile(os.Getenv("JWT_PRIVATE_KEY_FILE"))
	if err != nil {
		return fmt.Errorf("reading private key: %w", err)
	}
	publicPEM, err := os.ReadFile(os.Getenv("JWT_PUBLIC_KEY_FILE"))
	if err != nil {
		return fmt.Errorf("reading public key: %w", err)
	}
	keys, err := auth.NewKeys(privatePEM, publicPEM)
	if err != nil {
		return fmt.Errorf("loading auth keys: %w", err)
	}

	gateway, err := payment.New(payment.Config{
		ServerKey:  os.Getenv("MIDTRANS_SERVER_KEY"),
		ClientKey:  os.Getenv("MIDTRANS_CLIENT_KEY"),
		Production: os.Getenv("MIDTRANS_ENV") == "production",
	})
	if err != nil {
		return fmt.Errorf("configuring payment gateway: %w", err)
	}

	productsConf, err := products.NewConf(db)
	if err != nil {
		return err
	}
	partnersConf, err := partners.NewConf(db)
	if err != nil {
		return err
	}
	usersConf, err := users.NewConf(db)
	if err != nil {
		return err
	}
	ordersConf, err := orders.NewConf(db, productsConf, gateway, partnersConf)
	if err != nil {
		return err
	}

	brokers := strings.Split(os.Getenv("KAFKA_BROKERS"), ",")
	kafkaConf, err := kafka.NewConf(brokers)
	if err != nil {
		return fmt.Errorf("connecting to kafka: %w", err)
	}
	defer kafkaConf.Close()

	port, err := consul.ServicePort()
	if err != nil {
		return err
	}
	consulClient, err := consul.NewClient()
	if err != nil {
		return err
	}
	host := os.Getenv("SERVICE_HOST")
	if host == "" {
		host = "localhost"
	}
	if err := consul.RegisterService(consulClient, "orders", host, port); err != nil {
		return fmt.Errorf("registering with consul: %w", err)
	}

	prefix := os.Getenv("SERVICE_ENDPOINT_PREFIX")
	if prefix == "" {
		prefix = "/orders"
	}

	api := handlers.API(prefix, keys, ordersConf, productsConf, usersConf, kafkaConf, gateway)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      api,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		slog.Info("server listening", slog.Int("Port", port))
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		slog.Info("shutdown started", slog.String("Signal", sig.String()))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			if er := server.Close(); er != nil {
				return fmt.Errorf("forcing server close: %w", er)
			}
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}
	return nil
}
