package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"

	"commerce-engine/internal/client"
	"commerce-engine/internal/config"
	"commerce-engine/internal/delivery"
	"commerce-engine/internal/discount"
	"commerce-engine/internal/enrollment"
	"commerce-engine/internal/events"
	"commerce-engine/internal/lock"
	"commerce-engine/internal/orders"
	"commerce-engine/internal/payment"
	"commerce-engine/internal/pricing"
	"commerce-engine/internal/plugins"
	"commerce-engine/internal/quotation"
	"commerce-engine/internal/repository"
	"commerce-engine/internal/server"
	"commerce-engine/internal/warehousing"
)

func main() {
	// load .env into os.Environ
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found (ok in prod)")
	}

	cfg := &config.Config{}
	if err := env.Parse(cfg); err != nil {
		fmt.Printf("Failed to parse config: %v\n", err)
		os.Exit(1)
	}

	db, err := client.InitDBClient(cfg.Database)
	if err != nil {
		log.Fatal("database init failed: ", err)
	}

	lockTTL := time.Duration(cfg.Checkout.LockTTLSeconds) * time.Second
	acquireTimeout := time.Duration(cfg.Checkout.LockAcquireTimeoutMS) * time.Millisecond
	var locker lock.Locker = lock.NewMemoryLocker(acquireTimeout)
	if cfg.Redis.Addr != "" {
		rdb, err := client.InitRedisClient(cfg.Redis)
		if err != nil {
			log.Fatal("redis init failed: ", err)
		}
		locker = lock.NewRedisLocker(rdb, lockTTL, acquireTimeout)
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.AMQP.URL != "" {
		amqpPublisher, err := events.NewAMQPPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange)
		if err != nil {
			log.Fatal("amqp init failed: ", err)
		}
		defer amqpPublisher.Close()
		publisher = amqpPublisher
	}

	registry := plugins.NewRegistry()
	registerPlugins(registry, cfg)
	registry.Boot(context.Background())
	for _, name := range registry.Skipped() {
		log.Printf("plugin %s skipped during boot", name)
	}

	stores := orders.Stores{
		Orders:               repository.NewOrderRepository(db),
		Positions:            repository.NewOrderPositionRepository(db),
		Deliveries:           repository.NewOrderDeliveryRepository(db),
		Payments:             repository.NewOrderPaymentRepository(db),
		Discounts:            repository.NewOrderDiscountRepository(db),
		Products:             repository.NewProductRepository(db),
		Users:                repository.NewUserRepository(db),
		PaymentProviders:     repository.NewPaymentProviderRepository(db),
		DeliveryProviders:    repository.NewDeliveryProviderRepository(db),
		WarehousingProviders: repository.NewWarehousingProviderRepository(db),
		Enrollments:          repository.NewEnrollmentRepository(db),
		Quotations:           repository.NewQuotationRepository(db),
		Tokens:               repository.NewTokenRepository(db),
	}

	orderService := orders.NewService(stores,
		orders.NewDirectors(registry),
		orders.NewPricers(registry),
		locker, publisher, cfg.Checkout.AutoConfirm)

	serverAddr := cfg.HTTP.Host + ":" + cfg.HTTP.Port
	srv := server.NewServer(orderService)

	log.Println("Starting HTTP server on", serverAddr)
	go func() {
		if err := srv.Start(serverAddr); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	<-sigChan
	log.Println("Signal received, starting graceful shutdown...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	registry.Shutdown(shutdownCtx)
	if err := srv.Shutdown(); err != nil {
		log.Fatal("HTTP server shutdown error")
	}
}

// registerPlugins wires all built-in adapters. Pricing chains, providers
// and discounts run unconditionally; gateway-bound adapters read their
// credentials from the environment.
func registerPlugins(registry *plugins.Registry, cfg *config.Config) {
	registry.RegisterPlugin(plugins.Plugin{
		Name: "pricing",
		Adapters: []plugins.Adapter{
			pricing.NewProductCatalogPriceAdapter(),
			pricing.NewProductDiscountAdapter(),
			pricing.NewProductTaxAdapter(),
			pricing.NewDeliveryFeesAdapter(),
			pricing.NewDeliveryDiscountAdapter(),
			pricing.NewDeliveryTaxAdapter(),
			pricing.NewPaymentFeesAdapter(),
			pricing.NewPaymentTaxAdapter(),
			pricing.NewOrderItemsAdapter(),
			pricing.NewOrderDeliveryAdapter(),
			pricing.NewOrderPaymentAdapter(),
			pricing.NewOrderDiscountsAdapter(),
		},
	})

	registry.RegisterPlugin(plugins.Plugin{
		Name: "payments",
		Adapters: []plugins.Adapter{
			payment.NewInvoiceAdapter(),
			payment.NewBraintreeAdapter(client.NewBraintreeClient(&cfg.Braintree), cfg.Braintree),
		},
	})

	registry.RegisterPlugin(plugins.Plugin{
		Name: "deliveries",
		Adapters: []plugins.Adapter{
			delivery.NewShippingAdapter(),
			delivery.NewPickupAdapter(),
		},
	})

	registry.RegisterPlugin(plugins.Plugin{
		Name: "warehousing",
		Adapters: []plugins.Adapter{
			warehousing.NewStoreAdapter(),
			warehousing.NewVirtualAdapter(cfg.Tokens.Secret),
		},
	})

	registry.RegisterPlugin(plugins.Plugin{
		Name: "fulfillment",
		Adapters: []plugins.Adapter{
			enrollment.NewLicensedAdapter(),
			quotation.NewManualAdapter(),
		},
	})

	registry.RegisterPlugin(plugins.Plugin{
		Name: "discounts",
		Adapters: []plugins.Adapter{
			discount.NewFreeDeliveryAdapter(cfg.Shop.FreeDeliveryThreshold),
			discount.NewHalfPriceAdapter(),
			discount.NewEarlyBirdAdapter(),
		},
	})
}
