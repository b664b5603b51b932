package main

import (
	"context"

	allocationhandler "railbook/internal/allocation/handler"
	allocationservice "railbook/internal/allocation/service"
	"railbook/internal/bookings/validator"
	"railbook/internal/health"
	"railbook/internal/storage"
	"railbook/internal/vehicles/consumer"
	vehiclehandler "railbook/internal/vehicles/handler"
	vehicleservice "railbook/internal/vehicles/service"
	vehiclevalidator "railbook/internal/vehicles/validator"
	"railbook/pkg/app"
	"railbook/pkg/config"
	"railbook/pkg/events"
	"railbook/pkg/kafka"
	kafka_config "railbook/pkg/kafka/config"
	kafka_middleware "railbook/pkg/kafka/middleware"
)

const ServiceName = "bookings"

func main() {
	cfg := config.Load(ServiceName)
	if cfg.UsesMongo() {
		cfg.SetMongo()
	}

	cfg.Log.Info("Starting Bookings service")
	store := storage.New(cfg)

	kafkaCfg := loadKafka(cfg)
	publisher := initPublisher(cfg, kafkaCfg)

	vehicleService := vehicleservice.NewVehicleService(
		store.Vehicles,
		store.Bookings,
		store.Waitlist,
		store.Inventory,
		store.Tx,
		store.Gate,
		vehiclevalidator.NewVehicleValidator(cfg.Log),
		cfg,
	)
	allocationService := allocationservice.NewAllocationService(
		store.Vehicles,
		store.Inventory,
		store.Bookings,
		store.Waitlist,
		store.Tx,
		store.Locker,
		store.Gate,
		publisher,
		validator.NewBookingValidator(cfg.Log, cfg.MaxSeatsPerBooking),
		cfg,
	)

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(
		health.NewHealthHandler(cfg.Client.Mongo, cfg.StorageDriver, cfg.Log),
		allocationhandler.NewAllocationHandler(allocationService, cfg.Log),
		vehiclehandler.NewVehicleHandler(vehicleService, cfg.WebhookSecret, cfg.Log),
	)

	if kafkaCfg != nil {
		stopConsumer := startDefinitionConsumer(cfg, kafkaCfg, vehicleService)
		serverApp.OnShutdown(stopConsumer)
	}
	serverApp.OnShutdown(func() {
		if err := publisher.Close(); err != nil {
			cfg.Log.Error("Failed to close event publisher", "error", err)
		}
	})
	serverApp.OnShutdown(cfg.GracefulShutdown)

	serverApp.Run()
}

func loadKafka(cfg *config.Config) *kafka_config.Config {
	if !cfg.EventsEnabled {
		cfg.Log.Info("Kafka disabled, events are not published and definitions arrive over HTTP only")
		return nil
	}
	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log)
	return kafkaCfg
}

func initPublisher(cfg *config.Config, kafkaCfg *kafka_config.Config) events.Publisher {
	if kafkaCfg == nil {
		return events.NewNoopPublisher()
	}

	producer, err := kafka.NewProducer(kafkaCfg, kafkaCfg.BookingEventsTopic, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	if kafkaCfg.EnableMiddleware {
		producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
	}

	cfg.Log.Info("Publishing booking events", "topic", producer.Topic())
	return events.NewKafkaPublisher(producer, cfg.Log)
}

// startDefinitionConsumer applies definitions from the topic in this process
// so that memory storage sees them too. The returned func stops it and
// waits for the in-flight message.
func startDefinitionConsumer(cfg *config.Config, kafkaCfg *kafka_config.Config, vehicles vehicleservice.VehicleService) func() {
	handler := consumer.NewDefinitionHandler(vehicles, cfg.Log)
	c, err := consumer.NewDefinitionConsumer(kafkaCfg, handler, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create definitions consumer", "error", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := c.Start(ctx); err != nil && ctx.Err() == nil {
			cfg.Log.Error("Definitions consumer stopped", "error", err)
		}
	}()

	return func() {
		cancel()
		<-done
		if err := c.Close(); err != nil {
			cfg.Log.Error("Failed to close definitions consumer", "error", err)
		}
	}
}
