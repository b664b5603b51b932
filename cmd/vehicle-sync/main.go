package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"railbook/internal/storage"
	"railbook/internal/vehicles/consumer"
	vehicleservice "railbook/internal/vehicles/service"
	vehiclevalidator "railbook/internal/vehicles/validator"
	"railbook/pkg/config"
	kafka_config "railbook/pkg/kafka/config"
)

const ServiceName = "vehicle-sync"

// vehicle-sync applies vehicle definitions from Kafka against shared Mongo
// storage, for deployments where the bookings service runs with events off.
func main() {
	cfg := config.Load(ServiceName)
	if !cfg.UsesMongo() {
		cfg.Log.Fatal("vehicle-sync needs shared storage, set STORAGE_DRIVER=mongo")
	}
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log)

	store := storage.New(cfg)
	vehicles := vehicleservice.NewVehicleService(
		store.Vehicles,
		store.Bookings,
		store.Waitlist,
		store.Inventory,
		store.Tx,
		store.Gate,
		vehiclevalidator.NewVehicleValidator(cfg.Log),
		cfg,
	)

	c, err := consumer.NewDefinitionConsumer(kafkaCfg, consumer.NewDefinitionHandler(vehicles, cfg.Log), cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create definitions consumer", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg.Log.Info("Consuming vehicle definitions",
		"topic", kafkaCfg.VehicleDefinitionsTopic,
		"group_id", kafkaCfg.ConsumerGroupID,
		"dlq", kafkaCfg.VehicleDefinitionsDLQ,
	)
	runErr := c.Start(ctx)
	if ctx.Err() != nil {
		cfg.Log.Info("Shutdown signal received")
	}
	stop()

	if err := c.Close(); err != nil {
		cfg.Log.Error("Failed to close definitions consumer", "error", err)
	}
	if runErr != nil && ctx.Err() == nil {
		cfg.Log.Error("Definitions consumer stopped", "error", runErr)
		cfg.GracefulShutdown()
		os.Exit(1)
	}
	cfg.Log.Info("vehicle-sync stopped")
}
