package main

import (
	"nucleus/internal/notify"
	"nucleus/internal/resources/handler"
	"nucleus/internal/resources/repository"
	"nucleus/internal/resources/service"
	"nucleus/internal/resources/validator"
	"nucleus/pkg/app"
	"nucleus/pkg/config"
	"nucleus/pkg/kafka"
	kafka_config "nucleus/pkg/kafka/config"
	kafka_middleware "nucleus/pkg/kafka/middleware"
)

const ServiceName = "resources"

func main() {
	cfg := config.Load(ServiceName)

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal("Invalid configuration", "error", err)
	}
	cfg.LogConfiguration()

	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting Resources service")

	resourceService, activityProducer := initServices(cfg)
	defer func() {
		if err := activityProducer.Close(); err != nil {
			cfg.Log.Error("Failed to close Kafka producer", "error", err)
		}
	}()

	serverApp := app.NewApplication()
	serverApp.SetApp(cfg, handler.NewResourceHandler(resourceService, cfg.Log))
	serverApp.Run()
}

func initServices(cfg *config.Config) (service.ResourceService, *kafka.Producer) {
	kafkaCfg := kafka_config.Load()
	if err := kafkaCfg.Validate(); err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}

	activityProducer, err := kafka.NewProducer(kafkaCfg, cfg.ActivityTopic, cfg.EventsDLQTopic)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "topic", cfg.ActivityTopic, "error", err)
	}
	activityProducer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
	activityProducer.Use(kafka_middleware.MetricsProducerMiddleware())

	// Resource changes only feed the audit trail; user notifications stay
	// with the booking flow.
	emitter := notify.NewEmitter(nil, activityProducer, ServiceName, cfg.Log)

	resourceService := service.NewResourceService(
		repository.NewMongoResourceRepository(cfg),
		validator.NewResourceValidator(cfg.Log),
		emitter,
		cfg,
	)

	cfg.Log.Info("Resource service initialized", "database", cfg.MongoDatabaseName)
	return resourceService, activityProducer
}
