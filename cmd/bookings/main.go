package main

import (
	"nucleus/internal/bookings/handler"
	"nucleus/internal/bookings/repository"
	"nucleus/internal/bookings/service"
	"nucleus/internal/bookings/validator"
	"nucleus/internal/notify"
	resourcerepo "nucleus/internal/resources/repository"
	resourceservice "nucleus/internal/resources/service"
	resourcevalidator "nucleus/internal/resources/validator"
	"nucleus/pkg/app"
	"nucleus/pkg/config"
	"nucleus/pkg/kafka"
	kafka_config "nucleus/pkg/kafka/config"
	kafka_middleware "nucleus/pkg/kafka/middleware"
)

const ServiceName = "bookings"

func main() {
	cfg := config.Load(ServiceName)

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal("Invalid configuration", "error", err)
	}
	cfg.LogConfiguration()

	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting Bookings service")

	bookingService, producers := initServices(cfg)
	defer func() {
		for _, p := range producers {
			if err := p.Close(); err != nil {
				cfg.Log.Error("Failed to close Kafka producer", "error", err)
			}
		}
	}()

	serverApp := app.NewApplication()
	serverApp.SetApp(cfg, handler.NewBookingHandler(bookingService, cfg.Log))
	serverApp.Run()
}

func initServices(cfg *config.Config) (service.BookingService, []*kafka.Producer) {
	kafkaCfg := kafka_config.Load()
	if err := kafkaCfg.Validate(); err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}

	notifProducer := newProducer(cfg, kafkaCfg, cfg.NotificationsTopic)
	activityProducer := newProducer(cfg, kafkaCfg, cfg.ActivityTopic)
	emitter := notify.NewEmitter(notifProducer, activityProducer, ServiceName, cfg.Log)

	catalog := resourceservice.NewResourceService(
		resourcerepo.NewMongoResourceRepository(cfg),
		resourcevalidator.NewResourceValidator(cfg.Log),
		emitter,
		cfg,
	)

	bookingService := service.NewBookingService(
		repository.NewMongoBookingRepository(cfg),
		repository.NewBookingLockRepository(cfg),
		catalog,
		validator.NewBookingValidator(cfg.Log),
		emitter,
		cfg,
	)

	cfg.Log.Info("Booking service initialized", "database", cfg.MongoDatabaseName)
	return bookingService, []*kafka.Producer{notifProducer, activityProducer}
}

func newProducer(cfg *config.Config, kafkaCfg *kafka_config.Config, topic string) *kafka.Producer {
	producer, err := kafka.NewProducer(kafkaCfg, topic, cfg.EventsDLQTopic)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "topic", topic, "error", err)
	}
	producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
	producer.Use(kafka_middleware.MetricsProducerMiddleware())
	return producer
}
