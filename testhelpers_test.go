//go:build integration

package main_test

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	kafkamodule "github.com/testcontainers/testcontainers-go/modules/kafka"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/travelfair/service-promo/internal/application"
	"github.com/travelfair/service-promo/internal/domain/agent"
	"github.com/travelfair/service-promo/internal/domain/code"
	"github.com/travelfair/service-promo/internal/domain/event"
	"github.com/travelfair/service-promo/internal/domain/promo"
	"github.com/travelfair/service-promo/internal/events"
	"github.com/travelfair/service-promo/internal/kafka"
	"github.com/travelfair/service-promo/internal/repository"
)

// testInfra holds shared test infrastructure.
type testInfra struct {
	DB           *gorm.DB
	KafkaBrokers []string
	Cleanup      func()
}

// promoStack holds wired-up promo service components.
type promoStack struct {
	Bookings        *application.BookingService
	Promos          *application.PromoService
	Codes           *application.CodeService
	Agents          *application.AgentService
	CleanupProducer func()
}

// setupContainers starts PostgreSQL and Kafka testcontainers and returns a connected GORM DB.
func setupContainers(t *testing.T) *testInfra {
	t.Helper()
	ctx := context.Background()

	pgReq := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "test_promo",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	pgContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: pgReq,
		Started:          true,
	})
	require.NoError(t, err, "failed to start PostgreSQL container")

	pgHost, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	pgPort, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("host=%s port=%s user=test password=test dbname=test_promo sslmode=disable", pgHost, pgPort.Port())

	// Poll until GORM can actually connect and ping.
	var db *gorm.DB
	require.Eventually(t, func() bool {
		var err error
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
		if err != nil {
			return false
		}
		sqlDB, err := db.DB()
		if err != nil {
			return false
		}
		return sqlDB.Ping() == nil
	}, 30*time.Second, 1*time.Second, "PostgreSQL not ready for connections")

	require.NoError(t, db.AutoMigrate(
		&repository.EventModel{},
		&repository.AgentModel{},
		&repository.PromoModel{},
		&repository.CodeModel{},
		&repository.BookingModel{},
	))

	kafkaContainer, err := kafkamodule.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err, "failed to start Kafka container")

	kafkaBrokers, err := kafkaContainer.Brokers(ctx)
	require.NoError(t, err, "failed to get Kafka brokers")

	createTopics(t, kafkaBrokers, events.TopicBookingEvents)

	cleanup := func() {
		if err := kafkaContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate Kafka container: %v", err)
		}
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate PostgreSQL container: %v", err)
		}
	}

	return &testInfra{
		DB:           db,
		KafkaBrokers: kafkaBrokers,
		Cleanup:      cleanup,
	}
}

// setupPromoStack wires up the full promo service stack.
func setupPromoStack(t *testing.T, db *gorm.DB, brokers []string) *promoStack {
	t.Helper()
	logger, _ := zap.NewDevelopment()

	promoRepo := repository.NewGormPromoRepository(db)
	codeRegistry := repository.NewGormCodeRegistry(db)
	bookingRepo := repository.NewGormBookingRepository(db)
	agentRepo := repository.NewGormAgentRepository(db)
	eventRepo := repository.NewGormEventRepository(db)
	producer := kafka.NewProducer(brokers, logger)

	return &promoStack{
		Bookings:        application.NewBookingService(bookingRepo, promoRepo, codeRegistry, agentRepo, eventRepo, producer, logger),
		Promos:          application.NewPromoService(promoRepo, bookingRepo, logger),
		Codes:           application.NewCodeService(codeRegistry, promoRepo, logger),
		Agents:          application.NewAgentService(agentRepo, bookingRepo, logger),
		CleanupProducer: func() { _ = producer.Close() },
	}
}

// seedAgent inserts an active travel agent.
func seedAgent(t *testing.T, db *gorm.DB) *agent.Agent {
	t.Helper()
	a, err := agent.NewAgent("Wanderlust Tours", 50)
	require.NoError(t, err)
	require.NoError(t, repository.NewGormAgentRepository(db).Save(context.Background(), a))
	return a
}

// seedPromo inserts an active promo valid today, attached to an active fair.
func seedPromo(t *testing.T, db *gorm.DB, kind promo.Kind, quotaTotal int, perAgent *int) *promo.Promo {
	t.Helper()
	fair, err := event.NewEvent("Jakarta Travel Fair", "", "JCC Senayan",
		time.Now(), time.Now().AddDate(0, 0, 3))
	require.NoError(t, err)
	require.NoError(t, repository.NewGormEventRepository(db).Save(context.Background(), fair))

	p, err := promo.NewPromo(fair.ID(), "Travel Fair Cashback", kind, "",
		quotaTotal, perAgent, []promo.CashbackTier{
			{MinAmount: 3_500_000, CashbackAmount: 250_000},
			{MinAmount: 5_000_000, CashbackAmount: 1_000_000},
			{MinAmount: 7_000_000, CashbackAmount: 2_500_000},
		}, time.Now(), time.Now().AddDate(0, 0, 3))
	require.NoError(t, err)
	require.NoError(t, repository.NewGormPromoRepository(db).Save(context.Background(), p))
	return p
}

// seedCode inserts an unclaimed guaranteed code valid today.
func seedCode(t *testing.T, db *gorm.DB, raw string, promoID uuid.UUID) *code.GuaranteedCode {
	t.Helper()
	c, err := code.NewGuaranteedCode(raw, promoID, time.Now(), time.Now().AddDate(0, 0, 3))
	require.NoError(t, err)
	require.NoError(t, repository.NewGormCodeRegistry(db).Save(context.Background(), c))
	return c
}

// consumeOneEvent reads from a Kafka topic until it finds an event of the expected type.
func consumeOneEvent(t *testing.T, brokers []string, topic, expectedType string, timeout time.Duration) kafka.CloudEvent {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	groupID := fmt.Sprintf("test-assert-%s", uuid.New().String()[:8])
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     brokers,
		GroupID:     groupID,
		Topic:       topic,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafkago.FirstOffset,
	})
	defer func() { _ = reader.Close() }()

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				t.Fatalf("timed out waiting for event type %q on topic %q", expectedType, topic)
			}
			continue
		}
		ce, err := kafka.ParseCloudEvent(msg.Value)
		if err != nil {
			continue
		}
		if ce.Type == expectedType {
			return ce
		}
	}
}

// createTopics pre-creates Kafka topics so producers don't fail with "Unknown Topic".
func createTopics(t *testing.T, brokers []string, topics ...string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", brokers[0])
	require.NoError(t, err, "failed to dial Kafka for topic creation")
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err, "failed to get Kafka controller")

	controllerConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, fmt.Sprintf("%d", controller.Port)))
	require.NoError(t, err, "failed to connect to Kafka controller")
	defer controllerConn.Close()

	topicConfigs := make([]kafkago.TopicConfig, len(topics))
	for i, topic := range topics {
		topicConfigs[i] = kafkago.TopicConfig{
			Topic:             topic,
			NumPartitions:     1,
			ReplicationFactor: 1,
		}
	}
	err = controllerConn.CreateTopics(topicConfigs...)
	require.NoError(t, err, "failed to create Kafka topics")

	// Give Kafka a moment to propagate topic metadata.
	time.Sleep(1 * time.Second)
}
