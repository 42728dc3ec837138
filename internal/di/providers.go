package di

import (
    "context"
    "fmt"
    "time"

    "skyline/internal/domain/repository"
    "skyline/internal/handler/api"
    mid "skyline/internal/middleware"
    internalrepo "skyline/internal/repository"
    "skyline/internal/service/commentary"
    "skyline/internal/service/feed"
    "skyline/internal/service/prediction"
    "skyline/internal/service/speech"
    "skyline/internal/usecase"
    pkgcache "skyline/pkg/cache"
    pkgch "skyline/pkg/clickhouse"
    "skyline/pkg/config"
    xhttp "skyline/pkg/http"
    pkgkafka "skyline/pkg/kafka"
    "skyline/pkg/logger"
    "skyline/pkg/metrics"
    "skyline/pkg/server"
)

// ProvideLogger creates the application logger from config.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
    lcfg := &logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: cfg.Log.Output}
    if lcfg.Level == "" {
        lcfg.Level = "info"
    }
    if lcfg.Format == "" {
        lcfg.Format = "console"
    }
    if lcfg.Output == "" {
        lcfg.Output = "stdout"
    }
    return logger.New(lcfg)
}

// ProvideClickHouseClient creates a ClickHouse client and prepares the schema.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	db := cfg.ClickHouse.Database
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.InitSchema(ctx, []string{
		"CREATE DATABASE IF NOT EXISTS " + db,
		"CREATE TABLE IF NOT EXISTS " + db + `.games (
			gid String, hometeam String, visteam String,
			statsapi_game_pk Int64, date Date
		) ENGINE=ReplacingMergeTree ORDER BY gid`,
		"CREATE TABLE IF NOT EXISTS " + db + `.plays (
			gid String, inning UInt8, top_bot UInt8, nump UInt16,
			event String, batter String, pitcher String,
			bathand String, pithand String,
			outs_pre UInt8, outs_post UInt8,
			hr UInt8, rbi UInt8, k UInt8, er UInt8,
			hits UInt8, errors UInt8, gdp UInt8,
			br1_pre UInt8, br2_pre UInt8, br3_pre UInt8,
			t DateTime
		) ENGINE=MergeTree ORDER BY (gid, inning, top_bot, nump)`,
		"CREATE TABLE IF NOT EXISTS " + db + `.win_probability (
			gid String, play_seq UInt32, home_team String, inning String,
			win_probability Float64, key_play String, created_at DateTime DEFAULT now()
		) ENGINE=MergeTree ORDER BY (gid, play_seq)`,
	}); err != nil {
		_ = client.Close() // cannot log here (DI layer no logger); propagate error
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}

	return producer, nil
}

// ProvideRedisCache creates the shared Redis cache client.
func ProvideRedisCache(cfg *config.Config) (*pkgcache.RedisCache, error) {
	return pkgcache.NewRedisCache(
		pkgcache.WithRedisHost(cfg.Redis.Host),
		pkgcache.WithRedisPort(cfg.Redis.Port),
		pkgcache.WithRedisPassword(cfg.Redis.Password),
		pkgcache.WithRedisDB(cfg.Redis.DB),
		pkgcache.WithRedisPool(10, 2, 30*time.Second),
		pkgcache.WithRedisPrefix("skyline"),
	)
}

// ProvideCacheService fronts Redis with a small in-process layer for the
// read-heavy games and prediction lookups.
func ProvideCacheService(rc *pkgcache.RedisCache) pkgcache.Service {
	return pkgcache.NewLayeredCache(rc, pkgcache.WithLayeredMemorySize(512))
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvidePlayStore creates the ClickHouse play/game repository.
func ProvidePlayStore(chClient *pkgch.Client, cfg *config.Config) repository.PlayStore {
	db := cfg.ClickHouse.Database
	return internalrepo.NewClickHousePlayStore(chClient.DB(), db+".plays", db+".games")
}

// ProvidePredictionStore creates the ClickHouse win-probability repository.
func ProvidePredictionStore(chClient *pkgch.Client, cfg *config.Config) repository.PredictionStore {
	return internalrepo.NewClickHousePredictionStore(chClient.DB(), cfg.ClickHouse.Database+".win_probability")
}

// ProvideSessionStore creates the Redis replay session registry.
func ProvideSessionStore(rc *pkgcache.RedisCache, cfg *config.Config) repository.SessionStore {
	return internalrepo.NewRedisSessionStore(rc.Client(), cfg.Replay.SessionTTL)
}

// ProvidePlayPublisher creates the Kafka play publisher.
func ProvidePlayPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.Publisher {
	return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.Topic)
}

// ProvideKafkaConsumer creates a Kafka consumer configured from YAML.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideKafkaPlaysHandler registers the handler for the plays topic.
func ProvideKafkaPlaysHandler(store repository.PlayStore, metrics repository.Metrics, cfg *config.Config) *usecase.KafkaPlaysHandler {
	return usecase.NewKafkaPlaysHandler(cfg.Kafka.Topic, store, metrics)
}

// ProvideFeedStream creates the live play-by-play WebSocket stream.
func ProvideFeedStream(cfg *config.Config) repository.FeedStream {
	return feed.New(
		cfg.Feed.APIKey,
		cfg.Feed.WebSocketURL,
		cfg.Feed.GamePks,
		cfg.Feed.ReconnectDelay,
		cfg.Feed.PingInterval,
	)
}

// ProvidePlayProcessor creates the play processor use case.
func ProvidePlayProcessor(
	pub repository.Publisher,
	store repository.PlayStore,
	metrics repository.Metrics,
	cfg *config.Config,
) *usecase.PlayProcessor {
	return usecase.NewPlayProcessor(
		pub,
		store,
		metrics,
		cfg.Backend.Type,
		cfg.Backend.BatchSize,
		cfg.Backend.BatchTimeout,
	)
}

// ProvidePlayCollector creates the play collector use case.
func ProvidePlayCollector(
    stream repository.FeedStream,
    processor *usecase.PlayProcessor,
    metrics repository.Metrics,
) *usecase.PlayCollector {
    // Validate/throttle/buffer between the WebSocket and the backend
    pipe := mid.NewFeedPipeline(processor, metrics,
        mid.WithMaxRPS(10),
        mid.WithBufferSize(2000),
    )
    return usecase.NewPlayCollector(stream, processor, metrics, pipe)
}

// ProvideCommentator creates the commentary generator client.
func ProvideCommentator(cfg *config.Config) repository.Commentator {
	return commentary.NewHTTPGenerator(cfg)
}

// ProvideSynthesizer creates the text-to-speech client.
func ProvideSynthesizer(cfg *config.Config) repository.SpeechSynthesizer {
	return speech.NewHTTPSynthesizer(cfg)
}

// ProvidePredictor creates the win-probability model client.
func ProvidePredictor(cfg *config.Config) repository.Predictor {
	return prediction.NewHTTPPredictor(cfg)
}

// ProvideReplayManager creates the replay session manager.
func ProvideReplayManager(
	plays repository.PlayStore,
	sessions repository.SessionStore,
	commentator repository.Commentator,
	metrics repository.Metrics,
	cfg *config.Config,
) *usecase.ReplayManager {
	return usecase.NewReplayManager(plays, sessions, commentator, metrics, cfg.Replay.MaxPerUser)
}

// ProvideGamesService creates the recent-games use case.
func ProvideGamesService(store repository.PlayStore, c pkgcache.Service) *usecase.GamesService {
	return usecase.NewGamesService(store, c, 5*time.Minute)
}

// ProvidePredictionService creates the win-probability use case.
func ProvidePredictionService(
	c pkgcache.Service,
	store repository.PredictionStore,
	predictor repository.Predictor,
	metrics repository.Metrics,
	cfg *config.Config,
) *usecase.PredictionService {
	return usecase.NewPredictionService(c, store, predictor, metrics, cfg.Prediction.CacheTTL)
}

// ProvideRouter builds the API router with all endpoint handlers.
func ProvideRouter(
	l *logger.Logger,
	replay *usecase.ReplayManager,
	games *usecase.GamesService,
	predictions *usecase.PredictionService,
	tts repository.SpeechSynthesizer,
	cfg *config.Config,
) xhttp.Handler {
	return api.NewRouter(
		api.NewReplayHandler(l, replay),
		api.NewGamesHandler(l, games),
		api.NewPredictionsHandler(l, predictions),
		api.NewSpeechHandler(l, tts),
		cfg.Auth.JWTSecret,
		cfg.Auth.Enabled,
	)
}

// kafkaLogSink adapts the producer to the aggregated-log publisher interface.
type kafkaLogSink struct {
    producer *pkgkafka.Producer
}

func (s kafkaLogSink) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
    return s.producer.Publish(ctx, topic, nil, payload)
}

// ProvideApp creates the application server.
func ProvideApp(
    cfg *config.Config,
    l *logger.Logger,
    collector *usecase.PlayCollector,
    consumer *pkgkafka.Consumer,
    kh *usecase.KafkaPlaysHandler,
    chClient *pkgch.Client,
    producer *pkgkafka.Producer,
    router xhttp.Handler,
) *server.App {
    if consumer != nil {
        consumer.WithConsumerHook(pkgkafka.NewHookChain(
            pkgkafka.TracingHook(func(topic string, err error) {
                l.Warn("kafka message failed", logger.String("topic", topic), logger.Error(err))
            }),
        ))
    }
    // Ship aggregated error logs to Kafka when a logs topic is configured
    if producer != nil && len(cfg.Kafka.Brokers) > 0 && cfg.Kafka.LogsTopic != "" {
        l.AddCollector(&logger.CollectionConfig{
            TimeInterval:   30 * time.Second,
            CountThreshold: 100,
            Topic:          cfg.Kafka.LogsTopic,
            Publisher:      kafkaLogSink{producer: producer},
        })
    }
    app := server.New(cfg, l, collector, consumer, kh, chClient)
    app.SetHTTPHandler(router)
    if collector != nil {
        app.PlayProc = collector.Processor()
    }
    return app
}
