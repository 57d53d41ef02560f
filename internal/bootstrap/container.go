package bootstrap

import (
	"context"
	"log"
	"time"

	"doc-chat-be/internal/config"
	"doc-chat-be/internal/controller"
	"doc-chat-be/internal/pkg/logger"
	"doc-chat-be/internal/pkg/serverutils"
	"doc-chat-be/internal/repository/unitofwork"
	"doc-chat-be/internal/service"
	"doc-chat-be/pkg/embedding"
	"doc-chat-be/pkg/llm/factory"
	"doc-chat-be/pkg/objectstore"
	"doc-chat-be/pkg/ratelimiter"
	"doc-chat-be/pkg/rag/retriever"
	"doc-chat-be/pkg/rag/stream"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	ChatController   controller.IChatController
	UploadController controller.IUploadController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	Logger logger.ILogger
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. Object Storage
	objectStore, err := objectstore.NewClient(context.Background(), objectstore.Config{
		Endpoint:  cfg.Storage.Endpoint,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		Bucket:    cfg.Storage.Bucket,
		Secure:    cfg.Storage.UseSSL,
	})
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize object storage: %v", err)
	}

	// 4. AI Providers
	var embeddingProvider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embeddingProvider = embedding.NewOllamaProvider(
			cfg.Ai.OllamaBaseURL,
			cfg.Ai.OllamaEmbeddingModel,
		)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaEmbeddingModel)
	} else {
		embeddingProvider = embedding.NewOpenAIProvider(cfg.Ai.OpenAIAPIKey, cfg.Ai.OpenAIBaseURL)
		log.Printf("[INFO] Using Embedding Provider: OPENAI")
	}

	llmBaseURL := cfg.Ai.OpenAIBaseURL
	if cfg.Ai.LLMProvider == "ollama" {
		llmBaseURL = cfg.Ai.OllamaBaseURL
	}
	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		llmBaseURL,
		cfg.Ai.OpenAIAPIKey,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 5. Rate Limiter
	var limiter ratelimiter.RateLimiter
	if cfg.RateLimit.Backend == "redis" {
		opts, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Fatalf("[FATAL] Invalid REDIS_URL: %v", err)
		}
		limiter = ratelimiter.NewRedisLimiter(redis.NewClient(opts), cfg.RateLimit.PerMinute, time.Minute)
		log.Printf("[INFO] Using Rate Limiter: REDIS (%d/min)", cfg.RateLimit.PerMinute)
	} else {
		limiter = ratelimiter.NewWindowLimiter(cfg.RateLimit.PerMinute, time.Minute)
		log.Printf("[INFO] Using Rate Limiter: MEMORY (%d/min)", cfg.RateLimit.PerMinute)
	}

	// 6. RAG Core
	ret := retriever.NewRetriever(uowFactory, embeddingProvider, cfg.Ai.SimilarityThreshold, sysLogger)
	pipeline := stream.NewPipeline(llmProvider, sysLogger)

	// 7. Services
	publisherService := service.NewPublisherService(cfg.Ai.TitleTopic, pubSub)
	chatService := service.NewChatService(uowFactory, ret, pipeline, publisherService, sysLogger)
	ingestionService := service.NewIngestionService(uowFactory, embeddingProvider, objectStore, sysLogger)
	consumerService := service.NewConsumerService(pubSub, cfg.Ai.TitleTopic, uowFactory, llmProvider)

	// 8. Controllers
	rateLimitware := serverutils.RateLimitMiddleware(limiter)
	chatController := controller.NewChatController(chatService, rateLimitware, sysLogger)
	uploadController := controller.NewUploadController(ingestionService)

	return &Container{
		ChatController:   chatController,
		UploadController: uploadController,
		ConsumerService:  consumerService,
		Logger:           sysLogger,
	}
}
