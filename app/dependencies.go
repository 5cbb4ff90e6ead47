package app

import (
	"context"
	"fmt"
	"time"

	"github.com/upb/storefront-assistant/auth"
	"github.com/upb/storefront-assistant/config"
	"github.com/upb/storefront-assistant/internal/cache"
	"github.com/upb/storefront-assistant/internal/observability"
	"github.com/upb/storefront-assistant/middleware"
	"github.com/upb/storefront-assistant/repositories"
	"github.com/upb/storefront-assistant/repositories/postgres"
	"github.com/upb/storefront-assistant/services/assistant"
	"github.com/upb/storefront-assistant/services/conversation"
	"github.com/upb/storefront-assistant/services/embedding"
	"github.com/upb/storefront-assistant/services/providers"
	"github.com/upb/storefront-assistant/services/providers/openai"
	"github.com/upb/storefront-assistant/services/retrieval"
	"go.uber.org/zap"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config  *config.Config
	DB      *postgres.DB
	Logger  *zap.Logger
	Metrics *observability.Metrics

	// Cache is nil when Redis is not configured or unreachable at startup
	Cache cache.Client

	// Repository Factory
	RepoFactory *postgres.RepositoryFactory

	// Repositories
	Repos     *repositories.Repositories
	TxManager repositories.TransactionManager

	// Retrieval
	Embedder     embedding.Embedder
	Orchestrator *retrieval.Orchestrator

	// Language model; nil when no credential is configured
	LLM providers.Provider

	// Assistant services
	Conversations *conversation.Store
	Chat          *conversation.ChatService
	Assistant     *assistant.Service

	// Auth
	Tokens         *auth.HMACValidator
	AuthMiddleware *middleware.AuthMiddleware

	embeddingConfigured bool
}

// NewDependencies creates and wires up all application dependencies
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	factory, err := postgres.NewRepositoryFactory(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := factory.GetDB().PingContext(ctx); err != nil {
		_ = factory.Close()
		return nil, fmt.Errorf("failed to initialize database: database ping failed: %w", err)
	}

	logger.Info("database connection established",
		zap.String("connection", cfg.Database.LogString()))

	return NewDependenciesWithFactory(ctx, cfg, factory, logger)
}

// NewDependenciesWithFactory wires everything on top of an open database.
// Tests pass a factory over sqlmock.
func NewDependenciesWithFactory(ctx context.Context, cfg *config.Config, factory *postgres.RepositoryFactory, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config:      cfg,
		Logger:      logger,
		Metrics:     observability.NewMetrics(),
		RepoFactory: factory,
		DB:          factory.GetDB(),
	}

	deps.initRepositories()
	deps.initCache(ctx)
	deps.initRetrieval()
	deps.initLanguageModel()
	deps.initAssistant()
	deps.initAuth()

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// initRepositories initializes all repository instances
func (d *Dependencies) initRepositories() {
	d.Repos = d.RepoFactory.NewRepositories()
	d.TxManager = d.RepoFactory.GetTransactionManager()
	d.Logger.Info("repositories initialized")
}

// initCache connects to Redis when configured. The cache only memoizes
// embeddings, so an unreachable Redis is logged and skipped.
func (d *Dependencies) initCache(ctx context.Context) {
	if !d.Config.Redis.Enabled() {
		d.Logger.Info("redis not configured, embedding cache disabled")
		return
	}

	client, err := cache.NewRedisClient(ctx, d.Config.Redis)
	if err != nil {
		d.Logger.Warn("redis unavailable, embedding cache disabled",
			zap.String("addr", d.Config.Redis.Addr),
			zap.Error(err))
		return
	}
	d.Cache = client
	d.Logger.Info("redis embedding cache enabled", zap.String("addr", d.Config.Redis.Addr))
}

// initRetrieval builds the embedding client and the tiered orchestrator
func (d *Dependencies) initRetrieval() {
	google := embedding.NewGoogleClient(d.Config.Embedding, d.Logger, d.Metrics)
	d.embeddingConfigured = google.Configured()

	var embedder embedding.Embedder = google
	if d.Cache != nil && google.Configured() {
		embedder = embedding.NewCachedEmbedder(google, d.Cache, google.Model(), d.Config.Redis.TTL, d.Logger, d.Metrics)
	}
	if !google.Configured() {
		d.Logger.Warn("embedding credential not configured, semantic retrieval disabled")
	}
	d.Embedder = embedder

	rc := d.Config.Retrieval
	strategies := []retrieval.Strategy{
		retrieval.NewSemanticStrategy(embedder, d.Repos.Documents, rc.SemanticTopK),
		retrieval.NewKeywordStrategy(retrieval.NewKeywordSearch(d.Repos.Documents), rc.KeywordLimit),
	}
	d.Orchestrator = retrieval.NewOrchestrator(rc, strategies, d.Logger, d.Metrics)
}

// initLanguageModel registers the chat model when a credential is present
func (d *Dependencies) initLanguageModel() {
	adapter := openai.NewOpenAIAdapter(d.Config.Assistant)
	if !adapter.Configured() {
		d.Logger.Warn("language model credential not configured, chatbot disabled")
		return
	}
	d.LLM = adapter
	d.Logger.Info("language model configured",
		zap.String("provider", adapter.Name()),
		zap.String("model", d.Config.Assistant.Model))
}

// initAssistant wires the conversation store, chat turn and intent router
func (d *Dependencies) initAssistant() {
	cc := d.Config.Conversation
	d.Conversations = conversation.NewStore(d.Repos.Conversations, cc.AppendAttempts, d.Logger, d.Metrics)
	d.Chat = conversation.NewChatService(
		d.Conversations,
		d.LLM,
		conversation.NewHistoryPolicy(cc.HistoryTurns),
		d.Config.Assistant,
		d.Logger,
	)
	d.Assistant = assistant.NewService(d.Repos, d.Orchestrator, d.Conversations, d.Logger, d.Metrics)
}

func (d *Dependencies) initAuth() {
	d.Tokens = auth.NewHMACValidator(d.Config.Auth)
	if !d.Tokens.Configured() {
		d.Logger.Warn("JWT secret not configured, authenticated endpoints disabled")
		// Use reject-all validator so protected routes return 401
		d.AuthMiddleware = middleware.NewAuthMiddleware(&rejectAllValidator{}, d.Logger)
		return
	}
	d.AuthMiddleware = middleware.NewAuthMiddleware(&hmacTokenValidatorAdapter{validator: d.Tokens}, d.Logger)
	d.Logger.Info("token validation initialized", zap.String("issuer", d.Config.Auth.Issuer))
}

// EmbeddingConfigured reports whether semantic retrieval can run
func (d *Dependencies) EmbeddingConfigured() bool {
	return d.embeddingConfigured
}

// hmacTokenValidatorAdapter adapts auth.HMACValidator to middleware.TokenValidator
type hmacTokenValidatorAdapter struct {
	validator *auth.HMACValidator
}

func (a *hmacTokenValidatorAdapter) ValidateToken(ctx context.Context, token string) (*middleware.Claims, error) {
	parsed, err := a.validator.ValidateToken(ctx, token)
	if err != nil {
		return nil, err
	}
	return &middleware.Claims{
		Sub:    fmt.Sprintf("%d", parsed.UserID),
		UserID: parsed.UserID,
		Name:   parsed.Name,
		Email:  parsed.Email,
		Iss:    parsed.Issuer,
		Exp:    parsed.ExpiresAt.Unix(),
		Iat:    parsed.IssuedAt.Unix(),
	}, nil
}

// rejectAllValidator rejects all tokens (used when no secret is configured)
type rejectAllValidator struct{}

func (*rejectAllValidator) ValidateToken(context.Context, string) (*middleware.Claims, error) {
	return nil, auth.ErrNotConfigured
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	if d.Cache != nil {
		if err := d.Cache.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close cache: %w", err))
		}
		d.Cache = nil
	}

	if d.RepoFactory != nil {
		if err := d.RepoFactory.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
		d.RepoFactory = nil
	}

	_ = d.Logger.Sync()

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}

	return nil
}

// ShutdownTimeout returns how long servers get to drain
func (d *Dependencies) ShutdownTimeout() time.Duration {
	if d.Config.Server.ShutdownTimeout > 0 {
		return d.Config.Server.ShutdownTimeout
	}
	return 10 * time.Second
}
