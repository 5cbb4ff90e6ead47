package config

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultFallbackMessage is returned when no retrieval tier produced usable text.
const DefaultFallbackMessage = "I couldn't find a policy about that exact phrase. Please refer to our general return and refund policy."

// DefaultSystemPrompt frames the conversational model as the store's sales assistant.
const DefaultSystemPrompt = "You are a virtual sales assistant in an e-commerce store. " +
	"Converse with users as if you are a real-life sales assistant: friendly, professional, and approachable. " +
	"Be formal and don't joke around too much. " +
	"Proactively suggest products or promotions based on the user's previous interactions and purchase history. " +
	"Anticipate the user's needs, ask clarifying questions politely, and make personalized recommendations."

// Config represents the complete application configuration
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Embedding     EmbeddingConfig
	Assistant     AssistantConfig
	Retrieval     RetrievalConfig
	Conversation  ConversationConfig
	Auth          AuthConfig
	Redis         RedisConfig
	WebSocket     WebSocketConfig
	Observability ObservabilityConfig
	Environment   string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

// DatabaseConfig holds PostgreSQL database configuration.
// When ConnectionString (from DATABASE_URL) is set, it takes precedence over individual fields.
type DatabaseConfig struct {
	ConnectionString string // From DATABASE_URL when set
	Host             string
	Port             int
	User             string
	Password         string
	Database         string
	SSLMode          string
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetime  time.Duration
}

// EmbeddingConfig holds the embedding provider settings.
// An empty APIKey is a supported state: every embedding request reports absent.
type EmbeddingConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// AssistantConfig holds the chat model used for conversational turns
type AssistantConfig struct {
	APIKey       string
	BaseURL      string
	Model        string
	Temperature  float64
	MaxTokens    int
	Timeout      time.Duration
	SystemPrompt string
}

// RetrievalConfig holds the tiered retrieval limits
type RetrievalConfig struct {
	SemanticTopK    int
	KeywordLimit    int
	SnippetLimit    int
	FallbackMessage string
}

// ConversationConfig holds conversation store settings
type ConversationConfig struct {
	HistoryTurns   int // 0 keeps the whole transcript in the model context
	AppendAttempts int
}

// AuthConfig holds JWT settings
type AuthConfig struct {
	JWTSecret string
	Issuer    string
	TokenTTL  time.Duration
}

// RedisConfig holds the optional embedding cache settings
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration
}

// Enabled reports whether a Redis address was configured
func (c RedisConfig) Enabled() bool {
	return c.Addr != ""
}

// WebSocketConfig holds per-connection limits
type WebSocketConfig struct {
	MessagesPerSecond float64
	Burst             int
	ReadLimit         int64
}

// ObservabilityConfig holds monitoring and logging configuration
type ObservabilityConfig struct {
	LogLevel       string
	LogFormat      string // json or text
	MetricsEnabled bool
	MetricsPort    int
}

// New creates a new Config instance by loading environment variables
func New(ctx context.Context) (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getPort(),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			AllowedOrigins:  getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
		Database: loadDatabaseConfig(),
		Embedding: EmbeddingConfig{
			APIKey:  getEnv("GOOGLE_API_KEY", ""),
			BaseURL: getEnv("EMBEDDING_BASE_URL", "https://generativelanguage.googleapis.com/v1"),
			Model:   getEnv("EMBEDDING_MODEL", "textembedding-gecko-001"),
			Timeout: getEnvAsDuration("EMBEDDING_TIMEOUT", 15*time.Second),
		},
		Assistant: AssistantConfig{
			APIKey:       getEnv("OPENAI_API_KEY", ""),
			BaseURL:      getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			Model:        getEnv("ASSISTANT_MODEL", "gpt-4o-mini"),
			Temperature:  getEnvAsFloat("ASSISTANT_TEMPERATURE", 0.3),
			MaxTokens:    getEnvAsInt("ASSISTANT_MAX_TOKENS", 512),
			Timeout:      getEnvAsDuration("ASSISTANT_TIMEOUT", 60*time.Second),
			SystemPrompt: getEnv("ASSISTANT_SYSTEM_PROMPT", DefaultSystemPrompt),
		},
		Retrieval: RetrievalConfig{
			SemanticTopK:    getEnvAsInt("RETRIEVAL_SEMANTIC_TOP_K", 3),
			KeywordLimit:    getEnvAsInt("RETRIEVAL_KEYWORD_LIMIT", 3),
			SnippetLimit:    getEnvAsInt("RETRIEVAL_SNIPPET_LIMIT", 800),
			FallbackMessage: getEnv("RETRIEVAL_FALLBACK_MESSAGE", DefaultFallbackMessage),
		},
		Conversation: ConversationConfig{
			HistoryTurns:   getEnvAsInt("CONVERSATION_HISTORY_TURNS", 0),
			AppendAttempts: getEnvAsInt("CONVERSATION_APPEND_ATTEMPTS", 3),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
			Issuer:    getEnv("JWT_ISSUER", "storefront-assistant"),
			TokenTTL:  getEnvAsDuration("JWT_TOKEN_TTL", 24*time.Hour),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Prefix:   getEnv("REDIS_PREFIX", "storefront:embedding:"),
			TTL:      getEnvAsDuration("EMBEDDING_CACHE_TTL", 24*time.Hour),
		},
		WebSocket: WebSocketConfig{
			MessagesPerSecond: getEnvAsFloat("WS_MESSAGES_PER_SECOND", 2),
			Burst:             getEnvAsInt("WS_BURST", 5),
			ReadLimit:         int64(getEnvAsInt("WS_READ_LIMIT", 64*1024)),
		},
		Observability: ObservabilityConfig{
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			LogFormat:      getEnv("LOG_FORMAT", "json"),
			MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
			MetricsPort:    getEnvAsInt("METRICS_PORT", 9090),
		},
	}

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if all required configuration fields are set
func (c *Config) Validate() error {
	// Database validation (DATABASE_URL or DB_* vars)
	if c.Database.ConnectionString == "" && c.Database.Host == "" {
		return fmt.Errorf("database configuration required: set DATABASE_URL or DB_HOST")
	}
	if c.Database.ConnectionString == "" {
		if c.Database.User == "" {
			return fmt.Errorf("database user is required")
		}
		if c.Database.Database == "" {
			return fmt.Errorf("database name is required")
		}
	}

	if c.Retrieval.SemanticTopK <= 0 || c.Retrieval.KeywordLimit <= 0 {
		return fmt.Errorf("retrieval limits must be positive")
	}
	if c.Retrieval.SnippetLimit <= 0 {
		return fmt.Errorf("retrieval snippet limit must be positive")
	}
	if c.Conversation.HistoryTurns < 0 {
		return fmt.Errorf("conversation history turns must not be negative")
	}

	if c.IsProduction() && c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT secret is required in production")
	}

	// Observability validation
	if c.Observability.LogLevel == "" {
		return fmt.Errorf("log level is required")
	}

	return nil
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

// DSN returns the PostgreSQL connection string.
// Uses ConnectionString (from DATABASE_URL) when set; otherwise builds from individual fields.
func (c *DatabaseConfig) DSN() string {
	if c.ConnectionString != "" {
		return c.ConnectionString
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// LogString returns a safe string for logging (no password). Parses ConnectionString when set.
func (c *DatabaseConfig) LogString() string {
	if c.ConnectionString != "" {
		u, err := url.Parse(c.ConnectionString)
		if err == nil {
			host := u.Hostname()
			port := u.Port()
			if port == "" {
				port = "5432"
			}
			db := strings.TrimPrefix(u.Path, "/")
			return fmt.Sprintf("host=%s port=%s database=%s", host, port, db)
		}
		return "host=<from DATABASE_URL>"
	}
	return fmt.Sprintf("host=%s port=%d database=%s", c.Host, c.Port, c.Database)
}

// loadDatabaseConfig loads database config from DATABASE_URL or DB_* env vars
func loadDatabaseConfig() DatabaseConfig {
	dbURL := getEnv("DATABASE_URL", "")
	if dbURL != "" {
		return DatabaseConfig{
			ConnectionString: dbURL,
			MaxOpenConns:     getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:     getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime:  getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		}
	}
	return DatabaseConfig{
		Host:            getEnv("DB_HOST", "localhost"),
		Port:            getEnvAsInt("DB_PORT", 5432),
		User:            getEnv("DB_USER", "dev"),
		Password:        getEnv("DB_PASSWORD", "storefront_password"),
		Database:        getEnv("DB_NAME", "storefront"),
		SSLMode:         getEnv("DB_SSLMODE", "disable"),
		MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
	}
}

// Address returns the HTTP server address
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// getPort reads PORT (set by most PaaS runtimes), then SERVER_PORT
func getPort() int {
	return getEnvAsInt("PORT", getEnvAsInt("SERVER_PORT", 8080))
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAs parses key with parse. Unset or unparsable values yield defaultValue.
func getEnvAs[T any](key string, defaultValue T, parse func(string) (T, error)) T {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	value, err := parse(raw)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	return getEnvAs(key, defaultValue, strconv.Atoi)
}

func getEnvAsBool(key string, defaultValue bool) bool {
	return getEnvAs(key, defaultValue, strconv.ParseBool)
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	return getEnvAs(key, defaultValue, func(s string) (float64, error) {
		return strconv.ParseFloat(s, 64)
	})
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	return getEnvAs(key, defaultValue, time.ParseDuration)
}

// getEnvAsList splits a comma separated value, dropping empty items
func getEnvAsList(key string, defaultValue []string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
