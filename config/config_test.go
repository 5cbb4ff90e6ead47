package config

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		wantErr bool
		check   func(*testing.T, *Config)
	}{
		{
			name: "default configuration",
			envVars: map[string]string{
				"ENVIRONMENT": "development",
			},
			wantErr: false,
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "development", cfg.Environment)
				assert.Equal(t, "0.0.0.0", cfg.Server.Host)
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
				assert.Equal(t, "localhost", cfg.Database.Host)
				assert.Equal(t, 5432, cfg.Database.Port)
				assert.Equal(t, "dev", cfg.Database.User)
			},
		},
		{
			name: "retrieval and embedding defaults",
			envVars: map[string]string{
				"ENVIRONMENT": "development",
			},
			wantErr: false,
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 3, cfg.Retrieval.SemanticTopK)
				assert.Equal(t, 3, cfg.Retrieval.KeywordLimit)
				assert.Equal(t, 800, cfg.Retrieval.SnippetLimit)
				assert.Equal(t, DefaultFallbackMessage, cfg.Retrieval.FallbackMessage)
				assert.Empty(t, cfg.Embedding.APIKey)
				assert.Equal(t, 15*time.Second, cfg.Embedding.Timeout)
				assert.Equal(t, 0.3, cfg.Assistant.Temperature)
				assert.Equal(t, 0, cfg.Conversation.HistoryTurns)
				assert.Equal(t, 3, cfg.Conversation.AppendAttempts)
				assert.False(t, cfg.Redis.Enabled())
			},
		},
		{
			name: "production configuration",
			envVars: map[string]string{
				"ENVIRONMENT":    "production",
				"SERVER_PORT":    "9000",
				"DB_HOST":        "prod-db.example.com",
				"DB_PORT":        "5433",
				"JWT_SECRET":     "super-secret",
				"GOOGLE_API_KEY": "g-key",
				"OPENAI_API_KEY": "sk-xxxxx",
				"REDIS_ADDR":     "redis:6379",
			},
			wantErr: false,
			check: func(t *testing.T, cfg *Config) {
				assert.True(t, cfg.IsProduction())
				assert.False(t, cfg.IsDevelopment())
				assert.Equal(t, 9000, cfg.Server.Port)
				assert.Equal(t, "prod-db.example.com", cfg.Database.Host)
				assert.Equal(t, 5433, cfg.Database.Port)
				assert.Equal(t, "g-key", cfg.Embedding.APIKey)
				assert.NotEmpty(t, cfg.Assistant.APIKey)
				assert.True(t, cfg.Redis.Enabled())
			},
		},
		{
			name: "custom timeouts and pool settings",
			envVars: map[string]string{
				"SERVER_READ_TIMEOUT":  "60s",
				"SERVER_WRITE_TIMEOUT": "90s",
				"DB_MAX_OPEN_CONNS":    "50",
				"DB_MAX_IDLE_CONNS":    "10",
				"EMBEDDING_TIMEOUT":    "5s",
			},
			wantErr: false,
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 60*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, 90*time.Second, cfg.Server.WriteTimeout)
				assert.Equal(t, 50, cfg.Database.MaxOpenConns)
				assert.Equal(t, 10, cfg.Database.MaxIdleConns)
				assert.Equal(t, 5*time.Second, cfg.Embedding.Timeout)
			},
		},
		{
			name: "observability configuration",
			envVars: map[string]string{
				"LOG_LEVEL":       "debug",
				"LOG_FORMAT":      "text",
				"METRICS_ENABLED": "false",
				"METRICS_PORT":    "9091",
			},
			wantErr: false,
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "debug", cfg.Observability.LogLevel)
				assert.Equal(t, "text", cfg.Observability.LogFormat)
				assert.False(t, cfg.Observability.MetricsEnabled)
				assert.Equal(t, 9091, cfg.Observability.MetricsPort)
			},
		},
		{
			name: "CORS origins list",
			envVars: map[string]string{
				"CORS_ALLOWED_ORIGINS": "http://localhost:5173, https://shop.example.com",
			},
			wantErr: false,
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, []string{"http://localhost:5173", "https://shop.example.com"}, cfg.Server.AllowedOrigins)
			},
		},
		{
			name: "DATABASE_URL takes precedence",
			envVars: map[string]string{
				"DATABASE_URL": "postgres://shop:pw@db.internal:6543/shop?sslmode=disable",
			},
			wantErr: false,
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "postgres://shop:pw@db.internal:6543/shop?sslmode=disable", cfg.Database.DSN())
				assert.Equal(t, "host=db.internal port=6543 database=shop", cfg.Database.LogString())
			},
		},
		{
			name: "PORT env var takes precedence over SERVER_PORT default",
			envVars: map[string]string{
				"ENVIRONMENT": "development",
				"PORT":        "9443",
			},
			wantErr: false,
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 9443, cfg.Server.Port)
			},
		},
		{
			name: "production without JWT secret",
			envVars: map[string]string{
				"ENVIRONMENT": "production",
			},
			wantErr: true,
		},
		{
			name: "non-positive snippet limit",
			envVars: map[string]string{
				"RETRIEVAL_SNIPPET_LIMIT": "0",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			cfg, err := New(context.Background())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}

func validConfig() *Config {
	return &Config{
		Environment:   "development",
		Database:      DatabaseConfig{Host: "localhost", User: "user", Database: "db"},
		Retrieval:     RetrievalConfig{SemanticTopK: 3, KeywordLimit: 3, SnippetLimit: 800},
		Observability: ObservabilityConfig{LogLevel: "info"},
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		errMsg string
	}{
		{name: "valid development config", mutate: func(*Config) {}},
		{
			name:   "connection string alone is enough",
			mutate: func(c *Config) { c.Database = DatabaseConfig{ConnectionString: "postgres://db/shop"} },
		},
		{
			name:   "missing database host",
			mutate: func(c *Config) { c.Database.Host = "" },
			errMsg: "database configuration required",
		},
		{
			name:   "missing database user",
			mutate: func(c *Config) { c.Database.User = "" },
			errMsg: "database user is required",
		},
		{
			name:   "missing database name",
			mutate: func(c *Config) { c.Database.Database = "" },
			errMsg: "database name is required",
		},
		{
			name:   "zero keyword limit",
			mutate: func(c *Config) { c.Retrieval.KeywordLimit = 0 },
			errMsg: "retrieval limits must be positive",
		},
		{
			name:   "zero snippet limit",
			mutate: func(c *Config) { c.Retrieval.SnippetLimit = 0 },
			errMsg: "snippet limit",
		},
		{
			name:   "negative history window",
			mutate: func(c *Config) { c.Conversation.HistoryTurns = -1 },
			errMsg: "history turns",
		},
		{
			name:   "production without JWT secret",
			mutate: func(c *Config) { c.Environment = "production" },
			errMsg: "JWT secret is required",
		},
		{
			name: "production with JWT secret",
			mutate: func(c *Config) {
				c.Environment = "prod"
				c.Auth.JWTSecret = "s3cret"
			},
		},
		{
			name:   "missing log level",
			mutate: func(c *Config) { c.Observability.LogLevel = "" },
			errMsg: "log level is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.errMsg)
		})
	}
}

func TestConfig_Environment(t *testing.T) {
	tests := []struct {
		environment string
		production  bool
		development bool
	}{
		{"production", true, false},
		{"prod", true, false},
		{"development", false, true},
		{"dev", false, true},
		{"staging", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.environment, func(t *testing.T) {
			cfg := &Config{Environment: tt.environment}
			assert.Equal(t, tt.production, cfg.IsProduction())
			assert.Equal(t, tt.development, cfg.IsDevelopment())
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "shop",
		Password: "pw",
		Database: "storefront",
		SSLMode:  "disable",
	}

	assert.Equal(t, "host=localhost port=5432 user=shop password=pw dbname=storefront sslmode=disable", cfg.DSN())
	assert.NotContains(t, cfg.LogString(), "pw")
}

func TestServerConfig_Address(t *testing.T) {
	cfg := ServerConfig{Host: "0.0.0.0", Port: 8080}
	assert.Equal(t, "0.0.0.0:8080", cfg.Address())
}

func TestGetPort(t *testing.T) {
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("PORT", "")
	assert.Equal(t, 9000, getPort())

	t.Setenv("PORT", "7000")
	assert.Equal(t, 7000, getPort())
}

func TestEnvParsers(t *testing.T) {
	const key = "STOREFRONT_TEST_VALUE"

	tests := []struct {
		name  string
		value string
		get   func() any
		want  any
	}{
		{"int", "42", func() any { return getEnvAsInt(key, 10) }, 42},
		{"int unset", "", func() any { return getEnvAsInt(key, 10) }, 10},
		{"int invalid", "forty", func() any { return getEnvAsInt(key, 10) }, 10},
		{"bool", "false", func() any { return getEnvAsBool(key, true) }, false},
		{"bool invalid", "maybe", func() any { return getEnvAsBool(key, true) }, true},
		{"float", "0.7", func() any { return getEnvAsFloat(key, 0.3) }, 0.7},
		{"float invalid", "warm", func() any { return getEnvAsFloat(key, 0.3) }, 0.3},
		{"duration", "30s", func() any { return getEnvAsDuration(key, time.Second) }, 30 * time.Second},
		{"duration invalid", "soon", func() any { return getEnvAsDuration(key, time.Second) }, time.Second},
		{"list", " a, ,b ", func() any { return getEnvAsList(key, []string{"*"}) }, []string{"a", "b"}},
		{"list only separators", " , ", func() any { return getEnvAsList(key, []string{"*"}) }, []string{"*"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(key, tt.value)
			assert.Equal(t, tt.want, tt.get())
		})
	}
}
