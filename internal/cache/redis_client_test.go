package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/upb/storefront-assistant/config"
)

func TestNewRedisClient_Unreachable(t *testing.T) {
	client, err := NewRedisClient(context.Background(), config.RedisConfig{Addr: "127.0.0.1:1"})

	assert.Nil(t, client)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "redis ping failed")
}

func TestKey(t *testing.T) {
	assert.Equal(t, "", Key())
	assert.Equal(t, "embed", Key("embed"))
	assert.Equal(t, "embed:gecko:abc", Key("embed", "gecko", "abc"))
}
