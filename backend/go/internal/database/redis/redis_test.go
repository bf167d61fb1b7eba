package redis

import (
	"context"
	"testing"

	"docsearch/backend/go/internal/config"

	"github.com/stretchr/testify/assert"
)

func TestNewClient_Unreachable(t *testing.T) {
	client, err := NewClient(context.Background(), &config.RedisConfig{Address: "127.0.0.1:1"})
	assert.Error(t, err)
	assert.Nil(t, client)
}
