package redis

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_SelectsDatabaseFromURL(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	client, err := NewClient(ctx, "redis://"+mr.Addr()+"/2", zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	assert.Equal(t, 2, client.Options().DB)
	require.NoError(t, client.Set(ctx, "idem:k", "v", 0).Err())

	assert.True(t, mr.DB(2).Exists("idem:k"), "key should land in db 2")
	assert.False(t, mr.DB(0).Exists("idem:k"))
}

func TestNewClient_InvalidURL(t *testing.T) {
	_, err := NewClient(context.Background(), "://bad-url", zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse redis url")
}

func TestNewClient_ServerDown(t *testing.T) {
	mr := miniredis.RunT(t)
	url := "redis://" + mr.Addr()
	mr.Close()

	_, err := NewClient(context.Background(), url, zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ping redis")
}

func TestPing_ReportsServerLoss(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	client, err := NewClient(ctx, "redis://"+mr.Addr(), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, Ping(ctx, client))

	mr.Close()
	assert.Error(t, Ping(ctx, client))
}
