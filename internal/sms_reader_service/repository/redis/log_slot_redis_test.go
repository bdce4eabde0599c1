package redis

import (
	"context"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unreachableAddr returns an address nothing is listening on.
func unreachableAddr(t *testing.T) string {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return addr
}

func TestRedisLogSlot_UnreachableServer(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client := goredis.NewClient(&goredis.Options{
		Addr:        unreachableAddr(t),
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	slot := NewRedisLogSlot(client, "sms_log", logger)
	ctx := context.Background()

	data, err := slot.Load(ctx)
	assert.Error(t, err)
	assert.Nil(t, data)

	assert.Error(t, slot.Save(ctx, []byte("[]")))
	assert.Error(t, slot.Delete(ctx))
}

func TestNewClient_PingFails(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	client, err := NewClient(ctx, unreachableAddr(t), "", 0)
	assert.Error(t, err)
	assert.Nil(t, client)
}

// fakeCmdable serves GET/SET/DEL from a map; any other command panics.
type fakeCmdable struct {
	goredis.Cmdable
	data map[string]string
}

func (f *fakeCmdable) Get(_ context.Context, key string) *goredis.StringCmd {
	v, ok := f.data[key]
	if !ok {
		return goredis.NewStringResult("", goredis.Nil)
	}
	return goredis.NewStringResult(v, nil)
}

func (f *fakeCmdable) Set(_ context.Context, key string, value interface{}, _ time.Duration) *goredis.StatusCmd {
	f.data[key] = string(value.([]byte))
	return goredis.NewStatusResult("OK", nil)
}

func (f *fakeCmdable) Del(_ context.Context, keys ...string) *goredis.IntCmd {
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	return goredis.NewIntResult(n, nil)
}

func TestRedisLogSlot_RoundTrip(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	fake := &fakeCmdable{data: map[string]string{}}
	slot := NewRedisLogSlot(fake, "sms_log", logger)
	ctx := context.Background()

	data, err := slot.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, data)

	require.NoError(t, slot.Save(ctx, []byte(`[{"id":"a"}]`)))
	assert.Equal(t, `[{"id":"a"}]`, fake.data["sms_log"])

	data, err = slot.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"a"}]`, string(data))

	require.NoError(t, slot.Delete(ctx))
	data, err = slot.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, data)
}
