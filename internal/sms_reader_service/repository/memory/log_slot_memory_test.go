package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLogSlot(t *testing.T) {
	ctx := context.Background()
	slot := NewMemoryLogSlot()

	data, err := slot.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, data)

	payload := []byte(`[{"id":"1"}]`)
	require.NoError(t, slot.Save(ctx, payload))
	payload[0] = 'X' // caller mutation must not leak into the slot

	data, err = slot.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"1"}]`, string(data))

	require.NoError(t, slot.Delete(ctx))
	data, err = slot.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, data)
}
