package capture

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameBuffer_Watch(t *testing.T) {
	b := NewFrameBuffer()
	assert.False(t, b.Watching())

	stop := b.Watch()
	assert.True(t, b.Watching())

	stop()
	stop()
	assert.False(t, b.Watching(), "unwatch is idempotent")
}

func TestFrameBuffer_PutIgnoredWithoutWatchers(t *testing.T) {
	b := NewFrameBuffer()
	require.NoError(t, b.Put(nil))

	_, seq := b.Latest()
	assert.Zero(t, seq)
}

func TestFrameBuffer_NextWaitsForNewFrame(t *testing.T) {
	b := NewFrameBuffer()
	b.PutJPEG([]byte{1})

	data, seq, err := b.Next(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, []byte{1}, data)
	assert.Equal(t, uint64(1), seq)

	done := make(chan []byte)
	go func() {
		data, _, _ := b.Next(context.Background(), seq)
		done <- data
	}()

	b.PutJPEG([]byte{2})
	select {
	case got := <-done:
		assert.Equal(t, []byte{2}, got)
	case <-time.After(time.Second):
		t.Fatal("Next did not wake on a new frame")
	}
}

func TestFrameBuffer_NextCancelled(t *testing.T) {
	b := NewFrameBuffer()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := b.Next(ctx, 0)
	assert.ErrorIs(t, err, context.Canceled)
}
