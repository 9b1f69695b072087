package capture

import (
	"context"
	"sync"
	"sync/atomic"

	"gocv.io/x/gocv"
)

// FrameBuffer holds the most recent frame as JPEG for stream viewers. The
// frame loop is the only reader of the camera; viewers wait on the buffer.
// Frames are only encoded while at least one viewer is watching.
type FrameBuffer struct {
	mu       sync.Mutex
	jpeg     []byte
	seq      uint64
	notify   chan struct{}
	watchers atomic.Int32
}

func NewFrameBuffer() *FrameBuffer {
	return &FrameBuffer{notify: make(chan struct{})}
}

// Watch registers a viewer. The returned func unregisters it.
func (b *FrameBuffer) Watch() func() {
	b.watchers.Add(1)
	var once sync.Once
	return func() {
		once.Do(func() { b.watchers.Add(-1) })
	}
}

// Watching reports whether any viewer is registered.
func (b *FrameBuffer) Watching() bool {
	return b.watchers.Load() > 0
}

// Put encodes frame as JPEG and publishes it when someone is watching.
func (b *FrameBuffer) Put(frame *gocv.Mat) error {
	if !b.Watching() || frame == nil || frame.Empty() {
		return nil
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		return err
	}
	defer buf.Close()

	b.PutJPEG(buf.GetBytes())
	return nil
}

// PutJPEG publishes already-encoded bytes. The slice is copied.
func (b *FrameBuffer) PutJPEG(data []byte) {
	cp := make([]byte, len(data))
	copy(cp, data)

	b.mu.Lock()
	b.jpeg = cp
	b.seq++
	close(b.notify)
	b.notify = make(chan struct{})
	b.mu.Unlock()
}

// Latest returns the current frame and its sequence number. A zero sequence
// means no frame has been published yet.
func (b *FrameBuffer) Latest() ([]byte, uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.jpeg, b.seq
}

// Next blocks until a frame newer than after is available or ctx ends.
func (b *FrameBuffer) Next(ctx context.Context, after uint64) ([]byte, uint64, error) {
	for {
		b.mu.Lock()
		if b.seq > after {
			data, seq := b.jpeg, b.seq
			b.mu.Unlock()
			return data, seq, nil
		}
		wait := b.notify
		b.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, after, ctx.Err()
		case <-wait:
		}
	}
}
