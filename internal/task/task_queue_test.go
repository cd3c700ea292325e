package task

import (
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

func TestNewPendingQueue(t *testing.T) {
	ids := []TaskID{"1", "2", "3"}
	queue := newPendingQueue(ids)

	assert.Equal(t, 3, queue.Len())
	assert.Equal(t, ids, queue.Snapshot())

	// The queue must not alias the caller's slice
	ids[0] = "changed"
	assert.Equal(t, TaskID("1"), queue.Snapshot()[0])
}

func TestPendingQueueFIFO(t *testing.T) {
	queue := newPendingQueue([]TaskID{"a", "b"})

	id, ok := queue.Pop()
	assert.True(t, ok)
	assert.Equal(t, TaskID("a"), id)

	// Retried tasks go to the tail, behind fresh work
	queue.Push("a")
	assert.Equal(t, []TaskID{"b", "a"}, queue.Snapshot())

	id, _ = queue.Pop()
	assert.Equal(t, TaskID("b"), id)
	id, _ = queue.Pop()
	assert.Equal(t, TaskID("a"), id)
}

func TestPendingQueueEmpty(t *testing.T) {
	queue := newPendingQueue(nil)

	id, ok := queue.Pop()
	assert.False(t, ok)
	assert.Equal(t, TaskID(""), id)
	assert.Equal(t, 0, queue.Len())
	assert.Empty(t, queue.Snapshot())
}
