package worklist

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/phrazzld/loadqueue/internal/config"
	"github.com/phrazzld/loadqueue/internal/task"
)

// Source loads the list of tasks for a run
type Source interface {
	Load(ctx context.Context) ([]task.TaskID, error)
}

// NumberedSource yields the ids "1".."Count" after waiting Delay, emulating a
// remote file list that takes a moment to fetch.
type NumberedSource struct {
	Count int
	Delay time.Duration
}

// Load returns the numbered ids, or ctx.Err() if ctx ends during the delay
func (s NumberedSource) Load(ctx context.Context) ([]task.TaskID, error) {
	if s.Delay > 0 {
		timer := time.NewTimer(s.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("loading numbered work list: %w", ctx.Err())
		case <-timer.C:
		}
	}

	ids := make([]task.TaskID, 0, s.Count)
	for i := 1; i <= s.Count; i++ {
		ids = append(ids, task.TaskID(strconv.Itoa(i)))
	}
	return ids, nil
}

// StaticSource yields a fixed list of ids
type StaticSource []task.TaskID

// Load returns a copy of the list
func (s StaticSource) Load(ctx context.Context) ([]task.TaskID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ids := make([]task.TaskID, len(s))
	copy(ids, s)
	return ids, nil
}

// FromConfig builds the Source described by cfg. An explicit id list wins
// over the numbered list.
func FromConfig(cfg config.WorkListConfig) Source {
	if len(cfg.IDs) > 0 {
		ids := make(StaticSource, len(cfg.IDs))
		for i, id := range cfg.IDs {
			ids[i] = task.TaskID(id)
		}
		return ids
	}
	return NumberedSource{Count: cfg.Count, Delay: cfg.Delay}
}
