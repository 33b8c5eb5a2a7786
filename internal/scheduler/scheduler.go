// Package scheduler partitions a batch of calls into fixed-size concurrency
// windows and drives the stage executor over each window with one goroutine
// per item. Progress flows out through a callback fired on every state
// transition; outcomes come back in input order no matter how items settle.
package scheduler

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"voice-qa-go/internal/call"
	"voice-qa-go/internal/pipeline"
)

// Progress is one progress notification. Completed is monotonically
// non-decreasing across the whole batch and reaches Total exactly once, when
// the last item settles. Item carries the best-available data at the time of
// the callback so consumers can render partial results.
type Progress struct {
	ItemID    string
	Status    call.Status
	Completed int
	Total     int
	Item      *call.Item
}

// ProgressFunc receives progress notifications. Invocations are serialized;
// the callback never runs concurrently with itself.
type ProgressFunc func(p Progress)

// Executor is the per-item contract the scheduler drives.
type Executor interface {
	Execute(ctx context.Context, item *call.Item, notify pipeline.Notifier) call.Outcome
}

// Scheduler runs batches with bounded parallelism.
type Scheduler struct {
	Exec Executor
	Log  *logrus.Entry
}

// Run partitions items into windows of at most concurrency and executes each
// window fully before starting the next. It always returns exactly one
// outcome per input item, index-aligned to items; a failing item never
// disturbs its siblings. An empty batch returns an empty result with no
// progress callbacks. A cancelled context stops new windows from launching;
// the window already in flight runs to settlement.
func (s *Scheduler) Run(ctx context.Context, items []*call.Item, concurrency int, onProgress ProgressFunc) call.BatchResult {
	results := make(call.BatchResult, len(items))
	if len(items) == 0 {
		return results
	}
	if concurrency < 1 {
		concurrency = 1
	}

	log := s.Log.WithFields(logrus.Fields{
		"batch_id":    uuid.NewString(),
		"total":       len(items),
		"concurrency": concurrency,
	})
	log.Info("batch started")

	total := len(items)
	completed := 0
	var mu sync.Mutex

	var notify pipeline.Notifier = func(item *call.Item, status call.Status, terminal bool) {
		mu.Lock()
		defer mu.Unlock()
		if terminal {
			completed++
		}
		if onProgress != nil {
			onProgress(Progress{
				ItemID:    item.ID,
				Status:    status,
				Completed: completed,
				Total:     total,
				Item:      item,
			})
		}
	}

	for start := 0; start < total; start += concurrency {
		if err := ctx.Err(); err != nil {
			s.failRemaining(items, results, start, err, notify)
			break
		}

		end := start + concurrency
		if end > total {
			end = total
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(idx int) {
				defer wg.Done()
				// each index is written by exactly one goroutine
				results[idx] = s.Exec.Execute(ctx, items[idx], notify)
			}(i)
		}
		wg.Wait()

		log.WithFields(logrus.Fields{
			"window_end": end,
		}).Debug("window settled")
	}

	log.WithField("completed", completed).Info("batch finished")
	return results
}

// failRemaining settles never-launched items as failed so the one-outcome-
// per-item guarantee holds even under cancellation.
func (s *Scheduler) failRemaining(items []*call.Item, results call.BatchResult, from int, cause error, notify pipeline.Notifier) {
	for i := from; i < len(items); i++ {
		items[i].SetFailed("batch cancelled: " + cause.Error())
		notify(items[i], call.StatusFailed, true)
		results[i] = call.Outcome{
			ID:         items[i].ID,
			FinalState: call.StatusFailed,
			Error:      items[i].ErrorMessage,
			Item:       items[i],
		}
	}
}
