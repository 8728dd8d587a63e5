package bot

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"gopkg.in/tomb.v1"
)

// StatusTask runs a check periodically for one channel until stopped.
type StatusTask struct {
	tomb.Tomb

	ChannelID string
	Interval  time.Duration
	run       func(ctx context.Context)
}

func (task *StatusTask) loop() {
	defer task.Done()
	// a check in progress is abandoned as soon as the task is killed
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-task.Dying():
			cancel()
		case <-ctx.Done():
		}
	}()

	ticker := time.NewTicker(task.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-task.Dying():
			return
		case <-ticker.C:
			task.run(ctx)
		}
	}
}

// Stop kills the task and waits for a check in progress to finish.
func (task *StatusTask) Stop() error {
	task.Kill(nil)
	return task.Wait()
}

// TaskManager owns the scheduled tasks, at most one per channel.
type TaskManager struct {
	m     sync.Map
	count int64
}

// Schedule starts a task for channelID, replacing any running one.
func (tm *TaskManager) Schedule(channelID string, interval time.Duration, run func(ctx context.Context)) *StatusTask {
	tm.Cancel(channelID)
	task := &StatusTask{ChannelID: channelID, Interval: interval, run: run}
	tm.m.Store(channelID, task)
	atomic.AddInt64(&tm.count, 1)
	go task.loop()
	return task
}

// Cancel stops the channel's task. It reports whether one was running.
func (tm *TaskManager) Cancel(channelID string) bool {
	v, ok := tm.m.Load(channelID)
	if !ok {
		return false
	}
	tm.m.Delete(channelID)
	atomic.AddInt64(&tm.count, -1)
	v.(*StatusTask).Stop()
	return true
}

func (tm *TaskManager) Get(channelID string) *StatusTask {
	v, ok := tm.m.Load(channelID)
	if !ok {
		return nil
	}
	return v.(*StatusTask)
}

func (tm *TaskManager) Len() int {
	return int(atomic.LoadInt64(&tm.count))
}

func (tm *TaskManager) Range(f func(task *StatusTask) bool) {
	tm.m.Range(func(key, value interface{}) bool {
		return f(value.(*StatusTask))
	})
}

func (tm *TaskManager) CancelAll() {
	var ids []string
	tm.Range(func(task *StatusTask) bool {
		ids = append(ids, task.ChannelID)
		return true
	})
	for _, id := range ids {
		tm.Cancel(id)
	}
}
