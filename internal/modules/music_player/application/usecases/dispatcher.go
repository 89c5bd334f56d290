package usecases

import (
	"context"
	"log/slog"
	"sync"

	"github.com/disgoorg/snowflake/v2"
)

// dispatcherQueueSize bounds the number of pending tasks per guild.
const dispatcherQueueSize = 64

type dispatcherTask struct {
	run  func(ctx context.Context) error
	done chan error // nil for fire-and-forget tasks
}

type guildWorker struct {
	tasks chan dispatcherTask
	stop  chan struct{}
}

// GuildDispatcher runs orchestration work on one goroutine per guild, so
// all mutations of a guild's player state and queue are serialized without
// locks. Tasks for different guilds run concurrently.
type GuildDispatcher struct {
	mu      sync.Mutex
	workers map[snowflake.ID]*guildWorker
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	closed  bool
}

// NewGuildDispatcher creates a new GuildDispatcher.
func NewGuildDispatcher() *GuildDispatcher {
	ctx, cancel := context.WithCancel(context.Background())
	return &GuildDispatcher{
		workers: make(map[snowflake.ID]*guildWorker),
		ctx:     ctx,
		cancel:  cancel,
	}
}

func (d *GuildDispatcher) worker(guildID snowflake.ID) *guildWorker {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}
	if w, ok := d.workers[guildID]; ok {
		return w
	}

	w := &guildWorker{
		tasks: make(chan dispatcherTask, dispatcherQueueSize),
		stop:  make(chan struct{}),
	}
	d.workers[guildID] = w

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for {
			select {
			case <-d.ctx.Done():
				return
			case <-w.stop:
				return
			case task := <-w.tasks:
				err := task.run(d.ctx)
				if task.done != nil {
					task.done <- err
				} else if err != nil {
					slog.Error("dispatched task failed",
						"guild", guildID,
						"error", err,
					)
				}
			}
		}
	}()

	return w
}

// Submit enqueues a fire-and-forget task on the guild's worker. Errors are
// logged. Used for transport callbacks, which must never block the caller.
func (d *GuildDispatcher) Submit(guildID snowflake.ID, run func(ctx context.Context) error) {
	w := d.worker(guildID)
	if w == nil {
		slog.Warn("dropping task submitted to closed dispatcher", "guild", guildID)
		return
	}

	select {
	case w.tasks <- dispatcherTask{run: run}:
	case <-d.ctx.Done():
	}
}

// Do runs a task on the guild's worker and waits for it to complete.
// Tasks must not call Do for the same guild, or they will deadlock.
func (d *GuildDispatcher) Do(guildID snowflake.ID, run func(ctx context.Context) error) error {
	w := d.worker(guildID)
	if w == nil {
		return context.Canceled
	}

	done := make(chan error, 1)
	select {
	case w.tasks <- dispatcherTask{run: run, done: done}:
	case <-d.ctx.Done():
		return d.ctx.Err()
	}

	select {
	case err := <-done:
		return err
	case <-d.ctx.Done():
		return d.ctx.Err()
	}
}

// Remove stops and forgets the guild's worker. Pending tasks are dropped.
// Called after a guild's session is torn down.
func (d *GuildDispatcher) Remove(guildID snowflake.ID) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if w, ok := d.workers[guildID]; ok {
		close(w.stop)
		delete(d.workers, guildID)
	}
}

// Close stops all workers and waits for in-flight tasks to finish.
func (d *GuildDispatcher) Close() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	d.cancel()
	d.wg.Wait()
}
