// ABOUTME: Runs session work in background goroutines and delivers results on a channel
// ABOUTME: Lets hosts stay responsive while completions and summaries are in flight
package core

import (
	"context"
	"errors"
	"sync"

	"github.com/harper/confidant/internal/lifecycle"
	"github.com/harper/confidant/internal/models"
)

// Result kinds
const (
	ResultReply        = "reply"
	ResultSessionEnded = "session_ended"
)

// ErrDispatcherClosed is returned for work submitted after Shutdown
var ErrDispatcherClosed = errors.New("dispatcher is shut down")

// Result is the outcome of one background task
type Result struct {
	Kind string
	Turn models.Turn
	Err  error
}

// Dispatcher detaches manager work from the caller. It also acts as a
// lifecycle.Listener so boundary events never block the monitor on the network.
type Dispatcher struct {
	manager *SessionManager
	results chan Result
	done    chan struct{}
	wg      sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

var _ lifecycle.Listener = (*Dispatcher)(nil)

// NewDispatcher creates a dispatcher whose result channel holds buffer entries
func NewDispatcher(manager *SessionManager, buffer int) *Dispatcher {
	return &Dispatcher{
		manager: manager,
		results: make(chan Result, buffer),
		done:    make(chan struct{}),
	}
}

// Results delivers task outcomes; it is closed by Shutdown
func (d *Dispatcher) Results() <-chan Result {
	return d.results
}

// Submit records the human turn now and fetches the reply in the background
func (d *Dispatcher) Submit(ctx context.Context, text string) (models.Turn, error) {
	if d.isClosed() {
		return models.Turn{}, ErrDispatcherClosed
	}
	pending, err := d.manager.BeginUserMessage(text)
	if err != nil {
		return models.Turn{}, err
	}

	d.run(func() Result {
		turn, err := d.manager.CompleteReply(ctx, pending)
		return Result{Kind: ResultReply, Turn: turn, Err: err}
	})
	return pending.Human, nil
}

// EndSession summarises and resets the session in the background
func (d *Dispatcher) EndSession(ctx context.Context) {
	d.run(func() Result {
		return Result{Kind: ResultSessionEnded, Err: d.manager.OnSessionEnded(ctx)}
	})
}

// OnSessionEnded implements lifecycle.Listener
func (d *Dispatcher) OnSessionEnded(ctx context.Context) error {
	d.EndSession(ctx)
	return nil
}

// OnSessionResumed implements lifecycle.Listener
func (d *Dispatcher) OnSessionResumed(ctx context.Context) {
	d.manager.OnSessionResumed(ctx)
}

func (d *Dispatcher) isClosed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

func (d *Dispatcher) run(task func() Result) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		r := task()
		select {
		case d.results <- r:
		case <-d.done:
		}
	}()
}

// Shutdown waits for in-flight tasks and closes Results. Tasks still run to
// completion but results not yet received when Shutdown starts may be dropped.
// Work submitted after Shutdown is ignored.
func (d *Dispatcher) Shutdown() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.done)
	d.mu.Unlock()

	d.wg.Wait()
	close(d.results)
}
